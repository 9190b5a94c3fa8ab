package authhandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *auth.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Get("/setup", h.handleSetupStatus)
	r.Post("/setup", h.handleSetup)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/auth/me", h.handleMe)
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermUsersManage, h.Perms))
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Get("/{userID}", h.handleGetUser)
		r.Put("/{userID}", h.handleUpdateUser)
		r.Delete("/{userID}", h.handleDeleteUser)
	})
}

type loginPayload struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p loginPayload) identifier() string {
	for _, candidate := range []string{p.Login, p.Username, p.Email} {
		if value := strings.TrimSpace(candidate); value != "" {
			return value
		}
	}
	return ""
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("login", payload.identifier(), "username or email is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, reqID) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.identifier(), payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid username/email or password", reqID)
		return
	}
	if err != nil {
		zap.L().Error("login failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", reqID)
		return
	}
	h.Audit.RecordQuietly(r.Context(), result.User.ID, "auth.login", "user", result.User.ID, reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, result, reqID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	u, err := h.Service.GetUser(r.Context(), user.UserID)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, u, reqID)
}

func (h *Handler) handleSetupStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	needed, err := h.Service.NeedsSetup(r.Context())
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, map[string]bool{"needsSetup": needed}, reqID)
}

func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload auth.CreateUserInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if rejectUser(w, reqID, payload) {
		return
	}
	u, err := h.Service.Setup(r.Context(), payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), u.ID, "auth.setup", "user", u.ID, reqID, shared.ClientIP(r), nil, u)
	api.Created(w, u, reqID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, users, reqID)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	var payload auth.CreateUserInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if rejectUser(w, reqID, payload) {
		return
	}

	u, err := h.Service.CreateUser(r.Context(), payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), actor.UserID, "user.create", "user", u.ID, reqID, shared.ClientIP(r), nil, u)
	api.Created(w, u, reqID)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	u, err := h.Service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, u, reqID)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")
	var payload auth.UpdateUserInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	before, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	u, err := h.Service.UpdateUser(r.Context(), userID, payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), actor.UserID, "user.update", "user", u.ID, reqID, shared.ClientIP(r), before, u)
	api.Success(w, u, reqID)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")
	if userID == actor.UserID {
		api.Fail(w, http.StatusBadRequest, "self_delete", "you cannot delete your own account", reqID)
		return
	}
	if err := h.Service.DeleteUser(r.Context(), userID); err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), actor.UserID, "user.delete", "user", userID, reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, map[string]string{"id": userID}, reqID)
}

func rejectUser(w http.ResponseWriter, reqID string, in auth.CreateUserInput) bool {
	v := shared.NewValidator()
	v.Required("username", in.Username, "is required")
	v.Required("email", in.Email, "is required")
	v.Email("email", in.Email)
	v.Required("password", in.Password, "is required")
	v.Enum("role", in.Role, auth.Roles, "must be admin, manager or user")
	return v.Reject(w, reqID)
}

func (h *Handler) fail(w http.ResponseWriter, reqID string, err error) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, auth.ErrDuplicateUser):
		api.Fail(w, http.StatusConflict, "duplicate_user", err.Error(), reqID)
	case errors.Is(err, auth.ErrInvalidRole), errors.Is(err, auth.ErrWeakPassword):
		api.Fail(w, http.StatusBadRequest, "invalid_user", err.Error(), reqID)
	case errors.Is(err, auth.ErrSetupComplete):
		api.Fail(w, http.StatusConflict, "setup_complete", err.Error(), reqID)
	case errors.Is(err, auth.ErrLastAdmin):
		api.Fail(w, http.StatusConflict, "last_admin", err.Error(), reqID)
	default:
		zap.L().Error("user request failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "user request failed", reqID)
	}
}
