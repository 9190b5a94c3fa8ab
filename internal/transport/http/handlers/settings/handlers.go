package settingshandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/settings"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *settings.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *settings.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermSettingsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)
	r.Route("/settings", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(read).Get("/company", h.handleGetCompany)
		r.With(write).Put("/company", h.handleUpdateCompany)
		r.With(read).Get("/{key}", h.handleGet)
		r.With(write).Put("/{key}", h.handleSet)
		r.With(write).Delete("/{key}", h.handleDelete)
	})
}

// The SMTP row holds a sealed password and is only reachable through the
// email endpoints.
func hidden(key string) bool {
	return key == settings.KeySMTPConfig
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	all, err := h.Service.List(r.Context())
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	out := make([]settings.Setting, 0, len(all))
	for _, s := range all {
		if !hidden(s.Key) {
			out = append(out, s)
		}
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	key := chi.URLParam(r, "key")
	if hidden(key) {
		h.fail(w, reqID, settings.ErrSettingNotFound)
		return
	}
	s, err := h.Service.Get(r.Context(), key)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, s, reqID)
}

type valuePayload struct {
	Value string `json:"value"`
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if hidden(key) {
		api.Fail(w, http.StatusBadRequest, "reserved_key", "use the email endpoints to change the SMTP configuration", reqID)
		return
	}
	var payload valuePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	s, err := h.Service.Set(r.Context(), key, payload.Value)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "setting.set", "setting", key, reqID, shared.ClientIP(r), nil, s)
	api.Success(w, s, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	key := chi.URLParam(r, "key")
	if hidden(key) {
		api.Fail(w, http.StatusBadRequest, "reserved_key", "use the email endpoints to change the SMTP configuration", reqID)
		return
	}
	if err := h.Service.Delete(r.Context(), key); err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "setting.delete", "setting", key, reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, map[string]string{"key": key}, reqID)
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	c, err := h.Service.Company(r.Context())
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, c, reqID)
}

func (h *Handler) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload settings.Company
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("companyName", payload.Name, "is required")
	if v.Reject(w, reqID) {
		return
	}
	before, err := h.Service.Company(r.Context())
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	c, err := h.Service.UpdateCompany(r.Context(), payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "company.update", "setting", "company", reqID, shared.ClientIP(r), before, c)
	api.Success(w, c, reqID)
}

func (h *Handler) fail(w http.ResponseWriter, reqID string, err error) {
	switch {
	case errors.Is(err, settings.ErrSettingNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, settings.ErrInvalidKey):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, settings.ErrDuplicateKey):
		api.Fail(w, http.StatusConflict, "duplicate_key", err.Error(), reqID)
	default:
		zap.L().Error("settings request failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "settings request failed", reqID)
	}
}
