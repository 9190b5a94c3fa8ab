package leavehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/leave"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermLeaveRead, h.Perms)
	write := middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)
	r.Route("/leave", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/{requestID}", h.handleGet)
		r.With(write).Put("/{requestID}", h.handleUpdate)
		r.With(write).Delete("/{requestID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/{requestID}/status", h.handleStatus)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 500)
	filter := leave.Filter{
		Status:     r.URL.Query().Get("status"),
		EmployeeID: r.URL.Query().Get("employeeId"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{leave.StatusPending, leave.StatusApproved, leave.StatusRejected}, "must be pending, approved or rejected")
	if v.Reject(w, reqID) {
		return
	}
	items, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, shared.NewPage(items, total, page), reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload leave.Request
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	v.Required("leaveType", payload.LeaveType, "is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "leave.create", "leave_request", created.ID, reqID, shared.ClientIP(r), nil, created)
	api.Created(w, created, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	out, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload leave.Update
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	out, err := h.Service.Update(r.Context(), chi.URLParam(r, "requestID"), payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "leave.update", "leave_request", out.ID, reqID, shared.ClientIP(r), nil, out)
	api.Success(w, out, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "requestID")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "leave.delete", "leave_request", id, reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, map[string]string{"id": id}, reqID)
}

type statusPayload struct {
	Status string `json:"status"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload statusPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	out, err := h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "requestID"), payload.Status, user.UserID)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "leave."+out.Status, "leave_request", out.ID, reqID, shared.ClientIP(r), nil,
		map[string]string{"status": out.Status})
	api.Success(w, out, reqID)
}

func (h *Handler) fail(w http.ResponseWriter, reqID string, err error) {
	switch {
	case errors.Is(err, leave.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, leave.ErrEmployeeNotFound):
		api.Fail(w, http.StatusBadRequest, "invalid_employee", err.Error(), reqID)
	case errors.Is(err, leave.ErrInvalidRequest), errors.Is(err, leave.ErrInvalidStatus):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, leave.ErrNotPending):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), reqID)
	default:
		zap.L().Error("leave request failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "leave request failed", reqID)
	}
}
