package reportshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payflow/internal/domain/auth"
	"payflow/internal/domain/reports"
	"payflow/internal/platform/jobs"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
	Jobs    *jobs.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, jobsSvc *jobs.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/reports/dashboard", h.handleDashboard)
	r.With(middleware.RequireAuth).Get("/jobs/{jobID}", h.handleJob)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	d, err := h.Service.Dashboard(r.Context())
	if err != nil {
		zap.L().Error("dashboard failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", reqID)
		return
	}
	api.Success(w, d, reqID)
}

func (h *Handler) handleJob(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	run, err := h.Jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if errors.Is(err, jobs.ErrRunNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
		return
	}
	if err != nil {
		zap.L().Error("job lookup failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "job_lookup_failed", "failed to load job", reqID)
		return
	}
	api.Success(w, run, reqID)
}
