package failedpayslipshandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/failedpayslips"
	"payflow/internal/platform/email"
	"payflow/internal/platform/jobs"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *failedpayslips.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
	Jobs    *jobs.Service
}

func NewHandler(service *failedpayslips.Service, perms middleware.PermissionStore, auditSvc *audit.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead, h.Perms)
	send := middleware.RequirePermission(auth.PermPayslipsSend, h.Perms)
	r.Route("/failed-payslips", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(send).Delete("/", h.handleDeleteByRecord)
		r.With(send).Post("/retry-all", h.handleRetryAll)
		r.With(read).Get("/{failedPayslipID}", h.handleGet)
		r.With(send).Delete("/{failedPayslipID}", h.handleDelete)
		r.With(send).Post("/{failedPayslipID}/retry", h.handleRetry)
		r.With(send).Post("/{failedPayslipID}/resolve", h.handleResolve)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 500)
	q := r.URL.Query()
	filter := failedpayslips.Filter{
		Status:          q.Get("status"),
		EmployeeID:      q.Get("employeeId"),
		PayrollRecordID: q.Get("recordId"),
		Limit:           page.Limit,
		Offset:          page.Offset,
	}
	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{failedpayslips.StatusPending, failedpayslips.StatusResolved}, "must be pending or resolved")
	if v.Reject(w, reqID) {
		return
	}
	items, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	pending, err := h.Service.CountPending(r.Context())
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, map[string]any{
		"items":        items,
		"total":        total,
		"pendingCount": pending,
		"limit":        page.Limit,
		"offset":       page.Offset,
	}, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	fp, err := h.Service.Get(r.Context(), chi.URLParam(r, "failedPayslipID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, fp, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "failedPayslipID")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "failed_payslip.delete", "failed_payslip", id, reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleDeleteByRecord(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	recordID := r.URL.Query().Get("recordId")
	v := shared.NewValidator()
	v.Required("recordId", recordID, "is required")
	if v.Reject(w, reqID) {
		return
	}
	deleted, err := h.Service.DeleteByPayrollRecord(r.Context(), recordID)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "failed_payslip.delete_record", "payroll_record", recordID, reqID, shared.ClientIP(r), nil,
		map[string]int64{"deleted": deleted})
	api.Success(w, map[string]int64{"deleted": deleted}, reqID)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	fp, err := h.Service.Resolve(r.Context(), chi.URLParam(r, "failedPayslipID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "failed_payslip.resolve", "failed_payslip", fp.ID, reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, fp, reqID)
}

// handleRetry reports a failed resend as 502 with the updated row in the
// error details so the caller sees the new retry count.
func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "failedPayslipID")
	fp, err := h.Service.Retry(r.Context(), id)
	h.Audit.RecordQuietly(r.Context(), user.UserID, "failed_payslip.retry", "failed_payslip", id, reqID, shared.ClientIP(r), nil,
		map[string]any{"succeeded": err == nil})
	if err != nil {
		if isSendFailure(err) {
			api.FailWithDetails(w, http.StatusBadGateway, "retry_failed", err.Error(), map[string]any{"failedPayslip": fp}, reqID)
			return
		}
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, fp, reqID)
}

func (h *Handler) handleRetryAll(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	run := func(ctx context.Context) (any, error) {
		return h.Service.RetryAll(ctx)
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "failed_payslip.retry_all", "failed_payslip", "", reqID, shared.ClientIP(r), nil, nil)

	if shared.QueryBool(r, "async") {
		runID, err := h.Jobs.Enqueue(r.Context(), jobs.JobRetryFailed, user.UserID, run)
		if err != nil {
			h.fail(w, reqID, err)
			return
		}
		api.Accepted(w, map[string]string{"jobId": runID}, reqID)
		return
	}
	summary, err := h.Jobs.RunNow(r.Context(), jobs.JobRetryFailed, user.UserID, run)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, summary, reqID)
}

// isSendFailure separates delivery problems from request problems.
func isSendFailure(err error) bool {
	switch {
	case errors.Is(err, failedpayslips.ErrFailedPayslipNotFound),
		errors.Is(err, failedpayslips.ErrFailedPayslipResolved),
		errors.Is(err, failedpayslips.ErrRetryInProgress),
		errors.Is(err, email.ErrNotConfigured),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, reqID string, err error) {
	switch {
	case errors.Is(err, failedpayslips.ErrFailedPayslipNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, failedpayslips.ErrFailedPayslipResolved):
		api.Fail(w, http.StatusConflict, "already_resolved", err.Error(), reqID)
	case errors.Is(err, failedpayslips.ErrRetryInProgress):
		api.Fail(w, http.StatusConflict, "retry_in_progress", err.Error(), reqID)
	case errors.Is(err, email.ErrNotConfigured):
		api.Fail(w, http.StatusBadRequest, "email_not_configured", err.Error(), reqID)
	case errors.Is(err, jobs.ErrQueueFull):
		api.Fail(w, http.StatusServiceUnavailable, "queue_full", err.Error(), reqID)
	default:
		zap.L().Error("failed payslip request failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed payslip request failed", reqID)
	}
}
