package payrollhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/employees"
	"payflow/internal/domain/notifications"
	"payflow/internal/domain/payroll"
	"payflow/internal/domain/payslips"
	"payflow/internal/domain/structures"
	"payflow/internal/platform/email"
	"payflow/internal/platform/jobs"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

const generateEndpoint = "payroll.records.generate"

type Handler struct {
	Service     *payroll.Service
	Structures  *structures.Service
	Payslips    *payslips.Service
	Notify      *notifications.Service
	Perms       middleware.PermissionStore
	Audit       *audit.Service
	Jobs        *jobs.Service
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(service *payroll.Service, structureSvc *structures.Service, payslipSvc *payslips.Service, notify *notifications.Service,
	perms middleware.PermissionStore, auditSvc *audit.Service, jobsSvc *jobs.Service, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{
		Service:     service,
		Structures:  structureSvc,
		Payslips:    payslipSvc,
		Notify:      notify,
		Perms:       perms,
		Audit:       auditSvc,
		Jobs:        jobsSvc,
		Idempotency: idem,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead, h.Perms)
	write := middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)
	send := middleware.RequirePermission(auth.PermPayslipsSend, h.Perms)

	r.Route("/payroll", func(r chi.Router) {
		r.With(read).Get("/structures", h.handleListStructures)
		r.With(write).Post("/structures", h.handleCreateStructure)
		r.With(read).Get("/structures/{structureID}", h.handleGetStructure)
		r.With(write).Put("/structures/{structureID}", h.handleUpdateStructure)
		r.With(write).Delete("/structures/{structureID}", h.handleDeleteStructure)
		for _, kind := range []structures.Kind{structures.KindAllowance, structures.KindDeduction} {
			segment := componentSegment(kind)
			r.With(read).Get("/structures/{structureID}/"+segment, h.handleListComponents(kind))
			r.With(write).Post("/structures/{structureID}/"+segment, h.handleAddComponent(kind))
			r.With(read).Get("/"+segment+"/{componentID}", h.handleGetComponent(kind))
			r.With(write).Put("/"+segment+"/{componentID}", h.handleUpdateComponent(kind))
			r.With(write).Delete("/"+segment+"/{componentID}", h.handleDeleteComponent(kind))
		}

		r.With(read).Get("/records", h.handleListRecords)
		r.With(write).Post("/records", h.handleGenerate)
		r.With(read).Get("/records/{recordID}", h.handleGetRecord)
		r.With(write).Delete("/records/{recordID}", h.handleDeleteRecord)
		r.With(write).Post("/records/{recordID}/complete", h.handleComplete)
		r.With(read).Get("/records/{recordID}/export", h.handleExport)
		r.With(send).Post("/records/{recordID}/payslips/send", h.handleSendPayslips)
		r.With(read).Get("/records/{recordID}/payslips/{employeeID}", h.handleDownloadPayslip)
	})

	r.Route("/payslips", func(r chi.Router) {
		r.With(read).Post("/pdf", h.handleRenderPayslip)
		r.With(read).Post("/pdf/bulk", h.handleRenderBulk)
	})
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := payroll.RecordFilter{Status: r.URL.Query().Get("status"), Limit: page.Limit, Offset: page.Offset}
	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{payroll.RecordStatusDraft, payroll.RecordStatusCompleted}, "must be draft or completed")
	if v.Reject(w, reqID) {
		return
	}
	records, total, err := h.Service.ListRecords(r.Context(), filter)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, shared.NewPage(records, total, page), reqID)
}

// handleGenerate honours an Idempotency-Key header: a retried request with
// the same key and body replays the stored response instead of creating a
// second record.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		if shared.IsBodyTooLarge(err) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", reqID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	var payload payroll.GenerateInput
	if err := json.Unmarshal(raw, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("period", payload.Period, "is required")
	v.Date("payDate", payload.PayDate)
	if v.Reject(w, reqID) {
		return
	}

	key := r.Header.Get("Idempotency-Key")
	hash := middleware.RequestHash(raw)
	stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, generateEndpoint, key, hash)
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), reqID)
		return
	}
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	if found {
		w.Header().Set("Idempotent-Replay", "true")
		api.Created(w, stored, reqID)
		return
	}

	payload.CreatedBy = user.UserID
	rec, err := h.Service.Generate(r.Context(), payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	if key != "" {
		body, err := json.Marshal(rec)
		if err == nil {
			err = h.Idempotency.Save(r.Context(), user.UserID, generateEndpoint, key, hash, body)
		}
		if err != nil {
			zap.L().Warn("idempotency save failed", zap.String("recordId", rec.ID), zap.Error(err))
		}
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "payroll.generate", "payroll_record", rec.ID, reqID, shared.ClientIP(r), nil,
		map[string]any{"period": rec.Period, "employeeCount": rec.EmployeeCount, "totalNet": rec.TotalNet})
	api.Created(w, rec, reqID)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	rec, err := h.Service.GetRecord(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, rec, reqID)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	recordID := chi.URLParam(r, "recordID")
	if err := h.Service.DeleteRecord(r.Context(), recordID); err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "payroll.delete", "payroll_record", recordID, reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, map[string]string{"id": recordID}, reqID)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	rec, err := h.Service.Complete(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "payroll.complete", "payroll_record", rec.ID, reqID, shared.ClientIP(r), nil,
		map[string]string{"status": rec.Status})
	api.Success(w, rec, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.GetRecord(r.Context(), recordID)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\"payroll-register-"+fileSafe(rec.Period)+".csv\"")
	if err := h.Service.ExportRegister(r.Context(), recordID, w); err != nil {
		zap.L().Warn("payroll export failed", zap.String("recordId", recordID), zap.Error(err))
	}
}

type sendPayload struct {
	EmployeeIDs []string `json:"employeeIds"`
}

func (h *Handler) handleSendPayslips(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	recordID := chi.URLParam(r, "recordID")

	var payload sendPayload
	if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if !h.Notify.IsConfigured() {
		h.fail(w, reqID, email.ErrNotConfigured)
		return
	}
	if _, err := h.Service.GetRecord(r.Context(), recordID); err != nil {
		h.fail(w, reqID, err)
		return
	}

	run := func(ctx context.Context) (any, error) {
		return h.Notify.SendPayrollRecord(ctx, recordID, payload.EmployeeIDs)
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "payslips.send", "payroll_record", recordID, reqID, shared.ClientIP(r), nil, payload)

	if shared.QueryBool(r, "async") {
		runID, err := h.Jobs.Enqueue(r.Context(), jobs.JobSendPayslips, user.UserID, run)
		if err != nil {
			h.fail(w, reqID, err)
			return
		}
		api.Accepted(w, map[string]string{"jobId": runID}, reqID)
		return
	}

	result, err := h.Jobs.RunNow(r.Context(), jobs.JobSendPayslips, user.UserID, run)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	data, prepared, err := h.Payslips.Render(r.Context(), chi.URLParam(r, "recordID"), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+notifications.AttachmentName(prepared.Data.Period)+"\"")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		zap.L().Warn("payslip download write failed", zap.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, reqID string, err error) {
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound),
		errors.Is(err, payroll.ErrHistoryNotFound),
		errors.Is(err, employees.ErrEmployeeNotFound),
		errors.Is(err, structures.ErrStructureNotFound),
		errors.Is(err, structures.ErrComponentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrInvalidRecord),
		errors.Is(err, structures.ErrInvalidComponent),
		errors.Is(err, structures.ErrInvalidStructure):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, payroll.ErrNoEmployees):
		api.Fail(w, http.StatusUnprocessableEntity, "no_employees", err.Error(), reqID)
	case errors.Is(err, payroll.ErrRecordCompleted), errors.Is(err, payroll.ErrCompleteInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), reqID)
	case errors.Is(err, email.ErrNotConfigured):
		api.Fail(w, http.StatusBadRequest, "email_not_configured", err.Error(), reqID)
	case errors.Is(err, jobs.ErrQueueFull):
		api.Fail(w, http.StatusServiceUnavailable, "queue_full", err.Error(), reqID)
	default:
		zap.L().Error("payroll request failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "payroll request failed", reqID)
	}
}
