package notificationshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/notifications"
	"payflow/internal/platform/email"
	"payflow/internal/platform/pdf"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

const maxBulkEmails = 1000

type Handler struct {
	Service *notifications.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *notifications.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	configure := middleware.RequirePermission(auth.PermEmailConfigure, h.Perms)
	send := middleware.RequirePermission(auth.PermPayslipsSend, h.Perms)
	r.Route("/email", func(r chi.Router) {
		r.With(configure).Post("/configure", h.handleConfigure)
		r.With(middleware.RequirePermission(auth.PermSettingsRead, h.Perms)).Get("/status", h.handleStatus)
		r.With(configure).Get("/config", h.handleConfig)
		r.With(configure).Delete("/config", h.handleDisconnect)
		r.With(configure).Post("/test", h.handleTest)
		r.With(send).Post("/payslip", h.handleSendPayslip)
		r.With(send).Post("/payslips/bulk", h.handleSendBulk)
	})
}

type configurePayload struct {
	notifications.SMTPConfig
	SkipVerify bool `json:"skipVerify"`
}

func (h *Handler) handleConfigure(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload configurePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if err := h.Service.Configure(r.Context(), payload.SMTPConfig, !payload.SkipVerify, true); err != nil {
		h.fail(w, reqID, err)
		return
	}
	public := payload.SMTPConfig.Public()
	h.Audit.RecordQuietly(r.Context(), user.UserID, "email.configure", "setting", "smtp_config", reqID, shared.ClientIP(r), nil, public)
	api.Success(w, map[string]any{"configured": true, "config": public}, reqID)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]bool{"configured": h.Service.IsConfigured()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	cfg, ok := h.Service.Config()
	if !ok {
		api.Success(w, nil, reqID)
		return
	}
	api.Success(w, cfg, reqID)
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.Disconnect(r.Context()); err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "email.disconnect", "setting", "smtp_config", reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, map[string]bool{"configured": false}, reqID)
}

type testPayload struct {
	To string `json:"to"`
}

func (h *Handler) handleTest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload testPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if err := h.Service.SendTest(r.Context(), payload.To); err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, map[string]string{"to": payload.To}, reqID)
}

type payslipPayload struct {
	To      string      `json:"to"`
	Payslip pdf.Payslip `json:"payslip"`
	PDF     []byte      `json:"payslipPdfBase64"`
}

func (h *Handler) handleSendPayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload payslipPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if err := h.Service.SendPayslip(r.Context(), payload.To, payload.Payslip, payload.PDF); err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, map[string]string{"to": payload.To}, reqID)
}

type bulkPayload struct {
	Payslips        []notifications.BulkPayslip `json:"payslips"`
	PayrollRecordID string                      `json:"payrollRecordId"`
}

func (h *Handler) handleSendBulk(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload bulkPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		if shared.IsBodyTooLarge(err) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", reqID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if len(payload.Payslips) == 0 || len(payload.Payslips) > maxBulkEmails {
		api.Fail(w, http.StatusBadRequest, "validation_error", "between 1 and 1000 payslips are required", reqID)
		return
	}
	result, err := h.Service.SendBulk(r.Context(), payload.Payslips, payload.PayrollRecordID)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "payslips.send_bulk", "payroll_record", payload.PayrollRecordID, reqID, shared.ClientIP(r), nil,
		map[string]int{"sent": result.Sent, "failed": result.Failed})
	api.Success(w, result, reqID)
}

func (h *Handler) fail(w http.ResponseWriter, reqID string, err error) {
	var delivery *email.DeliveryError
	switch {
	case errors.Is(err, email.ErrNotConfigured):
		api.Fail(w, http.StatusBadRequest, "email_not_configured", err.Error(), reqID)
	case errors.Is(err, notifications.ErrInvalidConfig), errors.Is(err, notifications.ErrInvalidRecipient):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.As(err, &delivery):
		api.Fail(w, http.StatusBadGateway, "email_delivery_failed", delivery.Message, reqID)
	default:
		zap.L().Error("email request failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusBadGateway, "email_failed", err.Error(), reqID)
	}
}
