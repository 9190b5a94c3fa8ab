package payrollhandler

import (
	"net/http"
	"strings"

	"payflow/internal/platform/pdf"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

// maxBulkPayslips caps a single bulk render request.
const maxBulkPayslips = 500

// handleRenderPayslip renders caller-supplied payslip data. The PDF bytes
// come back base64-encoded in the envelope.
func (h *Handler) handleRenderPayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload pdf.Payslip
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("employeeName", payload.EmployeeName, "is required")
	v.Required("period", payload.Period, "is required")
	if v.Reject(w, reqID) {
		return
	}
	data, err := pdf.Render(payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, map[string]any{"pdf": data}, reqID)
}

func (h *Handler) handleRenderBulk(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload []pdf.Payslip
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if len(payload) == 0 || len(payload) > maxBulkPayslips {
		api.Fail(w, http.StatusBadRequest, "validation_error", "between 1 and 500 payslips are required", reqID)
		return
	}
	api.Success(w, pdf.RenderBulk(payload), reqID)
}

func fileSafe(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "export"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, value)
}
