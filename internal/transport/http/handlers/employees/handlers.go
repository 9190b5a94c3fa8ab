package employeeshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/employees"
	"payflow/internal/domain/failedpayslips"
	"payflow/internal/domain/leave"
	"payflow/internal/domain/payroll"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *employees.Service
	Payroll *payroll.Service
	Leave   *leave.Service
	Failed  *failedpayslips.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *employees.Service, payrollSvc *payroll.Service, leaveSvc *leave.Service, failedSvc *failedpayslips.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Payroll: payrollSvc, Leave: leaveSvc, Failed: failedSvc, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)
	r.Route("/employees", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/{employeeID}", h.handleGet)
		r.With(write).Put("/{employeeID}", h.handleUpdate)
		r.With(write).Delete("/{employeeID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{employeeID}/payroll-history", h.handlePayrollHistory)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/{employeeID}/leave", h.handleLeave)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{employeeID}/failed-payslips", h.handleFailedPayslips)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 500)
	q := r.URL.Query()
	filter := employees.Filter{
		Department:         q.Get("department"),
		Status:             q.Get("status"),
		PayrollStructureID: q.Get("payrollStructureId"),
		Search:             q.Get("search"),
		Limit:              page.Limit,
		Offset:             page.Offset,
	}
	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{employees.StatusActive, employees.StatusInactive}, "must be active or inactive")
	if v.Reject(w, reqID) {
		return
	}

	out, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, shared.NewPage(filterAll(out, user), total, page), reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload employees.Employee
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	e, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "employee.create", "employee", e.ID, reqID, shared.ClientIP(r), nil, e)
	api.Created(w, e, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	e, err := h.Service.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, filterFields(e, user), reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	var payload employees.Update
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	before, err := h.Service.Get(r.Context(), employeeID)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	e, err := h.Service.Update(r.Context(), employeeID, payload)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "employee.update", "employee", e.ID, reqID, shared.ClientIP(r), before, e)
	api.Success(w, e, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.Delete(r.Context(), employeeID); err != nil {
		h.fail(w, reqID, err)
		return
	}
	h.Audit.RecordQuietly(r.Context(), user.UserID, "employee.delete", "employee", employeeID, reqID, shared.ClientIP(r), nil, nil)
	api.Success(w, map[string]string{"id": employeeID}, reqID)
}

func (h *Handler) handlePayrollHistory(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	history, err := h.Payroll.HistoryByEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, history, reqID)
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if _, err := h.Service.Get(r.Context(), employeeID); err != nil {
		h.fail(w, reqID, err)
		return
	}
	out, err := h.Leave.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleFailedPayslips(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if _, err := h.Service.Get(r.Context(), employeeID); err != nil {
		h.fail(w, reqID, err)
		return
	}
	out, _, err := h.Failed.List(r.Context(), failedpayslips.Filter{EmployeeID: employeeID})
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	api.Success(w, out, reqID)
}

// ValidationIssues flattens an employees.ValidationError into the shared
// field list.
func ValidationIssues(err *employees.ValidationError) []shared.ValidationIssue {
	v := shared.NewValidator()
	for field, reason := range err.Fields {
		v.Add(field, reason)
	}
	return v.Issues()
}

func (h *Handler) fail(w http.ResponseWriter, reqID string, err error) {
	var validation *employees.ValidationError
	switch {
	case errors.As(err, &validation):
		shared.FailValidation(w, reqID, ValidationIssues(validation))
	case errors.Is(err, employees.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, employees.ErrDuplicateEmail), errors.Is(err, employees.ErrDuplicateNumber):
		api.Fail(w, http.StatusConflict, "duplicate_employee", err.Error(), reqID)
	case errors.Is(err, employees.ErrEmployeeHasPayroll):
		api.Fail(w, http.StatusConflict, "employee_has_payroll", err.Error(), reqID)
	case errors.Is(err, employees.ErrStructureNotFound):
		api.Fail(w, http.StatusBadRequest, "invalid_structure", err.Error(), reqID)
	default:
		zap.L().Error("employee request failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "employee request failed", reqID)
	}
}
