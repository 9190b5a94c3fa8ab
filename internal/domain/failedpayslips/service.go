package failedpayslips

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"payflow/internal/domain/employees"
	"payflow/internal/domain/payroll"
	"payflow/internal/domain/payslips"
	"payflow/internal/domain/settings"
	"payflow/internal/platform/email"
	"payflow/internal/platform/metrics"
	"payflow/internal/platform/pdf"
)

// Sender delivers a rendered payslip.
type Sender interface {
	IsConfigured() bool
	SendPayslip(ctx context.Context, to string, p pdf.Payslip, attachment []byte) error
}

type HistoryUpdater interface {
	UpdateEmailStatus(ctx context.Context, recordID, employeeID, status, message string) error
}

type Service struct {
	Store     *Store
	Employees *employees.Store
	Settings  *settings.Service
	History   HistoryUpdater
	Sender    Sender

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewService(store *Store, employeeStore *employees.Store, settingsService *settings.Service, history HistoryUpdater, sender Sender) *Service {
	return &Service{
		Store:     store,
		Employees: employeeStore,
		Settings:  settingsService,
		History:   history,
		Sender:    sender,
		inFlight:  map[string]struct{}{},
	}
}

func (s *Service) Get(ctx context.Context, id string) (FailedPayslip, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]FailedPayslip, int, error) {
	total, err := s.Store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.Store.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.Store.CountPending(ctx)
}

func (s *Service) Resolve(ctx context.Context, id string) (FailedPayslip, error) {
	if err := s.Store.MarkResolved(ctx, id); err != nil {
		return FailedPayslip{}, err
	}
	return s.Store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

func (s *Service) DeleteByPayrollRecord(ctx context.Context, recordID string) (int64, error) {
	return s.Store.DeleteByPayrollRecord(ctx, recordID)
}

func (s *Service) begin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Service) end(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// Retry resends one failed payslip using the employee's current details.
// A failed attempt is counted and its error returned.
func (s *Service) Retry(ctx context.Context, id string) (FailedPayslip, error) {
	if !s.begin(id) {
		return FailedPayslip{}, ErrRetryInProgress
	}
	defer s.end(id)

	fp, err := s.Store.Get(ctx, id)
	if err != nil {
		return FailedPayslip{}, err
	}
	if fp.Status == StatusResolved {
		return fp, ErrFailedPayslipResolved
	}
	if !s.Sender.IsConfigured() {
		return fp, email.ErrNotConfigured
	}

	if sendErr := s.attempt(ctx, fp); sendErr != nil {
		metrics.PayslipRetry(metrics.ResultFailed)
		if err := s.Store.IncrementRetryCount(ctx, id, sendErr.Error()); err != nil {
			return fp, err
		}
		zap.L().Warn("payslip retry failed",
			zap.String("failedPayslipId", id),
			zap.String("employeeId", fp.EmployeeID),
			zap.Error(sendErr))
		if updated, err := s.Store.Get(ctx, id); err == nil {
			fp = updated
		}
		return fp, sendErr
	}

	if err := s.Store.MarkResolved(ctx, id); err != nil {
		return fp, err
	}
	if err := s.History.UpdateEmailStatus(ctx, fp.PayrollRecordID, fp.EmployeeID, payroll.EmailStatusSent, ""); err != nil {
		zap.L().Warn("payroll history email status not updated", zap.String("failedPayslipId", id), zap.Error(err))
	}
	metrics.PayslipRetry(metrics.ResultResolved)
	return s.Store.Get(ctx, id)
}

func (s *Service) attempt(ctx context.Context, fp FailedPayslip) error {
	e, err := s.Employees.Get(ctx, fp.EmployeeID)
	if errors.Is(err, employees.ErrEmployeeNotFound) {
		return ErrEmployeeMissing
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(e.Email) == "" {
		return ErrNoEmailAddress
	}

	var stored pdf.Payslip
	if err := json.Unmarshal(fp.PayslipData, &stored); err != nil {
		zap.L().Warn("stored payslip unreadable, rebuilding from row", zap.String("failedPayslipId", fp.ID), zap.Error(err))
	}
	if stored.Period == "" {
		stored.Period = fp.Period
	}
	if stored.NetPay == 0 {
		stored.NetPay = fp.NetSalary
	}
	if stored.EmployeeName == "" {
		stored.EmployeeName = fp.EmployeeName
	}

	company, err := s.Settings.Company(ctx)
	if err != nil {
		return err
	}
	stored.CompanyName = company.Name
	stored.CompanyAddress = company.Address
	stored.CurrencySymbol = company.CurrencySymbol

	data := payslips.WithEmployee(stored, &e)
	attachment, err := pdf.Render(data)
	if err != nil {
		return err
	}
	return s.Sender.SendPayslip(ctx, e.Email, data, attachment)
}

// RetryAll retries every pending row in order and reports the outcome.
func (s *Service) RetryAll(ctx context.Context) (RetrySummary, error) {
	summary := RetrySummary{Errors: []RetryError{}}
	if !s.Sender.IsConfigured() {
		return summary, email.ErrNotConfigured
	}
	pending, err := s.Store.ListPending(ctx)
	if err != nil {
		return summary, err
	}
	for _, fp := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Attempted++
		if _, err := s.Retry(ctx, fp.ID); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RetryError{ID: fp.ID, Email: fp.EmployeeEmail, Error: err.Error()})
			continue
		}
		summary.Resolved++
	}
	zap.L().Info("failed payslip retry run finished",
		zap.Int("attempted", summary.Attempted),
		zap.Int("resolved", summary.Resolved),
		zap.Int("failed", summary.Failed))
	return summary, nil
}
