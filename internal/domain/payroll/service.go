package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payflow/internal/domain/employees"
	"payflow/internal/domain/structures"
	"payflow/internal/platform/metrics"
)

type Service struct {
	Store      *Store
	Employees  *employees.Store
	Structures *structures.Store
}

func NewService(store *Store, employeeStore *employees.Store, structureStore *structures.Store) *Service {
	return &Service{Store: store, Employees: employeeStore, Structures: structureStore}
}

func toLines(components []structures.Component) []Line {
	lines := make([]Line, 0, len(components))
	for _, c := range components {
		lines = append(lines, Line{Name: c.Name, Type: c.Type, Amount: c.Amount})
	}
	return lines
}

// Warnings flags items that need attention before payslips go out.
func Warnings(e employees.Employee, b Breakdown) []string {
	warnings := []string{}
	if b.NetPay < 0 {
		warnings = append(warnings, WarningNegativeNet)
	}
	if strings.TrimSpace(e.Email) == "" {
		warnings = append(warnings, WarningMissingEmail)
	}
	if strings.TrimSpace(e.AccountNumber) == "" {
		warnings = append(warnings, WarningMissingBank)
	}
	return warnings
}

// ComputeFor applies the employee's structure to their basic salary. An
// employee without a structure is paid basic only.
func (s *Service) ComputeFor(ctx context.Context, e employees.Employee) (Breakdown, error) {
	if e.PayrollStructureID == "" {
		return Compute(e.Salary, nil, nil), nil
	}
	st, err := s.Structures.GetStructure(ctx, e.PayrollStructureID)
	if errors.Is(err, structures.ErrStructureNotFound) {
		return Compute(e.Salary, nil, nil), nil
	}
	if err != nil {
		return Breakdown{}, err
	}
	return Compute(e.Salary, toLines(st.Allowances), toLines(st.Deductions)), nil
}

// Generate computes a draft record for the selected active employees, or all
// active employees when none are selected.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (Record, error) {
	in.Period = strings.TrimSpace(in.Period)
	in.PayDate = strings.TrimSpace(in.PayDate)
	if in.Period == "" {
		return Record{}, fmt.Errorf("%w: period is required", ErrInvalidRecord)
	}
	if _, err := time.Parse(dateLayout, in.PayDate); err != nil {
		return Record{}, fmt.Errorf("%w: payDate must be a valid date in YYYY-MM-DD format", ErrInvalidRecord)
	}

	filter := employees.Filter{Status: employees.StatusActive}
	if len(in.EmployeeIDs) > 0 {
		filter.IDs = in.EmployeeIDs
	}
	staff, err := s.Employees.Find(ctx, filter)
	if err != nil {
		return Record{}, err
	}
	if len(staff) == 0 {
		return Record{}, ErrNoEmployees
	}

	now := time.Now().UTC()
	rec := Record{
		ID:        uuid.NewString(),
		Period:    in.Period,
		PayDate:   in.PayDate,
		Status:    RecordStatusDraft,
		CreatedBy: in.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
		Warnings:  map[string]int{},
	}
	for _, e := range staff {
		b, err := s.ComputeFor(ctx, e)
		if err != nil {
			return Record{}, err
		}
		warnings := Warnings(e, b)
		for _, w := range warnings {
			rec.Warnings[w]++
		}
		rec.Items = append(rec.Items, HistoryItem{
			ID:              uuid.NewString(),
			PayrollRecordID: rec.ID,
			EmployeeID:      e.ID,
			EmployeeName:    e.Name,
			Period:          rec.Period,
			Date:            rec.PayDate,
			BasicSalary:     b.BasicSalary,
			Allowances:      b.Allowances,
			Deductions:      b.Deductions,
			TotalAllowances: b.TotalAllowances,
			TotalDeductions: b.TotalDeductions,
			GrossPay:        b.GrossPay,
			NetPay:          b.NetPay,
			Warnings:        warnings,
			EmailStatus:     EmailStatusPending,
			CreatedAt:       now,
		})
		rec.TotalGross += b.GrossPay
		rec.TotalDeductions += b.TotalDeductions
		rec.TotalNet += b.NetPay
	}
	rec.TotalGross = Round2(rec.TotalGross)
	rec.TotalDeductions = Round2(rec.TotalDeductions)
	rec.TotalNet = Round2(rec.TotalNet)
	rec.EmployeeCount = len(rec.Items)

	if err := s.Store.CreateRecord(ctx, rec); err != nil {
		return Record{}, err
	}
	metrics.PayrollRun()
	zap.L().Info("payroll generated",
		zap.String("recordId", rec.ID),
		zap.String("period", rec.Period),
		zap.Int("employees", rec.EmployeeCount),
		zap.Float64("totalNet", rec.TotalNet))
	return rec, nil
}

func (s *Service) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, int, error) {
	total, err := s.Store.CountRecords(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.Store.ListRecords(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// GetRecord returns the record with its items and warning tallies.
func (s *Service) GetRecord(ctx context.Context, id string) (Record, error) {
	rec, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Items, err = s.Store.ListItems(ctx, id); err != nil {
		return Record{}, err
	}
	if rec.Warnings, err = s.Store.WarningCounts(ctx, id); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) Complete(ctx context.Context, id string) (Record, error) {
	rec, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Status == RecordStatusCompleted {
		return Record{}, ErrRecordCompleted
	}
	ok, err := s.Store.CompleteRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrCompleteInvalidState
	}
	return s.Store.GetRecord(ctx, id)
}

func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	return s.Store.DeleteRecord(ctx, id)
}

func (s *Service) HistoryByEmployee(ctx context.Context, employeeID string) ([]HistoryItem, error) {
	if _, err := s.Employees.Get(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.Store.HistoryByEmployee(ctx, employeeID)
}

func (s *Service) GetItem(ctx context.Context, recordID, employeeID string) (HistoryItem, error) {
	return s.Store.GetItem(ctx, recordID, employeeID)
}

func (s *Service) GetHistory(ctx context.Context, id string) (HistoryItem, error) {
	return s.Store.GetHistory(ctx, id)
}

func (s *Service) UpdateEmailStatus(ctx context.Context, recordID, employeeID, status, message string) error {
	if status != EmailStatusSent && status != EmailStatusFailed {
		return ErrInvalidEmailStatus
	}
	return s.Store.UpdateEmailStatus(ctx, recordID, employeeID, status, message)
}

func (s *Service) LastCompleted(ctx context.Context) (*Record, error) {
	return s.Store.LastCompleted(ctx)
}

func (s *Service) CompletedInYear(ctx context.Context, year int) ([]Record, error) {
	return s.Store.CompletedBetween(ctx, fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
}
