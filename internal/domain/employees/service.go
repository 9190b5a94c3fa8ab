package employees

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) Create(ctx context.Context, e Employee) (Employee, error) {
	normalize(&e)
	if e.Status == "" {
		e.Status = StatusActive
	}
	if e.EmployeeNumber == "" {
		e.EmployeeNumber = generateEmployeeNumber()
	}
	if err := validate(e); err != nil {
		return Employee{}, err
	}

	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.Store.Create(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (Employee, error) {
	return s.Store.GetByEmail(ctx, strings.TrimSpace(email))
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Employee, int, error) {
	total, err := s.Store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.Store.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Service) Find(ctx context.Context, filter Filter) ([]Employee, error) {
	return s.Store.Find(ctx, filter)
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	return s.Store.Count(ctx, filter)
}

func (s *Service) CountByDepartment(ctx context.Context, status string) ([]DepartmentCount, error) {
	return s.Store.CountByDepartment(ctx, status)
}

func (s *Service) Update(ctx context.Context, id string, u Update) (Employee, error) {
	e, err := s.Store.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	apply(&e, u)
	normalize(&e)
	if err := validate(e); err != nil {
		return Employee{}, err
	}
	e.UpdatedAt = time.Now().UTC()
	if err := s.Store.Update(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

// Delete refuses employees referenced by payroll history so past records
// keep their subject.
func (s *Service) Delete(ctx context.Context, id string) error {
	hasHistory, err := s.Store.HasPayrollHistory(ctx, id)
	if err != nil {
		return err
	}
	if hasHistory {
		return ErrEmployeeHasPayroll
	}
	return s.Store.Delete(ctx, id)
}

func apply(e *Employee, u Update) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&e.EmployeeNumber, u.EmployeeNumber)
	set(&e.Name, u.Name)
	set(&e.Email, u.Email)
	set(&e.Phone, u.Phone)
	set(&e.Department, u.Department)
	set(&e.Position, u.Position)
	set(&e.HireDate, u.HireDate)
	set(&e.Status, u.Status)
	set(&e.PayrollStructureID, u.PayrollStructureID)
	set(&e.NationalID, u.NationalID)
	set(&e.TaxNumber, u.TaxNumber)
	set(&e.BankName, u.BankName)
	set(&e.AccountNumber, u.AccountNumber)
	if u.Salary != nil {
		e.Salary = *u.Salary
	}
}

func normalize(e *Employee) {
	e.EmployeeNumber = strings.TrimSpace(e.EmployeeNumber)
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.Phone = strings.TrimSpace(e.Phone)
	e.Department = strings.TrimSpace(e.Department)
	e.Position = strings.TrimSpace(e.Position)
	e.HireDate = strings.TrimSpace(e.HireDate)
	e.Status = strings.ToLower(strings.TrimSpace(e.Status))
	e.PayrollStructureID = strings.TrimSpace(e.PayrollStructureID)
	e.NationalID = strings.TrimSpace(e.NationalID)
	e.TaxNumber = strings.TrimSpace(e.TaxNumber)
	e.BankName = strings.TrimSpace(e.BankName)
	e.AccountNumber = strings.TrimSpace(e.AccountNumber)
}

func validate(e Employee) error {
	fields := map[string]string{}
	if e.Name == "" {
		fields["name"] = "is required"
	}
	if e.Email == "" {
		fields["email"] = "is required"
	} else if _, err := mail.ParseAddress(e.Email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if e.Salary < 0 {
		fields["salary"] = "must be zero or greater"
	}
	if e.Status != StatusActive && e.Status != StatusInactive {
		fields["status"] = "must be active or inactive"
	}
	if e.HireDate != "" {
		if _, err := time.Parse("2006-01-02", e.HireDate); err != nil {
			fields["hireDate"] = "must be a valid date in YYYY-MM-DD format"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func generateEmployeeNumber() string {
	return "EMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
