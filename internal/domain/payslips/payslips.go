// Package payslips assembles printable payslips from stored payroll history.
package payslips

import (
	"context"
	"errors"
	"strings"

	"payflow/internal/domain/employees"
	"payflow/internal/domain/payroll"
	"payflow/internal/domain/settings"
	"payflow/internal/platform/pdf"
)

const notAvailable = "N/A"

// Prepared is a payslip ready to render and deliver.
type Prepared struct {
	Data       pdf.Payslip
	EmployeeID string
	Email      string
	RecordID   string
}

type Service struct {
	Payroll   *payroll.Service
	Employees *employees.Store
	Settings  *settings.Service
}

func NewService(payrollService *payroll.Service, employeeStore *employees.Store, settingsService *settings.Service) *Service {
	return &Service{Payroll: payrollService, Employees: employeeStore, Settings: settingsService}
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return notAvailable
	}
	return value
}

func lineItems(items []payroll.Item) []pdf.LineItem {
	out := make([]pdf.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, pdf.LineItem{Name: item.Name, Amount: item.Amount})
	}
	return out
}

// Build assembles payslip data from a history item. A nil employee leaves
// the personal details as N/A.
func Build(company settings.Company, item payroll.HistoryItem, e *employees.Employee) pdf.Payslip {
	p := pdf.Payslip{
		CompanyName:     company.Name,
		CompanyAddress:  company.Address,
		EmployeeName:    item.EmployeeName,
		Period:          item.Period,
		PaymentDate:     item.Date,
		BasicSalary:     item.BasicSalary,
		Allowances:      lineItems(item.Allowances),
		TotalAllowances: item.TotalAllowances,
		GrossPay:        item.GrossPay,
		Deductions:      lineItems(item.Deductions),
		TotalDeductions: item.TotalDeductions,
		NetPay:          item.NetPay,
		CurrencySymbol:  company.CurrencySymbol,
	}
	return WithEmployee(p, e)
}

// WithEmployee overlays current employee details on p. Used when a stored
// payslip is rebuilt for a retry.
func WithEmployee(p pdf.Payslip, e *employees.Employee) pdf.Payslip {
	if e == nil {
		p.EmployeeNumber = orNA(p.EmployeeNumber)
		p.Department = orNA(p.Department)
		p.Designation = orNA(p.Designation)
		p.NRC = orNA(p.NRC)
		p.TPIN = orNA(p.TPIN)
		p.AccountNumber = orNA(p.AccountNumber)
		p.BankName = orNA(p.BankName)
		return p
	}
	if e.Name != "" {
		p.EmployeeName = e.Name
	}
	p.EmployeeNumber = orNA(e.EmployeeNumber)
	p.Department = orNA(e.Department)
	p.Designation = orNA(e.Position)
	p.NRC = orNA(e.NationalID)
	p.TPIN = orNA(e.TaxNumber)
	p.AccountNumber = orNA(e.AccountNumber)
	p.BankName = orNA(e.BankName)
	return p
}

func (s *Service) employee(ctx context.Context, id string) (*employees.Employee, error) {
	e, err := s.Employees.Get(ctx, id)
	if errors.Is(err, employees.ErrEmployeeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ForItem prepares the payslip for one employee on a record.
func (s *Service) ForItem(ctx context.Context, recordID, employeeID string) (Prepared, error) {
	company, err := s.Settings.Company(ctx)
	if err != nil {
		return Prepared{}, err
	}
	item, err := s.Payroll.GetItem(ctx, recordID, employeeID)
	if err != nil {
		return Prepared{}, err
	}
	e, err := s.employee(ctx, employeeID)
	if err != nil {
		return Prepared{}, err
	}
	return prepared(company, item, e), nil
}

// ForRecord prepares payslips for every item on the record, or only the
// listed employees.
func (s *Service) ForRecord(ctx context.Context, recordID string, employeeIDs []string) ([]Prepared, error) {
	company, err := s.Settings.Company(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.Payroll.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, id := range employeeIDs {
		wanted[id] = true
	}

	out := make([]Prepared, 0, len(rec.Items))
	for _, item := range rec.Items {
		if len(wanted) > 0 && !wanted[item.EmployeeID] {
			continue
		}
		e, err := s.employee(ctx, item.EmployeeID)
		if err != nil {
			return nil, err
		}
		out = append(out, prepared(company, item, e))
	}
	return out, nil
}

// Render produces the PDF for one stored item.
func (s *Service) Render(ctx context.Context, recordID, employeeID string) ([]byte, Prepared, error) {
	p, err := s.ForItem(ctx, recordID, employeeID)
	if err != nil {
		return nil, Prepared{}, err
	}
	data, err := pdf.Render(p.Data)
	if err != nil {
		return nil, Prepared{}, err
	}
	return data, p, nil
}

func prepared(company settings.Company, item payroll.HistoryItem, e *employees.Employee) Prepared {
	p := Prepared{
		Data:       Build(company, item, e),
		EmployeeID: item.EmployeeID,
		RecordID:   item.PayrollRecordID,
	}
	if e != nil {
		p.Email = e.Email
	}
	return p
}
