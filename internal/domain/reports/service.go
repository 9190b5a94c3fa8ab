package reports

import (
	"context"
	"fmt"
	"time"

	"payflow/internal/domain/employees"
	"payflow/internal/domain/payroll"
)

// nextPayrollGrowth is the uplift applied to the last completed payroll when
// estimating the next one.
const nextPayrollGrowth = 1.05

type RecentEmployee struct {
	ID             string    `json:"id"`
	EmployeeNumber string    `json:"employeeNumber"`
	Name           string    `json:"name"`
	Department     string    `json:"department"`
	Position       string    `json:"position"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Dashboard struct {
	TotalEmployees        int                         `json:"totalEmployees"`
	ActiveEmployees       int                         `json:"activeEmployees"`
	Departments           []employees.DepartmentCount `json:"departments"`
	RecentEmployees       []RecentEmployee            `json:"recentEmployees"`
	LastPayroll           *payroll.Record             `json:"lastPayroll"`
	NextPayrollEstimate   float64                     `json:"nextPayrollEstimate"`
	YTDTotal              float64                     `json:"ytdTotal"`
	YTDPeriod             string                      `json:"ytdPeriod"`
	DraftPayrolls         int                         `json:"draftPayrolls"`
	PendingLeave          int                         `json:"pendingLeave"`
	PendingFailedPayslips int                         `json:"pendingFailedPayslips"`
}

type Service struct {
	Store     *Store
	Employees *employees.Service
	Payroll   *payroll.Service
	Now       func() time.Time
}

func NewService(store *Store, employeeService *employees.Service, payrollService *payroll.Service) *Service {
	return &Service{Store: store, Employees: employeeService, Payroll: payrollService, Now: time.Now}
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	if d.TotalEmployees, d.ActiveEmployees, err = s.Store.EmployeeCounts(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.Departments, err = s.Employees.CountByDepartment(ctx, employees.StatusActive); err != nil {
		return Dashboard{}, err
	}
	if d.RecentEmployees, err = s.Store.RecentEmployees(ctx, 5); err != nil {
		return Dashboard{}, err
	}
	if d.LastPayroll, err = s.Payroll.LastCompleted(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.LastPayroll != nil {
		d.NextPayrollEstimate = payroll.Round2(d.LastPayroll.TotalNet * nextPayrollGrowth)
	}

	year := s.Now().Year()
	completed, err := s.Payroll.CompletedInYear(ctx, year)
	if err != nil {
		return Dashboard{}, err
	}
	d.YTDTotal, d.YTDPeriod = yearToDate(completed, year)

	if d.DraftPayrolls, err = s.Store.DraftPayrolls(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.PendingLeave, err = s.Store.PendingLeave(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.PendingFailedPayslips, err = s.Store.PendingFailedPayslips(ctx); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// yearToDate sums net pay and labels the span as "Jan - Mar 2026". Records
// must be sorted by pay date.
func yearToDate(records []payroll.Record, year int) (float64, string) {
	if len(records) == 0 {
		return 0, fmt.Sprintf("%d", year)
	}
	var total float64
	for _, r := range records {
		total += r.TotalNet
	}
	first, _ := time.Parse("2006-01-02", records[0].PayDate)
	last, _ := time.Parse("2006-01-02", records[len(records)-1].PayDate)
	return payroll.Round2(total), fmt.Sprintf("%s - %s %d", first.Format("Jan"), last.Format("Jan"), year)
}
