package reports

import (
	"context"

	"payflow/internal/platform/db"
)

type Store struct {
	DB *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{DB: database}
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) EmployeeCounts(ctx context.Context) (total, active int, err error) {
	if total, err = s.count(ctx, "SELECT COUNT(1) FROM employees"); err != nil {
		return 0, 0, err
	}
	if active, err = s.count(ctx, "SELECT COUNT(1) FROM employees WHERE status = 'active'"); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

func (s *Store) PendingLeave(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM leave_requests WHERE status = 'pending'")
}

func (s *Store) PendingFailedPayslips(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM failed_payslips WHERE status = 'pending'")
}

func (s *Store) DraftPayrolls(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM payroll_records WHERE status = 'draft'")
}

// RecentEmployees lists the newest hires by creation time.
func (s *Store) RecentEmployees(ctx context.Context, limit int) ([]RecentEmployee, error) {
	rows, err := s.DB.QueryContext(ctx, `
    SELECT id, employee_number, name, department, position, created_at
    FROM employees
    ORDER BY created_at DESC
    LIMIT ?
  `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RecentEmployee{}
	for rows.Next() {
		var (
			e         RecentEmployee
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.EmployeeNumber, &e.Name, &e.Department, &e.Position, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = db.ParseTime(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
