package employees

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"payflow/internal/platform/db"
)

type Store struct {
	DB *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{DB: database}
}

const employeeColumns = `id, employee_number, name, email, phone, department, position, hire_date, salary, status,
  COALESCE(payroll_structure_id, ''), national_id, tax_number, bank_name, account_number, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (Employee, error) {
	var (
		e                    Employee
		createdAt, updatedAt string
	)
	err := row.Scan(&e.ID, &e.EmployeeNumber, &e.Name, &e.Email, &e.Phone, &e.Department, &e.Position, &e.HireDate,
		&e.Salary, &e.Status, &e.PayrollStructureID, &e.NationalID, &e.TaxNumber, &e.BankName, &e.AccountNumber,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	e.CreatedAt = db.ParseTime(createdAt)
	e.UpdatedAt = db.ParseTime(updatedAt)
	return e, nil
}

func mapWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err) && strings.Contains(err.Error(), "employee_number"):
		return ErrDuplicateNumber
	case db.IsUniqueViolation(err):
		return ErrDuplicateEmail
	case db.IsForeignKeyViolation(err):
		return ErrStructureNotFound
	}
	return err
}

func (s *Store) Create(ctx context.Context, e Employee) error {
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO employees (id, employee_number, name, email, phone, department, position, hire_date, salary, status,
      payroll_structure_id, national_id, tax_number, bank_name, account_number, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
  `, e.ID, e.EmployeeNumber, e.Name, e.Email, e.Phone, e.Department, e.Position, e.HireDate, e.Salary, e.Status,
		db.NullString(e.PayrollStructureID), e.NationalID, e.TaxNumber, e.BankName, e.AccountNumber,
		db.FormatTime(e.CreatedAt), db.FormatTime(e.UpdatedAt))
	return mapWriteError(err)
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	return scanEmployee(s.DB.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (Employee, error) {
	return scanEmployee(s.DB.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE LOWER(email) = LOWER(?)", email))
}

func buildFilter(filter Filter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if filter.Department != "" {
		clauses = append(clauses, "department = ?")
		args = append(args, filter.Department)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.PayrollStructureID != "" {
		clauses = append(clauses, "payroll_structure_id = ?")
		args = append(args, filter.PayrollStructureID)
	}
	if filter.Search != "" {
		clauses = append(clauses, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(employee_number) LIKE ?)")
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like, like)
	}
	if len(filter.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.IDs)), ",")
		clauses = append(clauses, "id IN ("+placeholders+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) Find(ctx context.Context, filter Filter) ([]Employee, error) {
	where, args := buildFilter(filter)
	query := "SELECT " + employeeColumns + " FROM employees" + where + " ORDER BY name, employee_number"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := buildFilter(filter)
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM employees"+where, args...).Scan(&count)
	return count, err
}

func (s *Store) Update(ctx context.Context, e Employee) error {
	res, err := s.DB.ExecContext(ctx, `
    UPDATE employees
    SET employee_number = ?, name = ?, email = ?, phone = ?, department = ?, position = ?, hire_date = ?, salary = ?,
      status = ?, payroll_structure_id = ?, national_id = ?, tax_number = ?, bank_name = ?, account_number = ?, updated_at = ?
    WHERE id = ?
  `, e.EmployeeNumber, e.Name, e.Email, e.Phone, e.Department, e.Position, e.HireDate, e.Salary, e.Status,
		db.NullString(e.PayrollStructureID), e.NationalID, e.TaxNumber, e.BankName, e.AccountNumber,
		db.FormatTime(e.UpdatedAt), e.ID)
	if err := mapWriteError(err); err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if db.IsForeignKeyViolation(err) {
		return ErrEmployeeHasPayroll
	}
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) HasPayrollHistory(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM payroll_history WHERE employee_id = ?", id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CountByDepartment(ctx context.Context, status string) ([]DepartmentCount, error) {
	query := "SELECT department, COUNT(1) FROM employees"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " GROUP BY department ORDER BY department"
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DepartmentCount{}
	for rows.Next() {
		var dc DepartmentCount
		if err := rows.Scan(&dc.Department, &dc.Count); err != nil {
			return nil, err
		}
		if dc.Department == "" {
			dc.Department = "Unassigned"
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
