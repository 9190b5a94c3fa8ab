package failedpayslips

import (
	"context"
	"database/sql"
	"encoding/json"
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

const columns = `id, payroll_record_id, employee_id, employee_name, employee_email, employee_number, period,
  net_salary, error_message, retry_count, last_retry_at, payslip_data, status, created_at, updated_at`

func scan(row interface{ Scan(...any) error }) (FailedPayslip, error) {
	var (
		fp                   FailedPayslip
		lastRetry            sql.NullString
		data                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&fp.ID, &fp.PayrollRecordID, &fp.EmployeeID, &fp.EmployeeName, &fp.EmployeeEmail,
		&fp.EmployeeNumber, &fp.Period, &fp.NetSalary, &fp.ErrorMessage, &fp.RetryCount, &lastRetry, &data,
		&fp.Status, &createdAt, &updatedAt); err != nil {
		return FailedPayslip{}, err
	}
	fp.LastRetryAt = db.ParseNullTime(lastRetry)
	if !json.Valid([]byte(data)) {
		data = "{}"
	}
	fp.PayslipData = json.RawMessage(data)
	fp.CreatedAt = db.ParseTime(createdAt)
	fp.UpdatedAt = db.ParseTime(updatedAt)
	return fp, nil
}

func (s *Store) Create(ctx context.Context, fp FailedPayslip) error {
	data := string(fp.PayslipData)
	if data == "" {
		data = "{}"
	}
	status := fp.Status
	if status == "" {
		status = StatusPending
	}
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO failed_payslips (id, payroll_record_id, employee_id, employee_name, employee_email, employee_number,
      period, net_salary, error_message, retry_count, payslip_data, status, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
  `, fp.ID, fp.PayrollRecordID, fp.EmployeeID, fp.EmployeeName, fp.EmployeeEmail, fp.EmployeeNumber,
		fp.Period, fp.NetSalary, fp.ErrorMessage, fp.RetryCount, data, status,
		db.FormatTime(fp.CreatedAt), db.FormatTime(fp.UpdatedAt))
	return err
}

// Record queues a failed send. A pending row for the same record and
// employee is refreshed in place so one employee is never queued twice.
func (s *Store) Record(ctx context.Context, fp FailedPayslip) error {
	data := string(fp.PayslipData)
	if data == "" {
		data = "{}"
	}
	res, err := s.DB.ExecContext(ctx, `
    UPDATE failed_payslips
    SET employee_name = ?, employee_email = ?, employee_number = ?, period = ?, net_salary = ?,
      error_message = ?, payslip_data = ?, updated_at = ?
    WHERE payroll_record_id = ? AND employee_id = ? AND status = ?
  `, fp.EmployeeName, fp.EmployeeEmail, fp.EmployeeNumber, fp.Period, fp.NetSalary,
		fp.ErrorMessage, data, db.FormatTime(fp.UpdatedAt),
		fp.PayrollRecordID, fp.EmployeeID, StatusPending)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	return s.Create(ctx, fp)
}

func (s *Store) Get(ctx context.Context, id string) (FailedPayslip, error) {
	fp, err := scan(s.DB.QueryRowContext(ctx, "SELECT "+columns+" FROM failed_payslips WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return FailedPayslip{}, ErrFailedPayslipNotFound
	}
	return fp, err
}

func buildFilter(filter Filter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.EmployeeID != "" {
		clauses = append(clauses, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.PayrollRecordID != "" {
		clauses = append(clauses, "payroll_record_id = ?")
		args = append(args, filter.PayrollRecordID)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Find lists matching rows, newest first.
func (s *Store) Find(ctx context.Context, filter Filter) ([]FailedPayslip, error) {
	where, args := buildFilter(filter)
	query := "SELECT " + columns + " FROM failed_payslips" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FailedPayslip{}
	for rows.Next() {
		fp, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := buildFilter(filter)
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM failed_payslips"+where, args...).Scan(&count)
	return count, err
}

func (s *Store) ListAll(ctx context.Context) ([]FailedPayslip, error) {
	return s.Find(ctx, Filter{})
}

func (s *Store) ListPending(ctx context.Context) ([]FailedPayslip, error) {
	return s.Find(ctx, Filter{Status: StatusPending})
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]FailedPayslip, error) {
	return s.Find(ctx, Filter{EmployeeID: employeeID})
}

func (s *Store) ListByPayrollRecord(ctx context.Context, recordID string) ([]FailedPayslip, error) {
	return s.Find(ctx, Filter{PayrollRecordID: recordID})
}

func (s *Store) CountPending(ctx context.Context) (int, error) {
	return s.Count(ctx, Filter{Status: StatusPending})
}

// IncrementRetryCount bumps the counter and stamps last_retry_at. An empty
// message keeps the previous error.
func (s *Store) IncrementRetryCount(ctx context.Context, id, message string) error {
	now := db.Now()
	res, err := s.DB.ExecContext(ctx, `
    UPDATE failed_payslips
    SET retry_count = retry_count + 1, last_retry_at = ?, updated_at = ?,
      error_message = CASE WHEN ? = '' THEN error_message ELSE ? END
    WHERE id = ?
  `, now, now, message, message, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) MarkResolved(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `
    UPDATE failed_payslips SET status = ?, updated_at = ? WHERE id = ?
  `, StatusResolved, db.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM failed_payslips WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) DeleteByPayrollRecord(ctx context.Context, recordID string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM failed_payslips WHERE payroll_record_id = ?", recordID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFailedPayslipNotFound
	}
	return nil
}
