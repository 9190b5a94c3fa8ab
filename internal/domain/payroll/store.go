package payroll

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"payflow/internal/platform/db"
)

type Store struct {
	DB *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{DB: database}
}

const recordColumns = `id, period, pay_date, status, total_gross, total_deductions, total_net, employee_count,
  created_by, completed_at, created_at, updated_at`

const historyColumns = `h.id, h.payroll_record_id, h.employee_id, h.employee_name, r.period, h.date, h.basic_salary,
  h.allowances, h.deductions, h.total_allowances, h.total_deductions, h.gross_pay, h.net_pay, h.warnings,
  h.email_status, h.email_error, h.email_sent_at, h.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateRecord writes the record and every item atomically.
func (s *Store) CreateRecord(ctx context.Context, rec Record) error {
	return s.DB.WithTx(ctx, func(q db.Querier) error {
		if _, err := q.ExecContext(ctx, `
      INSERT INTO payroll_records (id, period, pay_date, status, total_gross, total_deductions, total_net,
        employee_count, created_by, created_at, updated_at)
      VALUES (?,?,?,?,?,?,?,?,?,?,?)
    `, rec.ID, rec.Period, rec.PayDate, rec.Status, rec.TotalGross, rec.TotalDeductions, rec.TotalNet,
			rec.EmployeeCount, rec.CreatedBy, db.FormatTime(rec.CreatedAt), db.FormatTime(rec.UpdatedAt)); err != nil {
			return err
		}
		for _, item := range rec.Items {
			allowances, err := json.Marshal(item.Allowances)
			if err != nil {
				return err
			}
			deductions, err := json.Marshal(item.Deductions)
			if err != nil {
				return err
			}
			warnings, err := json.Marshal(item.Warnings)
			if err != nil {
				return err
			}
			if _, err := q.ExecContext(ctx, `
        INSERT INTO payroll_history (id, payroll_record_id, employee_id, employee_name, date, basic_salary,
          allowances, deductions, total_allowances, total_deductions, gross_pay, net_pay, warnings,
          email_status, email_error, created_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
      `, item.ID, rec.ID, item.EmployeeID, item.EmployeeName, item.Date, item.BasicSalary,
				string(allowances), string(deductions), item.TotalAllowances, item.TotalDeductions,
				item.GrossPay, item.NetPay, string(warnings), item.EmailStatus, item.EmailError,
				db.FormatTime(item.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec                  Record
		completedAt          sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &rec.Period, &rec.PayDate, &rec.Status, &rec.TotalGross, &rec.TotalDeductions,
		&rec.TotalNet, &rec.EmployeeCount, &rec.CreatedBy, &completedAt, &createdAt, &updatedAt); err != nil {
		return Record{}, err
	}
	rec.CompletedAt = db.ParseNullTime(completedAt)
	rec.CreatedAt = db.ParseTime(createdAt)
	rec.UpdatedAt = db.ParseTime(updatedAt)
	return rec, nil
}

func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM payroll_records WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

func recordWhere(filter RecordFilter) (string, []any) {
	if filter.Status == "" {
		return "", nil
	}
	return " WHERE status = ?", []any{filter.Status}
}

func (s *Store) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	where, args := recordWhere(filter)
	query := "SELECT " + recordColumns + " FROM payroll_records" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) CountRecords(ctx context.Context, filter RecordFilter) (int, error) {
	where, args := recordWhere(filter)
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM payroll_records"+where, args...).Scan(&count)
	return count, err
}

// CompleteRecord flips a draft to completed. It reports false when the
// record was not a draft.
func (s *Store) CompleteRecord(ctx context.Context, id string) (bool, error) {
	now := db.Now()
	res, err := s.DB.ExecContext(ctx, `
    UPDATE payroll_records SET status = ?, completed_at = ?, updated_at = ?
    WHERE id = ? AND status = ?
  `, RecordStatusCompleted, now, now, id, RecordStatusDraft)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteRecord removes failed payslips, history items and the record in
// one transaction.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	return s.DB.WithTx(ctx, func(q db.Querier) error {
		if _, err := q.ExecContext(ctx, "DELETE FROM failed_payslips WHERE payroll_record_id = ?", id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM payroll_history WHERE payroll_record_id = ?", id); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, "DELETE FROM payroll_records WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}

func scanHistory(row rowScanner) (HistoryItem, error) {
	var (
		item                             HistoryItem
		allowances, deductions, warnings string
		sentAt                           sql.NullString
		createdAt                        string
	)
	if err := row.Scan(&item.ID, &item.PayrollRecordID, &item.EmployeeID, &item.EmployeeName, &item.Period, &item.Date,
		&item.BasicSalary, &allowances, &deductions, &item.TotalAllowances, &item.TotalDeductions, &item.GrossPay,
		&item.NetPay, &warnings, &item.EmailStatus, &item.EmailError, &sentAt, &createdAt); err != nil {
		return HistoryItem{}, err
	}
	item.Allowances = decodeItems(allowances)
	item.Deductions = decodeItems(deductions)
	item.Warnings = []string{}
	if err := json.Unmarshal([]byte(warnings), &item.Warnings); err != nil {
		zap.L().Warn("payroll history warnings unreadable", zap.String("historyId", item.ID), zap.Error(err))
	}
	item.EmailSentAt = db.ParseNullTime(sentAt)
	item.CreatedAt = db.ParseTime(createdAt)
	return item, nil
}

func decodeItems(raw string) []Item {
	items := []Item{}
	if strings.TrimSpace(raw) == "" {
		return items
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		zap.L().Warn("payroll line items unreadable", zap.Error(err))
		return []Item{}
	}
	return items
}

func (s *Store) listHistory(ctx context.Context, where string, args ...any) ([]HistoryItem, error) {
	rows, err := s.DB.QueryContext(ctx, `
    SELECT `+historyColumns+`
    FROM payroll_history h
    JOIN payroll_records r ON r.id = h.payroll_record_id
  `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HistoryItem{}
	for rows.Next() {
		item, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) ListItems(ctx context.Context, recordID string) ([]HistoryItem, error) {
	return s.listHistory(ctx, "WHERE h.payroll_record_id = ? ORDER BY h.employee_name", recordID)
}

func (s *Store) HistoryByEmployee(ctx context.Context, employeeID string) ([]HistoryItem, error) {
	return s.listHistory(ctx, "WHERE h.employee_id = ? ORDER BY h.date DESC, h.created_at DESC", employeeID)
}

func (s *Store) GetItem(ctx context.Context, recordID, employeeID string) (HistoryItem, error) {
	item, err := scanHistory(s.DB.QueryRowContext(ctx, `
    SELECT `+historyColumns+`
    FROM payroll_history h
    JOIN payroll_records r ON r.id = h.payroll_record_id
    WHERE h.payroll_record_id = ? AND h.employee_id = ?
  `, recordID, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryItem{}, ErrHistoryNotFound
	}
	return item, err
}

func (s *Store) GetHistory(ctx context.Context, id string) (HistoryItem, error) {
	item, err := scanHistory(s.DB.QueryRowContext(ctx, `
    SELECT `+historyColumns+`
    FROM payroll_history h
    JOIN payroll_records r ON r.id = h.payroll_record_id
    WHERE h.id = ?
  `, id))
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryItem{}, ErrHistoryNotFound
	}
	return item, err
}

func (s *Store) UpdateEmailStatus(ctx context.Context, recordID, employeeID, status, message string) error {
	var sentAt any
	if status == EmailStatusSent {
		sentAt = db.Now()
		message = ""
	}
	res, err := s.DB.ExecContext(ctx, `
    UPDATE payroll_history SET email_status = ?, email_error = ?, email_sent_at = COALESCE(?, email_sent_at)
    WHERE payroll_record_id = ? AND employee_id = ?
  `, status, message, sentAt, recordID, employeeID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHistoryNotFound
	}
	return nil
}

// WarningCounts tallies the warnings stored on a record's items.
func (s *Store) WarningCounts(ctx context.Context, recordID string) (map[string]int, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT warnings FROM payroll_history WHERE payroll_record_id = ?", recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var warnings []string
		if err := json.Unmarshal([]byte(raw), &warnings); err != nil {
			continue
		}
		for _, key := range warnings {
			counts[key]++
		}
	}
	return counts, rows.Err()
}

func (s *Store) RegisterRows(ctx context.Context, recordID string) ([]RegisterRow, error) {
	rows, err := s.DB.QueryContext(ctx, `
    SELECT COALESCE(e.employee_number, ''), h.employee_name, COALESCE(e.department, ''), h.basic_salary,
      h.total_allowances, h.gross_pay, h.total_deductions, h.net_pay, h.email_status
    FROM payroll_history h
    LEFT JOIN employees e ON e.id = h.employee_id
    WHERE h.payroll_record_id = ?
    ORDER BY h.employee_name
  `, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RegisterRow{}
	for rows.Next() {
		var row RegisterRow
		if err := rows.Scan(&row.EmployeeNumber, &row.EmployeeName, &row.Department, &row.BasicSalary,
			&row.TotalAllowances, &row.GrossPay, &row.TotalDeductions, &row.NetPay, &row.EmailStatus); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LastCompleted returns the completed record with the latest pay date, or nil.
func (s *Store) LastCompleted(ctx context.Context) (*Record, error) {
	rec, err := scanRecord(s.DB.QueryRowContext(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records
    WHERE status = ?
    ORDER BY pay_date DESC, created_at DESC
    LIMIT 1
  `, RecordStatusCompleted))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CompletedBetween lists completed records with a pay date in [from, to].
func (s *Store) CompletedBetween(ctx context.Context, from, to string) ([]Record, error) {
	rows, err := s.DB.QueryContext(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records
    WHERE status = ? AND pay_date >= ? AND pay_date <= ?
    ORDER BY pay_date
  `, RecordStatusCompleted, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
