package leave

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

const columns = `id, employee_id, leave_type, start_date, end_date, days, reason, status, decided_by, created_at, updated_at`

func scan(row interface{ Scan(...any) error }) (Request, error) {
	var (
		r                    Request
		createdAt, updatedAt string
	)
	if err := row.Scan(&r.ID, &r.EmployeeID, &r.LeaveType, &r.StartDate, &r.EndDate, &r.Days, &r.Reason,
		&r.Status, &r.DecidedBy, &createdAt, &updatedAt); err != nil {
		return Request{}, err
	}
	r.CreatedAt = db.ParseTime(createdAt)
	r.UpdatedAt = db.ParseTime(updatedAt)
	return r, nil
}

func (s *Store) Create(ctx context.Context, r Request) error {
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO leave_requests (id, employee_id, leave_type, start_date, end_date, days, reason, status, decided_by,
      created_at, updated_at)
    VALUES (?,?,?,?,?,?,?,?,?,?,?)
  `, r.ID, r.EmployeeID, r.LeaveType, r.StartDate, r.EndDate, r.Days, r.Reason, r.Status, r.DecidedBy,
		db.FormatTime(r.CreatedAt), db.FormatTime(r.UpdatedAt))
	if db.IsForeignKeyViolation(err) {
		return ErrEmployeeNotFound
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	r, err := scan(s.DB.QueryRowContext(ctx, "SELECT "+columns+" FROM leave_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return r, err
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
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) Find(ctx context.Context, filter Filter) ([]Request, error) {
	where, args := buildFilter(filter)
	query := "SELECT " + columns + " FROM leave_requests" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Request{}
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := buildFilter(filter)
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&count)
	return count, err
}

func (s *Store) Update(ctx context.Context, r Request) error {
	res, err := s.DB.ExecContext(ctx, `
    UPDATE leave_requests
    SET leave_type = ?, start_date = ?, end_date = ?, days = ?, reason = ?, updated_at = ?
    WHERE id = ?
  `, r.LeaveType, r.StartDate, r.EndDate, r.Days, r.Reason, db.FormatTime(r.UpdatedAt), r.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRequestNotFound)
}

// SetStatus moves a pending request to status. It fails with ErrNotPending
// when the row exists but was already decided.
func (s *Store) SetStatus(ctx context.Context, id, status, decidedBy string) error {
	res, err := s.DB.ExecContext(ctx, `
    UPDATE leave_requests SET status = ?, decided_by = ?, updated_at = ?
    WHERE id = ? AND status = ?
  `, status, decidedBy, db.Now(), id, StatusPending)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrNotPending)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM leave_requests WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRequestNotFound)
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
