package auth

import (
	"context"
	"database/sql"
	"errors"

	"payflow/internal/platform/db"
)

type Store struct {
	DB *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{DB: database}
}

const userColumns = "id, username, email, role, name, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }, extra ...any) (User, error) {
	var (
		u                    User
		createdAt, updatedAt string
	)
	dest := append([]any{&u.ID, &u.Username, &u.Email, &u.Role, &u.Name, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	u.CreatedAt = db.ParseTime(createdAt)
	u.UpdatedAt = db.ParseTime(updatedAt)
	return u, nil
}

func (s *Store) Create(ctx context.Context, u User, passwordHash string) error {
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO users (id, username, email, password_hash, role, name, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?,?)
  `, u.ID, u.Username, u.Email, passwordHash, u.Role, u.Name, db.FormatTime(u.CreatedAt), db.FormatTime(u.UpdatedAt))
	if db.IsUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

func (s *Store) GetByID(ctx context.Context, id string) (User, error) {
	return scanUser(s.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetByLogin matches username or email case-insensitively and returns the
// stored password hash alongside the user.
func (s *Store) GetByLogin(ctx context.Context, login string) (User, string, error) {
	var hash string
	u, err := scanUser(s.DB.QueryRowContext(ctx, `
    SELECT `+userColumns+`, password_hash
    FROM users
    WHERE LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)
  `, login, login), &hash)
	return u, hash, err
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update writes profile fields; passwordHash is only written when non-nil.
func (s *Store) Update(ctx context.Context, u User, passwordHash *string) error {
	var (
		res sql.Result
		err error
	)
	if passwordHash != nil {
		res, err = s.DB.ExecContext(ctx, `
      UPDATE users SET username = ?, email = ?, role = ?, name = ?, password_hash = ?, updated_at = ?
      WHERE id = ?
    `, u.Username, u.Email, u.Role, u.Name, *passwordHash, db.FormatTime(u.UpdatedAt), u.ID)
	} else {
		res, err = s.DB.ExecContext(ctx, `
      UPDATE users SET username = ?, email = ?, role = ?, name = ?, updated_at = ?
      WHERE id = ?
    `, u.Username, u.Email, u.Role, u.Name, db.FormatTime(u.UpdatedAt), u.ID)
	}
	if db.IsUniqueViolation(err) {
		return ErrDuplicateUser
	}
	if err != nil {
		return err
	}
	return requireAffected(res, ErrUserNotFound)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrUserNotFound)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM users").Scan(&count)
	return count, err
}

func (s *Store) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE role = ?", role).Scan(&count)
	return count, err
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
