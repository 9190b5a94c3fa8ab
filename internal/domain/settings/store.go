package settings

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"payflow/internal/platform/db"
)

type Store struct {
	DB *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{DB: database}
}

func scanSetting(row interface{ Scan(...any) error }) (Setting, error) {
	var (
		s                    Setting
		createdAt, updatedAt string
	)
	if err := row.Scan(&s.ID, &s.Key, &s.Value, &createdAt, &updatedAt); err != nil {
		return Setting{}, err
	}
	s.CreatedAt = db.ParseTime(createdAt)
	s.UpdatedAt = db.ParseTime(updatedAt)
	return s, nil
}

func (s *Store) Create(ctx context.Context, key, value string) (Setting, error) {
	now := db.Now()
	setting := Setting{ID: uuid.NewString(), Key: key, Value: value}
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO settings (id, key, value, created_at, updated_at) VALUES (?,?,?,?,?)
  `, setting.ID, key, value, now, now)
	if db.IsUniqueViolation(err) {
		return Setting{}, ErrDuplicateKey
	}
	if err != nil {
		return Setting{}, err
	}
	return s.Get(ctx, key)
}

func (s *Store) Get(ctx context.Context, key string) (Setting, error) {
	setting, err := scanSetting(s.DB.QueryRowContext(ctx, `
    SELECT id, key, value, created_at, updated_at FROM settings WHERE key = ?
  `, key))
	if errors.Is(err, sql.ErrNoRows) {
		return Setting{}, ErrSettingNotFound
	}
	return setting, err
}

func (s *Store) List(ctx context.Context) ([]Setting, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, key, value, created_at, updated_at FROM settings ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Setting{}
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, setting)
	}
	return out, rows.Err()
}

// Set upserts a value in a single statement; both SQLite and PostgreSQL
// accept ON CONFLICT on the unique key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	now := db.Now()
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO settings (id, key, value, created_at, updated_at)
    VALUES (?,?,?,?,?)
    ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
  `, uuid.NewString(), key, value, now, now)
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSettingNotFound
	}
	return nil
}
