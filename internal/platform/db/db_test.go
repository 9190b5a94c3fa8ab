package db_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/platform/config"
	"payflow/internal/platform/db"
	"payflow/internal/platform/db/dbtest"
)

func TestRebind(t *testing.T) {
	pg := db.Wrap(nil, db.DialectPostgres)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, "SELECT '?' FROM t WHERE a = $1", pg.Rebind("SELECT '?' FROM t WHERE a = ?"))

	lite := db.Wrap(nil, db.DialectSQLite)
	assert.Equal(t, "SELECT ? ", lite.Rebind("SELECT ? "))
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	database, err := db.Connect(context.Background(), config.Config{DatabaseURL: path})
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, db.Migrate(database))
	require.NoError(t, db.Migrate(database))
}

func TestUniqueAndForeignKeyViolations(t *testing.T) {
	database := dbtest.Open(t)
	ctx := context.Background()
	now := db.Now()

	insert := `INSERT INTO settings (id, key, value, created_at, updated_at) VALUES (?,?,?,?,?)`
	_, err := database.ExecContext(ctx, insert, "s1", "company_name", "Acme", now, now)
	require.NoError(t, err)
	_, err = database.ExecContext(ctx, insert, "s2", "company_name", "Other", now, now)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	_, err = database.ExecContext(ctx, `
    INSERT INTO allowances (id, payroll_structure_id, name, amount, type, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?)
  `, "a1", "missing-structure", "Housing", 100, "fixed", now, now)
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(err))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database := dbtest.Open(t)
	ctx := context.Background()
	now := db.Now()

	sentinel := errors.New("stop")
	err := database.WithTx(ctx, func(q db.Querier) error {
		if _, err := q.ExecContext(ctx, `INSERT INTO settings (id, key, value, created_at, updated_at) VALUES (?,?,?,?,?)`, "s1", "k", "v", now, now); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var count int
	require.NoError(t, database.QueryRowContext(ctx, "SELECT COUNT(1) FROM settings").Scan(&count))
	assert.Zero(t, count)
}

func TestWithTxCommitFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM settings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	database := db.Wrap(sqlDB, db.DialectSQLite)
	err = database.WithTx(context.Background(), func(q db.Querier) error {
		_, err := q.ExecContext(context.Background(), "DELETE FROM settings WHERE key = ?", "k")
		return err
	})
	require.EqualError(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 891000000, time.UTC)
	formatted := db.FormatTime(now)
	assert.Equal(t, "2026-03-04T05:06:07.891000Z", formatted)
	assert.True(t, now.Equal(db.ParseTime(formatted)))
	assert.True(t, db.ParseTime("").IsZero())
}
