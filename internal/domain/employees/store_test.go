package employees

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/platform/db"
)

func TestFindPropagatesQueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("(?s)SELECT .+ FROM employees WHERE 1=1 AND status = \\?").
		WithArgs(StatusActive).
		WillReturnError(errors.New("database is locked"))

	store := NewStore(db.Wrap(sqlDB, db.DialectSQLite))
	_, err = store.Find(context.Background(), Filter{Status: StatusActive})
	require.EqualError(t, err, "database is locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildFilterPostgresPlaceholders(t *testing.T) {
	where, args := buildFilter(Filter{Department: "Ops", IDs: []string{"a", "b"}})
	pg := db.Wrap(nil, db.DialectPostgres)
	assert.Equal(t, " WHERE 1=1 AND department = $1 AND id IN ($2,$3)", pg.Rebind(where))
	assert.Equal(t, []any{"Ops", "a", "b"}, args)
}
