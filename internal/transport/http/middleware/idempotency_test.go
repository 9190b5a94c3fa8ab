package middleware

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/platform/db/dbtest"
)

func TestRequestHashDeterministic(t *testing.T) {
	assert.Equal(t, RequestHash([]byte("payload")), RequestHash([]byte("payload")))
	assert.NotEqual(t, RequestHash([]byte("payload")), RequestHash([]byte("other")))
}

func TestIdempotencyStoreReplayAndConflict(t *testing.T) {
	store := NewIdempotencyStore(dbtest.Open(t))
	ctx := t.Context()
	hash := RequestHash([]byte(`{"period":"January 2026"}`))

	_, found, err := store.Check(ctx, "u1", "payroll.generate", "key-1", hash)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, "u1", "payroll.generate", "key-1", hash, json.RawMessage(`{"id":"r1"}`)))

	stored, found, err := store.Check(ctx, "u1", "payroll.generate", "key-1", hash)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"id":"r1"}`, string(stored))

	_, _, err = store.Check(ctx, "u1", "payroll.generate", "key-1", RequestHash([]byte("different")))
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
	assert.ErrorIs(t, store.Save(ctx, "u1", "payroll.generate", "key-1", RequestHash([]byte("different")), json.RawMessage(`{}`)), ErrIdempotencyConflict)

	_, found, err = store.Check(ctx, "u2", "payroll.generate", "key-1", hash)
	require.NoError(t, err)
	assert.False(t, found)
}
