package middleware

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"

	"payflow/internal/platform/db"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyStore remembers the response of a mutating request per
// (user, key, endpoint) so a client retry of the same payload replays it.
type IdempotencyStore struct {
	db *db.DB
}

func NewIdempotencyStore(database *db.DB) *IdempotencyStore {
	return &IdempotencyStore{db: database}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil || key == "" {
		return nil, false, nil
	}
	var storedHash, stored string
	err := s.db.QueryRowContext(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE user_id = ? AND key = ? AND endpoint = ?
  `, userID, key, endpoint).Scan(&storedHash, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return json.RawMessage(stored), true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.db == nil || key == "" {
		return nil
	}
	res, err := s.db.ExecContext(ctx, `
    INSERT INTO idempotency_keys (user_id, key, endpoint, request_hash, response_json, created_at)
    VALUES (?, ?, ?, ?, ?, ?)
    ON CONFLICT (user_id, key, endpoint)
    DO UPDATE SET response_json = excluded.response_json
    WHERE idempotency_keys.request_hash = excluded.request_hash
  `, userID, key, endpoint, requestHash, string(response), db.Now())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}
