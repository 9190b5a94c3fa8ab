package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payflow/internal/platform/db"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorUser  string
}

type Service struct {
	DB *db.DB
}

func New(database *db.DB) *Service {
	return &Service{DB: database}
}

func marshalOptional(value any) (sql.NullString, error) {
	if value == nil {
		return sql.NullString{}, nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(payload), Valid: true}, nil
}

func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := marshalOptional(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(after)
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
    INSERT INTO audit_events (id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip, created_at)
    VALUES (?,?,?,?,?,?,?,?,?,?)
  `, uuid.NewString(), actorID, action, entityType, entityID, beforeJSON, afterJSON, requestID, ip, db.Now())
	return err
}

// RecordQuietly logs instead of failing; the audited change has already
// been committed.
func (s *Service) RecordQuietly(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) {
	if err := s.Record(ctx, actorID, action, entityType, entityID, requestID, ip, before, after); err != nil {
		zap.L().Warn("audit record failed",
			zap.String("action", action),
			zap.String("entityType", entityType),
			zap.String("entityId", entityID),
			zap.Error(err))
	}
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	selectCols := "id, actor_user_id, action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		selectCols += ", before_json, after_json"
	}
	query, args := buildBaseQuery("SELECT "+selectCols, filter)
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			evt           Event
			createdAt     string
			before, after sql.NullString
		)
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &createdAt}
		if includeDetails {
			dest = append(dest, &before, &after)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		evt.CreatedAt = db.ParseTime(createdAt)
		if before.Valid {
			evt.Before = json.RawMessage(before.String)
		}
		if after.Valid {
			evt.After = json.RawMessage(after.String)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		clauses = append(clauses, "entity_type = ?")
		args = append(args, filter.EntityType)
	}
	if filter.ActorUser != "" {
		clauses = append(clauses, "actor_user_id = ?")
		args = append(args, filter.ActorUser)
	}
	return prefix + " FROM audit_events WHERE " + strings.Join(clauses, " AND "), args
}
