package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payflow/internal/platform/db"
)

const (
	JobSendPayslips = "payslips_send"
	JobRetryFailed  = "failed_payslips_retry_all"

	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrRunNotFound = errors.New("job run not found")
)

type Run struct {
	ID          string          `json:"id"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	RequestedBy string          `json:"requestedBy,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

type Func func(context.Context) (any, error)

type job struct {
	RunID string
	Type  string
	Run   Func
}

// Service runs queued work on a single background worker and records each
// run in job_runs.
type Service struct {
	DB    *db.DB
	queue chan job
}

func New(database *db.DB, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Service{DB: database, queue: make(chan job, queueSize)}
}

func (s *Service) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run blocks, executing queued jobs until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-s.queue:
			if _, err := s.execute(ctx, j); err != nil {
				zap.L().Warn("job run failed", zap.String("jobType", j.Type), zap.String("runId", j.RunID), zap.Error(err))
			}
		}
	}
}

// Enqueue records a queued run and hands it to the worker. The returned
// ID can be polled with Get.
func (s *Service) Enqueue(ctx context.Context, jobType, requestedBy string, run Func) (string, error) {
	runID := uuid.NewString()
	if _, err := s.DB.ExecContext(ctx, `
    INSERT INTO job_runs (id, job_type, status, requested_by, details_json, started_at)
    VALUES (?,?,?,?,?,?)
  `, runID, jobType, StatusQueued, requestedBy, "{}", db.Now()); err != nil {
		return "", err
	}

	select {
	case s.queue <- job{RunID: runID, Type: jobType, Run: run}:
		return runID, nil
	default:
		s.finish(ctx, runID, StatusFailed, map[string]string{"error": ErrQueueFull.Error()})
		zap.L().Warn("job queue full", zap.String("jobType", jobType))
		return "", ErrQueueFull
	}
}

// RunNow executes synchronously but still records the run.
func (s *Service) RunNow(ctx context.Context, jobType, requestedBy string, run Func) (any, error) {
	runID := uuid.NewString()
	if _, err := s.DB.ExecContext(ctx, `
    INSERT INTO job_runs (id, job_type, status, requested_by, details_json, started_at)
    VALUES (?,?,?,?,?,?)
  `, runID, jobType, StatusRunning, requestedBy, "{}", db.Now()); err != nil {
		zap.L().Warn("job run insert failed", zap.Error(err))
		runID = ""
	}
	return s.execute(ctx, job{RunID: runID, Type: jobType, Run: run})
}

func (s *Service) execute(ctx context.Context, j job) (any, error) {
	if j.RunID != "" {
		if _, err := s.DB.ExecContext(ctx, "UPDATE job_runs SET status = ? WHERE id = ?", StatusRunning, j.RunID); err != nil {
			zap.L().Warn("job run update failed", zap.Error(err))
		}
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	var recorded any = details
	if err != nil {
		status = StatusFailed
		recorded = map[string]any{"error": err.Error(), "result": details}
	}
	if j.RunID != "" {
		s.finish(ctx, j.RunID, status, recorded)
	}
	return details, err
}

func (s *Service) finish(ctx context.Context, runID, status string, details any) {
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		zap.L().Warn("job details marshal failed", zap.Error(marshalErr))
		detailsJSON = []byte("{}")
	}
	if _, err := s.DB.ExecContext(ctx, `
    UPDATE job_runs
    SET status = ?, details_json = ?, completed_at = ?
    WHERE id = ?
  `, status, string(detailsJSON), db.Now(), runID); err != nil {
		zap.L().Warn("job run update failed", zap.Error(err))
	}
}

func (s *Service) Get(ctx context.Context, runID string) (Run, error) {
	var (
		run                Run
		details, startedAt string
		completedAt        sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, `
    SELECT id, job_type, status, requested_by, details_json, started_at, completed_at
    FROM job_runs
    WHERE id = ?
  `, runID).Scan(&run.ID, &run.JobType, &run.Status, &run.RequestedBy, &details, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}
	run.Details = json.RawMessage(details)
	run.StartedAt = db.ParseTime(startedAt)
	run.CompletedAt = db.ParseNullTime(completedAt)
	return run, nil
}
