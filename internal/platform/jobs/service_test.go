package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/platform/db/dbtest"
)

func TestRunNowRecordsCompletedRun(t *testing.T) {
	svc := New(dbtest.Open(t), 4)

	out, err := svc.RunNow(context.Background(), JobRetryFailed, "user-1", func(context.Context) (any, error) {
		return map[string]int{"resolved": 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"resolved": 2}, out)
}

func TestEnqueueProcessesAndRecordsFailure(t *testing.T) {
	svc := New(dbtest.Open(t), 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	runID, err := svc.Enqueue(ctx, JobSendPayslips, "user-1", func(context.Context) (any, error) {
		return nil, errors.New("smtp down")
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		run, err := svc.Get(ctx, runID)
		return err == nil && run.Status == StatusFailed
	}, 2*time.Second, 20*time.Millisecond)

	run, err := svc.Get(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, JobSendPayslips, run.JobType)
	assert.Contains(t, string(run.Details), "smtp down")
	assert.NotNil(t, run.CompletedAt)
}

func TestEnqueueQueueFull(t *testing.T) {
	svc := New(dbtest.Open(t), 1)
	noop := func(context.Context) (any, error) { return nil, nil }

	_, err := svc.Enqueue(context.Background(), JobSendPayslips, "", noop)
	require.NoError(t, err)
	_, err = svc.Enqueue(context.Background(), JobSendPayslips, "", noop)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestGetUnknownRun(t *testing.T) {
	svc := New(dbtest.Open(t), 1)
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
