package inmemory

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdejong/fininsight/internal/jobs"
)

func TestQueueProcessesJob(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	q := NewQueue(4, store)
	defer q.Close()

	processed := make(chan string, 1)
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.RefreshJob) error {
		processed <- job.JobID
		return nil
	}))

	job := &jobs.RefreshJob{Source: "gs://bucket/data.json"}
	require.NoError(t, q.PublishRefresh(ctx, job))
	assert.NotEmpty(t, job.JobID, "publish assigns an ID")

	select {
	case id := <-processed:
		assert.Equal(t, job.JobID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	require.Eventually(t, func() bool {
		got, err := store.GetJob(ctx, job.JobID)
		return err == nil && got.Status == jobs.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	got, err := store.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
}

func TestQueueRetriesFailedJob(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	q := NewQueue(4, store)
	defer q.Close()

	var attempts atomic.Int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.RefreshJob) error {
		if attempts.Add(1) < 2 {
			return fmt.Errorf("transient failure")
		}
		return nil
	}))

	job := &jobs.RefreshJob{Source: "local", MaxRetries: 2}
	require.NoError(t, q.PublishRefresh(ctx, job))

	require.Eventually(t, func() bool {
		got, err := store.GetJob(ctx, job.JobID)
		return err == nil && got.Status == jobs.JobStatusCompleted
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestQueueMarksJobFailedAfterRetries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	q := NewQueue(4, store)
	defer q.Close()

	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.RefreshJob) error {
		return fmt.Errorf("permanent failure")
	}))

	job := &jobs.RefreshJob{Source: "local", MaxRetries: 1}
	require.NoError(t, q.PublishRefresh(ctx, job))

	require.Eventually(t, func() bool {
		got, err := store.GetJob(ctx, job.JobID)
		return err == nil && got.Status == jobs.JobStatusFailed
	}, 5*time.Second, 20*time.Millisecond)

	got, err := store.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Contains(t, got.Error, "permanent failure")
	assert.Equal(t, 1, got.RetryCount)
}

func TestQueueRejectsPublishAfterStop(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(1, nil)
	require.NoError(t, q.Stop(ctx))

	err := q.PublishRefresh(ctx, &jobs.RefreshJob{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is closed")

	assert.Error(t, q.Start(ctx, func(context.Context, *jobs.RefreshJob) error { return nil }))
}

func TestQueueStopIsIdempotent(t *testing.T) {
	q := NewQueue(1, nil)
	require.NoError(t, q.Stop(context.Background()))
	require.NoError(t, q.Stop(context.Background()))
	require.NoError(t, q.Close())
}
