package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_RunsEveryJob(t *testing.T) {
	p := NewPool(4, 2, zap.NewNop())
	p.Start(context.Background())

	var done atomic.Int32
	for i := 0; i < 50; i++ {
		err := p.Submit(context.Background(), Job{ID: "job", Run: func(ctx context.Context) error {
			done.Add(1)
			return nil
		}})
		require.NoError(t, err)
	}
	p.Stop()

	assert.Equal(t, int32(50), done.Load())
}

func TestPool_FailingAndPanickingJobsDoNotStopWorkers(t *testing.T) {
	p := NewPool(1, 4, zap.NewNop())
	p.Start(context.Background())

	var done atomic.Int32
	require.NoError(t, p.Submit(context.Background(), Job{ID: "fail", Run: func(ctx context.Context) error {
		return errors.New("boom")
	}}))
	require.NoError(t, p.Submit(context.Background(), Job{ID: "panic", Run: func(ctx context.Context) error {
		panic("boom")
	}}))
	require.NoError(t, p.Submit(context.Background(), Job{ID: "ok", Run: func(ctx context.Context) error {
		done.Add(1)
		return nil
	}}))
	p.Stop()

	assert.Equal(t, int32(1), done.Load())
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1, 1, nil)
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	err := p.Submit(context.Background(), Job{ID: "late", Run: func(ctx context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrStopped)
	assert.False(t, p.TrySubmit(Job{ID: "late"}))
}

func TestPool_StopReleasesBlockedSubmit(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop())
	require.True(t, p.TrySubmit(Job{ID: "queued", Run: func(ctx context.Context) error { return nil }}))

	errc := make(chan error, 1)
	go func() {
		errc <- p.Submit(context.Background(), Job{ID: "blocked", Run: func(ctx context.Context) error { return nil }})
	}()

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while Submit was blocked on a full queue")
	}
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Submit was not released by Stop")
	}
}

func TestPool_TrySubmitDropsWhenFull(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop())
	release := make(chan struct{})
	started := make(chan struct{})
	p.Start(context.Background())

	// Occupy the only worker, then fill the queue.
	require.True(t, p.TrySubmit(Job{ID: "block", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started
	require.True(t, p.TrySubmit(Job{ID: "queued", Run: func(ctx context.Context) error { return nil }}))

	assert.False(t, p.TrySubmit(Job{ID: "dropped", Run: func(ctx context.Context) error { return nil }}))

	close(release)
	p.Stop()
}

func TestPool_SubmitHonorsContext(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop())
	release := make(chan struct{})
	started := make(chan struct{})
	p.Start(context.Background())

	require.NoError(t, p.Submit(context.Background(), Job{ID: "block", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started
	require.NoError(t, p.Submit(context.Background(), Job{ID: "queued", Run: func(ctx context.Context) error { return nil }}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, Job{ID: "waiting", Run: func(ctx context.Context) error { return nil }})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	p.Stop()
}

func TestPool_CancelledContextSkipsQueuedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPool(2, 8, zap.NewNop())
	p.Start(ctx)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		p.TrySubmit(Job{ID: "skipped", Run: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}})
	}
	p.Stop()

	assert.Zero(t, ran.Load())
}
