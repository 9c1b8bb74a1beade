package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"veo-console/internal/backend"
	"veo-console/pkg/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInterval = 10 * time.Millisecond

type step struct {
	report *backend.StatusReport
	err    error
}

// scriptedFetcher rejoue une séquence de réponses puis répète la dernière
type scriptedFetcher struct {
	mu    sync.Mutex
	steps []step
	calls int64
	block chan struct{}
}

func (f *scriptedFetcher) Status(ctx context.Context, operation string) (*backend.StatusReport, error) {
	n := atomic.AddInt64(&f.calls, 1)

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := int(n) - 1
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}
	return f.steps[idx].report, f.steps[idx].err
}

func (f *scriptedFetcher) Calls() int64 {
	return atomic.LoadInt64(&f.calls)
}

type recorder struct {
	mu       sync.Mutex
	statuses []models.JobStatus
}

func (r *recorder) apply(s models.JobStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
	return true
}

func (r *recorder) Statuses() []models.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.JobStatus(nil), r.statuses...)
}

func done() *backend.StatusReport {
	t := true
	return &backend.StatusReport{Done: &t}
}

func status(s string) *backend.StatusReport {
	return &backend.StatusReport{Status: s}
}

func newTestPool(f StatusFetcher) *Pool {
	return NewPool(f, testInterval, zerolog.Nop())
}

var testKey = Key{SessionID: "s1", JobID: "operations/abc"}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestNormalize(t *testing.T) {
	f := false
	tests := []struct {
		name   string
		report *backend.StatusReport
		want   models.JobStatus
		ok     bool
	}{
		{"done true", done(), models.StatusCompleted, true},
		{"complete sentinel", status("COMPLETE"), models.StatusCompleted, true},
		{"done wins over error", &backend.StatusReport{Done: done().Done, Status: "ERROR"}, models.StatusCompleted, true},
		{"error", status("ERROR"), models.StatusFailed, true},
		{"error with done false", &backend.StatusReport{Done: &f, Status: "ERROR"}, models.StatusFailed, true},
		{"polling", status("POLLING"), models.StatusProcessing, true},
		{"processing", status("PROCESSING"), models.StatusProcessing, true},
		{"unknown sentinel", status("WAITING"), "", false},
		{"empty", &backend.StatusReport{}, "", false},
		{"done false only", &backend.StatusReport{Done: &f}, "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.report)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPool_DoneCompletesAndStops(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []step{{report: done()}}}
	pool := newTestPool(fetcher)
	rec := &recorder{}

	h, err := pool.Start(testKey, models.StatusQueued, rec.apply)
	require.NoError(t, err)
	waitDone(t, h)

	assert.Equal(t, []models.JobStatus{models.StatusCompleted}, rec.Statuses())

	calls := fetcher.Calls()
	time.Sleep(5 * testInterval)
	assert.Equal(t, calls, fetcher.Calls(), "no polls after a terminal status")
	assert.False(t, pool.Running(testKey))
	assert.Equal(t, int64(1), pool.GetStats().JobsCompleted)
}

func TestPool_ErrorFails(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []step{{report: status("ERROR")}}}
	pool := newTestPool(fetcher)
	rec := &recorder{}

	h, err := pool.Start(testKey, models.StatusQueued, rec.apply)
	require.NoError(t, err)
	waitDone(t, h)

	assert.Equal(t, []models.JobStatus{models.StatusFailed}, rec.Statuses())
	assert.Equal(t, int64(1), fetcher.Calls())
	assert.Equal(t, int64(1), pool.GetStats().JobsFailed)
}

func TestPool_ProcessingThenCompleted(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []step{
		{report: status("POLLING")},
		{report: status("PROCESSING")},
		{report: done()},
	}}
	pool := newTestPool(fetcher)
	rec := &recorder{}

	h, err := pool.Start(testKey, models.StatusQueued, rec.apply)
	require.NoError(t, err)
	waitDone(t, h)

	assert.Equal(t, []models.JobStatus{models.StatusProcessing, models.StatusCompleted}, rec.Statuses())
	assert.Equal(t, int64(3), fetcher.Calls())
}

func TestPool_ApplyRefusalStopsPoller(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []step{{report: status("PROCESSING")}}}
	pool := newTestPool(fetcher)

	var applied int64
	h, err := pool.Start(testKey, models.StatusQueued, func(models.JobStatus) bool {
		atomic.AddInt64(&applied, 1)
		return false
	})
	require.NoError(t, err)
	waitDone(t, h)

	assert.Equal(t, int64(1), atomic.LoadInt64(&applied))
	assert.False(t, pool.Running(testKey))

	calls := fetcher.Calls()
	time.Sleep(5 * testInterval)
	assert.Equal(t, calls, fetcher.Calls(), "no polls once the job is gone")
	assert.Equal(t, int64(1), pool.GetStats().Stopped)
}

func TestPool_MalformedResponseIsTransient(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []step{
		{report: status("PROCESSING")},
		{err: backend.ErrMalformedStatus},
		{report: status("SOMETHING_ELSE")},
		{err: &backend.TransportError{Op: "status", StatusCode: 500}},
		{report: done()},
	}}
	pool := newTestPool(fetcher)
	rec := &recorder{}

	h, err := pool.Start(testKey, models.StatusQueued, rec.apply)
	require.NoError(t, err)
	waitDone(t, h)

	assert.Equal(t, []models.JobStatus{models.StatusProcessing, models.StatusCompleted}, rec.Statuses())
	assert.Equal(t, int64(3), pool.GetStats().TransientFailures)
}

func TestPool_StopWhileProcessing(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []step{{report: status("PROCESSING")}}}
	pool := newTestPool(fetcher)
	rec := &recorder{}

	h, err := pool.Start(testKey, models.StatusQueued, rec.apply)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(rec.Statuses()) == 1
	}, time.Second, testInterval)

	assert.True(t, pool.Stop(testKey))
	calls := fetcher.Calls()
	time.Sleep(5 * testInterval)

	assert.Equal(t, calls, fetcher.Calls(), "no polls after unmount")
	assert.Equal(t, []models.JobStatus{models.StatusProcessing}, rec.Statuses())
	assert.False(t, pool.Running(testKey))
	assert.False(t, pool.Stop(testKey))

	// Stop est idempotent
	h.Stop()
}

func TestPool_ResponseAfterStopIsDiscarded(t *testing.T) {
	fetcher := &scriptedFetcher{
		steps: []step{{report: done()}},
		block: make(chan struct{}),
	}
	pool := newTestPool(fetcher)
	rec := &recorder{}

	h, err := pool.Start(testKey, models.StatusQueued, rec.apply)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return fetcher.Calls() == 1 }, time.Second, testInterval)

	h.Stop()
	close(fetcher.block)

	assert.Empty(t, rec.Statuses())
}

func TestPool_StartRules(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []step{{report: status("PROCESSING")}}}
	pool := newTestPool(fetcher)
	defer pool.StopAll()

	_, err := pool.Start(testKey, models.StatusCompleted, func(models.JobStatus) bool { return true })
	assert.ErrorIs(t, err, ErrTerminalStatus)

	_, err = pool.Start(testKey, models.StatusQueued, func(models.JobStatus) bool { return true })
	require.NoError(t, err)

	_, err = pool.Start(testKey, models.StatusProcessing, func(models.JobStatus) bool { return true })
	assert.True(t, errors.Is(err, ErrAlreadyPolling))
	assert.Equal(t, 1, pool.GetStats().Active)
}

func TestPool_StopSessionAndStopAll(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []step{{report: status("POLLING")}}}
	pool := newTestPool(fetcher)
	noop := func(models.JobStatus) bool { return true }

	for _, key := range []Key{
		{SessionID: "a", JobID: "op1"},
		{SessionID: "a", JobID: "op2"},
		{SessionID: "b", JobID: "op3"},
	} {
		_, err := pool.Start(key, models.StatusQueued, noop)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, pool.StopSession("a"))
	assert.Equal(t, 1, pool.GetStats().Active)
	assert.True(t, pool.Running(Key{SessionID: "b", JobID: "op3"}))

	pool.StopAll()
	assert.Equal(t, 0, pool.GetStats().Active)
	assert.Equal(t, int64(3), pool.GetStats().Stopped)

	_, err := pool.Start(Key{SessionID: "c", JobID: "op4"}, models.StatusQueued, noop)
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_ConcurrentStartStop(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []step{{report: status("PROCESSING")}}}
	pool := newTestPool(fetcher)
	defer pool.StopAll()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.Start(testKey, models.StatusQueued, func(models.JobStatus) bool { return true }); err == nil {
				time.Sleep(testInterval)
			}
			pool.Stop(testKey)
		}()
	}
	wg.Wait()

	assert.False(t, pool.Running(testKey))
}
