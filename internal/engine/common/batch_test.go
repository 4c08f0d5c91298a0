package common

import (
	"context"
	stdliberrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/sdsmatch/pkg/errors"
)

func TestNewBatchProcessor_Defaults(t *testing.T) {
	bp := NewBatchProcessor[string, string]()
	assert.NotNil(t, bp)
}

func TestProcess_AllSuccess(t *testing.T) {
	bp := NewBatchProcessor[string, string]()
	items := []string{"a", "b", "c"}
	fn := func(ctx context.Context, item string) (string, error) {
		return item + "_done", nil
	}

	res, err := bp.Process(context.Background(), items, fn)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCount)
	assert.Equal(t, 3, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)
	// Results come back sorted by original index.
	assert.Equal(t, "a_done", res.Results[0].Result)
	assert.Equal(t, "b_done", res.Results[1].Result)
	assert.Equal(t, "c_done", res.Results[2].Result)
}

func TestProcess_AllFailure(t *testing.T) {
	bp := NewBatchProcessor[string, string]()
	items := []string{"a", "b"}
	fn := func(ctx context.Context, item string) (string, error) {
		return "", stdliberrors.New("boom")
	}

	res, err := bp.Process(context.Background(), items, fn)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SuccessCount)
	assert.Equal(t, 2, res.FailureCount)
	assert.Error(t, res.Results[0].Error)
	assert.Equal(t, ItemStatusFailed, res.Results[0].Status)
}

func TestProcess_NilFunc(t *testing.T) {
	bp := NewBatchProcessor[string, string]()
	_, err := bp.Process(context.Background(), []string{"a"}, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

func TestProcess_EmptyItems(t *testing.T) {
	bp := NewBatchProcessor[string, string]()
	res, err := bp.Process(context.Background(), nil, func(ctx context.Context, item string) (string, error) {
		return item, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalCount)
	assert.Empty(t, res.Results)
}

func TestProcess_ConcurrencyLimit(t *testing.T) {
	var concurrent int32
	var peak int32

	bp := NewBatchProcessor[int, int](WithMaxConcurrency(2))
	items := []int{1, 2, 3, 4, 5, 6}

	fn := func(ctx context.Context, item int) (int, error) {
		curr := atomic.AddInt32(&concurrent, 1)
		defer atomic.AddInt32(&concurrent, -1)
		for {
			old := atomic.LoadInt32(&peak)
			if curr <= old || atomic.CompareAndSwapInt32(&peak, old, curr) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return item * 2, nil
	}

	res, err := bp.Process(context.Background(), items, fn)
	require.NoError(t, err)
	assert.Equal(t, 6, res.SuccessCount)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestProcess_ItemTimeout(t *testing.T) {
	bp := NewBatchProcessor[int, int](WithItemTimeout(10 * time.Millisecond))
	items := []int{1}

	fn := func(ctx context.Context, item int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(200 * time.Millisecond):
			return item, nil
		}
	}

	res, err := bp.Process(context.Background(), items, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailureCount)
	assert.Equal(t, 1, res.TimeoutCount)
	assert.Equal(t, ItemStatusTimeout, res.Results[0].Status)
}

func TestProcess_ContextCancelled(t *testing.T) {
	bp := NewBatchProcessor[int, int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := func(ctx context.Context, item int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return item, nil
		}
	}

	res, err := bp.Process(ctx, []int{1, 2}, fn)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SuccessCount)
	assert.Equal(t, 2, res.CancelledCount)
}

func TestProcess_RetrySucceedsOnSecondAttempt(t *testing.T) {
	var calls int32
	bp := NewBatchProcessor[string, string](WithRetryPolicy(2, time.Millisecond))

	fn := func(ctx context.Context, item string) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", stdliberrors.New("transient")
		}
		return item + "_ok", nil
	}

	res, err := bp.Process(context.Background(), []string{"x"}, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, "x_ok", res.Results[0].Result)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestProcess_RetryOnlyListedErrors(t *testing.T) {
	retryable := stdliberrors.New("retryable")
	permanent := stdliberrors.New("permanent")

	var calls int32
	bp := NewBatchProcessor[string, string](WithRetryPolicyFull(&RetryPolicy{
		MaxRetries:      3,
		InitialBackoff:  time.Millisecond,
		RetryableErrors: []error{retryable},
	}))

	fn := func(ctx context.Context, item string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", permanent
	}

	res, err := bp.Process(context.Background(), []string{"x"}, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailureCount)
	// Permanent error is not in the retryable list, so only one attempt.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProcess_Backpressure(t *testing.T) {
	bp := NewBatchProcessor[int, int](WithBackpressureThreshold(2))
	fn := func(ctx context.Context, item int) (int, error) {
		return item, nil
	}

	_, err := bp.Process(context.Background(), []int{1, 2, 3}, fn)
	assert.ErrorIs(t, err, ErrBackpressure)

	// A batch within the threshold is accepted.
	res, err := bp.Process(context.Background(), []int{1, 2}, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
}

func TestProcess_CircuitBreakerOpens(t *testing.T) {
	bp := NewBatchProcessor[int, int](WithCircuitBreaker(2, time.Minute))
	failing := func(ctx context.Context, item int) (int, error) {
		return 0, stdliberrors.New("downstream unavailable")
	}

	// Two consecutive failures trip the breaker.
	for i := 0; i < 2; i++ {
		res, err := bp.Process(context.Background(), []int{i}, failing)
		require.NoError(t, err)
		assert.Equal(t, 1, res.FailureCount)
	}

	// Third call is short-circuited.
	res, err := bp.Process(context.Background(), []int{9}, failing)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailureCount)
	assert.ErrorIs(t, res.Results[0].Error, ErrCircuitOpen)
}

func TestProcessWithPriority_ExecutionOrder(t *testing.T) {
	bp := NewBatchProcessor[string, string](WithMaxConcurrency(1))
	items := []PrioritizedItem[string]{
		{Item: "low", Priority: 1},
		{Item: "high", Priority: 10},
		{Item: "mid", Priority: 5},
	}

	var mu sync.Mutex
	var order []string
	fn := func(ctx context.Context, item string) (string, error) {
		mu.Lock()
		order = append(order, item)
		mu.Unlock()
		return item, nil
	}

	res, err := bp.ProcessWithPriority(context.Background(), items, fn)
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"high", "mid", "low"}, order)
	mu.Unlock()

	// Results are reordered back to the original input positions.
	assert.Equal(t, "low", res.Results[0].Result)
	assert.Equal(t, "high", res.Results[1].Result)
	assert.Equal(t, "mid", res.Results[2].Result)
}

func TestProcessWithPriority_NilFunc(t *testing.T) {
	bp := NewBatchProcessor[string, string]()
	_, err := bp.ProcessWithPriority(context.Background(), []PrioritizedItem[string]{{Item: "a"}}, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

func TestShutdown_RejectsNewBatches(t *testing.T) {
	bp := NewBatchProcessor[string, string]()
	require.NoError(t, bp.Shutdown(context.Background()))

	_, err := bp.Process(context.Background(), []string{"a"}, func(ctx context.Context, item string) (string, error) {
		return item, nil
	})
	assert.ErrorIs(t, err, ErrShutdown)

	_, err = bp.ProcessWithPriority(context.Background(), []PrioritizedItem[string]{{Item: "a"}}, func(ctx context.Context, item string) (string, error) {
		return item, nil
	})
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestShutdown_WaitsForInFlight(t *testing.T) {
	bp := NewBatchProcessor[int, int]()
	started := make(chan struct{})

	go func() {
		_, _ = bp.Process(context.Background(), []int{1}, func(ctx context.Context, item int) (int, error) {
			close(started)
			time.Sleep(50 * time.Millisecond)
			return item, nil
		})
	}()

	<-started
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, bp.Shutdown(ctx))
}

// recordingMetrics captures batch metric params for assertions.
type recordingMetrics struct {
	EngineMetrics
	mu    sync.Mutex
	batch []*BatchMetricParams
}

func (r *recordingMetrics) RecordBatchProcessing(_ context.Context, params *BatchMetricParams) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batch = append(r.batch, params)
}

func TestProcess_RecordsBatchMetrics(t *testing.T) {
	rec := &recordingMetrics{EngineMetrics: NewNoopEngineMetrics()}
	bp := NewBatchProcessor[int, int](
		WithBatchName("extract-batch"),
		WithBatchMetrics(rec),
	)

	fn := func(ctx context.Context, item int) (int, error) {
		if item < 0 {
			return 0, stdliberrors.New("bad item")
		}
		return item, nil
	}

	_, err := bp.Process(context.Background(), []int{1, -1, 2}, fn)
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.batch, 1)
	assert.Equal(t, "extract-batch", rec.batch[0].BatchName)
	assert.Equal(t, 3, rec.batch[0].TotalItems)
	assert.Equal(t, 2, rec.batch[0].SuccessItems)
	assert.Equal(t, 1, rec.batch[0].FailedItems)
}

func TestCalculateBackoff_Bounds(t *testing.T) {
	policy := &RetryPolicy{
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}

	// attempt 0: base 100ms, jitter ±25%.
	d := calculateBackoff(0, policy)
	assert.GreaterOrEqual(t, d, 75*time.Millisecond)
	assert.LessOrEqual(t, d, 125*time.Millisecond)

	// Large attempts are capped at MaxBackoff (+25% jitter).
	d = calculateBackoff(10, policy)
	assert.LessOrEqual(t, d, 1250*time.Millisecond)

	assert.Equal(t, time.Duration(0), calculateBackoff(0, nil))
}

func TestShouldRetry(t *testing.T) {
	listed := stdliberrors.New("listed")
	assert.False(t, shouldRetry(nil, &RetryPolicy{MaxRetries: 1}))
	assert.False(t, shouldRetry(stdliberrors.New("x"), nil))
	assert.True(t, shouldRetry(stdliberrors.New("x"), &RetryPolicy{MaxRetries: 1}))
	assert.True(t, shouldRetry(listed, &RetryPolicy{MaxRetries: 1, RetryableErrors: []error{listed}}))
	assert.False(t, shouldRetry(stdliberrors.New("other"), &RetryPolicy{MaxRetries: 1, RetryableErrors: []error{listed}}))
}

func TestItemStatus_String(t *testing.T) {
	assert.Equal(t, "SUCCESS", ItemStatusSuccess.String())
	assert.Equal(t, "FAILED", ItemStatusFailed.String())
	assert.Equal(t, "TIMEOUT", ItemStatusTimeout.String())
	assert.Equal(t, "CANCELLED", ItemStatusCancelled.String())
	assert.Equal(t, "UNKNOWN(99)", ItemStatus(99).String())
}
