package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestExecuteAppliesAttemptTimeout(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     1 * time.Millisecond,
		RetryMultiplier:     2,
		AttemptTimeout:      5 * time.Millisecond,
		BreakerEnabled:      false,
	})

	attempts := 0
	err := exec.Execute(context.Background(), "slow", func(ctx context.Context) error {
		attempts++
		<-ctx.Done()
		return ctx.Err()
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, context.DeadlineExceeded), RecordFailure: true}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestDoReturnsValueAfterRetry(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     1 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	calls := 0
	errTemp := errors.New("temporary")
	got, err := Do(context.Background(), exec, "embed", func(context.Context) ([]int, error) {
		calls++
		if calls == 1 {
			return nil, errTemp
		}
		return []int{1, 2}, nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errTemp), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(got) != 2 || calls != 2 {
		t.Fatalf("unexpected result %v after %d calls", got, calls)
	}
}

func TestDoWithNilExecutorCallsOnce(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), nil, "op", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	}, nil)
	if err != nil || got != "ok" || calls != 1 {
		t.Fatalf("Do(nil) = %q, %v after %d calls", got, err, calls)
	}
}

type observerFake struct {
	retries map[string]int
	states  []string
}

func (o *observerFake) ObserveRetry(operation string) {
	if o.retries == nil {
		o.retries = map[string]int{}
	}
	o.retries[operation]++
}

func (o *observerFake) ObserveBreakerState(operation, state string) {
	o.states = append(o.states, operation+":"+state)
}

func TestExecuteReportsRetriesAndBreakerState(t *testing.T) {
	obs := &observerFake{}
	exec := NewExecutor(Config{
		RetryMaxAttempts:        2,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		BreakerEnabled:          true,
		BreakerMinRequests:      1,
		BreakerFailureRatio:     1,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
		Observer:                obs,
	})

	errTemp := errors.New("temporary")
	_ = exec.Execute(context.Background(), "qdrant.search", func(context.Context) error {
		return errTemp
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})

	if obs.retries["qdrant.search"] != 1 {
		t.Fatalf("expected one retry, got %v", obs.retries)
	}
	if len(obs.states) != 1 || obs.states[0] != "qdrant.search:open" {
		t.Fatalf("expected breaker to open, got %v", obs.states)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     350 * time.Millisecond,
		RetryMultiplier:     2,
	}.normalize()

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond, 350 * time.Millisecond}
	for i, w := range want {
		if got := cfg.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffJitterStaysInRange(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     100 * time.Millisecond,
		RetryJitter:         0.5,
	}.normalize()

	for i := 0; i < 50; i++ {
		got := cfg.backoff(1)
		if got < 50*time.Millisecond || got > 100*time.Millisecond {
			t.Fatalf("jittered backoff %v outside [50ms, 100ms]", got)
		}
	}
}
