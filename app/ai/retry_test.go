package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noBackoff(int) time.Duration { return 0 }

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), 3, noBackoff, func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result != 42 {
		t.Errorf("Expected 42, got: %d", result)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got: %d", calls)
	}
}

func TestWithRetryRecovers(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), 3, noBackoff, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("Expected success on third attempt, got: %v", err)
	}
	if result != "done" {
		t.Errorf("Unexpected result: %q", result)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got: %d", calls)
	}
}

func TestWithRetryReturnsLastError(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), 3, noBackoff, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("attempt failed")
	})
	if err == nil || err.Error() != "attempt failed" {
		t.Fatalf("Expected last error, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 calls, got: %d", calls)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := WithRetry(ctx, 5, func(int) time.Duration { return time.Hour }, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("failing")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no retry after cancel, got %d calls", calls)
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(time.Second)

	expected := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, want := range expected {
		if got := backoff(i + 1); got != want {
			t.Errorf("Attempt %d: expected %v, got %v", i+1, want, got)
		}
	}
}
