package download

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsar-engine/installer/internal/errdefs"
)

func TestWithRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), 5*time.Second, func() error {
		attempts++
		if attempts < 3 {
			return &errdefs.DownloadError{URL: "http://x", Err: errors.New("flaky")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryNeverRetriesChecksumMismatch(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), 5*time.Second, func() error {
		attempts++
		return &errdefs.ChecksumMismatch{File: "f", Expected: "aa", Actual: "bb"}
	})

	var mismatch *errdefs.ChecksumMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ChecksumMismatch, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (integrity failures are not retried)", attempts)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := WithRetry(ctx, time.Minute, func() error {
		attempts++
		return errors.New("always failing")
	})
	if err == nil {
		t.Fatal("expected error with cancelled context")
	}
	if attempts > 1 {
		t.Errorf("attempts = %d, want at most 1 after cancellation", attempts)
	}
}
