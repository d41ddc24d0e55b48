package connect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/routine/internal/logger"
)

func fastOptions() Options {
	return Options{
		ConnectTimeout: 500 * time.Millisecond,
		RetryInterval:  5 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	log := logger.New("error", false)
	calls := 0
	ping := func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := WithRetry(context.Background(), "test", "localhost", ping, fastOptions(), log); err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("ping called %d times, want 3", calls)
	}
}

func TestWithRetryTimesOut(t *testing.T) {
	log := logger.New("error", false)
	opts := fastOptions()
	opts.ConnectTimeout = 60 * time.Millisecond

	errDown := errors.New("down")
	err := WithRetry(context.Background(), "test", "localhost", func(context.Context) error { return errDown }, opts, log)
	if err == nil {
		t.Fatal("WithRetry() should fail when the backend never answers")
	}
	if !errors.Is(err, errDown) {
		t.Errorf("WithRetry() error should wrap the last ping error, got %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero connect timeout", func(o *Options) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *Options) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *Options) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *Options) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *Options) { o.WarnThreshold = -1 }},
	}

	if err := fastOptions().Validate(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := fastOptions()
			tt.mutate(&opts)
			if err := opts.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
