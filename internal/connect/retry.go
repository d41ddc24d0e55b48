// Package connect waits for a backend to answer pings, retrying with
// exponential backoff until a total deadline is reached.
package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/routine/internal/logger"
)

// Options defines connection retry behavior.
type Options struct {
	ConnectTimeout time.Duration // total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // initial wait between retries (ex: 2s, grows exponentially)
	MaxWait        time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	WarnThreshold  int           // warn after this many attempts
}

// PingFunc checks a backend once.
type PingFunc func(ctx context.Context) error

// Validate ensures all retry settings are usable.
func (o Options) Validate() error {
	if o.ConnectTimeout <= 0 {
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout)
	}
	if o.RetryInterval <= 0 {
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	}
	if o.MaxWait <= 0 {
		return fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait)
	}
	if o.PingTimeout <= 0 {
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	}
	if o.WarnThreshold < 0 {
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

// attemptLogger handles all connection logging for one backend.
type attemptLogger struct {
	logger  logger.Logger
	backend string
	target  string
}

func (al *attemptLogger) logStart(timeout time.Duration) {
	al.logger.Info("connecting to "+al.backend,
		logger.String("target", al.target),
		logger.Duration("timeout", timeout))
}

func (al *attemptLogger) logSuccess(attempts int, elapsed time.Duration) {
	if attempts > 1 {
		al.logger.Warn("connected to "+al.backend+" after retry",
			logger.String("target", al.target),
			logger.Int("attempts", attempts),
			logger.Duration("elapsed", elapsed))
		return
	}
	al.logger.Info("connected to "+al.backend,
		logger.String("target", al.target))
}

func (al *attemptLogger) logTimeout(attempts int, timeout time.Duration, err error) {
	al.logger.Error(al.backend+" unavailable - failed to connect after timeout",
		logger.String("target", al.target),
		logger.Int("attempts", attempts),
		logger.Duration("timeout", timeout),
		logger.Error(err))
}

func (al *attemptLogger) logRetry(attempt int, remaining, nextRetry time.Duration, warnThreshold int, err error) {
	switch {
	case remaining < 10*time.Second:
		al.logger.Error(al.backend+" still down - retrying but timeout approaching",
			logger.String("target", al.target),
			logger.Int("attempt", attempt),
			logger.Duration("remaining", remaining),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	case attempt <= warnThreshold:
		al.logger.Warn(al.backend+" connection failed, retrying",
			logger.String("target", al.target),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	default:
		al.logger.Error(al.backend+" still unavailable - connection attempts failing",
			logger.String("target", al.target),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	}
}

// WithRetry pings until success or until opts.ConnectTimeout elapses.
// backend and target only feed the logs (ex: "redis", "localhost:6379").
func WithRetry(ctx context.Context, backend, target string, ping PingFunc, opts Options, log logger.Logger) error {
	if err := opts.Validate(); err != nil {
		log.Error("invalid connect options",
			logger.String("backend", backend),
			logger.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	al := &attemptLogger{logger: log, backend: backend, target: target}
	al.logStart(opts.ConnectTimeout)

	attempt := 0
	wait := opts.RetryInterval

	for {
		attempt++

		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			al.logSuccess(attempt, opts.ConnectTimeout-timeLeft(ctx))
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			al.logTimeout(attempt, opts.ConnectTimeout, err)
			return fmt.Errorf("%s unavailable at %s after %d attempts (timeout: %v): %w",
				backend, target, attempt, opts.ConnectTimeout, err)

		case <-timer.C:
			al.logRetry(attempt, timeLeft(ctx), wait, opts.WarnThreshold, err)
			// Exponential backoff with cap
			wait *= 2
			if wait > opts.MaxWait {
				wait = opts.MaxWait
			}
		}
	}
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
