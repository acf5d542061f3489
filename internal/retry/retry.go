package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how a flaky external call is retried: a bounded number of
// attempts with exponential backoff between them (BaseDelay, 2x, 4x, ...).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Default is the planner-wide policy for APIs fetched "with retry logic":
// three attempts backing off 1s, 2s, 4s.
var Default = Policy{MaxAttempts: 3, BaseDelay: time.Second}

// Do runs fn up to MaxAttempts times, sleeping between failures. It returns
// nil on the first success, the last error once attempts are exhausted, or
// the context error if the context is cancelled while waiting.
func (p Policy) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%s: all %d attempts failed: %w", name, p.MaxAttempts, lastErr)
}
