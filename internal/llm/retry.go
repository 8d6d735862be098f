package llm

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"
)

// RetryModel wraps a Model with bounded retries and exponential backoff on
// transient network errors (default: max 2 retries). Streaming calls are
// not retried once the first chunk has been sent — retrying would require
// replaying already-emitted synthesis_delta events, which would break
// streaming fidelity.
type RetryModel struct {
	Inner    Model
	MaxRetry int           // default 2
	Base     time.Duration // default 250ms
	Max      time.Duration // default 4s
}

// NewRetryModel wraps inner with the default retry policy.
func NewRetryModel(inner Model) *RetryModel {
	return &RetryModel{Inner: inner, MaxRetry: 2, Base: 250 * time.Millisecond, Max: 4 * time.Second}
}

// Generate retries transient failures up to MaxRetry times using
// base*2^attempt backoff capped at Max.
func (r *RetryModel) Generate(ctx context.Context, modelID string, messages []Message) (ChatOut, error) {
	var lastErr error
	for attempt := 0; attempt <= r.MaxRetry; attempt++ {
		out, err := r.Inner.Generate(ctx, modelID, messages)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isTransient(err) || attempt == r.MaxRetry {
			break
		}
		if sleepErr := sleepBackoff(ctx, attempt, r.Base, r.Max); sleepErr != nil {
			return ChatOut{}, sleepErr
		}
	}
	return ChatOut{}, lastErr
}

// GenerateStream retries only the initial call to open the stream; once a
// channel is returned the caller consumes it directly.
func (r *RetryModel) GenerateStream(ctx context.Context, modelID string, messages []Message) (<-chan StreamChunk, error) {
	var lastErr error
	for attempt := 0; attempt <= r.MaxRetry; attempt++ {
		ch, err := r.Inner.GenerateStream(ctx, modelID, messages)
		if err == nil {
			return ch, nil
		}
		lastErr = err
		if !isTransient(err) || attempt == r.MaxRetry {
			break
		}
		if sleepErr := sleepBackoff(ctx, attempt, r.Base, r.Max); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, lastErr
}

func sleepBackoff(ctx context.Context, attempt int, base, maxDelay time.Duration) error {
	delay := base * time.Duration(uint64(1)<<uint(attempt))
	if delay > maxDelay {
		delay = maxDelay
	}
	delay += time.Duration(rand.Int63n(int64(base) + 1)) // #nosec G404 -- jitter for retry timing, not security
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isTransient reports whether err looks like a transient network failure
// worth retrying: timeouts, connection resets, temporary net.Error.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
