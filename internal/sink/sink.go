// Package sink implements Supertag's write-sink boundary: the core
// builds payloads (internal/schema.Payload) and hands them to an
// opaque external collaborator through a single rate-limited
// operation. The core never reads back from the sink, so Sink's only
// method returns an error and nothing else. Retry for transient
// failures is modeled on codenerd/steveyegge-beads' withRetry pattern
// over github.com/cenkalti/backoff.
package sink

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
	"github.com/nbbaier/supertag/internal/schema"
)

const (
	// MaxNodes is the maximum number of nodes a single post may carry.
	MaxNodes = 100
	// MaxChars is the maximum serialized character length of a single
	// payload's textual content.
	MaxChars = 5000
	// minInterval enforces the <=1 call/second rate limit.
	minInterval = time.Second
)

// Target names where a payload is posted (e.g. a workspace's configured
// write endpoint). Its meaning is owned entirely by the Sink
// implementation.
type Target string

// Sink is the opaque external collaborator the core posts payloads to.
// Implementations (HTTP webhook client, RPC client, test doubles) decide
// how target and payload are interpreted; the core has no visibility
// into delivery.
type Sink interface {
	Post(ctx context.Context, target Target, payload *schema.Payload) error
}

// RateLimited wraps an inner Sink, enforcing at most one Post call per
// second and rejecting payloads that exceed MaxNodes or MaxChars before
// they ever reach the inner sink.
type RateLimited struct {
	inner    Sink
	lastPost time.Time
	minGap   time.Duration
	sleep    func(time.Duration)
}

// NewRateLimited wraps inner with the standard rate limit.
func NewRateLimited(inner Sink) *RateLimited {
	return &RateLimited{inner: inner, minGap: minInterval, sleep: time.Sleep}
}

// Post enforces size limits, waits out the rate limit if necessary, and
// forwards to the inner sink with retry for retryable error kinds.
func (r *RateLimited) Post(ctx context.Context, target Target, payload *schema.Payload) error {
	if err := validateSize(payload); err != nil {
		return err
	}

	wait := r.minGap - time.Since(r.lastPost)
	if wait > 0 {
		select {
		case <-ctx.Done():
			return superr.Wrap(superr.Timeout, ctx.Err(), "sink post cancelled while rate-limited")
		default:
			r.sleep(wait)
		}
	}
	r.lastPost = time.Now()

	return postWithRetry(ctx, r.inner, target, payload)
}

func validateSize(payload *schema.Payload) error {
	if payload == nil {
		return superr.New(superr.MissingRequired, "sink post requires a payload")
	}
	nodeCount := 1 + len(payload.Children)
	if nodeCount > MaxNodes {
		return superr.Newf(superr.ValidationErrors, "payload has %d nodes, exceeds sink limit of %d", nodeCount, MaxNodes)
	}
	if n := payloadCharCount(payload); n > MaxChars {
		return superr.Newf(superr.ValidationErrors, "payload has %d characters, exceeds sink limit of %d", n, MaxChars)
	}
	return nil
}

func payloadCharCount(payload *schema.Payload) int {
	total := len(payload.Name)
	var walk func(children []schema.PayloadChild)
	walk = func(children []schema.PayloadChild) {
		for _, c := range children {
			total += len(c.Name)
			walk(c.Children)
		}
	}
	walk(payload.Children)
	return total
}

// postWithRetry retries transient failures (the retryable error kinds
// from internal/errors) with exponential backoff, stopping immediately
// on any non-retryable error.
func postWithRetry(ctx context.Context, inner Sink, target Target, payload *schema.Payload) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := inner.Post(ctx, target, payload)
		if err == nil {
			return nil
		}
		if superr.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))

	if attempts > 1 {
		logging.Get(logging.CategorySink).Info("sink post to %s finished after %d attempts (err=%v)", target, attempts, err)
	}
	return err
}
