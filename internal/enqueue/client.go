package enqueue

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/coursefetch/coursefetch/internal/archive"
	"github.com/coursefetch/coursefetch/internal/logctx"
)

// Outcome classifies the queue's verdict on one submitted item.
type Outcome int

const (
	// Accepted means the queue admitted the item.
	Accepted Outcome = iota
	// Exists means the artifact is already on disk; nothing was queued.
	Exists
	// AlreadyQueued means an equivalent item is already pending.
	AlreadyQueued
	// SoftFailed covers transport failures and malformed or negative
	// responses. The item is reported and left behind, never retried.
	SoftFailed
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Exists:
		return "exists"
	case AlreadyQueued:
		return "already_queued"
	case SoftFailed:
		return "soft_failed"
	}

	return "unknown"
}

// Submitter pushes one work item into the remote queue.
type Submitter interface {
	EnqueueItem(ctx context.Context, item archive.WorkItem) (*archive.EnqueueResult, error)
}

// Client wraps a Submitter with rate limiting and outcome classification.
type Client struct {
	submitter Submitter
	limiter   *rate.Limiter
}

// NewClient builds a queue admission client submitting at most ratePerSec
// items per second with the given burst.
func NewClient(submitter Submitter, ratePerSec float64, burst int) *Client {
	return &Client{
		submitter: submitter,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

// Enqueue submits one item and classifies the response. Transport failures
// classify as SoftFailed rather than returning an error; the only error this
// returns is context cancellation while waiting on the rate limiter.
func (c *Client) Enqueue(ctx context.Context, item archive.WorkItem) (Outcome, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return SoftFailed, err
	}

	res, err := c.submitter.EnqueueItem(ctx, item)
	if err != nil {
		logctx.LoggerFromContext(ctx).Warn("enqueue failed",
			"filename", item.Filename,
			"error", err)

		return SoftFailed, nil
	}

	switch {
	case res.OK:
		return Accepted, nil
	case res.Skipped && res.Reason == "exists":
		return Exists, nil
	case res.Skipped && res.Reason == "queued":
		return AlreadyQueued, nil
	}

	return SoftFailed, nil
}

// SubItemKind names the best-effort item classes submitted alongside a
// lecture's video.
type SubItemKind string

const (
	KindCaption    SubItemKind = "caption"
	KindSupplement SubItemKind = "supplement"
)

// SubItemResult records one best-effort submission. A non-nil Err or a
// SoftFailed outcome never aborts the surrounding run; it is surfaced here
// so callers and tests can see what was swallowed.
type SubItemResult struct {
	Kind     SubItemKind
	Filename string
	Outcome  Outcome
	Err      error
}
