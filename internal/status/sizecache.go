package status

import (
	"context"
	"sync"

	"github.com/coursefetch/coursefetch/internal/logctx"
)

// Estimator asks the archive service how many bytes a course would occupy
// when fetched at the given quality.
type Estimator interface {
	Estimate(ctx context.Context, courseID int64, quality string) (int64, error)
}

type sizeEntry struct {
	bytes   int64
	quality string
}

// SizeCache memoizes course size estimates. At most one estimate request is
// in flight per course; callers that arrive while one is pending get nothing
// and try again on a later tick.
type SizeCache struct {
	estimator Estimator

	mu      sync.Mutex
	entries map[int64]sizeEntry
	pending map[int64]bool
}

func NewSizeCache(estimator Estimator) *SizeCache {
	return &SizeCache{
		estimator: estimator,
		entries:   make(map[int64]sizeEntry),
		pending:   make(map[int64]bool),
	}
}

// Has reports whether an estimate for the course has completed, successfully
// or not.
func (c *SizeCache) Has(courseID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[courseID]

	return ok
}

// Bytes returns the cached estimate, or 0 when none is known yet or the
// estimate failed.
func (c *SizeCache) Bytes(courseID int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries[courseID].bytes
}

// Ensure fetches and caches the course estimate unless one is already in
// flight or a non-zero estimate is cached. A failed fetch is recorded as
// 0 bytes; a later call may retry it. A cached estimate taken at a different
// quality is served as-is.
func (c *SizeCache) Ensure(ctx context.Context, courseID int64, quality string) {
	c.mu.Lock()
	if c.pending[courseID] {
		c.mu.Unlock()

		return
	}

	if e, ok := c.entries[courseID]; ok && e.bytes > 0 {
		if e.quality != quality {
			logctx.LoggerFromContext(ctx).Debug("size estimate quality mismatch",
				"course_id", courseID,
				"cached_quality", e.quality,
				"requested_quality", quality)
		}

		c.mu.Unlock()

		return
	}

	c.pending[courseID] = true
	c.mu.Unlock()

	bytes, err := c.estimator.Estimate(ctx, courseID, quality)
	if err != nil {
		logctx.LoggerFromContext(ctx).Debug("size estimate failed",
			"course_id", courseID,
			"error", err)

		bytes = 0
	}

	c.mu.Lock()
	delete(c.pending, courseID)
	c.entries[courseID] = sizeEntry{bytes: bytes, quality: quality}
	c.mu.Unlock()
}
