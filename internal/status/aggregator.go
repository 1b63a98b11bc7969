package status

import (
	"context"
	"time"

	"github.com/coursefetch/coursefetch/internal/archive"
	"github.com/coursefetch/coursefetch/internal/logctx"
	"github.com/coursefetch/coursefetch/internal/telemetry"
)

// SnapshotService fetches the current queue snapshot from the archive
// service.
type SnapshotService interface {
	Snapshot(ctx context.Context) (*archive.QueueSnapshot, error)
}

// Publisher receives the merged course views plus the global status label on
// every completed tick.
type Publisher interface {
	PublishQueueState(views []CourseView, label string)
}

// Busy reports whether a user-initiated operation is in flight; while it is,
// the aggregator publishes views but leaves the global label alone.
type Busy interface {
	Active() bool
}

// Aggregator polls the queue snapshot on a timer and merges it into
// per-course views. Visible gates the unforced ticks so polling pauses while
// nobody is watching.
type Aggregator struct {
	service   SnapshotService
	sizes     *SizeCache
	publisher Publisher
	busy      Busy
	visible   func() bool
	quality   string
	telemetry *telemetry.Telemetry
}

func NewAggregator(
	service SnapshotService,
	sizes *SizeCache,
	publisher Publisher,
	busy Busy,
	visible func() bool,
	quality string,
	tel *telemetry.Telemetry,
) *Aggregator {
	return &Aggregator{
		service:   service,
		sizes:     sizes,
		publisher: publisher,
		busy:      busy,
		visible:   visible,
		quality:   quality,
		telemetry: tel,
	}
}

// Run drives Tick on a fixed interval until the context is cancelled. An
// initial forced tick primes the view cache before the first interval
// elapses. A panicking tick is logged and the loop keeps going.
func (a *Aggregator) Run(ctx context.Context, interval time.Duration) {
	a.safeTick(ctx, true)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logctx.LoggerFromContext(ctx).Info("queue poll loop shutting down")

			return
		case <-ticker.C:
			a.safeTick(ctx, false)
		}
	}
}

func (a *Aggregator) safeTick(ctx context.Context, force bool) {
	defer func() {
		if r := recover(); r != nil {
			logctx.LoggerFromContext(ctx).Error("poll tick panicked", "panic", r)
		}
	}()

	a.Tick(ctx, force)
}

// Tick runs one poll cycle. Unforced ticks are skipped while not visible;
// forced ticks always run. Size estimates are kicked off in the background
// and decorate whichever later tick finds them cached.
func (a *Aggregator) Tick(ctx context.Context, force bool) {
	if !force && !a.visible() {
		a.telemetry.RecordPollTick("skipped", 0)

		return
	}

	started := time.Now()

	snap, err := a.service.Snapshot(ctx)
	if err != nil {
		logctx.LoggerFromContext(ctx).Warn("queue snapshot failed", "error", err)
		a.telemetry.RecordPollTick("error", time.Since(started))

		return
	}

	views := BuildViews(snap)

	for i := range views {
		id := views[i].CourseID
		if a.sizes.Has(id) {
			views[i].EstimatedBytes = a.sizes.Bytes(id)

			continue
		}

		go a.sizes.Ensure(context.WithoutCancel(ctx), id, a.quality)
	}

	label := ""
	if !a.busy.Active() {
		label = GlobalLabel(views)
	}

	a.publisher.PublishQueueState(views, label)
	a.telemetry.RecordPollTick("ok", time.Since(started))
}
