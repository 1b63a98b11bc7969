package enqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coursefetch/coursefetch/internal/archive"
	"github.com/coursefetch/coursefetch/internal/busy"
	"github.com/coursefetch/coursefetch/internal/course"
	"github.com/coursefetch/coursefetch/internal/logctx"
	"github.com/coursefetch/coursefetch/internal/notifier"
	"github.com/coursefetch/coursefetch/internal/status"
	"github.com/coursefetch/coursefetch/internal/storage"
	"github.com/coursefetch/coursefetch/internal/telemetry"
)

// Counters aggregates one course enqueue run. Seen counts every enumerated
// lecture; Added the items the queue admitted; Exists the on-disk
// duplicates; Skipped everything else, including lectures without a usable
// video, soft failures and already-queued duplicates.
type Counters struct {
	Added   int `json:"added"`
	Seen    int `json:"seen"`
	Skipped int `json:"skipped"`
	Exists  int `json:"exists"`
}

// Options are the per-run user switches for best-effort sub-items.
type Options struct {
	Subtitles bool `json:"subtitles"`
	Assets    bool `json:"assets"`
}

// Orchestrator drives one course's enqueue run: enumerate lectures page by
// page, resolve each video source, submit work items, and report aggregate
// counters. Concurrent runs for the same course are rejected; runs for
// different courses may overlap.
type Orchestrator struct {
	lister    LectureLister
	client    *Client
	sizes     *status.SizeCache
	busy      *busy.Counter
	notifier  notifier.Notifier
	history   storage.EnqueueHistory
	telemetry *telemetry.Telemetry
	quality   string
	progress  func()

	mu       sync.Mutex
	inflight map[int64]bool
}

// progressInterval is how many enumerated lectures pass between mid-run
// progress hook invocations.
const progressInterval = 8

func NewOrchestrator(
	lister LectureLister,
	client *Client,
	sizes *status.SizeCache,
	busyCounter *busy.Counter,
	n notifier.Notifier,
	history storage.EnqueueHistory,
	tel *telemetry.Telemetry,
	quality string,
) *Orchestrator {
	return &Orchestrator{
		lister:    lister,
		client:    client,
		sizes:     sizes,
		busy:      busyCounter,
		notifier:  n,
		history:   history,
		telemetry: tel,
		quality:   quality,
		inflight:  make(map[int64]bool),
	}
}

// ErrRunInFlight is returned when a course already has an enqueue run going.
var ErrRunInFlight = fmt.Errorf("enqueue run already in flight for this course")

// SetProgressFunc installs a hook invoked every few processed lectures so
// the queue view can refresh while a long run is still going.
func (o *Orchestrator) SetProgressFunc(fn func()) {
	o.progress = fn
}

// EnqueueCourse runs the full admission pass for one course. Lecture pages
// are processed as they arrive, so admission starts before enumeration
// finishes. The run always ends with a summary notice: individual items
// soft-fail in place and a mid-listing fetch failure just ends enumeration
// early. Only cancellation aborts the run.
func (o *Orchestrator) EnqueueCourse(ctx context.Context, c course.Course, opts Options) (Counters, error) {
	o.mu.Lock()
	if o.inflight[c.ID] {
		o.mu.Unlock()

		return Counters{}, ErrRunInFlight
	}

	o.inflight[c.ID] = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.inflight, c.ID)
		o.mu.Unlock()
	}()

	o.busy.Increment()
	defer o.busy.Decrement()

	o.telemetry.IncrementActiveRuns()
	defer o.telemetry.DecrementActiveRuns()

	logger := logctx.LoggerFromContext(ctx).With("course_id", c.ID, "course_title", c.Title)
	ctx = logctx.WithLogger(ctx, logger)

	o.notify(ctx, fmt.Sprintf("Queueing %q…", c.Title))

	var counters Counters

	err := StreamPages(ctx, o.lister, c.ID, func(chunk []course.Lecture) error {
		for i := range chunk {
			if err := ctx.Err(); err != nil {
				return err
			}

			counters.Seen++
			o.processLecture(ctx, c, &chunk[i], counters.Seen, opts, &counters)

			if o.progress != nil && counters.Seen%progressInterval == 0 {
				o.progress()
			}
		}

		return nil
	})
	if err != nil {
		logger.Error("course enqueue aborted", "error", err, "counters", counters)

		return counters, fmt.Errorf("course enqueue aborted: %w", err)
	}

	// refresh the size estimate once the full listing is known
	go o.sizes.Ensure(context.WithoutCancel(ctx), c.ID, o.quality)

	if counters.Added == 0 && counters.Exists > 0 && counters.Skipped == 0 {
		o.notify(ctx, fmt.Sprintf("%q is already fully archived", c.Title))
	} else {
		o.notify(ctx, fmt.Sprintf("%q: %d added, %d already done, %d skipped (%d lectures)",
			c.Title, counters.Added, counters.Exists, counters.Skipped, counters.Seen))
	}

	logger.Info("course enqueue finished",
		"added", counters.Added,
		"seen", counters.Seen,
		"skipped", counters.Skipped,
		"exists", counters.Exists)

	return counters, nil
}

// processLecture submits the lecture's video and, per options, its captions
// and supplementary assets. Sub-item failures never affect the counters.
func (o *Orchestrator) processLecture(ctx context.Context, c course.Course, lec *course.Lecture, index int, opts Options, counters *Counters) {
	logger := logctx.LoggerFromContext(ctx)

	if !lec.HasVideo() {
		counters.Skipped++

		logger.Debug("lecture has no video asset", "lecture_id", lec.ID, "lecture_title", lec.Title)

		return
	}

	src := course.SelectSource(lec.Asset, o.quality)
	if src == nil {
		counters.Skipped++

		logger.Debug("no usable source", "lecture_id", lec.ID, "lecture_title", lec.Title)

		return
	}

	item := archive.WorkItem{
		CourseID:     c.ID,
		CourseTitle:  c.Title,
		SectionIndex: lec.SectionIndex,
		SectionTitle: lec.SectionTitle,
		LectureIndex: index,
		LectureTitle: lec.Title,
		LectureID:    lec.ID,
		URL:          src.URL,
		Filename:     course.VideoFilename(index, lec.Title, src.Label),
	}

	outcome, err := o.client.Enqueue(ctx, item)
	if err != nil {
		counters.Skipped++

		return
	}

	o.telemetry.RecordEnqueueOutcome(outcome.String())
	o.track(ctx, item, outcome)

	switch outcome {
	case Accepted:
		counters.Added++
	case Exists:
		counters.Exists++
	case AlreadyQueued:
		counters.Skipped++

		o.notify(ctx, fmt.Sprintf("%q is already queued", lec.Title))
	case SoftFailed:
		counters.Skipped++
	}

	if opts.Subtitles {
		o.reportSubItems(ctx, o.enqueueCaptions(ctx, c, lec, index))
	}

	if opts.Assets {
		o.reportSubItems(ctx, o.enqueueSupplements(ctx, c, lec, index))
	}
}

// enqueueCaptions submits every caption of the lecture, best-effort.
func (o *Orchestrator) enqueueCaptions(ctx context.Context, c course.Course, lec *course.Lecture, index int) []SubItemResult {
	results := make([]SubItemResult, 0, len(lec.Asset.Captions))

	for _, cap := range lec.Asset.Captions {
		url := cap.SourceURL()
		if url == "" {
			continue
		}

		item := archive.WorkItem{
			CourseID:     c.ID,
			CourseTitle:  c.Title,
			SectionIndex: lec.SectionIndex,
			SectionTitle: lec.SectionTitle,
			LectureIndex: index,
			LectureTitle: lec.Title,
			LectureID:    lec.ID,
			URL:          url,
			Filename:     course.CaptionFilename(index, lec.Title, cap),
		}

		outcome, err := o.client.Enqueue(ctx, item)
		if err == nil {
			o.telemetry.RecordEnqueueOutcome(outcome.String())
		}

		results = append(results, SubItemResult{
			Kind:     KindCaption,
			Filename: item.Filename,
			Outcome:  outcome,
			Err:      err,
		})
	}

	return results
}

// enqueueSupplements submits the lecture's supplementary assets, best-effort.
func (o *Orchestrator) enqueueSupplements(ctx context.Context, c course.Course, lec *course.Lecture, index int) []SubItemResult {
	results := make([]SubItemResult, 0, len(lec.SupplementaryAssets))

	for _, sup := range lec.SupplementaryAssets {
		url := sup.FirstURL()
		if url == "" {
			continue
		}

		item := archive.WorkItem{
			CourseID:     c.ID,
			CourseTitle:  c.Title,
			SectionIndex: lec.SectionIndex,
			SectionTitle: lec.SectionTitle,
			LectureIndex: index,
			LectureTitle: lec.Title,
			LectureID:    lec.ID,
			URL:          url,
			Filename:     course.SupplementFilename(index, lec.Title, sup.Name()),
			AssetID:      sup.ID,
		}

		outcome, err := o.client.Enqueue(ctx, item)
		if err == nil {
			o.telemetry.RecordEnqueueOutcome(outcome.String())
		}

		results = append(results, SubItemResult{
			Kind:     KindSupplement,
			Filename: item.Filename,
			Outcome:  outcome,
			Err:      err,
		})
	}

	return results
}

func (o *Orchestrator) reportSubItems(ctx context.Context, results []SubItemResult) {
	logger := logctx.LoggerFromContext(ctx)

	for _, r := range results {
		if r.Err != nil || r.Outcome == SoftFailed {
			logger.Debug("best-effort item not admitted",
				"kind", string(r.Kind),
				"filename", r.Filename,
				"outcome", r.Outcome.String(),
				"error", r.Err)
		}
	}
}

// EnqueueSelected runs EnqueueCourse for every distinct course in the
// selection in parallel and merges the counters. Duplicate ids collapse to
// one run. A failed course does not cancel the others; the first error is
// returned alongside the merged counters.
func (o *Orchestrator) EnqueueSelected(ctx context.Context, courses []course.Course, opts Options) (Counters, error) {
	seen := make(map[int64]bool, len(courses))
	distinct := make([]course.Course, 0, len(courses))

	for _, c := range courses {
		if seen[c.ID] {
			continue
		}

		seen[c.ID] = true
		distinct = append(distinct, c)
	}

	var (
		mu    sync.Mutex
		total Counters
	)

	var g errgroup.Group

	for _, c := range distinct {
		g.Go(func() error {
			counters, err := o.EnqueueCourse(ctx, c, opts)

			mu.Lock()
			total.Added += counters.Added
			total.Seen += counters.Seen
			total.Skipped += counters.Skipped
			total.Exists += counters.Exists
			mu.Unlock()

			return err
		})
	}

	err := g.Wait()

	return total, err
}

func (o *Orchestrator) notify(ctx context.Context, msg string) {
	if o.notifier == nil {
		return
	}

	if err := o.notifier.Notify(msg); err != nil {
		logctx.LoggerFromContext(ctx).Debug("notice delivery failed", "error", err)
	}
}

// track records the admission verdict in local history, best-effort.
func (o *Orchestrator) track(ctx context.Context, item archive.WorkItem, outcome Outcome) {
	if o.history == nil {
		return
	}

	rec := storage.EnqueueRecord{
		CourseID:  item.CourseID,
		LectureID: item.LectureID,
		Filename:  item.Filename,
		Outcome:   outcome.String(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := o.history.TrackEnqueue(rec); err != nil {
		logctx.LoggerFromContext(ctx).Debug("failed to track enqueue", "filename", item.Filename, "error", err)
	}
}
