package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coursefetch/coursefetch/internal/archive"
	"github.com/coursefetch/coursefetch/internal/course"
	"github.com/coursefetch/coursefetch/internal/enqueue"
	"github.com/coursefetch/coursefetch/internal/logctx"
	"github.com/coursefetch/coursefetch/internal/storage"
	"github.com/coursefetch/coursefetch/internal/telemetry"
)

// ArchiveService is the slice of the archive client the HTTP surface needs.
type ArchiveService interface {
	ListCourses(ctx context.Context, page, pageSize int) (*archive.CoursePage, error)
	PauseCourse(ctx context.Context, courseID int64) error
	ResumeCourse(ctx context.Context, courseID int64) error
	Session(ctx context.Context) (*archive.Session, error)
	SaveSettings(ctx context.Context, settings archive.Settings) error
}

// Enqueuer starts enqueue runs for selected courses.
type Enqueuer interface {
	EnqueueSelected(ctx context.Context, courses []course.Course, opts enqueue.Options) (enqueue.Counters, error)
}

// Ticker forces one poll cycle of the queue aggregator.
type Ticker interface {
	Tick(ctx context.Context, force bool)
}

type Handler struct {
	archive     ArchiveService
	lister      enqueue.LectureLister
	enqueuer    Enqueuer
	ticker      Ticker
	state       *State
	history     storage.EnqueueHistory
	defaultOpts enqueue.Options
	telemetry   *telemetry.Telemetry
}

// NewHandler builds the API surface. defaultOpts fills the sub-item switches
// for download requests that leave them unset.
func NewHandler(
	archiveService ArchiveService,
	lister enqueue.LectureLister,
	enqueuer Enqueuer,
	ticker Ticker,
	state *State,
	history storage.EnqueueHistory,
	defaultOpts enqueue.Options,
	tel *telemetry.Telemetry,
) *Handler {
	return &Handler{
		archive:     archiveService,
		lister:      lister,
		enqueuer:    enqueuer,
		ticker:      ticker,
		state:       state,
		history:     history,
		defaultOpts: defaultOpts,
		telemetry:   tel,
	}
}

func (h *Handler) resolveOptions(subtitles, assets *bool) enqueue.Options {
	opts := h.defaultOpts

	if subtitles != nil {
		opts.Subtitles = *subtitles
	}

	if assets != nil {
		opts.Assets = *assets
	}

	return opts
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(telemetry.RequestID)
	r.Use(telemetry.HTTPLogging)
	r.Use(telemetry.Metrics(h.telemetry))

	r.Route("/api", func(r chi.Router) {
		r.Get("/queue", h.HandleQueue)
		r.Post("/queue/pause", h.HandleCourseAction(h.archive.PauseCourse))
		r.Post("/queue/resume", h.HandleCourseAction(h.archive.ResumeCourse))
		r.Post("/download", h.HandleDownload)
		r.Get("/courses", h.HandleCourses)
		r.Post("/courses/{courseID}/download", h.HandleCourseDownload)
		r.Get("/courses/{courseID}/lectures", h.HandleLectures)
		r.Get("/courses/{courseID}/history", h.HandleHistory)
		r.Get("/session", h.HandleSession)
		r.Post("/settings", h.HandleSettings)
	})

	r.Method(http.MethodGet, "/metrics", h.telemetry.Handler())

	return r
}

// HandleQueue returns the latest merged queue state. Reading it marks the
// queue as watched, which keeps the background poll loop running. With
// refresh=1 a poll cycle runs synchronously first.
func (h *Handler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "1" {
		h.ticker.Tick(r.Context(), true)
	}

	views, label := h.state.Current()

	writeJSON(w, r, http.StatusOK, map[string]any{
		"courses": views,
		"label":   label,
	})
}

type downloadRequest struct {
	Courses   []course.Course `json:"courses"`
	Subtitles *bool           `json:"subtitles"`
	Assets    *bool           `json:"assets"`
}

// HandleDownload starts enqueue runs for the selected courses and responds
// with the merged counters once all runs finish.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if len(req.Courses) == 0 {
		http.Error(w, "no courses selected", http.StatusBadRequest)

		return
	}

	counters, err := h.enqueuer.EnqueueSelected(r.Context(), req.Courses, h.resolveOptions(req.Subtitles, req.Assets))
	if err != nil {
		logger.Error("download request failed", "err", err, "counters", counters)
		http.Error(w, "enqueue failed", http.StatusBadGateway)

		return
	}

	writeJSON(w, r, http.StatusOK, counters)
}

type courseDownloadRequest struct {
	Title     string `json:"title"`
	Subtitles *bool  `json:"subtitles"`
	Assets    *bool  `json:"assets"`
}

// HandleCourseDownload starts an enqueue run for one course in the
// background and returns 202 immediately; progress shows up on the queue
// endpoint as the run proceeds.
func (h *Handler) HandleCourseDownload(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathCourseID(r)
	if err != nil {
		http.Error(w, "invalid course id", http.StatusBadRequest)

		return
	}

	var req courseDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	ctx := context.WithoutCancel(r.Context())

	go func() {
		counters, err := h.enqueuer.EnqueueSelected(ctx,
			[]course.Course{{ID: courseID, Title: req.Title}},
			h.resolveOptions(req.Subtitles, req.Assets),
		)
		if err != nil {
			logctx.LoggerFromContext(ctx).Error("course download failed", "course_id", courseID, "err", err, "counters", counters)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

// HandleCourses proxies one page of the remote course catalog.
func (h *Handler) HandleCourses(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 12)

	out, err := h.archive.ListCourses(r.Context(), page, pageSize)
	if err != nil {
		logger.Error("failed to list courses", "err", err)
		http.Error(w, "failed to list courses", http.StatusBadGateway)

		return
	}

	writeJSON(w, r, http.StatusOK, out)
}

// HandleLectures returns the fully enumerated lecture list of one course.
func (h *Handler) HandleLectures(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())

	courseID, err := pathCourseID(r)
	if err != nil {
		http.Error(w, "invalid course id", http.StatusBadRequest)

		return
	}

	lectures, err := enqueue.EnumerateLectures(r.Context(), h.lister, courseID)
	if err != nil {
		logger.Error("failed to enumerate lectures", "course_id", courseID, "err", err)
		http.Error(w, "failed to enumerate lectures", http.StatusBadGateway)

		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"count":    len(lectures),
		"lectures": lectures,
	})
}

// HandleHistory returns the locally tracked admission history of one course.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())

	courseID, err := pathCourseID(r)
	if err != nil {
		http.Error(w, "invalid course id", http.StatusBadRequest)

		return
	}

	records, err := h.history.GetHistory(courseID)
	if err != nil {
		logger.Error("failed to load history", "course_id", courseID, "err", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)

		return
	}

	byOutcome, err := h.history.CountByOutcome(courseID)
	if err != nil {
		logger.Error("failed to count history", "course_id", courseID, "err", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)

		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"records":    records,
		"by_outcome": byOutcome,
	})
}

type courseActionRequest struct {
	CourseID int64 `json:"course_id"`
}

// HandleCourseAction submits a pause or resume request and returns 202
// without awaiting its effect; the next poll reflects the new state.
func (h *Handler) HandleCourseAction(action func(ctx context.Context, courseID int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courseActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CourseID == 0 {
			http.Error(w, "invalid request body", http.StatusBadRequest)

			return
		}

		ctx := context.WithoutCancel(r.Context())

		go func() {
			if err := action(ctx, req.CourseID); err != nil {
				logctx.LoggerFromContext(ctx).Error("course action failed", "course_id", req.CourseID, "err", err)
			}
		}()

		w.WriteHeader(http.StatusAccepted)
	}
}

// HandleSession proxies the remote auth and option state.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())

	out, err := h.archive.Session(r.Context())
	if err != nil {
		logger.Error("failed to fetch session", "err", err)
		http.Error(w, "failed to fetch session", http.StatusBadGateway)

		return
	}

	writeJSON(w, r, http.StatusOK, out)
}

// HandleSettings forwards option changes to the remote service.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())

	var settings archive.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if err := h.archive.SaveSettings(r.Context(), settings); err != nil {
		logger.Error("failed to save settings", "err", err)
		http.Error(w, "failed to save settings", http.StatusBadGateway)

		return
	}

	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func pathCourseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}

	return v
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logctx.LoggerFromContext(r.Context()).Error("failed to encode response", "err", err)
	}
}
