package rest

import (
	"sync"
	"time"

	"github.com/coursefetch/coursefetch/internal/status"
)

// State holds the latest published queue views plus the watch window used to
// gate background polling: the poller only runs while some client has read
// the queue state recently.
type State struct {
	mu       sync.Mutex
	views    []status.CourseView
	label    string
	lastSeen time.Time
	window   time.Duration
}

func NewState(window time.Duration) *State {
	return &State{window: window}
}

// PublishQueueState replaces the current view set. An empty label keeps the
// previous one so the idle surface does not flicker while a run is busy.
func (s *State) PublishQueueState(views []status.CourseView, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.views = views
	if label != "" {
		s.label = label
	}
}

// Current returns the last published views and label, and refreshes the
// watch window.
func (s *State) Current() ([]status.CourseView, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()

	return s.views, s.label
}

// Watched reports whether a client has read the queue state within the watch
// window. It is the visibility gate handed to the poll loop.
func (s *State) Watched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.lastSeen.IsZero() && time.Since(s.lastSeen) < s.window
}
