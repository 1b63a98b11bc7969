package status

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/coursefetch/coursefetch/internal/archive"
)

// Course states, ordered by display dominance. When a course has items in
// several states the most dominant one wins.
const (
	StateDone        = "done"
	StateQueued      = "queued"
	StatePaused      = "paused"
	StateFailed      = "failed"
	StateDownloading = "downloading"
)

// CourseView is the per-course row rendered by the queue endpoint.
type CourseView struct {
	CourseID       int64   `json:"course_id"`
	Title          string  `json:"title"`
	State          string  `json:"state"`
	Done           int     `json:"done"`
	Total          int     `json:"total"`
	Percent        int     `json:"percent"`
	SpeedBps       float64 `json:"speed_bps"`
	EstimatedBytes int64   `json:"estimated_bytes,omitempty"`
}

func rankOf(state string) int {
	switch state {
	case StateDownloading:
		return 4
	case StateFailed:
		return 3
	case StatePaused:
		return 2
	case StateQueued:
		return 1
	case StateDone:
		return 0
	}

	return 0
}

// BuildViews folds a queue snapshot into one row per course. The course list
// gives counts and titles, the item list refines state and speed. Courses
// start below every rank so a single item, even a finished one, decides the
// state; a course with no items at all falls back to done or queued from its
// counters. Item states are lowercased and an item without a state counts as
// queued, so State always stays within the known set.
func BuildViews(snap *archive.QueueSnapshot) []CourseView {
	views := make([]CourseView, 0, len(snap.Courses))
	index := make(map[int64]int, len(snap.Courses))
	ranks := make(map[int64]int, len(snap.Courses))

	for _, c := range snap.Courses {
		state := StateQueued
		if c.Total > 0 && c.Done >= c.Total {
			state = StateDone
		}

		pct := 0
		if c.Total > 0 {
			pct = int(math.Round(float64(c.Done) * 100 / float64(c.Total)))
		}

		index[c.CourseID] = len(views)
		ranks[c.CourseID] = -1
		views = append(views, CourseView{
			CourseID: c.CourseID,
			Title:    c.Title,
			State:    state,
			Done:     c.Done,
			Total:    c.Total,
			Percent:  pct,
		})
	}

	for _, it := range snap.Items {
		i, ok := index[it.CourseID]
		if !ok {
			continue
		}

		st := strings.ToLower(it.State)
		if st == "" {
			st = StateQueued
		}

		if r := rankOf(st); r > ranks[it.CourseID] {
			ranks[it.CourseID] = r
			views[i].State = st
		}

		if st == StateDownloading {
			views[i].SpeedBps += it.SpeedBps * 1024
		}
	}

	return views
}

// GlobalLabel summarizes all course rows into one line for the status
// surface, e.g. "2 downloading at 1.2 MB/s". States are scanned in a fixed
// preference order: downloading beats failed beats paused.
func GlobalLabel(views []CourseView) string {
	var downloading, failed, paused int

	var speed float64

	for _, v := range views {
		switch v.State {
		case StateDownloading:
			downloading++
			speed += v.SpeedBps
		case StateFailed:
			failed++
		case StatePaused:
			paused++
		}
	}

	switch {
	case downloading > 0 && speed > 0:
		return fmt.Sprintf("%d downloading at %s/s", downloading, humanize.Bytes(uint64(speed)))
	case downloading > 0:
		return fmt.Sprintf("%d downloading", downloading)
	case failed > 0:
		return fmt.Sprintf("%d failed", failed)
	case paused > 0:
		return fmt.Sprintf("%d paused", paused)
	}

	return "idle"
}
