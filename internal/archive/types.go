package archive

import (
	"encoding/json"

	"github.com/coursefetch/coursefetch/internal/course"
)

// WorkItem is one unit of download work submitted to the remote queue.
// LectureIndex is the 1-based ordinal assigned by the orchestrator during a
// single enumeration pass; it is not the lecture's server id.
type WorkItem struct {
	CourseID     int64  `json:"course_id"`
	CourseTitle  string `json:"course_title"`
	SectionIndex int    `json:"section_index"`
	SectionTitle string `json:"section_title"`
	LectureIndex int    `json:"lecture_index"`
	LectureTitle string `json:"lecture_title"`
	LectureID    int64  `json:"lecture_id"`
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	AssetID      int64  `json:"asset_id,omitempty"`
}

// EnqueueResult is the queue's admission verdict. Reason is set when the item
// was deduplicated: "exists" (artifact already on disk) or "queued" (an
// equivalent item is already pending).
type EnqueueResult struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// LecturePage is one page of the paged lecture listing. Next carries the
// raw next-page pointer; empty means this is the terminal page.
type LecturePage struct {
	Results []course.Lecture `json:"results"`
	Next    string           `json:"next"`
	Count   int              `json:"count"`
}

// CoursePage is one page of the course catalog.
type CoursePage struct {
	Total   int             `json:"total"`
	Auth    bool            `json:"auth"`
	Courses []course.Course `json:"courses"`
}

// QueueSnapshot is the flat queue state: aggregate per-course counters
// (authoritative for progress) plus per-item instantaneous states (used only
// to derive a course-level status label).
type QueueSnapshot struct {
	Courses []QueueCourse `json:"courses"`
	Items   []QueueItem   `json:"items"`
}

type QueueCourse struct {
	CourseID int64  `json:"course_id"`
	Title    string `json:"title"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
}

// QueueItem carries one item's state. SpeedBps is reported by the queue
// service in KiB/s despite the name.
type QueueItem struct {
	CourseID int64   `json:"course_id"`
	State    string  `json:"state"`
	SpeedBps float64 `json:"speed_bps,omitempty"`
}

// Session is the auth and saved-option state of the remote service.
type Session struct {
	Auth bool            `json:"auth"`
	User json.RawMessage `json:"user,omitempty"`
	Opts SessionOpts     `json:"opts"`
}

type SessionOpts struct {
	Subs   bool `json:"subs"`
	Assets bool `json:"assets"`
}

// Settings is the options/token payload persisted by the remote service.
type Settings struct {
	DownloadSubtitles *bool   `json:"download_subtitles,omitempty"`
	DownloadAssets    *bool   `json:"download_assets,omitempty"`
	Quality           string  `json:"quality,omitempty"`
	AccessToken       *string `json:"access_token,omitempty"`
}
