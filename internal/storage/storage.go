package storage

// EnqueueRecord is one classified queue admission, kept locally so a user can
// audit what was submitted for a course and with which outcome.
type EnqueueRecord struct {
	CourseID  int64
	LectureID int64
	Filename  string
	Outcome   string
	CreatedAt string
}

// EnqueueHistory records admission outcomes. Writes are best-effort: callers
// log failures and move on, the queue remains the source of truth.
type EnqueueHistory interface {
	TrackEnqueue(rec EnqueueRecord) error
	GetHistory(courseID int64) ([]EnqueueRecord, error)
	CountByOutcome(courseID int64) (map[string]int, error)
}
