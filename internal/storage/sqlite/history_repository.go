package sqlite

import (
	"database/sql"

	"github.com/coursefetch/coursefetch/internal/storage"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(dbConn *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: dbConn}
}

// TrackEnqueue upserts the outcome for a (course, filename) pair. Resubmitting
// the same filename overwrites the previous outcome rather than duplicating.
func (r *HistoryRepository) TrackEnqueue(rec storage.EnqueueRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO enqueues (course_id, lecture_id, filename, outcome, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(course_id, filename) DO UPDATE SET
			outcome = excluded.outcome,
			created_at = excluded.created_at
	`, rec.CourseID, rec.LectureID, rec.Filename, rec.Outcome, rec.CreatedAt)

	return err
}

func (r *HistoryRepository) GetHistory(courseID int64) ([]storage.EnqueueRecord, error) {
	rows, err := r.db.Query(
		`SELECT course_id, lecture_id, filename, outcome, created_at FROM enqueues WHERE course_id = ? ORDER BY id`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []storage.EnqueueRecord

	for rows.Next() {
		var rec storage.EnqueueRecord
		if err := rows.Scan(&rec.CourseID, &rec.LectureID, &rec.Filename, &rec.Outcome, &rec.CreatedAt); err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountByOutcome summarizes a course's recorded admissions per outcome.
func (r *HistoryRepository) CountByOutcome(courseID int64) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT outcome, COUNT(*) FROM enqueues WHERE course_id = ? GROUP BY outcome`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var outcome string

		var n int

		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}

		counts[outcome] = n
	}

	return counts, rows.Err()
}
