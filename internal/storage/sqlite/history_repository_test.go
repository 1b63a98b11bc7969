package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/coursefetch/coursefetch/internal/storage"
	"github.com/coursefetch/coursefetch/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *sqlite.HistoryRepository {
	t.Helper()

	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlite.NewHistoryRepository(db)
}

func record(courseID, lectureID int64, filename, outcome string) storage.EnqueueRecord {
	return storage.EnqueueRecord{
		CourseID:  courseID,
		LectureID: lectureID,
		Filename:  filename,
		Outcome:   outcome,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func TestTrackEnqueueAndGetHistory(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.TrackEnqueue(record(7, 1, "001 - intro-720.mp4", "accepted")))
	require.NoError(t, repo.TrackEnqueue(record(7, 2, "002 - setup-720.mp4", "exists")))
	require.NoError(t, repo.TrackEnqueue(record(8, 1, "001 - other-720.mp4", "accepted")))

	records, err := repo.GetHistory(7)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "001 - intro-720.mp4", records[0].Filename)
	assert.Equal(t, "exists", records[1].Outcome)
}

func TestTrackEnqueue_ResubmissionOverwritesOutcome(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.TrackEnqueue(record(7, 1, "001 - intro-720.mp4", "accepted")))
	require.NoError(t, repo.TrackEnqueue(record(7, 1, "001 - intro-720.mp4", "exists")))

	records, err := repo.GetHistory(7)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "exists", records[0].Outcome)
}

func TestCountByOutcome(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.TrackEnqueue(record(7, 1, "a", "accepted")))
	require.NoError(t, repo.TrackEnqueue(record(7, 2, "b", "accepted")))
	require.NoError(t, repo.TrackEnqueue(record(7, 3, "c", "soft_failed")))

	counts, err := repo.CountByOutcome(7)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"accepted": 2, "soft_failed": 1}, counts)
}

func TestGetHistory_EmptyCourse(t *testing.T) {
	repo := newTestRepo(t)

	records, err := repo.GetHistory(404)
	require.NoError(t, err)
	assert.Empty(t, records)
}
