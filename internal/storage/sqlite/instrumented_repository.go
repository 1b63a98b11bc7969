package sqlite

import (
	"context"
	"database/sql"

	"github.com/coursefetch/coursefetch/internal/storage"
	"github.com/coursefetch/coursefetch/internal/telemetry"
)

// InstrumentedHistoryRepository wraps HistoryRepository with telemetry.
type InstrumentedHistoryRepository struct {
	repo      *HistoryRepository
	telemetry *telemetry.Telemetry
}

// NewInstrumentedHistoryRepository creates a new instrumented history repository.
func NewInstrumentedHistoryRepository(dbConn *sql.DB, tel *telemetry.Telemetry) *InstrumentedHistoryRepository {
	return &InstrumentedHistoryRepository{
		repo:      NewHistoryRepository(dbConn),
		telemetry: tel,
	}
}

func (r *InstrumentedHistoryRepository) TrackEnqueue(rec storage.EnqueueRecord) error {
	return r.telemetry.InstrumentDBOperation(context.Background(), "track_enqueue", func(ctx context.Context) error {
		return r.repo.TrackEnqueue(rec)
	})
}

func (r *InstrumentedHistoryRepository) GetHistory(courseID int64) ([]storage.EnqueueRecord, error) {
	var result []storage.EnqueueRecord

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), "get_history", func(ctx context.Context) error {
		result, err = r.repo.GetHistory(courseID)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

func (r *InstrumentedHistoryRepository) CountByOutcome(courseID int64) (map[string]int, error) {
	var result map[string]int

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(context.Background(), "count_by_outcome", func(ctx context.Context) error {
		result, err = r.repo.CountByOutcome(courseID)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}
