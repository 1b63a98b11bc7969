package enqueue_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/coursefetch/coursefetch/internal/archive"
	"github.com/coursefetch/coursefetch/internal/enqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	results map[string]*archive.EnqueueResult
	err     error
	items   []archive.WorkItem
}

func (f *fakeSubmitter) EnqueueItem(_ context.Context, item archive.WorkItem) (*archive.EnqueueResult, error) {
	f.items = append(f.items, item)

	if f.err != nil {
		return nil, f.err
	}

	if res, ok := f.results[item.Filename]; ok {
		return res, nil
	}

	return &archive.EnqueueResult{OK: true}, nil
}

func TestEnqueue_Classification(t *testing.T) {
	tests := []struct {
		name   string
		result *archive.EnqueueResult
		expect enqueue.Outcome
	}{
		{"admitted", &archive.EnqueueResult{OK: true}, enqueue.Accepted},
		{"on disk duplicate", &archive.EnqueueResult{Skipped: true, Reason: "exists"}, enqueue.Exists},
		{"pending duplicate", &archive.EnqueueResult{Skipped: true, Reason: "queued"}, enqueue.AlreadyQueued},
		{"malformed shape", &archive.EnqueueResult{}, enqueue.SoftFailed},
		{"skipped without reason", &archive.EnqueueResult{Skipped: true}, enqueue.SoftFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := &fakeSubmitter{results: map[string]*archive.EnqueueResult{"f": tt.result}}
			client := enqueue.NewClient(submitter, 100, 10)

			outcome, err := client.Enqueue(context.Background(), archive.WorkItem{Filename: "f"})
			require.NoError(t, err)
			assert.Equal(t, tt.expect, outcome)
		})
	}
}

func TestEnqueue_TransportFailureIsSoft(t *testing.T) {
	submitter := &fakeSubmitter{err: fmt.Errorf("connection refused")}
	client := enqueue.NewClient(submitter, 100, 10)

	outcome, err := client.Enqueue(context.Background(), archive.WorkItem{Filename: "f"})
	require.NoError(t, err)
	assert.Equal(t, enqueue.SoftFailed, outcome)
}

func TestEnqueue_CancelledWhileRateLimited(t *testing.T) {
	submitter := &fakeSubmitter{}
	// burst 1 at a very slow rate, so the second call has to wait
	client := enqueue.NewClient(submitter, 0.001, 1)

	ctx, cancel := context.WithCancel(context.Background())

	_, err := client.Enqueue(ctx, archive.WorkItem{Filename: "first"})
	require.NoError(t, err)

	cancel()

	outcome, err := client.Enqueue(ctx, archive.WorkItem{Filename: "second"})
	assert.Error(t, err)
	assert.Equal(t, enqueue.SoftFailed, outcome)
	assert.Len(t, submitter.items, 1)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "accepted", enqueue.Accepted.String())
	assert.Equal(t, "exists", enqueue.Exists.String())
	assert.Equal(t, "already_queued", enqueue.AlreadyQueued.String())
	assert.Equal(t, "soft_failed", enqueue.SoftFailed.String())
}
