package archive_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coursefetch/coursefetch/internal/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(ts *httptest.Server) *archive.Client {
	return archive.NewClient(ts.URL, "", 5*time.Second)
}

func TestListLectures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lectures", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("course_id"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[{"id":1,"title":"intro"}],"next":"/lectures?course_id=42&page=3","count":7}`)
	}))
	defer ts.Close()

	page, err := newTestClient(ts).ListLectures(context.Background(), 42, 2)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "intro", page.Results[0].Title)
	assert.Equal(t, "/lectures?course_id=42&page=3", page.Next)
	assert.Equal(t, 7, page.Count)
}

func TestEnqueueItem(t *testing.T) {
	tests := []struct {
		name         string
		responseBody string
		expect       archive.EnqueueResult
	}{
		{"accepted", `{"ok":true}`, archive.EnqueueResult{OK: true}},
		{"exists", `{"ok":false,"skipped":true,"reason":"exists"}`, archive.EnqueueResult{Skipped: true, Reason: "exists"}},
		{"malformed body shapes as failure", `not json at all`, archive.EnqueueResult{}},
		{"empty body shapes as failure", ``, archive.EnqueueResult{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/queue", r.URL.Path)

				var item archive.WorkItem
				require.NoError(t, json.NewDecoder(r.Body).Decode(&item))
				assert.Equal(t, int64(7), item.CourseID)

				fmt.Fprint(w, tt.responseBody)
			}))
			defer ts.Close()

			res, err := newTestClient(ts).EnqueueItem(context.Background(), archive.WorkItem{CourseID: 7, Filename: "001 - a.mp4"})
			require.NoError(t, err)
			assert.Equal(t, tt.expect, *res)
		})
	}
}

func TestEnqueueItem_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).EnqueueItem(context.Background(), archive.WorkItem{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/queue", r.URL.Path)
		fmt.Fprint(w, `{"courses":[{"course_id":1,"title":"c","done":2,"total":5}],"items":[{"course_id":1,"state":"downloading","speed_bps":128}]}`)
	}))
	defer ts.Close()

	snap, err := newTestClient(ts).Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Courses, 1)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, float64(128), snap.Items[0].SpeedBps)
}

func TestPauseAndResume(t *testing.T) {
	var paths []string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(9), body["course_id"])

		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	client := newTestClient(ts)

	require.NoError(t, client.PauseCourse(context.Background(), 9))
	require.NoError(t, client.ResumeCourse(context.Background(), 9))
	assert.Equal(t, []string{"/queue/pause", "/queue/resume"}, paths)
}

func TestEstimate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/estimate", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("course_id"))
		assert.Equal(t, "720", r.URL.Query().Get("quality"))
		fmt.Fprint(w, `{"total_bytes":123456789}`)
	}))
	defer ts.Close()

	total, err := newTestClient(ts).Estimate(context.Background(), 7, "720")
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), total)
}

func TestSaveSettings(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":true}`)
		}))
		defer ts.Close()

		err := newTestClient(ts).SaveSettings(context.Background(), archive.Settings{Quality: "720"})
		assert.NoError(t, err)
	})

	t.Run("rejected", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":false,"error":"invalid token"}`)
		}))
		defer ts.Close()

		err := newTestClient(ts).SaveSettings(context.Background(), archive.Settings{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid token")
	})
}

func TestBearerToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"auth":true,"opts":{"subs":true}}`)
	}))
	defer ts.Close()

	client := archive.NewClient(ts.URL, "secret", 5*time.Second)

	session, err := client.Session(context.Background())
	require.NoError(t, err)
	assert.True(t, session.Auth)
	assert.True(t, session.Opts.Subs)
}
