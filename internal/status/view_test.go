package status_test

import (
	"testing"

	"github.com/coursefetch/coursefetch/internal/archive"
	"github.com/coursefetch/coursefetch/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildViews_RankMerge(t *testing.T) {
	tests := []struct {
		name        string
		itemStates  []string
		expectState string
	}{
		{"downloading beats done", []string{"downloading", "done", "done"}, "downloading"},
		{"failed beats paused", []string{"paused", "failed"}, "failed"},
		{"paused beats queued", []string{"queued", "paused", "queued"}, "paused"},
		{"single done item decides", []string{"done"}, "done"},
		{"empty item state counts as queued", []string{""}, "queued"},
		{"empty state never overrides a real one", []string{"downloading", ""}, "downloading"},
		{"item states are case insensitive", []string{"Downloading", "DONE"}, "downloading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &archive.QueueSnapshot{
				Courses: []archive.QueueCourse{{CourseID: 1, Title: "c", Done: 0, Total: 3}},
			}
			for _, state := range tt.itemStates {
				snap.Items = append(snap.Items, archive.QueueItem{CourseID: 1, State: state})
			}

			views := status.BuildViews(snap)
			require.Len(t, views, 1)
			assert.Equal(t, tt.expectState, views[0].State)
		})
	}
}

func TestBuildViews_NoItemsFallsBackToCounters(t *testing.T) {
	snap := &archive.QueueSnapshot{
		Courses: []archive.QueueCourse{
			{CourseID: 1, Title: "finished", Done: 5, Total: 5},
			{CourseID: 2, Title: "pending", Done: 2, Total: 5},
		},
	}

	views := status.BuildViews(snap)
	require.Len(t, views, 2)
	assert.Equal(t, "done", views[0].State)
	assert.Equal(t, 100, views[0].Percent)
	assert.Equal(t, "queued", views[1].State)
	assert.Equal(t, 40, views[1].Percent)
}

func TestBuildViews_SpeedSumsOnlyDownloadingItems(t *testing.T) {
	snap := &archive.QueueSnapshot{
		Courses: []archive.QueueCourse{{CourseID: 1, Title: "c", Done: 1, Total: 4}},
		Items: []archive.QueueItem{
			{CourseID: 1, State: "downloading", SpeedBps: 100}, // KiB/s on the wire
			{CourseID: 1, State: "downloading", SpeedBps: 50},
			{CourseID: 1, State: "queued", SpeedBps: 999},
		},
	}

	views := status.BuildViews(snap)
	require.Len(t, views, 1)
	assert.Equal(t, float64(150*1024), views[0].SpeedBps)
}

func TestBuildViews_UnknownCourseItemsIgnored(t *testing.T) {
	snap := &archive.QueueSnapshot{
		Courses: []archive.QueueCourse{{CourseID: 1, Title: "c", Done: 0, Total: 1}},
		Items:   []archive.QueueItem{{CourseID: 99, State: "downloading"}},
	}

	views := status.BuildViews(snap)
	require.Len(t, views, 1)
	assert.Equal(t, "queued", views[0].State)
	assert.Zero(t, views[0].SpeedBps)
}

func TestBuildViews_ZeroTotal(t *testing.T) {
	snap := &archive.QueueSnapshot{
		Courses: []archive.QueueCourse{{CourseID: 1, Title: "c"}},
	}

	views := status.BuildViews(snap)
	require.Len(t, views, 1)
	assert.Equal(t, 0, views[0].Percent)
	assert.Equal(t, "queued", views[0].State)
}

func TestGlobalLabel(t *testing.T) {
	tests := []struct {
		name   string
		views  []status.CourseView
		expect string
	}{
		{
			"downloading with speed",
			[]status.CourseView{
				{State: "downloading", SpeedBps: 2 * 1024 * 1024},
				{State: "failed"},
			},
			"2.1 MB/s",
		},
		{
			"downloading without speed",
			[]status.CourseView{{State: "downloading"}},
			"1 downloading",
		},
		{
			"failed beats paused",
			[]status.CourseView{{State: "paused"}, {State: "failed"}},
			"1 failed",
		},
		{
			"paused only",
			[]status.CourseView{{State: "paused"}, {State: "done"}},
			"1 paused",
		},
		{
			"nothing active",
			[]status.CourseView{{State: "done"}, {State: "queued"}},
			"idle",
		},
		{"no courses", nil, "idle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, status.GlobalLabel(tt.views), tt.expect)
		})
	}
}
