package course_test

import (
	"strings"
	"testing"

	"github.com/coursefetch/coursefetch/internal/course"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		expect string
	}{
		{"lowercases", "Intro To Go", "intro-to-go"},
		{"collapses punctuation runs", "C++ & Go: A Comparison!!", "c-go-a-comparison"},
		{"trims edge dashes", "  (bonus) ", "bonus"},
		{"keeps digits", "Lesson 42", "lesson-42"},
		{"unicode letters survive", "Programación Avanzada", "programación-avanzada"},
		{"empty input falls back", "", "item"},
		{"symbol only input falls back", "!!!", "item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, course.Slugify(tt.in))
		})
	}
}

func TestSlugify_CapsLength(t *testing.T) {
	long := strings.Repeat("verylongword-", 20)
	out := course.Slugify(long)

	assert.LessOrEqual(t, len([]rune(out)), 60)
	assert.False(t, strings.HasSuffix(out, "-"))
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, "001", course.Ordinal(1))
	assert.Equal(t, "042", course.Ordinal(42))
	assert.Equal(t, "1000", course.Ordinal(1000))
}

func TestVideoFilename(t *testing.T) {
	got := course.VideoFilename(3, "Welcome & Setup", "720")
	assert.Equal(t, "003 - welcome-setup-720.mp4", got)
}

func TestCaptionFilename(t *testing.T) {
	tests := []struct {
		name   string
		cap    course.Caption
		expect string
	}{
		{
			"extension from url path",
			course.Caption{Language: "en", URL: "https://cdn/subs/track.srt?token=abc"},
			"001 - intro.en.srt",
		},
		{
			"defaults to vtt without extension",
			course.Caption{Language: "en", URL: "https://cdn/subs/track"},
			"001 - intro.en.vtt",
		},
		{
			"label when language missing",
			course.Caption{Label: "English CC", File: "https://cdn/track.vtt"},
			"001 - intro.english-cc.vtt",
		},
		{
			"generic name when both missing",
			course.Caption{Src: "https://cdn/track.vtt"},
			"001 - intro.sub.vtt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, course.CaptionFilename(1, "Intro", tt.cap))
		})
	}
}

func TestSupplementFilename(t *testing.T) {
	got := course.SupplementFilename(12, "Advanced Topics", "Slides.pdf")
	assert.Equal(t, "012 - advanced-topics - slides-pdf", got)
}

func TestSupplementaryAsset_FirstURL(t *testing.T) {
	asset := course.SupplementaryAsset{
		DownloadURLs: map[string][]course.DownloadEntry{
			"File":  {{File: ""}, {File: "https://cdn/slides.pdf"}},
			"Audio": {{File: "https://cdn/lecture.mp3"}},
		},
	}

	// kinds scan in sorted order, so "Audio" comes first
	assert.Equal(t, "https://cdn/lecture.mp3", asset.FirstURL())
}

func TestCaption_Precedence(t *testing.T) {
	c := course.Caption{URL: "u", File: "f", Src: "s"}
	assert.Equal(t, "u", c.SourceURL())

	c.URL = ""
	assert.Equal(t, "f", c.SourceURL())

	c.File = ""
	assert.Equal(t, "s", c.SourceURL())
}
