package course

import (
	"sort"
)

const (
	SourceMP4 = "mp4"
	SourceHLS = "hls"

	mimeMP4 = "video/mp4"
	mimeHLS = "application/x-mpegURL"

	// PreferenceLowest selects the smallest available rendition.
	// Any all-digit preference selects that exact resolution; anything
	// else (including "Highest") selects the largest.
	PreferenceLowest = "Lowest"
)

// Source is a concrete downloadable location resolved from an Asset.
type Source struct {
	Type  string
	Label string
	URL   string
}

// assetShape discriminates which url-bearing field of an Asset is consulted
// first. Precedence: direct downloads, then stream renditions (mp4 over
// HLS), then the media_sources fallback. A stream list without a usable
// rendition still falls back to media_sources.
type assetShape int

const (
	shapeNone assetShape = iota
	shapeDownload
	shapeStream
	shapeMediaSources
)

func (a *Asset) shape() assetShape {
	switch {
	case len(a.DownloadURLs[mediaKindVideo]) > 0:
		return shapeDownload
	case len(a.StreamURLs[mediaKindVideo]) > 0 || a.HLSURL != "":
		return shapeStream
	case len(a.MediaSources) > 0:
		return shapeMediaSources
	default:
		return shapeNone
	}
}

// SelectSource deterministically picks one downloadable source from an asset
// under a quality preference. Pure and total: absence of a usable source
// yields nil, never an error. Callers are responsible for only passing
// Video-typed assets.
func SelectSource(a *Asset, preference string) *Source {
	if a == nil {
		return nil
	}

	switch a.shape() {
	case shapeDownload:
		entry := a.DownloadURLs[mediaKindVideo][0]

		return &Source{Type: SourceMP4, Label: "download", URL: entry.File}
	case shapeStream:
		streams := a.StreamURLs[mediaKindVideo]
		if s := pickMP4(streams, preference); s != nil {
			return s
		}

		if s := pickHLS(streams, a.HLSURL); s != nil {
			return s
		}

		// a stream list can carry only renditions we cannot play back,
		// e.g. webm
		return firstMediaSource(a)
	case shapeMediaSources:
		return firstMediaSource(a)
	}

	return nil
}

func firstMediaSource(a *Asset) *Source {
	for _, m := range a.MediaSources {
		if m.Src != "" {
			return &Source{Type: SourceMP4, Label: "Auto", URL: m.Src}
		}
	}

	return nil
}

func pickMP4(streams []StreamEntry, preference string) *Source {
	mp4s := make([]StreamEntry, 0, len(streams))

	for _, e := range streams {
		if e.Type == mimeMP4 && e.File != "" {
			mp4s = append(mp4s, e)
		}
	}

	if len(mp4s) == 0 {
		return nil
	}

	sort.SliceStable(mp4s, func(i, j int) bool {
		return labelValue(mp4s[i].Label) > labelValue(mp4s[j].Label)
	})

	chosen := mp4s[0]

	switch {
	case preference == PreferenceLowest:
		chosen = mp4s[len(mp4s)-1]
	case isDigits(preference):
		for _, e := range mp4s {
			if e.Label == preference {
				chosen = e

				break
			}
		}
	}

	return &Source{Type: SourceMP4, Label: chosen.Label, URL: chosen.File}
}

func pickHLS(streams []StreamEntry, hlsURL string) *Source {
	// an HLS entry in the stream list wins over the asset-level hls_url
	for _, e := range streams {
		if e.Type == mimeHLS && e.File != "" {
			return &Source{Type: SourceHLS, Label: "Auto", URL: e.File}
		}
	}

	if hlsURL != "" {
		return &Source{Type: SourceHLS, Label: "Auto", URL: hlsURL}
	}

	return nil
}

// labelValue parses the leading decimal digits of a rendition label.
// Non-numeric labels sort as 0.
func labelValue(label string) int {
	n := 0
	seen := false

	for _, r := range label {
		if r < '0' || r > '9' {
			break
		}

		n = n*10 + int(r-'0')
		seen = true
	}

	if !seen {
		return 0
	}

	return n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
