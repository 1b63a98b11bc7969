package course

// Course is a read-only copy of a catalog entry. The remote catalog owns it.
type Course struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Instructor string `json:"instructor,omitempty"`
	ImageURL   string `json:"image,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Lecture ordering within a course is defined by enumeration order
// (section then lecture), never by ID.
type Lecture struct {
	ID                  int64                `json:"id"`
	SectionIndex        int                  `json:"section_index"`
	SectionTitle        string               `json:"section_title"`
	Title               string               `json:"title"`
	Asset               *Asset               `json:"asset,omitempty"`
	SupplementaryAssets []SupplementaryAsset `json:"supplementary_assets,omitempty"`
}

// HasVideo reports whether the lecture carries a playable video asset.
// Lectures without one are skipped by the orchestrator, never errored.
func (l *Lecture) HasVideo() bool {
	return l.Asset != nil && l.Asset.Type == AssetTypeVideo
}

const AssetTypeVideo = "Video"

// mediaKindVideo keys the download_urls/stream_urls maps.
const mediaKindVideo = "Video"

// Asset is the server-provided descriptor of a lecture's media. Which of the
// url-bearing fields is populated varies per lecture; resolution precedence
// is fixed in SelectSource.
type Asset struct {
	Type         string                     `json:"asset_type"`
	DownloadURLs map[string][]DownloadEntry `json:"download_urls,omitempty"`
	StreamURLs   map[string][]StreamEntry   `json:"stream_urls,omitempty"`
	HLSURL       string                     `json:"hls_url,omitempty"`
	MediaSources []MediaSource              `json:"media_sources,omitempty"`
	Captions     []Caption                  `json:"captions,omitempty"`
}

// DownloadEntry is a pre-selected direct download, no quality negotiation needed.
type DownloadEntry struct {
	File  string `json:"file"`
	Label string `json:"label,omitempty"`
}

// StreamEntry is one rendition of a streaming asset. Label carries the
// resolution as a numeric-ish string ("720").
type StreamEntry struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	File  string `json:"file"`
}

type MediaSource struct {
	Type string `json:"type,omitempty"`
	Src  string `json:"src"`
}

type Caption struct {
	Language string `json:"language,omitempty"`
	Label    string `json:"label,omitempty"`
	URL      string `json:"url,omitempty"`
	File     string `json:"file,omitempty"`
	Src      string `json:"src,omitempty"`
}

// SourceURL returns the first populated location field of the caption.
func (c Caption) SourceURL() string {
	switch {
	case c.URL != "":
		return c.URL
	case c.File != "":
		return c.File
	default:
		return c.Src
	}
}

// DisplayName returns the language or label used to derive the caption filename.
func (c Caption) DisplayName() string {
	switch {
	case c.Language != "":
		return c.Language
	case c.Label != "":
		return c.Label
	default:
		return "sub"
	}
}

type SupplementaryAsset struct {
	ID           int64                      `json:"id"`
	Title        string                     `json:"title,omitempty"`
	Filename     string                     `json:"filename,omitempty"`
	DownloadURLs map[string][]DownloadEntry `json:"download_urls,omitempty"`
}

// FirstURL returns the first usable download location across all media kinds,
// scanning kinds in sorted order so the pick is deterministic.
func (s SupplementaryAsset) FirstURL() string {
	for _, kind := range sortedKeys(s.DownloadURLs) {
		for _, entry := range s.DownloadURLs[kind] {
			if entry.File != "" {
				return entry.File
			}
		}
	}
	return ""
}

// Name returns the filename component of the asset: the server filename when
// present, else the title, else a generic placeholder.
func (s SupplementaryAsset) Name() string {
	switch {
	case s.Filename != "":
		return s.Filename
	case s.Title != "":
		return s.Title
	default:
		return "asset"
	}
}
