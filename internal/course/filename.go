package course

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

const maxSlugLen = 60

// Slugify lowercases s and collapses every run of non-letter, non-digit
// characters into a single dash. The result is capped at 60 runes and never
// empty, so derived filenames stay stable and filesystem-safe.
func Slugify(s string) string {
	var b strings.Builder

	prevDash := false

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)

			prevDash = false

			continue
		}

		if !prevDash {
			b.WriteByte('-')

			prevDash = true
		}
	}

	out := strings.Trim(b.String(), "-")

	if runes := []rune(out); len(runes) > maxSlugLen {
		out = strings.TrimRight(string(runes[:maxSlugLen]), "-")
	}

	if out == "" {
		return "item"
	}

	return out
}

// Ordinal formats a 1-based lecture index as a 3-digit zero-padded string.
// The ordinal is assigned during a single enumeration pass and must be stable
// for a given enumeration order so resubmission is idempotent at the
// filename level.
func Ordinal(index int) string {
	return fmt.Sprintf("%03d", index)
}

// VideoFilename derives the primary item filename: "001 - my-lecture-720.mp4".
func VideoFilename(index int, title, label string) string {
	return fmt.Sprintf("%s - %s-%s.mp4", Ordinal(index), Slugify(title), label)
}

// CaptionFilename derives a subtitle filename from the lecture title plus the
// caption's language and the extension of its URL: "001 - my-lecture.en.vtt".
func CaptionFilename(index int, title string, cap Caption) string {
	lang := Slugify(cap.DisplayName())
	ext := captionExt(cap.SourceURL())

	return fmt.Sprintf("%s - %s.%s.%s", Ordinal(index), Slugify(title), lang, ext)
}

// SupplementFilename derives a supplementary-asset filename:
// "001 - my-lecture - slides-pdf".
func SupplementFilename(index int, title, assetName string) string {
	return fmt.Sprintf("%s - %s - %s", Ordinal(index), Slugify(title), Slugify(assetName))
}

// captionExt extracts the extension from the final path segment of a caption
// URL, ignoring query and fragment. Defaults to "vtt".
func captionExt(u string) string {
	if i := strings.IndexAny(u, "#?"); i >= 0 {
		u = u[:i]
	}

	if i := strings.LastIndexByte(u, '/'); i >= 0 {
		u = u[i+1:]
	}

	if i := strings.LastIndexByte(u, '.'); i >= 0 && i < len(u)-1 {
		return u[i+1:]
	}

	return "vtt"
}

func sortedKeys(m map[string][]DownloadEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
