package enqueue

import (
	"context"
	"net/url"
	"strconv"

	"github.com/coursefetch/coursefetch/internal/archive"
	"github.com/coursefetch/coursefetch/internal/course"
	"github.com/coursefetch/coursefetch/internal/logctx"
)

// LectureLister fetches one page of a course's lecture listing.
type LectureLister interface {
	ListLectures(ctx context.Context, courseID int64, page int) (*archive.LecturePage, error)
}

// EnumerateLectures collects every lecture of a course into one ordered
// slice, following the listing's next-page pointer until it runs out. The
// next page number is parsed out of the pointer URL; when it cannot be
// parsed the current page plus one is assumed. A failed page fetch ends the
// listing with whatever was gathered so far; only cancellation surfaces as
// an error.
func EnumerateLectures(ctx context.Context, lister LectureLister, courseID int64) ([]course.Lecture, error) {
	var all []course.Lecture

	page := 1

	for {
		chunk, err := lister.ListLectures(ctx, courseID, page)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}

			logListingFailure(ctx, courseID, page, err)

			return all, nil
		}

		all = append(all, chunk.Results...)

		if chunk.Next == "" {
			return all, nil
		}

		page = nextPage(chunk.Next, page)
	}
}

// StreamPages feeds each page of lectures to fn as it arrives, so a caller
// can start enqueueing without waiting for the whole listing. Enumeration
// also stops on an empty page or a failed fetch, and fn returning an error
// aborts the walk.
func StreamPages(ctx context.Context, lister LectureLister, courseID int64, fn func(chunk []course.Lecture) error) error {
	page := 1

	for {
		chunk, err := lister.ListLectures(ctx, courseID, page)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			logListingFailure(ctx, courseID, page, err)

			return nil
		}

		if len(chunk.Results) == 0 {
			return nil
		}

		if err := fn(chunk.Results); err != nil {
			return err
		}

		if chunk.Next == "" {
			return nil
		}

		page++
	}
}

func logListingFailure(ctx context.Context, courseID int64, page int, err error) {
	logctx.LoggerFromContext(ctx).Warn("lecture listing failed, treating as end of listing",
		"course_id", courseID,
		"page", page,
		"error", err)
}

func nextPage(next string, cur int) int {
	u, err := url.Parse(next)
	if err != nil {
		return cur + 1
	}

	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || n < 1 {
		return cur + 1
	}

	return n
}
