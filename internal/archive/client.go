package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coursefetch/coursefetch/internal/logctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// Client talks to the remote archiver service: course/lecture catalog, queue
// admission, queue snapshot, pause/resume and size estimates.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given base URL. When token is non-empty,
// requests carry it as a bearer token.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport)

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}

	if token != "" {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient.Transport = &oauth2.Transport{Source: tokenSource, Base: transport}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ListCourses fetches one page of the course catalog.
func (c *Client) ListCourses(ctx context.Context, page, pageSize int) (*CoursePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out CoursePage
	if err := c.getJSON(ctx, "/courses?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return &out, nil
}

// ListLectures fetches one page of the lecture listing for a course.
func (c *Client) ListLectures(ctx context.Context, courseID int64, page int) (*LecturePage, error) {
	q := url.Values{}
	q.Set("course_id", strconv.FormatInt(courseID, 10))
	q.Set("page", strconv.Itoa(page))

	var out LecturePage
	if err := c.getJSON(ctx, "/lectures?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("failed to list lectures: %w", err)
	}

	return &out, nil
}

// EnqueueItem submits one WorkItem to the queue's admission endpoint.
// A malformed response body decodes as an {ok:false}-shaped result, not an
// error; errors are reserved for transport failures.
func (c *Client) EnqueueItem(ctx context.Context, item WorkItem) (*EnqueueResult, error) {
	logger := logctx.LoggerFromContext(ctx)

	body, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal work item: %w", err)
	}

	resp, err := c.post(ctx, "/queue", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out EnqueueResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logger.Debug("malformed queue response, treating as failure", "filename", item.Filename, "err", err)

		return &EnqueueResult{}, nil
	}

	return &out, nil
}

// Snapshot fetches the current queue state.
func (c *Client) Snapshot(ctx context.Context) (*QueueSnapshot, error) {
	var out QueueSnapshot
	if err := c.getJSON(ctx, "/queue", &out); err != nil {
		return nil, fmt.Errorf("failed to fetch queue snapshot: %w", err)
	}

	return &out, nil
}

// PauseCourse asks the queue to pause all items of a course.
func (c *Client) PauseCourse(ctx context.Context, courseID int64) error {
	return c.postCourseAction(ctx, "pause", courseID)
}

// ResumeCourse asks the queue to resume a paused course.
func (c *Client) ResumeCourse(ctx context.Context, courseID int64) error {
	return c.postCourseAction(ctx, "resume", courseID)
}

// Estimate fetches the total-byte estimate for a course at a quality.
func (c *Client) Estimate(ctx context.Context, courseID int64, quality string) (int64, error) {
	q := url.Values{}
	q.Set("course_id", strconv.FormatInt(courseID, 10))
	q.Set("quality", quality)

	var out struct {
		TotalBytes int64 `json:"total_bytes"`
	}

	if err := c.getJSON(ctx, "/estimate?"+q.Encode(), &out); err != nil {
		return 0, fmt.Errorf("failed to fetch size estimate: %w", err)
	}

	return out.TotalBytes, nil
}

// Session fetches the remote auth and saved-option state.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.getJSON(ctx, "/session", &out); err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	return &out, nil
}

// SaveSettings persists options or the access token on the remote service.
func (c *Client) SaveSettings(ctx context.Context, settings Settings) error {
	body, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	resp, err := c.post(ctx, "/settings", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode settings response: %w", err)
	}

	if !out.OK {
		return fmt.Errorf("settings rejected: %s", out.Error)
	}

	return nil
}

func (c *Client) postCourseAction(ctx context.Context, action string, courseID int64) error {
	logger := logctx.LoggerFromContext(ctx).With("action", action, "course_id", courseID)

	body, err := json.Marshal(map[string]int64{"course_id": courseID})
	if err != nil {
		return fmt.Errorf("failed to marshal course action: %w", err)
	}

	resp, err := c.post(ctx, "/queue/"+action, body)
	if err != nil {
		logger.Error("course action failed", "err", err)

		return err
	}
	defer resp.Body.Close()

	logger.Debug("course action submitted")

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}

	return resp, nil
}
