package dataverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/christopherklint97/timegrid/internal/week"
)

const (
	apiPath    = "/api/data/v9.2"
	maxRetries = 3
)

// Options tune a Client. Zero values fall back to sensible defaults.
type Options struct {
	HTTPClient *http.Client
	Mapping    Mapping
	// UserID restricts listed time entries to one owner.
	UserID   string
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Client talks to the Dataverse Web API and implements host.Backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mapping    Mapping
	userID     string
	cache      *ProjectCache
	logger     *slog.Logger
	backoff    func(attempt int) time.Duration
}

func NewClient(orgURL string, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Mapping.Version == "" {
		opts.Mapping = V1
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(orgURL, "/") + apiPath,
		httpClient: opts.HTTPClient,
		mapping:    opts.Mapping,
		userID:     opts.UserID,
		cache:      NewProjectCache(opts.CacheTTL),
		logger:     opts.Logger,
		backoff:    backoff,
	}
}

type response struct {
	body   []byte
	header http.Header
}

// doRequest sends one Web API call. path is either relative to the API root or
// an absolute @odata.nextLink.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + path
	}

	c.logger.Debug("dataverse API request", "method", method, "path", path)

	var resp *http.Response
	requestStart := time.Now()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := c.newRequest(ctx, method, target, payload)
		if err != nil {
			return nil, err
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			// A POST may have been applied before the connection failed.
			if attempt == maxRetries || ctx.Err() != nil || method == http.MethodPost {
				c.logger.Error("API request transport error", "method", method, "path", path, "error", err, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("sending request: %w", err)
			}
			c.logger.Debug("API request transport error, retrying", "method", method, "path", path, "attempt", attempt+1, "error", err)
			if err := c.wait(ctx, attempt); err != nil {
				return nil, fmt.Errorf("sending request: %w", err)
			}
			continue
		}

		if retryable(method, resp.StatusCode) {
			resp.Body.Close()
			if attempt == maxRetries {
				c.logger.Error("API request failed after retries", "method", method, "path", path, "status", resp.StatusCode, "attempts", maxRetries+1, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("API returned status %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.logger.Debug("API request retryable error", "method", method, "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			if err := c.wait(ctx, attempt); err != nil {
				return nil, fmt.Errorf("waiting to retry: %w", err)
			}
			continue
		}
		break
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("dataverse API response", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API request failed", "method", method, "path", path, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiErrorMessage(respBody))
	}

	return &response{body: respBody, header: resp.Header}, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, payload []byte) (*http.Request, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if method == http.MethodPatch {
		// Update only; never upsert a missing row.
		req.Header.Set("If-Match", "*")
	}
	return req, nil
}

// retryable reports whether a response status is worth another attempt.
// Throttled requests were not processed; a POST that failed with a server
// error may still have created the record, so it is not repeated.
func retryable(method string, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && method != http.MethodPost
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.backoff(attempt)):
		return nil
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// apiErrorMessage pulls error.message out of an OData error body.
func apiErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Error.Message == "" {
		return truncate(string(body), 200)
	}
	return e.Error.Message
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

type page struct {
	Value    []record `json:"value"`
	NextLink string   `json:"@odata.nextLink"`
}

// list follows @odata.nextLink until the collection is exhausted.
func (c *Client) list(ctx context.Context, path string) ([]record, error) {
	var all []record
	for path != "" {
		resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		var p page
		if err := json.Unmarshal(resp.body, &p); err != nil {
			return nil, fmt.Errorf("parsing collection response: %w", err)
		}
		all = append(all, p.Value...)
		path = p.NextLink
	}
	return all, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]week.Project, error) {
	if cached := c.cache.Get(); cached != nil {
		return cached, nil
	}

	records, err := c.list(ctx, "/"+c.mapping.ProjectSet+"?"+c.mapping.ProjectQuery())
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	projects := make([]week.Project, 0, len(records))
	for _, r := range records {
		p, err := c.mapping.decodeProject(r)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	c.cache.Set(projects)
	return projects, nil
}

// InvalidateProjects drops the cached project list so the next call refetches.
func (c *Client) InvalidateProjects() {
	c.cache.Invalidate()
}

func (c *Client) ListTimeEntries(ctx context.Context) ([]week.TimeEntry, error) {
	records, err := c.list(ctx, "/"+c.mapping.EntrySet+"?"+c.mapping.EntryQuery(c.userID))
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}

	entries := make([]week.TimeEntry, 0, len(records))
	for _, r := range records {
		e, known, err := c.mapping.decodeEntry(r)
		if err != nil {
			return nil, err
		}
		if !known {
			c.logger.Warn("unknown time entry status code, treating as draft", "entry_id", e.ID, "mapping", c.mapping.Version)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *Client) entryPath(id string) string {
	return fmt.Sprintf("/%s(%s)", c.mapping.EntrySet, id)
}

func (c *Client) CreateTimeEntry(ctx context.Context, e week.TimeEntry) (string, error) {
	body, err := c.mapping.encodeEntry(e, true)
	if err != nil {
		return "", fmt.Errorf("encoding time entry: %w", err)
	}
	resp, err := c.doRequest(ctx, http.MethodPost, "/"+c.mapping.EntrySet, body)
	if err != nil {
		return "", fmt.Errorf("creating time entry: %w", err)
	}
	id, err := idFromEntityHeader(resp.header.Get("OData-EntityId"))
	if err != nil {
		return "", fmt.Errorf("creating time entry: %w", err)
	}
	return id, nil
}

func (c *Client) UpdateTimeEntry(ctx context.Context, e week.TimeEntry) error {
	body, err := c.mapping.encodeEntry(e, false)
	if err != nil {
		return fmt.Errorf("encoding time entry: %w", err)
	}
	if _, err := c.doRequest(ctx, http.MethodPatch, c.entryPath(e.ID), body); err != nil {
		return fmt.Errorf("updating time entry %s: %w", e.ID, err)
	}
	return nil
}

func (c *Client) MoveTimeEntry(ctx context.Context, id, date string) error {
	if _, err := c.doRequest(ctx, http.MethodPatch, c.entryPath(id), c.mapping.encodeMove(date)); err != nil {
		return fmt.Errorf("moving time entry %s: %w", id, err)
	}
	return nil
}

func (c *Client) SetStatus(ctx context.Context, id string, status week.Status) error {
	body, err := c.mapping.encodeStatus(status)
	if err != nil {
		return err
	}
	if _, err := c.doRequest(ctx, http.MethodPatch, c.entryPath(id), body); err != nil {
		return fmt.Errorf("setting status of time entry %s: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteTimeEntry(ctx context.Context, id string) error {
	if _, err := c.doRequest(ctx, http.MethodDelete, c.entryPath(id), nil); err != nil {
		return fmt.Errorf("deleting time entry %s: %w", id, err)
	}
	return nil
}
