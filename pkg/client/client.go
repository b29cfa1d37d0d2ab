// Package client provides an HTTP client for the followcast API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/HatiCode/followcast/pkg/analytics"
	"github.com/HatiCode/followcast/pkg/changelog"
	"github.com/HatiCode/followcast/pkg/storage"
)

// Client talks to a followcast server. It is safe for concurrent use by
// multiple goroutines.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL (e.g.
// "http://localhost:8080") with a 5 second request timeout.
func New(baseURL string) *Client {
	return NewWithTimeout(baseURL, 5*time.Second)
}

// NewWithTimeout creates a client with a custom request timeout.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Entry is one sample on the wire.
type Entry struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Page is the paginated form of GET /entries.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
}

// APIError is a non-2xx reply. It matches the storage and analytics
// sentinel errors through errors.Is, so callers can test
// errors.Is(err, storage.ErrNotFound) against a remote server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	switch e.Code {
	case "duplicate_key":
		return target == storage.ErrDuplicateKey
	case "not_found":
		return target == storage.ErrNotFound
	case "insufficient_data":
		return target == analytics.ErrInsufficientData
	case "storage_unavailable":
		return target == storage.ErrUnavailable
	}
	return false
}

// Entries returns every sample, ascending by date.
func (c *Client) Entries(ctx context.Context) ([]Entry, error) {
	var out []Entry
	if err := c.getJSON(ctx, "/entries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EntriesPage returns one page of samples.
func (c *Client) EntriesPage(ctx context.Context, page, limit int) (*Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out Page
	if err := c.getJSON(ctx, "/entries", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddEntry records a new sample.
func (c *Client) AddEntry(ctx context.Context, date string, count int) error {
	return c.sendJSON(ctx, http.MethodPost, "/entries", Entry{Date: date, Count: count}, http.StatusCreated)
}

// UpdateEntry sets the count of the sample at date. A non-empty newDate
// moves the sample.
func (c *Client) UpdateEntry(ctx context.Context, date string, count int, newDate string) error {
	body := struct {
		Count   int    `json:"count"`
		NewDate string `json:"new_date,omitempty"`
	}{count, newDate}
	return c.sendJSON(ctx, http.MethodPut, "/entries/"+url.PathEscape(date), body, http.StatusOK)
}

// DeleteEntry removes the sample at date. Missing dates are not an error.
func (c *Client) DeleteEntry(ctx context.Context, date string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/entries/"+url.PathEscape(date), nil, http.StatusOK)
}

// Clear removes every sample.
func (c *Client) Clear(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodDelete, "/entries", nil, http.StatusOK)
}

// Alert fetches the trend alert.
func (c *Client) Alert(ctx context.Context) (*analytics.Alert, error) {
	var out analytics.Alert
	if err := c.getJSON(ctx, "/alerts", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetailedAlert fetches the detailed trend classification.
func (c *Client) DetailedAlert(ctx context.Context) (*analytics.DetailedAlert, error) {
	var out analytics.DetailedAlert
	if err := c.getJSON(ctx, "/follower-alerts", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Insight fetches the milestone insight.
func (c *Client) Insight(ctx context.Context) (*analytics.Insight, error) {
	var out analytics.Insight
	if err := c.getJSON(ctx, "/insights", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast fetches a forecast of days days. days <= 0 uses the server default.
func (c *Client) Forecast(ctx context.Context, days int) ([]analytics.ForecastPoint, error) {
	var q url.Values
	if days > 0 {
		q = url.Values{}
		q.Set("days", strconv.Itoa(days))
	}

	var out []analytics.ForecastPoint
	if err := c.getJSON(ctx, "/forecast", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Changelog fetches the release notes.
func (c *Client) Changelog(ctx context.Context) ([]changelog.Entry, error) {
	var out []changelog.Entry
	if err := c.getJSON(ctx, "/changelog", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download copies the CSV export into w.
func (c *Client) Download(ctx context.Context, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, "/download", nil, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK); err != nil {
		return err
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	return nil
}

// Upload sends a CSV export and returns the number of imported samples.
func (c *Client) Upload(ctx context.Context, r io.Reader) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, "/upload", nil, r, "text/csv")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusCreated); err != nil {
		return 0, err
	}
	var out struct {
		Imported int `json:"imported"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Imported, nil
}

// Health reports whether the server and its datastore are up.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expect(resp, http.StatusOK)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in any, want int) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	resp, err := c.do(ctx, method, path, nil, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expect(resp, want)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// expect converts a reply with an unexpected status into an *APIError.
func expect(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Message, apiErr.Code = body.Error, body.Code
	}
	return apiErr
}
