package serializd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL     = "https://www.serializd.com/api"
	defaultHTTPTimeout = 30 * time.Second
)

// Config describes the Serializd client configuration.
type Config struct {
	Email      string
	Password   string
	BaseURL    string
	WriteDelay time.Duration
	HTTPClient *http.Client
}

// Client wraps the Serializd REST API. Write operations are paced and
// transient failures are retried; reads go straight through.
type Client struct {
	email      string
	password   string
	baseURL    *url.URL
	http       *http.Client
	writeDelay time.Duration

	mu        sync.Mutex
	token     string
	lastWrite time.Time
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	email := strings.TrimSpace(cfg.Email)
	if email == "" {
		return nil, errors.New("serializd: email is required")
	}
	password := cfg.Password
	if password == "" {
		return nil, errors.New("serializd: password is required")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("serializd: parse base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	delay := cfg.WriteDelay
	if delay < 0 {
		delay = 0
	}
	return &Client{
		email:      email,
		password:   password,
		baseURL:    baseURL,
		http:       client,
		writeDelay: delay,
	}, nil
}

// Season identifies one season of a show.
type Season struct {
	ID           int64 `json:"id"`
	SeasonNumber int   `json:"seasonNumber"`
}

// Show is the show metadata returned by the API, including its season list.
type Show struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Seasons []Season `json:"seasons"`
}

// SeasonID returns the internal id for a human season number.
func (s *Show) SeasonID(number int) (int64, bool) {
	for _, season := range s.Seasons {
		if season.SeasonNumber == number {
			return season.ID, true
		}
	}
	return 0, false
}

// Review is one diary entry as reported by the user reviews endpoint.
type Review struct {
	ID            int64  `json:"id"`
	ShowID        int64  `json:"showId"`
	SeasonID      int64  `json:"seasonId"`
	EpisodeNumber int    `json:"episodeNumber"`
	Backdate      string `json:"backdate"`
	ReviewText    string `json:"reviewText"`
}

// HasText reports whether the entry carries review text.
func (r Review) HasText() bool {
	return strings.TrimSpace(r.ReviewText) != ""
}

// BackdateTime parses the entry's backdate. ok is false when the entry has
// no backdate or the value cannot be parsed.
func (r Review) BackdateTime() (time.Time, bool) {
	value := strings.TrimSpace(r.Backdate)
	if value == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), true
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts.UTC(), true
	}
	return time.Time{}, false
}

// LogRequest describes one diary entry to create.
type LogRequest struct {
	ShowID      int64
	SeasonID    int64
	Episode     int
	WatchedAt   time.Time
	ReviewText  string
	Tags        []string
	MarkWatched bool
}

// Login authenticates and stores the session token used by later calls.
func (c *Client) Login(ctx context.Context) error {
	if c == nil {
		return errors.New("serializd: client is nil")
	}
	body := map[string]string{
		"email":    c.email,
		"password": c.password,
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, []string{"login"}, body, &payload); err != nil {
		return fmt.Errorf("serializd: login failed: %w", err)
	}
	if payload.Token == "" {
		return errors.New("serializd: login response missing token")
	}
	c.mu.Lock()
	c.token = payload.Token
	c.mu.Unlock()
	return nil
}

// GetShow fetches show metadata, primarily for its season list.
func (c *Client) GetShow(ctx context.Context, showID int64) (*Show, error) {
	if c == nil {
		return nil, errors.New("serializd: client is nil")
	}
	if showID <= 0 {
		return nil, errors.New("serializd: invalid show id")
	}
	var show Show
	if err := c.do(ctx, http.MethodGet, []string{"show", strconv.FormatInt(showID, 10)}, nil, &show); err != nil {
		return nil, fmt.Errorf("serializd: fetch show %d: %w", showID, err)
	}
	return &show, nil
}

// UserReviews fetches every diary entry of the authenticated user.
func (c *Client) UserReviews(ctx context.Context) ([]Review, error) {
	if c == nil {
		return nil, errors.New("serializd: client is nil")
	}
	var payload struct {
		Reviews []Review `json:"reviews"`
	}
	if err := c.do(ctx, http.MethodGet, []string{"user", "reviews"}, nil, &payload); err != nil {
		return nil, fmt.Errorf("serializd: fetch user reviews: %w", err)
	}
	return payload.Reviews, nil
}

// ReviewTags fetches the tags attached to one diary entry.
func (c *Client) ReviewTags(ctx context.Context, reviewID int64) ([]string, error) {
	if c == nil {
		return nil, errors.New("serializd: client is nil")
	}
	var payload struct {
		Tags []string `json:"tags"`
	}
	if err := c.do(ctx, http.MethodGet, []string{"review", strconv.FormatInt(reviewID, 10), "tags"}, nil, &payload); err != nil {
		return nil, fmt.Errorf("serializd: fetch tags for review %d: %w", reviewID, err)
	}
	return payload.Tags, nil
}

// LogEpisode creates a diary entry and returns its id when the API reports
// one. The call is paced against the configured write delay and retried on
// transient failures.
func (c *Client) LogEpisode(ctx context.Context, req LogRequest) (int64, error) {
	if c == nil {
		return 0, errors.New("serializd: client is nil")
	}
	if req.ShowID <= 0 || req.SeasonID <= 0 || req.Episode <= 0 {
		return 0, errors.New("serializd: log request needs show, season, and episode ids")
	}
	body := map[string]any{
		"showId":        req.ShowID,
		"seasonId":      req.SeasonID,
		"episodeNumber": req.Episode,
		"markAsWatched": req.MarkWatched,
	}
	if !req.WatchedAt.IsZero() {
		body["backdate"] = req.WatchedAt.UTC().Format(time.RFC3339)
	}
	if text := strings.TrimSpace(req.ReviewText); text != "" {
		body["reviewText"] = text
	}
	if len(req.Tags) > 0 {
		body["tags"] = req.Tags
	}

	var payload struct {
		ID int64 `json:"id"`
	}
	err := c.write(ctx, func(ctx context.Context) error {
		payload.ID = 0
		return c.do(ctx, http.MethodPost, []string{"diary"}, body, &payload)
	})
	if err != nil {
		return 0, fmt.Errorf("serializd: log episode %d of season %d: %w", req.Episode, req.SeasonID, err)
	}
	return payload.ID, nil
}

// DeleteReview removes one diary entry. Paced and retried like LogEpisode.
func (c *Client) DeleteReview(ctx context.Context, reviewID int64) error {
	if c == nil {
		return errors.New("serializd: client is nil")
	}
	if reviewID <= 0 {
		return errors.New("serializd: invalid review id")
	}
	err := c.write(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodDelete, []string{"diary", strconv.FormatInt(reviewID, 10)}, nil, nil)
	})
	if err != nil {
		return fmt.Errorf("serializd: delete review %d: %w", reviewID, err)
	}
	return nil
}

// write paces the call against the configured delay and retries transient
// failures with doubling backoff.
func (c *Client) write(ctx context.Context, call func(context.Context) error) error {
	if err := c.pace(ctx); err != nil {
		return err
	}
	backoff := InitialBackoff
	var lastErr error
	for attempt := 0; attempt < MaxWriteRetries; attempt++ {
		if attempt > 0 {
			if err := SleepWithContext(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
		}
		lastErr = call(ctx)
		if lastErr == nil {
			c.markWrite()
			return nil
		}
		if !IsRetriable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// pace blocks until the configured interval since the previous write has
// elapsed.
func (c *Client) pace(ctx context.Context) error {
	if c.writeDelay <= 0 {
		return nil
	}
	c.mu.Lock()
	wait := c.writeDelay - time.Since(c.lastWrite)
	c.mu.Unlock()
	return SleepWithContext(ctx, wait)
}

func (c *Client) markWrite() {
	c.mu.Lock()
	c.lastWrite = time.Now()
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method string, path []string, body, out any) error {
	endpoint := c.baseURL.JoinPath(path...)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(detail)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError is an HTTP error response from the Serializd API.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("serializd api error (%s)", e.Status)
	}
	return fmt.Sprintf("serializd api error (%s): %s", e.Status, e.Body)
}
