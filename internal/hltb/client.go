package hltb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"backlog/internal/config"
)

// ErrUnavailable signals a transient candidate-source failure: network
// trouble, throttling, or a server error. Callers may retry later; the
// game is counted as errored, not unmatched.
var ErrUnavailable = errors.New("candidate source unavailable")

// Candidate is one play-time entry returned by a search.
type Candidate struct {
	ID        int64
	Title     string
	Platforms []string
	Year      int
	Main      float64
	MainExtra float64
	Complete  float64
	Votes     int
	URL       string
}

// Response holds the parsed candidates together with the raw body so
// stores can keep the full payload for rescoring.
type Response struct {
	Candidates []Candidate
	RawJSON    string
}

// Searcher performs candidate lookups. The pipeline depends on this
// interface so tests can substitute a canned source.
type Searcher interface {
	Search(ctx context.Context, title string) (*Response, error)
}

// Client is an HTTP Searcher against the HowLongToBeat search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	backoffMin time.Duration
	backoffMax time.Duration
	logger     *slog.Logger

	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewClient builds a Client from the hltb config section.
func NewClient(cfg config.HLTB, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var minInterval time.Duration
	if cfg.RateLimitPerSec > 0 {
		minInterval = time.Duration(float64(time.Second) / cfg.RateLimitPerSec)
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		maxRetries:  cfg.MaxRetries,
		backoffMin:  time.Duration(cfg.BackoffMinSec) * time.Second,
		backoffMax:  time.Duration(cfg.BackoffMaxSec) * time.Second,
		logger:      logger,
		minInterval: minInterval,
	}
}

type searchRequest struct {
	SearchType  string   `json:"searchType"`
	SearchTerms []string `json:"searchTerms"`
	SearchPage  int      `json:"searchPage"`
	Size        int      `json:"size"`
}

type searchResponse struct {
	Data []searchEntry `json:"data"`
}

type searchEntry struct {
	GameID          int64  `json:"game_id"`
	GameName        string `json:"game_name"`
	ProfilePlatform string `json:"profile_platform"`
	ReleaseWorld    int    `json:"release_world"`
	CompMain        int64  `json:"comp_main"`
	CompPlus        int64  `json:"comp_plus"`
	Comp100         int64  `json:"comp_100"`
	CompAllCount    int    `json:"comp_all_count"`
}

// Search queries the source for a title. An empty candidate list is a
// successful "no results" answer, not an error.
func (c *Client) Search(ctx context.Context, title string) (*Response, error) {
	body, err := json.Marshal(searchRequest{
		SearchType:  "games",
		SearchTerms: strings.Fields(title),
		SearchPage:  1,
		Size:        20,
	})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt)
			c.logger.Warn("retrying search",
				"title", title, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		raw, err := c.doRequest(ctx, body)
		if err == nil {
			var parsed searchResponse
			if err := json.Unmarshal(raw, &parsed); err != nil {
				return nil, fmt.Errorf("decode search response: %w", err)
			}
			return &Response{Candidates: convertEntries(parsed.Data), RawJSON: string(raw)}, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("search %q exhausted %d retries: %w", title, c.maxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	c.throttle(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("search request rejected: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return raw, nil
}

// throttle blocks until the configured per-second rate allows the next
// request.
func (c *Client) throttle(ctx context.Context) {
	if c.minInterval <= 0 {
		return
	}
	c.mu.Lock()
	wait := c.minInterval - time.Since(c.lastRequest)
	if wait > 0 {
		c.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
		c.mu.Lock()
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	if c.backoffMin <= 0 {
		return 0
	}
	delay := time.Duration(float64(c.backoffMin) * math.Pow(2, float64(attempt-1)))
	if c.backoffMax > 0 && delay > c.backoffMax {
		delay = c.backoffMax
	}
	return delay
}

// ParseCandidates decodes a stored raw search payload back into
// candidates, so cached responses can be rescored without refetching.
func ParseCandidates(rawJSON string) ([]Candidate, error) {
	var parsed searchResponse
	if err := json.Unmarshal([]byte(rawJSON), &parsed); err != nil {
		return nil, fmt.Errorf("decode cached search payload: %w", err)
	}
	return convertEntries(parsed.Data), nil
}

func convertEntries(entries []searchEntry) []Candidate {
	candidates := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		candidates = append(candidates, Candidate{
			ID:        entry.GameID,
			Title:     entry.GameName,
			Platforms: splitPlatformList(entry.ProfilePlatform),
			Year:      entry.ReleaseWorld,
			Main:      secondsToHours(entry.CompMain),
			MainExtra: secondsToHours(entry.CompPlus),
			Complete:  secondsToHours(entry.Comp100),
			Votes:     entry.CompAllCount,
			URL:       fmt.Sprintf("https://howlongtobeat.com/game/%d", entry.GameID),
		})
	}
	return candidates
}

func splitPlatformList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	platforms := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			platforms = append(platforms, part)
		}
	}
	return platforms
}

// secondsToHours converts the API's second counts to hours rounded to
// one decimal place.
func secondsToHours(seconds int64) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Round(float64(seconds)/3600*10) / 10
}
