// Package geoguessr fetches challenge leaderboards and game details from the
// GeoGuessr web API.
package geoguessr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/geoleague/internal/domain/payload"
	"github.com/okian/geoleague/pkg/logger"
	"github.com/okian/geoleague/pkg/metrics"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Defaults.
const (
	DefaultBaseURL    = "https://www.geoguessr.com"
	DefaultTimeout    = 30 * time.Second
	DefaultPageSize   = 200
	DefaultMaxPlayers = 5000

	cookieName   = "_ncfa"
	snippetLen   = 300
	maxBodyBytes = 32 << 20
)

// Metric endpoint labels.
const (
	endpointHighscores = "highscores"
	endpointGames      = "games"
	endpointResults    = "results"
)

// Client talks to the GeoGuessr API with a session cookie. Calls are
// sequential; the limiter spaces them out.
type Client struct {
	baseURL    string
	cookie     string
	http       *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	pageSize   int
	maxPlayers int
	log        logger.Logger
}

// New creates a Client authenticated with the _ncfa cookie value.
func New(ncfa string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		cookie:     strings.TrimSpace(ncfa),
		http:       &http.Client{},
		timeout:    DefaultTimeout,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		pageSize:   DefaultPageSize,
		maxPlayers: DefaultMaxPlayers,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Leaderboard returns every highscore row of a challenge. Pages are fetched
// until one comes back empty or short, or the offset reaches the player cap.
func (c *Client) Leaderboard(ctx context.Context, token string) ([]gjson.Result, error) {
	var all []gjson.Result
	for offset := 0; ; {
		u := fmt.Sprintf("%s/api/v3/results/highscores/%s?friends=false&limit=%d&offset=%d",
			c.baseURL, token, c.pageSize, offset)
		doc, err := c.getJSON(ctx, endpointHighscores, u)
		if err != nil {
			return nil, err
		}
		items, err := extractItems(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, u)
		}
		metrics.RecordLeaderboardPage()
		if len(items) == 0 {
			break
		}
		all = append(all, items...)
		if len(items) < c.pageSize {
			break
		}
		offset += c.pageSize
		if offset >= c.maxPlayers {
			break
		}
	}
	return all, nil
}

// extractItems accepts {"items":[...]} or a bare array whose first element,
// if any, is an object.
func extractItems(doc gjson.Result) ([]gjson.Result, error) {
	list := doc
	if doc.IsObject() {
		list = doc.Get("items")
	}
	if !list.IsArray() {
		return nil, ErrNoItems
	}
	items := list.Array()
	if len(items) > 0 && !items[0].IsObject() {
		return nil, ErrNoItems
	}
	return items, nil
}

// PlayedAt looks up when a game was finished. Each candidate endpoint is
// tried in turn; failures are logged at debug level and never returned.
func (c *Client) PlayedAt(ctx context.Context, gameToken string) (int64, bool) {
	candidates := []struct{ endpoint, url string }{
		{endpointGames, fmt.Sprintf("%s/api/v3/games/%s", c.baseURL, gameToken)},
		{endpointResults, fmt.Sprintf("%s/api/v3/results/%s", c.baseURL, gameToken)},
	}
	for _, cand := range candidates {
		doc, err := c.getJSON(ctx, cand.endpoint, cand.url)
		if err != nil {
			c.log.Debug(ctx, "played-at endpoint failed", logger.String("url", cand.url), logger.Error(err))
			continue
		}
		if ep, ok := payload.LatestTimestamp(doc); ok {
			return ep, true
		}
		c.log.Debug(ctx, "played-at endpoint had no timestamp", logger.String("url", cand.url))
	}
	return 0, false
}

func (c *Client) getJSON(ctx context.Context, endpoint, u string) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Origin", c.baseURL)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: c.cookie})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordHTTPRequest(endpoint, 0, float64(time.Since(start).Milliseconds()))
		return gjson.Result{}, fmt.Errorf("%w: GET %s: %w", ErrRequest, u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordHTTPRequest(endpoint, resp.StatusCode, float64(time.Since(start).Milliseconds()))
	c.log.Debug(ctx, "http request",
		logger.String("url", u),
		logger.Int("status", resp.StatusCode),
		logger.Int("bytes", len(body)),
	)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: read %s: %w", ErrRequest, u, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return gjson.Result{}, fmt.Errorf("%w: HTTP %d for %s: %s", ErrHTTPStatus, resp.StatusCode, u, snippet(body))
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: %s: %s", ErrInvalidJSON, u, snippet(body))
	}
	return gjson.ParseBytes(body), nil
}

// snippet keeps the start of a body on a single line.
func snippet(body []byte) string {
	s := string(body)
	if len(s) > snippetLen {
		s = s[:snippetLen]
	}
	return strings.ReplaceAll(s, "\n", `\n`)
}
