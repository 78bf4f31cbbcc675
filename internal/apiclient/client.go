// Package apiclient is a client for the canadaspends daemon HTTP API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mackenziebowes/CanadaSpends/internal/breakdown"
	"github.com/mackenziebowes/CanadaSpends/internal/daemon"
	"github.com/mackenziebowes/CanadaSpends/internal/model"
)

const (
	requestTimeout = 5 * time.Second
	maxBodySize    = 8 << 20 // budget trees are large
	userAgent      = "canadaspends-cli"
)

// ErrRateLimited indicates the daemon's rate limiter rejected the request.
var ErrRateLimited = errors.New("apiclient: rate limited")

// APIError is a non-2xx response with the daemon's error message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apiclient: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("apiclient: %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the daemon.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to one daemon instance.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for addr, either host:port or a full http URL.
func New(addr string) *Client {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Client{
		base: addr,
		http: &http.Client{},
	}
}

// Health reports whether the daemon answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "/healthz", nil)
	return err
}

// Status returns the daemon's runtime status.
func (c *Client) Status(ctx context.Context) (*daemon.Status, error) {
	var st daemon.Status
	if err := c.getJSON(ctx, "/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Events returns the retained data change events, oldest first.
func (c *Client) Events(ctx context.Context) ([]daemon.Event, error) {
	var evs []daemon.Event
	if err := c.getJSON(ctx, "/v1/events", nil, &evs); err != nil {
		return nil, err
	}
	return evs, nil
}

// Tax computes tax for income. An empty province uses the daemon default.
func (c *Client) Tax(ctx context.Context, income float64, province string) (*daemon.TaxResponse, error) {
	q := url.Values{}
	q.Set("income", formatFloat(income))
	if province != "" {
		q.Set("province", province)
	}

	var out daemon.TaxResponse
	if err := c.getJSON(ctx, "/v1/tax", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BreakdownQuery selects a personal breakdown. Zero values use the daemon
// defaults.
type BreakdownQuery struct {
	Income    float64
	Province  string
	Threshold float64
}

func (b BreakdownQuery) values() url.Values {
	q := url.Values{}
	q.Set("income", formatFloat(b.Income))
	if b.Province != "" {
		q.Set("province", b.Province)
	}
	if b.Threshold > 0 {
		q.Set("threshold", formatFloat(b.Threshold))
	}
	return q
}

// Breakdown returns the full personal spending breakdown.
func (c *Client) Breakdown(ctx context.Context, bq BreakdownQuery) (*breakdown.Breakdown, error) {
	var out breakdown.Breakdown
	if err := c.getJSON(ctx, "/v1/breakdown", bq.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CombinedBreakdown returns only the merged federal and provincial list.
func (c *Client) CombinedBreakdown(ctx context.Context, bq BreakdownQuery) ([]breakdown.SpendingCategory, error) {
	q := bq.values()
	q.Set("combined", "true")

	var out []breakdown.SpendingCategory
	if err := c.getJSON(ctx, "/v1/breakdown", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BudgetQuery selects a budget summary. Reductions are "Category:pct" entries.
type BudgetQuery struct {
	Live       *bool
	Reductions []string
	Trees      bool
}

// Budget returns the federal budget summary.
func (c *Client) Budget(ctx context.Context, bq BudgetQuery) (*daemon.BudgetResponse, error) {
	q := url.Values{}
	if bq.Live != nil {
		q.Set("live", strconv.FormatBool(*bq.Live))
	}
	for _, r := range bq.Reductions {
		q.Add("reduction", r)
	}
	q.Set("trees", strconv.FormatBool(bq.Trees))

	var out daemon.BudgetResponse
	if err := c.getJSON(ctx, "/v1/budget", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Jurisdictions lists the loaded jurisdictions, optionally filtered.
func (c *Client) Jurisdictions(ctx context.Context, province, kind string) ([]model.JurisdictionStats, error) {
	q := url.Values{}
	if province != "" {
		q.Set("province", province)
	}
	if kind != "" {
		q.Set("kind", kind)
	}

	var out []model.JurisdictionStats
	if err := c.getJSON(ctx, "/v1/jurisdictions", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Jurisdiction returns one jurisdiction with its ranked departments.
func (c *Client) Jurisdiction(ctx context.Context, slug string) (*daemon.JurisdictionResponse, error) {
	var out daemon.JurisdictionResponse
	if err := c.getJSON(ctx, "/v1/jurisdictions/"+strings.Trim(slug, "/"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JurisdictionBudget returns one jurisdiction with its sankey trees folded
// through the budget aggregator using reductions ("Category:pct" entries).
func (c *Client) JurisdictionBudget(ctx context.Context, slug string, reductions []string) (*daemon.JurisdictionResponse, error) {
	q := url.Values{}
	q.Set("budget", "true")
	for _, r := range reductions {
		q.Add("reduction", r)
	}

	var out daemon.JurisdictionResponse
	if err := c.getJSON(ctx, "/v1/jurisdictions/"+strings.Trim(slug, "/"), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	body, err := c.get(ctx, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("apiclient: parsing %s: %w", path, err)
	}
	return nil
}

// get performs a GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("apiclient: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	//nolint:gosec // URL is built from the configured daemon address
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("apiclient: reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil {
			apiErr.Message = e.Error
		}
		return nil, apiErr
	}
	return body, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
