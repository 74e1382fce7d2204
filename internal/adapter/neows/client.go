package neows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/couchcryptid/neo-risk-etl/internal/observability"
)

// ErrUnexpectedStatus is returned when NeoWs answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// maxErrorBody caps how much of an error response is quoted in the error.
const maxErrorBody = 512

// Client fetches the NASA NeoWs close-approach feed.
type Client struct {
	apiKey     string
	feedURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NeoWs feed client.
func NewClient(apiKey, feedURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchFeed requests the feed for [start, end] and decodes it. The window
// length is not checked here; NeoWs rejects spans over seven days.
func (c *Client) FetchFeed(ctx context.Context, start, end time.Time) (domain.Feed, error) {
	params := url.Values{
		"start_date": {start.Format(domain.DateLayout)},
		"end_date":   {end.Format(domain.DateLayout)},
		"api_key":    {c.apiKey},
	}

	began := time.Now()
	body, err := c.doRequest(ctx, c.feedURL+"?"+params.Encode())
	c.metrics.FeedRequestDuration.Observe(time.Since(began).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return domain.Feed{}, err
	}

	feed, err := domain.ParseFeed(body)
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return domain.Feed{}, fmt.Errorf("neows feed: %w", err)
	}
	c.metrics.FeedRequests.WithLabelValues("success").Inc()

	c.logger.Debug("neows feed received",
		"start", params.Get("start_date"),
		"end", params.Get("end_date"),
		"days", len(feed.Days),
		"element_count", feed.ElementCount,
		"bytes", len(body),
	)
	return feed, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "neo-risk-etl/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the full URL, api_key included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, fmt.Errorf("neows feed request: %w", uerr.Err)
		}
		return nil, fmt.Errorf("neows feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("neows API error: %w: status %d: %s", ErrUnexpectedStatus, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
