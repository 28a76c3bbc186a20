// Package upstream fetches raw rows from the paginated compliance and
// water-quality export services.
package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/project-pearl/Dashboard-sub014/internal/domain"
	"github.com/project-pearl/Dashboard-sub014/internal/observability"
)

// Options configures a Client for one upstream source.
type Options struct {
	// Name labels the source in logs, metrics, and errors.
	Name string
	// BaseURL is the export service root, without a trailing slash.
	BaseURL string
	// Encoding selects the response body decoder.
	Encoding Encoding
	// PartitionParam is the query parameter carrying the jurisdiction
	// ("state" for compliance, "statecode" for water quality).
	PartitionParam string
	// Timeout bounds each page request.
	Timeout time.Duration
	// PageDelay is an optional politeness pause between successive pages
	// of one partition.
	PageDelay time.Duration
}

// Client pages through one upstream export service. It is safe for
// concurrent use; the rebuild worker pool shares one per source.
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient builds a fetch client for one source.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// WithTimeout returns a copy of the client using a different per-page
// timeout. The retry pass uses this to give slow partitions more room.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	opts := c.opts
	opts.Timeout = timeout
	return NewClient(opts, c.logger, c.metrics)
}

// FetchPartition retrieves every row of one endpoint for one partition,
// walking pages at offset page*pageSize until a page comes back empty or
// short. On error it returns the rows gathered so far along with the
// failure, so sources that tolerate partial data can keep them.
func (c *Client) FetchPartition(ctx context.Context, path, partition string, pageSize int) ([]domain.RawRow, error) {
	var rows []domain.RawRow
	for page := 0; ; page++ {
		if page > 0 && c.opts.PageDelay > 0 {
			if err := c.pause(ctx); err != nil {
				return rows, err
			}
		}
		pageRows, err := c.fetchPage(ctx, path, partition, page, pageSize)
		rows = append(rows, pageRows...)
		if err != nil {
			return rows, err
		}
		if len(pageRows) < pageSize {
			return rows, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, path, partition string, page, pageSize int) ([]domain.RawRow, error) {
	query := url.Values{}
	query.Set(c.opts.PartitionParam, partition)
	query.Set("offset", strconv.Itoa(page*pageSize))
	query.Set("limit", strconv.Itoa(pageSize))
	endpoint := fmt.Sprintf("%s/%s?%s",
		strings.TrimRight(c.opts.BaseURL, "/"), strings.Trim(path, "/"), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, c.failure(ClassTransport, path, partition, page, err)
	}
	req.Header.Set("Accept", c.opts.Encoding.accept())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.failure(ClassTransport, path, partition, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return nil, c.failure(ClassUpstream, path, partition, page, err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.failure(ClassTransport, path, partition, page, err)
	}

	pageRows, err := decodeRows(c.opts.Encoding, body)
	if err != nil {
		// A truncated body can still yield a usable row prefix.
		return pageRows, c.failure(ClassParse, path, partition, page, err)
	}
	c.metrics.FetchPages.WithLabelValues(c.opts.Name).Inc()
	c.logger.Debug("fetched page",
		"source", c.opts.Name, "path", path, "partition", partition,
		"page", page, "rows", len(pageRows))
	return pageRows, nil
}

func (c *Client) failure(class ErrorClass, path, partition string, page int, err error) error {
	c.metrics.FetchErrors.WithLabelValues(c.opts.Name, string(class)).Inc()
	return &FetchError{
		Class:     class,
		Source:    c.opts.Name,
		Path:      path,
		Partition: partition,
		Page:      page,
		Err:       err,
	}
}

// pause waits the configured page delay, aborting early when the context
// ends. It runs on the shared clock so tests can skip the wait.
func (c *Client) pause(ctx context.Context) error {
	timer := domain.Clock().NewTimer(c.opts.PageDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
