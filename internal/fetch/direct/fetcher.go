// Package direct implements the raw-HTML fetch strategy using gocolly.
package direct

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/talentscout/compscout/internal/fetch"
	"github.com/talentscout/compscout/internal/metrics"
	"github.com/talentscout/compscout/internal/pipeline"
)

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	Timeout       time.Duration
	MaxTextLength int
}

// Fetcher implements pipeline.Fetcher with a plain HTTP GET followed by
// boilerplate stripping.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// The diagnostic path refetches URLs on demand.
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes a single GET and returns the cleaned page text. Any
// non-200 status, transport error, or timeout is returned as an error the
// caller treats as "absent".
func (f *Fetcher) Fetch(ctx context.Context, url string) (pipeline.FetchResult, error) {
	var (
		status   int
		body     []byte
		fetchErr error
	)
	start := time.Now()

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		metrics.ObserveFetch("direct", url, "error", time.Since(start))
		return pipeline.FetchResult{}, err
	}
	duration := time.Since(start)
	if status != http.StatusOK {
		metrics.ObserveFetch("direct", url, "error", duration)
		return pipeline.FetchResult{}, fmt.Errorf("unexpected status %d for %s", status, url)
	}

	text, err := fetch.StripBoilerplate(string(body))
	if err != nil {
		metrics.ObserveFetch("direct", url, "error", duration)
		return pipeline.FetchResult{}, fmt.Errorf("clean page: %w", err)
	}
	text = fetch.Truncate(fetch.Collapse(text), f.cfg.MaxTextLength)

	f.logger.Debug("page fetched",
		zap.String("url", url),
		zap.Int("raw_bytes", len(body)),
		zap.Int("clean_chars", len(text)),
		zap.Duration("duration", duration),
	)
	metrics.ObserveFetch("direct", url, "ok", duration)

	return pipeline.FetchResult{
		URL:        url,
		StatusCode: status,
		RawBytes:   len(body),
		Text:       text,
		Duration:   duration,
	}, nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
