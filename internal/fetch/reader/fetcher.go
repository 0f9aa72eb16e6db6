// Package reader implements the reverse-fetch proxy strategy. The proxy
// renders JavaScript and bypasses anti-bot defenses, returning pre-cleaned
// Markdown instead of raw HTML.
package reader

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talentscout/compscout/internal/fetch"
	"github.com/talentscout/compscout/internal/metrics"
	"github.com/talentscout/compscout/internal/pipeline"
)

// Config controls the proxy fetcher.
type Config struct {
	// ProxyBase is prefixed to the target URL, e.g. "https://r.jina.ai/".
	ProxyBase     string
	APIKey        string
	UserAgent     string
	Timeout       time.Duration
	MaxTextLength int
}

// Fetcher implements pipeline.Fetcher by routing requests through the
// reader proxy.
type Fetcher struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if cfg.ProxyBase == "" {
		return nil, fmt.Errorf("proxy base is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 15 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Fetch retrieves the target through the proxy. The proxy output is already
// Markdown, so cleaning reduces to whitespace collapse and truncation.
func (f *Fetcher) Fetch(ctx context.Context, url string) (pipeline.FetchResult, error) {
	proxied := f.proxyURL(url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxied, nil)
	if err != nil {
		return pipeline.FetchResult{}, fmt.Errorf("build request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	if f.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.APIKey)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		metrics.ObserveFetch("reader", url, "error", time.Since(start))
		return pipeline.FetchResult{}, fmt.Errorf("proxy fetch: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Warn("close response body", zap.Error(cerr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveFetch("reader", url, "error", duration)
		return pipeline.FetchResult{}, fmt.Errorf("read proxy body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ObserveFetch("reader", url, "error", duration)
		return pipeline.FetchResult{}, fmt.Errorf("unexpected proxy status %d for %s", resp.StatusCode, url)
	}

	text := fetch.Truncate(fetch.Collapse(string(body)), f.cfg.MaxTextLength)

	f.logger.Debug("page fetched via reader proxy",
		zap.String("url", url),
		zap.Int("raw_bytes", len(body)),
		zap.Int("clean_chars", len(text)),
		zap.Duration("duration", duration),
	)
	metrics.ObserveFetch("reader", url, "ok", duration)

	return pipeline.FetchResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		RawBytes:   len(body),
		Text:       text,
		Duration:   duration,
	}, nil
}

func (f *Fetcher) proxyURL(target string) string {
	base := f.cfg.ProxyBase
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + target
}
