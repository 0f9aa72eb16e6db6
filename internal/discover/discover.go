// Package discover turns a career listing page into a relevance-filtered
// list of posting URLs.
package discover

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/talentscout/compscout/internal/metrics"
	"github.com/talentscout/compscout/internal/pipeline"
)

const defaultCandidateCap = 60

// minLabelLen filters out icon links, "more", pagination arrows, and other
// labels too short to describe a job.
const minLabelLen = 4

// markdownLink matches [label](url) pairs in proxy-rendered Markdown.
var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)

// socialDomains never host a job posting for the crawled site. Matched
// against the resolved hostname, never as a raw substring, so hosts that
// merely end in one of these names (netflix.com vs x.com) survive.
var socialDomains = []string{
	"linkedin.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"youtube.com",
}

// Discoverer extracts candidate links from a listing page and asks the
// oracle which of them match the role keyword.
type Discoverer struct {
	fetcher      pipeline.Fetcher
	oracle       pipeline.Oracle
	candidateCap int
	logger       *zap.Logger
}

// New builds a Discoverer.
func New(fetcher pipeline.Fetcher, oracle pipeline.Oracle, candidateCap int, logger *zap.Logger) *Discoverer {
	if candidateCap <= 0 {
		candidateCap = defaultCandidateCap
	}
	return &Discoverer{
		fetcher:      fetcher,
		oracle:       oracle,
		candidateCap: candidateCap,
		logger:       logger,
	}
}

// Discover returns posting URLs for the role keyword, in oracle order.
// Every failure path degrades to an empty list; callers never see an error.
func (d *Discoverer) Discover(ctx context.Context, listingURL, roleKeyword string) []string {
	result, err := d.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		d.logger.Warn("listing fetch failed", zap.String("url", listingURL), zap.Error(err))
		return nil
	}

	candidates := extractCandidates(result.Text, listingURL)
	metrics.ObserveCandidates(len(candidates))
	if len(candidates) == 0 {
		d.logger.Info("no candidate links on listing page", zap.String("url", listingURL))
		return nil
	}
	if len(candidates) > d.candidateCap {
		candidates = candidates[:d.candidateCap]
	}

	urls, err := d.oracle.ClassifyLinks(ctx, roleKeyword, candidates)
	if err != nil {
		d.logger.Warn("oracle link classification failed",
			zap.String("url", listingURL),
			zap.String("keyword", roleKeyword),
			zap.Error(err),
		)
		return nil
	}

	d.logger.Info("links discovered",
		zap.String("url", listingURL),
		zap.String("keyword", roleKeyword),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(urls)),
	)
	return urls
}

// extractCandidates pulls (label, href) pairs from listing content,
// supporting both HTML anchors and Markdown-style links, then filters,
// resolves, and deduplicates them. First occurrence of a URL wins.
func extractCandidates(content, listingURL string) []pipeline.CandidateLink {
	base, err := url.Parse(listingURL)
	if err != nil {
		base = nil
	}

	var pairs []pipeline.CandidateLink
	if strings.Contains(strings.ToLower(content), "<a") {
		pairs = append(pairs, htmlPairs(content)...)
	}
	pairs = append(pairs, markdownPairs(content)...)

	seen := make(map[string]struct{}, len(pairs))
	out := make([]pipeline.CandidateLink, 0, len(pairs))
	for _, p := range pairs {
		if !keepPair(p) {
			continue
		}
		resolved, host, ok := resolveHref(base, p.URL)
		if !ok || isSocialHost(host) {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		out = append(out, pipeline.CandidateLink{Label: p.Label, URL: resolved})
	}
	return out
}

func htmlPairs(content string) []pipeline.CandidateLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}
	var pairs []pipeline.CandidateLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		pairs = append(pairs, pipeline.CandidateLink{
			Label: strings.TrimSpace(s.Text()),
			URL:   strings.TrimSpace(href),
		})
	})
	return pairs
}

func markdownPairs(content string) []pipeline.CandidateLink {
	matches := markdownLink.FindAllStringSubmatch(content, -1)
	pairs := make([]pipeline.CandidateLink, 0, len(matches))
	for _, m := range matches {
		pairs = append(pairs, pipeline.CandidateLink{
			Label: strings.TrimSpace(m[1]),
			URL:   strings.TrimSpace(m[2]),
		})
	}
	return pairs
}

func keepPair(p pipeline.CandidateLink) bool {
	if utf8.RuneCountInString(p.Label) < minLabelLen {
		return false
	}
	return !strings.Contains(strings.ToLower(p.URL), "mailto:")
}

// isSocialHost reports whether host is a social-network domain or one of
// its subdomains.
func isSocialHost(host string) bool {
	for _, domain := range socialDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// resolveHref resolves relative hrefs against the listing URL's origin and
// drops anything that is not plain http(s). The resolved hostname is
// returned for domain filtering.
func resolveHref(base *url.URL, href string) (string, string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", "", false
	}
	if ref.Host == "" {
		return "", "", false
	}
	ref.Fragment = ""
	return ref.String(), strings.ToLower(ref.Hostname()), true
}
