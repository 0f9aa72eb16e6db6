// Package orchestrator sequences the discover → fetch → extract → persist
// pipeline for one crawl run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/talentscout/compscout/internal/metrics"
	"github.com/talentscout/compscout/internal/pipeline"
)

// ErrNoMatches is the only failure surfaced to the operator: discovery
// produced nothing for the requested keyword. Every other failure degrades
// to "fewer records than expected".
var ErrNoMatches = errors.New("no matching jobs found")

// ErrNoTargets is returned by RunBulk when no target companies have been
// configured to crawl.
var ErrNoTargets = errors.New("no target companies configured")

const (
	defaultResultLimit = 4
	fallbackCompany    = "Unknown"
	archiveContentType = "text/plain; charset=utf-8"
)

// Discoverer produces posting URLs for a listing page and role keyword.
type Discoverer interface {
	Discover(ctx context.Context, listingURL, roleKeyword string) []string
}

// Extractor produces compensation fields from posting text.
type Extractor interface {
	Extract(ctx context.Context, postingText string) pipeline.Extraction
}

// Pacer throttles successive requests to the same host.
type Pacer interface {
	Wait(ctx context.Context, url string) error
}

// Config controls orchestrator behavior.
type Config struct {
	ResultLimit   int
	ArchivePrefix string
	EventTopic    string
}

// Orchestrator runs the crawl pipeline sequentially per request. Archive
// and publisher collaborators are optional; persistence is not.
type Orchestrator struct {
	discoverer Discoverer
	fetcher    pipeline.Fetcher
	extractor  Extractor
	records    pipeline.RecordStore
	targets    pipeline.TargetStore
	archive    pipeline.BlobStore
	publisher  pipeline.Publisher
	pacer      Pacer
	clock      pipeline.Clock
	idGen      pipeline.IDGenerator
	cfg        Config
	logger     *zap.Logger
}

// New constructs an Orchestrator.
func New(
	discoverer Discoverer,
	fetcher pipeline.Fetcher,
	extractor Extractor,
	records pipeline.RecordStore,
	targets pipeline.TargetStore,
	archive pipeline.BlobStore,
	publisher pipeline.Publisher,
	pacer Pacer,
	clock pipeline.Clock,
	idGen pipeline.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = defaultResultLimit
	}
	return &Orchestrator{
		discoverer: discoverer,
		fetcher:    fetcher,
		extractor:  extractor,
		records:    records,
		targets:    targets,
		archive:    archive,
		publisher:  publisher,
		pacer:      pacer,
		clock:      clock,
		idGen:      idGen,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one crawl request and returns the records persisted during
// it. A single posting's failure never aborts the run; the only error is
// ErrNoMatches when discovery comes back empty.
func (o *Orchestrator) Run(ctx context.Context, req pipeline.CrawlRequest) ([]pipeline.CompRecord, error) {
	limit := req.ResultLimit
	if limit <= 0 {
		limit = o.cfg.ResultLimit
	}

	runID, err := o.idGen.NewID()
	if err != nil {
		runID = "run-unknown"
	}
	logger := o.logger.With(zap.String("run_id", runID), zap.String("keyword", req.RoleKeyword))

	urls := o.discoverer.Discover(ctx, req.CareerURL, req.RoleKeyword)
	if len(urls) == 0 {
		metrics.ObserveRun("no_matches")
		return nil, ErrNoMatches
	}
	if len(urls) > limit {
		urls = urls[:limit]
	}

	var saved []pipeline.CompRecord
	for i, postingURL := range urls {
		if err := o.pacer.Wait(ctx, postingURL); err != nil {
			// Abandoned run: records already persisted remain valid.
			logger.Warn("run abandoned", zap.Error(err))
			break
		}

		result, err := o.fetcher.Fetch(ctx, postingURL)
		if err != nil {
			logger.Warn("posting fetch failed, skipping", zap.String("url", postingURL), zap.Error(err))
			continue
		}

		fields := o.extractor.Extract(ctx, result.Text)
		if !fields.Salaried() {
			logger.Info("no salary found, discarding", zap.String("url", postingURL))
			continue
		}

		record := o.buildRecord(req, postingURL, fields)
		o.archivePosting(ctx, logger, runID, i, postingURL, result.Text)

		if err := o.records.Insert(ctx, record); err != nil {
			logger.Error("record insert failed", zap.String("url", postingURL), zap.Error(err))
			continue
		}
		metrics.RecordPersisted()
		saved = append(saved, record)
		logger.Info("record persisted",
			zap.String("url", postingURL),
			zap.String("title", record.RoleTitle),
			zap.Int("salary_max", record.SalaryMax),
		)
	}

	o.publishEvent(ctx, logger, runID, req, len(urls), len(saved))
	metrics.ObserveRun("ok")
	return saved, nil
}

// RunBulk crawls every stored target company for the role keyword, one
// run per target. Targets with no matches are skipped rather than failing
// the bulk run; the aggregated records of all targets are returned.
func (o *Orchestrator) RunBulk(ctx context.Context, roleKeyword string, resultLimit int) ([]pipeline.CompRecord, error) {
	targets, err := o.targets.ListTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	var saved []pipeline.CompRecord
	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		records, err := o.Run(ctx, pipeline.CrawlRequest{
			CareerURL:   target.CareerURL,
			RoleKeyword: roleKeyword,
			ResultLimit: resultLimit,
		})
		if err != nil {
			if errors.Is(err, ErrNoMatches) {
				o.logger.Info("no matches for target",
					zap.String("company", target.Name),
					zap.String("keyword", roleKeyword),
				)
				continue
			}
			return saved, err
		}
		saved = append(saved, records...)
	}
	return saved, nil
}

func (o *Orchestrator) buildRecord(req pipeline.CrawlRequest, postingURL string, fields pipeline.Extraction) pipeline.CompRecord {
	salaryMin, salaryMax := fields.Min, fields.Max
	if salaryMin > salaryMax {
		salaryMin, salaryMax = salaryMax, salaryMin
	}
	title := fields.JobTitle
	if title == "" {
		title = req.RoleKeyword
	}
	company := fields.Company
	if company == "" {
		company = fallbackCompany
	}
	id, err := o.idGen.NewID()
	if err != nil {
		id = ""
	}
	return pipeline.CompRecord{
		ID:          id,
		CompanyName: company,
		RoleTitle:   title,
		SalaryMin:   salaryMin,
		SalaryMax:   salaryMax,
		Currency:    "USD",
		SourceURL:   postingURL,
		ScrapedAt:   o.clock.Now(),
	}
}

// archivePosting snapshots the cleaned posting text. Best effort: archive
// failures never block persistence.
func (o *Orchestrator) archivePosting(ctx context.Context, logger *zap.Logger, runID string, index int, postingURL, text string) {
	if o.archive == nil {
		return
	}
	path := fmt.Sprintf("%s/%s/%03d.txt", o.cfg.ArchivePrefix, runID, index)
	uri, err := o.archive.PutObject(ctx, path, archiveContentType, []byte(text))
	if err != nil {
		logger.Warn("posting archive failed", zap.String("url", postingURL), zap.Error(err))
		return
	}
	logger.Debug("posting archived", zap.String("url", postingURL), zap.String("blob_uri", uri))
}

func (o *Orchestrator) publishEvent(ctx context.Context, logger *zap.Logger, runID string, req pipeline.CrawlRequest, processed, savedCount int) {
	if o.publisher == nil || o.cfg.EventTopic == "" {
		return
	}
	event := pipeline.CrawlEvent{
		RunID:         runID,
		CareerURL:     req.CareerURL,
		RoleKeyword:   req.RoleKeyword,
		URLsProcessed: processed,
		RecordsSaved:  savedCount,
		FinishedAt:    o.clock.Now(),
	}
	if _, err := o.publisher.Publish(ctx, o.cfg.EventTopic, event); err != nil {
		logger.Warn("crawl event publish failed", zap.Error(err))
	}
}
