// Package extract produces normalized compensation fields from a posting's
// text via the oracle.
package extract

import (
	"context"

	"go.uber.org/zap"

	"github.com/talentscout/compscout/internal/pipeline"
)

// Extractor wraps the oracle's fixed-schema extraction with the sentinel
// fallback contract.
type Extractor struct {
	oracle pipeline.Oracle
	logger *zap.Logger
}

// New builds an Extractor.
func New(oracle pipeline.Oracle, logger *zap.Logger) *Extractor {
	return &Extractor{oracle: oracle, logger: logger}
}

// Extract returns the compensation fields found in postingText. Any oracle
// or parse failure yields the all-zero sentinel instead of an error, which
// is deliberately indistinguishable from "posting found, no salary listed".
// The distinction is logged for operability but never surfaced.
func (e *Extractor) Extract(ctx context.Context, postingText string) pipeline.Extraction {
	fields, err := e.oracle.ExtractFields(ctx, postingText)
	if err != nil {
		e.logger.Debug("extraction fell back to sentinel", zap.Error(err))
		return pipeline.Extraction{}
	}
	if fields.Min < 0 {
		fields.Min = 0
	}
	if fields.Max < 0 {
		fields.Max = 0
	}
	return fields
}
