// Package diag implements the operator-facing diagnostic fetch path.
package diag

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/talentscout/compscout/internal/pipeline"
)

const defaultPreviewLen = 1000

// Diagnoser runs the configured fetch strategy against a single URL and
// records a step-by-step trace. It never consults the oracle and never
// touches persisted state.
type Diagnoser struct {
	fetcher    pipeline.Fetcher
	strategy   string
	previewLen int
}

// New builds a Diagnoser over the given strategy fetcher.
func New(fetcher pipeline.Fetcher, strategy string) *Diagnoser {
	return &Diagnoser{
		fetcher:    fetcher,
		strategy:   strategy,
		previewLen: defaultPreviewLen,
	}
}

// Diagnose fetches url synchronously and returns the trace. Failures are
// reported inside the trace, never as an error.
func (d *Diagnoser) Diagnose(ctx context.Context, url string) pipeline.DiagnosticReport {
	report := pipeline.DiagnosticReport{
		Steps: []string{fmt.Sprintf("1. Fetching %s via %s strategy...", url, d.strategy)},
	}

	result, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		report.Steps = append(report.Steps, fmt.Sprintf("ERROR: %v", err))
		return report
	}

	report.Steps = append(report.Steps,
		fmt.Sprintf("2. Response: %d (%.2fs)", result.StatusCode, result.Duration.Seconds()),
		fmt.Sprintf("3. Received %d bytes, %d chars after cleaning", result.RawBytes, utf8.RuneCountInString(result.Text)),
	)
	report.Preview = preview(result.Text, d.previewLen)
	report.Success = true
	return report
}

func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
