// Package pipeline defines core types shared across subsystems.
package pipeline

import "time"

// TargetCompany is an operator-configured seed for crawling.
type TargetCompany struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CareerURL string    `json:"career_url"`
	CreatedAt time.Time `json:"created_at"`
}

// CandidateLink is a (label, URL) pair lifted from a listing page. It lives
// only for the duration of one discovery pass.
type CandidateLink struct {
	Label string
	URL   string
}

// CompRecord is a normalized compensation record extracted from a posting.
// Records are write-once; re-scraping the same URL creates a new row.
type CompRecord struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	RoleTitle   string    `json:"role_title"`
	SalaryMin   int       `json:"salary_min"`
	SalaryMax   int       `json:"salary_max"`
	Currency    string    `json:"currency"`
	SourceURL   string    `json:"source_url"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// CrawlRequest drives one orchestrator run. It is never persisted.
type CrawlRequest struct {
	CareerURL   string `json:"career_url"`
	RoleKeyword string `json:"role_keyword"`

	// ResultLimit bounds how many discovered links are actually fetched.
	ResultLimit int `json:"result_limit"`
}

// Extraction is the fixed-schema output of the structured extractor.
// The zero value doubles as the "no usable salary data" sentinel.
type Extraction struct {
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
}

// Salaried reports whether the extraction carries a usable salary ceiling.
// Max is the validity gate: postings without one are discarded.
func (e Extraction) Salaried() bool {
	return e.Max > 0
}

// FetchResult is the outcome of a successful page fetch. Text has already
// been stripped of boilerplate and truncated; RawBytes records the
// pre-clean payload size for diagnostics and archiving.
type FetchResult struct {
	URL        string
	StatusCode int
	RawBytes   int
	Text       string
	Duration   time.Duration
}

// DiagnosticReport is the step-by-step trace produced by the diagnostic
// fetch path.
type DiagnosticReport struct {
	Steps   []string `json:"steps"`
	Preview string   `json:"preview"`
	Success bool     `json:"success"`
}

// CrawlEvent is published after an orchestrator run finishes.
type CrawlEvent struct {
	RunID         string    `json:"run_id"`
	CareerURL     string    `json:"career_url"`
	RoleKeyword   string    `json:"role_keyword"`
	URLsProcessed int       `json:"urls_processed"`
	RecordsSaved  int       `json:"records_saved"`
	FinishedAt    time.Time `json:"finished_at"`
}
