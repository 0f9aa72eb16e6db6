package pipeline

import (
	"context"
	"time"
)

// Fetcher retrieves a URL as cleaned text. Implementations return an error
// for any non-200 status, transport failure, or timeout; callers treat the
// error as "absent" and skip the URL without retrying within the run.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// Oracle is the language-model collaborator consulted for link relevance
// filtering and structured field extraction. Both calls run at temperature 0.
type Oracle interface {
	// ClassifyLinks returns the subset of candidate URLs that look like
	// postings for the given role keyword.
	ClassifyLinks(ctx context.Context, keyword string, candidates []CandidateLink) ([]string, error)

	// ExtractFields pulls the fixed compensation schema out of a posting's text.
	ExtractFields(ctx context.Context, text string) (Extraction, error)
}

// RecordStore persists compensation records. Inserts are append-only; no
// update path exists.
type RecordStore interface {
	Insert(ctx context.Context, record CompRecord) error
	ListAll(ctx context.Context) ([]CompRecord, error)
}

// TargetStore holds the operator-configured target companies.
type TargetStore interface {
	Add(ctx context.Context, target TargetCompany) error
	Remove(ctx context.Context, id string) error
	ListTargets(ctx context.Context) ([]TargetCompany, error)
}

// BlobStore archives raw posting snapshots and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes crawl completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run and record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
