package entity

import "time"

// BatchOutcome is the terminal state of one category's crawl run.
type BatchOutcome string

const (
	// BatchDone means the listing fetch succeeded and the run finished,
	// even when individual detail fetches failed or nothing new was found.
	BatchDone BatchOutcome = "done"
	// BatchFailed means the listing fetch itself failed; no candidates to work from.
	BatchFailed BatchOutcome = "failed"
	// BatchCancelled means the run was asked to stop early and reports what it completed.
	BatchCancelled BatchOutcome = "cancelled"
)

// CrawlBatchResult summarizes one category's crawl run. It is ephemeral:
// created when the run starts, finalized when it ends, then folded into a
// CrawlLog for reporting.
type CrawlBatchResult struct {
	Category      Category
	SuccessCount  int
	FailureCount  int
	InsertedCount int
	UpdatedCount  int
	StartedAt     time.Time
	FinishedAt    time.Time
	Outcome       BatchOutcome
	Err           string
}

// CrawlLog mirrors the `crawl_logs` PostgreSQL table schema, one row per
// digest run (manual or scheduled).
type CrawlLog struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        string // "running", "success", "partial", "failed"
	TotalArticles int
	ErrorMessage  *string
}

const (
	CrawlStatusRunning = "running"
	CrawlStatusSuccess = "success"
	CrawlStatusPartial = "partial"
	CrawlStatusFailed  = "failed"
)

// CrawlStatus is the read-only view served by the status endpoint.
type CrawlStatus struct {
	LastCrawledAt *time.Time
	TotalArticles int64
	Status        string
	NextCrawlAt   *time.Time
}
