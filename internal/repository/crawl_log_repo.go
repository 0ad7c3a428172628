package repository

import (
	"context"

	"github.com/user/news-service/internal/entity"
)

// CrawlLogRepository defines the interface for recording digest runs.
type CrawlLogRepository interface {
	// Create opens a log row in the "running" state.
	Create(ctx context.Context, log *entity.CrawlLog) error
	// Finish closes a log row with its terminal status and totals.
	Finish(ctx context.Context, id, status string, totalArticles int, errorMessage *string) error
	// Latest retrieves the most recent log, or nil when none exists.
	Latest(ctx context.Context) (*entity.CrawlLog, error)
}
