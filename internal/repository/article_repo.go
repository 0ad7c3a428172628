package repository

import (
	"context"

	"github.com/user/news-service/internal/entity"
)

// UpsertOutcome reports what the store did with one record.
type UpsertOutcome struct {
	URL      string
	Inserted bool // false means an existing row was refreshed
}

// ArticleRepository defines the interface for persisting and reading articles.
// Upserts are keyed by URL: on conflict the mutable fields are overwritten and
// id/created_at are preserved.
type ArticleRepository interface {
	// Upsert inserts or refreshes the given records and reports the
	// per-record outcome in input order.
	Upsert(ctx context.Context, articles []*entity.Article) ([]UpsertOutcome, error)
	// FindExistingURLs returns the subset of urls already stored.
	FindExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	// List returns a page of articles, newest crawl first, optionally
	// filtered by category, plus the total row count for the filter.
	List(ctx context.Context, category *entity.Category, page, size int) ([]*entity.Article, int64, error)
	// FindByID retrieves a single article. Returns ErrNotFound when absent.
	FindByID(ctx context.Context, id int64) (*entity.Article, error)
	// CountByCategory returns per-category article counts.
	CountByCategory(ctx context.Context) (map[entity.Category]int64, error)
	// Count returns the total article count.
	Count(ctx context.Context) (int64, error)
}
