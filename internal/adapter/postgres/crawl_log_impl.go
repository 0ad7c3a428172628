package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/news-service/internal/entity"
)

// CrawlLogRepoImpl provides a concrete implementation for the
// CrawlLogRepository interface using PostgreSQL.
type CrawlLogRepoImpl struct {
	db *pgxpool.Pool
}

// NewCrawlLogRepo creates a new instance of CrawlLogRepoImpl.
func NewCrawlLogRepo(db *pgxpool.Pool) *CrawlLogRepoImpl {
	return &CrawlLogRepoImpl{db: db}
}

// Create opens a log row for a digest run.
func (r *CrawlLogRepoImpl) Create(ctx context.Context, log *entity.CrawlLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO crawl_logs (id, started_at, status, total_articles)
		VALUES ($1, $2, $3, 0);`,
		log.ID, log.StartedAt, log.Status)
	return err
}

// Finish closes a log row with its terminal status.
func (r *CrawlLogRepoImpl) Finish(ctx context.Context, id, status string, totalArticles int, errorMessage *string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE crawl_logs
		SET finished_at = NOW(), status = $2, total_articles = $3, error_message = $4
		WHERE id = $1;`,
		id, status, totalArticles, errorMessage)
	return err
}

// Latest retrieves the most recent log row, or nil when none exists.
func (r *CrawlLogRepoImpl) Latest(ctx context.Context) (*entity.CrawlLog, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, started_at, finished_at, status, total_articles, error_message
		FROM crawl_logs
		ORDER BY started_at DESC
		LIMIT 1;`)

	var log entity.CrawlLog
	err := row.Scan(&log.ID, &log.StartedAt, &log.FinishedAt, &log.Status, &log.TotalArticles, &log.ErrorMessage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
