package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/news-service/internal/entity"
	"github.com/user/news-service/internal/repository"
)

// ArticleRepoImpl provides a concrete implementation for the ArticleRepository
// interface using PostgreSQL.
type ArticleRepoImpl struct {
	db *pgxpool.Pool
}

// NewArticleRepo creates a new instance of ArticleRepoImpl.
func NewArticleRepo(db *pgxpool.Pool) *ArticleRepoImpl {
	return &ArticleRepoImpl{db: db}
}

const articleColumns = `id, title, url, summary, content, category, source, author, image_url, published_at, crawled_at, created_at`

// Upsert inserts or refreshes articles keyed by URL. id and created_at are
// preserved on conflict; every mutable field takes the new crawl's value.
// xmax = 0 distinguishes a fresh insert from a refreshed row.
func (r *ArticleRepoImpl) Upsert(ctx context.Context, articles []*entity.Article) ([]repository.UpsertOutcome, error) {
	query := `
		INSERT INTO articles (title, url, summary, content, category, source, author, image_url, published_at, crawled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			content = EXCLUDED.content,
			category = EXCLUDED.category,
			source = EXCLUDED.source,
			author = EXCLUDED.author,
			image_url = EXCLUDED.image_url,
			published_at = EXCLUDED.published_at,
			crawled_at = EXCLUDED.crawled_at
		RETURNING id, created_at, (xmax = 0) AS inserted;
	`

	outcomes := make([]repository.UpsertOutcome, 0, len(articles))
	for _, a := range articles {
		var inserted bool
		err := r.db.QueryRow(ctx, query,
			a.Title,
			a.URL,
			a.Summary,
			a.Content,
			a.Category,
			a.Source,
			a.Author,
			a.ImageURL,
			a.PublishedAt,
			a.CrawledAt,
		).Scan(&a.ID, &a.CreatedAt, &inserted)
		if err != nil {
			return outcomes, fmt.Errorf("upsert article %s: %w", a.URL, err)
		}
		outcomes = append(outcomes, repository.UpsertOutcome{URL: a.URL, Inserted: inserted})
	}
	return outcomes, nil
}

// FindExistingURLs returns which of the given URLs already have a row.
func (r *ArticleRepoImpl) FindExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return existing, nil
	}

	rows, err := r.db.Query(ctx, `SELECT url FROM articles WHERE url = ANY($1);`, urls)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		existing[u] = true
	}
	return existing, rows.Err()
}

// List returns one page of articles ordered by crawl time, newest first.
func (r *ArticleRepoImpl) List(ctx context.Context, category *entity.Category, page, size int) ([]*entity.Article, int64, error) {
	var (
		total int64
		err   error
	)
	if category != nil {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles WHERE category = $1;`, *category).Scan(&total)
	} else {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles;`).Scan(&total)
	}
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size
	var rows pgx.Rows
	if category != nil {
		rows, err = r.db.Query(ctx, `
			SELECT `+articleColumns+`
			FROM articles
			WHERE category = $1
			ORDER BY crawled_at DESC, id DESC
			LIMIT $2 OFFSET $3;`, *category, size, offset)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+articleColumns+`
			FROM articles
			ORDER BY crawled_at DESC, id DESC
			LIMIT $1 OFFSET $2;`, size, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var articles []*entity.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, a)
	}
	return articles, total, rows.Err()
}

// FindByID retrieves a single article by its store-assigned id.
func (r *ArticleRepoImpl) FindByID(ctx context.Context, id int64) (*entity.Article, error) {
	row := r.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1;`, id)
	a, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// CountByCategory returns the article count for every category, including
// zeroes for categories with no rows yet.
func (r *ArticleRepoImpl) CountByCategory(ctx context.Context) (map[entity.Category]int64, error) {
	counts := make(map[entity.Category]int64, len(entity.AllCategories()))
	for _, c := range entity.AllCategories() {
		counts[c] = 0
	}

	rows, err := r.db.Query(ctx, `SELECT category, COUNT(*) FROM articles GROUP BY category;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cat entity.Category
			n   int64
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

// Count returns the total article count.
func (r *ArticleRepoImpl) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles;`).Scan(&total)
	return total, err
}

func scanArticle(row pgx.Row) (*entity.Article, error) {
	var a entity.Article
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.URL,
		&a.Summary,
		&a.Content,
		&a.Category,
		&a.Source,
		&a.Author,
		&a.ImageURL,
		&a.PublishedAt,
		&a.CrawledAt,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
