package usecase

import (
	"context"
	"time"

	"github.com/user/news-service/internal/entity"
	"github.com/user/news-service/internal/repository"
)

// CategoryCount pairs a category with its stored article count.
type CategoryCount struct {
	Category entity.Category
	Name     string
	Count    int64
}

// NewsReader defines the read-side interface over stored articles.
type NewsReader interface {
	List(ctx context.Context, category *entity.Category, page, size int) ([]*entity.Article, int64, error)
	Get(ctx context.Context, id int64) (*entity.Article, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	Status(ctx context.Context) (*entity.CrawlStatus, error)
}

type newsUseCase struct {
	articles  repository.ArticleRepository
	crawlLogs repository.CrawlLogRepository
	nextRun   func() *time.Time
}

// NewNewsUseCase creates the read-side use case. nextRun supplies the next
// scheduled crawl time and may be nil when the scheduler is disabled.
func NewNewsUseCase(articleRepo repository.ArticleRepository, crawlLogRepo repository.CrawlLogRepository, nextRun func() *time.Time) NewsReader {
	return &newsUseCase{
		articles:  articleRepo,
		crawlLogs: crawlLogRepo,
		nextRun:   nextRun,
	}
}

func (uc *newsUseCase) List(ctx context.Context, category *entity.Category, page, size int) ([]*entity.Article, int64, error) {
	return uc.articles.List(ctx, category, page, size)
}

func (uc *newsUseCase) Get(ctx context.Context, id int64) (*entity.Article, error) {
	return uc.articles.FindByID(ctx, id)
}

func (uc *newsUseCase) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	counts, err := uc.articles.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryCount, 0, len(entity.AllCategories()))
	for _, c := range entity.AllCategories() {
		out = append(out, CategoryCount{Category: c, Name: c.KoreanName(), Count: counts[c]})
	}
	return out, nil
}

func (uc *newsUseCase) Status(ctx context.Context) (*entity.CrawlStatus, error) {
	status := &entity.CrawlStatus{Status: "idle"}

	log, err := uc.crawlLogs.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if log != nil {
		status.Status = log.Status
		status.LastCrawledAt = log.FinishedAt
	}

	total, err := uc.articles.Count(ctx)
	if err != nil {
		return nil, err
	}
	status.TotalArticles = total

	if uc.nextRun != nil {
		status.NextCrawlAt = uc.nextRun()
	}
	return status, nil
}
