package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/news-service/internal/crawler"
	"github.com/user/news-service/internal/entity"
	"github.com/user/news-service/internal/repository"
	"github.com/user/news-service/pkg/metrics"
	"go.uber.org/zap"
)

// ErrCrawlInProgress is returned when a crawl is requested for a category that
// another run is already working on. Concurrent runs for the same category
// would be safe at the store but waste fetch budget and confuse status reporting.
var ErrCrawlInProgress = errors.New("crawl already in progress for category")

// Crawler defines the interface for driving crawl runs.
type Crawler interface {
	// CrawlCategory runs the listing → detail → upsert pipeline for one
	// category. The returned result is always non-nil unless the category
	// was already being crawled.
	CrawlCategory(ctx context.Context, cat entity.Category, maxArticles int) (*entity.CrawlBatchResult, error)
	// CrawlAll runs CrawlCategory for every requested category (all of them
	// when cats is empty) with bounded concurrency, records a crawl log, and
	// returns the per-category results.
	CrawlAll(ctx context.Context, cats []entity.Category, maxPerCategory int) []*entity.CrawlBatchResult
	// Busy reports which of the given categories are currently being crawled.
	Busy(cats []entity.Category) []entity.Category
}

// CrawlConfig carries the orchestrator's tunables.
type CrawlConfig struct {
	RequestDelay    time.Duration
	CategoryWorkers int
	KnownURLTTL     time.Duration
}

type crawlUseCase struct {
	profile   *crawler.Profile
	fetcher   crawler.Fetcher
	articles  repository.ArticleRepository
	knownURLs repository.KnownURLRepository
	crawlLogs repository.CrawlLogRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger

	gate     *rateGate
	workers  int
	knownTTL time.Duration

	mu       sync.Mutex
	inFlight map[entity.Category]bool
}

// NewCrawlUseCase creates the crawl orchestrator.
func NewCrawlUseCase(
	profile *crawler.Profile,
	fetcher crawler.Fetcher,
	articleRepo repository.ArticleRepository,
	knownURLRepo repository.KnownURLRepository,
	crawlLogRepo repository.CrawlLogRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg CrawlConfig,
) Crawler {
	workers := cfg.CategoryWorkers
	if workers < 1 {
		workers = 1
	}
	return &crawlUseCase{
		profile:   profile,
		fetcher:   fetcher,
		articles:  articleRepo,
		knownURLs: knownURLRepo,
		crawlLogs: crawlLogRepo,
		metrics:   m,
		logger:    logger,
		gate:      newRateGate(cfg.RequestDelay),
		workers:   workers,
		knownTTL:  cfg.KnownURLTTL,
		inFlight:  make(map[entity.Category]bool),
	}
}

// itemResult is the explicit outcome of one attempted candidate; the batch
// folds a slice of these into its counts instead of aborting on failures.
type itemResult struct {
	article *entity.Article
	err     error
}

func (uc *crawlUseCase) CrawlCategory(ctx context.Context, cat entity.Category, maxArticles int) (*entity.CrawlBatchResult, error) {
	if !uc.acquire(cat) {
		return nil, ErrCrawlInProgress
	}
	defer uc.release(cat)

	res := &entity.CrawlBatchResult{
		Category:  cat,
		StartedAt: time.Now(),
		Outcome:   entity.BatchDone,
	}
	defer func() {
		res.FinishedAt = time.Now()
		uc.metrics.BatchDuration.WithLabelValues(cat.String(), string(res.Outcome)).
			Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
	}()

	candidates, failErr := uc.fetchCandidates(ctx, cat, maxArticles)
	if failErr != nil {
		// No candidates to work from: category-fatal, siblings unaffected.
		res.Outcome = entity.BatchFailed
		res.Err = failErr.Error()
		if errors.Is(failErr, context.Canceled) || errors.Is(failErr, context.DeadlineExceeded) {
			res.Outcome = entity.BatchCancelled
		}
		uc.logger.Error("listing fetch failed, aborting category batch",
			zap.String("category", cat.String()),
			zap.Error(failErr))
		return res, nil
	}

	items := uc.crawlCandidates(ctx, cat, candidates, res)

	var collected []*entity.Article
	for _, it := range items {
		if it.err != nil {
			res.FailureCount++
			continue
		}
		res.SuccessCount++
		collected = append(collected, it.article)
	}

	uc.storeBatch(ctx, collected, res)

	uc.logger.Info("category batch finished",
		zap.String("category", cat.String()),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("success", res.SuccessCount),
		zap.Int("failures", res.FailureCount),
		zap.Int("inserted", res.InsertedCount),
		zap.Int("updated", res.UpdatedCount))
	return res, nil
}

// fetchCandidates fetches the category listing page, extracts candidate
// links, filters out already-known URLs and applies the per-category cap in
// listing order.
func (uc *crawlUseCase) fetchCandidates(ctx context.Context, cat entity.Category, maxArticles int) ([]entity.Link, error) {
	if err := uc.gate.Wait(ctx); err != nil {
		return nil, err
	}

	listingURL := uc.profile.SectionURL(cat)
	page, err := uc.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		uc.metrics.FetchesTotal.WithLabelValues("listing", "failure").Inc()
		return nil, err
	}
	uc.metrics.FetchesTotal.WithLabelValues("listing", "success").Inc()

	links, err := crawler.ExtractListingLinks(uc.profile, page.HTML, page.FinalURL)
	if err != nil {
		return nil, err
	}

	links = uc.filterKnown(ctx, links)
	if maxArticles > 0 && len(links) > maxArticles {
		links = links[:maxArticles]
	}
	return links, nil
}

// filterKnown drops candidates whose URL the cache or the store already has.
// Dedup is a politeness optimization, not a correctness requirement, so any
// lookup failure degrades to crawling everything.
func (uc *crawlUseCase) filterKnown(ctx context.Context, links []entity.Link) []entity.Link {
	if len(links) == 0 {
		return links
	}

	urls := make([]string, len(links))
	for i, l := range links {
		urls[i] = l.URL
	}

	known := make(map[string]bool, len(urls))
	cached, err := uc.knownURLs.FilterKnown(ctx, urls)
	if err != nil {
		uc.logger.Warn("known-url cache lookup failed", zap.Error(err))
	} else {
		for u := range cached {
			known[u] = true
		}
	}

	var remaining []string
	for _, u := range urls {
		if !known[u] {
			remaining = append(remaining, u)
		}
	}
	if len(remaining) > 0 {
		stored, err := uc.articles.FindExistingURLs(ctx, remaining)
		if err != nil {
			uc.logger.Warn("existing-url lookup failed", zap.Error(err))
		} else {
			var refresh []string
			for u := range stored {
				known[u] = true
				refresh = append(refresh, u)
			}
			if err := uc.knownURLs.MarkKnown(ctx, refresh, uc.knownTTL); err != nil {
				uc.logger.Warn("known-url cache refresh failed", zap.Error(err))
			}
		}
	}

	fresh := links[:0:0]
	for _, l := range links {
		if !known[l.URL] {
			fresh = append(fresh, l)
		}
	}
	return fresh
}

// crawlCandidates walks the surviving candidates in listing order, spacing
// fetches through the shared rate gate. Per-item failures are swallowed and
// counted; only cancellation stops the walk, tagging the result so a cut-short
// run is distinguishable from a finished one.
func (uc *crawlUseCase) crawlCandidates(ctx context.Context, cat entity.Category, candidates []entity.Link, res *entity.CrawlBatchResult) []itemResult {
	items := make([]itemResult, 0, len(candidates))
	for _, link := range candidates {
		if err := uc.gate.Wait(ctx); err != nil {
			res.Outcome = entity.BatchCancelled
			res.Err = err.Error()
			break
		}
		items = append(items, uc.crawlDetail(ctx, cat, link))
	}
	return items
}

func (uc *crawlUseCase) crawlDetail(ctx context.Context, cat entity.Category, link entity.Link) itemResult {
	page, err := uc.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		uc.metrics.FetchesTotal.WithLabelValues("detail", "failure").Inc()
		uc.metrics.CrawlFailures.WithLabelValues(cat.String(), "fetch").Inc()
		uc.logger.Warn("detail fetch failed",
			zap.String("category", cat.String()),
			zap.String("url", link.URL),
			zap.Error(err))
		return itemResult{err: err}
	}
	uc.metrics.FetchesTotal.WithLabelValues("detail", "success").Inc()

	article, err := crawler.ExtractArticle(uc.profile, page.HTML, page.FinalURL, cat)
	if err != nil {
		// Many of these at once for one source means the source redesigned
		// its markup and the profile needs updating.
		uc.metrics.CrawlFailures.WithLabelValues(cat.String(), "extract").Inc()
		uc.logger.Warn("article extraction failed",
			zap.String("category", cat.String()),
			zap.String("url", link.URL),
			zap.Error(err))
		return itemResult{err: err}
	}

	article.CrawledAt = time.Now()
	uc.metrics.ArticlesCrawled.WithLabelValues(cat.String()).Inc()
	return itemResult{article: article}
}

// storeBatch upserts the collected records and folds the per-record outcomes
// into the batch result. A store failure never rolls back what was already
// persisted; the result reflects "extracted N, stored M".
func (uc *crawlUseCase) storeBatch(ctx context.Context, articles []*entity.Article, res *entity.CrawlBatchResult) {
	if len(articles) == 0 {
		return
	}

	outcomes, err := uc.articles.Upsert(ctx, articles)
	for _, o := range outcomes {
		if o.Inserted {
			res.InsertedCount++
		} else {
			res.UpdatedCount++
		}
	}
	if err != nil {
		uc.logger.Error("article upsert failed",
			zap.String("category", res.Category.String()),
			zap.Int("stored", len(outcomes)),
			zap.Int("extracted", len(articles)),
			zap.Error(err))
		res.Err = err.Error()
		if len(outcomes) == 0 && res.Outcome == entity.BatchDone {
			// Store completely unavailable: run-level failure.
			res.Outcome = entity.BatchFailed
		}
	}

	stored := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		stored = append(stored, o.URL)
	}
	if err := uc.knownURLs.MarkKnown(ctx, stored, uc.knownTTL); err != nil {
		uc.logger.Warn("known-url cache update failed", zap.Error(err))
	}
}

func (uc *crawlUseCase) CrawlAll(ctx context.Context, cats []entity.Category, maxPerCategory int) []*entity.CrawlBatchResult {
	if len(cats) == 0 {
		cats = entity.AllCategories()
	}

	log := &entity.CrawlLog{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Status:    entity.CrawlStatusRunning,
	}
	logCreated := true
	if err := uc.crawlLogs.Create(ctx, log); err != nil {
		// The crawl is still worth running without its log row.
		uc.logger.Warn("failed to create crawl log", zap.Error(err))
		logCreated = false
	}

	results := make([]*entity.CrawlBatchResult, len(cats))
	jobs := make(chan int, len(cats))
	for i := range cats {
		jobs <- i
	}
	close(jobs)

	workers := uc.workers
	if workers > len(cats) {
		workers = len(cats)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := uc.CrawlCategory(ctx, cats[i], maxPerCategory)
				if err != nil {
					now := time.Now()
					res = &entity.CrawlBatchResult{
						Category:   cats[i],
						StartedAt:  now,
						FinishedAt: now,
						Outcome:    entity.BatchFailed,
						Err:        err.Error(),
					}
				}
				results[i] = res
			}
		}()
	}
	wg.Wait()

	if logCreated {
		status, total, errMsg := summarize(results)
		// The log write must survive run cancellation.
		if err := uc.crawlLogs.Finish(context.WithoutCancel(ctx), log.ID, status, total, errMsg); err != nil {
			uc.logger.Error("failed to finish crawl log", zap.Error(err))
		}
	}
	return results
}

// summarize folds per-category results into a crawl log status: failed when
// nothing ran to completion, partial when anything went wrong, success otherwise.
func summarize(results []*entity.CrawlBatchResult) (status string, total int, errMsg *string) {
	var clean, failed int
	var firstErr string
	for _, r := range results {
		total += r.SuccessCount
		switch {
		case r.Outcome != entity.BatchDone:
			failed++
		case r.FailureCount == 0 && r.Err == "":
			clean++
		}
		if firstErr == "" && r.Err != "" {
			firstErr = r.Err
		}
	}

	switch {
	case failed == len(results):
		status = entity.CrawlStatusFailed
	case clean == len(results):
		status = entity.CrawlStatusSuccess
	default:
		status = entity.CrawlStatusPartial
	}
	if firstErr != "" {
		errMsg = &firstErr
	}
	return status, total, errMsg
}

func (uc *crawlUseCase) Busy(cats []entity.Category) []entity.Category {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	var busy []entity.Category
	for _, c := range cats {
		if uc.inFlight[c] {
			busy = append(busy, c)
		}
	}
	return busy
}

func (uc *crawlUseCase) acquire(cat entity.Category) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.inFlight[cat] {
		return false
	}
	uc.inFlight[cat] = true
	return true
}

func (uc *crawlUseCase) release(cat entity.Category) {
	uc.mu.Lock()
	delete(uc.inFlight, cat)
	uc.mu.Unlock()
}
