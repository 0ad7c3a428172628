package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/news-service/internal/crawler"
	"github.com/user/news-service/internal/entity"
	"github.com/user/news-service/internal/repository"
	"github.com/user/news-service/pkg/metrics"
	"go.uber.org/zap"
)

type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{pages: map[string]string{}, errs: map[string]error{}}
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) (*crawler.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	html, ok := f.pages[rawURL]
	if !ok {
		return nil, fmt.Errorf("no page for %s", rawURL)
	}
	return &crawler.Page{HTML: html, FinalURL: rawURL, StatusCode: 200}, nil
}

func (f *stubFetcher) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type stubArticleRepo struct {
	mu        sync.Mutex
	existing  map[string]bool
	upserted  []*entity.Article
	upsertErr error
}

func newStubArticleRepo() *stubArticleRepo {
	return &stubArticleRepo{existing: map[string]bool{}}
}

func (s *stubArticleRepo) Upsert(ctx context.Context, articles []*entity.Article) ([]repository.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	outcomes := make([]repository.UpsertOutcome, 0, len(articles))
	for _, a := range articles {
		outcomes = append(outcomes, repository.UpsertOutcome{URL: a.URL, Inserted: !s.existing[a.URL]})
		s.existing[a.URL] = true
		s.upserted = append(s.upserted, a)
	}
	return outcomes, nil
}

func (s *stubArticleRepo) FindExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]bool{}
	for _, u := range urls {
		if s.existing[u] {
			out[u] = true
		}
	}
	return out, nil
}

func (s *stubArticleRepo) List(ctx context.Context, category *entity.Category, page, size int) ([]*entity.Article, int64, error) {
	return nil, 0, nil
}

func (s *stubArticleRepo) FindByID(ctx context.Context, id int64) (*entity.Article, error) {
	return nil, repository.ErrNotFound
}

func (s *stubArticleRepo) CountByCategory(ctx context.Context) (map[entity.Category]int64, error) {
	return map[entity.Category]int64{}, nil
}

func (s *stubArticleRepo) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.upserted)), nil
}

type stubKnownURLRepo struct {
	mu     sync.Mutex
	known  map[string]bool
	marked [][]string
}

func newStubKnownURLRepo() *stubKnownURLRepo {
	return &stubKnownURLRepo{known: map[string]bool{}}
}

func (s *stubKnownURLRepo) MarkKnown(ctx context.Context, urls []string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(urls) > 0 {
		s.marked = append(s.marked, append([]string(nil), urls...))
	}
	for _, u := range urls {
		s.known[u] = true
	}
	return nil
}

func (s *stubKnownURLRepo) FilterKnown(ctx context.Context, urls []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]bool{}
	for _, u := range urls {
		if s.known[u] {
			out[u] = true
		}
	}
	return out, nil
}

type finishCall struct {
	id     string
	status string
	total  int
	errMsg *string
}

type stubCrawlLogRepo struct {
	mu       sync.Mutex
	created  []*entity.CrawlLog
	finished []finishCall
	latest   *entity.CrawlLog
}

func (s *stubCrawlLogRepo) Create(ctx context.Context, log *entity.CrawlLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, log)
	return nil
}

func (s *stubCrawlLogRepo) Finish(ctx context.Context, id, status string, totalArticles int, errorMessage *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, finishCall{id: id, status: status, total: totalArticles, errMsg: errorMessage})
	return nil
}

func (s *stubCrawlLogRepo) Latest(ctx context.Context) (*entity.CrawlLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, nil
}

func testProfile() *crawler.Profile {
	sections := map[entity.Category]string{}
	for i, c := range entity.AllCategories() {
		sections[c] = fmt.Sprintf("%d", 100+i)
	}
	return &crawler.Profile{
		Name:     "test",
		BaseURL:  "https://news.example.com",
		LinkHost: "news.example.com",
		Sections: sections,
		Listing: crawler.ListingSelectors{
			Areas:    ".headlines",
			Links:    "a.story",
			Items:    "li.item",
			ItemLink: "a",
		},
		Detail: crawler.DetailSelectors{
			Title:         "h1",
			Body:          ".body",
			Source:        ".src",
			Author:        ".author",
			PublishedTime: "time",
			Image:         ".photo img",
			Remove:        "script",
		},
	}
}

// seedCategory stubs a listing page with n article links plus their detail
// pages, and returns the article URLs in listing order.
func seedCategory(f *stubFetcher, p *crawler.Profile, cat entity.Category, n int) []string {
	var listing strings.Builder
	listing.WriteString(`<div class="headlines">`)
	urls := make([]string, 0, n)
	for i := 0; i < n; i++ {
		u := fmt.Sprintf("https://news.example.com/a/%s/%d", cat, i)
		urls = append(urls, u)
		fmt.Fprintf(&listing, `<a class="story" href="%s">기사 %d</a>`, u, i)
		f.pages[u] = fmt.Sprintf(`<h1>기사 %d</h1><div class="body">본문 %d</div>`, i, i)
	}
	listing.WriteString(`</div>`)
	f.pages[p.SectionURL(cat)] = listing.String()
	return urls
}

type fixture struct {
	fetcher   *stubFetcher
	articles  *stubArticleRepo
	knownURLs *stubKnownURLRepo
	crawlLogs *stubCrawlLogRepo
	profile   *crawler.Profile
	uc        Crawler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		fetcher:   newStubFetcher(),
		articles:  newStubArticleRepo(),
		knownURLs: newStubKnownURLRepo(),
		crawlLogs: &stubCrawlLogRepo{},
		profile:   testProfile(),
	}
	fx.uc = NewCrawlUseCase(
		fx.profile,
		fx.fetcher,
		fx.articles,
		fx.knownURLs,
		fx.crawlLogs,
		metrics.NewWith(prometheus.NewRegistry()),
		zap.NewNop(),
		CrawlConfig{RequestDelay: 0, CategoryWorkers: 2, KnownURLTTL: time.Hour},
	)
	return fx
}

func TestCrawlCategoryHappyPath(t *testing.T) {
	fx := newFixture(t)
	urls := seedCategory(fx.fetcher, fx.profile, entity.CategoryPolitics, 3)

	res, err := fx.uc.CrawlCategory(context.Background(), entity.CategoryPolitics, 30)
	require.NoError(t, err)

	assert.Equal(t, entity.BatchDone, res.Outcome)
	assert.Equal(t, 3, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)
	assert.Equal(t, 3, res.InsertedCount)
	assert.Equal(t, 0, res.UpdatedCount)
	assert.Empty(t, res.Err)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))

	// Listing fetched first, then details in listing order.
	expected := append([]string{fx.profile.SectionURL(entity.CategoryPolitics)}, urls...)
	assert.Equal(t, expected, fx.fetcher.urls())

	require.Len(t, fx.articles.upserted, 3)
	for i, a := range fx.articles.upserted {
		assert.Equal(t, urls[i], a.URL)
		assert.Equal(t, entity.CategoryPolitics, a.Category)
		assert.False(t, a.CrawledAt.IsZero())
	}

	require.NotEmpty(t, fx.knownURLs.marked)
	assert.ElementsMatch(t, urls, fx.knownURLs.marked[len(fx.knownURLs.marked)-1])
}

func TestCrawlCategoryAppliesCap(t *testing.T) {
	fx := newFixture(t)
	urls := seedCategory(fx.fetcher, fx.profile, entity.CategoryEconomy, 5)

	res, err := fx.uc.CrawlCategory(context.Background(), entity.CategoryEconomy, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	expected := []string{fx.profile.SectionURL(entity.CategoryEconomy), urls[0], urls[1]}
	assert.Equal(t, expected, fx.fetcher.urls())
}

func TestCrawlCategorySkipsKnownURLs(t *testing.T) {
	fx := newFixture(t)
	urls := seedCategory(fx.fetcher, fx.profile, entity.CategorySociety, 3)

	// One URL known to the cache, another only to the store.
	fx.knownURLs.known[urls[1]] = true
	fx.articles.existing[urls[2]] = true

	res, err := fx.uc.CrawlCategory(context.Background(), entity.CategorySociety, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	expected := []string{fx.profile.SectionURL(entity.CategorySociety), urls[0]}
	assert.Equal(t, expected, fx.fetcher.urls())

	// The store-only hit gets refreshed into the cache.
	assert.True(t, fx.knownURLs.known[urls[2]])
}

func TestCrawlCategoryPartialFailure(t *testing.T) {
	fx := newFixture(t)
	urls := seedCategory(fx.fetcher, fx.profile, entity.CategoryWorld, 3)
	fx.fetcher.errs[urls[1]] = errors.New("connection reset")

	res, err := fx.uc.CrawlCategory(context.Background(), entity.CategoryWorld, 30)
	require.NoError(t, err)

	assert.Equal(t, entity.BatchDone, res.Outcome)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	require.Len(t, fx.articles.upserted, 2)
	assert.Equal(t, urls[0], fx.articles.upserted[0].URL)
	assert.Equal(t, urls[2], fx.articles.upserted[1].URL)
}

func TestCrawlCategoryListingFailureIsFatal(t *testing.T) {
	fx := newFixture(t)
	listingURL := fx.profile.SectionURL(entity.CategoryIT)
	fx.fetcher.errs[listingURL] = errors.New("503 from source")

	res, err := fx.uc.CrawlCategory(context.Background(), entity.CategoryIT, 30)
	require.NoError(t, err)

	assert.Equal(t, entity.BatchFailed, res.Outcome)
	assert.NotEmpty(t, res.Err)
	assert.Equal(t, 0, res.SuccessCount)
	assert.Equal(t, []string{listingURL}, fx.fetcher.urls())
	assert.Empty(t, fx.articles.upserted)
}

func TestCrawlCategoryRejectsConcurrentRun(t *testing.T) {
	fx := newFixture(t)
	impl := fx.uc.(*crawlUseCase)
	require.True(t, impl.acquire(entity.CategoryLife))
	defer impl.release(entity.CategoryLife)

	res, err := fx.uc.CrawlCategory(context.Background(), entity.CategoryLife, 30)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCrawlInProgress)

	assert.Equal(t, []entity.Category{entity.CategoryLife},
		fx.uc.Busy([]entity.Category{entity.CategoryLife, entity.CategoryWorld}))
}

func TestCrawlCategoryCancelledContext(t *testing.T) {
	fx := newFixture(t)
	seedCategory(fx.fetcher, fx.profile, entity.CategoryPolitics, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := fx.uc.CrawlCategory(ctx, entity.CategoryPolitics, 30)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchCancelled, res.Outcome)
	assert.NotEmpty(t, res.Err)
}

func TestCrawlCategoryStoreFailure(t *testing.T) {
	fx := newFixture(t)
	seedCategory(fx.fetcher, fx.profile, entity.CategoryEconomy, 2)
	fx.articles.upsertErr = errors.New("database is down")

	res, err := fx.uc.CrawlCategory(context.Background(), entity.CategoryEconomy, 30)
	require.NoError(t, err)

	assert.Equal(t, entity.BatchFailed, res.Outcome)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 0, res.InsertedCount)
	assert.Contains(t, res.Err, "database is down")
}

func TestCrawlAllAggregatesAndLogs(t *testing.T) {
	fx := newFixture(t)
	seedCategory(fx.fetcher, fx.profile, entity.CategoryPolitics, 2)
	fx.fetcher.errs[fx.profile.SectionURL(entity.CategoryEconomy)] = errors.New("listing unavailable")

	cats := []entity.Category{entity.CategoryPolitics, entity.CategoryEconomy}
	results := fx.uc.CrawlAll(context.Background(), cats, 30)

	require.Len(t, results, 2)
	assert.Equal(t, entity.CategoryPolitics, results[0].Category)
	assert.Equal(t, entity.BatchDone, results[0].Outcome)
	assert.Equal(t, entity.BatchFailed, results[1].Outcome)

	require.Len(t, fx.crawlLogs.created, 1)
	assert.Equal(t, entity.CrawlStatusRunning, fx.crawlLogs.created[0].Status)
	assert.NotEmpty(t, fx.crawlLogs.created[0].ID)

	require.Len(t, fx.crawlLogs.finished, 1)
	fin := fx.crawlLogs.finished[0]
	assert.Equal(t, fx.crawlLogs.created[0].ID, fin.id)
	assert.Equal(t, entity.CrawlStatusPartial, fin.status)
	assert.Equal(t, 2, fin.total)
	require.NotNil(t, fin.errMsg)
	assert.Contains(t, *fin.errMsg, "listing unavailable")
}

func TestCrawlAllSuccessStatus(t *testing.T) {
	fx := newFixture(t)
	seedCategory(fx.fetcher, fx.profile, entity.CategoryPolitics, 1)
	seedCategory(fx.fetcher, fx.profile, entity.CategoryEconomy, 1)

	fx.uc.CrawlAll(context.Background(), []entity.Category{entity.CategoryPolitics, entity.CategoryEconomy}, 30)

	require.Len(t, fx.crawlLogs.finished, 1)
	assert.Equal(t, entity.CrawlStatusSuccess, fx.crawlLogs.finished[0].status)
	assert.Equal(t, 2, fx.crawlLogs.finished[0].total)
	assert.Nil(t, fx.crawlLogs.finished[0].errMsg)
}

func TestCrawlAllDefaultsToAllCategories(t *testing.T) {
	fx := newFixture(t)
	for _, c := range entity.AllCategories() {
		seedCategory(fx.fetcher, fx.profile, c, 0)
	}

	results := fx.uc.CrawlAll(context.Background(), nil, 30)

	require.Len(t, results, len(entity.AllCategories()))
	for i, c := range entity.AllCategories() {
		assert.Equal(t, c, results[i].Category)
		assert.Equal(t, entity.BatchDone, results[i].Outcome)
	}
}

func TestSummarize(t *testing.T) {
	done := func(success, failures int, errMsg string) *entity.CrawlBatchResult {
		return &entity.CrawlBatchResult{Outcome: entity.BatchDone, SuccessCount: success, FailureCount: failures, Err: errMsg}
	}
	failed := func(errMsg string) *entity.CrawlBatchResult {
		return &entity.CrawlBatchResult{Outcome: entity.BatchFailed, Err: errMsg}
	}

	tests := []struct {
		name       string
		results    []*entity.CrawlBatchResult
		wantStatus string
		wantTotal  int
		wantErr    string
	}{
		{
			name:       "all clean",
			results:    []*entity.CrawlBatchResult{done(3, 0, ""), done(2, 0, "")},
			wantStatus: entity.CrawlStatusSuccess,
			wantTotal:  5,
		},
		{
			name:       "one category failed",
			results:    []*entity.CrawlBatchResult{done(3, 0, ""), failed("boom")},
			wantStatus: entity.CrawlStatusPartial,
			wantTotal:  3,
			wantErr:    "boom",
		},
		{
			name:       "item failures degrade to partial",
			results:    []*entity.CrawlBatchResult{done(4, 1, "")},
			wantStatus: entity.CrawlStatusPartial,
			wantTotal:  4,
		},
		{
			name:       "everything failed",
			results:    []*entity.CrawlBatchResult{failed("a"), failed("b")},
			wantStatus: entity.CrawlStatusFailed,
			wantErr:    "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, total, errMsg := summarize(tt.results)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantTotal, total)
			if tt.wantErr == "" {
				assert.Nil(t, errMsg)
			} else {
				require.NotNil(t, errMsg)
				assert.Equal(t, tt.wantErr, *errMsg)
			}
		})
	}
}
