package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/user/news-service/internal/delivery/http/request"
	"github.com/user/news-service/internal/delivery/http/response"
	"github.com/user/news-service/internal/entity"
	"github.com/user/news-service/internal/render"
	"github.com/user/news-service/internal/repository"
	"github.com/user/news-service/internal/usecase"
	"go.uber.org/zap"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	maxPerCategoryCap  = 50
	defaultPerCategory = 30
)

// Handler serves the news API.
type Handler struct {
	news       usecase.NewsReader
	crawler    usecase.Crawler
	logger     *zap.Logger
	pgPing     func(context.Context) error
	redisPing  func(context.Context) error
	runTimeout time.Duration
}

// NewHandler creates the API handler. runTimeout caps background crawl runs;
// zero disables the cap.
func NewHandler(
	news usecase.NewsReader,
	crawler usecase.Crawler,
	logger *zap.Logger,
	pgPing, redisPing func(context.Context) error,
	runTimeout time.Duration,
) *Handler {
	return &Handler{
		news:       news,
		crawler:    crawler,
		logger:     logger,
		pgPing:     pgPing,
		redisPing:  redisPing,
		runTimeout: runTimeout,
	}
}

// HandleListNews serves GET /api/news with optional category filter and pagination.
func (h *Handler) HandleListNews(w http.ResponseWriter, r *http.Request) {
	var category *entity.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		cat, ok := entity.ParseCategory(raw)
		if !ok {
			h.respondWithError(w, http.StatusBadRequest, "invalid category: "+raw)
			return
		}
		category = &cat
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	size := queryInt(r, "size", defaultPageSize)
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	articles, total, err := h.news.List(r.Context(), category, page, size)
	if err != nil {
		h.logger.Error("failed to list articles", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "could not list articles")
		return
	}

	items := make([]response.ArticleResponse, 0, len(articles))
	for _, a := range articles {
		items = append(items, response.FromArticle(a))
	}
	h.respondWithJSON(w, http.StatusOK, response.ArticleListResponse{
		Items:   items,
		Total:   total,
		Page:    page,
		Size:    size,
		HasNext: int64(page*size) < total,
	})
}

// HandleGetNews serves GET /api/news/{id}.
func (h *Handler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	article, ok := h.articleFromPath(w, r)
	if !ok {
		return
	}
	h.respondWithJSON(w, http.StatusOK, response.FromArticle(article))
}

// HandleGetTemplate serves GET /api/news/{id}/template.
func (h *Handler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	article, ok := h.articleFromPath(w, r)
	if !ok {
		return
	}
	h.respondWithJSON(w, http.StatusOK, response.TemplateResponse{
		ArticleID: article.ID,
		Template:  render.ArticleTemplate(article, time.Now()),
	})
}

// HandleGetCategories serves GET /api/categories.
func (h *Handler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.news.CategoryCounts(r.Context())
	if err != nil {
		h.logger.Error("failed to count categories", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "could not load categories")
		return
	}

	out := make([]response.CategoryResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, response.CategoryResponse{
			ID:    c.Category.String(),
			Name:  c.Name,
			Count: c.Count,
		})
	}
	h.respondWithJSON(w, http.StatusOK, out)
}

// HandleGetStatus serves GET /api/status.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.news.Status(r.Context())
	if err != nil {
		h.logger.Error("failed to read crawl status", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "could not read status")
		return
	}
	h.respondWithJSON(w, http.StatusOK, response.CrawlStatusResponse{
		LastCrawledAt: status.LastCrawledAt,
		TotalArticles: status.TotalArticles,
		Status:        status.Status,
		NextCrawlAt:   status.NextCrawlAt,
	})
}

// HandleTriggerCrawl serves POST /api/news/crawl. The batch runs in the
// background; the response only acknowledges the trigger, terminal status is
// retrievable via GET /api/status.
func (h *Handler) HandleTriggerCrawl(w http.ResponseWriter, r *http.Request) {
	var req request.CrawlRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	cats := make([]entity.Category, 0, len(req.Categories))
	for _, raw := range req.Categories {
		cat, ok := entity.ParseCategory(raw)
		if !ok {
			h.respondWithError(w, http.StatusBadRequest, "invalid category: "+raw)
			return
		}
		cats = append(cats, cat)
	}
	if len(cats) == 0 {
		cats = entity.AllCategories()
	}

	maxPer := req.MaxPerCategory
	if maxPer <= 0 {
		maxPer = defaultPerCategory
	}
	if maxPer > maxPerCategoryCap {
		maxPer = maxPerCategoryCap
	}

	if busy := h.crawler.Busy(cats); len(busy) > 0 {
		h.respondWithError(w, http.StatusConflict,
			fmt.Sprintf("crawl already running for category %s", busy[0]))
		return
	}

	go func() {
		ctx := context.Background()
		if h.runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
			defer cancel()
		}
		h.crawler.CrawlAll(ctx, cats, maxPer)
	}()

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	h.respondWithJSON(w, http.StatusAccepted, response.CrawlAcceptedResponse{
		Message:        "crawl started in background",
		Categories:     names,
		MaxPerCategory: maxPer,
	})
}

// HandleHealthCheck serves GET /api/health with dependency pings.
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"postgres": "healthy", "redis": "healthy"}
	if err := h.pgPing(ctx); err != nil {
		healthStatus["postgres"] = "unhealthy"
		h.logger.Error("health check failed for postgres", zap.Error(err))
	}
	if err := h.redisPing(ctx); err != nil {
		healthStatus["redis"] = "unhealthy"
		h.logger.Error("health check failed for redis", zap.Error(err))
	}

	if healthStatus["postgres"] != "healthy" || healthStatus["redis"] != "healthy" {
		h.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	h.respondWithJSON(w, http.StatusOK, healthStatus)
}

func (h *Handler) articleFromPath(w http.ResponseWriter, r *http.Request) (*entity.Article, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid article id")
		return nil, false
	}

	article, err := h.news.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.respondWithError(w, http.StatusNotFound, "article not found")
			return nil, false
		}
		h.logger.Error("failed to load article", zap.Int64("id", id), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "could not load article")
		return nil, false
	}
	return article, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
