package response

import (
	"time"

	"github.com/user/news-service/internal/entity"
)

// ArticleResponse is the persisted article schema as exposed to other layers.
// Field names and nullability are a compatibility contract; nullable fields
// serialize as JSON null, not as absent keys.
type ArticleResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Summary     *string    `json:"summary"`
	Content     *string    `json:"content"`
	Category    string     `json:"category"`
	Source      *string    `json:"source"`
	Author      *string    `json:"author"`
	ImageURL    *string    `json:"image_url"`
	PublishedAt *time.Time `json:"published_at"`
	CrawledAt   time.Time  `json:"crawled_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromArticle maps an entity to its response shape.
func FromArticle(a *entity.Article) ArticleResponse {
	return ArticleResponse{
		ID:          a.ID,
		Title:       a.Title,
		URL:         a.URL,
		Summary:     a.Summary,
		Content:     a.Content,
		Category:    a.Category.String(),
		Source:      a.Source,
		Author:      a.Author,
		ImageURL:    a.ImageURL,
		PublishedAt: a.PublishedAt,
		CrawledAt:   a.CrawledAt,
		CreatedAt:   a.CreatedAt,
	}
}

// ArticleListResponse is one page of articles.
type ArticleListResponse struct {
	Items   []ArticleResponse `json:"items"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
	HasNext bool              `json:"has_next"`
}

// CategoryResponse is one category with its article count.
type CategoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// CrawlStatusResponse reports the last crawl and the next scheduled one.
type CrawlStatusResponse struct {
	LastCrawledAt *time.Time `json:"last_crawled_at"`
	TotalArticles int64      `json:"total_articles"`
	Status        string     `json:"status"`
	NextCrawlAt   *time.Time `json:"next_crawl_at"`
}

// TemplateResponse carries the blog markdown for one article.
type TemplateResponse struct {
	ArticleID int64  `json:"article_id"`
	Template  string `json:"template"`
}

// CrawlAcceptedResponse acknowledges a background crawl trigger.
type CrawlAcceptedResponse struct {
	Message        string   `json:"message"`
	Categories     []string `json:"categories"`
	MaxPerCategory int      `json:"max_per_category"`
}
