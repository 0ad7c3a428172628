package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/news-service/internal/entity"
	"github.com/user/news-service/pkg/utils"
)

// ErrTitleMissing means the detail page matched none of the profile's title
// selectors. Either the URL is not an article page or the source redesigned
// its markup; the caller records it as a per-item failure and moves on.
var ErrTitleMissing = errors.New("article title not found")

// ExtractArticle parses a detail page into an article record. Title and the
// page structure around it are required; every other field is nullable, so a
// page without a byline, date or image still yields a storable article.
// CrawledAt, ID and CreatedAt are left for the caller and the store.
func ExtractArticle(p *Profile, html, pageURL string, cat entity.Category) (*entity.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse detail html: %w", err)
	}

	title := CollapseWhitespace(doc.Find(p.Detail.Title).First().Text())
	if title == "" {
		return nil, fmt.Errorf("%w: %s", ErrTitleMissing, pageURL)
	}

	article := &entity.Article{
		Title:    title,
		URL:      pageURL,
		Category: cat,
	}

	if body := doc.Find(p.Detail.Body).First(); body.Length() > 0 {
		body.Find(p.Detail.Remove).Remove()
		content := CollapseWhitespace(body.Text())
		if content != "" {
			article.Content = &content
			article.Summary = Summarize(content, SummaryLimit)
		}
	}

	if source := extractSource(doc, p.Detail.Source); source != "" {
		article.Source = &source
	}
	if author := CollapseWhitespace(doc.Find(p.Detail.Author).First().Text()); author != "" {
		article.Author = &author
	}
	article.PublishedAt = extractPublishedAt(doc, p.Detail.PublishedTime)
	article.ImageURL = extractImageURL(doc, p.Detail.Image, pageURL)

	return article, nil
}

// extractSource reads the outlet name, preferring the logo image's alt/title
// text over element text.
func extractSource(doc *goquery.Document, selector string) string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	if alt, ok := sel.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
		return CollapseWhitespace(alt)
	}
	if title, ok := sel.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return CollapseWhitespace(title)
	}
	return CollapseWhitespace(sel.Text())
}

// extractPublishedAt reads the publish timestamp, preferring machine-readable
// attributes over the rendered text.
func extractPublishedAt(doc *goquery.Document, selector string) *time.Time {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	raw := ""
	if v, ok := sel.Attr("data-date-time"); ok && v != "" {
		raw = v
	} else if v, ok := sel.Attr("datetime"); ok && v != "" {
		raw = v
	} else {
		raw = sel.Text()
	}
	return ParseTimestamp(raw)
}

// extractImageURL reads the representative image, resolving relative sources
// against the page URL.
func extractImageURL(doc *goquery.Document, selector, pageURL string) *string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	src, ok := sel.Attr("src")
	if !ok || src == "" {
		if src, ok = sel.Attr("data-src"); !ok || src == "" {
			return nil
		}
	}
	if base, err := url.Parse(pageURL); err == nil {
		if abs, err := utils.ToAbsoluteURL(base, src); err == nil {
			src = abs
		}
	}
	return &src
}
