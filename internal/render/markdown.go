// Package render turns stored articles into blog-ready markdown.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/news-service/internal/entity"
)

const (
	maxSummaryPoints = 3
	minPointLength   = 10
)

// ArticleTemplate renders one article as a paste-ready blog post block.
func ArticleTemplate(a *entity.Article, now time.Time) string {
	dateStr := now.Format("2006-01-02")
	if a.PublishedAt != nil {
		dateStr = a.PublishedAt.Format("2006-01-02")
	}
	source := "알 수 없음"
	if a.Source != nil && *a.Source != "" {
		source = *a.Source
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## [%s] %s\n\n", a.Category.KoreanName(), a.Title)
	fmt.Fprintf(&b, "📅 작성일: %s\n", dateStr)
	fmt.Fprintf(&b, "📰 출처: %s\n\n", source)
	b.WriteString("### 핵심 요약\n")
	b.WriteString(summaryPoints(a.Summary))
	b.WriteString("\n\n### 원문 링크\n")
	fmt.Fprintf(&b, "[기사 원문 보기](%s)\n\n---\n", a.URL)
	return b.String()
}

// summaryPoints splits a summary into up to three sentence bullets.
func summaryPoints(summary *string) string {
	if summary == nil || strings.TrimSpace(*summary) == "" {
		return "- 요약 정보 없음"
	}

	var points []string
	for _, sentence := range strings.SplitAfter(*summary, ".") {
		sentence = strings.TrimSpace(sentence)
		if len([]rune(sentence)) > minPointLength {
			points = append(points, "- "+sentence)
			if len(points) >= maxSummaryPoints {
				break
			}
		}
	}
	if len(points) == 0 {
		s := []rune(*summary)
		if len(s) > 200 {
			s = s[:200]
		}
		return "- " + strings.TrimSpace(string(s))
	}
	return strings.Join(points, "\n")
}

// CategorySection renders a numbered article list under a category heading.
// Empty sections render to nothing.
func CategorySection(cat entity.Category, articles []*entity.Article) string {
	if len(articles) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", cat.KoreanName())
	for i, a := range articles {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, a.Title)
		if a.Summary != nil && strings.TrimSpace(*a.Summary) != "" {
			b.WriteString(strings.TrimSpace(*a.Summary))
			b.WriteString("\n\n")
		}
		source := "원문"
		if a.Source != nil && *a.Source != "" {
			source = *a.Source
		}
		fmt.Fprintf(&b, "> 출처: [%s](%s)\n\n", source, a.URL)
	}
	return b.String()
}

// DailyDigest renders a full digest document grouped by category, in the
// fixed category order.
func DailyDigest(date time.Time, byCategory map[entity.Category][]*entity.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# [%s] 오늘의 뉴스 모음\n\n", date.Format("2006.01.02"))
	b.WriteString("오늘의 주요 뉴스를 카테고리별로 정리했습니다.\n\n---\n\n")

	total := 0
	for _, cat := range entity.AllCategories() {
		articles := byCategory[cat]
		if len(articles) == 0 {
			continue
		}
		total += len(articles)
		b.WriteString(CategorySection(cat, articles))
		b.WriteString("---\n\n")
	}

	fmt.Fprintf(&b, "\n*총 %d개의 기사가 수집되었습니다.*\n\n", total)
	b.WriteString("*이 포스트는 자동으로 생성되었습니다.*\n")
	return b.String()
}
