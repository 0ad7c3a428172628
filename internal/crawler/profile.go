package crawler

import (
	"fmt"

	"github.com/user/news-service/internal/entity"
)

// ListingSelectors are the structural rules for pulling article anchors out of
// a category listing page.
type ListingSelectors struct {
	// Areas are the headline blocks scanned first; anchors inside them carry
	// editorial priority.
	Areas string
	// Links matches article anchors inside an area.
	Links string
	// Items are the plain list entries scanned after the headline blocks.
	Items string
	// ItemLink matches the anchor inside a list item.
	ItemLink string
}

// DetailSelectors are the structural rules for pulling article fields out of a
// detail page. Every selector is a comma-joined fallback chain; the first match
// wins.
type DetailSelectors struct {
	Title         string
	Body          string
	Source        string
	Author        string
	PublishedTime string
	Image         string
	// Remove lists boilerplate inside the body that must be stripped before
	// text extraction (share widgets, reporter blocks, scripts).
	Remove string
}

// Profile is the extraction profile for one news source: a pure-data record of
// the selectors and URLs that encode the source's page shapes. The markup is a
// versioned contract owned by the source; when a source redesigns, its profile
// is what gets updated.
type Profile struct {
	Name     string
	BaseURL  string
	LinkHost string // anchors resolving outside this host are discarded
	Sections map[entity.Category]string
	Listing  ListingSelectors
	Detail   DetailSelectors
}

// SectionURL returns the listing page URL for a category.
func (p *Profile) SectionURL(cat entity.Category) string {
	return fmt.Sprintf("%s/section/%s", p.BaseURL, p.Sections[cat])
}

// Naver returns the extraction profile for Naver News, the fixed known source.
func Naver() *Profile {
	return &Profile{
		Name:     "naver",
		BaseURL:  "https://news.naver.com",
		LinkHost: "news.naver.com",
		Sections: map[entity.Category]string{
			entity.CategoryPolitics: "100",
			entity.CategoryEconomy:  "101",
			entity.CategorySociety:  "102",
			entity.CategoryLife:     "103",
			entity.CategoryWorld:    "104",
			entity.CategoryIT:       "105",
		},
		Listing: ListingSelectors{
			Areas:    ".sa_list, .section_headline, .cluster_group",
			Links:    "a.sa_text_title, a.cluster_text_headline, a[class*='title']",
			Items:    ".sa_item, .cluster_item, li[class*='news']",
			ItemLink: "a[class*='title'], a[class*='headline']",
		},
		Detail: DetailSelectors{
			Title:         "#title_area, .media_end_head_headline, h2.end_tit, #articleTitle",
			Body:          "#dic_area, .newsct_article, #articleBodyContents, .article_body",
			Source:        ".media_end_head_top_logo img, .press_logo img, .media_name",
			Author:        ".media_end_head_journalist_name, .byline, .reporter",
			PublishedTime: ".media_end_head_info_datestamp_time, .article_info .date, time",
			Image:         "#img1, .end_photo_org img, .article_img img",
			Remove:        "script, style, .reporter_area",
		},
	}
}
