package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/news-service/internal/entity"
	"github.com/user/news-service/pkg/utils"
)

// listingCandidateLimit bounds how many anchors one listing page can yield.
const listingCandidateLimit = 20

// ExtractListingLinks parses a category listing page and returns candidate
// article links in encountered order (top-to-bottom mirrors editorial
// priority, which decides what survives the per-category cap). Same-URL
// repeats within the page are dropped; relative hrefs are resolved against
// baseURL; anchors leaving the profile's host are discarded. An empty result
// is valid: it means the page listed nothing, not that parsing failed.
func ExtractListingLinks(p *Profile, html, baseURL string) ([]entity.Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var links []entity.Link
	seen := make(map[string]bool)

	collect := func(sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		title := CollapseWhitespace(sel.Text())
		if !ok || href == "" || title == "" {
			return
		}
		abs, err := utils.ToAbsoluteURL(base, href)
		if err != nil || !utils.SameHost(abs, p.LinkHost) {
			return
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, entity.Link{URL: abs, TitleHint: title})
	}

	// Headline blocks first, then the plain list items. Sources repeat top
	// stories across sections; the seen set keeps the first occurrence.
	doc.Find(p.Listing.Areas).Each(func(_ int, area *goquery.Selection) {
		area.Find(p.Listing.Links).Each(func(_ int, a *goquery.Selection) {
			collect(a)
		})
	})
	doc.Find(p.Listing.Items).Each(func(_ int, item *goquery.Selection) {
		if a := item.Find(p.Listing.ItemLink).First(); a.Length() > 0 {
			collect(a)
		}
	})

	if len(links) > listingCandidateLimit {
		links = links[:listingCandidateLimit]
	}
	return links, nil
}
