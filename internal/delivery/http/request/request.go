package request

// CrawlRequest is the payload for the manual crawl trigger. Empty categories
// means all categories.
type CrawlRequest struct {
	Categories     []string `json:"categories"`
	MaxPerCategory int      `json:"max_per_category"`
}
