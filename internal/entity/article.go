package entity

import "time"

// Article mirrors the `articles` PostgreSQL table schema.
// URL is the natural key: a later crawl observing the same URL is an update of
// the mutable fields, never a new row. ID and CreatedAt are assigned by the
// store on first insert and immutable afterwards.
type Article struct {
	ID          int64
	Title       string
	URL         string
	Summary     *string
	Content     *string
	Category    Category
	Source      *string
	Author      *string
	ImageURL    *string
	PublishedAt *time.Time
	CrawledAt   time.Time
	CreatedAt   time.Time
}

// Link is one candidate article anchor extracted from a listing page.
// TitleHint is the anchor text; the authoritative title comes from the detail
// page.
type Link struct {
	URL       string
	TitleHint string
}
