package scrape

import (
	"context"
	"net/url"
)

// Page is the raw result of scraping a single URL: its markdown rendering and
// the media asset URLs discovered in it, in document order.
type Page struct {
	Markdown  string
	MediaURLs []string
}

// Scraper is an interface for scraping backends that render arbitrary web
// pages. The backend owns rendering, authentication and rate limits.
type Scraper interface {
	Scrape(ctx context.Context, url *url.URL) (*Page, error)
}
