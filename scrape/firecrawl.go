package scrape

import (
	"context"
	"net/url"

	"github.com/mendableai/firecrawl-go"
	"github.com/pkg/errors"

	"github.com/mempirate/scrapemm/ezmm"
)

const FIRECRAWL_API = "https://api.firecrawl.dev"

// FirecrawlScraper is a scraper that uses the Firecrawl API to scrape web pages.
type FirecrawlScraper struct {
	app *firecrawl.FirecrawlApp

	params *firecrawl.ScrapeParams
}

func NewFirecrawlScraper(key string) (*FirecrawlScraper, error) {
	app, err := firecrawl.NewFirecrawlApp(key, FIRECRAWL_API)
	if err != nil {
		return nil, err
	}

	scrapePDF := true
	timeout := 90_000

	defaultParams := &firecrawl.ScrapeParams{
		Formats:  []string{"markdown"},
		ParsePDF: &scrapePDF,
		Timeout:  &timeout,
	}

	return &FirecrawlScraper{
		app:    app,
		params: defaultParams,
	}, nil
}

// Scrape scrapes the given URL and returns its markdown rendering along with
// the media assets Firecrawl discovered in it.
//
// The Firecrawl client has no context support, so cancellation is only
// observed before dispatch; the scrape itself is bounded by the params
// timeout (90s by default).
func (s *FirecrawlScraper) Scrape(ctx context.Context, url *url.URL) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.app.ScrapeURL(url.String(), s.params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scrape URL %s", url.String())
	}

	return &Page{
		Markdown:  doc.Markdown,
		MediaURLs: ezmm.MediaURLs(doc.Markdown),
	}, nil
}
