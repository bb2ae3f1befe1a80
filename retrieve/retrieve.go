// Package retrieve is the entry point of the library: it turns a URL into a
// multimodal sequence by classifying the platform and dispatching to the
// matching backend.
package retrieve

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mempirate/scrapemm/ezmm"
	"github.com/mempirate/scrapemm/log"
	"github.com/mempirate/scrapemm/media"
	"github.com/mempirate/scrapemm/platform"
	"github.com/mempirate/scrapemm/scrape"
	"github.com/mempirate/scrapemm/telegram"
	"github.com/mempirate/scrapemm/twitter"
)

// Error taxonomy. Failures wrap exactly one of these sentinels, so callers
// distinguish them with errors.Is. Context cancellation propagates as-is.
var (
	// ErrInvalidInput marks a malformed or empty source URL.
	ErrInvalidInput = errors.New("invalid source URL")
	// ErrUnsupportedPlatform marks a recognized platform with no retrieval
	// path yet (Facebook, Instagram, Threads).
	ErrUnsupportedPlatform = errors.New("platform not supported")
	// ErrAuthentication marks a credential rejected by a platform API.
	ErrAuthentication = errors.New("authentication failed")
	// ErrRetrieval marks a network or backend failure during fetch.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrParse marks backend content that cannot be normalized.
	ErrParse = errors.New("failed to normalize content")
)

// DefaultConcurrency caps parallel fetches in RetrieveAll.
const DefaultConcurrency = 20

type Option func(*Retriever)

// WithScraper sets the scraping backend for generic web pages.
func WithScraper(s scrape.Scraper) Option {
	return func(r *Retriever) { r.scraper = s }
}

// WithTwitter sets the X API client. Without one, X post URLs fall back to
// the scraping backend.
func WithTwitter(c *twitter.Client) Option {
	return func(r *Retriever) { r.twitter = c }
}

// WithTelegram overrides the default Telegram client.
func WithTelegram(c *telegram.Client) Option {
	return func(r *Retriever) { r.telegram = c }
}

// WithMediaStore enables eager media downloads: every media item in a
// retrieved sequence is downloaded into the store and referenced by its
// local path.
func WithMediaStore(s *media.Store) Option {
	return func(r *Retriever) { r.store = s }
}

// WithKeepHyperlinks keeps hyperlink URLs in retrieved text. By default only
// the hypertext is kept.
func WithKeepHyperlinks() Option {
	return func(r *Retriever) { r.keepLinks = true }
}

// WithConcurrency sets the parallel fetch limit for RetrieveAll.
func WithConcurrency(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.limit = n
		}
	}
}

// Retriever retrieves web content and normalizes it into multimodal
// sequences. It holds no per-request state: every call is independent and
// concurrent calls are safe.
type Retriever struct {
	scraper  scrape.Scraper
	twitter  *twitter.Client
	telegram *telegram.Client
	store    *media.Store

	keepLinks bool
	limit     int

	httpClient *http.Client
	log        zerolog.Logger
}

func New(opts ...Option) *Retriever {
	r := &Retriever{
		telegram:   telegram.NewClient(),
		limit:      DefaultConcurrency,
		httpClient: &http.Client{},
		log:        log.NewLogger("retrieve"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Retrieve downloads the content at the given URL and returns it as a
// multimodal sequence of text and media, in document order. It returns the
// complete sequence or an error; there are no partial results. The operation
// is bounded by ctx.
func (r *Retriever) Retrieve(ctx context.Context, rawURL string) (*ezmm.MultimodalSequence, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	p := platform.Classify(u)
	if !p.Supported() {
		return nil, errors.Wrapf(ErrUnsupportedPlatform, "%s", p)
	}

	r.log.Debug().Str("url", rawURL).Stringer("platform", p).Msg("Retrieving URL")

	var seq *ezmm.MultimodalSequence

	switch p {
	case platform.XTwitter:
		seq, err = r.retrieveTweet(ctx, u)
	case platform.Telegram:
		seq, err = r.retrieveTelegram(ctx, u)
	default:
		seq, err = r.scrapeWeb(ctx, u)
	}

	if err != nil {
		return nil, err
	}

	if r.store != nil {
		r.localizeMedia(ctx, seq)
	}

	return seq, nil
}

// RetrieveAll retrieves multiple URLs concurrently, bounded by the configured
// limit. Duplicate URLs are fetched once. The result slice is parallel to the
// input; a URL whose retrieval failed yields a nil entry and the failure is
// logged.
func (r *Retriever) RetrieveAll(ctx context.Context, urls []string) []*ezmm.MultimodalSequence {
	var mu sync.Mutex
	results := make(map[string]*ezmm.MultimodalSequence, len(urls))

	var g errgroup.Group
	g.SetLimit(r.limit)

	for _, rawURL := range urls {
		mu.Lock()
		if _, seen := results[rawURL]; seen {
			mu.Unlock()
			continue
		}
		results[rawURL] = nil
		mu.Unlock()

		g.Go(func() error {
			seq, err := r.Retrieve(ctx, rawURL)
			if err != nil {
				r.log.Error().Err(err).Str("url", rawURL).Msg("Failed to retrieve URL")
				return nil
			}

			mu.Lock()
			results[rawURL] = seq
			mu.Unlock()

			return nil
		})
	}

	g.Wait()

	out := make([]*ezmm.MultimodalSequence, len(urls))
	for i, rawURL := range urls {
		out[i] = results[rawURL]
	}

	return out
}

func parseURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "empty URL")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "%q: %s", rawURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Wrapf(ErrInvalidInput, "%q is not an absolute http(s) URL", rawURL)
	}

	return u, nil
}

func (r *Retriever) retrieveTweet(ctx context.Context, u *url.URL) (*ezmm.MultimodalSequence, error) {
	id, ok := twitter.PostID(u)
	if !ok || r.twitter == nil {
		// Profile pages, search URLs, or no API access: the scraping backend
		// is the only remaining path.
		return r.scrapeWeb(ctx, u)
	}

	tweet, err := r.twitter.GetTweet(ctx, id)
	if err != nil {
		return nil, mapClientErr(ctx, err, twitter.ErrUnauthorized, twitter.ErrBadResponse)
	}

	return tweet.Sequence(), nil
}

func (r *Retriever) retrieveTelegram(ctx context.Context, u *url.URL) (*ezmm.MultimodalSequence, error) {
	channel, id, ok := telegram.MessageRef(u)
	if !ok {
		// Channel overview pages have no embed representation.
		return r.scrapeWeb(ctx, u)
	}

	msg, err := r.telegram.GetMessage(ctx, channel, id)
	if err != nil {
		// Deleted or private messages surface an error widget instead of
		// content; both that and an unparseable page are normalization
		// failures, not transport ones.
		return nil, mapClientErr(ctx, err, nil, telegram.ErrBadResponse, telegram.ErrNotFound)
	}

	if !r.keepLinks {
		msg.Text = ezmm.StripLinks(msg.Text)
	}

	return msg.Sequence(), nil
}

func (r *Retriever) scrapeWeb(ctx context.Context, u *url.URL) (*ezmm.MultimodalSequence, error) {
	if r.scraper == nil {
		return nil, errors.Wrap(ErrRetrieval, "no scraping backend configured")
	}

	page, err := r.scraper.Scrape(ctx, u)
	if err != nil {
		return nil, mapClientErr(ctx, err, nil)
	}

	seq := ezmm.FromMarkdown(page.Markdown, r.keepLinks)
	if seq.Len() == 0 {
		return nil, errors.Wrapf(ErrParse, "no content at %s", u)
	}

	return seq, nil
}

// localizeMedia downloads each media item into the store and swaps in its
// local path. An individual asset failing to download keeps its URL
// reference; the sequence stays complete either way.
func (r *Retriever) localizeMedia(ctx context.Context, seq *ezmm.MultimodalSequence) {
	for i, item := range seq.Items {
		m, ok := item.(ezmm.Media)
		if !ok {
			continue
		}

		path, err := r.store.Fetch(ctx, r.httpClient, m.URL)
		if err != nil {
			r.log.Warn().Err(err).Str("url", m.URL).Msg("Failed to download media, keeping URL reference")
			continue
		}

		m.Path = path
		seq.Items[i] = m
	}
}

// mapClientErr folds a backend client error into the error taxonomy.
// Cancellation is passed through untouched.
func mapClientErr(ctx context.Context, err error, authErr error, parseErrs ...error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if authErr != nil && errors.Is(err, authErr) {
		return errors.Wrap(ErrAuthentication, err.Error())
	}
	for _, parseErr := range parseErrs {
		if errors.Is(err, parseErr) {
			return errors.Wrap(ErrParse, err.Error())
		}
	}

	return errors.Wrap(ErrRetrieval, err.Error())
}
