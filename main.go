package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mempirate/scrapemm/config"
	"github.com/mempirate/scrapemm/log"
	"github.com/mempirate/scrapemm/media"
	"github.com/mempirate/scrapemm/retrieve"
	"github.com/mempirate/scrapemm/scrape"
	"github.com/mempirate/scrapemm/twitter"
)

var (
	mediaDir  = flag.String("media-dir", "", "Directory to download media into. When empty, media are kept as URL references.")
	keepLinks = flag.Bool("keep-links", false, "Keep hyperlink URLs in retrieved text instead of reducing them to their hypertext.")
)

func main() {
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: scrapemm [flags] <url> [<url>...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := log.NewLogger("main")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	opts := []retrieve.Option{}

	if cfg.FirecrawlAPIKey != "" {
		scraper, err := scrape.NewFirecrawlScraper(cfg.FirecrawlAPIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize Firecrawl scraper")
		}
		opts = append(opts, retrieve.WithScraper(scraper))
	} else {
		logger.Warn().Msg("FIRECRAWL_API_KEY not set; generic web pages cannot be retrieved")
	}

	if cfg.XBearerToken != "" {
		opts = append(opts, retrieve.WithTwitter(twitter.NewClient(cfg.XBearerToken)))
	} else {
		logger.Warn().Msg("X_BEARER_TOKEN not set; X posts fall back to the scraping backend")
	}

	dir := cfg.MediaDir
	if *mediaDir != "" {
		dir = *mediaDir
	}
	if dir != "" {
		store, err := media.NewStore(os.ExpandEnv(dir))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open media store")
		}
		defer store.Close()

		logger.Info().Str("mediaDir", dir).Msg("Using media directory")
		opts = append(opts, retrieve.WithMediaStore(store))
	}

	if *keepLinks {
		opts = append(opts, retrieve.WithKeepHyperlinks())
	}

	retriever := retrieve.New(opts...)
	ctx := context.Background()

	if len(urls) == 1 {
		seq, err := retriever.Retrieve(ctx, urls[0])
		if err != nil {
			logger.Fatal().Err(err).Str("url", urls[0]).Msg("Failed to retrieve URL")
		}

		fmt.Println(seq)
		return
	}

	results := retriever.RetrieveAll(ctx, urls)

	failed := 0
	for i, seq := range results {
		fmt.Printf("==== %s ====\n", urls[i])
		if seq == nil {
			failed++
			fmt.Println("(retrieval failed)")
			continue
		}

		fmt.Println(seq)
	}

	if failed > 0 {
		logger.Error().Int("failed", failed).Int("total", len(urls)).Msg("Some URLs failed to retrieve")
		os.Exit(1)
	}
}
