// Command scrape crawls one restaurant site and writes its knowledge entries
// as JSONL, without touching any database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/adapter/httpfetcher"
	"github.com/user/restaurant-kb-sync/internal/hashgate"
	"github.com/user/restaurant-kb-sync/internal/knowledge"
	"github.com/user/restaurant-kb-sync/internal/usecase"
	"github.com/user/restaurant-kb-sync/pkg/config"
	"github.com/user/restaurant-kb-sync/pkg/logger"
	"github.com/user/restaurant-kb-sync/pkg/utils"
)

func main() {
	siteURL := flag.String("url", "", "restaurant website (required)")
	name := flag.String("name", "", "restaurant name (required)")
	out := flag.String("out", "-", "JSONL output file, - for stdout")
	subpaths := flag.String("subpaths", "", "comma separated paths to crawl besides the root (default from CRAWL_SUBPATHS)")
	flag.Parse()

	if *siteURL == "" || *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	paths := cfg.Subpaths()
	if *subpaths != "" {
		paths = strings.Split(*subpaths, ",")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *siteURL, *name, paths, *out); err != nil {
		log.Error("Scrape failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, siteURL, name string, subpaths []string, out string) error {
	pages, err := utils.SitePages(siteURL, subpaths)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	fetcher := httpfetcher.New(log.Named("fetcher"),
		httpfetcher.WithTimeout(cfg.FetchTimeout()),
		httpfetcher.WithMaxRetries(cfg.CrawlMaxRetries),
		httpfetcher.WithBackoffUnit(cfg.BackoffUnit()),
		httpfetcher.WithUserAgent(cfg.CrawlUserAgent),
		httpfetcher.WithRobots(cfg.CrawlRespectRobots),
	)
	crawled := usecase.NewPageCrawler(fetcher, cfg.InterRequestDelay(), log.Named("crawler")).CrawlBatch(ctx, pages)

	facts := usecase.ExtractPages(crawled)
	if len(facts) == 0 {
		return fmt.Errorf("%w: %s", usecase.ErrSiteUnreachable, siteURL)
	}

	content := usecase.BuildContent(utils.Slugify(name), name, siteURL, facts, time.Now())

	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := knowledge.WriteJSONL(w, content.Knowledge); err != nil {
		return err
	}

	log.Info("Scrape finished",
		zap.String("slug", content.Slug),
		zap.Int("pages", len(facts)),
		zap.Int("entries", len(content.Knowledge)),
		zap.String("content_hash", string(content.ContentHash)),
		zap.String("daily_fingerprint", string(hashgate.ComputeFingerprint(content.DailySpecial))),
	)
	return nil
}
