package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/adapter/chromedp_crawler"
	"github.com/user/restaurant-kb-sync/internal/adapter/contentapi"
	"github.com/user/restaurant-kb-sync/internal/adapter/customerdb"
	"github.com/user/restaurant-kb-sync/internal/adapter/httpfetcher"
	"github.com/user/restaurant-kb-sync/internal/adapter/kbclient"
	"github.com/user/restaurant-kb-sync/internal/adapter/postgres"
	redis_adapter "github.com/user/restaurant-kb-sync/internal/adapter/redis"
	"github.com/user/restaurant-kb-sync/internal/delivery/http/handler"
	"github.com/user/restaurant-kb-sync/internal/delivery/http/router"
	"github.com/user/restaurant-kb-sync/internal/repository"
	"github.com/user/restaurant-kb-sync/internal/usecase"
	"github.com/user/restaurant-kb-sync/pkg/config"
	"github.com/user/restaurant-kb-sync/pkg/logger"
)

const requestTimeout = 5 * time.Minute

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		zap.NewExample().Fatal("could not load config", zap.Error(err))
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		zap.NewExample().Fatal("could not build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connections ---
	dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("Unable to connect to database", zap.Error(err))
	}
	defer dbpool.Close()
	if err := postgres.EnsureSchema(ctx, dbpool); err != nil {
		log.Fatal("Unable to prepare database schema", zap.Error(err))
	}
	log.Info("PostgreSQL connection pool established")

	customerDB, err := customerdb.Open(cfg.CustomerDBDriver, cfg.CustomerDBDSN)
	if err != nil {
		log.Fatal("Unable to open customer database", zap.Error(err))
	}
	if err := customerdb.Migrate(customerDB); err != nil {
		log.Fatal("Unable to migrate customer database", zap.Error(err))
	}
	log.Info("Customer database ready", zap.String("driver", cfg.CustomerDBDriver))

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Unable to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connection established")

	// --- Repositories ---
	visitedRepo := redis_adapter.NewVisitedRepo(rdb)
	queueRepo := redis_adapter.NewQueueRepo(rdb)
	lockRepo := redis_adapter.NewLockRepo(rdb)
	contentRepo := postgres.NewRestaurantContentRepo(dbpool)
	failedRepo := postgres.NewFailedFetchRepo(dbpool)
	customerRepo := customerdb.NewCustomerRepo(customerDB)
	pusher := kbclient.New(cfg.KBPushBaseURL, cfg.KBAPIKey, log.Named("kbclient"))

	var fetcher repository.PageFetcher
	if cfg.CrawlRenderJS {
		browser := chromedp_crawler.NewChromedpCrawler(log.Named("chromedp"), cfg.CrawlUserAgent, 2, cfg.FetchTimeout())
		defer browser.Close()
		fetcher = browser
		log.Info("Rendering pages with headless Chrome")
	} else {
		fetcher = httpfetcher.New(log.Named("fetcher"),
			httpfetcher.WithTimeout(cfg.FetchTimeout()),
			httpfetcher.WithMaxRetries(cfg.CrawlMaxRetries),
			httpfetcher.WithBackoffUnit(cfg.BackoffUnit()),
			httpfetcher.WithUserAgent(cfg.CrawlUserAgent),
			httpfetcher.WithProxies(cfg.ProxyURLs()),
			httpfetcher.WithRobots(cfg.CrawlRespectRobots),
		)
	}

	// --- Use Cases ---
	crawler := usecase.NewPageCrawler(fetcher, cfg.InterRequestDelay(), log.Named("crawler"))
	daily := usecase.NewDailyContentService(crawler, contentRepo, customerRepo, cfg.Subpaths(), log.Named("daily"))

	var resolver repository.ContentResolver = daily
	if cfg.ContentSourceURL != "" {
		resolver = contentapi.New(cfg.ContentSourceURL)
		log.Info("Resolving daily content remotely", zap.String("base_url", cfg.ContentSourceURL))
	}

	synchronizer := usecase.NewSynchronizer(resolver, pusher, customerRepo, lockRepo, log.Named("sync"),
		usecase.WithLocation(cfg.Location()),
		usecase.WithLockTTL(cfg.LockTTL()),
	)
	scrapes := usecase.NewScrapeService(queueRepo, visitedRepo, contentRepo, failedRepo, crawler, synchronizer,
		cfg.Subpaths(), cfg.DeduplicationExpiry(), log.Named("scrape"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scrapes.RunWorker(ctx, cfg.PollInterval())
	}()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(daily, scrapes, synchronizer, map[string]handler.HealthCheck{
		"postgres": dbpool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log.Named("http"))
	httpRouter := router.New(apiHandler, log.Named("http"), requestTimeout)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	wg.Wait()

	log.Info("Server exiting")
}
