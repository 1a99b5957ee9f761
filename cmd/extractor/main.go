package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/stylearchive/catalog-scraper/internal/browser"
	"github.com/stylearchive/catalog-scraper/internal/config"
	"github.com/stylearchive/catalog-scraper/internal/database"
	"github.com/stylearchive/catalog-scraper/internal/extractor"
	"github.com/stylearchive/catalog-scraper/internal/loader"
	"github.com/stylearchive/catalog-scraper/internal/oracle"
	"github.com/stylearchive/catalog-scraper/internal/queue"
	"github.com/stylearchive/catalog-scraper/internal/ratelimit"
	"github.com/stylearchive/catalog-scraper/internal/storage"
	"github.com/stylearchive/catalog-scraper/pkg/logger"
)

func main() {
	var (
		urls      = flag.String("urls", "", "Comma-separated product page URLs to extract")
		inputFile = flag.String("file", "", "File containing product URLs (one per line)")
		batch     = flag.Bool("batch", false, "Extract concurrently instead of one at a time")
		discover  = flag.String("discover", "", "Run strategy discovery for this domain (requires -urls with sample pages)")
		force     = flag.Bool("force", false, "Re-run discovery even if the domain is already verified")
		headless  = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting catalog extractor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	var pageOracle oracle.Oracle
	if cfg.Oracle.Provider != "" {
		pageOracle, err = oracle.New(cfg.Oracle.Provider, cfg.Oracle.Model)
		if err != nil {
			logger.Warn("Oracle unavailable, overlays will not be dismissed", "error", err)
		}
	}

	browserOpts := &browser.Options{
		Headless:       *headless && cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		Locale:         cfg.Browser.Locale,
		ProxyServer:    cfg.Browser.ProxyServer,
	}

	pool, err := browser.NewPool(cfg.Browser.PoolSize, cfg.Browser.PagesPerRecycle, func() (browser.Instance, error) {
		return browser.New(browserOpts)
	})
	if err != nil {
		logger.Error("Failed to initialize browser pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	source := loader.New(pool, loader.Options{
		Timeout:    cfg.Browser.Timeout,
		SettleTime: cfg.Browser.SettleTime,
		DenyList:   cfg.Extractor.DenyList,
		Oracle:     pageOracle,
	})

	configs, products, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	limiter := ratelimit.NewAdaptiveRateLimiter(
		cfg.Extractor.RateLimitMin,
		cfg.Extractor.RateLimitMax,
	)

	engine := extractor.New(source, configs, products, limiter, extractor.Options{
		Concurrency:   cfg.Extractor.Concurrency,
		MinScore:      cfg.Discovery.MinScore,
		PersistOutput: true,
	})

	taskURLs, err := loadURLs(*urls, *inputFile)
	if err != nil {
		logger.Error("Failed to load URLs", "error", err)
		os.Exit(1)
	}

	if *discover != "" {
		runDiscovery(ctx, engine, *discover, taskURLs, *force, logger)
		return
	}

	if len(taskURLs) == 0 {
		fmt.Println("No URLs to process. Use -urls or -file to specify product pages.")
		flag.Usage()
		os.Exit(1)
	}

	if *batch {
		runBatch(ctx, engine, taskURLs, logger)
		return
	}

	runQueue(ctx, engine, taskURLs, cfg.Extractor.MaxRetries, logger)
}

// buildStores picks the storage backend: flat files for local runs,
// Postgres when STORAGE_BACKEND=postgres.
func buildStores(ctx context.Context, cfg *config.Config) (extractor.ConfigStore, extractor.ProductStore, func(), error) {
	if cfg.Storage.Backend == "postgres" {
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return database.NewBrandConfigRepository(db), database.NewProductRepository(db), db.Close, nil
	}

	configs, err := storage.NewConfigStore(cfg.Storage.ConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open config store: %w", err)
	}
	products := storage.NewProductStore(cfg.Storage.OutputDir)
	return configs, products, func() {}, nil
}

func loadURLs(urls, inputFile string) ([]string, error) {
	var out []string

	if urls != "" {
		for _, u := range strings.Split(urls, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				out = append(out, u)
			}
		}
	}

	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				out = append(out, line)
			}
		}
	}

	return out, nil
}

func runDiscovery(ctx context.Context, engine *extractor.Extractor, domain string, samples []string, force bool, logger *slog.Logger) {
	logger.Info("Running discovery", "domain", domain, "samples", len(samples))

	cfg, err := engine.DiscoverAndVerify(ctx, domain, samples, force)
	if err != nil {
		logger.Error("Discovery failed", "domain", domain, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(cfg)
}

func runBatch(ctx context.Context, engine *extractor.Extractor, urls []string, logger *slog.Logger) {
	logger.Info("Starting batch extraction", "urls", len(urls))

	results, stats := engine.ExtractBatch(ctx, urls)

	enc := json.NewEncoder(os.Stdout)
	for _, result := range results {
		enc.Encode(result)
	}

	logger.Info("Batch completed",
		"total", len(results),
		"succeeded", stats.Succeeded(),
		"failed", stats.Failed(),
		"avg_score", stats.AverageScore(),
		"duration", stats.Duration())
}

// runQueue processes URLs one at a time through the task queue so failed
// pages get retried with the rate limiter pacing every attempt.
func runQueue(ctx context.Context, engine *extractor.Extractor, urls []string, maxRetries int, logger *slog.Logger) {
	tasks := queue.NewInMemoryQueue()

	for i, u := range urls {
		tasks.Push(ctx, &queue.Task{
			ID:        fmt.Sprintf("task-%d", i),
			URL:       u,
			Domain:    extractor.DomainOf(u),
			Priority:  1,
			CreatedAt: time.Now(),
		})
	}

	logger.Info("Starting extraction", "tasks", len(urls))
	enc := json.NewEncoder(os.Stdout)

	remaining := len(urls)
	for remaining > 0 {
		select {
		case <-ctx.Done():
			logger.Info("Context cancelled, exiting")
			return
		default:
		}

		task, err := tasks.Pop(ctx)
		if err != nil {
			logger.Error("Failed to get task from queue", "error", err)
			return
		}

		result := engine.ExtractSingle(ctx, task.URL)
		if !result.Success {
			logger.Error("Failed to extract product", "url", task.URL, "error", result.Error)
			if task.Retries < maxRetries {
				task.Retries++
				tasks.Push(ctx, task)
				logger.Info("Retrying task", "url", task.URL, "retry", task.Retries)
				continue
			}
			remaining--
			continue
		}

		remaining--
		enc.Encode(result)
	}

	tasks.Close()
	logger.Info("Extraction completed")
}
