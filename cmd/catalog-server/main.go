package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/stylearchive/catalog-scraper/internal/api"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pageOracle oracle.Oracle
	if cfg.Oracle.Provider != "" {
		pageOracle, err = oracle.New(cfg.Oracle.Provider, cfg.Oracle.Model)
		if err != nil {
			logger.Warn("oracle unavailable, overlays will not be dismissed", "error", err)
		}
	}

	browserOpts := &browser.Options{
		Headless:       cfg.Browser.Headless,
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
		logger.Error("failed to initialize browser pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	source := loader.New(pool, loader.Options{
		Timeout:    cfg.Browser.Timeout,
		SettleTime: cfg.Browser.SettleTime,
		DenyList:   cfg.Extractor.DenyList,
		Oracle:     pageOracle,
	})

	var (
		configs  extractor.ConfigStore
		products extractor.ProductStore
	)
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
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		configs = database.NewBrandConfigRepository(db)
		products = database.NewProductRepository(db)
	} else {
		fileConfigs, err := storage.NewConfigStore(cfg.Storage.ConfigPath)
		if err != nil {
			logger.Error("failed to open config store", "error", err)
			os.Exit(1)
		}
		configs = fileConfigs
		products = storage.NewProductStore(cfg.Storage.OutputDir)
	}

	limiter := ratelimit.NewAdaptiveRateLimiter(
		cfg.Extractor.RateLimitMin,
		cfg.Extractor.RateLimitMax,
	)

	engine := extractor.New(source, configs, products, limiter, extractor.Options{
		Concurrency:   cfg.Extractor.Concurrency,
		MinScore:      cfg.Discovery.MinScore,
		PersistOutput: true,
	})

	// Redis-backed task queue feeds the background worker. The server still
	// serves inline extraction when Redis is down; only enqueue degrades.
	var tasks queue.Queue
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, enqueue endpoint disabled", "error", err)
		redisClient.Close()
	} else {
		tasks = queue.NewRedisQueue(redisClient, "")
		defer tasks.Close()

		worker := queue.NewWorker(tasks, engine, cfg.Extractor.MaxRetries)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("worker stopped with error", "error", err)
			}
		}()
	}

	handlers := api.NewHandlers(engine, tasks, logger)
	router := api.NewRouter(handlers)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
