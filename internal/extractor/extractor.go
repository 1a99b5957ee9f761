// Package extractor orchestrates strategies against loaded pages: it
// merges candidate products, calibrates per-domain strategy choice and
// fans batches out across the browser pool under the rate limiter.
package extractor

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/stylearchive/catalog-scraper/internal/loader"
	"github.com/stylearchive/catalog-scraper/internal/models"
	"github.com/stylearchive/catalog-scraper/internal/strategies"
)

var (
	ErrInsufficientSamples = errors.New("discovery requires at least two sample URLs")
	ErrVerificationFailed  = errors.New("no strategy cleared the score threshold on every sample")
)

// ConfigStore persists per-domain BrandConfigs. Get returns (nil, nil)
// for an unknown domain.
type ConfigStore interface {
	Get(ctx context.Context, domain string) (*models.BrandConfig, error)
	Put(ctx context.Context, cfg *models.BrandConfig) error
}

// ProductStore persists extracted products.
type ProductStore interface {
	Save(ctx context.Context, product *models.Product) error
}

// Limiter is the adaptive pacing contract the extractor reports into.
type Limiter interface {
	Wait(ctx context.Context) error
	RecordSuccess()
	RecordError()
}

type Options struct {
	Concurrency   int
	MinScore      int
	PersistOutput bool
}

type Extractor struct {
	source   loader.PageSource
	configs  ConfigStore
	products ProductStore
	limiter  Limiter
	opts     Options
	logger   *slog.Logger
	totals   Totals
}

func New(source loader.PageSource, configs ConfigStore, products ProductStore, limiter Limiter, opts Options) *Extractor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MinScore == 0 {
		opts.MinScore = 50
	}

	return &Extractor{
		source:   source,
		configs:  configs,
		products: products,
		limiter:  limiter,
		opts:     opts,
		logger:   slog.Default().With("component", "extractor"),
	}
}

// Config returns the stored BrandConfig for domain, or nil when the
// domain has never been calibrated.
func (e *Extractor) Config(ctx context.Context, domain string) (*models.BrandConfig, error) {
	return e.configs.Get(ctx, domain)
}

// ExtractSingle loads url and produces the best product the strategy set
// can offer. A verified BrandConfig for the URL's domain narrows the run
// to the calibrated strategy; otherwise every strategy is tried in fixed
// order. Failures come back as values, never panics: even a page that
// never loads yields a failed ExtractionResult.
func (e *Extractor) ExtractSingle(ctx context.Context, pageURL string) models.ExtractionResult {
	domain := DomainOf(pageURL)

	var cfg *models.BrandConfig
	if e.configs != nil {
		var err error
		cfg, err = e.configs.Get(ctx, domain)
		if err != nil {
			e.logger.Warn("failed to read brand config, running full sweep", "domain", domain, "error", err)
			cfg = nil
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			e.totals.record(false, 0)
			return failedResult(pageURL, err.Error())
		}
	}

	pd, err := e.source.Load(ctx, pageURL)
	if err != nil {
		if e.limiter != nil {
			e.limiter.RecordError()
		}
		e.totals.record(false, 0)
		return failedResult(pageURL, "page load failed: "+err.Error())
	}

	result := e.extractFromPage(pageURL, pd, cfg)

	if e.limiter != nil {
		if result.Success && !pd.Partial {
			e.limiter.RecordSuccess()
		} else {
			e.limiter.RecordError()
		}
	}

	if result.Success && e.products != nil && e.opts.PersistOutput {
		if err := e.products.Save(ctx, result.Product); err != nil {
			e.logger.Error("failed to persist product", "url", pageURL, "error", err)
		}
	}

	e.totals.record(result.Success, result.Score)
	return result
}

// Totals reports the cumulative extraction counters since the engine was
// created.
func (e *Extractor) Totals() TotalsSnapshot {
	return e.totals.Snapshot()
}

// extractFromPage runs the strategy sweep and merges candidates. The
// merge rule: strictly higher completeness score wins; an exact tie goes
// to the strategy earlier in the fixed order, which the in-order sweep
// with a strictly-greater comparison gives for free.
func (e *Extractor) extractFromPage(pageURL string, pd *models.PageData, cfg *models.BrandConfig) models.ExtractionResult {
	set := strategies.All()

	if cfg != nil && cfg.Verified {
		if s := strategies.ForKind(cfg.Strategy); s != nil {
			set = []strategies.Strategy{s}
		}
	}

	var best models.ExtractionResult
	lastErr := "no strategy could handle the page"

	for _, s := range set {
		if !s.CanHandle(pageURL, pd) {
			continue
		}

		result := s.Extract(pageURL, pd)
		if !result.Success {
			if result.Error != "" {
				lastErr = result.Error
			}
			continue
		}

		if !best.Success || result.Score > best.Score {
			best = result
		}
	}

	if !best.Success {
		if pd.LoadErr != "" {
			lastErr = lastErr + " (load: " + pd.LoadErr + ")"
		}
		return failedResult(pageURL, lastErr)
	}

	best.URL = pageURL
	return best
}

// ExtractBatch fans urls out across the pool under the limiter. The
// returned slice matches the input order position by position regardless
// of completion order; per-URL failures never abort the batch.
func (e *Extractor) ExtractBatch(ctx context.Context, urls []string) ([]models.ExtractionResult, *RunStats) {
	stats := NewRunStats(len(urls))
	results := make([]models.ExtractionResult, len(urls))

	sem := make(chan struct{}, e.opts.Concurrency)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, pageURL string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = failedResult(pageURL, ctx.Err().Error())
				stats.RecordFailure()
				return
			}

			result := e.ExtractSingle(ctx, pageURL)
			results[idx] = result

			if result.Success {
				stats.RecordSuccess(result.Score)
			} else {
				stats.RecordFailure()
			}
		}(i, u)
	}

	wg.Wait()
	stats.Finish()

	e.logger.Info("batch complete",
		"run_id", stats.RunID,
		"total", stats.Total,
		"succeeded", stats.Succeeded(),
		"failed", stats.Failed(),
		"avg_score", stats.AverageScore(),
		"duration", stats.Duration(),
	)

	return results, stats
}

func failedResult(pageURL, msg string) models.ExtractionResult {
	r := models.FailureResult(models.StrategyUnknown, msg)
	r.URL = pageURL
	return r
}

// DomainOf extracts the registrable host from a URL, without the www
// prefix. It is the fingerprint every BrandConfig is keyed by.
func DomainOf(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return pageURL
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
