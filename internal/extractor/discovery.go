package extractor

import (
	"context"
	"time"

	"github.com/stylearchive/catalog-scraper/internal/models"
	"github.com/stylearchive/catalog-scraper/internal/strategies"
)

// DiscoverAndVerify calibrates a domain: it runs the full strategy set
// against the sample URLs and persists the winner as a verified
// BrandConfig. A strategy qualifies only when it clears the minimum
// score on every sample — one page cannot distinguish "works generally"
// from "happened to work for this SKU", and a strategy that fails on any
// sample is not trustworthy for unattended batch use.
//
// With force false, an already-verified config is returned as is;
// re-discovery is always an explicit operator decision, never automatic,
// to avoid flapping on transient page anomalies.
func (e *Extractor) DiscoverAndVerify(ctx context.Context, domain string, sampleURLs []string, force bool) (*models.BrandConfig, error) {
	if len(sampleURLs) < 2 {
		return nil, ErrInsufficientSamples
	}

	if !force && e.configs != nil {
		if existing, err := e.configs.Get(ctx, domain); err == nil && existing != nil && existing.Verified {
			return existing, nil
		}
	}

	e.logger.Info("starting discovery", "domain", domain, "samples", len(sampleURLs))

	// scores[kind][i] is the strategy's score on sample i; a missing
	// entry means the strategy failed that page outright.
	scores := make(map[models.ExtractionStrategy][]int)
	products := make(map[models.ExtractionStrategy]*models.Product)
	var pages []*models.PageData

	for _, s := range strategies.All() {
		scores[s.Kind()] = make([]int, len(sampleURLs))
		for i := range scores[s.Kind()] {
			scores[s.Kind()][i] = -1
		}
	}

	for i, sampleURL := range sampleURLs {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		pd, err := e.source.Load(ctx, sampleURL)
		if err != nil {
			e.logger.Warn("discovery sample failed to load", "url", sampleURL, "error", err)
			continue
		}
		pages = append(pages, pd)

		for _, s := range strategies.All() {
			if !s.CanHandle(sampleURL, pd) {
				continue
			}
			result := s.Extract(sampleURL, pd)
			if !result.Success {
				continue
			}
			scores[s.Kind()][i] = result.Score
			if products[s.Kind()] == nil {
				products[s.Kind()] = result.Product
			}
		}
	}

	winner, winnerScores := e.pickWinner(scores)
	if winner == models.StrategyUnknown {
		e.logger.Warn("discovery found no acceptable strategy", "domain", domain)
		return nil, ErrVerificationFailed
	}

	cfg := &models.BrandConfig{
		Domain:          domain,
		Strategy:        winner,
		Params:          discoveryParams(winner, pages),
		Verified:        true,
		VerifiedAt:      time.Now().UTC(),
		DiscoveryURLs:   sampleURLs,
		DiscoveryScores: winnerScores,
		FieldSources:    fieldSources(products),
	}

	if e.configs != nil {
		if err := e.configs.Put(ctx, cfg); err != nil {
			return nil, err
		}
	}

	e.logger.Info("domain verified", "domain", domain, "strategy", winner, "scores", winnerScores)
	return cfg, nil
}

// pickWinner ranks strategies that cleared the threshold on every sample
// by total score; ties go to the earlier strategy in the fixed order.
func (e *Extractor) pickWinner(scores map[models.ExtractionStrategy][]int) (models.ExtractionStrategy, []int) {
	winner := models.StrategyUnknown
	var winnerScores []int
	bestTotal := -1

	for _, kind := range models.StrategyOrder {
		sampleScores := scores[kind]
		if len(sampleScores) == 0 {
			continue
		}

		eligible := true
		total := 0
		for _, score := range sampleScores {
			if score < e.opts.MinScore {
				eligible = false
				break
			}
			total += score
		}
		if !eligible {
			continue
		}

		if total > bestTotal {
			bestTotal = total
			winner = kind
			winnerScores = sampleScores
		}
	}

	return winner, winnerScores
}

// discoveryParams captures strategy-specific settings worth replaying on
// later extractions.
func discoveryParams(winner models.ExtractionStrategy, pages []*models.PageData) map[string]string {
	if winner != models.StrategyPlatformAPI {
		return nil
	}

	for _, pd := range pages {
		for respURL := range pd.JSONResponses {
			if pattern := strategies.APIURLPattern(respURL); pattern != respURL {
				return map[string]string{"api_url_pattern": pattern}
			}
		}
	}
	return nil
}

// fieldSources records, per product field, the first strategy in fixed
// order whose candidate populated it during discovery.
func fieldSources(products map[models.ExtractionStrategy]*models.Product) map[string]models.ExtractionStrategy {
	sources := make(map[string]models.ExtractionStrategy)

	record := func(field string, populated bool, kind models.ExtractionStrategy) {
		if populated {
			if _, ok := sources[field]; !ok {
				sources[field] = kind
			}
		}
	}

	for _, kind := range models.StrategyOrder {
		p := products[kind]
		if p == nil {
			continue
		}
		record("name", p.Name != "", kind)
		record("price", p.Price > 0, kind)
		record("currency", p.Currency != "", kind)
		record("images", len(p.Images) > 0, kind)
		record("description", p.Description != "", kind)
		record("variants", len(p.Variants) > 0, kind)
		record("brand", p.Brand != "", kind)
	}

	if len(sources) == 0 {
		return nil
	}
	return sources
}
