package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// BrandConfigRepository persists BrandConfigs in Postgres. It implements
// the extractor's ConfigStore contract.
type BrandConfigRepository struct {
	db *DB
}

func NewBrandConfigRepository(db *DB) *BrandConfigRepository {
	return &BrandConfigRepository{db: db}
}

func (r *BrandConfigRepository) Get(ctx context.Context, domain string) (*models.BrandConfig, error) {
	query := `
		SELECT domain, strategy, params, verified, verified_at,
		       discovery_urls, discovery_scores, field_sources
		FROM brand_configs
		WHERE domain = $1
	`

	cfg := &models.BrandConfig{}
	var params, urls, scores, sources []byte
	var verifiedAt *time.Time

	err := r.db.QueryRow(ctx, query, domain).Scan(
		&cfg.Domain, &cfg.Strategy, &params, &cfg.Verified, &verifiedAt,
		&urls, &scores, &sources,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand config: %w", err)
	}

	if verifiedAt != nil {
		cfg.VerifiedAt = *verifiedAt
	}
	if len(params) > 0 {
		json.Unmarshal(params, &cfg.Params)
	}
	if len(urls) > 0 {
		json.Unmarshal(urls, &cfg.DiscoveryURLs)
	}
	if len(scores) > 0 {
		json.Unmarshal(scores, &cfg.DiscoveryScores)
	}
	if len(sources) > 0 {
		json.Unmarshal(sources, &cfg.FieldSources)
	}

	return cfg, nil
}

func (r *BrandConfigRepository) Put(ctx context.Context, cfg *models.BrandConfig) error {
	params, _ := json.Marshal(cfg.Params)
	urls, _ := json.Marshal(cfg.DiscoveryURLs)
	scores, _ := json.Marshal(cfg.DiscoveryScores)
	sources, _ := json.Marshal(cfg.FieldSources)

	var verifiedAt *time.Time
	if !cfg.VerifiedAt.IsZero() {
		verifiedAt = &cfg.VerifiedAt
	}

	query := `
		INSERT INTO brand_configs
		(domain, strategy, params, verified, verified_at, discovery_urls, discovery_scores, field_sources, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (domain) DO UPDATE SET
			strategy = EXCLUDED.strategy,
			params = EXCLUDED.params,
			verified = EXCLUDED.verified,
			verified_at = EXCLUDED.verified_at,
			discovery_urls = EXCLUDED.discovery_urls,
			discovery_scores = EXCLUDED.discovery_scores,
			field_sources = EXCLUDED.field_sources,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		cfg.Domain, string(cfg.Strategy), params, cfg.Verified, verifiedAt, urls, scores, sources)
	if err != nil {
		return fmt.Errorf("failed to upsert brand config: %w", err)
	}
	return nil
}

// Delete removes a domain's calibration so the next extraction triggers
// a full strategy sweep.
func (r *BrandConfigRepository) Delete(ctx context.Context, domain string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM brand_configs WHERE domain = $1`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete brand config: %w", err)
	}
	return nil
}
