package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/stylearchive/catalog-scraper/internal/models"
	"github.com/stylearchive/catalog-scraper/internal/storage"
)

// ProductRepository persists extracted products in Postgres, keyed by the
// canonical URL hash so re-extractions of the same page upsert in place.
type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Save(ctx context.Context, product *models.Product) error {
	record, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	query := `
		INSERT INTO products
		(url_hash, domain, url, name, price, currency, category, strategy, score, record, extracted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (url_hash) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			category = EXCLUDED.category,
			strategy = EXCLUDED.strategy,
			score = EXCLUDED.score,
			record = EXCLUDED.record,
			extracted_at = EXCLUDED.extracted_at,
			updated_at = NOW()
	`

	_, err = r.db.Exec(ctx, query,
		storage.URLHash(product.URL),
		productDomain(product.URL),
		product.URL,
		product.Name,
		product.Price,
		product.Currency,
		product.Category,
		string(product.ExtractionStrategy),
		product.CompletenessScore(),
		record,
		product.ExtractedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// GetByURL returns the stored record for a product page, or nil when the
// page has never been extracted.
func (r *ProductRepository) GetByURL(ctx context.Context, rawURL string) (*models.Product, error) {
	var record []byte
	err := r.db.QueryRow(ctx,
		`SELECT record FROM products WHERE url_hash = $1`,
		storage.URLHash(rawURL)).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	product := &models.Product{}
	if err := json.Unmarshal(record, product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product record: %w", err)
	}
	return product, nil
}

// ListByDomain returns the most recently extracted products for a domain.
func (r *ProductRepository) ListByDomain(ctx context.Context, domain string, limit int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT record FROM products WHERE domain = $1 ORDER BY extracted_at DESC LIMIT $2`,
		domain, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan product record: %w", err)
		}
		product := &models.Product{}
		if err := json.Unmarshal(record, product); err != nil {
			return nil, fmt.Errorf("failed to unmarshal product record: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func productDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
