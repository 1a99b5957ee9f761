package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// ProductStore writes one JSON file per extracted product under
// outputDir/domain/category/. Filenames derive from a hash of the
// canonical URL so repeated runs overwrite their own record and never
// collide with another product's.
type ProductStore struct {
	outputDir string
}

func NewProductStore(outputDir string) *ProductStore {
	return &ProductStore{outputDir: outputDir}
}

func (ps *ProductStore) Save(ctx context.Context, product *models.Product) error {
	if product.URL == "" {
		return fmt.Errorf("product URL is required")
	}

	dir := filepath.Join(ps.outputDir, domainDir(product.URL), categoryDir(product.Category))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	data, err := json.MarshalIndent(product, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	path := filepath.Join(dir, FilenameForURL(product.URL))

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, path)
}

// FilenameForURL derives a stable, collision-resistant filename from the
// canonical form of a product URL.
func FilenameForURL(rawURL string) string {
	return URLHash(rawURL) + ".json"
}

// URLHash is the stable identity of a product page: a short hex digest of
// the canonicalized URL. Both the file store and the database key on it.
func URLHash(rawURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL(rawURL)))
	return hex.EncodeToString(sum[:8])
}

// canonicalURL strips the query, fragment and trailing slash so the same
// product page always hashes identically.
func canonicalURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	parsed.Host = strings.TrimPrefix(parsed.Hostname(), "www.")
	return parsed.String()
}

func domainDir(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

func categoryDir(category string) string {
	if category == "" {
		return "uncategorized"
	}

	slug := strings.ToLower(category)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '/', r == '-', r == '_':
			return '-'
		}
		return -1
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return "uncategorized"
	}
	return slug
}
