// Package storage provides the zero-infrastructure persistence backend:
// brand configs in one JSON file, products as one JSON file per URL.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// ConfigStore keeps BrandConfigs in a single JSON file keyed by domain.
// Safe for concurrent use within one process.
type ConfigStore struct {
	mu       sync.RWMutex
	configs  map[string]*models.BrandConfig
	filename string
}

func NewConfigStore(filename string) (*ConfigStore, error) {
	cs := &ConfigStore{
		configs:  make(map[string]*models.BrandConfig),
		filename: filename,
	}

	if err := cs.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return cs, nil
}

// Get returns the config for domain, or (nil, nil) when none exists.
func (cs *ConfigStore) Get(ctx context.Context, domain string) (*models.BrandConfig, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	cfg, ok := cs.configs[domain]
	if !ok {
		return nil, nil
	}
	return cfg, nil
}

func (cs *ConfigStore) Put(ctx context.Context, cfg *models.BrandConfig) error {
	if cfg.Domain == "" {
		return fmt.Errorf("brand config domain is required")
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.configs[cfg.Domain] = cfg
	return cs.save()
}

// Delete removes a domain's config, forcing re-discovery on next use.
func (cs *ConfigStore) Delete(ctx context.Context, domain string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.configs, domain)
	return cs.save()
}

// Domains lists every calibrated domain.
func (cs *ConfigStore) Domains() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make([]string, 0, len(cs.configs))
	for domain := range cs.configs {
		out = append(out, domain)
	}
	return out
}

func (cs *ConfigStore) save() error {
	data, err := json.MarshalIndent(cs.configs, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cs.filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	// Write to temp file first for atomicity
	tmpFile := cs.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, cs.filename)
}

func (cs *ConfigStore) load() error {
	data, err := os.ReadFile(cs.filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &cs.configs)
}
