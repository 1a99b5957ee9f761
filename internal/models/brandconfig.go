package models

import "time"

// BrandConfig is the persisted per-domain calibration produced by
// discovery: which strategy to run for this storefront and the parameters
// it needs. Read-only once verified.
type BrandConfig struct {
	Domain   string             `json:"domain"`
	Strategy ExtractionStrategy `json:"strategy"`

	// Params holds strategy-specific settings, e.g. "api_url_pattern"
	// for the platform-API strategy.
	Params map[string]string `json:"params,omitempty"`

	Verified        bool      `json:"verified"`
	VerifiedAt      time.Time `json:"verified_at,omitzero"`
	DiscoveryURLs   []string  `json:"discovery_urls,omitempty"`
	DiscoveryScores []int     `json:"discovery_scores,omitempty"`

	// FieldSources maps product field names to the strategy that
	// supplied them during discovery, for transparency.
	FieldSources map[string]ExtractionStrategy `json:"field_sources,omitempty"`
}

// Param returns the named strategy parameter or "".
func (c *BrandConfig) Param(key string) string {
	if c == nil || c.Params == nil {
		return ""
	}
	return c.Params[key]
}
