package models

import (
	"encoding/json"
	"time"
)

// Availability is the tri-state stock status of a variant.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
	AvailabilityUnknown     Availability = "unknown"
)

// Variant is one size/color/SKU combination of a product. Variants are
// value objects owned by their parent Product.
type Variant struct {
	Size         string       `json:"size,omitempty"`
	Color        string       `json:"color,omitempty"`
	SKU          string       `json:"sku,omitempty"`
	Price        *float64     `json:"price,omitempty"`
	Availability Availability `json:"availability"`
	StockCount   *int         `json:"stock_count,omitempty"`
}

// MissingFields records which required fields a Product failed to
// populate. Recomputed whenever a Product is finalized.
type MissingFields struct {
	Name        bool `json:"name"`
	Price       bool `json:"price"`
	Currency    bool `json:"currency"`
	Images      bool `json:"images"`
	Description bool `json:"description"`
	Variants    bool `json:"variants"`
}

// AnyMissing reports whether at least one required field is missing.
func (m MissingFields) AnyMissing() bool {
	return m.Name || m.Price || m.Currency || m.Images || m.Description || m.Variants
}

// ToList returns the names of the missing fields in declaration order.
func (m MissingFields) ToList() []string {
	var out []string
	if m.Name {
		out = append(out, "name")
	}
	if m.Price {
		out = append(out, "price")
	}
	if m.Currency {
		out = append(out, "currency")
	}
	if m.Images {
		out = append(out, "images")
	}
	if m.Description {
		out = append(out, "description")
	}
	if m.Variants {
		out = append(out, "variants")
	}
	return out
}

// Product is the normalized output record shared by all strategies.
type Product struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	URL         string   `json:"url"`

	Brand    string `json:"brand,omitempty"`
	SKU      string `json:"sku,omitempty"`
	Category string `json:"category,omitempty"`

	Variants []Variant `json:"variants"`

	RawDescription string          `json:"raw_description,omitempty"`
	RawData        json.RawMessage `json:"raw_data,omitempty"`

	ExtractionStrategy ExtractionStrategy `json:"extraction_strategy"`
	MissingFields      MissingFields      `json:"missing_fields"`
	ExtractedAt        time.Time          `json:"extracted_at"`
}

// Finalize recomputes MissingFields from current field values and stamps
// the extraction time. Empty variants are not flagged here: single-SKU
// products legitimately have none, so the flag is left to strategies that
// saw a variant widget they could not parse.
func (p *Product) Finalize() {
	p.MissingFields.Name = p.Name == ""
	p.MissingFields.Price = p.Price <= 0
	p.MissingFields.Currency = p.Currency == ""
	p.MissingFields.Images = len(p.Images) == 0
	p.MissingFields.Description = p.Description == ""
	if len(p.Variants) > 0 {
		p.MissingFields.Variants = false
	}
	if p.ExtractedAt.IsZero() {
		p.ExtractedAt = time.Now().UTC()
	}
}

// CompletenessScore quantifies how richly the product is populated on a
// 0-100 scale. It is a pure function of the visible fields so results from
// different strategies are directly comparable.
//
//	required fields        60  (name 15, price 15, currency 5, images 15, description 10)
//	variant richness       25  (any variants 15, known availability +10)
//	optional metadata      15  (brand 5, sku 5, category 5)
func (p *Product) CompletenessScore() int {
	score := 0

	if p.Name != "" {
		score += 15
	}
	if p.Price > 0 {
		score += 15
	}
	if p.Currency != "" {
		score += 5
	}
	if len(p.Images) > 0 {
		score += 15
	}
	if p.Description != "" {
		score += 10
	}

	if len(p.Variants) > 0 {
		score += 15
		for _, v := range p.Variants {
			if v.Availability == AvailabilityAvailable || v.Availability == AvailabilityUnavailable {
				score += 10
				break
			}
		}
	}

	if p.Brand != "" {
		score += 5
	}
	if p.SKU != "" {
		score += 5
	}
	if p.Category != "" {
		score += 5
	}

	return score
}
