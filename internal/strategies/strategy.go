// Package strategies holds the fixed set of product extraction
// mechanisms. Strategies are mutually independent: each recognizes its
// own signal in a PageData snapshot and maps it to the common Product
// shape, so they can run in any order and their results compared purely
// by completeness score.
package strategies

import (
	"errors"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

var ErrSignalNotFound = errors.New("strategy signal not found on page")

// Strategy is the two-operation capability contract every extraction
// mechanism implements. CanHandle is a cheap, side-effect-free signal
// check; Extract is the actual parse. A strategy that cannot find its
// signal returns CanHandle false rather than attempting a weak parse.
type Strategy interface {
	Kind() models.ExtractionStrategy
	CanHandle(url string, pd *models.PageData) bool
	Extract(url string, pd *models.PageData) models.ExtractionResult
}

// All returns the full strategy set in fixed reliability order. The order
// doubles as the tie-break when two strategies score equally.
func All() []Strategy {
	return []Strategy{
		&EmbeddedJSONStrategy{},
		&PlatformAPIStrategy{},
		&StructuredMarkupStrategy{},
		&APICaptureStrategy{},
		&MetaTagsStrategy{},
		&DOMHeuristicStrategy{},
	}
}

// ForKind returns the strategy matching kind, or nil for an unknown kind.
func ForKind(kind models.ExtractionStrategy) Strategy {
	for _, s := range All() {
		if s.Kind() == kind {
			return s
		}
	}
	return nil
}
