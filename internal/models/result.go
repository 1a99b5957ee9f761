package models

// ExtractionResult is the outcome of one strategy attempt, or of the
// merge across strategies for a page.
type ExtractionResult struct {
	Success  bool               `json:"success"`
	Product  *Product           `json:"product,omitempty"`
	Strategy ExtractionStrategy `json:"strategy"`
	Error    string             `json:"error,omitempty"`
	Score    int                `json:"score"`
	URL      string             `json:"url,omitempty"`
}

// SuccessResult finalizes the product, tags it with the producing
// strategy and computes its completeness score.
func SuccessResult(strategy ExtractionStrategy, product *Product) ExtractionResult {
	product.ExtractionStrategy = strategy
	product.Finalize()
	return ExtractionResult{
		Success:  true,
		Product:  product,
		Strategy: strategy,
		Score:    product.CompletenessScore(),
		URL:      product.URL,
	}
}

// FailureResult carries only the strategy and the error; the score is 0.
func FailureResult(strategy ExtractionStrategy, errMsg string) ExtractionResult {
	return ExtractionResult{
		Success:  false,
		Strategy: strategy,
		Error:    errMsg,
	}
}
