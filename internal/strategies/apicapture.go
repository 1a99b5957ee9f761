package strategies

import (
	"encoding/json"
	"sort"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// APICaptureStrategy scans every captured first-party JSON response for
// a product-shaped object. It has no endpoint knowledge, so it applies
// the same generic walk the embedded strategy uses on __NEXT_DATA__,
// this time over XHR traffic. Less reliable than the platform-specific
// strategies; it ranks below them.
type APICaptureStrategy struct{}

func (s *APICaptureStrategy) Kind() models.ExtractionStrategy {
	return models.StrategyAPICapture
}

func (s *APICaptureStrategy) CanHandle(url string, pd *models.PageData) bool {
	return pd != nil && len(pd.JSONResponses) > 0
}

func (s *APICaptureStrategy) Extract(url string, pd *models.PageData) models.ExtractionResult {
	// Iterate deterministically: map order would make ties between two
	// candidate responses flap run to run.
	urls := make([]string, 0, len(pd.JSONResponses))
	for respURL := range pd.JSONResponses {
		urls = append(urls, respURL)
	}
	sort.Strings(urls)

	var best *models.Product
	bestScore := -1

	for _, respURL := range urls {
		product := productFromResponse(pd.JSONResponses[respURL], url)
		if product == nil {
			continue
		}
		product.Finalize()
		if score := product.CompletenessScore(); score > bestScore {
			best = product
			bestScore = score
		}
	}

	if best == nil {
		return models.FailureResult(s.Kind(), ErrSignalNotFound.Error())
	}
	return models.SuccessResult(s.Kind(), best)
}

func productFromResponse(body json.RawMessage, url string) *models.Product {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return nil
	}

	node := findProductNode(root, 0)
	if node == nil {
		return nil
	}

	product := &models.Product{URL: url}

	if name, ok := stringField(node, "name", "title", "productName"); ok {
		product.Name = cleanText(name)
	}
	if product.Name == "" {
		return nil
	}

	if price, ok := numberField(node, "price", "currentPrice", "salePrice"); ok {
		product.Price = price
	}
	if cur, ok := stringField(node, "currency", "currencyCode", "priceCurrency"); ok {
		product.Currency = normalizeCurrency(cur)
	}
	if desc, ok := stringField(node, "description", "descriptionHtml"); ok {
		product.RawDescription = desc
		product.Description = stripHTML(desc)
	}
	if brand, ok := stringField(node, "brand", "vendor", "brandName"); ok {
		product.Brand = cleanText(brand)
	}
	if sku, ok := stringField(node, "sku", "productId", "styleNumber"); ok {
		product.SKU = sku
	}
	if cat, ok := stringField(node, "category", "productType"); ok {
		product.Category = cleanText(cat)
	}

	product.Images = dedupeStrings(collectImageURLs(node["images"]))
	product.Variants = collectVariants(node["variants"])

	if data, err := json.Marshal(node); err == nil {
		product.RawData = data
	}

	return product
}
