package strategies

import (
	"encoding/json"
	"regexp"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// PlatformAPIStrategy reads the storefront's own catalog API responses
// captured during the page load: Shopify's /products/<handle>.js AJAX
// endpoint and Storefront GraphQL product queries. The page already
// authenticated and shaped these calls, so replay is unnecessary.
type PlatformAPIStrategy struct{}

var (
	productJSEndpointRe = regexp.MustCompile(`/products/[^/?]+\.js(\?|$)`)
	graphqlEndpointRe   = regexp.MustCompile(`/api/[^/]*/?graphql`)
)

func (s *PlatformAPIStrategy) Kind() models.ExtractionStrategy {
	return models.StrategyPlatformAPI
}

func (s *PlatformAPIStrategy) CanHandle(url string, pd *models.PageData) bool {
	if pd == nil {
		return false
	}
	for respURL := range pd.JSONResponses {
		if productJSEndpointRe.MatchString(respURL) || graphqlEndpointRe.MatchString(respURL) {
			return true
		}
	}
	return false
}

func (s *PlatformAPIStrategy) Extract(url string, pd *models.PageData) models.ExtractionResult {
	// Prefer the product.js endpoint; its shape matches the embedded
	// Shopify blob exactly.
	for respURL, body := range pd.JSONResponses {
		if !productJSEndpointRe.MatchString(respURL) {
			continue
		}
		if product := parseShopifyProduct(body, url, pd.HTML); product != nil {
			return models.SuccessResult(s.Kind(), product)
		}
	}

	for respURL, body := range pd.JSONResponses {
		if !graphqlEndpointRe.MatchString(respURL) {
			continue
		}
		if product := parseGraphQLProduct(body, url); product != nil {
			return models.SuccessResult(s.Kind(), product)
		}
	}

	return models.FailureResult(s.Kind(), ErrSignalNotFound.Error())
}

// APIURLPattern derives the reusable endpoint pattern for a BrandConfig
// from a captured response URL: the product handle is replaced by a
// placeholder.
func APIURLPattern(respURL string) string {
	if loc := productJSEndpointRe.FindStringIndex(respURL); loc != nil {
		prefix := respURL[:loc[0]]
		return prefix + "/products/{handle}.js"
	}
	return respURL
}

// graphQLProductEnvelope matches the common Storefront API response
// nesting: data.product or data.productByHandle.
type graphQLProductEnvelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

func parseGraphQLProduct(body json.RawMessage, url string) *models.Product {
	var envelope graphQLProductEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Data == nil {
		return nil
	}

	var raw json.RawMessage
	for _, key := range []string{"product", "productByHandle"} {
		if r, ok := envelope.Data[key]; ok {
			raw = r
			break
		}
	}
	if raw == nil {
		return nil
	}

	var node map[string]interface{}
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil
	}

	product := &models.Product{URL: url, RawData: raw}

	if name, ok := stringField(node, "title", "name"); ok {
		product.Name = cleanText(name)
	}
	if product.Name == "" {
		return nil
	}

	if desc, ok := stringField(node, "description", "descriptionHtml"); ok {
		product.RawDescription = desc
		product.Description = stripHTML(desc)
	}
	if brand, ok := stringField(node, "vendor", "brand"); ok {
		product.Brand = cleanText(brand)
	}
	if cat, ok := stringField(node, "productType"); ok {
		product.Category = cleanText(cat)
	}

	// priceRange.minVariantPrice is the Storefront API's price shape.
	if pr, ok := node["priceRange"].(map[string]interface{}); ok {
		if minPrice, ok := pr["minVariantPrice"].(map[string]interface{}); ok {
			if amount, ok := numberField(minPrice, "amount"); ok {
				product.Price = amount
			}
			if cur, ok := stringField(minPrice, "currencyCode"); ok {
				product.Currency = normalizeCurrency(cur)
			}
		}
	}

	product.Images = dedupeStrings(collectImageURLs(graphQLConnection(node["images"])))
	product.Variants = collectVariants(graphQLConnection(node["variants"]))

	return product
}

// graphQLConnection unwraps {edges: [{node: ...}]} connections into a
// plain slice; pass-through for values already in slice form.
func graphQLConnection(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	edges, ok := m["edges"].([]interface{})
	if !ok {
		return v
	}

	nodes := make([]interface{}, 0, len(edges))
	for _, e := range edges {
		if edge, ok := e.(map[string]interface{}); ok {
			if node, ok := edge["node"]; ok {
				nodes = append(nodes, node)
			}
		}
	}
	return nodes
}
