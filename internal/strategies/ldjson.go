package strategies

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// StructuredMarkupStrategy parses schema.org Product markup from
// application/ld+json script blocks. Widespread but often thinner than
// platform JSON: variants are rarely expressed.
type StructuredMarkupStrategy struct{}

func (s *StructuredMarkupStrategy) Kind() models.ExtractionStrategy {
	return models.StrategyStructuredMarkup
}

func (s *StructuredMarkupStrategy) CanHandle(url string, pd *models.PageData) bool {
	if pd == nil || pd.HTML == "" {
		return false
	}
	return strings.Contains(pd.HTML, "application/ld+json")
}

func (s *StructuredMarkupStrategy) Extract(url string, pd *models.PageData) models.ExtractionResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pd.HTML))
	if err != nil {
		return models.FailureResult(s.Kind(), "failed to parse HTML: "+err.Error())
	}

	var product *models.Product
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		node := findLDProduct(sel.Text())
		if node == nil {
			return true
		}
		if p := parseLDProduct(node, url); p != nil {
			product = p
			return false
		}
		return true
	})

	if product == nil {
		return models.FailureResult(s.Kind(), ErrSignalNotFound.Error())
	}
	return models.SuccessResult(s.Kind(), product)
}

// findLDProduct locates a @type Product object in an LD+JSON document,
// which may be a single object, a top-level array or an @graph wrapper.
func findLDProduct(text string) map[string]interface{} {
	var root interface{}
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return nil
	}
	return searchLDProduct(root, 0)
}

func searchLDProduct(v interface{}, depth int) map[string]interface{} {
	if depth > 4 {
		return nil
	}

	switch t := v.(type) {
	case map[string]interface{}:
		if isLDType(t, "Product") {
			return t
		}
		if graph, ok := t["@graph"]; ok {
			if found := searchLDProduct(graph, depth+1); found != nil {
				return found
			}
		}
	case []interface{}:
		for _, item := range t {
			if found := searchLDProduct(item, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

func isLDType(m map[string]interface{}, want string) bool {
	switch t := m["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

func parseLDProduct(node map[string]interface{}, url string) *models.Product {
	product := &models.Product{URL: url}

	if name, ok := stringField(node, "name"); ok {
		product.Name = cleanText(name)
	}
	if product.Name == "" {
		return nil
	}

	if desc, ok := stringField(node, "description"); ok {
		product.RawDescription = desc
		product.Description = stripHTML(desc)
	}
	if sku, ok := stringField(node, "sku", "mpn", "productID"); ok {
		product.SKU = sku
	}
	if cat, ok := stringField(node, "category"); ok {
		product.Category = cleanText(cat)
	}

	// brand may be a string or a nested Brand object.
	switch b := node["brand"].(type) {
	case string:
		product.Brand = cleanText(b)
	case map[string]interface{}:
		if name, ok := stringField(b, "name"); ok {
			product.Brand = cleanText(name)
		}
	}

	product.Images = dedupeStrings(collectImageURLs(node["image"]))

	price, currency, availability := parseLDOffers(node["offers"])
	product.Price = price
	product.Currency = currency

	// schema.org offers carry stock state but no size axis; surface it as
	// a single variant so availability still counts toward completeness.
	if availability != models.AvailabilityUnknown {
		product.Variants = append(product.Variants, models.Variant{
			SKU:          product.SKU,
			Availability: availability,
		})
	}

	if data, err := json.Marshal(node); err == nil {
		product.RawData = data
	}

	return product
}

// parseLDOffers handles a single Offer, an array of Offers and an
// AggregateOffer.
func parseLDOffers(v interface{}) (float64, string, models.Availability) {
	switch t := v.(type) {
	case map[string]interface{}:
		price, _ := numberField(t, "price", "lowPrice")
		currency := ""
		if cur, ok := stringField(t, "priceCurrency"); ok {
			currency = normalizeCurrency(cur)
		}
		return price, currency, ldAvailability(t)
	case []interface{}:
		for _, item := range t {
			if price, currency, avail := parseLDOffers(item); price > 0 {
				return price, currency, avail
			}
		}
	}
	return 0, "", models.AvailabilityUnknown
}

func ldAvailability(offer map[string]interface{}) models.Availability {
	avail, ok := stringField(offer, "availability")
	if !ok {
		return models.AvailabilityUnknown
	}
	switch {
	case strings.Contains(avail, "InStock"):
		return models.AvailabilityAvailable
	case strings.Contains(avail, "OutOfStock"), strings.Contains(avail, "SoldOut"):
		return models.AvailabilityUnavailable
	}
	return models.AvailabilityUnknown
}
