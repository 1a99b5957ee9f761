package strategies

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// EmbeddedJSONStrategy parses product JSON that storefront platforms
// embed in the document: Shopify product-JSON script tags and Next.js
// __NEXT_DATA__ payloads. The most reliable signal when present, since
// the blob is the storefront's own source of truth for the page.
type EmbeddedJSONStrategy struct{}

func (s *EmbeddedJSONStrategy) Kind() models.ExtractionStrategy {
	return models.StrategyEmbeddedJSON
}

func (s *EmbeddedJSONStrategy) CanHandle(url string, pd *models.PageData) bool {
	if pd == nil || pd.HTML == "" {
		return false
	}
	return strings.Contains(pd.HTML, "data-product-json") ||
		strings.Contains(pd.HTML, "ProductJson") ||
		strings.Contains(pd.HTML, "__NEXT_DATA__")
}

func (s *EmbeddedJSONStrategy) Extract(url string, pd *models.PageData) models.ExtractionResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pd.HTML))
	if err != nil {
		return models.FailureResult(s.Kind(), "failed to parse HTML: "+err.Error())
	}

	if raw := findShopifyProductJSON(doc); raw != nil {
		if product := parseShopifyProduct(raw, url, pd.HTML); product != nil {
			return models.SuccessResult(s.Kind(), product)
		}
	}

	if raw := findNextDataJSON(doc); raw != nil {
		if product := parseNextDataProduct(raw, url); product != nil {
			return models.SuccessResult(s.Kind(), product)
		}
	}

	return models.FailureResult(s.Kind(), ErrSignalNotFound.Error())
}

func findShopifyProductJSON(doc *goquery.Document) json.RawMessage {
	var raw json.RawMessage

	doc.Find(`script[data-product-json], script[id^="ProductJson"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if json.Valid([]byte(text)) {
			raw = json.RawMessage(text)
			return false
		}
		return true
	})

	return raw
}

func findNextDataJSON(doc *goquery.Document) json.RawMessage {
	text := strings.TrimSpace(doc.Find(`script#__NEXT_DATA__`).First().Text())
	if text == "" || !json.Valid([]byte(text)) {
		return nil
	}
	return json.RawMessage(text)
}

// shopifyProduct is the shape of Shopify's embedded product JSON. Prices
// are in minor units.
type shopifyProduct struct {
	Title       string   `json:"title"`
	Vendor      string   `json:"vendor"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Variants    []struct {
		Title             string   `json:"title"`
		Option1           string   `json:"option1"`
		Option2           string   `json:"option2"`
		SKU               string   `json:"sku"`
		Price             float64  `json:"price"`
		Available         *bool    `json:"available"`
		InventoryQuantity *int     `json:"inventory_quantity"`
	} `json:"variants"`
	Options []string `json:"options"`
}

var currencyBlobRe = regexp.MustCompile(`"currency"\s*:\s*"([A-Z]{3})"`)

func parseShopifyProduct(raw json.RawMessage, url, html string) *models.Product {
	var sp shopifyProduct
	if err := json.Unmarshal(raw, &sp); err != nil {
		return nil
	}
	if sp.Title == "" {
		return nil
	}

	product := &models.Product{
		Name:           sp.Title,
		Price:          sp.Price / 100,
		URL:            url,
		Brand:          sp.Vendor,
		Category:       sp.Type,
		Description:    stripHTML(sp.Description),
		RawDescription: sp.Description,
		RawData:        raw,
	}

	for _, img := range sp.Images {
		product.Images = append(product.Images, absoluteImageURL(img))
	}
	product.Images = dedupeStrings(product.Images)

	// The embedded blob carries no currency; the analytics meta next to
	// it usually does.
	if m := currencyBlobRe.FindStringSubmatch(html); len(m) > 1 {
		product.Currency = m[1]
	}

	sizeIdx, colorIdx := shopifyOptionIndexes(sp.Options)
	for _, v := range sp.Variants {
		variant := models.Variant{
			SKU:          v.SKU,
			Availability: models.AvailabilityUnknown,
		}
		if v.Price > 0 {
			price := v.Price / 100
			variant.Price = &price
		}
		if v.Available != nil {
			if *v.Available {
				variant.Availability = models.AvailabilityAvailable
			} else {
				variant.Availability = models.AvailabilityUnavailable
			}
		}
		if v.InventoryQuantity != nil && *v.InventoryQuantity >= 0 {
			variant.StockCount = v.InventoryQuantity
		}

		opts := []string{v.Option1, v.Option2}
		if sizeIdx >= 0 && sizeIdx < len(opts) {
			variant.Size = opts[sizeIdx]
		}
		if colorIdx >= 0 && colorIdx < len(opts) {
			variant.Color = opts[colorIdx]
		}
		if variant.Size == "" && variant.Color == "" && v.Title != "" && v.Title != "Default Title" {
			variant.Size = v.Title
		}

		product.Variants = append(product.Variants, variant)
	}

	if len(product.Variants) > 0 && len(product.Variants[0].SKU) > 0 {
		product.SKU = product.Variants[0].SKU
	}

	return product
}

// shopifyOptionIndexes locates the size and color axes in the product's
// option names.
func shopifyOptionIndexes(options []string) (sizeIdx, colorIdx int) {
	sizeIdx, colorIdx = -1, -1
	for i, opt := range options {
		lower := strings.ToLower(opt)
		switch {
		case strings.Contains(lower, "size") || strings.Contains(lower, "größe") || strings.Contains(lower, "taille"):
			sizeIdx = i
		case strings.Contains(lower, "color") || strings.Contains(lower, "colour") || strings.Contains(lower, "farbe"):
			colorIdx = i
		}
	}
	return sizeIdx, colorIdx
}

// parseNextDataProduct walks a __NEXT_DATA__ payload for the page's
// product node. Frameworks nest it differently per site, so the walk is
// generic: the deepest object carrying both a name and a price wins.
func parseNextDataProduct(raw json.RawMessage, url string) *models.Product {
	var root interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
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

const maxWalkDepth = 12

// findProductNode returns the first map that looks like a product record.
func findProductNode(v interface{}, depth int) map[string]interface{} {
	if depth > maxWalkDepth {
		return nil
	}

	switch t := v.(type) {
	case map[string]interface{}:
		if isProductNode(t) {
			return t
		}
		// Prefer an explicitly-named product child over a blind scan.
		for _, key := range []string{"product", "pageProps", "props", "data"} {
			if child, ok := t[key]; ok {
				if found := findProductNode(child, depth+1); found != nil {
					return found
				}
			}
		}
		for _, child := range t {
			if found := findProductNode(child, depth+1); found != nil {
				return found
			}
		}
	case []interface{}:
		for _, child := range t {
			if found := findProductNode(child, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

func isProductNode(m map[string]interface{}) bool {
	_, hasName := stringField(m, "name", "title", "productName")
	if !hasName {
		return false
	}
	if _, hasPrice := numberField(m, "price", "currentPrice", "salePrice"); hasPrice {
		return true
	}
	_, hasVariants := m["variants"]
	return hasVariants
}

func stringField(m map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func numberField(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			if v > 0 {
				return v, true
			}
		case string:
			if p := parsePrice(v); p > 0 {
				return p, true
			}
		case map[string]interface{}:
			// Price objects like {"amount": 59.95, "currency": "EUR"}.
			if amount, ok := numberField(v, "amount", "value"); ok {
				return amount, true
			}
		}
	}
	return 0, false
}

func collectImageURLs(v interface{}) []string {
	var out []string
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			switch img := item.(type) {
			case string:
				out = append(out, absoluteImageURL(img))
			case map[string]interface{}:
				if u, ok := stringField(img, "url", "src", "originalSrc"); ok {
					out = append(out, absoluteImageURL(u))
				}
			}
		}
	case string:
		out = append(out, absoluteImageURL(t))
	}
	return out
}

func collectVariants(v interface{}) []models.Variant {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	var out []models.Variant
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		variant := models.Variant{Availability: models.AvailabilityUnknown}
		if size, ok := stringField(m, "size", "option1", "title"); ok {
			variant.Size = size
		}
		if color, ok := stringField(m, "color", "colour", "option2"); ok {
			variant.Color = color
		}
		if sku, ok := stringField(m, "sku"); ok {
			variant.SKU = sku
		}
		if price, ok := numberField(m, "price"); ok {
			variant.Price = &price
		}
		switch avail := m["available"].(type) {
		case bool:
			if avail {
				variant.Availability = models.AvailabilityAvailable
			} else {
				variant.Availability = models.AvailabilityUnavailable
			}
		}
		if qty, ok := m["inventory_quantity"].(float64); ok && qty >= 0 {
			n := int(qty)
			variant.StockCount = &n
		}

		out = append(out, variant)
	}
	return out
}
