package strategies

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// DOMHeuristicStrategy is the last resort: selector heuristics over the
// rendered document. It handles any page with an h1 but produces the
// weakest records, which is why it ranks last.
type DOMHeuristicStrategy struct{}

func (s *DOMHeuristicStrategy) Kind() models.ExtractionStrategy {
	return models.StrategyDOMHeuristic
}

func (s *DOMHeuristicStrategy) CanHandle(url string, pd *models.PageData) bool {
	return pd != nil && pd.HTML != ""
}

func (s *DOMHeuristicStrategy) Extract(url string, pd *models.PageData) models.ExtractionResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pd.HTML))
	if err != nil {
		return models.FailureResult(s.Kind(), "failed to parse HTML: "+err.Error())
	}

	product := &models.Product{URL: url}

	product.Name = extractHeuristicName(doc)
	if product.Name == "" {
		return models.FailureResult(s.Kind(), "no product name found in document")
	}

	priceText := extractHeuristicPriceText(doc)
	product.Price = parsePrice(priceText)
	product.Currency = currencyFromText(priceText)

	product.Description = extractHeuristicDescription(doc)
	product.Images = extractHeuristicImages(doc)
	product.Variants = extractHeuristicVariants(doc)

	if crumb := doc.Find(`nav[class*="breadcrumb"] a, .breadcrumb a, [class*="breadcrumbs"] a`); crumb.Length() > 1 {
		product.Category = cleanText(crumb.Eq(crumb.Length() - 1).Text())
	}

	return models.SuccessResult(s.Kind(), product)
}

func extractHeuristicName(doc *goquery.Document) string {
	selectors := []string{
		`h1[class*="product"]`,
		`[class*="product-title"] h1`,
		`[class*="product-name"]`,
		"h1",
	}
	for _, sel := range selectors {
		if name := cleanText(doc.Find(sel).First().Text()); name != "" {
			return name
		}
	}
	return ""
}

func extractHeuristicPriceText(doc *goquery.Document) string {
	selectors := []string{
		`[class*="price"]:not([class*="compare"]):not([class*="old"])`,
		`[data-price]`,
		`[id*="price"]`,
	}
	for _, sel := range selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := cleanText(s.Text())
			if parsePrice(text) > 0 {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func extractHeuristicDescription(doc *goquery.Document) string {
	selectors := []string{
		`[class*="product-description"]`,
		`[class*="product__description"]`,
		`[id*="description"]`,
		`[class*="description"]`,
	}
	for _, sel := range selectors {
		if desc := cleanText(doc.Find(sel).First().Text()); len(desc) > 40 {
			return desc
		}
	}
	return ""
}

func extractHeuristicImages(doc *goquery.Document) []string {
	var images []string

	doc.Find(`[class*="product"] img, [class*="gallery"] img, main img`).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		// Icons and badges are noise.
		if w, err := strconv.Atoi(s.AttrOr("width", "")); err == nil && w < 100 {
			return
		}
		images = append(images, absoluteImageURL(src))
	})

	if len(images) > 8 {
		images = images[:8]
	}
	return dedupeStrings(images)
}

var sizeLabels = map[string]bool{
	"XXS": true, "XS": true, "S": true, "M": true, "L": true,
	"XL": true, "XXL": true, "XXXL": true, "2XL": true, "3XL": true, "4XL": true,
}

func extractHeuristicVariants(doc *goquery.Document) []models.Variant {
	var variants []models.Variant
	seen := make(map[string]bool)

	add := func(label string, unavailable bool) {
		label = strings.ToUpper(cleanText(label))
		if label == "" || seen[label] {
			return
		}
		if !sizeLabels[label] && !isNumericSize(label) {
			return
		}
		seen[label] = true

		availability := models.AvailabilityUnknown
		if unavailable {
			availability = models.AvailabilityUnavailable
		}
		variants = append(variants, models.Variant{
			Size:         label,
			Availability: availability,
		})
	}

	doc.Find(`select[class*="size"] option, select[id*="size"] option, select[name*="size"] option`).Each(func(_ int, s *goquery.Selection) {
		_, disabled := s.Attr("disabled")
		add(s.Text(), disabled)
	})

	doc.Find(`[class*="size"] button, [class*="size"] label, [class*="swatch"] label`).Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		unavailable := strings.Contains(class, "disabled") || strings.Contains(class, "sold-out") || strings.Contains(class, "unavailable")
		add(s.Text(), unavailable)
	})

	return variants
}

// isNumericSize accepts numeric apparel/shoe sizes like "38" or "42.5".
func isNumericSize(label string) bool {
	if len(label) == 0 || len(label) > 5 {
		return false
	}
	dot := false
	for _, r := range label {
		switch {
		case r >= '0' && r <= '9':
		case (r == '.' || r == ',') && !dot:
			dot = true
		default:
			return false
		}
	}
	return true
}
