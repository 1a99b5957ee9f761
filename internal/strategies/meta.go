package strategies

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// MetaTagsStrategy falls back to OpenGraph and product meta tags. Almost
// every storefront has og:title and og:image, so this rarely fails
// outright, but it never sees variants.
type MetaTagsStrategy struct{}

func (s *MetaTagsStrategy) Kind() models.ExtractionStrategy {
	return models.StrategyMetaTags
}

func (s *MetaTagsStrategy) CanHandle(url string, pd *models.PageData) bool {
	if pd == nil || pd.HTML == "" {
		return false
	}
	return strings.Contains(pd.HTML, `property="og:`) ||
		strings.Contains(pd.HTML, `property='og:`)
}

func (s *MetaTagsStrategy) Extract(url string, pd *models.PageData) models.ExtractionResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pd.HTML))
	if err != nil {
		return models.FailureResult(s.Kind(), "failed to parse HTML: "+err.Error())
	}

	product := &models.Product{URL: url}

	product.Name = cleanText(metaContent(doc, "og:title"))
	if product.Name == "" {
		return models.FailureResult(s.Kind(), ErrSignalNotFound.Error())
	}

	product.Description = cleanText(metaContent(doc, "og:description"))

	doc.Find(`meta[property="og:image"], meta[property="og:image:secure_url"]`).Each(func(_ int, sel *goquery.Selection) {
		if content, ok := sel.Attr("content"); ok && content != "" {
			product.Images = append(product.Images, absoluteImageURL(content))
		}
	})
	product.Images = dedupeStrings(product.Images)

	priceText := metaContent(doc, "product:price:amount", "og:price:amount")
	if priceText != "" {
		product.Price = parsePrice(priceText)
	}
	product.Currency = normalizeCurrency(metaContent(doc, "product:price:currency", "og:price:currency"))

	product.Brand = cleanText(metaContent(doc, "product:brand", "og:brand"))

	// Some shops expose the price only through itemprop microdata.
	if product.Price == 0 {
		if content, ok := doc.Find(`[itemprop="price"]`).First().Attr("content"); ok {
			product.Price = parsePrice(content)
		}
	}
	if product.Currency == "" {
		if content, ok := doc.Find(`[itemprop="priceCurrency"]`).First().Attr("content"); ok {
			product.Currency = normalizeCurrency(content)
		}
	}

	return models.SuccessResult(s.Kind(), product)
}

func metaContent(doc *goquery.Document, properties ...string) string {
	for _, prop := range properties {
		sel := doc.Find(`meta[property="` + prop + `"], meta[name="` + prop + `"]`).First()
		if content, ok := sel.Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}
