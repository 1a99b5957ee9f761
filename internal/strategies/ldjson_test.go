package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

const ldProductHTML = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Product",
  "name": "Silk Scarf",
  "description": "Hand-rolled silk twill scarf.",
  "sku": "SC-2201",
  "brand": {"@type": "Brand", "name": "Atelier Nord"},
  "image": ["https://cdn.example.com/scarf-1.jpg", "https://cdn.example.com/scarf-2.jpg"],
  "offers": {
    "@type": "Offer",
    "price": "95.00",
    "priceCurrency": "EUR",
    "availability": "https://schema.org/InStock"
  }
}
</script>
</head><body></body></html>`

const ldGraphHTML = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {"@type": "WebSite", "name": "Shop"},
    {
      "@type": "Product",
      "name": "Canvas Tote",
      "brand": "Atelier Nord",
      "offers": [
        {"@type": "Offer", "price": 0, "priceCurrency": "EUR"},
        {"@type": "Offer", "price": 39.0, "priceCurrency": "EUR", "availability": "http://schema.org/OutOfStock"}
      ]
    }
  ]
}
</script>
</head><body></body></html>`

func TestStructuredMarkupCanHandle(t *testing.T) {
	s := &StructuredMarkupStrategy{}

	assert.True(t, s.CanHandle("u", pageWithHTML("u", ldProductHTML)))
	assert.False(t, s.CanHandle("u", pageWithHTML("u", "<html></html>")))
	assert.False(t, s.CanHandle("u", nil))
}

func TestStructuredMarkupExtract(t *testing.T) {
	s := &StructuredMarkupStrategy{}
	result := s.Extract("https://shop.example/scarf", pageWithHTML("u", ldProductHTML))

	require.True(t, result.Success)
	product := result.Product

	assert.Equal(t, "Silk Scarf", product.Name)
	assert.InDelta(t, 95.0, product.Price, 0.001)
	assert.Equal(t, "EUR", product.Currency)
	assert.Equal(t, "Atelier Nord", product.Brand)
	assert.Equal(t, "SC-2201", product.SKU)
	assert.Len(t, product.Images, 2)

	// In-stock state comes through as a single availability variant.
	require.Len(t, product.Variants, 1)
	assert.Equal(t, models.AvailabilityAvailable, product.Variants[0].Availability)
}

func TestStructuredMarkupGraphAndOfferArray(t *testing.T) {
	s := &StructuredMarkupStrategy{}
	result := s.Extract("u", pageWithHTML("u", ldGraphHTML))

	require.True(t, result.Success)
	product := result.Product

	assert.Equal(t, "Canvas Tote", product.Name)
	assert.Equal(t, "Atelier Nord", product.Brand)
	// The zero-priced offer is skipped in favor of the priced one.
	assert.InDelta(t, 39.0, product.Price, 0.001)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, models.AvailabilityUnavailable, product.Variants[0].Availability)
}

func TestStructuredMarkupIgnoresNonProductBlocks(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{"@type": "BreadcrumbList", "itemListElement": []}</script>
</head><body></body></html>`

	s := &StructuredMarkupStrategy{}
	result := s.Extract("u", pageWithHTML("u", html))

	assert.False(t, result.Success)
	assert.Equal(t, ErrSignalNotFound.Error(), result.Error)
}

func TestIsLDTypeArrayForm(t *testing.T) {
	m := map[string]interface{}{"@type": []interface{}{"Thing", "Product"}}
	assert.True(t, isLDType(m, "Product"))
	assert.False(t, isLDType(m, "Offer"))
}
