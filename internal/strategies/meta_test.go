package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

const ogHTML = `<!DOCTYPE html>
<html><head>
<meta property="og:title" content="Raw Denim Jacket" />
<meta property="og:description" content="14oz selvedge denim trucker jacket." />
<meta property="og:image" content="https://cdn.example.com/jacket-1.jpg" />
<meta property="og:image" content="https://cdn.example.com/jacket-2.jpg" />
<meta property="product:price:amount" content="219.00" />
<meta property="product:price:currency" content="EUR" />
<meta property="product:brand" content="Atelier Nord" />
</head><body></body></html>`

const ogMicrodataHTML = `<!DOCTYPE html>
<html><head>
<meta property="og:title" content="Raw Denim Jacket" />
</head><body>
<span itemprop="price" content="219.00"></span>
<span itemprop="priceCurrency" content="EUR"></span>
</body></html>`

func TestMetaTagsCanHandle(t *testing.T) {
	s := &MetaTagsStrategy{}

	assert.True(t, s.CanHandle("u", pageWithHTML("u", ogHTML)))
	assert.False(t, s.CanHandle("u", pageWithHTML("u", "<html></html>")))
}

func TestMetaTagsExtract(t *testing.T) {
	s := &MetaTagsStrategy{}
	result := s.Extract("https://shop.example/jacket", pageWithHTML("u", ogHTML))

	require.True(t, result.Success)
	product := result.Product

	assert.Equal(t, "Raw Denim Jacket", product.Name)
	assert.Equal(t, "14oz selvedge denim trucker jacket.", product.Description)
	assert.InDelta(t, 219.0, product.Price, 0.001)
	assert.Equal(t, "EUR", product.Currency)
	assert.Equal(t, "Atelier Nord", product.Brand)
	assert.Len(t, product.Images, 2)
	assert.Empty(t, product.Variants)
	assert.Equal(t, models.StrategyMetaTags, result.Strategy)
}

func TestMetaTagsMicrodataPriceFallback(t *testing.T) {
	s := &MetaTagsStrategy{}
	result := s.Extract("u", pageWithHTML("u", ogMicrodataHTML))

	require.True(t, result.Success)
	assert.InDelta(t, 219.0, result.Product.Price, 0.001)
	assert.Equal(t, "EUR", result.Product.Currency)
}

func TestMetaTagsRequiresTitle(t *testing.T) {
	html := `<html><head><meta property="og:image" content="https://x/a.jpg" /></head></html>`

	s := &MetaTagsStrategy{}
	result := s.Extract("u", pageWithHTML("u", html))

	assert.False(t, result.Success)
}
