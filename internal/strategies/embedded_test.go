package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

const shopifyProductHTML = `<!DOCTYPE html>
<html><head>
<script>window.ShopifyAnalytics = {"currency":"EUR"};</script>
</head><body>
<script type="application/json" data-product-json>
{
  "title": "Merino Crewneck",
  "vendor": "Atelier Nord",
  "type": "Knitwear",
  "description": "<p>Fine merino crewneck, knitted in Italy.</p>",
  "price": 14900,
  "images": ["//cdn.shop.example/merino-front.jpg", "//cdn.shop.example/merino-back.jpg"],
  "options": ["Size", "Color"],
  "variants": [
    {"title": "S / Navy", "option1": "S", "option2": "Navy", "sku": "AN-MC-S", "price": 14900, "available": true, "inventory_quantity": 4},
    {"title": "M / Navy", "option1": "M", "option2": "Navy", "sku": "AN-MC-M", "price": 14900, "available": false}
  ]
}
</script>
</body></html>`

const nextDataHTML = `<!DOCTYPE html>
<html><body>
<script id="__NEXT_DATA__" type="application/json">
{
  "props": {
    "pageProps": {
      "product": {
        "name": "Tailored Wool Trousers",
        "price": 189.0,
        "currencyCode": "eur",
        "description": "High-waisted trousers in virgin wool.",
        "brandName": "Atelier Nord",
        "sku": "AN-TW-01",
        "productType": "Trousers",
        "images": [{"url": "https://cdn.example.com/trousers.jpg"}],
        "variants": [
          {"size": "46", "sku": "AN-TW-01-46", "available": true},
          {"size": "48", "sku": "AN-TW-01-48", "available": false}
        ]
      }
    }
  }
}
</script>
</body></html>`

func pageWithHTML(url, html string) *models.PageData {
	pd := models.NewPageData(url)
	pd.HTML = html
	return pd
}

func TestEmbeddedJSONCanHandle(t *testing.T) {
	s := &EmbeddedJSONStrategy{}

	assert.True(t, s.CanHandle("u", pageWithHTML("u", shopifyProductHTML)))
	assert.True(t, s.CanHandle("u", pageWithHTML("u", nextDataHTML)))
	assert.False(t, s.CanHandle("u", pageWithHTML("u", "<html><body><h1>x</h1></body></html>")))
	assert.False(t, s.CanHandle("u", nil))
}

func TestEmbeddedJSONExtractShopify(t *testing.T) {
	s := &EmbeddedJSONStrategy{}
	result := s.Extract("https://shop.example/products/merino", pageWithHTML("u", shopifyProductHTML))

	require.True(t, result.Success)
	product := result.Product

	assert.Equal(t, "Merino Crewneck", product.Name)
	assert.InDelta(t, 149.0, product.Price, 0.001)
	assert.Equal(t, "EUR", product.Currency)
	assert.Equal(t, "Atelier Nord", product.Brand)
	assert.Equal(t, "Knitwear", product.Category)
	assert.Equal(t, "Fine merino crewneck, knitted in Italy.", product.Description)
	assert.Equal(t, []string{
		"https://cdn.shop.example/merino-front.jpg",
		"https://cdn.shop.example/merino-back.jpg",
	}, product.Images)

	require.Len(t, product.Variants, 2)
	assert.Equal(t, "S", product.Variants[0].Size)
	assert.Equal(t, "Navy", product.Variants[0].Color)
	assert.Equal(t, models.AvailabilityAvailable, product.Variants[0].Availability)
	require.NotNil(t, product.Variants[0].StockCount)
	assert.Equal(t, 4, *product.Variants[0].StockCount)
	assert.Equal(t, models.AvailabilityUnavailable, product.Variants[1].Availability)

	assert.Equal(t, "AN-MC-S", product.SKU)
	assert.Equal(t, models.StrategyEmbeddedJSON, result.Strategy)
}

func TestEmbeddedJSONExtractNextData(t *testing.T) {
	s := &EmbeddedJSONStrategy{}
	result := s.Extract("https://shop.example/p/trousers", pageWithHTML("u", nextDataHTML))

	require.True(t, result.Success)
	product := result.Product

	assert.Equal(t, "Tailored Wool Trousers", product.Name)
	assert.InDelta(t, 189.0, product.Price, 0.001)
	assert.Equal(t, "EUR", product.Currency)
	assert.Equal(t, "Atelier Nord", product.Brand)
	assert.Equal(t, "AN-TW-01", product.SKU)
	assert.Equal(t, "Trousers", product.Category)
	assert.Equal(t, []string{"https://cdn.example.com/trousers.jpg"}, product.Images)

	require.Len(t, product.Variants, 2)
	assert.Equal(t, "46", product.Variants[0].Size)
	assert.Equal(t, models.AvailabilityAvailable, product.Variants[0].Availability)
	assert.Equal(t, models.AvailabilityUnavailable, product.Variants[1].Availability)
}

func TestEmbeddedJSONNoSignal(t *testing.T) {
	s := &EmbeddedJSONStrategy{}

	// data-product-json attribute present but the blob is broken.
	html := `<html><body><script data-product-json>{not json</script></body></html>`
	result := s.Extract("u", pageWithHTML("u", html))

	assert.False(t, result.Success)
	assert.Nil(t, result.Product)
	assert.Equal(t, ErrSignalNotFound.Error(), result.Error)
}

func TestShopifyOptionIndexes(t *testing.T) {
	size, color := shopifyOptionIndexes([]string{"Size", "Color"})
	assert.Equal(t, 0, size)
	assert.Equal(t, 1, color)

	size, color = shopifyOptionIndexes([]string{"Farbe", "Größe"})
	assert.Equal(t, 1, size)
	assert.Equal(t, 0, color)

	size, color = shopifyOptionIndexes([]string{"Material"})
	assert.Equal(t, -1, size)
	assert.Equal(t, -1, color)
}

func TestFindProductNodeDepthLimit(t *testing.T) {
	// Nest the product below the walk depth; it must not be found.
	deep := map[string]interface{}{}
	current := deep
	for i := 0; i < maxWalkDepth+2; i++ {
		next := map[string]interface{}{}
		current["wrapper"] = next
		current = next
	}
	current["name"] = "Hidden"
	current["price"] = 10.0

	assert.Nil(t, findProductNode(deep, 0))
}
