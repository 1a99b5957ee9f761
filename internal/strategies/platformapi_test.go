package strategies

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

const shopifyProductJS = `{
  "title": "Pleated Skirt",
  "vendor": "Atelier Nord",
  "type": "Skirts",
  "description": "Knife-pleated midi skirt.",
  "price": 15900,
  "images": ["https://cdn.shop.example/skirt.jpg"],
  "options": ["Size"],
  "variants": [
    {"title": "36", "option1": "36", "sku": "AN-PS-36", "price": 15900, "available": true}
  ]
}`

const graphQLResponse = `{
  "data": {
    "product": {
      "title": "Leather Chelsea Boots",
      "vendor": "Atelier Nord",
      "productType": "Footwear",
      "description": "Calf leather chelsea boots.",
      "priceRange": {"minVariantPrice": {"amount": "249.0", "currencyCode": "EUR"}},
      "images": {"edges": [{"node": {"url": "https://cdn.example.com/boots.jpg"}}]},
      "variants": {"edges": [
        {"node": {"title": "41", "sku": "AN-CB-41", "available": true}},
        {"node": {"title": "42", "sku": "AN-CB-42", "available": false}}
      ]}
    }
  }
}`

func pageWithResponses(url string, responses map[string]string) *models.PageData {
	pd := models.NewPageData(url)
	for respURL, body := range responses {
		pd.JSONResponses[respURL] = json.RawMessage(body)
	}
	return pd
}

func TestPlatformAPICanHandle(t *testing.T) {
	s := &PlatformAPIStrategy{}

	assert.True(t, s.CanHandle("u", pageWithResponses("u", map[string]string{
		"https://shop.example/products/pleated-skirt.js": shopifyProductJS,
	})))
	assert.True(t, s.CanHandle("u", pageWithResponses("u", map[string]string{
		"https://shop.example/api/2024-01/graphql": graphQLResponse,
	})))
	assert.False(t, s.CanHandle("u", pageWithResponses("u", map[string]string{
		"https://shop.example/cart.json": `{}`,
	})))
	assert.False(t, s.CanHandle("u", nil))
}

func TestPlatformAPIExtractProductJS(t *testing.T) {
	s := &PlatformAPIStrategy{}
	pd := pageWithResponses("u", map[string]string{
		"https://shop.example/products/pleated-skirt.js?view=json": shopifyProductJS,
	})

	result := s.Extract("https://shop.example/products/pleated-skirt", pd)

	require.True(t, result.Success)
	product := result.Product
	assert.Equal(t, "Pleated Skirt", product.Name)
	assert.InDelta(t, 159.0, product.Price, 0.001)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, "36", product.Variants[0].Size)
	assert.Equal(t, models.AvailabilityAvailable, product.Variants[0].Availability)
}

func TestPlatformAPIExtractGraphQL(t *testing.T) {
	s := &PlatformAPIStrategy{}
	pd := pageWithResponses("u", map[string]string{
		"https://shop.example/api/2024-01/graphql": graphQLResponse,
	})

	result := s.Extract("https://shop.example/products/boots", pd)

	require.True(t, result.Success)
	product := result.Product
	assert.Equal(t, "Leather Chelsea Boots", product.Name)
	assert.InDelta(t, 249.0, product.Price, 0.001)
	assert.Equal(t, "EUR", product.Currency)
	assert.Equal(t, "Atelier Nord", product.Brand)
	assert.Equal(t, "Footwear", product.Category)
	assert.Equal(t, []string{"https://cdn.example.com/boots.jpg"}, product.Images)

	require.Len(t, product.Variants, 2)
	assert.Equal(t, "41", product.Variants[0].Size)
	assert.Equal(t, models.AvailabilityAvailable, product.Variants[0].Availability)
	assert.Equal(t, models.AvailabilityUnavailable, product.Variants[1].Availability)
}

func TestPlatformAPINoProductResponses(t *testing.T) {
	s := &PlatformAPIStrategy{}
	pd := pageWithResponses("u", map[string]string{
		"https://shop.example/products/x.js": `{"title": ""}`,
	})

	result := s.Extract("u", pd)
	assert.False(t, result.Success)
}

func TestAPIURLPattern(t *testing.T) {
	assert.Equal(t,
		"https://shop.example/products/{handle}.js",
		APIURLPattern("https://shop.example/products/pleated-skirt.js?view=json"))
	assert.Equal(t,
		"https://shop.example/api/graphql",
		APIURLPattern("https://shop.example/api/graphql"))
}

func TestGraphQLConnectionUnwrap(t *testing.T) {
	conn := map[string]interface{}{
		"edges": []interface{}{
			map[string]interface{}{"node": map[string]interface{}{"sku": "a"}},
			map[string]interface{}{"node": map[string]interface{}{"sku": "b"}},
		},
	}

	nodes, ok := graphQLConnection(conn).([]interface{})
	require.True(t, ok)
	assert.Len(t, nodes, 2)

	// Non-connection values pass through untouched.
	plain := []interface{}{"x"}
	assert.Equal(t, interface{}(plain), graphQLConnection(plain))
}
