package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

func TestAPICaptureCanHandle(t *testing.T) {
	s := &APICaptureStrategy{}

	assert.True(t, s.CanHandle("u", pageWithResponses("u", map[string]string{
		"https://shop.example/api/items/1": `{}`,
	})))
	assert.False(t, s.CanHandle("u", models.NewPageData("u")))
	assert.False(t, s.CanHandle("u", nil))
}

func TestAPICapturePicksRichestResponse(t *testing.T) {
	s := &APICaptureStrategy{}
	pd := pageWithResponses("u", map[string]string{
		// Thin record: name and price only.
		"https://shop.example/api/recommendations": `{"items": [{"name": "Linen Shirt", "price": 89.0}]}`,
		// Rich record: full product payload.
		"https://shop.example/api/catalog/linen-shirt": `{
			"product": {
				"name": "Linen Shirt",
				"price": 89.0,
				"currency": "EUR",
				"description": "Washed linen shirt with mother-of-pearl buttons.",
				"brand": "Atelier Nord",
				"images": ["https://cdn.example.com/linen.jpg"],
				"variants": [{"size": "M", "available": true}]
			}
		}`,
	})

	result := s.Extract("https://shop.example/linen-shirt", pd)

	require.True(t, result.Success)
	assert.Equal(t, "EUR", result.Product.Currency)
	assert.Equal(t, "Atelier Nord", result.Product.Brand)
	require.Len(t, result.Product.Variants, 1)
}

func TestAPICaptureDeterministicAcrossRuns(t *testing.T) {
	s := &APICaptureStrategy{}
	responses := map[string]string{
		"https://shop.example/api/a": `{"name": "Candidate A", "price": 10.0}`,
		"https://shop.example/api/b": `{"name": "Candidate B", "price": 10.0}`,
	}

	first := s.Extract("u", pageWithResponses("u", responses))
	require.True(t, first.Success)

	for i := 0; i < 5; i++ {
		again := s.Extract("u", pageWithResponses("u", responses))
		require.True(t, again.Success)
		assert.Equal(t, first.Product.Name, again.Product.Name)
	}
}

func TestAPICaptureNoProductShape(t *testing.T) {
	s := &APICaptureStrategy{}
	pd := pageWithResponses("u", map[string]string{
		"https://shop.example/api/session": `{"token": "abc", "expires": 3600}`,
	})

	result := s.Extract("u", pd)
	assert.False(t, result.Success)
	assert.Equal(t, ErrSignalNotFound.Error(), result.Error)
}
