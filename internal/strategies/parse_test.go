package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"plain integer", "79", 79},
		{"us decimal", "79.95", 79.95},
		{"european decimal", "79,95", 79.95},
		{"us thousands", "1,299.00", 1299},
		{"european thousands", "1.299,00", 1299},
		{"with euro symbol", "€ 129,00", 129},
		{"with dollar prefix", "$49.50 USD", 49.5},
		{"embedded in text", "Now only 24,90 instead of 39,90", 24.9},
		{"space as thousands separator", "1 299,00", 1299},
		{"no digits", "Sold out", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, parsePrice(tt.text), 0.001)
		})
	}
}

func TestCurrencyFromText(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"€ 129,00", "EUR"},
		{"129.00 EUR", "EUR"},
		{"£45.00", "GBP"},
		{"$59.99", "USD"},
		{"¥ 12000", "JPY"},
		{"499 kr", "SEK"},
		{"CHF 89.00", "CHF"},
		{"129,00", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, currencyFromText(tt.text), tt.text)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "EUR", normalizeCurrency("eur"))
	assert.Equal(t, "USD", normalizeCurrency(" USD "))
	assert.Equal(t, "EUR", normalizeCurrency("€"))
	assert.Equal(t, "", normalizeCurrency("E1R"))
	assert.Equal(t, "", normalizeCurrency(""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Wool Overshirt", cleanText("  Wool \n\t Overshirt  "))
	assert.Equal(t, "", cleanText("  \n "))
}

func TestAbsoluteImageURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a.jpg", absoluteImageURL("//cdn.example.com/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", absoluteImageURL("https://cdn.example.com/a.jpg"))
}

func TestDedupeStrings(t *testing.T) {
	out := dedupeStrings([]string{"a", "", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Brushed wool with horn buttons.",
		stripHTML("<p>Brushed <strong>wool</strong> with horn buttons.</p>"))
}
