package strategies

import (
	"regexp"
	"strconv"
	"strings"
)

var priceRe = regexp.MustCompile(`\d{1,3}(?:[.,\s]\d{3})*(?:[.,]\d{1,2})?`)

// parsePrice extracts a numeric amount from storefront price text,
// handling both "1,299.00" and "1.299,00" separators.
func parsePrice(text string) float64 {
	match := priceRe.FindString(text)
	if match == "" {
		return 0
	}

	match = strings.ReplaceAll(match, " ", "")

	lastComma := strings.LastIndex(match, ",")
	lastDot := strings.LastIndex(match, ".")

	switch {
	case lastComma > lastDot:
		// Comma is the decimal separator.
		match = strings.ReplaceAll(match, ".", "")
		match = strings.Replace(match, ",", ".", 1)
	case lastDot > lastComma:
		match = strings.ReplaceAll(match, ",", "")
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return price
}

// currencyFromText maps a currency symbol or ISO code found in price
// text to its ISO code.
func currencyFromText(text string) string {
	switch {
	case strings.Contains(text, "€") || strings.Contains(text, "EUR"):
		return "EUR"
	case strings.Contains(text, "£") || strings.Contains(text, "GBP"):
		return "GBP"
	case strings.Contains(text, "$") || strings.Contains(text, "USD"):
		return "USD"
	case strings.Contains(text, "¥") || strings.Contains(text, "JPY"):
		return "JPY"
	case strings.Contains(text, "kr") || strings.Contains(text, "SEK"):
		return "SEK"
	case strings.Contains(text, "CHF"):
		return "CHF"
	}
	return ""
}

// normalizeCurrency uppercases and validates a three-letter ISO code.
func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return currencyFromText(code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return code
}

// cleanText collapses whitespace runs in extracted text.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// absoluteImageURL resolves protocol-relative image URLs.
func absoluteImageURL(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

// dedupeStrings keeps the first occurrence of each value, preserving
// order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes markup from a rich-text description.
func stripHTML(s string) string {
	return cleanText(tagRe.ReplaceAllString(s, " "))
}
