package models

import "encoding/json"

// PageData is the immutable snapshot of one loaded page. It is owned by
// the extraction call that requested the load and is discarded once the
// strategies are done with it.
type PageData struct {
	URL  string
	HTML string

	// JSONResponses maps the URL of each captured same-origin JSON
	// response to its parsed body.
	JSONResponses map[string]json.RawMessage

	// APIHeaders maps captured API endpoint URLs to the request headers
	// the page sent, so the platform-API strategy can replay calls.
	APIHeaders map[string]map[string]string

	// ImageURLs is every image URL observed during the load, in order.
	ImageURLs []string

	// AccessibilityTree is an optional snapshot used by navigation
	// discovery, not by product extraction.
	AccessibilityTree string

	// Partial marks a snapshot captured after a navigation timeout or
	// network failure. Strategies still run against it.
	Partial bool
	LoadErr string
}

// NewPageData allocates an empty snapshot for url.
func NewPageData(url string) *PageData {
	return &PageData{
		URL:           url,
		JSONResponses: make(map[string]json.RawMessage),
		APIHeaders:    make(map[string]map[string]string),
	}
}
