package models

// ExtractionStrategy identifies one of the known extraction mechanisms.
// The set is closed; new strategies require a new constant and a slot in
// StrategyOrder.
type ExtractionStrategy string

const (
	StrategyEmbeddedJSON     ExtractionStrategy = "embedded_json"
	StrategyPlatformAPI      ExtractionStrategy = "platform_api"
	StrategyStructuredMarkup ExtractionStrategy = "structured_markup"
	StrategyAPICapture       ExtractionStrategy = "api_capture"
	StrategyMetaTags         ExtractionStrategy = "meta_tags"
	StrategyDOMHeuristic     ExtractionStrategy = "dom_heuristic"
	StrategyUnknown          ExtractionStrategy = ""
)

// StrategyOrder is the fixed ranking used for dispatch and for breaking
// score ties, most reliable first.
var StrategyOrder = []ExtractionStrategy{
	StrategyEmbeddedJSON,
	StrategyPlatformAPI,
	StrategyStructuredMarkup,
	StrategyAPICapture,
	StrategyMetaTags,
	StrategyDOMHeuristic,
}

// StrategyRank returns the position of s in StrategyOrder. Unknown
// strategies rank last.
func StrategyRank(s ExtractionStrategy) int {
	for i, known := range StrategyOrder {
		if known == s {
			return i
		}
	}
	return len(StrategyOrder)
}

func (s ExtractionStrategy) String() string {
	return string(s)
}

// Valid reports whether s names a known strategy.
func (s ExtractionStrategy) Valid() bool {
	return StrategyRank(s) < len(StrategyOrder)
}
