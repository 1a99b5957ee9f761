package extractor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// ldPage carries full structured markup: score 60 on every sample.
func ldPage(url string) *models.PageData {
	pd := models.NewPageData(url)
	pd.HTML = `<html><head>
<script type="application/ld+json">
{"@type": "Product", "name": "Sample Garment",
 "description": "Garment dyed cotton with a relaxed fit.",
 "image": "https://cdn.example.com/garment.jpg",
 "offers": {"@type": "Offer", "price": "79.00", "priceCurrency": "EUR"}}
</script>
</head><body><h1 class="product-title">Sample Garment</h1></body></html>`
	return pd
}

// barePage gives the DOM heuristic a name and nothing else: score 15,
// under any sensible threshold.
func barePage(url string) *models.PageData {
	pd := models.NewPageData(url)
	pd.HTML = `<html><body><h1 class="product-title">Sparse Page</h1></body></html>`
	return pd
}

func TestDiscoveryRequiresTwoSamples(t *testing.T) {
	source := &fakeSource{pages: map[string]*models.PageData{}}
	engine, _, _ := newTestExtractor(source, newMemConfigStore(), Options{})

	_, err := engine.DiscoverAndVerify(context.Background(), "brand-a.com", []string{"https://brand-a.com/p/1"}, false)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestDiscoveryPicksStrategyEligibleOnEverySample(t *testing.T) {
	samples := []string{
		"https://brand-a.com/products/one",
		"https://brand-a.com/products/two",
	}
	source := &fakeSource{pages: map[string]*models.PageData{
		samples[0]: ldPage(samples[0]),
		samples[1]: ldPage(samples[1]),
	}}
	configs := newMemConfigStore()
	engine, _, _ := newTestExtractor(source, configs, Options{MinScore: 50})

	cfg, err := engine.DiscoverAndVerify(context.Background(), "brand-a.com", samples, false)
	require.NoError(t, err)

	assert.Equal(t, "brand-a.com", cfg.Domain)
	assert.Equal(t, models.StrategyStructuredMarkup, cfg.Strategy)
	assert.True(t, cfg.Verified)
	assert.False(t, cfg.VerifiedAt.IsZero())
	assert.Equal(t, samples, cfg.DiscoveryURLs)
	require.Len(t, cfg.DiscoveryScores, 2)
	for _, score := range cfg.DiscoveryScores {
		assert.GreaterOrEqual(t, score, 50)
	}

	// Field provenance names the winning signal for the populated fields.
	assert.Equal(t, models.StrategyStructuredMarkup, cfg.FieldSources["name"])
	assert.Equal(t, models.StrategyStructuredMarkup, cfg.FieldSources["price"])

	stored, err := configs.Get(context.Background(), "brand-a.com")
	require.NoError(t, err)
	assert.Same(t, cfg, stored)
}

func TestDiscoveryRejectsStrategyWeakOnOneSample(t *testing.T) {
	// The DOM heuristic scores high on the second sample but only finds a
	// bare h1 on the first. Structured markup clears the threshold on both,
	// so it wins even where the heuristic out-scored it on a single page.
	samples := []string{
		"https://brand-a.com/products/one",
		"https://brand-a.com/products/two",
	}
	richDOM := models.NewPageData(samples[1])
	richDOM.HTML = `<html><head>
<script type="application/ld+json">
{"@type": "Product", "name": "Sample Garment",
 "description": "Garment dyed cotton with a relaxed fit.",
 "image": "https://cdn.example.com/garment.jpg",
 "offers": {"@type": "Offer", "price": "79.00", "priceCurrency": "EUR"}}
</script>
</head><body>
<h1 class="product-title">Sample Garment</h1>
<div class="product-price">€ 79,00</div>
<div class="product-description">Garment dyed cotton with a relaxed fit, cut from heavyweight jersey.</div>
<div class="product-gallery"><img src="https://cdn.example.com/garment.jpg" /></div>
<select name="size"><option>S</option><option>M</option></select>
</body></html>`

	source := &fakeSource{pages: map[string]*models.PageData{
		samples[0]: ldPage(samples[0]),
		samples[1]: richDOM,
	}}
	engine, _, _ := newTestExtractor(source, newMemConfigStore(), Options{MinScore: 50})

	cfg, err := engine.DiscoverAndVerify(context.Background(), "brand-a.com", samples, false)
	require.NoError(t, err)
	assert.Equal(t, models.StrategyStructuredMarkup, cfg.Strategy)
}

func TestDiscoveryNoEligibleStrategy(t *testing.T) {
	samples := []string{
		"https://brand-a.com/products/one",
		"https://brand-a.com/products/two",
	}
	source := &fakeSource{pages: map[string]*models.PageData{
		samples[0]: barePage(samples[0]),
		samples[1]: barePage(samples[1]),
	}}
	engine, _, _ := newTestExtractor(source, newMemConfigStore(), Options{MinScore: 50})

	_, err := engine.DiscoverAndVerify(context.Background(), "brand-a.com", samples, false)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestDiscoveryReturnsExistingVerifiedConfig(t *testing.T) {
	existing := &models.BrandConfig{
		Domain:   "brand-a.com",
		Strategy: models.StrategyEmbeddedJSON,
		Verified: true,
	}
	configs := newMemConfigStore()
	configs.Put(context.Background(), existing)

	source := &fakeSource{pages: map[string]*models.PageData{}}
	engine, _, _ := newTestExtractor(source, configs, Options{MinScore: 50})

	samples := []string{"https://brand-a.com/p/1", "https://brand-a.com/p/2"}
	cfg, err := engine.DiscoverAndVerify(context.Background(), "brand-a.com", samples, false)

	require.NoError(t, err)
	assert.Same(t, existing, cfg)
	assert.Equal(t, 0, source.loadCount(), "verified domains must not re-load samples without force")
}

func TestDiscoveryForceRedisovers(t *testing.T) {
	configs := newMemConfigStore()
	configs.Put(context.Background(), &models.BrandConfig{
		Domain:   "brand-a.com",
		Strategy: models.StrategyEmbeddedJSON,
		Verified: true,
	})

	samples := []string{
		"https://brand-a.com/products/one",
		"https://brand-a.com/products/two",
	}
	source := &fakeSource{pages: map[string]*models.PageData{
		samples[0]: ldPage(samples[0]),
		samples[1]: ldPage(samples[1]),
	}}
	engine, _, _ := newTestExtractor(source, configs, Options{MinScore: 50})

	cfg, err := engine.DiscoverAndVerify(context.Background(), "brand-a.com", samples, true)
	require.NoError(t, err)

	assert.Equal(t, models.StrategyStructuredMarkup, cfg.Strategy)
	assert.Equal(t, 2, source.loadCount())
}

func TestDiscoverySkipsUnloadableSample(t *testing.T) {
	samples := []string{
		"https://brand-a.com/products/one",
		"https://brand-a.com/products/down",
	}
	source := &fakeSource{
		pages: map[string]*models.PageData{samples[0]: ldPage(samples[0])},
		errs:  map[string]error{samples[1]: fmt.Errorf("connection reset")},
	}
	engine, _, _ := newTestExtractor(source, newMemConfigStore(), Options{MinScore: 50})

	// The unloadable sample keeps its -1 sentinel, so no strategy can be
	// eligible on every sample.
	_, err := engine.DiscoverAndVerify(context.Background(), "brand-a.com", samples, false)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}
