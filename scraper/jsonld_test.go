package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructuredProduct(t *testing.T) {
	d := doc(t, `<script type="application/ld+json">{
		"@type": "Product",
		"name": "Wool Scarf",
		"image": ["https://cdn.example/scarf-1.jpg", "https://cdn.example/scarf-2.jpg"],
		"offers": {"@type": "Offer", "price": 29.5, "priceCurrency": "EUR"}
	}</script>`)

	p := parseStructuredProduct(d)
	require.NotNil(t, p)
	assert.Equal(t, "Wool Scarf", p.Name)
	assert.Equal(t, "https://cdn.example/scarf-1.jpg", p.Image)
	assert.Equal(t, "29.5", p.Price)
	assert.Equal(t, "EUR", p.Currency)
}

func TestParseStructuredProductGraph(t *testing.T) {
	d := doc(t, `<script type="application/ld+json">{
		"@context": "https://schema.org",
		"@graph": [
			{"@type": "WebPage", "name": "Product page"},
			{
				"@type": ["Product", "IndividualProduct"],
				"name": "Ceramic Vase",
				"image": {"@type": "ImageObject", "url": "https://cdn.example/vase.jpg"},
				"offers": [{"@type": "AggregateOffer", "lowPrice": "18.00", "priceCurrency": "USD"}]
			}
		]
	}</script>`)

	p := parseStructuredProduct(d)
	require.NotNil(t, p)
	assert.Equal(t, "Ceramic Vase", p.Name)
	assert.Equal(t, "https://cdn.example/vase.jpg", p.Image)
	assert.Equal(t, "18.00", p.Price)
	assert.Equal(t, "USD", p.Currency)
}

func TestParseStructuredProductSkipsBrokenScript(t *testing.T) {
	d := doc(t, `
		<script type="application/ld+json">{broken json</script>
		<script type="application/ld+json">{"@type": "Product", "name": "Belt", "offers": {"price": "9.99"}}</script>
	`)

	p := parseStructuredProduct(d)
	require.NotNil(t, p)
	assert.Equal(t, "Belt", p.Name)
	assert.Equal(t, "9.99", p.Price)
}

func TestParseStructuredProductNoProductNode(t *testing.T) {
	d := doc(t, `<script type="application/ld+json">{"@type": "NewsArticle", "headline": "Launch day"}</script>`)

	assert.Nil(t, parseStructuredProduct(d))
}

func TestParseStructuredProductNoScripts(t *testing.T) {
	d := doc(t, `<html><body><p>plain page</p></body></html>`)

	assert.Nil(t, parseStructuredProduct(d))
}
