package scraper

import (
	"encoding/json"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// structuredProduct is the useful subset of a JSON-LD Product node.
type structuredProduct struct {
	Name     string
	Image    string
	Price    string
	Currency string
}

// parseStructuredProduct scans the page's ld+json scripts for a Product node,
// including ones nested in @graph or arrays. Returns nil when none is found
// or the markup is broken.
func parseStructuredProduct(doc *goquery.Document) *structuredProduct {
	var product *structuredProduct
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw interface{}
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true // broken script, keep looking
		}
		if node := findProductNode(raw); node != nil {
			product = buildProduct(node)
			return false
		}
		return true
	})
	return product
}

func findProductNode(v interface{}) map[string]interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		if isProductType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			if found := findProductNode(graph); found != nil {
				return found
			}
		}
	case []interface{}:
		for _, item := range node {
			if found := findProductNode(item); found != nil {
				return found
			}
		}
	}
	return nil
}

func isProductType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return t == "Product"
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func buildProduct(node map[string]interface{}) *structuredProduct {
	p := &structuredProduct{
		Name:  asString(node["name"]),
		Image: firstImageURL(node["image"]),
	}
	p.Price, p.Currency = offerPrice(node["offers"])
	return p
}

// offerPrice digs the price and currency out of an offers node, which may be
// a single Offer, a list, or an AggregateOffer with lowPrice.
func offerPrice(v interface{}) (string, string) {
	switch offers := v.(type) {
	case map[string]interface{}:
		price := asString(offers["price"])
		if price == "" {
			price = asString(offers["lowPrice"])
		}
		return price, asString(offers["priceCurrency"])
	case []interface{}:
		for _, item := range offers {
			if price, currency := offerPrice(item); price != "" {
				return price, currency
			}
		}
	}
	return "", ""
}

// firstImageURL accepts the schema.org image shapes: a URL string, a list of
// them, or an ImageObject.
func firstImageURL(v interface{}) string {
	switch img := v.(type) {
	case string:
		return img
	case []interface{}:
		for _, item := range img {
			if url := firstImageURL(item); url != "" {
				return url
			}
		}
	case map[string]interface{}:
		if url := asString(img["url"]); url != "" {
			return url
		}
		return asString(img["contentUrl"])
	}
	return ""
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	}
	return ""
}
