package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Marketplace describes a recognized storefront with dedicated price markup.
// Some split the amount into a whole/fraction element pair that has to be
// reassembled before parsing.
type Marketplace struct {
	Name           string
	hostPattern    *regexp.Regexp
	priceSelects   []string
	wholeSelect    string
	fractionSelect string
	symbolSelect   string
}

var marketplaces = []Marketplace{
	{
		Name:        "amazon",
		hostPattern: regexp.MustCompile(`(^|\.)amazon\.`),
		priceSelects: []string{
			".a-price .a-offscreen",
			"#priceblock_ourprice",
			"#priceblock_dealprice",
		},
		wholeSelect:    ".a-price-whole",
		fractionSelect: ".a-price-fraction",
		symbolSelect:   ".a-price-symbol",
	},
	{
		Name:        "ebay",
		hostPattern: regexp.MustCompile(`(^|\.)ebay\.`),
		priceSelects: []string{
			".x-price-primary .ux-textspans",
			"#prcIsum",
			"[itemprop='price']",
		},
	},
	{
		Name:        "etsy",
		hostPattern: regexp.MustCompile(`(^|\.)etsy\.com$`),
		priceSelects: []string{
			"[data-selector='price-only'] p",
			".wt-text-title-larger",
		},
	},
	{
		Name:        "walmart",
		hostPattern: regexp.MustCompile(`(^|\.)walmart\.`),
		priceSelects: []string{
			"[itemprop='price']",
			"[data-testid='price-wrap'] span",
		},
	},
	{
		Name:        "aliexpress",
		hostPattern: regexp.MustCompile(`(^|\.)aliexpress\.`),
		priceSelects: []string{
			".product-price-value",
			".uniform-banner-box-price",
		},
	},
}

// tldSymbols maps a site's country-code TLD to the currency symbol to
// re-attach when the scraped amount has none (amazon.de shows "1.234,56"
// with the € rendered elsewhere).
var tldSymbols = map[string]string{
	"de": "€", "fr": "€", "it": "€", "es": "€", "nl": "€",
	"at": "€", "be": "€", "ie": "€", "fi": "€", "pt": "€",
	"uk": "£", "in": "₹",
	"com": "$", "us": "$", "ca": "$",
}

// matchMarketplace returns the marketplace a hostname belongs to, or nil.
func matchMarketplace(host string) *Marketplace {
	for i := range marketplaces {
		if marketplaces[i].hostPattern.MatchString(host) {
			return &marketplaces[i]
		}
	}
	return nil
}

// ExtractPriceText pulls the raw price string using the marketplace's
// dedicated selectors, reassembling split whole/fraction pairs and
// re-attaching a currency symbol derived from the site's TLD when the markup
// carries none.
func (m *Marketplace) ExtractPriceText(doc *goquery.Document, host string) string {
	for _, sel := range m.priceSelects {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			if content, ok := doc.Find(sel).First().Attr("content"); ok {
				text = strings.TrimSpace(content)
			}
		}
		if hasDigit(text) {
			return m.attachSymbol(text, doc, host)
		}
	}

	if m.wholeSelect != "" {
		whole := strings.TrimSpace(doc.Find(m.wholeSelect).First().Text())
		if hasDigit(whole) {
			whole = strings.TrimRight(whole, ".,")
			if fraction := strings.TrimSpace(doc.Find(m.fractionSelect).First().Text()); hasDigit(fraction) {
				whole = whole + "." + fraction
			}
			return m.attachSymbol(whole, doc, host)
		}
	}
	return ""
}

func (m *Marketplace) attachSymbol(text string, doc *goquery.Document, host string) string {
	if hasCurrencyHint(text) {
		return text
	}
	if m.symbolSelect != "" {
		if sym := strings.TrimSpace(doc.Find(m.symbolSelect).First().Text()); sym != "" {
			return sym + text
		}
	}
	if sym := tldSymbols[lastLabel(host)]; sym != "" {
		return sym + text
	}
	return text
}

func lastLabel(host string) string {
	parts := strings.Split(host, ".")
	return parts[len(parts)-1]
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}

func hasCurrencyHint(s string) bool {
	return strings.ContainsAny(s, "€$£₹")
}
