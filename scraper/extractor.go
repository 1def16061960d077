package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"arcognition/models"
)

// Page is one fetched candidate page parsed and ready for the heuristic
// chains: the provider's candidate ref, the parsed document, and lazily
// extracted structured markup.
type Page struct {
	Ref  models.CandidateRef
	Host string
	Doc  *goquery.Document

	market        *Marketplace
	product       *structuredProduct
	productParsed bool
}

// Product returns the page's JSON-LD Product node, parsing it at most once.
func (p *Page) Product() *structuredProduct {
	if !p.productParsed {
		p.product = parseStructuredProduct(p.Doc)
		p.productParsed = true
	}
	return p.product
}

// ProductGate decides whether a page looks like a product page at all. Pages
// with no structured markup, no recognized marketplace, and no OG price meta
// tend to produce noisy false-positive prices, so the default gate drops them
// before extraction. Replaceable for tuning.
type ProductGate func(p *Page) bool

// DefaultProductGate admits structured markup, known marketplaces, and pages
// with an Open Graph price meta tag.
func DefaultProductGate(p *Page) bool {
	if p.market != nil || p.Product() != nil {
		return true
	}
	return metaContent(p.Doc, "meta[property='product:price:amount']") != "" ||
		metaContent(p.Doc, "meta[property='og:price:amount']") != ""
}

// Extractor turns candidate pages into product facts via prioritized
// heuristic chains.
type Extractor struct {
	fetcher Fetcher
	gate    ProductGate
}

// NewExtractor creates an extractor over the given fetcher with the default
// product gate.
func NewExtractor(fetcher Fetcher) *Extractor {
	return &Extractor{fetcher: fetcher, gate: DefaultProductGate}
}

// SetGate replaces the product-page admission predicate.
func (e *Extractor) SetGate(gate ProductGate) {
	e.gate = gate
}

// ExtractFacts fetches and scrapes one candidate page. Fetch problems return
// models.ErrFetchFailure, pages without extractable product data return
// models.ErrParseFailure; both mean "skip this candidate", never "abort the
// batch".
func (e *Extractor) ExtractFacts(ctx context.Context, ref models.CandidateRef) (*models.ProductFacts, error) {
	host := hostOf(ref.URL)
	if host == "" {
		return nil, fmt.Errorf("%w: unparseable url %q", models.ErrFetchFailure, ref.URL)
	}

	body, err := e.fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrParseFailure, host, err)
	}

	page := &Page{Ref: ref, Host: host, Doc: doc, market: matchMarketplace(host)}

	if !e.gate(page) {
		return nil, fmt.Errorf("%w: %s has no product signal", models.ErrParseFailure, host)
	}

	priceText := firstHit(page, priceChain)
	if priceText == "" {
		return nil, fmt.Errorf("%w: no price text on %s", models.ErrParseFailure, host)
	}

	facts := &models.ProductFacts{
		Site:      host,
		URL:       ref.URL,
		Thumbnail: firstHit(page, thumbnailChain),
		Title:     extractTitle(page),
		PriceText: priceText,
	}
	log.Printf("extracted from %s: price %q, thumbnail=%t", host, facts.PriceText, facts.Thumbnail != "")
	return facts, nil
}

// strategy is one step of a heuristic chain; the first non-empty result wins.
type strategy struct {
	name string
	fn   func(p *Page) string
}

func firstHit(p *Page, chain []strategy) string {
	for _, s := range chain {
		if v := strings.TrimSpace(s.fn(p)); v != "" {
			return v
		}
	}
	return ""
}

// Thumbnail selection, highest priority first.
var thumbnailChain = []strategy{
	{"provider", thumbFromProvider},
	{"structured", thumbFromStructured},
	{"opengraph", thumbFromOpenGraph},
	{"twitter", thumbFromTwitterCard},
	{"microdata", thumbFromMicrodata},
	{"hinted-img", thumbFromHintedImage},
	{"first-img", thumbFromFirstImage},
}

func thumbFromProvider(p *Page) string {
	return p.Ref.Thumbnail
}

func thumbFromStructured(p *Page) string {
	if product := p.Product(); product != nil {
		return p.resolve(product.Image)
	}
	return ""
}

func thumbFromOpenGraph(p *Page) string {
	return p.resolve(metaContent(p.Doc, "meta[property='og:image']"))
}

func thumbFromTwitterCard(p *Page) string {
	if v := metaContent(p.Doc, "meta[name='twitter:image']"); v != "" {
		return p.resolve(v)
	}
	return p.resolve(metaContent(p.Doc, "meta[name='twitter:image:src']"))
}

func thumbFromMicrodata(p *Page) string {
	sel := p.Doc.Find("[itemprop='image']").First()
	if src, ok := sel.Attr("src"); ok {
		return p.resolve(src)
	}
	if content, ok := sel.Attr("content"); ok {
		return p.resolve(content)
	}
	return ""
}

// imageHints are path fragments that suggest an img is the product shot.
var imageHints = []string{"product", "catalog", "item", "thumb"}

func thumbFromHintedImage(p *Page) string {
	var found string
	p.Doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		lower := strings.ToLower(src)
		for _, hint := range imageHints {
			if strings.Contains(lower, hint) {
				found = p.resolve(src)
				return false
			}
		}
		return true
	})
	return found
}

func thumbFromFirstImage(p *Page) string {
	src, _ := p.Doc.Find("img[src]").First().Attr("src")
	return p.resolve(src)
}

// Price text selection, highest priority first.
var priceChain = []strategy{
	{"marketplace", priceFromMarketplace},
	{"structured", priceFromStructured},
	{"meta", priceFromMetaTags},
	{"microdata", priceFromMicrodata},
	{"price-class", priceFromPriceClass},
	{"body-scan", priceFromBodyScan},
}

func priceFromMarketplace(p *Page) string {
	if p.market == nil {
		return ""
	}
	return p.market.ExtractPriceText(p.Doc, p.Host)
}

func priceFromStructured(p *Page) string {
	product := p.Product()
	if product == nil || product.Price == "" {
		return ""
	}
	return joinPriceCurrency(product.Price, product.Currency)
}

func priceFromMetaTags(p *Page) string {
	pairs := []struct{ amount, currency string }{
		{"meta[property='product:price:amount']", "meta[property='product:price:currency']"},
		{"meta[property='og:price:amount']", "meta[property='og:price:currency']"},
	}
	for _, pair := range pairs {
		if amount := metaContent(p.Doc, pair.amount); amount != "" {
			return joinPriceCurrency(amount, metaContent(p.Doc, pair.currency))
		}
	}
	// Twitter product cards put the price in the first data field.
	if v := metaContent(p.Doc, "meta[name='twitter:data1']"); hasDigit(v) {
		return v
	}
	return ""
}

func priceFromMicrodata(p *Page) string {
	sel := p.Doc.Find("[itemprop='price']").First()
	amount, ok := sel.Attr("content")
	if !ok {
		amount = sel.Text()
	}
	amount = strings.TrimSpace(amount)
	if !hasDigit(amount) {
		return ""
	}
	currency, _ := p.Doc.Find("[itemprop='priceCurrency']").First().Attr("content")
	return joinPriceCurrency(amount, currency)
}

// priceFromPriceClass takes the first element whose class mentions "price"
// and whose text actually contains a digit. Long texts are containers
// wrapping half the page, not prices.
func priceFromPriceClass(p *Page) string {
	var found string
	p.Doc.Find("[class*='price'], [class*='Price']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if hasDigit(text) && len(text) <= 64 {
			found = text
			return false
		}
		return true
	})
	return found
}

// bodyPriceRE finds a currency symbol adjacent to a number anywhere in the
// page text. Last-resort heuristic.
var bodyPriceRE = regexp.MustCompile(`[€$£₹]\s?\d[\d.,]*|\d[\d.,]*\s?[€$£₹]`)

func priceFromBodyScan(p *Page) string {
	return bodyPriceRE.FindString(p.Doc.Find("body").Text())
}

func extractTitle(p *Page) string {
	if v := metaContent(p.Doc, "meta[property='og:title']"); v != "" {
		return v
	}
	if v := strings.TrimSpace(p.Doc.Find("title").First().Text()); v != "" {
		return v
	}
	return p.Ref.Title
}

// resolve turns a possibly relative asset URL into an absolute one against
// the candidate page URL.
func (p *Page) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	base, err := url.Parse(p.Ref.URL)
	if err != nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func joinPriceCurrency(amount, currency string) string {
	amount = strings.TrimSpace(amount)
	currency = strings.TrimSpace(currency)
	if currency == "" || hasCurrencyHint(amount) {
		return amount
	}
	return amount + " " + currency
}

// hostOf extracts the hostname with any www. prefix stripped.
func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
