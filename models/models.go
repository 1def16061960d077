package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Vertex is a normalized point in [0,1] coordinates, relative to image size.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingPoly is the detector's bounding polygon: four normalized vertices,
// clockwise starting at the top-left corner.
type BoundingPoly struct {
	NormalizedVertices []Vertex `json:"normalizedVertices"`
}

// Annotation represents one detected object in the source image.
type Annotation struct {
	Name         string        `json:"name"`
	Score        float64       `json:"score"`
	BoundingPoly *BoundingPoly `json:"boundingPoly"`
}

// HasBoundingPoly returns true if the annotation carries a usable polygon.
func (a *Annotation) HasBoundingPoly() bool {
	return a.BoundingPoly != nil && len(a.BoundingPoly.NormalizedVertices) >= 3
}

// PixelBox is a rectangle in pixel coordinates derived from an annotation.
type PixelBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CandidateRef is one candidate page returned by a reverse-image provider.
// Thumbnail is optional; when the provider supplies one it wins over anything
// scraped from the page itself.
type CandidateRef struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Title     string `json:"title,omitempty"`
}

// ProductFacts holds what the page extractor managed to pull out of one
// candidate page. PriceText is the raw string as found; normalization happens
// later.
type ProductFacts struct {
	Site      string
	URL       string
	Thumbnail string
	Title     string
	PriceText string
}

// ParsedPrice is a normalized price: an ISO-4217-style currency code and a
// non-negative amount.
type ParsedPrice struct {
	Currency string
	Amount   decimal.Decimal
}

// MatchResult is one purchase-page match for a detected object.
// PriceBase is the price converted to the configured base currency; when the
// rate table had no entry for the source currency the amount is returned
// unconverted and Currency carries the source code instead.
type MatchResult struct {
	Site      string              `json:"site"`
	URL       string              `json:"url"`
	Title     string              `json:"title,omitempty"`
	Thumbnail string              `json:"thumbnail,omitempty"`
	PriceBase decimal.NullDecimal `json:"price_base"`
	Currency  string              `json:"currency,omitempty"`
}

// HasPrice returns true if the match carries a price.
func (m *MatchResult) HasPrice() bool {
	return m.PriceBase.Valid
}

// ObjectMatches groups the matches for one annotation. Failed distinguishes
// "this object could not be processed" from "processed fine, nothing found".
type ObjectMatches struct {
	Object  string        `json:"object"`
	Matches []MatchResult `json:"matches"`
	Failed  bool          `json:"failed,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// MatchRequest is the resolve-matches input: the whole source image plus the
// detector's annotations.
type MatchRequest struct {
	Base64      string       `json:"base64"`
	Annotations []Annotation `json:"annotations"`
}

// Validate checks the request is structurally usable: an image and at least
// one annotation with a bounding polygon. Per-annotation problems are soft
// failures handled downstream; this only rejects input the pipeline cannot
// start on.
func (r *MatchRequest) Validate() error {
	if strings.TrimSpace(r.Base64) == "" {
		return ErrNoImage
	}
	usable := 0
	for i := range r.Annotations {
		if r.Annotations[i].HasBoundingPoly() {
			usable++
		}
	}
	if usable == 0 {
		return ErrNoAnnotations
	}
	return nil
}

// MatchResponse is the wire shape returned by the match endpoint.
type MatchResponse struct {
	Success bool            `json:"success"`
	Data    []ObjectMatches `json:"data"`
}
