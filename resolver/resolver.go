// Package resolver orchestrates the full crop-to-match pipeline: region
// extraction, reverse-image search, candidate scraping, and price
// normalization, with per-item failure absorption.
package resolver

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"arcognition/cropper"
	"arcognition/currency"
	"arcognition/models"
)

// CandidateFinder is the reverse-image matching capability the resolver
// depends on (search.Matcher in production).
type CandidateFinder interface {
	FindCandidates(ctx context.Context, crop []byte, label string) ([]models.CandidateRef, error)
}

// FactExtractor is the page-scraping capability (scraper.Extractor in
// production).
type FactExtractor interface {
	ExtractFacts(ctx context.Context, ref models.CandidateRef) (*models.ProductFacts, error)
}

// Resolver wires the pipeline stages together.
type Resolver struct {
	cropper   *cropper.Cropper
	finder    CandidateFinder
	extractor FactExtractor
	rates     *currency.RateCache

	batchSize int
	resultCap int
}

// New creates a resolver. batchSize bounds concurrent page scrapes per
// annotation; resultCap bounds surviving matches per annotation.
func New(c *cropper.Cropper, finder CandidateFinder, extractor FactExtractor, rates *currency.RateCache, batchSize, resultCap int) *Resolver {
	if batchSize <= 0 {
		batchSize = 3
	}
	if resultCap <= 0 {
		resultCap = 5
	}
	return &Resolver{
		cropper:   c,
		finder:    finder,
		extractor: extractor,
		rates:     rates,
		batchSize: batchSize,
		resultCap: resultCap,
	}
}

// ResolveMatches runs the pipeline for every annotation, in input order.
// Per-annotation and per-candidate failures are absorbed: a bad region marks
// that one object failed, a dead candidate page just disappears from its
// result list. The only request-level error is structurally unusable input.
func (r *Resolver) ResolveMatches(ctx context.Context, imageBytes []byte, annotations []models.Annotation) ([]models.ObjectMatches, error) {
	usable := 0
	for i := range annotations {
		if annotations[i].HasBoundingPoly() {
			usable++
		}
	}
	if usable == 0 {
		return nil, models.ErrNoAnnotations
	}

	results := make([]models.ObjectMatches, 0, len(annotations))
	for _, ann := range annotations {
		results = append(results, r.resolveAnnotation(ctx, imageBytes, ann))
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}
	return results, nil
}

func (r *Resolver) resolveAnnotation(ctx context.Context, imageBytes []byte, ann models.Annotation) models.ObjectMatches {
	out := models.ObjectMatches{Object: ann.Name, Matches: []models.MatchResult{}}

	crop, err := r.cropper.ExtractCrop(imageBytes, ann)
	if err != nil {
		log.Printf("skipping %q: %v", ann.Name, err)
		out.Failed = true
		out.Reason = err.Error()
		return out
	}

	refs, err := r.finder.FindCandidates(ctx, crop, ann.Name)
	if err != nil {
		// Both providers down: this object gets an explicit empty result,
		// not a failure, so the caller renders "no matches found".
		log.Printf("no candidates for %q: %v", ann.Name, err)
		return out
	}
	if len(refs) == 0 {
		log.Printf("no candidates for %q", ann.Name)
		return out
	}

	matches := r.resolveCandidates(ctx, refs)
	if len(matches) > r.resultCap {
		matches = matches[:r.resultCap]
	}
	out.Matches = matches
	log.Printf("resolved %q: %d candidates -> %d matches", ann.Name, len(refs), len(matches))
	return out
}

// resolveCandidates scrapes the candidate pages in bounded parallel batches
// and keeps the survivors in provider-return order.
func (r *Resolver) resolveCandidates(ctx context.Context, refs []models.CandidateRef) []models.MatchResult {
	slots := make([]*models.MatchResult, len(refs))
	sem := make(chan struct{}, r.batchSize)
	var wg sync.WaitGroup

	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref models.CandidateRef) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			slots[i] = r.resolveCandidate(ctx, ref)
		}(i, ref)
	}
	wg.Wait()

	matches := make([]models.MatchResult, 0, len(refs))
	for _, m := range slots {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	return matches
}

// resolveCandidate produces one match, or nil when the candidate is skipped.
// A failed candidate only removes itself from its result list.
func (r *Resolver) resolveCandidate(ctx context.Context, ref models.CandidateRef) *models.MatchResult {
	facts, err := r.extractor.ExtractFacts(ctx, ref)
	if err != nil {
		log.Printf("skipping candidate %s: %v", ref.URL, err)
		return nil
	}

	parsed := currency.ParsePrice(facts.PriceText)
	if parsed == nil {
		log.Printf("skipping candidate %s: %v: %q", ref.URL, models.ErrParseFailure, facts.PriceText)
		return nil
	}

	match := &models.MatchResult{
		Site:      facts.Site,
		URL:       facts.URL,
		Title:     facts.Title,
		Thumbnail: facts.Thumbnail,
	}

	base, err := r.rates.Convert(ctx, parsed.Amount, parsed.Currency)
	switch {
	case err == nil:
		match.PriceBase = decimal.NewNullDecimal(base)
		match.Currency = r.rates.Base()
	case errors.Is(err, models.ErrMissingRate):
		// Degraded result: unconverted amount tagged with its source
		// currency beats dropping the match.
		match.PriceBase = decimal.NewNullDecimal(parsed.Amount.Round(2))
		match.Currency = parsed.Currency
	default:
		log.Printf("conversion unavailable for %s (%s): %v", ref.URL, parsed.Currency, err)
		match.PriceBase = decimal.NewNullDecimal(parsed.Amount.Round(2))
		match.Currency = parsed.Currency
	}
	return match
}
