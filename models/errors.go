package models

import "errors"

// Pipeline failure taxonomy. Everything except the request-level errors is
// absorbed per item: a bad region skips one annotation, a dead page skips one
// candidate, a missing rate degrades one match.
var (
	// ErrInvalidRegion marks a bounding box that is degenerate or outside the
	// image bounds. The annotation is skipped, never the batch.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrProviderFailure marks a visual-search provider call that failed
	// (timeout, non-2xx, malformed body). Triggers the fallback provider.
	ErrProviderFailure = errors.New("visual search provider failure")

	// ErrFetchFailure marks an unreachable candidate page.
	ErrFetchFailure = errors.New("page fetch failed")

	// ErrParseFailure marks a page with no extractable product data.
	ErrParseFailure = errors.New("no extractable product data")

	// ErrMissingRate marks a currency absent from the rate table.
	ErrMissingRate = errors.New("missing exchange rate")

	// Request-level errors: the only ones that propagate to the caller.
	ErrNoImage       = errors.New("no image provided")
	ErrNoAnnotations = errors.New("no usable annotations provided")
)
