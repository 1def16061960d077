// Package search resolves an object crop to candidate purchase pages via
// reverse-image search providers.
package search

import (
	"context"
	"fmt"
	"log"

	"arcognition/models"
)

// Provider is anything that can find pages matching an image. The two
// implementations (upload-based reverse search and Vision web detection) are
// interchangeable behind this interface.
type Provider interface {
	Name() string
	FindPages(ctx context.Context, crop []byte, label string) ([]models.CandidateRef, error)
}

// Matcher chains a primary provider with a fallback and bounds the number of
// candidates it hands downstream.
type Matcher struct {
	primary  Provider
	fallback Provider
	cap      int
}

// NewMatcher creates a matcher. fallback may be nil when no secondary
// provider is configured.
func NewMatcher(primary, fallback Provider, cap int) *Matcher {
	if cap <= 0 {
		cap = 5
	}
	return &Matcher{primary: primary, fallback: fallback, cap: cap}
}

// FindCandidates returns at most cap candidate pages for the crop. A provider
// returning zero candidates is a valid empty result; only when the primary
// call fails does the fallback run. Excess candidates are dropped, not
// queued.
func (m *Matcher) FindCandidates(ctx context.Context, crop []byte, label string) ([]models.CandidateRef, error) {
	refs, err := m.primary.FindPages(ctx, crop, label)
	if err == nil {
		return truncate(refs, m.cap), nil
	}
	log.Printf("provider %s failed for %q: %v", m.primary.Name(), label, err)

	if m.fallback == nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrProviderFailure, m.primary.Name(), err)
	}

	refs, ferr := m.fallback.FindPages(ctx, crop, label)
	if ferr != nil {
		log.Printf("fallback provider %s failed for %q: %v", m.fallback.Name(), label, ferr)
		return nil, fmt.Errorf("%w: %s then %s", models.ErrProviderFailure, m.primary.Name(), m.fallback.Name())
	}
	log.Printf("fallback provider %s returned %d candidates for %q", m.fallback.Name(), len(refs), label)
	return truncate(refs, m.cap), nil
}

func truncate(refs []models.CandidateRef, cap int) []models.CandidateRef {
	if len(refs) > cap {
		return refs[:cap]
	}
	return refs
}
