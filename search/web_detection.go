package search

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"arcognition/models"
)

// WebDetection is the fallback provider: the Vision images:annotate endpoint
// with a WEB_DETECTION feature, which returns pages containing matching
// images plus representative image URLs.
type WebDetection struct {
	endpoint string
	apiKey   string
	client   *http.Client
	maxPages int
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type visionAnnotateRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionRequest struct {
	Requests []visionAnnotateRequest `json:"requests"`
}

type matchingImage struct {
	URL string `json:"url"`
}

type matchingPage struct {
	URL                   string          `json:"url"`
	PageTitle             string          `json:"pageTitle"`
	FullMatchingImages    []matchingImage `json:"fullMatchingImages"`
	PartialMatchingImages []matchingImage `json:"partialMatchingImages"`
}

type visionResponse struct {
	Responses []struct {
		WebDetection struct {
			PagesWithMatchingImages []matchingPage `json:"pagesWithMatchingImages"`
		} `json:"webDetection"`
	} `json:"responses"`
}

// NewWebDetection creates the web-detection fallback provider.
func NewWebDetection(endpoint, apiKey string, maxPages int, timeout time.Duration) *WebDetection {
	return &WebDetection{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		maxPages: maxPages,
	}
}

// Name identifies the provider in logs.
func (wd *WebDetection) Name() string {
	return "web-detection"
}

// FindPages sends the crop inline and maps pagesWithMatchingImages to
// candidate refs. The first matching image of a page, full before partial,
// becomes the candidate thumbnail.
func (wd *WebDetection) FindPages(ctx context.Context, crop []byte, label string) ([]models.CandidateRef, error) {
	if wd.apiKey == "" {
		return nil, fmt.Errorf("web detection API key not configured")
	}

	payload := visionRequest{
		Requests: []visionAnnotateRequest{{
			Image:    visionImage{Content: base64.StdEncoding.EncodeToString(crop)},
			Features: []visionFeature{{Type: "WEB_DETECTION", MaxResults: wd.maxPages}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode web detection request: %v", err)
	}

	url := fmt.Sprintf("%s?key=%s", wd.endpoint, wd.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := wd.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web detection request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("web detection returned status %d: %s", resp.StatusCode, snippet)
	}

	var decoded visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("malformed web detection response: %v", err)
	}
	if len(decoded.Responses) == 0 {
		return nil, nil
	}

	pages := decoded.Responses[0].WebDetection.PagesWithMatchingImages
	refs := make([]models.CandidateRef, 0, len(pages))
	for _, page := range pages {
		if page.URL == "" {
			continue
		}
		ref := models.CandidateRef{URL: page.URL, Title: page.PageTitle}
		if len(page.FullMatchingImages) > 0 {
			ref.Thumbnail = page.FullMatchingImages[0].URL
		} else if len(page.PartialMatchingImages) > 0 {
			ref.Thumbnail = page.PartialMatchingImages[0].URL
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
