package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"arcognition/models"
)

// ReverseSearch is the primary provider: it uploads the crop to a hosted
// reverse-image endpoint and gets candidate product pages back.
type ReverseSearch struct {
	endpoint string
	client   *http.Client
}

// reverseResponse is the endpoint's wire shape. An empty or missing results
// array is a valid "nothing matched" answer.
type reverseResponse struct {
	Success bool `json:"success"`
	Results []struct {
		Site      string `json:"site"`
		URL       string `json:"url"`
		Title     string `json:"title"`
		Thumbnail string `json:"thumbnail"`
	} `json:"results"`
}

// NewReverseSearch creates the upload-based reverse search provider.
func NewReverseSearch(endpoint string, timeout time.Duration) *ReverseSearch {
	return &ReverseSearch{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider in logs.
func (rs *ReverseSearch) Name() string {
	return "reverse-search"
}

// FindPages uploads the crop as a multipart image field and decodes the
// candidate list.
func (rs *ReverseSearch) FindPages(ctx context.Context, crop []byte, label string) ([]models.CandidateRef, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "crop.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %v", err)
	}
	if _, err := part.Write(crop); err != nil {
		return nil, fmt.Errorf("failed to build upload: %v", err)
	}
	if label != "" {
		_ = writer.WriteField("label", label)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rs.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := rs.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse search request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reverse search returned status %d: %s", resp.StatusCode, snippet)
	}

	var decoded reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("malformed reverse search response: %v", err)
	}

	refs := make([]models.CandidateRef, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.URL == "" {
			continue
		}
		refs = append(refs, models.CandidateRef{
			URL:       r.URL,
			Thumbnail: r.Thumbnail,
			Title:     r.Title,
		})
	}
	return refs, nil
}
