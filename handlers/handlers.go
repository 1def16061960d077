package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"arcognition/models"
	"arcognition/repository"
	"arcognition/resolver"
)

// Handlers exposes the match pipeline over HTTP.
type Handlers struct {
	resolver    *resolver.Resolver
	historyRepo *repository.HistoryRepository
	persist     bool
}

// NewHandlers creates the handler set. historyRepo may be nil when no
// database is configured; the pipeline then runs stateless.
func NewHandlers(res *resolver.Resolver, historyRepo *repository.HistoryRepository) *Handlers {
	return &Handlers{
		resolver:    res,
		historyRepo: historyRepo,
		persist:     historyRepo != nil,
	}
}

// ResolveMatches handles POST /api/v1/match: the whole image plus detector
// annotations in, per-object match lists out. Isolated scraping failures
// never surface as errors here; only structurally invalid input gets a 400.
func (h *Handlers) ResolveMatches(w http.ResponseWriter, r *http.Request) {
	var req models.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	imageBytes, err := decodeImage(req.Base64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 image")
		return
	}

	results, err := h.resolver.ResolveMatches(r.Context(), imageBytes, req.Annotations)
	if err != nil {
		if errors.Is(err, models.ErrNoAnnotations) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Client went away mid-pipeline; nothing to answer.
		log.Printf("match request aborted: %v", err)
		return
	}

	if h.persist {
		go h.saveHistory(results)
	}

	writeJSON(w, http.StatusOK, models.MatchResponse{Success: true, Data: results})
}

// GetSearchHistory handles GET /api/v1/history.
func (h *Handlers) GetSearchHistory(w http.ResponseWriter, r *http.Request) {
	if !h.persist {
		writeError(w, http.StatusNotFound, "history persistence is not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	records, err := h.historyRepo.GetRecentSearches(limit)
	if err != nil {
		log.Printf("failed to load search history: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": records})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "arcognition",
		"status":  "healthy",
	})
}

func (h *Handlers) saveHistory(results []models.ObjectMatches) {
	searchID := uuid.New().String()
	if err := h.historyRepo.SaveSearch(searchID, results); err != nil {
		log.Printf("failed to persist search %s: %v", searchID, err)
	}
}

// decodeImage accepts plain base64 or a data URL.
func decodeImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": message})
}
