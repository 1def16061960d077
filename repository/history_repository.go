package repository

import (
	"fmt"
	"time"

	"arcognition/database"
	"arcognition/models"
)

// HistoryRepository records resolved searches so past lookups can be
// reviewed. Persistence is best-effort: the pipeline works without it.
type HistoryRepository struct{}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

// SearchRecord is one past search, summarized.
type SearchRecord struct {
	ID          string    `json:"id"`
	ObjectCount int       `json:"object_count"`
	MatchCount  int       `json:"match_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SaveSearch persists a resolved request: one search row plus a row per
// surviving match.
func (r *HistoryRepository) SaveSearch(searchID string, results []models.ObjectMatches) error {
	matchCount := 0
	for _, group := range results {
		matchCount += len(group.Matches)
	}

	_, err := database.DB.Exec(
		`INSERT INTO searches (id, object_count, match_count, created_at) VALUES ($1, $2, $3, $4)`,
		searchID, len(results), matchCount, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save search: %v", err)
	}

	for _, group := range results {
		for pos, match := range group.Matches {
			var price interface{}
			var code interface{}
			if match.HasPrice() {
				price = match.PriceBase.Decimal.StringFixed(2)
				code = match.Currency
			}
			_, err := database.DB.Exec(
				`INSERT INTO search_matches (search_id, object_name, site, url, title, thumbnail, price, currency, position)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				searchID, group.Object, match.Site, match.URL, match.Title, match.Thumbnail, price, code, pos,
			)
			if err != nil {
				return fmt.Errorf("failed to save match: %v", err)
			}
		}
	}
	return nil
}

// GetRecentSearches returns the newest searches, capped at limit.
func (r *HistoryRepository) GetRecentSearches(limit int) ([]SearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := database.DB.Query(
		`SELECT id, object_count, match_count, created_at
		 FROM searches ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get searches: %v", err)
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var rec SearchRecord
		if err := rows.Scan(&rec.ID, &rec.ObjectCount, &rec.MatchCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search: %v", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
