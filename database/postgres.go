package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDatabase opens the Postgres connection used for search history.
func InitDatabase(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is required")
	}

	var err error
	DB, err = sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")
	return nil
}

// CreateTables creates the history tables if they don't exist.
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id UUID PRIMARY KEY,
			object_count INTEGER NOT NULL DEFAULT 0,
			match_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS search_matches (
			id SERIAL PRIMARY KEY,
			search_id UUID REFERENCES searches(id) ON DELETE CASCADE,
			object_name TEXT NOT NULL,
			site TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT,
			thumbnail TEXT,
			price DECIMAL(12,2),
			currency VARCHAR(3),
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	log.Println("History tables ready")
	return nil
}

// CloseDatabase closes the database connection.
func CloseDatabase() {
	if DB != nil {
		DB.Close()
	}
}
