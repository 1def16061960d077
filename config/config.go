package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all pipeline and server settings, loaded from the environment.
type Config struct {
	Host string
	Port string

	// AllowedOrigins is a comma-separated CORS origin list.
	AllowedOrigins string

	// BaseCurrency is the currency every extracted price is converted to.
	BaseCurrency string

	// ReverseSearchURL is the upload-based reverse-image provider endpoint.
	ReverseSearchURL string

	// VisionAPIURL and VisionAPIKey configure the web-detection fallback
	// provider.
	VisionAPIURL string
	VisionAPIKey string

	// RatesURL is the FX rate-table endpoint.
	RatesURL string

	// CandidateCap bounds how many candidate pages one annotation keeps.
	CandidateCap int

	// ScrapeBatchSize bounds how many candidate pages are fetched in parallel
	// for one annotation.
	ScrapeBatchSize int

	SearchTimeout time.Duration
	FetchTimeout  time.Duration
	RatesTimeout  time.Duration

	// BrowserFetcher switches candidate-page fetching to the headless browser
	// for JavaScript-heavy storefronts.
	BrowserFetcher bool

	// RateRefreshSpec is a cron expression for the FX table refresh. Empty
	// disables the refresher and the table is fetched once per process.
	RateRefreshSpec string

	// DatabaseURL enables search-history persistence when set.
	DatabaseURL string
}

// Load reads the configuration from environment variables, falling back to
// defaults that work against the public providers.
func Load() *Config {
	return &Config{
		Host:             getEnv("HOST", "0.0.0.0"),
		Port:             getEnv("PORT", "8080"),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		BaseCurrency:     getEnv("BASE_CURRENCY", "EUR"),
		ReverseSearchURL: getEnv("REVERSE_SEARCH_URL", "https://google-reverse-image-api.vercel.app/reverse"),
		VisionAPIURL:     getEnv("VISION_API_URL", "https://vision.googleapis.com/v1/images:annotate"),
		VisionAPIKey:     getEnv("GOOGLE_VISION_KEY", ""),
		RatesURL:         getEnv("RATES_URL", "https://open.er-api.com/v6/latest"),
		CandidateCap:     getEnvInt("CANDIDATE_CAP", 5),
		ScrapeBatchSize:  getEnvInt("SCRAPE_BATCH_SIZE", 3),
		SearchTimeout:    getEnvDuration("SEARCH_TIMEOUT", 60*time.Second),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 20*time.Second),
		RatesTimeout:     getEnvDuration("RATES_TIMEOUT", 15*time.Second),
		BrowserFetcher:   getEnvBool("BROWSER_FETCHER", false),
		RateRefreshSpec:  getEnv("RATE_REFRESH_SPEC", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
