package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"arcognition/config"
	"arcognition/cropper"
	"arcognition/currency"
	"arcognition/database"
	"arcognition/handlers"
	"arcognition/middleware"
	"arcognition/repository"
	"arcognition/resolver"
	"arcognition/scheduler"
	"arcognition/scraper"
	"arcognition/search"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Optional search-history persistence
	var historyRepo *repository.HistoryRepository
	if cfg.DatabaseURL != "" {
		if err := database.InitDatabase(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer database.CloseDatabase()

		if err := database.CreateTables(); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		historyRepo = repository.NewHistoryRepository()
	} else {
		log.Println("DATABASE_URL not set, search history disabled")
	}

	// Candidate page fetching: plain HTTP by default, headless browser for
	// JavaScript-heavy storefronts
	var fetcher scraper.Fetcher
	if cfg.BrowserFetcher {
		browser, err := scraper.NewBrowserFetcher(cfg.FetchTimeout)
		if err != nil {
			log.Fatalf("Failed to launch browser fetcher: %v", err)
		}
		defer browser.Close()
		fetcher = browser
		log.Println("Using headless browser fetcher")
	} else {
		fetcher = scraper.NewHTTPFetcher(cfg.FetchTimeout)
	}
	extractor := scraper.NewExtractor(fetcher)

	// Reverse-image providers: upload-based primary, web detection fallback
	primary := search.NewReverseSearch(cfg.ReverseSearchURL, cfg.SearchTimeout)
	var fallback search.Provider
	if cfg.VisionAPIKey != "" {
		fallback = search.NewWebDetection(cfg.VisionAPIURL, cfg.VisionAPIKey, cfg.CandidateCap, cfg.SearchTimeout)
	} else {
		log.Println("GOOGLE_VISION_KEY not set, web detection fallback disabled")
	}
	matcher := search.NewMatcher(primary, fallback, cfg.CandidateCap)

	rates := currency.NewRateCache(cfg.BaseCurrency, cfg.RatesURL, cfg.RatesTimeout)

	res := resolver.New(cropper.New(), matcher, extractor, rates, cfg.ScrapeBatchSize, cfg.CandidateCap)

	// Periodic FX table refresh
	if cfg.RateRefreshSpec != "" {
		refresher := scheduler.NewRateRefresher(rates, cfg.RateRefreshSpec)
		refresher.Start()
		defer refresher.Stop()
	}

	h := handlers.NewHandlers(res, historyRepo)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RateLimitMiddleware(5))

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/match", h.ResolveMatches).Methods("POST")
	api.HandleFunc("/history", h.GetSearchHistory).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, c.Handler(router)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
