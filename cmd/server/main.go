package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pricehunt/backend/config"
	httpDelivery "github.com/pricehunt/backend/internal/delivery/http"
	"github.com/pricehunt/backend/internal/domain"
	"github.com/pricehunt/backend/internal/infrastructure/cache"
	"github.com/pricehunt/backend/internal/infrastructure/sources"
	"github.com/pricehunt/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PriceHunt Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	resultCache := cache.NewMemoryCache()
	log.Printf("Result cache TTL: %s", cfg.Cache.TTL)

	adapters, err := sources.Build(sourceConfigs(cfg))
	if err != nil {
		log.Fatalf("Failed to build source adapters: %v", err)
	}
	if len(adapters) == 0 {
		log.Printf("WARNING: no price sources configured - searches will return empty results")
	}
	for _, adapter := range adapters {
		log.Printf("Source registered: %s", adapter.Name())
	}

	trust := domain.NewTrustTable(cfg.Trust.Weights, cfg.Trust.DefaultWeight)

	// Initialize usecase layer
	searchService := usecase.NewSearchService(
		resultCache,
		adapters,
		trust,
		usecase.SearchServiceConfig{
			AdapterTimeout:     cfg.Aggregation.AdapterTimeout,
			MaxRetries:         cfg.Aggregation.MaxRetries,
			MergeThreshold:     cfg.Aggregation.MergeThreshold,
			ExactThreshold:     cfg.Aggregation.ExactThreshold,
			SimilarThreshold:   cfg.Aggregation.SimilarThreshold,
			MaxSimilarProducts: cfg.Aggregation.MaxSimilarProducts,
			CacheTTL:           cfg.Cache.TTL,
			EnableDebugLogging: cfg.Aggregation.EnableDebugLogging,
		},
	)

	log.Printf("Aggregation: timeout=%s, retries=%d, thresholds exact=%.2f similar=%.2f merge=%.2f",
		cfg.Aggregation.AdapterTimeout,
		cfg.Aggregation.MaxRetries,
		cfg.Aggregation.ExactThreshold,
		cfg.Aggregation.SimilarThreshold,
		cfg.Aggregation.MergeThreshold)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// sourceConfigs maps configuration entries to the adapter registry's input
func sourceConfigs(cfg *config.Config) []sources.Config {
	configs := make([]sources.Config, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		configs = append(configs, sources.Config{
			Name:       s.Name,
			Kind:       s.Kind,
			BaseURL:    s.BaseURL,
			APIKey:     s.APIKey,
			RatePerSec: s.RatePerSec,
		})
	}
	return configs
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
