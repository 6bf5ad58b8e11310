package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/api"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/config"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/providers"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/services"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/storage"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerTo(os.Stdout, os.Stderr, utils.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	logger.Info("=== Ticket Price Aggregator starting ===")
	logger.Info("Config: addr %s | storage: %s | concurrency: %d | timeout: %v | cache: %d",
		cfg.HTTPAddr, cfg.StorageDriver, cfg.MaxConcurrency, cfg.ProviderTimeout, cfg.SearchCacheSize)

	store, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Error("Failed to open %s storage: %v", cfg.StorageDriver, err)
		if cfg.StorageDriver == "postgres" {
			logger.Error("Make sure Docker is running: docker compose up -d")
		}
		os.Exit(1)
	}
	defer store.Close()

	metrics := providers.NewMetrics()
	providerList := []services.Provider{
		providers.NewTicketmaster(cfg.TicketmasterAPIKey, cfg.TicketmasterBaseURL, nil, cfg.ProviderTimeout, metrics),
		providers.NewSeatGeek(cfg.SeatGeekClientID, cfg.SeatGeekBaseURL, nil, cfg.ProviderTimeout, metrics),
	}
	for _, p := range providerList {
		if !p.Configured() {
			logger.Warn("%s API key not configured - %s results unavailable", p.Name(), p.Name())
		}
	}

	cache := services.NewSearchCache(cfg.SearchCacheSize, cfg.SearchCacheTTL)
	aggregator := services.NewAggregator(providerList, cfg.MaxConcurrency, cfg.ProviderTimeout, cfg.RateLimit(), cache, logger)
	aggregator.RecordSkips(metrics)
	search := services.NewFallbackSearch(aggregator, logger)
	scrapeRunner := services.NewScrapeRunner(cfg.ScraperBin, nil, cfg.ScraperDir, cfg.ScraperTimeout, logger)

	handler := api.NewHandler(store, search, scrapeRunner, cfg.PersistSearchResults, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler, metrics.Registry, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
