// Command scraper is the scrape collaborator started by POST /api/scrape/start.
// It searches the marketplace pages for one artist, archives the raw rows to
// CSV, stores the cleaned listings and prints a JSON summary on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/config"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/scraper"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/services"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/storage"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

const targetTimeout = 90 * time.Second

type sourceSummary struct {
	Count    int             `json:"count"`
	Stored   int             `json:"stored"`
	Cheapest *models.Listing `json:"cheapest"`
	Error    string          `json:"error,omitempty"`
}

type runSummary struct {
	Artist   string                    `json:"artist"`
	Stored   int                       `json:"stored"`
	Sources  map[string]*sourceSummary `json:"sources"`
	Cheapest *models.Listing           `json:"cheapest"`
}

func main() {
	os.Exit(run())
}

func run() int {
	artistFlag := flag.String("artist", "", "artist or event to search for")
	flag.Parse()

	artist := strings.TrimSpace(*artistFlag)
	if artist == "" && flag.NArg() > 0 {
		artist = strings.TrimSpace(strings.Join(flag.Args(), " "))
	}

	// stdout carries the JSON summary; logs go to stderr.
	cfg := config.Load()
	logger := utils.NewLoggerTo(os.Stderr, os.Stderr, utils.ParseLevel(cfg.LogLevel))

	if artist == "" {
		logger.Error("No artist given. Usage: scraper -artist \"Name\"")
		return 2
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		return 1
	}

	logger.Info("=== Ticket scraper starting for %q ===", artist)
	logger.Info("Config: concurrency: %d | rate: %dms | retries: %d",
		cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		return 1
	}
	defer csvWriter.Close()

	store, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Error("Failed to open %s storage: %v", cfg.StorageDriver, err)
		return 1
	}
	defer store.Close()

	targets := []scraper.Target{}
	browser, err := scraper.OpenBrowser(ctx, cfg.ScraperAuthFile, cfg.ChromeBin, logger)
	if err != nil {
		logger.Warn("Browser unavailable, only static targets will run: %v", err)
	} else {
		defer browser.Close()
		targets = append(targets, scraper.NewTicketmasterPage(browser), scraper.NewSeatGeekPage(browser))
	}
	targets = append(targets, scraper.NewGametime(cfg.GametimeBaseURL, targetTimeout, nil))

	retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: logger}
	runner := scraper.NewRunner(targets, cfg.MaxConcurrency, cfg.RateLimit(), targetTimeout, retry, csvWriter, logger)
	results := runner.Run(ctx, artist)

	summary := runSummary{Artist: artist, Sources: map[string]*sourceSummary{}}
	cleaner := services.NewCleaner(logger)
	var all []models.Listing
	failed := 0

	for _, res := range results {
		source := strings.ToLower(res.Target)
		s := &sourceSummary{}
		summary.Sources[source] = s
		if res.Err != nil {
			failed++
			s.Error = res.Err.Error()
			continue
		}

		listings := services.FilterByArtist(cleaner.Clean(res.Listings), artist)
		s.Count = len(listings)
		s.Cheapest = services.Cheapest(listings)
		all = append(all, listings...)

		n, err := store.SaveListings(ctx, artist, source, listings)
		if err != nil {
			logger.Error("[%s] Store failed: %v", source, err)
			s.Error = err.Error()
			continue
		}
		s.Stored = n
		summary.Stored += n
	}
	summary.Cheapest = services.Cheapest(all)

	printSummary(summary, logger)

	if failed == len(results) {
		logger.Error("Every target failed. Exiting.")
		return 1
	}
	if summary.Stored == 0 {
		logger.Error("No priced listings were stored for %q. Exiting.", artist)
		return 1
	}
	logger.Info("Done. Raw CSV → %s | %d listings stored", cfg.CSVOutputPath, summary.Stored)
	return 0
}

func printSummary(summary runSummary, logger *utils.Logger) {
	sources := make([]string, 0, len(summary.Sources))
	for s := range summary.Sources {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		src := summary.Sources[s]
		if src.Cheapest != nil {
			logger.Info("[%s] %d listings, cheapest $%.2f", s, src.Count, *src.Cheapest.Price)
		} else {
			logger.Info("[%s] %d listings", s, src.Count)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logger.Error("Failed to write summary: %v", err)
	}
}
