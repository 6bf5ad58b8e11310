package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

// Provider is one ticket marketplace the Aggregator can query.
type Provider interface {
	// Key is the stable lower-case identifier used in api_configured and metrics.
	Key() string
	// Name is the display name used for by_platform and warnings.
	Name() string
	Configured() bool
	Search(ctx context.Context, artist, city string) ([]models.Listing, error)
}

// Aggregator fans a search out to every configured provider and merges
// whatever comes back.
type Aggregator struct {
	providers      []Provider
	maxConcurrency int
	timeout        time.Duration
	rateLimit      time.Duration
	cache          *SearchCache
	skips          SkipRecorder
	logger         *utils.Logger
}

// SkipRecorder is told about providers skipped for missing credentials.
type SkipRecorder interface {
	IncSkipped(provider string)
}

// NewAggregator builds an Aggregator. cache may be nil.
func NewAggregator(providers []Provider, maxConcurrency int, timeout, rateLimit time.Duration, cache *SearchCache, logger *utils.Logger) *Aggregator {
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}
	return &Aggregator{
		providers:      providers,
		maxConcurrency: maxConcurrency,
		timeout:        timeout,
		rateLimit:      rateLimit,
		cache:          cache,
		logger:         logger,
	}
}

// RecordSkips reports every unconfigured provider to r, keyed by Key().
func (a *Aggregator) RecordSkips(r SkipRecorder) {
	a.skips = r
}

// SearchAll queries every configured provider concurrently. It never fails:
// unconfigured and failing providers become warnings. An empty city means
// no city filter.
//
// listings are merged in completion order, so their order varies between
// runs when more than one provider answers.
func (a *Aggregator) SearchAll(ctx context.Context, artist, city string) *models.SearchResponse {
	if cached, ok := a.cache.Get(artist, city); ok {
		a.logger.Debug("[search] cache hit for %q in %q", artist, city)
		return cached
	}

	resp := &models.SearchResponse{
		Artist:             artist,
		City:               models.StringPtr(city),
		Listings:           []models.Listing{},
		ByPlatform:         make(map[string][]models.Listing),
		CheapestByPlatform: make(map[string]*models.Listing),
		APIConfigured:      make(map[string]bool, len(a.providers)),
		Warnings:           []string{},
	}

	var active []Provider
	for _, p := range a.providers {
		configured := p.Configured()
		resp.APIConfigured[p.Key()] = configured
		if !configured {
			resp.Warnings = append(resp.Warnings,
				fmt.Sprintf("%s API key not configured - %s results unavailable", p.Name(), p.Name()))
			if a.skips != nil {
				a.skips.IncSkipped(p.Key())
			}
			continue
		}
		active = append(active, p)
	}

	failed := 0
	if len(active) > 0 {
		workers := a.maxConcurrency
		if len(active) < workers {
			workers = len(active)
		}
		pool := utils.NewWorkerPool(workers, a.rateLimit)

		var mu sync.Mutex
		for _, p := range active {
			p := p
			pool.Submit(func() {
				listings, err := a.searchOne(ctx, p, artist, city)
				result := models.ProviderResult{Platform: p.Name(), Listings: listings, Err: err}

				mu.Lock()
				defer mu.Unlock()
				if !a.merge(resp, result) {
					failed++
				}
			})
		}
		pool.Wait()
	}

	for platform, listings := range resp.ByPlatform {
		if c := Cheapest(listings); c != nil {
			resp.CheapestByPlatform[platform] = c
		}
	}
	resp.Cheapest = Cheapest(resp.Listings)
	resp.TotalResults = len(resp.Listings)

	a.logger.Info("[search] %q city=%q: %d listings from %d providers, %d warnings",
		artist, city, resp.TotalResults, len(active), len(resp.Warnings))

	// A failed or cancelled call says nothing about the next one.
	if failed == 0 && ctx.Err() == nil {
		a.cache.Add(artist, city, resp)
	} else {
		a.logger.Debug("[search] not caching %q in %q: %d failed", artist, city, failed)
	}
	return resp
}

// merge folds one provider's outcome into resp and reports whether the
// call succeeded. Callers hold the merge lock.
func (a *Aggregator) merge(resp *models.SearchResponse, result models.ProviderResult) bool {
	if result.Err != nil {
		a.logger.Warn("[search] %s failed for %q: %v", result.Platform, resp.Artist, result.Err)
		resp.ByPlatform[result.Platform] = []models.Listing{}
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s search failed: %v", result.Platform, result.Err))
		return false
	}
	listings := result.Listings
	if listings == nil {
		listings = []models.Listing{}
	}
	resp.ByPlatform[result.Platform] = listings
	resp.Listings = append(resp.Listings, listings...)
	return true
}

// searchOne runs a single provider call under its own deadline and turns a
// panic into an ordinary error.
func (a *Aggregator) searchOne(ctx context.Context, p Provider, artist, city string) (listings []models.Listing, err error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			listings, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Search(ctx, artist, city)
}

// Cheapest returns a copy of the lowest-priced eligible listing, or nil.
// Ties keep the first one encountered.
func Cheapest(listings []models.Listing) *models.Listing {
	var best *models.Listing
	for i := range listings {
		l := &listings[i]
		if !l.Eligible() {
			continue
		}
		if best == nil || *l.Price < *best.Price {
			best = l
		}
	}
	if best == nil {
		return nil
	}
	c := *best
	return &c
}
