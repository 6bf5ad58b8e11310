package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

const (
	fallbackMaxDistance = 500
	fallbackCandidates  = 8
)

// Searcher runs one aggregated search. *Aggregator satisfies it.
type Searcher interface {
	SearchAll(ctx context.Context, artist, city string) *models.SearchResponse
}

// FallbackSearch widens an empty city search to nearby cities, then to
// every city.
type FallbackSearch struct {
	searcher Searcher
	logger   *utils.Logger
}

func NewFallbackSearch(searcher Searcher, logger *utils.Logger) *FallbackSearch {
	return &FallbackSearch{searcher: searcher, logger: logger}
}

// Search tries originalCity, then each nearby city in turn, then a search
// with no city. Without a city it is a plain search.
func (f *FallbackSearch) Search(ctx context.Context, artist, originalCity string) *models.SearchResponse {
	originalCity = strings.TrimSpace(originalCity)
	if originalCity == "" {
		return f.searcher.SearchAll(ctx, artist, "")
	}

	resp := f.searcher.SearchAll(ctx, artist, originalCity)
	if resp.TotalResults > 0 {
		resp.OriginalCity = models.StringPtr(originalCity)
		return resp
	}

	for _, candidate := range NearbyCities(originalCity, fallbackMaxDistance, fallbackCandidates) {
		if ctx.Err() != nil {
			break
		}
		f.logger.Debug("[fallback] %q: trying %s", artist, candidate.City)

		resp = f.searcher.SearchAll(ctx, artist, candidate.City)
		if resp.TotalResults == 0 {
			continue
		}

		resp.OriginalCity = models.StringPtr(originalCity)
		resp.NearestCity = models.StringPtr(candidate.City)
		resp.City = models.StringPtr(candidate.City)
		var suggestion string
		if candidate.KnownDistance {
			resp.DistanceMiles = models.FloatPtr(candidate.Distance)
			suggestion = fmt.Sprintf("No events found in %s. Showing results from %s (%.1f miles away).",
				originalCity, candidate.City, candidate.Distance)
		} else {
			suggestion = fmt.Sprintf("No events found in %s. Showing results from %s.",
				originalCity, candidate.City)
		}
		resp.CitySuggestion = &suggestion
		f.logger.Info("[fallback] %q: no events in %s, using %s", artist, originalCity, candidate.City)
		return resp
	}

	resp = f.searcher.SearchAll(ctx, artist, "")
	resp.OriginalCity = models.StringPtr(originalCity)
	resp.City = nil
	var suggestion string
	if resp.TotalResults > 0 {
		suggestion = fmt.Sprintf("No events found near %s. Showing all available events.", originalCity)
	} else {
		suggestion = "No events found for this artist."
	}
	resp.CitySuggestion = &suggestion
	return resp
}
