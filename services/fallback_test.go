package services

import (
	"context"
	"testing"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

func fallbackFixture(byCity map[string][]models.Listing) (*FallbackSearch, *fakeProvider) {
	p := &fakeProvider{key: "seatgeek", name: "SeatGeek", configured: true, byCity: byCity}
	agg := NewAggregator([]Provider{p}, 3, time.Second, 0, nil, newTestLogger())
	return NewFallbackSearch(agg, newTestLogger()), p
}

func TestFallbackOriginalCityHasResults(t *testing.T) {
	fs, p := fallbackFixture(map[string][]models.Listing{
		"Denver": {listing("SeatGeek", "d1", models.FloatPtr(40))},
	})

	resp := fs.Search(context.Background(), "Adele", "Denver")
	if resp.TotalResults != 1 {
		t.Fatalf("TotalResults = %d; want 1", resp.TotalResults)
	}
	if resp.OriginalCity == nil || *resp.OriginalCity != "Denver" {
		t.Errorf("OriginalCity = %v", resp.OriginalCity)
	}
	if resp.NearestCity != nil || resp.CitySuggestion != nil || resp.DistanceMiles != nil {
		t.Errorf("no fallback fields expected on a direct hit")
	}
	if len(p.cities) != 1 {
		t.Errorf("searched %v; want only Denver", p.cities)
	}
}

func TestFallbackUsesNearestCityWithResults(t *testing.T) {
	fs, p := fallbackFixture(map[string][]models.Listing{
		"Portland": {listing("SeatGeek", "p1", models.FloatPtr(55))},
	})

	resp := fs.Search(context.Background(), "Adele", "Seattle")

	if resp.NearestCity == nil || *resp.NearestCity != "Portland" {
		t.Fatalf("NearestCity = %v; want Portland", resp.NearestCity)
	}
	if resp.City == nil || *resp.City != "Portland" {
		t.Errorf("City = %v; want Portland", resp.City)
	}
	if resp.OriginalCity == nil || *resp.OriginalCity != "Seattle" {
		t.Errorf("OriginalCity = %v", resp.OriginalCity)
	}
	if resp.DistanceMiles == nil || *resp.DistanceMiles != 145.4 {
		t.Errorf("DistanceMiles = %v; want 145.4", resp.DistanceMiles)
	}
	want := "No events found in Seattle. Showing results from Portland (145.4 miles away)."
	if resp.CitySuggestion == nil || *resp.CitySuggestion != want {
		t.Errorf("CitySuggestion = %v; want %q", resp.CitySuggestion, want)
	}

	// Vancouver is closer than Portland, so it is tried first.
	wantOrder := []string{"Seattle", "Vancouver", "Portland"}
	if len(p.cities) != len(wantOrder) {
		t.Fatalf("searched %v; want %v", p.cities, wantOrder)
	}
	for i := range wantOrder {
		if p.cities[i] != wantOrder[i] {
			t.Errorf("search %d city = %q; want %q", i, p.cities[i], wantOrder[i])
		}
	}
}

func TestFallbackUnknownCityEndsWithNoEvents(t *testing.T) {
	fs, p := fallbackFixture(map[string][]models.Listing{})

	resp := fs.Search(context.Background(), "X", "Nowhereville")

	if resp.CitySuggestion == nil || *resp.CitySuggestion != "No events found for this artist." {
		t.Fatalf("CitySuggestion = %v", resp.CitySuggestion)
	}
	if resp.City != nil {
		t.Errorf("City = %q; want null after the global search", *resp.City)
	}
	if resp.OriginalCity == nil || *resp.OriginalCity != "Nowhereville" {
		t.Errorf("OriginalCity = %v", resp.OriginalCity)
	}
	// original + 8 table-order candidates + one unfiltered search
	if len(p.cities) != 10 {
		t.Fatalf("searches = %d (%v); want 10", len(p.cities), p.cities)
	}
	table := Cities()
	for i := 0; i < 8; i++ {
		if p.cities[i+1] != table[i].Name {
			t.Errorf("candidate %d = %q; want %q", i, p.cities[i+1], table[i].Name)
		}
	}
	if p.cities[9] != "" {
		t.Errorf("last search city = %q; want unfiltered", p.cities[9])
	}
}

func TestFallbackUnknownCityUsesTableCandidateWithoutDistance(t *testing.T) {
	fs, _ := fallbackFixture(map[string][]models.Listing{
		"Chicago": {listing("SeatGeek", "c1", models.FloatPtr(20))},
	})

	resp := fs.Search(context.Background(), "Adele", "Nowhereville")
	if resp.NearestCity == nil || *resp.NearestCity != "Chicago" {
		t.Fatalf("NearestCity = %v; want Chicago", resp.NearestCity)
	}
	if resp.DistanceMiles != nil {
		t.Errorf("DistanceMiles = %v; want omitted for an unresolved origin", *resp.DistanceMiles)
	}
	want := "No events found in Nowhereville. Showing results from Chicago."
	if resp.CitySuggestion == nil || *resp.CitySuggestion != want {
		t.Errorf("CitySuggestion = %v; want %q", resp.CitySuggestion, want)
	}
}

func TestFallbackGlobalSearchFindsEvents(t *testing.T) {
	fs, _ := fallbackFixture(map[string][]models.Listing{
		"": {listing("SeatGeek", "g1", models.FloatPtr(99))},
	})

	resp := fs.Search(context.Background(), "Adele", "Anchorage")
	want := "No events found near Anchorage. Showing all available events."
	if resp.CitySuggestion == nil || *resp.CitySuggestion != want {
		t.Fatalf("CitySuggestion = %v; want %q", resp.CitySuggestion, want)
	}
	if resp.TotalResults != 1 || resp.City != nil {
		t.Errorf("TotalResults = %d, City = %v", resp.TotalResults, resp.City)
	}
}

func TestFallbackWithoutCityIsPlainSearch(t *testing.T) {
	fs, p := fallbackFixture(map[string][]models.Listing{})

	resp := fs.Search(context.Background(), "Adele", "  ")
	if resp.CitySuggestion != nil || resp.OriginalCity != nil {
		t.Errorf("no fallback tagging expected without a city")
	}
	if len(p.cities) != 1 {
		t.Errorf("searches = %d; want 1", len(p.cities))
	}
}
