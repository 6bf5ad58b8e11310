package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

type fakeProvider struct {
	key, name  string
	configured bool
	listings   []models.Listing
	byCity     map[string][]models.Listing
	err        error
	failFirst  int32
	panics     bool
	delay      time.Duration

	calls  int32
	mu     sync.Mutex
	cities []string
}

func (f *fakeProvider) Key() string      { return f.key }
func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Search(ctx context.Context, artist, city string) ([]models.Listing, error) {
	n := atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.cities = append(f.cities, city)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panics {
		panic("provider blew up")
	}
	if f.err != nil {
		return nil, f.err
	}
	if n <= f.failFirst {
		return nil, errors.New("status: http 503")
	}
	if f.byCity != nil {
		return f.byCity[city], nil
	}
	return f.listings, nil
}

func listing(platform, url string, price *float64) models.Listing {
	return models.Listing{Name: "Show", URL: url, Platform: platform, Price: price, MinPrice: price}
}

func newTestAggregator(providers ...Provider) *Aggregator {
	return NewAggregator(providers, 3, time.Second, 0, nil, newTestLogger())
}

func TestCheapestIsStable(t *testing.T) {
	listings := []models.Listing{
		listing("A", "u0", models.FloatPtr(50)),
		listing("A", "u1", models.FloatPtr(30)),
		listing("A", "u2", models.FloatPtr(30)),
	}
	got := Cheapest(listings)
	if got == nil || got.URL != "u1" {
		t.Fatalf("Cheapest = %+v; want the first 30 (u1)", got)
	}
}

func TestCheapestSkipsIneligible(t *testing.T) {
	listings := []models.Listing{
		listing("A", "", models.FloatPtr(1)),
		listing("A", "u1", nil),
		listing("A", "u2", models.FloatPtr(40)),
	}
	got := Cheapest(listings)
	if got == nil || got.URL != "u2" {
		t.Fatalf("Cheapest = %+v; want u2", got)
	}
	if Cheapest([]models.Listing{listing("A", "u", nil)}) != nil {
		t.Error("all-null prices should yield nil cheapest")
	}
	if Cheapest(nil) != nil {
		t.Error("empty input should yield nil cheapest")
	}
}

func TestSearchAllMergesProviders(t *testing.T) {
	tm := &fakeProvider{key: "ticketmaster", name: "Ticketmaster", configured: true, listings: []models.Listing{
		listing("Ticketmaster", "tm1", models.FloatPtr(80)),
		listing("Ticketmaster", "tm2", nil),
	}}
	sg := &fakeProvider{key: "seatgeek", name: "SeatGeek", configured: true, listings: []models.Listing{
		listing("SeatGeek", "sg1", models.FloatPtr(65)),
	}}

	resp := newTestAggregator(tm, sg).SearchAll(context.Background(), "Adele", "Chicago")

	if resp.TotalResults != 3 || len(resp.Listings) != 3 {
		t.Fatalf("TotalResults = %d, len(Listings) = %d; want 3", resp.TotalResults, len(resp.Listings))
	}
	if resp.Cheapest == nil || resp.Cheapest.URL != "sg1" {
		t.Errorf("Cheapest = %+v; want sg1", resp.Cheapest)
	}
	if len(resp.ByPlatform["Ticketmaster"]) != 2 {
		t.Errorf("by_platform should keep priceless listings, got %d", len(resp.ByPlatform["Ticketmaster"]))
	}
	if c := resp.CheapestByPlatform["Ticketmaster"]; c == nil || c.URL != "tm1" {
		t.Errorf("CheapestByPlatform[Ticketmaster] = %+v; want tm1", c)
	}
	if !resp.APIConfigured["ticketmaster"] || !resp.APIConfigured["seatgeek"] {
		t.Errorf("APIConfigured = %v", resp.APIConfigured)
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", resp.Warnings)
	}
	if resp.City == nil || *resp.City != "Chicago" {
		t.Errorf("City = %v", resp.City)
	}
	if tm.cities[0] != "Chicago" {
		t.Errorf("provider received city %q", tm.cities[0])
	}
}

func TestSearchAllFailureCombinations(t *testing.T) {
	good := func() *fakeProvider {
		return &fakeProvider{key: "ticketmaster", name: "Ticketmaster", configured: true,
			listings: []models.Listing{listing("Ticketmaster", "tm1", models.FloatPtr(10))}}
	}
	failing := func() *fakeProvider {
		return &fakeProvider{key: "seatgeek", name: "SeatGeek", configured: true, err: errors.New("status: http 500")}
	}
	unconfigured := func() *fakeProvider {
		return &fakeProvider{key: "seatgeek", name: "SeatGeek"}
	}
	panicking := func() *fakeProvider {
		return &fakeProvider{key: "ticketmaster", name: "Ticketmaster", configured: true, panics: true}
	}
	slow := func() *fakeProvider {
		return &fakeProvider{key: "ticketmaster", name: "Ticketmaster", configured: true, delay: time.Hour}
	}

	tests := []struct {
		name         string
		providers    []*fakeProvider
		minWarnings  int
		wantTotal    int
		wantCheapest bool
	}{
		{name: "one ok one failing", providers: []*fakeProvider{good(), failing()}, minWarnings: 1, wantTotal: 1, wantCheapest: true},
		{name: "one ok one unconfigured", providers: []*fakeProvider{good(), unconfigured()}, minWarnings: 1, wantTotal: 1, wantCheapest: true},
		{name: "panic and failure", providers: []*fakeProvider{panicking(), failing()}, minWarnings: 2},
		{name: "timeout and unconfigured", providers: []*fakeProvider{slow(), unconfigured()}, minWarnings: 2},
		{name: "nothing configured", providers: []*fakeProvider{{key: "ticketmaster", name: "Ticketmaster"}, unconfigured()}, minWarnings: 2},
		{name: "no providers", providers: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers := make([]Provider, 0, len(tt.providers))
			for _, p := range tt.providers {
				providers = append(providers, p)
			}
			agg := NewAggregator(providers, 3, 50*time.Millisecond, 0, nil, newTestLogger())

			resp := agg.SearchAll(context.Background(), "Adele", "")
			if resp == nil {
				t.Fatal("SearchAll returned nil")
			}
			if len(resp.Warnings) < tt.minWarnings {
				t.Errorf("warnings = %v; want at least %d", resp.Warnings, tt.minWarnings)
			}
			if resp.TotalResults != len(resp.Listings) {
				t.Errorf("TotalResults %d != len(Listings) %d", resp.TotalResults, len(resp.Listings))
			}
			if resp.TotalResults != tt.wantTotal {
				t.Errorf("TotalResults = %d; want %d", resp.TotalResults, tt.wantTotal)
			}
			if (resp.Cheapest != nil) != tt.wantCheapest {
				t.Errorf("Cheapest = %+v; want present=%v", resp.Cheapest, tt.wantCheapest)
			}
			if resp.City != nil {
				t.Errorf("empty city should serialize as null")
			}
		})
	}
}

func TestSearchAllWarningText(t *testing.T) {
	failing := &fakeProvider{key: "seatgeek", name: "SeatGeek", configured: true, err: errors.New("forbidden: http status 403")}
	unconfigured := &fakeProvider{key: "ticketmaster", name: "Ticketmaster"}

	resp := newTestAggregator(unconfigured, failing).SearchAll(context.Background(), "Adele", "")

	want := []string{
		"Ticketmaster API key not configured - Ticketmaster results unavailable",
		"SeatGeek search failed: forbidden: http status 403",
	}
	if len(resp.Warnings) != len(want) {
		t.Fatalf("Warnings = %v; want %v", resp.Warnings, want)
	}
	for i := range want {
		if resp.Warnings[i] != want[i] {
			t.Errorf("Warnings[%d] = %q; want %q", i, resp.Warnings[i], want[i])
		}
	}
	if got, ok := resp.ByPlatform["SeatGeek"]; !ok || len(got) != 0 {
		t.Errorf("failed provider should map to an empty list, got %v (present=%v)", got, ok)
	}
	if _, ok := resp.ByPlatform["Ticketmaster"]; ok {
		t.Errorf("unconfigured provider should not appear in by_platform")
	}
	if resp.APIConfigured["ticketmaster"] {
		t.Errorf("APIConfigured[ticketmaster] should be false")
	}
	if atomic.LoadInt32(&unconfigured.calls) != 0 {
		t.Errorf("unconfigured provider was called")
	}
}

func TestSearchAllAllNullPrices(t *testing.T) {
	p := &fakeProvider{key: "seatgeek", name: "SeatGeek", configured: true, listings: []models.Listing{
		listing("SeatGeek", "a", nil),
		listing("SeatGeek", "b", nil),
	}}
	resp := newTestAggregator(p).SearchAll(context.Background(), "Adele", "")
	if resp.Cheapest != nil {
		t.Errorf("Cheapest = %+v; want nil", resp.Cheapest)
	}
	if resp.TotalResults != 2 {
		t.Errorf("TotalResults = %d; want 2", resp.TotalResults)
	}
	if _, ok := resp.CheapestByPlatform["SeatGeek"]; ok {
		t.Errorf("no cheapest per platform expected")
	}
}

func TestSearchAllTimeoutIsProviderFailure(t *testing.T) {
	slow := &fakeProvider{key: "ticketmaster", name: "Ticketmaster", configured: true, delay: time.Hour}
	agg := NewAggregator([]Provider{slow}, 3, 20*time.Millisecond, 0, nil, newTestLogger())

	start := time.Now()
	resp := agg.SearchAll(context.Background(), "Adele", "")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("SearchAll took %v; per-provider timeout not applied", elapsed)
	}
	if len(resp.Warnings) != 1 || !strings.HasPrefix(resp.Warnings[0], "Ticketmaster search failed: ") {
		t.Errorf("Warnings = %v", resp.Warnings)
	}
}

func TestSearchAllUsesCache(t *testing.T) {
	p := &fakeProvider{key: "seatgeek", name: "SeatGeek", configured: true, listings: []models.Listing{
		listing("SeatGeek", "a", models.FloatPtr(5)),
	}}
	agg := NewAggregator([]Provider{p}, 3, time.Second, 0, NewSearchCache(8, time.Minute), newTestLogger())

	first := agg.SearchAll(context.Background(), "Adele", "Boston")
	first.CitySuggestion = models.StringPtr("mutated")

	second := agg.SearchAll(context.Background(), "ADELE", " boston ")
	if calls := atomic.LoadInt32(&p.calls); calls != 1 {
		t.Errorf("provider calls = %d; want 1 (second search cached)", calls)
	}
	if second.TotalResults != 1 {
		t.Errorf("cached TotalResults = %d", second.TotalResults)
	}
	if second.CitySuggestion != nil {
		t.Errorf("mutating a returned response leaked into the cache")
	}
	if first.FromCache || !second.FromCache {
		t.Errorf("FromCache = %v, %v; want false, true", first.FromCache, second.FromCache)
	}
}

func TestSearchAllDoesNotCacheProviderFailure(t *testing.T) {
	p := &fakeProvider{key: "seatgeek", name: "SeatGeek", configured: true, failFirst: 1, listings: []models.Listing{
		listing("SeatGeek", "a", models.FloatPtr(5)),
	}}
	agg := NewAggregator([]Provider{p}, 3, time.Second, 0, NewSearchCache(8, time.Minute), newTestLogger())

	first := agg.SearchAll(context.Background(), "Adele", "Boston")
	if first.TotalResults != 0 || len(first.Warnings) != 1 {
		t.Fatalf("first search: total %d, warnings %v", first.TotalResults, first.Warnings)
	}

	second := agg.SearchAll(context.Background(), "Adele", "Boston")
	if calls := atomic.LoadInt32(&p.calls); calls != 2 {
		t.Errorf("provider calls = %d; want 2", calls)
	}
	if second.FromCache || second.TotalResults != 1 || len(second.Warnings) != 0 {
		t.Errorf("second search: fromCache %v, total %d, warnings %v", second.FromCache, second.TotalResults, second.Warnings)
	}

	third := agg.SearchAll(context.Background(), "Adele", "Boston")
	if calls := atomic.LoadInt32(&p.calls); calls != 2 || !third.FromCache {
		t.Errorf("successful search not cached: calls %d, fromCache %v", calls, third.FromCache)
	}
}

func TestSearchAllDoesNotCacheCancelledSearch(t *testing.T) {
	p := &fakeProvider{key: "seatgeek", name: "SeatGeek", configured: true, listings: []models.Listing{
		listing("SeatGeek", "a", models.FloatPtr(5)),
	}}
	agg := NewAggregator([]Provider{p}, 3, time.Second, 0, NewSearchCache(8, time.Minute), newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	agg.SearchAll(ctx, "Adele", "")

	resp := agg.SearchAll(context.Background(), "Adele", "")
	if resp.FromCache || resp.TotalResults != 1 {
		t.Errorf("fromCache %v, total %d; want a fresh search with 1 result", resp.FromCache, resp.TotalResults)
	}
	if calls := atomic.LoadInt32(&p.calls); calls != 2 {
		t.Errorf("provider calls = %d; want 2", calls)
	}
}

type skipCounter struct {
	mu   sync.Mutex
	seen []string
}

func (s *skipCounter) IncSkipped(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, provider)
}

func TestSearchAllRecordsSkippedProviders(t *testing.T) {
	skips := &skipCounter{}
	agg := newTestAggregator(
		&fakeProvider{key: "ticketmaster", name: "Ticketmaster"},
		&fakeProvider{key: "seatgeek", name: "SeatGeek", configured: true},
	)
	agg.RecordSkips(skips)

	agg.SearchAll(context.Background(), "Adele", "")
	agg.SearchAll(context.Background(), "Adele", "Boston")

	if len(skips.seen) != 2 || skips.seen[0] != "ticketmaster" || skips.seen[1] != "ticketmaster" {
		t.Errorf("skipped = %v; want ticketmaster twice", skips.seen)
	}
}
