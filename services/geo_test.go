package services

import (
	"math"
	"strings"
	"testing"
)

func TestDistanceMilesZero(t *testing.T) {
	for _, c := range Cities() {
		if d := DistanceMiles(c.Lat, c.Lon, c.Lat, c.Lon); d != 0 {
			t.Errorf("DistanceMiles(%s, %s) = %v; want 0", c.Name, c.Name, d)
		}
	}
}

func TestDistanceMilesSymmetric(t *testing.T) {
	cities := Cities()
	for i := 0; i < len(cities); i++ {
		for j := i + 1; j < len(cities); j++ {
			a, b := cities[i], cities[j]
			ab := DistanceMiles(a.Lat, a.Lon, b.Lat, b.Lon)
			ba := DistanceMiles(b.Lat, b.Lon, a.Lat, a.Lon)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("distance %s->%s = %v but %s->%s = %v", a.Name, b.Name, ab, b.Name, a.Name, ba)
			}
		}
	}
}

func TestDistanceMilesKnownPair(t *testing.T) {
	// New York to Los Angeles is roughly 2445 miles great-circle.
	d := DistanceMiles(40.7128, -74.0060, 34.0522, -118.2437)
	if d < 2440 || d > 2450 {
		t.Errorf("NY->LA distance = %.1f; want ~2445", d)
	}
}

func TestCoordinatesOf(t *testing.T) {
	tests := []struct {
		name    string
		wantLat float64
		wantOK  bool
	}{
		{"New York", 40.7128, true},
		{"  chicago ", 41.8781, true},
		{"BOSTON", 42.3601, true},
		{"Kansas", 39.0997, true},            // substring of "Kansas City"
		{"New York City", 40.7128, true},     // contains "New York"
		{"Washington DC", 38.9072, true},     // contains "Washington"
		{"Nowhereville", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		lat, _, ok := CoordinatesOf(tt.name)
		if ok != tt.wantOK || lat != tt.wantLat {
			t.Errorf("CoordinatesOf(%q) = %v, %t; want %v, %t", tt.name, lat, ok, tt.wantLat, tt.wantOK)
		}
	}
}

func TestNearbyCitiesExcludesSelfAndSorts(t *testing.T) {
	got := NearbyCities("New York", 500, 5)
	if len(got) == 0 {
		t.Fatal("expected nearby cities for New York")
	}
	if len(got) > 5 {
		t.Errorf("len = %d; want at most 5", len(got))
	}
	for i, c := range got {
		if strings.EqualFold(c.City, "New York") {
			t.Errorf("NearbyCities included the origin city")
		}
		if !c.KnownDistance {
			t.Errorf("%s should carry a known distance", c.City)
		}
		if c.Distance > 500 {
			t.Errorf("%s at %.1f miles exceeds max distance", c.City, c.Distance)
		}
		if i > 0 && got[i-1].Distance > c.Distance {
			t.Errorf("results not sorted: %v before %v", got[i-1], c)
		}
	}
	if got[0].City != "Philadelphia" {
		t.Errorf("nearest to New York = %s; want Philadelphia", got[0].City)
	}
}

func TestNearbyCitiesResolvedAliasExcludesOrigin(t *testing.T) {
	for _, c := range NearbyCities("new york city", 500, 8) {
		if c.City == "New York" {
			t.Errorf("alias lookup should exclude the resolved origin")
		}
	}
}

func TestNearbyCitiesMaxDistance(t *testing.T) {
	got := NearbyCities("Seattle", 200, 10)
	for _, c := range got {
		if c.Distance > 200 {
			t.Errorf("%s at %.1f exceeds 200", c.City, c.Distance)
		}
	}
	if len(got) != 2 {
		t.Errorf("Seattle within 200 miles: got %v; want Portland and Vancouver", got)
	}
}

func TestNearbyCitiesUnknownFallsBackToTableOrder(t *testing.T) {
	got := NearbyCities("Nowhereville", 500, 8)
	if len(got) != 8 {
		t.Fatalf("len = %d; want 8", len(got))
	}
	table := Cities()
	for i, c := range got {
		if c.City != table[i].Name {
			t.Errorf("candidate %d = %s; want %s", i, c.City, table[i].Name)
		}
		if c.KnownDistance {
			t.Errorf("table-order candidates must not claim a distance")
		}
	}
}

func TestNearbyCitiesZeroLimit(t *testing.T) {
	if got := NearbyCities("Boston", 500, 0); len(got) != 0 {
		t.Errorf("zero limit returned %v", got)
	}
}
