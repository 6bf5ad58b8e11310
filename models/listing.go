package models

import "time"

// Listing is one normalized event/ticket record from a provider.
// Nullable fields are pointers so they serialize as JSON null.
type Listing struct {
	Name      string   `json:"name"`
	EventDate *string  `json:"event_date"`
	Venue     *string  `json:"venue"`
	Price     *float64 `json:"price"`
	MinPrice  *float64 `json:"min_price"`
	MaxPrice  *float64 `json:"max_price"`
	URL       string   `json:"url"`
	Platform  string   `json:"platform"`
	Image     *string  `json:"image"`
}

// Eligible reports whether the listing can compete in cheapest selection.
func (l *Listing) Eligible() bool {
	return l != nil && l.URL != "" && l.Price != nil
}

// RawListing holds unprocessed data scraped from a browser page.
// This is archived to CSV before any cleaning or normalization.
type RawListing struct {
	Title     string
	RawPrice  string
	Venue     string
	EventDate string
	URL       string
	Image     string
	Platform  string
	ScrapedAt time.Time
}

// StoredListing is a historical snapshot of a normalized listing.
type StoredListing struct {
	ID        int64     `json:"id"`
	Artist    string    `json:"artist"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Price     float64   `json:"price"`
	URL       string    `json:"url"`
	Image     string    `json:"img,omitempty"`
	EventDate string    `json:"event_date,omitempty"`
	Venue     string    `json:"venue,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtistSearch records one user search or scrape request.
type ArtistSearch struct {
	ID        int64     `json:"id"`
	Artist    string    `json:"artist"`
	CreatedAt time.Time `json:"created_at"`
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 {
	return &f
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
