package models

// ProviderResult is the outcome of one provider call within a search.
// Either Listings holds the provider's full list or Err is set.
type ProviderResult struct {
	Platform string
	Listings []Listing
	Err      error
}

// SearchResponse is the aggregated multi-provider search result.
type SearchResponse struct {
	Artist             string               `json:"artist"`
	City               *string              `json:"city"`
	TotalResults       int                  `json:"total_results"`
	Cheapest           *Listing             `json:"cheapest"`
	Listings           []Listing            `json:"listings"`
	ByPlatform         map[string][]Listing `json:"by_platform"`
	CheapestByPlatform map[string]*Listing  `json:"cheapest_by_platform"`
	APIConfigured      map[string]bool      `json:"api_configured"`
	Warnings           []string             `json:"warnings"`

	OriginalCity   *string  `json:"original_city,omitempty"`
	NearestCity    *string  `json:"nearest_city,omitempty"`
	DistanceMiles  *float64 `json:"distance_miles,omitempty"`
	CitySuggestion *string  `json:"city_suggestion,omitempty"`

	// FromCache marks a response served from the search cache.
	FromCache bool `json:"-"`
}

// Clone returns a shallow copy whose top-level fields can be re-tagged
// without touching the original.
func (r *SearchResponse) Clone() *SearchResponse {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// TicketSummary is the artist results view built from stored listings.
type TicketSummary struct {
	Artist   string                     `json:"artist"`
	Total    int                        `json:"total"`
	Cheapest *StoredListing             `json:"cheapest"`
	Sources  map[string][]StoredListing `json:"sources"`
}

// ScrapeResult is the outcome of one scrape collaborator run.
type ScrapeResult struct {
	OK         bool   `json:"ok"`
	ReturnCode int    `json:"returncode"`
	Artist     string `json:"artist"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	Error      string `json:"error,omitempty"`
}
