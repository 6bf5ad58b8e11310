package services

import (
	"strings"
	"unicode"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

// Cleaner transforms scraped RawListings into canonical Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean drops rows without a URL, keeps the first row per URL and
// normalizes text and prices. Rows with an unparseable price are kept with
// a nil Price; they are simply not cheapest-eligible.
func (c *Cleaner) Clean(raw []*models.RawListing) []models.Listing {
	seen := utils.NewURLSet()
	result := make([]models.Listing, 0, len(raw))

	for _, r := range raw {
		if r == nil {
			continue
		}
		url := strings.TrimSpace(r.URL)
		if url == "" {
			c.logger.Warn("[cleaner] Dropping listing with empty URL: %s", r.Title)
			continue
		}

		if !seen.Add(url) {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}

		price := CanonicalPrice(r.RawPrice)
		if price == nil && strings.TrimSpace(r.RawPrice) != "" {
			c.logger.Debug("[cleaner] Unparseable price %q for %s", r.RawPrice, url)
		}

		result = append(result, models.Listing{
			Name:      normaliseText(r.Title),
			EventDate: models.StringPtr(normaliseText(r.EventDate)),
			Venue:     models.StringPtr(normaliseText(r.Venue)),
			Price:     price,
			MinPrice:  price,
			URL:       url,
			Platform:  strings.TrimSpace(r.Platform),
			Image:     models.StringPtr(strings.TrimSpace(r.Image)),
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// MatchesArtist reports whether name mentions artist, ignoring case.
func MatchesArtist(name, artist string) bool {
	artist = strings.ToLower(strings.TrimSpace(artist))
	if artist == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), artist)
}

// FilterByArtist keeps listings whose name mentions artist.
func FilterByArtist(listings []models.Listing, artist string) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if MatchesArtist(l.Name, artist) {
			out = append(out, l)
		}
	}
	return out
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
