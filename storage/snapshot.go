package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/services"
)

// ErrInvalidTracked is returned for tracked items without a name or with an
// unknown kind.
var ErrInvalidTracked = errors.New("invalid tracked item")

// snapshotRows converts listings into the rows SaveListings persists.
// Listings without a URL or a valid price are skipped.
func snapshotRows(artist, source string, listings []models.Listing, now time.Time) []models.StoredListing {
	rows := make([]models.StoredListing, 0, len(listings))
	for _, l := range listings {
		url := strings.TrimSpace(l.URL)
		price := services.CanonicalPrice(l.Price)
		if url == "" || price == nil {
			continue
		}
		name := strings.TrimSpace(l.Name)
		if name == "" {
			name = artist
		}
		rows = append(rows, models.StoredListing{
			Artist:    artist,
			Name:      name,
			Source:    source,
			Price:     *price,
			URL:       url,
			Image:     models.Deref(l.Image),
			EventDate: models.Deref(l.EventDate),
			Venue:     models.Deref(l.Venue),
			CreatedAt: now,
		})
	}
	return rows
}

// normalizeTracked trims the item and fills the default kind.
func normalizeTracked(item models.TrackedItem) (models.TrackedItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return item, fmt.Errorf("%w: name is required", ErrInvalidTracked)
	}
	if item.Kind == "" {
		item.Kind = models.TrackedKindArtist
		if item.EventDate != nil || item.Venue != nil {
			item.Kind = models.TrackedKindEvent
		}
	}
	switch item.Kind {
	case models.TrackedKindArtist:
		item.EventDate, item.Venue = nil, nil
		item.Price, item.MinPrice, item.MaxPrice = nil, nil, nil
		item.URL, item.Platform, item.Image = nil, nil, nil
	case models.TrackedKindEvent:
		item.Price = services.CanonicalPrice(item.Price)
		item.MinPrice = services.CanonicalPrice(item.MinPrice)
		item.MaxPrice = services.CanonicalPrice(item.MaxPrice)
	default:
		return item, fmt.Errorf("%w: unknown kind %q", ErrInvalidTracked, item.Kind)
	}
	return item, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListingLimit
	}
	return limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains builds a LIKE pattern matching s as a literal substring.
// Queries using it must declare ESCAPE '\'.
func likeContains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
