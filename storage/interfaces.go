package storage

import (
	"context"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

// DefaultListingLimit caps artist listing queries when no limit is given.
const DefaultListingLimit = 200

// Store is the interface any persistence backend must satisfy.
type Store interface {
	// RecordSearch appends one row to the artist search log.
	RecordSearch(ctx context.Context, artist string) (models.ArtistSearch, error)
	// SaveListings snapshots listings that have a URL and a valid price and
	// returns how many rows were written.
	SaveListings(ctx context.Context, artist, source string, listings []models.Listing) (int, error)
	// ListingsForArtist returns snapshots whose artist contains the given
	// text, case-insensitively, newest first.
	ListingsForArtist(ctx context.Context, artist string, limit int) ([]models.StoredListing, error)

	ListTracked(ctx context.Context) ([]models.TrackedItem, error)
	// AddTracked inserts item unless an equivalent one exists, in which case
	// the existing row is returned with created=false.
	AddTracked(ctx context.Context, item models.TrackedItem) (saved models.TrackedItem, created bool, err error)
	DeleteTracked(ctx context.Context, id int64) (bool, error)

	Close() error
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}
