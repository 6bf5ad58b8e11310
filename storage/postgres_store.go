package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

const uniqueViolation = "23505"

// PostgresStore persists searches, listing snapshots and tracked items to
// PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS artist_searches (
			id         BIGSERIAL PRIMARY KEY,
			artist     TEXT        NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS ticket_listings (
			id         BIGSERIAL PRIMARY KEY,
			artist     TEXT             NOT NULL,
			name       TEXT             NOT NULL,
			source     VARCHAR(50)      NOT NULL DEFAULT '',
			price      DOUBLE PRECISION NOT NULL,
			url        TEXT             NOT NULL,
			image      TEXT             NOT NULL DEFAULT '',
			event_date TEXT             NOT NULL DEFAULT '',
			venue      TEXT             NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS tracked_items (
			id         BIGSERIAL PRIMARY KEY,
			kind       VARCHAR(10) NOT NULL,
			name       TEXT        NOT NULL,
			event_date TEXT,
			venue      TEXT,
			price      DOUBLE PRECISION,
			min_price  DOUBLE PRECISION,
			max_price  DOUBLE PRECISION,
			url        TEXT,
			platform   TEXT,
			image      TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_ticket_listings_artist  ON ticket_listings(artist);
		CREATE INDEX IF NOT EXISTS idx_ticket_listings_created ON ticket_listings(created_at);
		CREATE INDEX IF NOT EXISTS idx_artist_searches_artist  ON artist_searches(artist);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_tracked_artist
			ON tracked_items (LOWER(name)) WHERE kind = 'artist';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_tracked_event
			ON tracked_items (name, COALESCE(event_date, ''), COALESCE(venue, '')) WHERE kind = 'event';
	`)
	return err
}

// RecordSearch logs one artist search.
func (ps *PostgresStore) RecordSearch(ctx context.Context, artist string) (models.ArtistSearch, error) {
	s := models.ArtistSearch{Artist: artist}
	err := ps.db.QueryRowContext(ctx,
		`INSERT INTO artist_searches (artist) VALUES ($1) RETURNING id, created_at`, artist,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return s, fmt.Errorf("postgres: record search: %w", err)
	}
	return s, nil
}

// SaveListings batch-inserts the priced listings in one transaction.
func (ps *PostgresStore) SaveListings(ctx context.Context, artist, source string, listings []models.Listing) (int, error) {
	rows := snapshotRows(artist, source, listings, time.Now().UTC())
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertBatch(ctx, tx, rows[i:end]); err != nil {
			return 0, fmt.Errorf("postgres: insert listings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return len(rows), nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, batch []models.StoredListing) error {
	const cols = 9
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		valueArgs = append(valueArgs,
			l.Artist, l.Name, l.Source, l.Price, l.URL, l.Image, l.EventDate, l.Venue, l.CreatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO ticket_listings (artist, name, source, price, url, image, event_date, venue, created_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// ListingsForArtist retrieves the newest snapshots matching artist.
func (ps *PostgresStore) ListingsForArtist(ctx context.Context, artist string, limit int) ([]models.StoredListing, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, artist, name, source, price, url, image, event_date, venue, created_at
		FROM ticket_listings
		WHERE artist ILIKE $1 ESCAPE '\'
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, likeContains(artist), limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("postgres: listings for artist: %w", err)
	}
	defer rows.Close()

	listings := []models.StoredListing{}
	for rows.Next() {
		var l models.StoredListing
		if err := rows.Scan(
			&l.ID, &l.Artist, &l.Name, &l.Source, &l.Price, &l.URL,
			&l.Image, &l.EventDate, &l.Venue, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

const trackedColumns = `id, kind, name, event_date, venue, price, min_price, max_price, url, platform, image, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTracked(row rowScanner) (models.TrackedItem, error) {
	var (
		t                         models.TrackedItem
		eventDate, venue          sql.NullString
		url, platform, image      sql.NullString
		price, minPrice, maxPrice sql.NullFloat64
	)
	err := row.Scan(&t.ID, &t.Kind, &t.Name, &eventDate, &venue,
		&price, &minPrice, &maxPrice, &url, &platform, &image, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	t.EventDate = nullString(eventDate)
	t.Venue = nullString(venue)
	t.URL = nullString(url)
	t.Platform = nullString(platform)
	t.Image = nullString(image)
	t.Price = nullFloat(price)
	t.MinPrice = nullFloat(minPrice)
	t.MaxPrice = nullFloat(maxPrice)
	return t, nil
}

// ListTracked returns every tracked item, newest first.
func (ps *PostgresStore) ListTracked(ctx context.Context) ([]models.TrackedItem, error) {
	rows, err := ps.db.QueryContext(ctx,
		`SELECT `+trackedColumns+` FROM tracked_items ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tracked: %w", err)
	}
	defer rows.Close()

	items := []models.TrackedItem{}
	for rows.Next() {
		t, err := scanTracked(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan tracked: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (ps *PostgresStore) findTracked(ctx context.Context, item models.TrackedItem) (models.TrackedItem, error) {
	if item.IsEvent() {
		return scanTracked(ps.db.QueryRowContext(ctx, `
			SELECT `+trackedColumns+` FROM tracked_items
			WHERE kind = 'event' AND name = $1
			  AND COALESCE(event_date, '') = $2 AND COALESCE(venue, '') = $3`,
			item.Name, models.Deref(item.EventDate), models.Deref(item.Venue)))
	}
	return scanTracked(ps.db.QueryRowContext(ctx, `
		SELECT `+trackedColumns+` FROM tracked_items
		WHERE kind = 'artist' AND LOWER(name) = LOWER($1)`, item.Name))
}

// AddTracked inserts item or returns the equivalent existing row.
func (ps *PostgresStore) AddTracked(ctx context.Context, item models.TrackedItem) (models.TrackedItem, bool, error) {
	item, err := normalizeTracked(item)
	if err != nil {
		return item, false, err
	}

	existing, err := ps.findTracked(ctx, item)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return item, false, fmt.Errorf("postgres: find tracked: %w", err)
	}

	err = ps.db.QueryRowContext(ctx, `
		INSERT INTO tracked_items (kind, name, event_date, venue, price, min_price, max_price, url, platform, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		item.Kind, item.Name, item.EventDate, item.Venue, item.Price, item.MinPrice, item.MaxPrice,
		item.URL, item.Platform, item.Image,
	).Scan(&item.ID, &item.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		// Lost a race with a concurrent insert of the same item.
		existing, findErr := ps.findTracked(ctx, item)
		if findErr != nil {
			return item, false, fmt.Errorf("postgres: find tracked: %w", findErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return item, false, fmt.Errorf("postgres: insert tracked: %w", err)
	}
	return item, true, nil
}

// DeleteTracked removes a tracked item, reporting whether it existed.
func (ps *PostgresStore) DeleteTracked(ctx context.Context, id int64) (bool, error) {
	res, err := ps.db.ExecContext(ctx, `DELETE FROM tracked_items WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("postgres: delete tracked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: delete tracked: %w", err)
	}
	return n > 0, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
