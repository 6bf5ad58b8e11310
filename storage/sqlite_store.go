package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

type artistSearchRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Artist    string    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

func (artistSearchRecord) TableName() string { return "artist_searches" }

type ticketListingRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Artist    string    `gorm:"not null;index"`
	ArtistKey string    `gorm:"not null;default:'';index"`
	Name      string    `gorm:"not null"`
	Source    string    `gorm:"size:50;not null;default:''"`
	Price     float64   `gorm:"not null"`
	URL       string    `gorm:"not null"`
	Image     string    `gorm:"not null;default:''"`
	EventDate string    `gorm:"not null;default:''"`
	Venue     string    `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (ticketListingRecord) TableName() string { return "ticket_listings" }

// artistKey folds artist for matching. SQLite's LOWER only folds ASCII.
func artistKey(artist string) string {
	return strings.ToLower(artist)
}

func (r ticketListingRecord) toModel() models.StoredListing {
	return models.StoredListing{
		ID:        r.ID,
		Artist:    r.Artist,
		Name:      r.Name,
		Source:    r.Source,
		Price:     r.Price,
		URL:       r.URL,
		Image:     r.Image,
		EventDate: r.EventDate,
		Venue:     r.Venue,
		CreatedAt: r.CreatedAt,
	}
}

type trackedItemRecord struct {
	ID        int64  `gorm:"primaryKey"`
	Kind      string `gorm:"size:10;not null;index"`
	Name      string `gorm:"not null;index"`
	EventDate *string
	Venue     *string
	Price     *float64
	MinPrice  *float64
	MaxPrice  *float64
	URL       *string
	Platform  *string
	Image     *string
	CreatedAt time.Time `gorm:"not null"`
}

func (trackedItemRecord) TableName() string { return "tracked_items" }

func trackedRecordFrom(t models.TrackedItem) trackedItemRecord {
	return trackedItemRecord{
		ID: t.ID, Kind: t.Kind, Name: t.Name, EventDate: t.EventDate, Venue: t.Venue,
		Price: t.Price, MinPrice: t.MinPrice, MaxPrice: t.MaxPrice,
		URL: t.URL, Platform: t.Platform, Image: t.Image, CreatedAt: t.CreatedAt,
	}
}

func (r trackedItemRecord) toModel() models.TrackedItem {
	return models.TrackedItem{
		ID: r.ID, Kind: r.Kind, Name: r.Name, EventDate: r.EventDate, Venue: r.Venue,
		Price: r.Price, MinPrice: r.MinPrice, MaxPrice: r.MaxPrice,
		URL: r.URL, Platform: r.Platform, Image: r.Image, CreatedAt: r.CreatedAt,
	}
}

// SQLiteStore is the embedded default backend.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) the database file at path and
// migrates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// One connection serializes writers; SQLite allows a single writer anyway.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&artistSearchRecord{}, &ticketListingRecord{}, &trackedItemRecord{}); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	if err := backfillArtistKeys(db); err != nil {
		return nil, fmt.Errorf("sqlite: backfill artist keys: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// backfillArtistKeys fills artist_key on rows written before the column
// existed.
func backfillArtistKeys(db *gorm.DB) error {
	var batch []ticketListingRecord
	return db.Select("id", "artist").
		Where("artist_key = '' AND artist <> ''").
		FindInBatches(&batch, 200, func(tx *gorm.DB, _ int) error {
			for _, r := range batch {
				err := tx.Model(&ticketListingRecord{}).
					Where("id = ?", r.ID).
					Update("artist_key", artistKey(r.Artist)).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

func (s *SQLiteStore) RecordSearch(ctx context.Context, artist string) (models.ArtistSearch, error) {
	rec := artistSearchRecord{Artist: artist, CreatedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.ArtistSearch{}, fmt.Errorf("sqlite: record search: %w", err)
	}
	return models.ArtistSearch{ID: rec.ID, Artist: rec.Artist, CreatedAt: rec.CreatedAt}, nil
}

func (s *SQLiteStore) SaveListings(ctx context.Context, artist, source string, listings []models.Listing) (int, error) {
	rows := snapshotRows(artist, source, listings, time.Now().UTC())
	if len(rows) == 0 {
		return 0, nil
	}

	records := make([]ticketListingRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, ticketListingRecord{
			Artist: r.Artist, ArtistKey: artistKey(r.Artist), Name: r.Name, Source: r.Source, Price: r.Price, URL: r.URL,
			Image: r.Image, EventDate: r.EventDate, Venue: r.Venue, CreatedAt: r.CreatedAt,
		})
	}
	if err := s.db.WithContext(ctx).CreateInBatches(records, 50).Error; err != nil {
		return 0, fmt.Errorf("sqlite: insert listings: %w", err)
	}
	return len(records), nil
}

func (s *SQLiteStore) ListingsForArtist(ctx context.Context, artist string, limit int) ([]models.StoredListing, error) {
	var records []ticketListingRecord
	err := s.db.WithContext(ctx).
		Where(`artist_key LIKE ? ESCAPE '\'`, likeContains(artistKey(artist))).
		Order("created_at DESC").Order("id DESC").
		Limit(limitOrDefault(limit)).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite: listings for artist: %w", err)
	}

	listings := make([]models.StoredListing, 0, len(records))
	for _, r := range records {
		listings = append(listings, r.toModel())
	}
	return listings, nil
}

func (s *SQLiteStore) ListTracked(ctx context.Context) ([]models.TrackedItem, error) {
	var records []trackedItemRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("sqlite: list tracked: %w", err)
	}
	items := make([]models.TrackedItem, 0, len(records))
	for _, r := range records {
		items = append(items, r.toModel())
	}
	return items, nil
}

func findTrackedTx(tx *gorm.DB, item models.TrackedItem) (trackedItemRecord, error) {
	var rec trackedItemRecord
	q := tx.Where("kind = ?", item.Kind)
	if item.IsEvent() {
		q = q.Where("name = ? AND COALESCE(event_date, '') = ? AND COALESCE(venue, '') = ?",
			item.Name, models.Deref(item.EventDate), models.Deref(item.Venue))
	} else {
		q = q.Where("LOWER(name) = LOWER(?)", item.Name)
	}
	err := q.First(&rec).Error
	return rec, err
}

func (s *SQLiteStore) AddTracked(ctx context.Context, item models.TrackedItem) (models.TrackedItem, bool, error) {
	item, err := normalizeTracked(item)
	if err != nil {
		return item, false, err
	}

	var (
		saved   models.TrackedItem
		created bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findTrackedTx(tx, item)
		if err == nil {
			saved = existing.toModel()
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		rec := trackedRecordFrom(item)
		rec.ID = 0
		rec.CreatedAt = time.Now().UTC()
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		saved, created = rec.toModel(), true
		return nil
	})
	if err != nil {
		return item, false, fmt.Errorf("sqlite: add tracked: %w", err)
	}
	return saved, created, nil
}

func (s *SQLiteStore) DeleteTracked(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&trackedItemRecord{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("sqlite: delete tracked: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sqlite: close: %w", err)
	}
	return sqlDB.Close()
}
