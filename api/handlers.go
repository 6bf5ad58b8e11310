package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/services"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/storage"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

// TicketSearcher runs a live multi-provider search.
type TicketSearcher interface {
	Search(ctx context.Context, artist, city string) *models.SearchResponse
}

// Scraper runs the scrape collaborator for one artist.
type Scraper interface {
	Run(ctx context.Context, artist string) *models.ScrapeResult
}

// Handler holds the dependencies shared by the API endpoints.
type Handler struct {
	store          storage.Store
	searcher       TicketSearcher
	scraper        Scraper
	persistResults bool
	logger         *utils.Logger
}

func NewHandler(store storage.Store, searcher TicketSearcher, scraper Scraper, persistResults bool, logger *utils.Logger) *Handler {
	return &Handler{
		store:          store,
		searcher:       searcher,
		scraper:        scraper,
		persistResults: persistResults,
		logger:         logger,
	}
}

type searchEnvelope struct {
	OK bool `json:"ok"`
	*models.SearchResponse
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"ok": false, "error": msg})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Ticket Price Tracker Backend is running"})
}

// SearchTickets handles GET /api/search/tickets?artist=&city=.
func (h *Handler) SearchTickets(c *gin.Context) {
	artist := strings.TrimSpace(c.Query("artist"))
	city := strings.TrimSpace(c.Query("city"))
	if artist == "" {
		fail(c, http.StatusBadRequest, "artist query param is required")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.RecordSearch(ctx, artist); err != nil {
		h.logger.Error("[api] Record search failed: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := h.searcher.Search(ctx, artist, city)

	// Cached responses were stored when they were first fetched.
	if h.persistResults && !resp.FromCache {
		if err := h.saveSnapshot(ctx, artist, resp); err != nil {
			h.logger.Error("[api] Snapshot failed: %v", err)
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, searchEnvelope{OK: true, SearchResponse: resp})
}

func (h *Handler) saveSnapshot(ctx context.Context, artist string, resp *models.SearchResponse) error {
	for platform, listings := range resp.ByPlatform {
		if len(listings) == 0 {
			continue
		}
		n, err := h.store.SaveListings(ctx, artist, strings.ToLower(platform), listings)
		if err != nil {
			return err
		}
		h.logger.Debug("[api] Stored %d %s listings for %q", n, platform, artist)
	}
	return nil
}

// TicketResults handles GET /api/results/tickets?artist=.
func (h *Handler) TicketResults(c *gin.Context) {
	artist := strings.TrimSpace(c.Query("artist"))
	if artist == "" {
		fail(c, http.StatusBadRequest, "artist query param is required")
		return
	}

	listings, err := h.store.ListingsForArtist(c.Request.Context(), artist, storage.DefaultListingLimit)
	if err != nil {
		h.logger.Error("[api] Load listings failed: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, services.BuildSummary(artist, listings))
}

type scrapeRequest struct {
	Artist string `json:"artist"`
}

// StartScrape handles POST /api/scrape/start. It blocks until the
// collaborator exits.
func (h *Handler) StartScrape(c *gin.Context) {
	var req scrapeRequest
	_ = c.ShouldBindJSON(&req)
	artist := strings.TrimSpace(req.Artist)
	if artist == "" {
		fail(c, http.StatusBadRequest, "Artist is required")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.RecordSearch(ctx, artist); err != nil {
		h.logger.Error("[api] Record search failed: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	result := h.scraper.Run(ctx, artist)
	if !result.OK {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": result})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "artist": artist, "scraper": result})
}

func (h *Handler) ListTracked(c *gin.Context) {
	items, err := h.store.ListTracked(c.Request.Context())
	if err != nil {
		h.logger.Error("[api] List tracked failed: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tracked": items})
}

// trackedRequest accepts prices as numbers or display strings.
type trackedRequest struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	EventDate string `json:"event_date"`
	Venue     string `json:"venue"`
	Price     any    `json:"price"`
	MinPrice  any    `json:"min_price"`
	MaxPrice  any    `json:"max_price"`
	URL       string `json:"url"`
	Platform  string `json:"platform"`
	Image     string `json:"image"`
}

func (r trackedRequest) toItem() models.TrackedItem {
	return models.TrackedItem{
		Kind:      strings.ToLower(strings.TrimSpace(r.Kind)),
		Name:      strings.TrimSpace(r.Name),
		EventDate: models.StringPtr(strings.TrimSpace(r.EventDate)),
		Venue:     models.StringPtr(strings.TrimSpace(r.Venue)),
		Price:     services.CanonicalPrice(r.Price),
		MinPrice:  services.CanonicalPrice(r.MinPrice),
		MaxPrice:  services.CanonicalPrice(r.MaxPrice),
		URL:       models.StringPtr(strings.TrimSpace(r.URL)),
		Platform:  models.StringPtr(strings.TrimSpace(r.Platform)),
		Image:     models.StringPtr(strings.TrimSpace(r.Image)),
	}
}

func (h *Handler) AddTracked(c *gin.Context) {
	var req trackedRequest
	_ = c.ShouldBindJSON(&req)
	item := req.toItem()
	if item.Name == "" {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}

	saved, created, err := h.store.AddTracked(c.Request.Context(), item)
	if errors.Is(err, storage.ErrInvalidTracked) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("[api] Add tracked failed: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"ok": true, "tracked": saved, "message": "already tracked"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "tracked": saved})
}

func (h *Handler) DeleteTracked(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid tracked id")
		return
	}

	deleted, err := h.store.DeleteTracked(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("[api] Delete tracked failed: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		fail(c, http.StatusNotFound, "tracked item not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted_id": id})
}
