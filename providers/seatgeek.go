package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/services"
)

const seatgeekPageSize = 20

// SeatGeek searches the SeatGeek events API.
type SeatGeek struct {
	clientID string
	baseURL  string
	client   *http.Client
	metrics  *Metrics
}

// NewSeatGeek builds the adapter. A nil client gets one with the given timeout.
func NewSeatGeek(clientID, baseURL string, client *http.Client, timeout time.Duration, metrics *Metrics) *SeatGeek {
	return &SeatGeek{
		clientID: clientID,
		baseURL:  trimBase(baseURL),
		client:   newHTTPClient(client, timeout),
		metrics:  metrics,
	}
}

func (s *SeatGeek) Key() string      { return "seatgeek" }
func (s *SeatGeek) Name() string     { return "SeatGeek" }
func (s *SeatGeek) Configured() bool { return s.clientID != "" }

type sgResponse struct {
	Events []sgEvent `json:"events"`
}

type sgEvent struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	DatetimeLocal string `json:"datetime_local"`
	Stats         struct {
		LowestPrice  any `json:"lowest_price"`
		HighestPrice any `json:"highest_price"`
	} `json:"stats"`
	Venue struct {
		Name  string `json:"name"`
		City  string `json:"city"`
		State string `json:"state"`
	} `json:"venue"`
	Performers []struct {
		Image string `json:"image"`
	} `json:"performers"`
}

// Search queries events by free text, optionally restricted to a venue city.
func (s *SeatGeek) Search(ctx context.Context, artist, city string) ([]models.Listing, error) {
	if !s.Configured() {
		return nil, nil
	}
	return observe(s.metrics, s.Key(), func() ([]models.Listing, error) {
		params := url.Values{}
		params.Set("client_id", s.clientID)
		params.Set("q", artist)
		params.Set("per_page", fmt.Sprint(seatgeekPageSize))
		params.Set("sort", "datetime_local.asc")
		if city != "" {
			params.Set("venue.city", city)
		}

		var body sgResponse
		if err := getJSON(ctx, s.client, s.baseURL+"/2/events", params, &body); err != nil {
			return nil, err
		}

		listings := make([]models.Listing, 0, len(body.Events))
		for _, ev := range body.Events {
			listings = append(listings, s.toListing(ev))
		}
		return listings, nil
	})
}

func (s *SeatGeek) toListing(ev sgEvent) models.Listing {
	l := models.Listing{
		Name:     ev.Title,
		URL:      ev.URL,
		Platform: s.Name(),
		MinPrice: services.CanonicalPrice(ev.Stats.LowestPrice),
		MaxPrice: services.CanonicalPrice(ev.Stats.HighestPrice),
		Venue:    formatVenue(ev.Venue.Name, ev.Venue.City, ev.Venue.State),
	}
	l.Price = l.MinPrice

	if ev.DatetimeLocal != "" {
		date := formatSeatGeekDate(ev.DatetimeLocal)
		l.EventDate = &date
	}
	if len(ev.Performers) > 0 {
		l.Image = models.StringPtr(ev.Performers[0].Image)
	}
	return l
}

// formatSeatGeekDate renders "2006-01-02 15:04", leaving unparseable values as-is.
func formatSeatGeekDate(raw string) string {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return raw
}
