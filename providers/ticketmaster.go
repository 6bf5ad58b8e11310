package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/services"
)

const ticketmasterPageSize = 20

// Ticketmaster searches the Ticketmaster Discovery API.
type Ticketmaster struct {
	apiKey  string
	baseURL string
	client  *http.Client
	metrics *Metrics
}

// NewTicketmaster builds the adapter. A nil client gets one with the given timeout.
func NewTicketmaster(apiKey, baseURL string, client *http.Client, timeout time.Duration, metrics *Metrics) *Ticketmaster {
	return &Ticketmaster{
		apiKey:  apiKey,
		baseURL: trimBase(baseURL),
		client:  newHTTPClient(client, timeout),
		metrics: metrics,
	}
}

func (t *Ticketmaster) Key() string      { return "ticketmaster" }
func (t *Ticketmaster) Name() string     { return "Ticketmaster" }
func (t *Ticketmaster) Configured() bool { return t.apiKey != "" }

type tmResponse struct {
	Embedded struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded"`
}

type tmEvent struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
			LocalTime string `json:"localTime"`
		} `json:"start"`
	} `json:"dates"`
	PriceRanges []struct {
		Min any `json:"min"`
		Max any `json:"max"`
	} `json:"priceRanges"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			State struct {
				StateCode string `json:"stateCode"`
			} `json:"state"`
		} `json:"venues"`
	} `json:"_embedded"`
}

// Search queries events by keyword, optionally restricted to a city.
func (t *Ticketmaster) Search(ctx context.Context, artist, city string) ([]models.Listing, error) {
	if !t.Configured() {
		return nil, nil
	}
	return observe(t.metrics, t.Key(), func() ([]models.Listing, error) {
		params := url.Values{}
		params.Set("apikey", t.apiKey)
		params.Set("keyword", artist)
		params.Set("size", fmt.Sprint(ticketmasterPageSize))
		params.Set("sort", "date,asc")
		if city != "" {
			params.Set("city", city)
		}

		var body tmResponse
		if err := getJSON(ctx, t.client, t.baseURL+"/discovery/v2/events.json", params, &body); err != nil {
			return nil, err
		}

		listings := make([]models.Listing, 0, len(body.Embedded.Events))
		for _, ev := range body.Embedded.Events {
			listings = append(listings, t.toListing(ev))
		}
		return listings, nil
	})
}

func (t *Ticketmaster) toListing(ev tmEvent) models.Listing {
	l := models.Listing{
		Name:     ev.Name,
		URL:      ev.URL,
		Platform: t.Name(),
	}

	if len(ev.PriceRanges) > 0 {
		l.MinPrice = services.CanonicalPrice(ev.PriceRanges[0].Min)
		l.MaxPrice = services.CanonicalPrice(ev.PriceRanges[0].Max)
		l.Price = l.MinPrice
	}

	if venues := ev.Embedded.Venues; len(venues) > 0 {
		v := venues[0]
		l.Venue = formatVenue(v.Name, v.City.Name, v.State.StateCode)
	}

	if start := ev.Dates.Start; start.LocalDate != "" {
		date := start.LocalDate
		if start.LocalTime != "" {
			date += " " + start.LocalTime
		}
		l.EventDate = &date
	}

	if len(ev.Images) > 0 {
		l.Image = models.StringPtr(ev.Images[0].URL)
	}
	return l
}
