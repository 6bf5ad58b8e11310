package services

import (
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

const unknownSource = "unknown"

// BuildSummary groups stored listings by source and picks the cheapest.
// Listings whose price is not a finite non-negative number are skipped.
func BuildSummary(artist string, listings []models.StoredListing) models.TicketSummary {
	summary := models.TicketSummary{
		Artist:  artist,
		Sources: make(map[string][]models.StoredListing),
	}

	for i := range listings {
		l := listings[i]
		if CanonicalPrice(l.Price) == nil {
			continue
		}
		if l.Source == "" {
			l.Source = unknownSource
		}

		summary.Total++
		summary.Sources[l.Source] = append(summary.Sources[l.Source], l)
		if summary.Cheapest == nil || l.Price < summary.Cheapest.Price {
			c := l
			summary.Cheapest = &c
		}
	}
	return summary
}
