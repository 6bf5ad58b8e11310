package models

import "time"

const (
	TrackedKindArtist = "artist"
	TrackedKindEvent  = "event"
)

// TrackedItem is a user-pinned artist or event. Artists are unique by name,
// events by (name, event_date, venue).
type TrackedItem struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	EventDate *string   `json:"event_date,omitempty"`
	Venue     *string   `json:"venue,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	MinPrice  *float64  `json:"min_price,omitempty"`
	MaxPrice  *float64  `json:"max_price,omitempty"`
	URL       *string   `json:"url,omitempty"`
	Platform  *string   `json:"platform,omitempty"`
	Image     *string   `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsEvent reports whether the item pins a specific event.
func (t *TrackedItem) IsEvent() bool {
	return t.Kind == TrackedKindEvent
}
