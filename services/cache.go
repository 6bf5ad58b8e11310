package services

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

// SearchCache memoizes aggregated responses per (artist, city) for a short TTL.
// A nil *SearchCache is a valid, always-missing cache.
type SearchCache struct {
	lru *expirable.LRU[string, *models.SearchResponse]
}

// NewSearchCache returns nil when size is not positive.
func NewSearchCache(size int, ttl time.Duration) *SearchCache {
	if size <= 0 {
		return nil
	}
	return &SearchCache{lru: expirable.NewLRU[string, *models.SearchResponse](size, nil, ttl)}
}

func cacheKey(artist, city string) string {
	return strings.ToLower(strings.TrimSpace(artist)) + "\x00" + strings.ToLower(strings.TrimSpace(city))
}

// Get returns a clone, flagged FromCache, so callers may retag it freely.
func (c *SearchCache) Get(artist, city string) (*models.SearchResponse, bool) {
	if c == nil {
		return nil, false
	}
	resp, ok := c.lru.Get(cacheKey(artist, city))
	if !ok {
		return nil, false
	}
	hit := resp.Clone()
	hit.FromCache = true
	return hit, true
}

// Add stores a clone of resp.
func (c *SearchCache) Add(artist, city string, resp *models.SearchResponse) {
	if c == nil || resp == nil {
		return
	}
	c.lru.Add(cacheKey(artist, city), resp.Clone())
}

// Len reports the number of live entries.
func (c *SearchCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
