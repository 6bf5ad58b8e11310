// Package providers adapts third-party ticket APIs to the canonical Listing
// shape. Every adapter satisfies services.Provider.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

// maxBodyBytes bounds provider responses.
const maxBodyBytes = 8 << 20

// getJSON issues a GET and decodes the JSON body into out. Numbers decode
// as json.Number so price fields keep their original representation.
func getJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, out any) error {
	u := endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return classifyStatus(resp.StatusCode)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		if ctx.Err() != nil {
			return classifyTransportError(ctx.Err())
		}
		return ErrDecode{Err: err}
	}
	return nil
}

// formatVenue renders "{venue}, {city}, {state}" when a city is known,
// otherwise the bare venue name.
func formatVenue(name, city, state string) *string {
	if city != "" {
		return models.StringPtr(fmt.Sprintf("%s, %s, %s", name, city, state))
	}
	return models.StringPtr(name)
}

func newHTTPClient(client *http.Client, timeout time.Duration) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: timeout}
}

func trimBase(base string) string {
	return strings.TrimRight(base, "/")
}

// observe wraps a provider call with metrics.
func observe(m *Metrics, key string, fn func() ([]models.Listing, error)) ([]models.Listing, error) {
	start := time.Now()
	listings, err := fn()
	if err != nil {
		m.ObserveError(key, time.Since(start), err)
		return nil, err
	}
	m.ObserveSuccess(key, time.Since(start), len(listings))
	return listings, nil
}
