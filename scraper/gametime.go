package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

const gametimeCardSelector = `[data-testid="event-card"], div.event-card`

// Gametime scrapes the server-rendered Gametime search page. It needs no
// browser.
type Gametime struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
}

// NewGametime builds the target. A nil transport uses colly's default.
func NewGametime(baseURL string, timeout time.Duration, transport http.RoundTripper) *Gametime {
	return &Gametime{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		timeout:   timeout,
		transport: transport,
	}
}

func (g *Gametime) Name() string { return "Gametime" }

func (g *Gametime) searchURL(query string) string {
	return g.baseURL + "/search?" + url.Values{"q": {query}}.Encode()
}

func (g *Gametime) Search(ctx context.Context, query string) ([]*models.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := colly.NewCollector(colly.UserAgent(g.userAgent))
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(g.requestTimeout(ctx))
	if g.transport != nil {
		collector.WithTransport(g.transport)
	}

	var (
		listings []*models.RawListing
		status   int
	)
	collector.OnHTML(gametimeCardSelector, func(e *colly.HTMLElement) {
		if l := extractGametimeCard(e); l != nil {
			listings = append(listings, l)
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	target := g.searchURL(query)
	if err := collector.Visit(target); err != nil {
		if status != 0 {
			return nil, fmt.Errorf("gametime: GET %s: status %d: %w", target, status, err)
		}
		return nil, fmt.Errorf("gametime: GET %s: %w", target, err)
	}
	return listings, nil
}

// requestTimeout caps the collector timeout at the time left on ctx.
func (g *Gametime) requestTimeout(ctx context.Context) time.Duration {
	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return timeout
}

func extractGametimeCard(e *colly.HTMLElement) *models.RawListing {
	href := e.Attr("href")
	if href == "" {
		href = e.ChildAttr("a", "href")
	}
	if href == "" {
		return nil
	}

	title := strings.TrimSpace(e.ChildText(".event-title"))
	if title == "" {
		title = strings.TrimSpace(e.ChildAttr("a", "title"))
	}

	image := e.ChildAttr("img", "src")
	if image != "" {
		image = e.Request.AbsoluteURL(image)
	}

	date := e.ChildAttr("time", "datetime")
	if date == "" {
		date = e.ChildText("time")
	}

	return &models.RawListing{
		Title:     title,
		RawPrice:  strings.TrimSpace(e.ChildText(".event-price")),
		Venue:     strings.TrimSpace(e.ChildText(".event-venue")),
		EventDate: strings.TrimSpace(date),
		URL:       e.Request.AbsoluteURL(href),
		Image:     image,
		Platform:  "Gametime",
	}
}
