package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
)

// cardSelectors locate the pieces of one event card on a search page.
type cardSelectors struct {
	Card  string
	Title string
	Price string
	Venue string
	Date  string
}

// pageCard is what the in-page extractor returns for each card.
type pageCard struct {
	Title string `json:"title"`
	Price string `json:"price"`
	Venue string `json:"venue"`
	Date  string `json:"date"`
	URL   string `json:"url"`
	Image string `json:"image"`
}

// PageTarget renders a marketplace search page in Chrome and reads its
// event cards.
type PageTarget struct {
	name      string
	searchURL string
	param     string
	selectors cardSelectors
	browser   *Browser
	settle    time.Duration
}

// NewTicketmasterPage searches ticketmaster.com.
func NewTicketmasterPage(b *Browser) *PageTarget {
	return &PageTarget{
		name:      "Ticketmaster",
		searchURL: "https://www.ticketmaster.com/search",
		param:     "q",
		browser:   b,
		settle:    4 * time.Second,
		selectors: cardSelectors{
			Card:  `[data-testid="event-list-link"], li[class*="event-listing"]`,
			Title: `[data-testid="event-name"], h3, span[class*="name"]`,
			Price: `[data-testid="price"], span[class*="price"]`,
			Venue: `[data-testid="venue"], span[class*="venue"]`,
			Date:  `[data-testid="event-date"], time, span[class*="date"]`,
		},
	}
}

// NewSeatGeekPage searches seatgeek.com.
func NewSeatGeekPage(b *Browser) *PageTarget {
	return &PageTarget{
		name:      "SeatGeek",
		searchURL: "https://seatgeek.com/search",
		param:     "search",
		browser:   b,
		settle:    4 * time.Second,
		selectors: cardSelectors{
			Card:  `a[href*="/tickets/"], [data-testid="event-item"]`,
			Title: `[data-testid="event-title"], p[class*="title"], h3`,
			Price: `[data-testid="lowest-price"], span[class*="price"]`,
			Venue: `[data-testid="venue-name"], p[class*="venue"]`,
			Date:  `[data-testid="event-date"], time`,
		},
	}
}

func (p *PageTarget) Name() string { return p.name }

func (p *PageTarget) pageURL(query string) string {
	return p.searchURL + "?" + url.Values{p.param: {query}}.Encode()
}

// Search opens the search page in a fresh tab, scrolls once so lazy cards
// render, then pulls the cards out with a script.
func (p *PageTarget) Search(ctx context.Context, query string) ([]*models.RawListing, error) {
	tabCtx, cancel := p.browser.NewTab(ctx)
	defer cancel()

	var cards []pageCard
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(p.pageURL(query)),
		chromedp.Sleep(p.settle),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(time.Second),
		chromedp.Evaluate(extractorScript(p.selectors), &cards),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: load %s: %w", strings.ToLower(p.name), p.pageURL(query), err)
	}

	return cardsToRaw(p.name, cards), nil
}

// extractorScript builds an IIFE returning an array of pageCard objects.
func extractorScript(sel cardSelectors) string {
	return fmt.Sprintf(`
	(() => {
		const text = (root, sel) => {
			const el = root.querySelector(sel);
			return el ? el.textContent.trim() : '';
		};
		const results = [];
		const seen = new Set();
		document.querySelectorAll(%q).forEach(card => {
			const link = card.tagName === 'A' ? card : card.querySelector('a[href]');
			const url = link ? link.href : '';
			if (!url || seen.has(url)) return;
			seen.add(url);
			const img = card.querySelector('img');
			results.push({
				title: text(card, %q) || (link ? link.textContent.trim() : ''),
				price: text(card, %q),
				venue: text(card, %q),
				date:  text(card, %q),
				url:   url,
				image: img ? (img.currentSrc || img.src || '') : '',
			});
		});
		return results;
	})()
	`, sel.Card, sel.Title, sel.Price, sel.Venue, sel.Date)
}

func cardsToRaw(platform string, cards []pageCard) []*models.RawListing {
	out := make([]*models.RawListing, 0, len(cards))
	for _, c := range cards {
		if strings.TrimSpace(c.URL) == "" {
			continue
		}
		out = append(out, &models.RawListing{
			Title:     strings.TrimSpace(c.Title),
			RawPrice:  strings.TrimSpace(c.Price),
			Venue:     strings.TrimSpace(c.Venue),
			EventDate: strings.TrimSpace(c.Date),
			URL:       strings.TrimSpace(c.URL),
			Image:     strings.TrimSpace(c.Image),
			Platform:  platform,
		})
	}
	return out
}
