// Package scraper collects raw ticket listings from marketplace web pages
// for the out-of-process scrape collaborator.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/storage"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

// Target is one site that can be searched for an artist.
type Target interface {
	Name() string
	Search(ctx context.Context, query string) ([]*models.RawListing, error)
}

// TargetResult is the outcome of one target within a run.
type TargetResult struct {
	Target   string
	Listings []*models.RawListing
	Err      error
}

// Runner searches every target concurrently, retrying failed targets and
// archiving whatever they return.
type Runner struct {
	targets    []Target
	maxWorkers int
	rateLimit  time.Duration
	timeout    time.Duration
	retry      *utils.RetryConfig
	archive    storage.RawListingWriter
	logger     *utils.Logger
}

// NewRunner builds a Runner. retry and archive may be nil.
func NewRunner(targets []Target, maxWorkers int, rateLimit, timeout time.Duration,
	retry *utils.RetryConfig, archive storage.RawListingWriter, logger *utils.Logger) *Runner {
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1, Logger: logger}
	}
	return &Runner{
		targets:    targets,
		maxWorkers: maxWorkers,
		rateLimit:  rateLimit,
		timeout:    timeout,
		retry:      retry,
		archive:    archive,
		logger:     logger,
	}
}

// Run returns one result per target, in target order.
func (r *Runner) Run(ctx context.Context, query string) []TargetResult {
	results := make([]TargetResult, len(r.targets))
	pool := utils.NewWorkerPool(r.maxWorkers, r.rateLimit)

	for i, t := range r.targets {
		i, t := i, t
		pool.Submit(func() {
			results[i] = r.runTarget(ctx, t, query)
		})
	}
	pool.Wait()
	return results
}

func (r *Runner) runTarget(ctx context.Context, t Target, query string) (res TargetResult) {
	name := t.Name()
	res.Target = name
	defer func() {
		if p := recover(); p != nil {
			res.Listings, res.Err = nil, fmt.Errorf("%s: panic: %v", name, p)
			r.logger.Error("[%s] Target panicked: %v", strings.ToLower(name), p)
		}
	}()

	r.logger.Info("[%s] Searching for: %s", strings.ToLower(name), query)
	start := time.Now()

	err := r.retry.Do(ctx, "scrape-"+strings.ToLower(name), func(ctx context.Context) error {
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		listings, err := t.Search(ctx, query)
		if err != nil {
			return err
		}
		res.Listings = listings
		return nil
	})
	if err != nil {
		res.Err = err
		r.logger.Error("[%s] Failed after %v: %v", strings.ToLower(name), time.Since(start).Round(time.Millisecond), err)
		return res
	}

	now := time.Now()
	for _, l := range res.Listings {
		if l == nil {
			continue
		}
		if l.Platform == "" {
			l.Platform = name
		}
		if l.ScrapedAt.IsZero() {
			l.ScrapedAt = now
		}
	}

	r.logger.Info("[%s] Found %d raw results in %v", strings.ToLower(name), len(res.Listings), time.Since(start).Round(time.Millisecond))

	if r.archive != nil && len(res.Listings) > 0 {
		if err := r.archive.WriteRaw(res.Listings); err != nil {
			r.logger.Warn("[%s] CSV archive failed: %v", strings.ToLower(name), err)
		}
	}
	return res
}
