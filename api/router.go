// Package api exposes the aggregator, stored results, the scrape trigger
// and tracked items over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

// NewRouter wires the handlers under /api and the metrics endpoint. A nil
// registry leaves /metrics unmounted.
func NewRouter(h *Handler, registry *prometheus.Registry, logger *utils.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(logger), CORS())

	r.GET("/", h.Health)
	if registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/search/tickets", h.SearchTickets)
		api.GET("/results/tickets", h.TicketResults)
		api.POST("/scrape/start", h.StartScrape)
		api.GET("/tracked", h.ListTracked)
		api.POST("/tracked", h.AddTracked)
		api.DELETE("/tracked/:id", h.DeleteTracked)
	}

	return r
}
