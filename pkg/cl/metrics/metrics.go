// Package metrics holds the Prometheus instruments shared by the publishing
// and generation features. Collectors register with the global registry, so
// mounting promhttp.Handler() on /metrics is enough to expose them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SitesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sites_published_total",
			Help: "Cumulative number of successful publishes, by store backend.",
		}, []string{"backend"})

	PublishErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sites_publish_errors_total",
			Help: "Cumulative number of rejected or failed publishes, by reason.",
		}, []string{"reason"})

	SitesServedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sites_served_total",
			Help: "Cumulative number of published documents served.",
		})

	SiteNotFoundTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sites_not_found_total",
			Help: "Cumulative number of requests for unknown slugs.",
		})

	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Cumulative number of draft generations, by outcome.",
		}, []string{"outcome"})
)

// Publish error reasons.
const (
	ReasonValidation = "validation"
	ReasonStorage    = "storage"
)

// Generation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeStub     = "stub"
)

func init() {
	prometheus.MustRegister(
		SitesPublishedTotal,
		PublishErrorsTotal,
		SitesServedTotal,
		SiteNotFoundTotal,
		GenerationsTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
