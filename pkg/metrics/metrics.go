package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	FetchesTotal    *prometheus.CounterVec
	ArticlesCrawled *prometheus.CounterVec
	CrawlFailures   *prometheus.CounterVec
	BatchDuration   *prometheus.HistogramVec
}

// New registers the application metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the application metrics on the given registerer.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "news_fetches_total",
			Help: "Total number of outbound page fetches.",
		}, []string{"kind", "outcome"}), // kind: listing, detail
		ArticlesCrawled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "news_articles_crawled_total",
			Help: "Total number of articles successfully extracted.",
		}, []string{"category"}),
		CrawlFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "news_crawl_failures_total",
			Help: "Total number of per-item crawl failures.",
		}, []string{"category", "reason"}), // reason: fetch, extract
		BatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "news_crawl_batch_duration_seconds",
			Help:    "Duration of per-category crawl batches.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"category", "outcome"}),
	}
}
