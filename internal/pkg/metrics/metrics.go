package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qualifyr_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qualifyr_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	LeadsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qualifyr_leads_created_total",
		Help: "Leads admitted past quota accounting.",
	})

	LeadsQualifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qualifyr_leads_qualified_total",
		Help: "Scoring outcomes by qualification stage.",
	}, []string{"stage"})

	WebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qualifyr_webhook_deliveries_total",
		Help: "Webhook delivery attempts by terminal result.",
	}, []string{"result"})

	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qualifyr_emails_sent_total",
		Help: "Outbound emails by template and result.",
	}, []string{"template", "result"})
)
