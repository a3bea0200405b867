package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "formnotif_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "formnotif_submissions_total", Help: "Accepted submission events"},
		[]string{"mode"},
	)
	Enqueues = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "formnotif_enqueue_total", Help: "SQS enqueue results"},
		[]string{"result"},
	)
	DispatchSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "formnotif_dispatch_skipped_total", Help: "Dispatches or customer copies skipped"},
		[]string{"reason"},
	)
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "formnotif_deliveries_total", Help: "Per-recipient send outcomes"},
		[]string{"audience", "result"},
	)
	ProviderSend = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "starsender_send_total", Help: "Starsender send outcomes"},
		[]string{"result", "http_status"},
	)
	ProviderLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "starsender_send_latency_seconds", Help: "Starsender send latency"},
	)
	ConnectionTests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "starsender_connection_tests_total", Help: "Connection test outcomes"},
		[]string{"result"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "formnotif_webhook_events_total", Help: "Inbound submission webhooks"},
		[]string{"status"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, Submissions, Enqueues, DispatchSkipped, Deliveries,
		ProviderSend, ProviderLatency, ConnectionTests, WebhookEvents)
}
