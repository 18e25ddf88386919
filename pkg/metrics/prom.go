package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// SubmittedTickets counts accepted submissions by category.
	SubmittedTickets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpyhub_submitted_tickets_total",
			Help: "Total number of accepted ticket submissions",
		},
		[]string{"category"},
	)

	// RejectedTickets counts policy and validation rejections.
	RejectedTickets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpyhub_rejected_tickets_total",
			Help: "Total number of rejected ticket attempts",
		},
		[]string{"reason"}, // reason: blocked, open_ticket, expired, too_long, profanity
	)

	// RelayedReplies counts admin replies delivered back to users.
	RelayedReplies = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "helpyhub_relayed_replies_total",
			Help: "Total number of admin replies relayed to users",
		},
	)

	// SinkErrors counts best-effort collaborator failures.
	SinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpyhub_sink_errors_total",
			Help: "Total number of relay/log sink failures",
		},
		[]string{"sink"}, // sink: relay, log
	)

	// StoreErrors counts key-value store failures by operation.
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpyhub_store_errors_total",
			Help: "Total number of key-value store errors",
		},
		[]string{"operation"},
	)

	// OpenTickets gauges submissions still awaiting an admin reply.
	OpenTickets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "helpyhub_open_tickets",
			Help: "Number of tickets currently awaiting a reply",
		},
	)
)

func init() {
	prometheus.MustRegister(SubmittedTickets)
	prometheus.MustRegister(RejectedTickets)
	prometheus.MustRegister(RelayedReplies)
	prometheus.MustRegister(SinkErrors)
	prometheus.MustRegister(StoreErrors)
	prometheus.MustRegister(OpenTickets)
}

// MustServe exposes Prometheus metrics on the given address (e.g., ":8080").
// It launches http.Server in a separate goroutine and fatal-logs on startup
// failure. Returns the server so the caller can gracefully shutdown.
func MustServe(addr string, log *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Infow("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("metrics server failed", "err", err)
		}
	}()

	return srv
}

// Helper functions for updating metrics

func IncSubmittedTicket(category string) {
	SubmittedTickets.WithLabelValues(category).Inc()
}

func IncRejectedTicket(reason string) {
	RejectedTickets.WithLabelValues(reason).Inc()
}

func IncRelayedReply() {
	RelayedReplies.Inc()
}

func IncSinkError(sink string) {
	SinkErrors.WithLabelValues(sink).Inc()
}

func IncStoreError(operation string) {
	StoreErrors.WithLabelValues(operation).Inc()
}

func SetOpenTickets(n int) {
	OpenTickets.Set(float64(n))
}
