package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	once sync.Once

	libcalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacemetrics",
			Name:      "libcal_requests_total",
			Help:      "Count of LibCal API requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	libcalRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spacemetrics",
			Name:      "libcal_request_duration_seconds",
			Help:      "LibCal API request duration.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	spacesAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacemetrics",
			Name:      "spaces_analyzed_total",
			Help:      "Count of spaces analyzed by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(libcalRequests, libcalRequestDuration, spacesAnalyzed)
	})
}

func IncRequest(endpoint, status string) {
	libcalRequests.WithLabelValues(endpoint, status).Inc()
}

func ObserveRequest(endpoint string, d time.Duration) {
	libcalRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func IncSpaceResult(result string) {
	spacesAnalyzed.WithLabelValues(result).Inc()
}

// Serve exposes /metrics and /healthz for the lifetime of ctx. Intended for
// runs long enough that a scraper can observe them.
func Serve(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
