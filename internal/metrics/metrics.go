package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dvc_uploads",
		Name:      "uploads_total",
		Help:      "Uploads attempted, by source kind and outcome.",
	}, []string{"kind", "outcome"})
	BytesUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dvc_uploads",
		Name:      "bytes_total",
		Help:      "Total bytes written into the repository working tree.",
	})
	CloseFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dvc_uploads",
		Name:      "close_failures_total",
		Help:      "Source resources that failed to release.",
	})
)

// Outcome labels for Uploads.
const (
	OutcomeOK         = "ok"
	OutcomeOpenFailed = "open_failed"
	OutcomeFailed     = "failed"
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(Uploads, BytesUploaded, CloseFailures)
}

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Non-blocking when run in goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

// AddrFromEnv returns listen address from METRICS_ADDR or default ":9090".
func AddrFromEnv() string {
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		return v
	}
	return ":9090"
}
