package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decodes counts successfully decoded captures per device.
var Decodes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rtl433_decodes_total",
	Help: "Captures decoded successfully, by device.",
}, []string{"device"})

// Rejects counts rejected captures per device and reason.
var Rejects = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rtl433_rejects_total",
	Help: "Captures rejected, by device and reason.",
}, []string{"device", "reason"})

// PublishErrors counts failed event deliveries per sink.
var PublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rtl433_publish_errors_total",
	Help: "Event deliveries that failed, by sink.",
}, []string{"sink"})

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}
