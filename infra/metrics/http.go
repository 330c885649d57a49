package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/takaflow/dispatch/core/logger"
)

// StartPromServer exposes the Prometheus scrape endpoint on addr until ctx is
// canceled, then shuts the server down with a short grace period.
func StartPromServer(ctx context.Context, addr string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("prom server shutdown: %v", err)
		}
	}()

	log.Infof("prometheus endpoint listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
