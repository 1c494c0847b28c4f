package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/kilianp07/lineloss/core/logger"
)

// Serve runs an HTTP server for handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("dashboard shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("dashboard listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
