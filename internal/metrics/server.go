package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"deployer/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// Server exposes a Collector over HTTP on /metrics.
type Server struct {
	addr      string
	collector *Collector
}

func NewServer(addr string, collector *Collector) *Server {
	return &Server{addr: addr, collector: collector}
}

// Serve listens until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.collector.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Metrics", "Serving metrics on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error("Metrics", err, "Failed to shut down metrics server")
			return err
		}
		return nil
	}
}
