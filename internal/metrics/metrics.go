// Package metrics exposes Prometheus metrics for the input engine.
//
// Features:
//   - Counters for key releases, commits, degradations and sessions
//   - Histogram of key hold durations
//   - Optional HTTP endpoint for scraping
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "keying"

// Registry is a Prometheus registry preloaded with the Go runtime and
// process collectors.
type Registry struct {
	*prometheus.Registry
}

// NewRegistry creates an empty Registry. withRuntime adds the Go and
// process collectors.
func NewRegistry(withRuntime bool) *Registry {
	r := prometheus.NewRegistry()
	if withRuntime {
		r.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return &Registry{Registry: r}
}

// HTTPHandler returns an HTTP handler serving the registry in the
// Prometheus exposition format.
func (r *Registry) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{
		Registry:          r.Registry,
		EnableOpenMetrics: true,
	})
}

// Server serves a Registry over HTTP on /metrics.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Route is an extra handler served next to /metrics.
type Route struct {
	Pattern string
	Handler http.Handler
}

// Listen binds addr and starts serving /metrics and routes in the
// background.
func (r *Registry) Listen(addr string, routes ...Route) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.HTTPHandler())
	for _, rt := range routes {
		mux.Handle(rt.Pattern, rt.Handler)
	}
	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = ln.Close()
		}
	}()
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
