package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amazonscraper_search_requests_total",
			Help: "Search pages processed, by marketplace and outcome",
		},
		[]string{"marketplace", "outcome", "block_source"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amazonscraper_fetch_duration_seconds",
			Help:    "Duration of search page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"marketplace"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amazonscraper_fetch_bytes_total",
			Help: "Total bytes downloaded across all search pages",
		},
		[]string{"marketplace"},
	)

	LinksAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amazonscraper_links_appended_total",
			Help: "Product links appended to the output",
		},
		[]string{"marketplace"},
	)
)

// Observation is what the harvest loop reports for one search page.
type Observation struct {
	Marketplace string
	Outcome     string
	BlockSource string
	Duration    time.Duration
	Bytes       int
	Links       int
}

// Record updates every collector from one observation. A zero Duration means
// no request was sent and leaves the histogram untouched.
func Record(o Observation) {
	SearchRequestsTotal.WithLabelValues(o.Marketplace, o.Outcome, o.BlockSource).Inc()
	if o.Duration > 0 {
		FetchDuration.WithLabelValues(o.Marketplace).Observe(o.Duration.Seconds())
	}
	if o.Bytes > 0 {
		FetchBytesTotal.WithLabelValues(o.Marketplace).Add(float64(o.Bytes))
	}
	if o.Links > 0 {
		LinksAppendedTotal.WithLabelValues(o.Marketplace).Add(float64(o.Links))
	}
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr (":9090", "127.0.0.1:0", ...) without serving yet, so
// bind errors surface before the run starts.
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve blocks serving /metrics until Stop is called.
func (s *Server) Serve() error {
	slog.Debug("metrics server listening", "addr", s.Addr())
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
