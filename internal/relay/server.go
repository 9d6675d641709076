package relay

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/logging"
	m "github.com/ZahirOuma/Excellia-FrontEnd/internal/metrics"
)

// Server wraps the relay with routing and lifecycle management
type Server struct {
	relay    *Relay
	server   *http.Server
	registry *prometheus.Registry

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new relay server
func NewServer(cfg *Config) (*Server, error) {
	relay, err := New(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{relay: relay}
	if cfg.EnableMetrics {
		s.registry = m.NewRegistry()
		s.registry.MustRegister(relay.Metrics()...)
	}

	s.server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	cfg := s.relay.config
	prefix := strings.TrimRight(cfg.Prefix, "/")

	router := mux.NewRouter().SkipClean(true).UseEncodedPath()
	router.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	if s.registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	router.PathPrefix(prefix + "/").Handler(s.relay)

	var h http.Handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logging.PanicLogger{L: cfg.Logger}),
		handlers.PrintRecoveryStack(false),
	)(router)

	if len(cfg.AllowedOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Accept", "Accept-Language", "Authorization", "Content-Type", HeaderRequestID},
			ExposedHeaders: []string{HeaderRequestID},
		}).Handler(h)
	}
	return h
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeBody(w, http.StatusOK, []byte(`{"status":"ok"}`))
}

// Handler returns the routed handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Relay returns the underlying relay.
func (s *Server) Relay() *Relay {
	return s.relay
}

// Listen binds the listen address without serving. It returns the bound
// address, which differs from the configured one when the port is 0.
func (s *Server) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr(), nil
	}
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Start serves until the server is shut down. It returns nil after a
// clean shutdown.
func (s *Server) Start() error {
	addr, err := s.Listen()
	if err != nil {
		return err
	}
	s.relay.config.Logger.Info("starting relay server",
		"addr", addr.String(),
		"upstream", s.relay.target.String(),
		"prefix", s.relay.config.Prefix,
		"error_mode", string(s.relay.config.ErrorMode))

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, waits for in-flight requests and
// releases the relay's resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if cerr := s.relay.Close(); err == nil {
		err = cerr
	}
	return err
}

// Run serves until ctx is cancelled, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.Start)
	g.Go(func() error {
		<-gctx.Done()
		s.relay.config.Logger.Info("stopping relay server")
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.Shutdown(sctx)
	})
	return g.Wait()
}
