package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hotelbey/bey/backend"
	"github.com/hotelbey/bey/engine"
	"github.com/hotelbey/bey/http/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func New(customizers ...func(*Options)) (*Server, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// server-wide context for incoming requests
	httpServerCtx, httpServerCancel := context.WithCancel(context.Background())

	httpServer := http.Server{
		Addr: options.BindAddress,
		BaseContext: func(_ net.Listener) context.Context {
			return httpServerCtx
		},
		Handler:      http.TimeoutHandler(mux, options.HandlerTimeout, "handler timed out"),
		IdleTimeout:  options.IdleTimeout,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
	}

	if options.Configure != nil {
		options.Configure(&httpServer)
	}

	server := Server{
		engine:           options.Engine,
		services:         options.Services,
		httpServer:       &httpServer,
		httpServerCtx:    httpServerCtx,
		httpServerCancel: httpServerCancel,
		logger:           options.Logger,
		mux:              mux,
		options:          options,
	}

	if options.Registerer != nil {
		server.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bey_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"})

		if err := options.Registerer.Register(server.requests); err != nil {
			httpServerCancel()
			return nil, err
		}
	}

	if options.Engine != nil {
		server.handleEngine(strings.TrimSuffix(options.EngineBasePath, "/"))
	}
	if options.Services != nil {
		server.handleServices(strings.TrimSuffix(options.ApiBasePath, "/"))
	}

	if options.Gatherer != nil {
		mux.Handle("GET "+common.PathMetrics, promhttp.HandlerFor(options.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET "+common.PathReadiness, func(w http.ResponseWriter, r *http.Request) {
		if server.isShuttingDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusNoContent)
		}
	})

	return &server, nil
}

func NewOptions() Options {
	return Options{
		BindAddress: "127.0.0.1:8080",

		HandlerTimeout: 60 * time.Second,
		IdleTimeout:    60 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   65 * time.Second,

		ShutdownDelay:       5 * time.Second,
		ShutdownPeriod:      30 * time.Second,
		ShutdownForcePeriod: 5 * time.Second,

		EngineBasePath: "/engine-rest",
		ApiBasePath:    "/api",

		Logger: zerolog.Nop(),
	}
}

type Options struct {
	BindAddress string // TCP address for the server to listen on.

	HandlerTimeout time.Duration // Time limit for HTTP handler - when reached, the handler responds with HTTP 503. Must exceed the maximum async response timeout of long polling clients.
	IdleTimeout    time.Duration // Maximum amount of time to wait for the next request, when keep-alives are enabled - see http.Server#IdleTimeout
	ReadTimeout    time.Duration // Maximum duration for reading the entire request - see http.Server#ReadTimeout
	WriteTimeout   time.Duration // Maximum duration before timing out writing the response - see http.Server#WriteTimeout

	ShutdownDelay       time.Duration // Delay between the shutdown signal and the actual shutdown, used to propagate readiness.
	ShutdownPeriod      time.Duration // Period for a graceful shutdown without interrupting ongoing requests.
	ShutdownForcePeriod time.Duration // Period for a forced shutdown, where ongoing requests are canceled.

	Engine         engine.Engine     // Engine, served via the Camunda external task REST API. Optional, if Services or Gatherer is set.
	EngineBasePath string            // Base path of the engine API.
	Services       *backend.Services // Backend services, served via the backend REST API. Optional, if Engine is set.
	ApiBasePath    string            // Base path of the backend API.

	Gatherer   prometheus.Gatherer   // Optional gatherer, exposed under /metrics.
	Registerer prometheus.Registerer // Optional registerer for HTTP request metrics.

	Logger zerolog.Logger

	Configure func(*http.Server) // Optional function, used to configure the underlying HTTP server if needed.
}

func (o Options) Validate() error {
	if o.Engine == nil && o.Services == nil && o.Gatherer == nil {
		return errors.New("engine, services or gatherer must be provided")
	}
	if o.HandlerTimeout <= 0 {
		return errors.New("handler timeout must be greater than 0")
	}
	return nil
}

type Server struct {
	engine           engine.Engine
	services         *backend.Services
	httpServer       *http.Server
	httpServerCtx    context.Context    // server-wide base context for incoming requests
	httpServerCancel context.CancelFunc // invoked after server shutdown to cancel to ongoing requests
	isShuttingDown   atomic.Bool
	logger           zerolog.Logger
	mux              *http.ServeMux
	options          Options
	requests         *prometheus.CounterVec
}

// Handler returns the root handler of the server, without handler timeout.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe() {
	go func() {
		s.logger.Info().Str("bind_address", s.httpServer.Addr).Msg("server listening")
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("failed to listen and serve HTTP")
		}
	}()
}

// Shutdown shuts the HTTP server down gracefully.
// The engine and the services are not shut down, since they are owned by the caller.
func (s *Server) Shutdown() {
	s.isShuttingDown.Store(true)
	s.logger.Info().Msg("server is shutting down")

	time.Sleep(s.options.ShutdownDelay)
	s.logger.Info().Msg("server is shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.options.ShutdownPeriod)
	defer shutdownCancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.httpServerCancel()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to shutdown HTTP server")
		time.Sleep(s.options.ShutdownForcePeriod)
	}

	s.logger.Info().Msg("server shut down")
}

// handle registers a handler for a pattern like "GET /api/rooms/{id}", counting requests if metrics are enabled.
func (s *Server) handle(pattern string, handler http.HandlerFunc) {
	if s.requests == nil {
		s.mux.Handle(pattern, handler)
		return
	}

	route := pattern
	if i := strings.IndexByte(pattern, ' '); i != -1 {
		route = pattern[i+1:]
	}

	counter := s.requests.MustCurryWith(prometheus.Labels{"route": route})
	s.mux.Handle(pattern, promhttp.InstrumentHandlerCounter(counter, handler))
}
