// Package server serves the rendered maps over HTTP, along with the joined
// lookup, run metadata, health checks and Prometheus metrics.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/fips"
	"github.com/sells-group/choropleth/internal/monitoring"
	"github.com/sells-group/choropleth/internal/pipeline"
)

// Runner produces a pipeline result. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Options configures a Server.
type Options struct {
	Title          string
	AllowedOrigins []string
	Table          *fips.Table
	Metrics        *monitoring.Metrics
	Clock          clockwork.Clock
	MetricsHandler http.Handler // defaults to promhttp.Handler()
}

// Server holds the latest pipeline result and serves it.
type Server struct {
	runner Runner
	opts   Options
	router chi.Router

	current   atomic.Pointer[pipeline.Result]
	refreshMu sync.Mutex
}

// New creates a Server. It serves 503s until the first successful Refresh.
func New(runner Runner, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Table == nil {
		opts.Table = fips.MassachusettsCounties()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}

	s := &Server{runner: runner, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.opts.MetricsHandler)

	r.Get("/", s.handlePage)
	r.Get("/maps/{fig}.svg", s.handleSVG)

	r.Route("/api", func(r chi.Router) {
		r.Get("/lookup", s.handleLookup)
		r.Get("/lookup/{code}", s.handleLookupCode)
		r.Get("/run", s.handleRun)
		r.Post("/refresh", s.handleRefresh)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Current returns the latest result, or nil before the first refresh.
func (s *Server) Current() *pipeline.Result {
	return s.current.Load()
}

// Refresh reruns the pipeline and swaps in the new result. Concurrent
// calls are serialized. On failure the previous result stays in place.
func (s *Server) Refresh(ctx context.Context) (*pipeline.Result, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	res, err := s.runner.Run(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "server: refresh")
	}
	s.current.Store(res)
	return res, nil
}

// RefreshEvery reruns the pipeline every interval until ctx is cancelled.
// Failures are logged and the previous result is kept.
func (s *Server) RefreshEvery(ctx context.Context, interval time.Duration) {
	log := zap.L().With(zap.String("component", "server.refresh"))
	log.Info("starting source refresh", zap.Duration("interval", interval))

	ticker := s.opts.Clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("source refresh stopped")
			return
		case <-ticker.Chan():
			res, err := s.Refresh(ctx)
			if err != nil {
				log.Error("server: refresh failed; keeping previous maps", zap.Error(err))
				continue
			}
			log.Info("server: maps refreshed", zap.String("run_id", res.RunID.String()))
		}
	}
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("component", "server"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
