package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/toricodesthings/officetools/internal/app"
	"github.com/toricodesthings/officetools/internal/config"
	"github.com/toricodesthings/officetools/internal/extract"
	"github.com/toricodesthings/officetools/internal/report"
	"github.com/toricodesthings/officetools/internal/session"
)

type server struct {
	cfg    config.Config
	logger *slog.Logger

	requestSem *semaphore.Weighted
	counter    *extract.Counter
	summarizer report.Summarizer
	sessions   *session.Store

	// Per-IP rate limiters
	limitersMu sync.Mutex
	limiters   *sync.Map

	active   atomic.Int64
	registry *prometheus.Registry
	metrics  *serverMetrics
}

func newServer(cfg config.Config, logger *slog.Logger) *server {
	s := &server{
		cfg:        cfg,
		logger:     logger,
		requestSem: semaphore.NewWeighted(cfg.MaxConcurrentRequests),
		counter:    app.Counter(cfg, logger),
		summarizer: app.Summarizer(cfg),
		sessions:   session.NewStore(),
		limiters:   &sync.Map{},
		registry:   prometheus.NewRegistry(),
	}
	s.metrics = newServerMetrics(s.registry)
	s.counter.SetResultHook(s.metrics.observeCount)
	return s
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withLogging, s.withRecovery)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.withRateLimit, s.withConcurrencyLimit)

		r.Post("/column", s.page("column", s.handleColumn))
		r.Post("/sheets/split", s.page("split", s.handleSplit))
		r.Post("/wordcount", s.page("wordcount", s.handleWordCount))
		r.Get("/wordcount/inline", s.page("inline", s.handleInlineGet))
		r.Post("/wordcount/inline", s.page("inline", s.handleInlinePost))
		r.Post("/report", s.page("report", s.handleReport))
		r.Post("/report/preview", s.page("report_preview", s.handleReportPreview))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	s := newServer(cfg, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.housekeeping(ctx)

	logger.Info("officetools listening",
		slog.String("addr", srv.Addr),
		slog.Int64("maxConcurrent", cfg.MaxConcurrentRequests),
		slog.String("pdfBackend", cfg.PDFBackend))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// housekeeping resets rate limiters and drops idle inline-counter sessions.
func (s *server) housekeeping(ctx context.Context) {
	interval := s.cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		swept := s.sessions.Sweep(s.cfg.SessionIdleTimeout)
		s.logger.Info("stats",
			slog.Int("sessions", s.sessions.Len()),
			slog.Int("sessionsSwept", swept),
			slog.Int("goroutines", runtime.NumGoroutine()),
			slog.Uint64("memMB", m.Alloc/(1<<20)))

		s.resetLimiters()
	}
}
