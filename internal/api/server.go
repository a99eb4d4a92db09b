package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/username/holiday-api/internal/calendar"
	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/internal/resolver"
)

// Answerer answers free-text holiday questions
type Answerer interface {
	Answer(ctx context.Context, message, country, language string) (string, error)
}

// Reloader refreshes the dataset on demand
type Reloader interface {
	ForceReload(ctx context.Context) (holiday.SnapshotInfo, error)
	GetStatus() map[string]interface{}
}

// Options configures the HTTP layer
type Options struct {
	Listen            string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	RequestTimeout    time.Duration
	AllowedOrigins    []string
	AdminUser         string
	AdminPasswordHash string
	DefaultLanguage   string
}

// Server serves the holiday REST API
type Server struct {
	resolver   *resolver.Resolver
	calendar   calendar.Calendar
	chat       Answerer
	reloader   Reloader
	opts       Options
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates a new Server. chat and reloader may be nil.
func NewServer(res *resolver.Resolver, cal calendar.Calendar, chat Answerer, reloader Reloader, opts Options, logger *zap.Logger) *Server {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	return &Server{
		resolver: res,
		calendar: cal,
		chat:     chat,
		reloader: reloader,
		opts:     opts,
		logger:   logger,
	}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/countries", s.handleCountries)

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/range", s.handleRange)
			r.Get("/today", s.handleToday)
			r.Get("/day", s.handleDay)
			r.Get("/working-days", s.handleWorkingDays)
			r.Get("/working-days/month", s.handleWorkingDaysMonth)
			r.Get("/vacation-plan", s.handleVacationPlan)
			r.Get("/stats", s.handleStats)
			r.Get("/country/{countryCode}", s.handleCountryHolidays)
			r.Get("/country/{countryCode}/year/{year}", s.handleCountryHolidays)
			r.Get("/audiences", s.handleAudiences(false))
			r.Get("/audiences/translated", s.handleAudiences(true))
			r.Get("/types", s.handleTypes(false))
			r.Get("/types/translated", s.handleTypes(true))
		})

		r.Post("/chat", s.handleChat)

		r.With(s.requireAdmin).Post("/admin/reload", s.handleReload)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Kind: "NotFound"})
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.opts.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.opts.Listen))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// language picks the language query parameter, then Accept-Language, then the default
func (s *Server) language(r *http.Request) string {
	if lang := strings.TrimSpace(r.URL.Query().Get("language")); lang != "" {
		return lang
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		if tags, _, err := language.ParseAcceptLanguage(header); err == nil && len(tags) > 0 {
			return tags[0].String()
		}
	}
	return s.opts.DefaultLanguage
}
