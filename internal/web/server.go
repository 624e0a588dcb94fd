// Package web serves the consultation wizard, the public blog and newsletter
// endpoints, and the token-gated back-office API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-intake/internal/admin"
	"github.com/goliatone/go-intake/pkg/auth"
	"github.com/goliatone/go-intake/pkg/consultation"
	"github.com/goliatone/go-intake/pkg/model"
	"github.com/goliatone/go-intake/pkg/wizard"
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type options struct {
	logger       *slog.Logger
	thankYouPath string
	sessionTTL   time.Duration
	manifest     *theme.Manifest
	variant      string
	templates    fs.FS
	pinger       Pinger
	authn        auth.Authenticator
}

// Option configures the Server.
type Option func(*options)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithThankYouPath sets where a successful submission lands.
func WithThankYouPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.thankYouPath = path
		}
	}
}

// WithSessionTTL sets how long an idle browser session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) { o.sessionTTL = ttl }
}

// WithTheme selects the brand manifest and variant.
func WithTheme(manifest *theme.Manifest, variant string) Option {
	return func(o *options) {
		o.manifest = manifest
		o.variant = variant
	}
}

// WithTemplates replaces the embedded templates.
func WithTemplates(files fs.FS) Option {
	return func(o *options) { o.templates = files }
}

// WithPinger wires the health check.
func WithPinger(p Pinger) Option {
	return func(o *options) { o.pinger = p }
}

// WithAuthenticator sets how admins sign in.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(o *options) { o.authn = a }
}

// Server is the HTTP surface.
type Server struct {
	form     *model.Form
	inserter wizard.Inserter[consultation.Record]
	services *admin.Services
	visitors *visitors
	views    *views
	theme    *theme.RendererConfig
	opts     options
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New builds the server. inserter receives wizard submissions; services back
// the blog, newsletter, and admin endpoints.
func New(form *model.Form, inserter wizard.Inserter[consultation.Record], services *admin.Services, options ...Option) (*Server, error) {
	if form == nil {
		return nil, errors.New("web: form is required")
	}
	if inserter == nil {
		return nil, errors.New("web: inserter is required")
	}
	if services == nil {
		return nil, errors.New("web: services are required")
	}

	opts := defaultOptions()
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	themeCfg, err := resolveTheme(opts.manifest, opts.variant)
	if err != nil {
		return nil, err
	}
	views, err := newViews(opts.templates, map[string]any{
		"themeName":    themeCfg.Theme,
		"themeVariant": themeCfg.Variant,
		"themeStyle":   cssVarsStyle(themeCfg.CSSVars),
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		form:     form,
		inserter: inserter,
		services: services,
		visitors: newVisitors(form, opts.authn, opts.sessionTTL, opts.logger),
		views:    views,
		theme:    themeCfg,
		opts:     opts,
		logger:   opts.logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func defaultOptions() options {
	return options{
		logger:       discardLogger(),
		thankYouPath: wizard.DefaultThankYou,
		sessionTTL:   30 * time.Minute,
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleWizard)
	s.mux.HandleFunc("POST /wizard/{action}", s.handleWizardAction)
	s.mux.HandleFunc("GET /thank-you", s.handleThankYou)
	if s.opts.thankYouPath != "/thank-you" {
		s.mux.HandleFunc("GET "+s.opts.thankYouPath, s.handleThankYou)
	}

	s.mux.HandleFunc("GET /api/posts", s.handlePublicPosts)
	s.mux.HandleFunc("GET /api/posts/{slug}", s.handlePublicPost)
	s.mux.HandleFunc("POST /subscribe", s.handleSubscribe)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /admin/api/login", s.handleLogin)
	s.mux.HandleFunc("POST /admin/api/logout", s.handleLogout)
	s.mux.Handle("GET /admin/api/me", s.requireAdmin(http.HandlerFunc(s.handleMe)))

	s.mux.Handle("GET /admin/api/consultations", s.requireAdmin(http.HandlerFunc(s.handleListConsultations)))
	s.mux.Handle("GET /admin/api/consultations/stream", s.requireAdmin(http.HandlerFunc(s.handleConsultationStream)))
	s.mux.Handle("GET /admin/api/consultations/{id}", s.requireAdmin(http.HandlerFunc(s.handleGetConsultation)))
	s.mux.Handle("PATCH /admin/api/consultations/{id}", s.requireAdmin(http.HandlerFunc(s.handleSetConsultationStatus)))
	s.mux.Handle("DELETE /admin/api/consultations/{id}", s.requireAdmin(http.HandlerFunc(s.handleDeleteConsultation)))

	s.mux.Handle("GET /admin/api/posts", s.requireAdmin(http.HandlerFunc(s.handleListPosts)))
	s.mux.Handle("POST /admin/api/posts", s.requireAdmin(http.HandlerFunc(s.handleCreatePost)))
	s.mux.Handle("PUT /admin/api/posts/{id}", s.requireAdmin(http.HandlerFunc(s.handleUpdatePost)))
	s.mux.Handle("POST /admin/api/posts/{id}/publish", s.requireAdmin(http.HandlerFunc(s.handlePublishPost)))
	s.mux.Handle("POST /admin/api/posts/{id}/unpublish", s.requireAdmin(http.HandlerFunc(s.handleUnpublishPost)))
	s.mux.Handle("DELETE /admin/api/posts/{id}", s.requireAdmin(http.HandlerFunc(s.handleDeletePost)))

	s.mux.Handle("GET /admin/api/subscribers", s.requireAdmin(http.HandlerFunc(s.handleListSubscribers)))
	s.mux.Handle("DELETE /admin/api/subscribers", s.requireAdmin(http.HandlerFunc(s.handleUnsubscribe)))

	s.mux.Handle("GET /admin/api/work", s.requireAdmin(http.HandlerFunc(s.handleListWork)))
	s.mux.Handle("GET /admin/api/work/total", s.requireAdmin(http.HandlerFunc(s.handleWorkTotal)))
	s.mux.Handle("POST /admin/api/work/start", s.requireAdmin(http.HandlerFunc(s.handleWorkStart)))
	s.mux.Handle("POST /admin/api/work/stop", s.requireAdmin(http.HandlerFunc(s.handleWorkStop)))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.visitors.run(sweepCtx)

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.pinger != nil {
		if err := s.opts.pinger.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
