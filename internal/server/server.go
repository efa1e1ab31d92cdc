// Package server exposes unfilled over HTTP: wallpaper and month exports,
// day entries, the gallery, uploads and storage diagnostics.
package server

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/unfilled/internal/blob"
	"github.com/julianstephens/unfilled/internal/config"
	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/diagnostics"
	"github.com/julianstephens/unfilled/internal/events"
	"github.com/julianstephens/unfilled/internal/export"
	"github.com/julianstephens/unfilled/internal/gallery"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/metrics"
	"github.com/julianstephens/unfilled/internal/storage"
)

// Deps are the collaborators a Server routes to. Events and Metrics may be
// nil.
type Deps struct {
	Config      *config.Config
	Store       storage.Provider
	Days        *daystore.Store
	Gallery     gallery.Repository
	Shares      *gallery.ShareService
	Blobs       blob.Store
	Diagnostics diagnostics.Service
	Events      events.Publisher
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// exportSettings are the knobs that can change while serving.
type exportSettings struct {
	quality    int
	background color.NRGBA
}

type Server struct {
	deps           Deps
	log            *log.Logger
	maxUploadBytes int64
	baseURL        string
	export         atomic.Pointer[exportSettings]
	router         chi.Router
}

func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	if deps.Store == nil || deps.Days == nil || deps.Gallery == nil {
		return nil, errors.New("server needs a store, a day store and a gallery")
	}
	if deps.Shares == nil {
		deps.Shares = gallery.NewShareService(deps.Store)
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = diagnostics.New(deps.Days, deps.Store, deps.Gallery)
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Server{
		deps:           deps,
		log:            logger.With("component", "server"),
		maxUploadBytes: int64(deps.Config.Server.MaxUploadMB) << 20,
		baseURL:        deps.Config.Server.BaseURL,
	}
	if err := s.ApplyConfig(deps.Config); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// ApplyConfig swaps in the export quality, default background and eviction
// ratio from cfg. Other settings need a restart.
func (s *Server) ApplyConfig(cfg *config.Config) error {
	bg, err := export.ParseColor(cfg.Export.Background)
	if err != nil {
		return fmt.Errorf("invalid export background: %w", err)
	}
	s.export.Store(&exportSettings{quality: cfg.Export.JPEGQuality, background: bg})
	s.deps.Days.SetEvictionRatio(cfg.Storage.EvictionRatio)
	return nil
}

func (s *Server) settings() exportSettings {
	return *s.export.Load()
}

func (s *Server) renderer() *export.Renderer {
	return &export.Renderer{
		Quality: s.settings().quality,
		Logger:  s.log,
		OnFallback: func(err error) {
			s.deps.Metrics.IncFallback()
			events.Emit(context.Background(), s.deps.Events, events.ExportFallback, map[string]string{"error": err.Error()})
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles connections on ln until ctx is cancelled, then shuts down
// gracefully and flushes pending day writes.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("Listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.deps.Config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.log.Info("Shutting down")
		err := srv.Shutdown(shutdownCtx)
		if ferr := s.deps.Days.Flush(shutdownCtx); ferr != nil {
			s.log.Error("Failed to flush pending day writes", "error", ferr)
			err = errors.Join(err, ferr)
		}
		return err
	})
	return g.Wait()
}
