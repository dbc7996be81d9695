package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quill/internal/logging"
)

const (
	previewsBasePath = "/previews"
	paramID          = "id"
)

// Server exposes live registry handles over loopback http.
type Server struct {
	registry *Registry
	logger   *slog.Logger

	srv      *http.Server
	listener net.Listener
}

// NewServer wires a server to registry. Start must be called to listen.
func NewServer(registry *Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "preview"),
	}
}

// Handler returns the router serving previews.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get(previewsBasePath+"/{"+paramID+"}", s.handlePreview)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	return r
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, paramID)
	file, ok := s.registry.Lookup(id)
	if !ok {
		http.Error(w, "preview released", http.StatusNotFound)
		return
	}
	reader, err := file.Open()
	if err != nil {
		s.logger.Warn("preview open failed", logging.String("file", file.Name), logging.Error(err))
		http.Error(w, "preview unavailable", http.StatusGone)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Debug("preview write interrupted", logging.Error(err))
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("preview request",
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(start)),
			logging.String(logging.FieldCorrelationID, middleware.GetReqID(r.Context())),
		)
	})
}

// Start listens on bind and serves in the background. It returns the base
// URL handles should use and points the registry at it.
func (s *Server) Start(bind string) (string, error) {
	if s.srv != nil {
		return "", errors.New("preview server already started")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return "", fmt.Errorf("preview listen %s: %w", bind, err)
	}
	s.listener = listener
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("preview server stopped", logging.Error(err))
		}
	}()

	baseURL := "http://" + listener.Addr().String()
	s.registry.SetBaseURL(baseURL)
	s.logger.Debug("preview server listening", logging.String("url", baseURL))
	return baseURL, nil
}

// Close shuts the server down.
func (s *Server) Close(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	s.registry.SetBaseURL("")
	return s.srv.Shutdown(ctx)
}
