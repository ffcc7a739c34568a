package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/creative280/proyecto-fs-servicios/internal/accesslog"
	"github.com/creative280/proyecto-fs-servicios/internal/filestore"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Server holds the collaborators shared by all handlers.
type Server struct {
	store        *filestore.Store
	log          *accesslog.Engine
	stream       http.Handler
	ids          IDGenerator
	clock        accesslog.Clock
	logger       *slog.Logger
	maxBodyBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithStream mounts h at /logs/stream. Without it the route answers 404.
func WithStream(h http.Handler) Option {
	return func(s *Server) {
		s.stream = h
	}
}

// WithIDGenerator sets the request ID source.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Server) {
		s.ids = g
	}
}

// WithClock sets the clock used for response timestamps.
func WithClock(c accesslog.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// WithLogger sets the process logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMaxBodyBytes caps JSON request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// New creates a Server over store and log.
func New(store *filestore.Store, log *accesslog.Engine, opts ...Option) *Server {
	s := &Server{
		store:        store,
		log:          log,
		ids:          UUIDv7Generator{},
		clock:        accesslog.SystemClock{},
		logger:       slog.Default(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/archivos/escribir", allow(http.MethodPost, s.handleWrite))
	mux.Handle("/archivos/leer", allow(http.MethodGet, s.handleRead))
	mux.Handle("/archivos/anexar", allow(http.MethodPost, s.handleAppend))
	mux.Handle("/archivos/eliminar", allow(http.MethodDelete, s.handleDelete))
	mux.Handle("/archivos/listar", allow(http.MethodGet, s.handleList))

	mux.Handle("/logs", allow(http.MethodGet, s.handleLogs))
	mux.Handle("/logs/estadisticas", allow(http.MethodGet, s.handleStats))
	mux.Handle("/logs/filtrar", allow(http.MethodGet, s.handleFilter))
	mux.Handle("/logs/buscar", allow(http.MethodGet, s.handleSearch))
	mux.Handle("/logs/limpiar", allow(http.MethodDelete, s.handlePrune))
	mux.Handle("/logs/exportar", allow(http.MethodGet, s.handleExport))
	mux.Handle("/logs/stream", allow(http.MethodGet, s.handleStream))

	mux.Handle("/health", allow(http.MethodGet, s.handleHealth))
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = s.audit(h)
	h = s.recoverPanic(h)
	h = s.requestLog(h)
	return h
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// allow rejects requests whose method is not method.
func allow(method string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
				"error":  "Método no permitido",
				"metodo": r.Method,
			})
			return
		}
		h(w, r)
	})
}
