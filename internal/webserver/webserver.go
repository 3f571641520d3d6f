package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/zsprackett/claude-viz/internal/events"
	"github.com/zsprackett/claude-viz/internal/hub"
)

// maxEventBytes caps an ingested event body.
const maxEventBytes = 1 << 20

type Config struct {
	Port int
	Host string
	// PublicDir is the asset root. Empty serves the embedded page.
	PublicDir string
}

type Server struct {
	hub    *hub.Hub
	cfg    Config
	assets fs.FS
	logger *slog.Logger

	srv      *http.Server
	listener net.Listener
}

func New(h *hub.Hub, cfg Config, logger *slog.Logger) *Server {
	assets := staticFiles()
	if cfg.PublicDir != "" {
		assets = os.DirFS(cfg.PublicDir)
	}
	return &Server{
		hub:    h,
		cfg:    cfg,
		assets: assets,
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /event", s.handleEvent)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /", s.handleStatic)
	return corsMiddleware(mux)
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = lis
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webserver", "err", err)
		}
	}()
	s.logger.Info("listening", "addr", lis.Addr().String())
	return nil
}

// Addr is the bound address, valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
// Hijacked WebSocket connections are not tracked by http.Server and are
// closed when their subscriptions end.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	e, err := events.Parse(body)
	if err != nil {
		s.logger.Debug("rejected event", "remote", r.RemoteAddr, "err", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	s.hub.Record(e)
	s.logger.Info("event", "type", string(e.Kind()), "label", e.Label(), "session", e.SessionID)

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.hub.Snapshot())
}
