package ws

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bft-labs/probecast/internal/app"
	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

// DefaultMinInterval bounds how often snapshots are pushed to clients.
const DefaultMinInterval = 50 * time.Millisecond

const (
	// DefaultPongWait is how long a client may stay silent before it is
	// dropped. Pings go out every nine tenths of it.
	DefaultPongWait = 60 * time.Second

	maxMessageSize = 512
)

// Backend is the client the server presents.
type Backend interface {
	Store() *app.Store
	StartExport(ctx context.Context, req app.ExportRequest) (domain.RawDataSession, error)
	Capture(ctx context.Context, timestamp int64) (domain.CaptureSession, error)
}

// Server routes the HTTP API and feeds the WebSocket hub.
type Server struct {
	backend     Backend
	hub         *Hub
	router      *mux.Router
	logger      ports.Logger
	upgrader    websocket.Upgrader
	minInterval time.Duration
	pongWait    time.Duration
}

// NewServer creates a server for backend.
func NewServer(backend Backend, logger ports.Logger) *Server {
	s := &Server{
		backend:     backend,
		hub:         NewHub(logger),
		router:      mux.NewRouter(),
		logger:      logger,
		minInterval: DefaultMinInterval,
		pongWait:    DefaultPongWait,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.router.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	s.router.HandleFunc("/image.png", s.handleImage).Methods(http.MethodGet)
	s.router.HandleFunc("/export", s.handleExport).Methods(http.MethodPost)
	s.router.HandleFunc("/capture", s.handleCapture).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)
	s.router.Use(s.loggerMiddleware)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run pushes a snapshot to WebSocket clients after store changes, at most
// once per minInterval, until ctx is canceled.
func (s *Server) Run(ctx context.Context) {
	go s.hub.Run(ctx)

	store := s.backend.Store()
	for {
		changed := store.Changed()
		if msg, err := json.Marshal(TakeSnapshot(store)); err == nil {
			s.hub.Broadcast(msg)
		} else {
			s.logger.Error("failed to encode snapshot", ports.Err(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-changed:
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.minInterval):
		}
	}
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", ports.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request",
			ports.String("method", r.Method),
			ports.String("url", r.URL.String()),
		)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TakeSnapshot(s.backend.Store()))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.backend.Store().Image.Load()
	if !ok || img.Empty() {
		http.Error(w, "no image yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img.Image); err != nil {
		s.logger.Warn("failed to encode image", ports.Err(err))
	}
}

type exportBody struct {
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
	Compress    bool   `json:"compress"`
	Destination string `json:"destination"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var body exportBody
	if !decodeBody(w, r, &body) {
		return
	}

	session, err := s.backend.StartExport(r.Context(), app.ExportRequest{
		Range:       domain.Range{Start: body.Start, End: body.End},
		Compress:    body.Compress,
		Destination: body.Destination,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sessionView(session))
}

type captureBody struct {
	Timestamp int64 `json:"timestamp"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var body captureBody
	if !decodeBody(w, r, &body) {
		return
	}

	c, err := s.backend.Capture(r.Context(), body.Timestamp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, CaptureView{ID: c.ID, Timestamp: c.Timestamp, State: c.State.String()})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", ports.Err(err))
		return
	}
	pongWait := s.pongWait
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	if !s.hub.Register(conn) {
		conn.Close()
		return
	}
	defer s.hub.Unregister(conn)

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(conn, pongWait*9/10, done)

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// keepAlive pings conn every period until done is closed or a ping fails.
// WriteControl may run concurrently with the hub's writes.
func (s *Server) keepAlive(conn *websocket.Conn, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug("websocket ping failed", ports.Err(err))
				return
			}
		}
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var uerr *domain.UsageError
	if errors.As(err, &uerr) {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
