package panel

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dshills/modstorm/internal/settings"
	"github.com/dshills/modstorm/internal/workspace"
)

//go:embed assets/panel.html
var assetFS embed.FS

// ErrBadNonce is returned to clients connecting without the session nonce.
var ErrBadNonce = errors.New("bad panel nonce")

// Server serves the panel shell and its websocket on the loopback
// interface. One server carries one session: the panel is per-workspace.
type Server struct {
	addr    string
	ws      *workspace.Workspace
	session *Session
	logger  *slog.Logger

	upgrader websocket.Upgrader
	tmpl     *template.Template

	mu      sync.Mutex
	conn    *websocket.Conn
	httpSrv *http.Server
	watcher *workspace.Watcher

	// writeMu serializes websocket writes: the read loop and the manifest
	// watcher both send, and gorilla permits one concurrent writer.
	writeMu sync.Mutex

	// sessionMu serializes all session access. A reconnect (browser
	// refresh) starts a new read loop before the old one has noticed its
	// closed connection and returned from Handle; without this lock the
	// two loops would mutate the same store concurrently.
	sessionMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address. The default is a loopback port chosen
// by the kernel.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a panel server for a workspace.
func NewServer(ws *workspace.Workspace, flags *settings.Registry, opts ...Option) (*Server, error) {
	session, err := NewSession(ws, flags)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.ParseFS(assetFS, "assets/panel.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:    "127.0.0.1:0",
		ws:      ws,
		session: session,
		logger:  slog.Default(),
		tmpl:    tmpl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The shell and the socket share an origin on loopback.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Session returns the server's panel session.
func (s *Server) Session() *Session {
	return s.session
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Start begins serving and returns the bound address. Serving continues
// until Shutdown or context cancellation.
func (s *Server) Start(ctx context.Context) (string, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", err
	}

	w, err := s.ws.WatchManifest(s.notifyExternalChange)
	if err != nil {
		ln.Close()
		return "", err
	}

	srv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.watcher = w
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("panel server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	s.logger.Info("panel serving", "addr", ln.Addr().String(), "workspace", s.ws.Root())
	return ln.Addr().String(), nil
}

// Shutdown stops the server and the manifest watcher.
func (s *Server) Shutdown() {
	s.mu.Lock()
	srv := s.httpSrv
	w := s.watcher
	s.httpSrv = nil
	s.watcher = nil
	s.mu.Unlock()

	if w != nil {
		w.Close()
	}
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, struct{ Nonce string }{Nonce: s.session.Nonce()}); err != nil {
		s.logger.Error("panel template failed", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("nonce") != s.session.Nonce() {
		s.logger.Warn("panel connect rejected", "remote", r.RemoteAddr)
		http.Error(w, ErrBadNonce.Error(), http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
	s.mu.Unlock()

	// Initial snapshot so the panel renders without a round trip.
	s.sessionMu.Lock()
	state := s.session.State()
	s.sessionMu.Unlock()
	s.send(conn, state)

	s.readLoop(conn)

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	conn.Close()
}

// readLoop consumes panel messages until the connection drops. Session
// access is guarded by sessionMu: two read loops overlap briefly when a
// client reconnects and the store must never see both at once.
func (s *Server) readLoop(conn *websocket.Conn) {
	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				s.logger.Error("panel read error", "error", err)
			}
			return
		}

		s.sessionMu.Lock()
		replies := s.session.Handle(in)
		s.sessionMu.Unlock()

		for _, out := range replies {
			s.send(conn, out)
		}
	}
}

func (s *Server) send(conn *websocket.Conn, out Outbound) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := conn.WriteJSON(out); err != nil {
		s.logger.Error("panel write error", "type", out.Type, "error", err)
	}
}

// notifyExternalChange forwards watcher events to the connected panel.
func (s *Server) notifyExternalChange() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return
	}
	s.send(conn, s.session.ExternalChange())
}
