package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	derrors "github.com/vango-dev/defo/internal/errors"
	"github.com/vango-dev/defo/pkg/metrics"
	"github.com/vango-dev/defo/pkg/observer"
)

// DefaultReadLimit bounds a single client message (1MB).
const DefaultReadLimit int64 = 1 << 20

// Config configures a Server.
type Config struct {
	// Registry is shared by every session. Required.
	Registry *observer.Registry

	// Prefix is the attribute prefix (default: observer.DefaultPrefix).
	Prefix string

	// Logger receives server and dispatcher logs (default: slog.Default()).
	Logger *slog.Logger

	// Metrics records sessions and observer activity. Optional.
	Metrics *metrics.Recorder

	// Gatherer backs GET /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer

	// AllowedOrigins lists origins allowed to open a feed. Empty means
	// same-origin only; "*" allows any origin.
	AllowedOrigins []string

	// ReadLimit bounds a single client message in bytes.
	ReadLimit int64

	// Observer holds extra dispatcher options applied to every session.
	Observer []observer.Option
}

// Server accepts feed connections.
type Server struct {
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	opts     []observer.Option

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	httpServer *http.Server
}

// NewServer validates config and returns a Server.
func NewServer(config Config) (*Server, error) {
	if config.Registry == nil {
		return nil, errors.New("feed: registry is required")
	}
	if config.Prefix == "" {
		config.Prefix = observer.DefaultPrefix
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.ReadLimit <= 0 {
		config.ReadLimit = DefaultReadLimit
	}
	if _, err := observer.NewConvention(config.Prefix, config.Registry); err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		logger:   config.Logger,
		sessions: make(map[string]*Session),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	s.opts = []observer.Option{
		observer.WithPrefix(config.Prefix),
		observer.WithLogger(config.Logger),
	}
	if config.Metrics != nil {
		s.opts = append(s.opts, observer.WithHooks(config.Metrics))
	}
	s.opts = append(s.opts, config.Observer...)
	return s, nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.config.AllowedOrigins) == 0 {
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
	for _, o := range s.config.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/feed", s.HandleWebSocket)
	r.Get("/sessions", s.handleSessions)
	return r
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	infos := s.Sessions()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Count    int           `json:"count"`
		Sessions []SessionInfo `json:"sessions"`
	}{len(infos), infos})
}

// HandleWebSocket upgrades the request and serves one session until the
// client disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.wsError("upgrade")
		s.logger.Debug("feed upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.config.ReadLimit)

	id := uuid.NewString()
	sess, err := newSession(id, conn, s.config.Registry, s.opts)
	if err != nil {
		s.logger.Error("feed session setup failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	if !s.add(sess) {
		return
	}
	defer s.remove(sess)

	if err := sess.start(ctx); err != nil {
		s.logger.Error("feed session start failed", "session", id, "error", err)
		return
	}
	s.logger.Info("feed session opened", "session", id, "remote", sess.remote)

	s.serve(sess)
}

// serve reads batches until the connection fails. Replies are written from
// this goroutine only.
func (s *Server) serve(sess *Session) {
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.wsError("read")
				s.logger.Warn("feed read failed", "session", sess.id, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != TypeBatch {
			s.wsError("decode")
			detail := fmt.Sprintf("unsupported message type %q", msg.Type)
			if err != nil {
				detail = err.Error()
			}
			e := derrors.New("D140").WithDetail(detail)
			if !s.write(sess, ServerMessage{
				Type:     TypeError,
				Bindings: []BindingInfo{},
				Errors:   []ErrorInfo{{Code: e.Code, Message: e.Detail}},
			}) {
				return
			}
			continue
		}

		if s.config.Metrics != nil {
			s.config.Metrics.BatchReceived()
		}
		if !s.write(sess, sess.apply(msg)) {
			return
		}
	}
}

func (s *Server) write(sess *Session, msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.wsError("write")
		s.logger.Warn("feed write failed", "session", sess.id, "error", err)
		return false
	}
	return true
}

func (s *Server) wsError(kind string) {
	if s.config.Metrics != nil {
		s.config.Metrics.WebSocketError(kind)
	}
}

func (s *Server) add(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[sess.id] = sess
	if s.config.Metrics != nil {
		s.config.Metrics.SessionOpened()
	}
	return true
}

func (s *Server) remove(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	sess.dispose()
	if s.config.Metrics != nil {
		s.config.Metrics.SessionClosed()
	}
	s.logger.Info("feed session closed", "session", sess.id)
}

// Sessions returns the open sessions ordered by start time.
func (s *Server) Sessions() []SessionInfo {
	s.mu.RLock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	infos := make([]SessionInfo, len(all))
	for i, sess := range all {
		infos[i] = sess.Info()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Started.Before(infos[j].Started) })
	return infos
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close closes every connection. Handlers exit and dispose their sessions.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, sess := range s.sessions {
		sess.conn.Close()
	}
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return derrors.New("D141").WithSubject(addr).Wrap(err)
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
