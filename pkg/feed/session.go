package feed

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	derrors "github.com/vango-dev/defo/internal/errors"
	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

// Session is one feed connection with its own mirror and dispatcher.
type Session struct {
	id      string
	remote  string
	started time.Time
	conn    *websocket.Conn
	mirror  *Mirror
	disp    *observer.Dispatcher

	mu      sync.Mutex
	pending []ErrorInfo
}

// SessionInfo is the /sessions view of a Session.
type SessionInfo struct {
	ID       string    `json:"id"`
	Remote   string    `json:"remote"`
	Started  time.Time `json:"started"`
	Bindings int       `json:"bindings"`
}

func newSession(id string, conn *websocket.Conn, reg *observer.Registry, opts []observer.Option) (*Session, error) {
	s := &Session{
		id:      id,
		remote:  conn.RemoteAddr().String(),
		started: time.Now(),
		conn:    conn,
		mirror:  NewMirror(),
	}
	opts = append(opts[:len(opts):len(opts)], observer.WithHooks(s))
	disp, err := observer.NewDispatcher(reg, s.mirror, opts...)
	if err != nil {
		return nil, err
	}
	s.disp = disp
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Info returns a snapshot for reporting.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:       s.id,
		Remote:   s.remote,
		Started:  s.started,
		Bindings: s.disp.Manager().Len(),
	}
}

// Bindings returns the live bindings keyed by mirror node ID.
func (s *Session) Bindings() []BindingInfo {
	all := s.disp.Bindings()
	out := make([]BindingInfo, 0, len(all))
	for _, b := range all {
		el, ok := b.Element.(*dom.Element)
		if !ok {
			continue
		}
		out = append(out, BindingInfo{ID: el.ID(), Name: string(b.Name), Payload: b.Payload.String()})
	}
	return out
}

func (s *Session) start(ctx context.Context) error {
	return s.disp.Start(ctx, s.mirror.Root())
}

// apply runs one client batch and builds the reply.
func (s *Session) apply(msg ClientMessage) ServerMessage {
	rejected := s.mirror.Apply(msg)

	s.mu.Lock()
	errs := append(rejected, s.pending...)
	s.pending = nil
	s.mu.Unlock()

	if errs == nil {
		errs = []ErrorInfo{}
	}
	return ServerMessage{Type: TypeBindings, Bindings: s.Bindings(), Errors: errs}
}

func (s *Session) dispose() {
	_ = s.disp.Dispose()
	<-s.disp.Done()
}

// OnBind implements observer.Hooks.
func (s *Session) OnBind(observer.Element, observer.Name) {}

// OnUnbind implements observer.Hooks.
func (s *Session) OnUnbind(observer.Element, observer.Name) {}

// OnUpdate implements observer.Hooks.
func (s *Session) OnUpdate(observer.Element, observer.Name) {}

// OnScan implements observer.Hooks.
func (s *Session) OnScan(observer.ScanStats) {}

// OnError implements observer.Hooks. Failures are queued for the next reply.
func (s *Session) OnError(el observer.Element, name observer.Name, err error) {
	info := ErrorInfo{Name: string(name), Message: err.Error()}
	if e, ok := el.(*dom.Element); ok {
		info.ID = e.ID()
	}
	info.Code = observer.Describe(err).Code
	if info.Code == "" {
		info.Code = derrors.Code(err)
	}

	s.mu.Lock()
	s.pending = append(s.pending, info)
	s.mu.Unlock()
}
