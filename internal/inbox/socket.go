package inbox

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"elearning_go/internal/domain"
	"elearning_go/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

// Config describes the endpoint and callbacks of a Socket.
type Config struct {
	URL        string
	Header     http.Header
	Policy     Policy
	PingPeriod time.Duration
	Dialer     *websocket.Dialer
	Logger     zerolog.Logger

	// OnMessage receives every text frame. It runs on the read goroutine.
	OnMessage func([]byte)
	// OnState is called after every state change.
	OnState func(State)
}

// Socket is a single long-lived websocket that reconnects according to its
// Policy until Close is called.
type Socket struct {
	cfg Config
	log zerolog.Logger

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}

	writeMu sync.Mutex
}

func New(cfg Config) *Socket {
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		}
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = 30 * time.Second
	}
	if cfg.OnMessage == nil {
		cfg.OnMessage = func([]byte) {}
	}
	return &Socket{
		cfg: cfg,
		log: observability.WithComponent(cfg.Logger, "inbox"),
	}
}

func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect starts the connection loop unless one is already running. The
// socket stays up until ctx is cancelled, Close is called, or the policy
// gives up.
func (s *Socket) Connect(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	s.mu.Unlock()

	go s.run(ctx, cancel, done)
}

// Close stops the connection loop and waits for it to exit. No reconnect
// happens afterwards until Connect is called again.
func (s *Socket) Close() error {
	s.mu.Lock()
	cancel, done, conn := s.cancel, s.done, s.conn
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
	<-done
	return nil
}

// Send writes v as a JSON text frame. It fails with domain.ErrSocketNotReady
// unless the socket is connected.
func (s *Socket) Send(v any) error {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()
	if state != Connected || conn == nil {
		return domain.ErrSocketNotReady
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSocketNotReady, err)
	}
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (s *Socket) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer func() {
		cancel()
		s.setState(Disconnected)
		s.mu.Lock()
		if s.done == done {
			s.cancel, s.done = nil, nil
		}
		s.mu.Unlock()
		close(done)
	}()

	attempt := 0
	for {
		s.setState(Connecting)
		conn, _, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, s.cfg.Header)
		if err == nil {
			attempt = 0
			s.attach(conn)
			err = s.serve(ctx, conn)
			s.detach(conn)
		}
		if ctx.Err() != nil {
			return
		}

		attempt++
		if s.cfg.Policy.exhausted(attempt) {
			s.log.Warn().Err(err).Int("attempts", attempt-1).Msg("giving up on inbox socket")
			return
		}
		delay := s.cfg.Policy.Delay(attempt)
		s.log.Debug().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("inbox socket lost, reconnecting")
		s.setState(Reconnecting)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (s *Socket) attach(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.setState(Connected)
}

func (s *Socket) detach(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = conn.Close()
}

// serve pumps frames until the connection fails or ctx is done.
func (s *Socket) serve(ctx context.Context, conn *websocket.Conn) error {
	pongWait := s.cfg.PingPeriod * 10 / 9
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go s.pingLoop(ctx, conn, stop)

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if typ != websocket.TextMessage {
			continue
		}
		s.cfg.OnMessage(data)
	}
}

func (s *Socket) pingLoop(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func (s *Socket) setState(st State) {
	s.mu.Lock()
	if s.state == st {
		s.mu.Unlock()
		return
	}
	s.state = st
	s.mu.Unlock()
	s.log.Debug().Stringer("state", st).Msg("inbox socket state")
	if s.cfg.OnState != nil {
		s.cfg.OnState(st)
	}
}
