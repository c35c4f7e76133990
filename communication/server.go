package communication

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"mazectf/game"
	"mazectf/gamemaster"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Listener waits for agent processes to dial in. One accepted connection
// becomes one RemoteProxy.
type Listener struct {
	ln       net.Listener
	srv      *http.Server
	conns    chan *websocket.Conn
	upgrader websocket.Upgrader
}

// Listen starts accepting websocket connections on addr. Use addr
// "127.0.0.1:0" to let the OS pick a port, then read it back with Addr.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	l := &Listener{
		ln:    ln,
		conns: make(chan *websocket.Conn, 2),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", l.handle)
	l.srv = &http.Server{Handler: mux}
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("agent listener stopped")
		}
	}()
	return l, nil
}

func (l *Listener) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	select {
	case l.conns <- conn:
	default:
		// Every expected agent already connected.
		_ = conn.Close()
	}
}

// Addr returns the bound address, e.g. "127.0.0.1:46213".
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

// Accept blocks until an agent connects or the context is cancelled.
func (l *Listener) Accept(ctx context.Context) (*RemoteProxy, error) {
	select {
	case conn := <-l.conns:
		return NewRemoteProxy(conn), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for agent: %w", ctx.Err())
	}
}

func (l *Listener) Close() error {
	return l.srv.Close()
}

// RemoteProxy speaks the agent protocol over one websocket connection. A
// dedicated reader goroutine feeds replies through a channel, so a request
// that times out leaves the connection usable and its late reply is skipped
// by sequence number. The scheduler issues at most one call at a time, so
// no further locking is needed.
type RemoteProxy struct {
	conn    *websocket.Conn
	process *Subprocess
	bots    []int
	seq     int

	replies chan Message
	readErr error // valid once replies is closed
}

func NewRemoteProxy(conn *websocket.Conn) *RemoteProxy {
	p := &RemoteProxy{
		conn:    conn,
		replies: make(chan Message, 8),
	}
	go p.readLoop()
	return p
}

func (p *RemoteProxy) readLoop() {
	for {
		var msg Message
		if err := p.conn.ReadJSON(&msg); err != nil {
			p.readErr = err
			close(p.replies)
			return
		}
		select {
		case p.replies <- msg:
		default:
			log.Warn().Msg("dropping unsolicited agent message")
		}
	}
}

// AttachProcess hands the proxy the subprocess behind the connection, so
// closing the proxy also terminates it.
func (p *RemoteProxy) AttachProcess(process *Subprocess) {
	p.process = process
}

func (p *RemoteProxy) Bind(bots []int) {
	p.bots = bots
}

func (p *RemoteProxy) SendInitial(u *game.Universe) error {
	msg := Message{Type: msgSetInitial, Bots: p.bots, Universe: u}
	_ = p.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := p.conn.WriteJSON(msg); err != nil {
		return classify(err)
	}
	return nil
}

func (p *RemoteProxy) RequestMove(ctx context.Context, botIndex int, u *game.Universe) (game.Move, error) {
	p.seq++
	request := Message{Type: msgGetMove, Seq: p.seq, BotIndex: botIndex, Universe: u}

	if deadline, ok := ctx.Deadline(); ok {
		_ = p.conn.SetWriteDeadline(deadline)
	}
	if err := p.conn.WriteJSON(request); err != nil {
		return game.Stop, classify(err)
	}

	for {
		select {
		case reply, ok := <-p.replies:
			if !ok {
				return game.Stop, fmt.Errorf("%w: %v", gamemaster.ErrDisconnected, p.readErr)
			}
			if reply.Seq < p.seq {
				// Answer to an already timed-out request.
				continue
			}
			if reply.Type != msgMove || reply.Move == nil {
				return game.Stop, fmt.Errorf("%w: unexpected reply %q", gamemaster.ErrMoveRejected, reply.Type)
			}
			return *reply.Move, nil
		case <-ctx.Done():
			return game.Stop, fmt.Errorf("%w: %v", gamemaster.ErrTimeout, ctx.Err())
		}
	}
}

// Close shuts the transport first and the agent process after, giving it a
// grace period before it is killed.
func (p *RemoteProxy) Close() error {
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match over"),
		time.Now().Add(time.Second))
	err := p.conn.Close()
	if p.process != nil {
		if perr := p.process.Shutdown(3 * time.Second); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// classify maps a transport-level error to the scheduler's failure
// taxonomy: a deadline expiry is a timeout, everything else means the
// connection is gone.
func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", gamemaster.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", gamemaster.ErrDisconnected, err)
}
