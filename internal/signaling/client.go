package signaling

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/minhaz-lariya/virtual-class/internal/dns"
	"github.com/minhaz-lariya/virtual-class/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the persistent WebSocket connection to the relay.
//
// Connection loss triggers automatic redial with exponential backoff.
// Reconnection restores the transport only: room membership and
// negotiation state are not re-announced here, the owning layer
// observes Reconnected and re-drives what it needs. While
// disconnected, Invoke fails with session.ErrNotConnected and callers
// retry instead of queueing.
type Client struct {
	relayURL string

	incoming    chan *Message
	outgoing    chan *Message
	reconnected chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	sess      *wsSession
	connected bool
	closed    bool
}

// wsSession is one dialed connection. Pumps belonging to a dead
// session stop via its own stop channel so they never touch a
// replacement connection's queues.
type wsSession struct {
	conn *websocket.Conn
	stop chan struct{}
	once sync.Once
}

func (s *wsSession) end() {
	s.once.Do(func() {
		close(s.stop)
		s.conn.Close()
	})
}

// NewClient creates a new relay client for the given websocket URL.
func NewClient(relayURL string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		relayURL:    relayURL,
		incoming:    make(chan *Message, 32),
		outgoing:    make(chan *Message, 16),
		reconnected: make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Connect establishes the initial WebSocket connection to the relay.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return session.NewError("connect to relay", err)
	}
	c.startSession(conn)
	return nil
}

// dial opens a websocket connection, resolving the relay host through
// the fallback-capable DNS lookup.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.relayURL)
	if err != nil {
		return nil, session.WrapError("dial", err, "invalid relay URL")
	}

	dialer := *websocket.DefaultDialer
	dialer.NetDialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		resolvedIP, err := dns.Lookup(host)
		if err != nil {
			return nil, session.NewError("dns lookup", err)
		}
		d := new(net.Dialer)
		return d.DialContext(ctx, network, net.JoinHostPort(resolvedIP, port))
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client) startSession(conn *websocket.Conn) {
	sess := &wsSession{conn: conn, stop: make(chan struct{})}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.mu.Lock()
	c.sess = sess
	c.connected = true
	c.mu.Unlock()

	go c.readPump(sess)
	go c.writePump(sess)
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump(sess *wsSession) {
	defer c.dropSession(sess)

	for {
		var msg Message
		if err := sess.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case c.incoming <- &msg:
		case <-sess.stop:
			return
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump writes messages to the WebSocket connection and sends
// periodic pings.
func (c *Client) writePump(sess *wsSession) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.dropSession(sess)
	}()

	for {
		select {
		case msg := <-c.outgoing:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-sess.stop:
			return

		case <-c.ctx.Done():
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// dropSession tears down a dead connection and, unless the client was
// closed, kicks off the redial loop. Only the first pump to notice the
// failure gets to start it.
func (c *Client) dropSession(sess *wsSession) {
	sess.end()

	c.mu.Lock()
	if c.closed || c.sess != sess || !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.mu.Unlock()

	slog.Warn("relay connection lost, reconnecting")
	go c.redial()
}

// redial retries the relay connection until it succeeds or the client
// is closed. The backoff never gives up on its own: the room session
// decides when to stop trying.
func (c *Client) redial() {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0

	operation := func() error {
		conn, err := c.dial(c.ctx)
		if err != nil {
			return err
		}
		c.startSession(conn)
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, c.ctx)); err != nil {
		return
	}

	slog.Info("relay connection restored")
	select {
	case c.reconnected <- struct{}{}:
	default:
	}
}

// Invoke sends a relay event. It fails immediately with
// session.ErrNotConnected while the transport is down.
func (c *Client) Invoke(msg *Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return session.ErrRoomClosed
	}
	if !c.connected {
		c.mu.Unlock()
		return session.ErrNotConnected
	}
	c.mu.Unlock()

	select {
	case c.outgoing <- msg:
		return nil
	case <-c.ctx.Done():
		return session.ErrRoomClosed
	case <-time.After(writeWait):
		return session.WrapError("invoke", session.ErrTimeout, msg.Event)
	}
}

// Incoming returns the channel of inbound relay events, in arrival order.
func (c *Client) Incoming() <-chan *Message {
	return c.incoming
}

// Reconnected signals each time the transport has been re-established
// after a loss. Membership state is not rebuilt automatically.
func (c *Client) Reconnected() <-chan struct{} {
	return c.reconnected
}

// Connected reports whether the transport is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close releases the connection and stops any reconnect attempts.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	sess := c.sess
	c.mu.Unlock()

	c.cancel()
	if sess != nil {
		sess.end()
	}
}
