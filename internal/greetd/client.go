package greetd

import (
	"context"
	"net"
	"os"
	"sync"
	"time"
)

// SocketEnv names the environment variable holding the greetd socket path.
const SocketEnv = "GREETD_SOCK"

// DefaultTimeout bounds a single request/response exchange when the context
// carries no deadline. PAM conversations can be slow; this only catches a
// wedged daemon.
const DefaultTimeout = 60 * time.Second

// Transport is one greetd conversation. Client and Demo implement it.
type Transport interface {
	CreateSession(ctx context.Context, username string) (Reply, error)
	// Respond answers the outstanding prompt. nil acknowledges an info
	// message. The slice is not retained.
	Respond(ctx context.Context, response []byte) (Reply, error)
	StartSession(ctx context.Context, cmd, env []string) (Reply, error)
	CancelSession(ctx context.Context) (Reply, error)
	Close() error
}

// Client talks to greetd over its unix socket. Calls are serialized.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// Dial connects to the greetd socket at path.
func Dial(ctx context.Context, path string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, classify("failed to connect to "+path, err)
	}
	return NewClient(conn), nil
}

// DialEnv connects to the socket named by $GREETD_SOCK.
func DialEnv(ctx context.Context) (*Client, error) {
	path := os.Getenv(SocketEnv)
	if path == "" {
		return nil, ErrNoSocket
	}
	return Dial(ctx, path)
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// CreateSession starts authentication for username.
func (c *Client) CreateSession(ctx context.Context, username string) (Reply, error) {
	payload, err := EncodeCreateSession(username)
	if err != nil {
		return Reply{}, NewProtocolError("failed to encode create_session", err)
	}
	return c.roundTrip(ctx, payload)
}

// Respond answers the outstanding auth message. The encoded request is
// wiped before returning.
func (c *Client) Respond(ctx context.Context, response []byte) (Reply, error) {
	payload := EncodeAuthResponse(response)
	defer wipe(payload)
	return c.roundTrip(ctx, payload)
}

// StartSession asks greetd to launch cmd once the greeter exits.
func (c *Client) StartSession(ctx context.Context, cmd, env []string) (Reply, error) {
	payload, err := EncodeStartSession(cmd, env)
	if err != nil {
		return Reply{}, NewProtocolError("failed to encode start_session", err)
	}
	return c.roundTrip(ctx, payload)
}

// CancelSession abandons the current session.
func (c *Client) CancelSession(ctx context.Context) (Reply, error) {
	payload, err := EncodeCancelSession()
	if err != nil {
		return Reply{}, NewProtocolError("failed to encode cancel_session", err)
	}
	return c.roundTrip(ctx, payload)
}

// Close closes the socket. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) roundTrip(ctx context.Context, payload []byte) (Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Reply{}, &Error{Type: ErrTypeClosed, Message: "client is closed"}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Reply{}, classify("failed to set deadline", err)
	}

	// Unblock the exchange if ctx is cancelled mid-flight.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := WriteFrame(c.conn, payload); err != nil {
		return Reply{}, classify("failed to send request", err)
	}
	resp, err := ReadFrame(c.conn)
	if err != nil {
		if ctx.Err() != nil {
			return Reply{}, classify("request cancelled", ctx.Err())
		}
		return Reply{}, classify("failed to read response", err)
	}
	return DecodeReply(resp)
}
