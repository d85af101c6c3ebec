package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// httpConnection implements mcp.Connection for one streaming session.
// Requests submitted via POST /message flow through incoming; everything the
// protocol runtime writes (responses and notifications) flows through
// outgoing and is drained by the session's SSE stream. The single incoming
// channel gives strict FIFO processing within a session.
type httpConnection struct {
	sessionID string
	incoming  chan jsonrpc.Message
	outgoing  chan jsonrpc.Message
	closed    chan struct{}
	closeOnce sync.Once
}

func newHTTPConnection(sessionID string) *httpConnection {
	return &httpConnection{
		sessionID: sessionID,
		incoming:  make(chan jsonrpc.Message, channelBufferSize),
		outgoing:  make(chan jsonrpc.Message, channelBufferSize),
		closed:    make(chan struct{}),
	}
}

// Read implements mcp.Connection.Read. It blocks until a submitted message
// arrives or the session ends.
func (c *httpConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg := <-c.incoming:
		return msg, nil
	case <-c.closed:
		return nil, fmt.Errorf("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write implements mcp.Connection.Write. Every message the runtime emits is
// queued for the session's streaming channel.
func (c *httpConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	select {
	case c.outgoing <- msg:
		return nil
	case <-c.closed:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// submit queues a client message for the protocol runtime.
func (c *httpConnection) submit(ctx context.Context, msg jsonrpc.Message) error {
	select {
	case c.incoming <- msg:
		return nil
	case <-c.closed:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements mcp.Connection.Close. Idempotent; unblocks all waiters.
func (c *httpConnection) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

// SessionID implements mcp.Connection.SessionID.
func (c *httpConnection) SessionID() string {
	return c.sessionID
}
