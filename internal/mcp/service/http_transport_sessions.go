package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// openSession creates a fresh session, registers it, and connects the
// protocol runtime to its channel adapter. One goroutine per session reads
// submitted messages and writes responses until the session closes.
func (t *HTTPTransport) openSession() (*httpSession, error) {
	if t.server == nil {
		return nil, fmt.Errorf("MCP server is not configured")
	}

	sessionID := generateSessionID()
	conn := newHTTPConnection(sessionID)
	session := &httpSession{
		id:        sessionID,
		conn:      conn,
		createdAt: time.Now(),
		lastUsed:  time.Now(),
	}

	t.sessionsMu.Lock()
	t.sessions[sessionID] = session
	t.sessionsMu.Unlock()

	go func() {
		serverSession, err := t.server.Connect(t.serverCtx, &sessionTransport{conn: conn}, nil)
		if err != nil {
			log.Printf("connect MCP session %s: %v", sessionID, err)
			t.closeSession(sessionID)
			return
		}
		_ = serverSession.Wait()
	}()

	return session, nil
}

// lookupSession returns the open session for an id.
func (t *HTTPTransport) lookupSession(sessionID string) (*httpSession, bool) {
	t.sessionsMu.RLock()
	session, ok := t.sessions[sessionID]
	t.sessionsMu.RUnlock()
	return session, ok
}

// touchSession refreshes a session's liveness timestamp.
func (t *HTTPTransport) touchSession(sessionID string) {
	t.sessionsMu.Lock()
	if session, ok := t.sessions[sessionID]; ok {
		session.lastUsed = time.Now()
	}
	t.sessionsMu.Unlock()
}

// closeSession closes a session's connection and removes it from the table.
func (t *HTTPTransport) closeSession(sessionID string) {
	t.sessionsMu.Lock()
	session, ok := t.sessions[sessionID]
	if ok {
		delete(t.sessions, sessionID)
	}
	t.sessionsMu.Unlock()
	if ok {
		_ = session.conn.Close()
	}
}

// cleanupSessions periodically sweeps sessions idle beyond the expiration
// window. Active streams refresh lastUsed on a heartbeat, so only abandoned
// sessions are reaped.
func (t *HTTPTransport) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-sessionExpiration)
			t.sessionsMu.Lock()
			for id, session := range t.sessions {
				if session.lastUsed.Before(cutoff) {
					_ = session.conn.Close()
					delete(t.sessions, id)
				}
			}
			t.sessionsMu.Unlock()
		}
	}
}

// sessionTransport returns a pre-existing connection so the protocol runtime
// can be attached to one session's channel adapter.
type sessionTransport struct {
	conn *httpConnection
}

// Connect implements mcp.Transport.Connect.
func (st *sessionTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	return st.conn, nil
}

var sessionCounter atomic.Uint64

// generateSessionID produces a unique session id from crypto/rand plus a
// counter; the counter alone keeps ids unique if the random read fails.
func generateSessionID() string {
	counter := sessionCounter.Add(1)
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("session_%d_%d", time.Now().UnixNano(), counter)
	}
	return fmt.Sprintf("session_%s_%d", hex.EncodeToString(b), counter)
}
