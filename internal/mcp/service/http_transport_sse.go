package service

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// handleSSE handles GET /sse, the persistent streaming channel. Each
// connection is a new logical session: the first frame is an endpoint event
// naming the message-submission URL for this session, and every message the
// protocol runtime emits afterwards is delivered as a discrete event on the
// same connection. Closing the connection ends the session.
func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	session, err := t.openSession()
	if err != nil {
		log.Printf("open session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	defer t.closeSession(session.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The endpoint event tells the client where to POST invocations for
	// this session.
	endpoint := "/message?" + url.Values{"session_id": {session.id}}.Encode()
	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpoint)
	flusher.Flush()

	ctx := r.Context()
	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-session.conn.closed:
			return
		case <-ticker.C:
			t.touchSession(session.id)
		case msg := <-session.conn.outgoing:
			t.touchSession(session.id)
			data, err := jsonrpc.EncodeMessage(msg)
			if err != nil {
				log.Printf("encode SSE message for session %s: %v", session.id, err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
