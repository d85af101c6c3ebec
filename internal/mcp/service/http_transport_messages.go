package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// handleMessage handles POST /message, the submission half of the SSE pair.
// Submissions are acknowledged immediately with 202 Accepted; the matching
// response is delivered on the session's streaming channel, not on this
// request. A malformed body or unknown session fails only this request and
// never disturbs other sessions.
func (t *HTTPTransport) handleMessage(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeSessionError(w, "Missing session_id parameter")
		return
	}

	session, ok := t.lookupSession(sessionID)
	if !ok {
		writeSessionError(w, "Invalid or expired session")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeSessionError(w, "Failed to read request body")
		return
	}

	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		writeSessionError(w, "Invalid JSON-RPC message")
		return
	}

	if err := session.conn.submit(r.Context(), msg); err != nil {
		writeSessionError(w, "Session closed")
		return
	}
	t.touchSession(sessionID)

	w.WriteHeader(http.StatusAccepted)
}

// writeSessionError reports a submission failure as a JSON-RPC error body.
// These errors are session-local by construction: they are written to the
// failing request only.
func writeSessionError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      nil,
		"error": map[string]any{
			"code":    -32600,
			"message": message,
		},
	})
}
