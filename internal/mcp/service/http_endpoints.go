package service

import (
	"encoding/json"
	"log"
	"net/http"
)

// handleHealth reports liveness. The payload is fixed-shape so probes can
// key on it without parsing the catalog.
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{
		"status":    "healthy",
		"service":   serverName,
		"transport": "sse",
		"version":   serverVersion,
	})
}

// handleRoot describes the service: identity, endpoint map, and the live
// operation catalog. The summary is computed per request so it always
// reflects what is actually registered.
func (t *HTTPTransport) handleRoot(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary := t.surface.Summary()
	writeJSON(w, map[string]any{
		"service": serverName,
		"version": serverVersion,
		"status":  "running",
		"endpoints": map[string]string{
			"sse":     "/sse",
			"message": "/message",
			"health":  "/health",
		},
		"tools_count": summary.Count,
		"tools":       summary.Names,
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
