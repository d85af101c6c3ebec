package service

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clinovate/cliniko-mcp/internal/mcp/introspect"
	"github.com/clinovate/cliniko-mcp/internal/platform/config"
)

var listenTCP = net.Listen

// httpEnv holds env-parsed configuration for the HTTP transport.
type httpEnv struct {
	AllowedHosts []string `env:"CLINIKO_MCP_ALLOWED_HOSTS" envSeparator:","`
}

const (
	// channelBufferSize buffers messages on each session's channels so short
	// bursts do not block the protocol runtime or the HTTP handlers.
	channelBufferSize = 10

	// shutdownTimeout bounds graceful HTTP server shutdown.
	shutdownTimeout = 35 * time.Second

	// sessionCleanupInterval is how often idle sessions are swept.
	sessionCleanupInterval = 5 * time.Minute

	// sessionExpiration is how long a session may be idle before it is closed.
	sessionExpiration = 1 * time.Hour

	// sseHeartbeatInterval is how often active streams refresh their liveness
	// timestamp so the sweep never reaps an open connection.
	sseHeartbeatInterval = 30 * time.Second
)

// HTTPTransport serves the MCP catalog over HTTP. Each GET /sse connection
// opens an independent streaming session; POST /message submits invocations
// into an open session; /health and / are stateless diagnostics. Session
// lifecycle is explicit so long-lived agent clients cannot leak resources.
type HTTPTransport struct {
	addr         string
	allowedHosts map[string]struct{}
	server       *mcp.Server
	surface      introspect.Surface
	sessions     map[string]*httpSession
	sessionsMu   sync.RWMutex
	httpServer   *http.Server
	serverCtx    context.Context
	serverCancel context.CancelFunc
}

// httpSession tracks one streaming client: its connection adapter and
// liveness for idle cleanup.
type httpSession struct {
	id        string
	conn      *httpConnection
	createdAt time.Time
	lastUsed  time.Time
}

// NewHTTPTransport creates an HTTP transport. Binding defaults to localhost
// so the default footprint stays local unless hosts are configured.
func NewHTTPTransport(addr string) *HTTPTransport {
	if addr == "" {
		addr = "localhost:8000"
	}
	var raw httpEnv
	_ = config.ParseEnv(&raw)
	ctx, cancel := context.WithCancel(context.Background())
	return &HTTPTransport{
		addr:         addr,
		allowedHosts: parseAllowedHosts(raw.AllowedHosts),
		sessions:     make(map[string]*httpSession),
		serverCtx:    ctx,
		serverCancel: cancel,
	}
}

// NewHTTPTransportWithServer creates an HTTP transport bound to a configured
// server. The transport serves the server's protocol runtime and its
// introspection surface.
func NewHTTPTransportWithServer(addr string, server *Server) *HTTPTransport {
	transport := NewHTTPTransport(addr)
	if server != nil {
		transport.server = server.mcpServer
		transport.surface = server.Surface()
	}
	return transport
}

// Start runs the HTTP server until the context is cancelled or the listener
// fails. One connection's framing error never terminates the process; only a
// listener-level failure propagates.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.serverCtx, t.serverCancel = context.WithCancel(ctx)

	go t.cleanupSessions(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/sse", t.handleSSE)
	mux.HandleFunc("/message", t.handleMessage)
	mux.HandleFunc("/health", t.handleHealth)
	mux.HandleFunc("/", t.handleRoot)

	t.httpServer = &http.Server{
		Addr:    t.addr,
		Handler: mux,
	}

	log.Printf("Starting MCP HTTP server on %s", t.addr)

	errChan := make(chan error, 1)
	go func() {
		listener, err := listenTCP("tcp", t.addr)
		if err != nil {
			errChan <- err
			return
		}
		if err := t.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		if t.serverCancel != nil {
			t.serverCancel()
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

// validateLocalRequest enforces host access to mitigate DNS rebinding: Host
// and Origin headers must resolve to loopback or a configured allowed host.
func (t *HTTPTransport) validateLocalRequest(r *http.Request) error {
	if r == nil {
		return fmt.Errorf("invalid request")
	}
	if !t.isAllowedHostHeader(r.Host) {
		return fmt.Errorf("invalid host")
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return nil
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid origin")
	}
	if !t.isAllowedHostHeader(parsed.Host) {
		return fmt.Errorf("invalid origin")
	}
	return nil
}

// isAllowedHostHeader reports whether a Host/Origin header resolves to an
// allowed host. Loopback always passes.
func (t *HTTPTransport) isAllowedHostHeader(host string) bool {
	resolved, ok := normalizeHost(host)
	if !ok {
		return false
	}
	if isLoopbackHost(resolved) {
		return true
	}
	if len(t.allowedHosts) == 0 {
		return false
	}
	_, ok = t.allowedHosts[strings.ToLower(resolved)]
	return ok
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

func parseAllowedHosts(hosts []string) map[string]struct{} {
	result := make(map[string]struct{}, len(hosts))
	for _, entry := range hosts {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		result[strings.ToLower(trimmed)] = struct{}{}
	}
	return result
}

// normalizeHost extracts the hostname portion from Host/Origin header values,
// tolerating bracketed IPv6 literals and bare ports.
func normalizeHost(host string) (string, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", false
	}
	if strings.HasPrefix(host, "[") {
		if splitHost, _, err := net.SplitHostPort(host); err == nil {
			return splitHost, true
		}
		if strings.HasSuffix(host, "]") {
			return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), true
		}
		return "", false
	}
	if strings.Count(host, ":") > 1 {
		return host, true
	}
	if strings.Contains(host, ":") {
		splitHost, _, err := net.SplitHostPort(host)
		if err != nil {
			return "", false
		}
		return splitHost, true
	}
	return host, true
}
