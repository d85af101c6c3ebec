package service

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clinovate/cliniko-mcp/internal/cliniko"
)

// TestRunUnsupportedTransport ensures Run rejects unknown transport kinds.
func TestRunUnsupportedTransport(t *testing.T) {
	err := Run(context.Background(), Config{
		Transport: "websocket",
		Cliniko:   cliniko.Config{APIKey: "test-key"},
	})
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("expected 'not supported' in error, got: %v", err)
	}
}

// TestRunRequiresAPIKey ensures transport startup fails fast without gateway credentials.
func TestRunRequiresAPIKey(t *testing.T) {
	err := Run(context.Background(), Config{Transport: TransportStdio})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "API key") {
		t.Errorf("expected API key error, got: %v", err)
	}
}

// TestServeWithTransportNilServer ensures serveWithTransport reports misconfiguration.
func TestServeWithTransportNilServer(t *testing.T) {
	var nilServer *Server
	if err := nilServer.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for nil server")
	}

	emptyServer := &Server{}
	if err := emptyServer.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for missing protocol runtime")
	}
}
