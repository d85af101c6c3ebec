package service

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clinovate/cliniko-mcp/internal/cliniko"
	"github.com/clinovate/cliniko-mcp/internal/mcp/catalog"
)

// Run is the service entrypoint and blocks until context cancellation. The
// transport is chosen once; switching requires a process restart.
func Run(ctx context.Context, cfg Config) error {
	switch cfg.Transport {
	case TransportStdio:
		return runWithTransport(ctx, cfg, &mcp.StdioTransport{})
	case TransportSSE, TransportHTTP:
		return runWithHTTPTransport(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// runWithTransport creates a server bound to the upstream gateway and serves
// it over the provided transport.
func runWithTransport(ctx context.Context, cfg Config, transport mcp.Transport) error {
	server, err := newGatewayServer(cfg)
	if err != nil {
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

// runWithHTTPTransport serves the same catalog over HTTP with SSE streaming
// sessions plus the health and root endpoints.
func runWithHTTPTransport(ctx context.Context, cfg Config) error {
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = "localhost:8000"
	}
	server, err := newGatewayServer(cfg)
	if err != nil {
		return err
	}
	transport := NewHTTPTransportWithServer(httpAddr, server)
	return transport.Start(ctx)
}

// newGatewayServer wires the upstream API client into a catalog-backed server.
func newGatewayServer(cfg Config) (*Server, error) {
	client, err := cliniko.New(cfg.Cliniko)
	if err != nil {
		return nil, fmt.Errorf("configure gateway: %w", err)
	}
	return New(catalog.Entities(client))
}
