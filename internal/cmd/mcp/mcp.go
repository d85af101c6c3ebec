// Package mcp parses MCP command flags and selects stdio or SSE transport.
package mcp

import (
	"context"
	"flag"
	"log"
	"net"
	"time"

	"github.com/clinovate/cliniko-mcp/internal/cliniko"
	"github.com/clinovate/cliniko-mcp/internal/mcp/service"
	"github.com/clinovate/cliniko-mcp/internal/platform/config"
	"github.com/clinovate/cliniko-mcp/internal/platform/otel"
)

// Config holds MCP command configuration.
type Config struct {
	Host      string `env:"HOST"          envDefault:"0.0.0.0"`
	Port      string `env:"PORT"          envDefault:"8000"`
	Transport string `env:"MCP_TRANSPORT" envDefault:"sse"`
	Cliniko   cliniko.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP bind host (for sse transport)")
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP bind port (for sse transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or sse")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP gateway.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "cliniko-mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	return service.Run(ctx, service.Config{
		Transport: service.TransportKind(cfg.Transport),
		HTTPAddr:  net.JoinHostPort(cfg.Host, cfg.Port),
		Cliniko:   cfg.Cliniko,
	})
}
