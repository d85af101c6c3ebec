// Package service hosts the MCP server over stdio or HTTP/SSE transports.
// The operation catalog is built and sealed before either transport starts
// accepting requests; both transports dispatch into the same sealed registry.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clinovate/cliniko-mcp/internal/cliniko"
	"github.com/clinovate/cliniko-mcp/internal/mcp/catalog"
	"github.com/clinovate/cliniko-mcp/internal/mcp/dispatch"
	"github.com/clinovate/cliniko-mcp/internal/mcp/introspect"
	"github.com/clinovate/cliniko-mcp/internal/mcp/registry"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Cliniko MCP Server"
	// serverVersion identifies the MCP server version.
	serverVersion = "1.0.0"
)

// TransportKind identifies the transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for a single local caller.
	TransportStdio TransportKind = "stdio"
	// TransportSSE runs the server over HTTP with an SSE streaming channel.
	TransportSSE TransportKind = "sse"
	// TransportHTTP is an alias clients use for the SSE-over-HTTP mode.
	TransportHTTP TransportKind = "http"
)

// Config configures the server run.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the bind address for SSE/HTTP mode.
	HTTPAddr string
	// Cliniko configures the upstream API gateway.
	Cliniko cliniko.Config
}

// Server hosts the sealed operation catalog behind an MCP protocol runtime.
type Server struct {
	mcpServer  *mcp.Server
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	surface    introspect.Surface
}

// New builds a server from an entity table: the catalog is registered,
// sealed, and exposed through the protocol runtime as tools and resources.
func New(entities []catalog.Entity) (*Server, error) {
	reg := registry.New()
	if err := catalog.Register(reg, entities); err != nil {
		return nil, err
	}
	if err := catalog.RegisterResources(reg, entities); err != nil {
		return nil, err
	}
	reg.Seal()

	dispatcher := dispatch.New(reg)
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	for _, op := range reg.Operations() {
		mcpServer.AddTool(toolForOperation(op), toolHandler(dispatcher, op.Name))
	}
	for _, res := range reg.Resources() {
		if res.Template {
			mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
				URITemplate: res.URI,
				Name:        res.URI,
				Description: res.Description,
				MIMEType:    "application/json",
			}, resourceHandler(res))
			continue
		}
		mcpServer.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.URI,
			Description: res.Description,
			MIMEType:    "application/json",
		}, resourceHandler(res))
	}

	return &Server{
		mcpServer:  mcpServer,
		registry:   reg,
		dispatcher: dispatcher,
		surface:    introspect.NewSurface(reg),
	}, nil
}

// toolForOperation converts a registered operation into a protocol tool with
// an input schema derived from the declared parameter set.
func toolForOperation(op registry.Operation) *mcp.Tool {
	properties := make(map[string]*jsonschema.Schema, len(op.Params))
	var required []string
	for _, param := range op.Params {
		properties[param.Name] = &jsonschema.Schema{
			Type:        schemaType(param.Type),
			Description: param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}
	return &mcp.Tool{
		Name:        op.Name,
		Description: op.Description,
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

func schemaType(t registry.ParamType) string {
	switch t {
	case registry.TypeInt:
		return "integer"
	case registry.TypeObject:
		return "object"
	default:
		return "string"
	}
}

// toolHandler adapts the dispatcher to the protocol's tool call shape. The
// dispatcher's response envelope is always returned as tool content; faults
// become error results, never protocol-level failures.
func toolHandler(dispatcher *dispatch.Dispatcher, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArguments(req)
		if err != nil {
			return faultResult(dispatch.Fault{
				Kind:    dispatch.FaultInvalidArgument,
				Message: fmt.Sprintf("decode arguments: %v", err),
			}), nil
		}
		return callToolResult(dispatcher.Invoke(ctx, name, args)), nil
	}
}

// decodeArguments extracts the loose argument bag from a tool call request.
// The runtime hands raw JSON to low-level handlers; already-decoded maps are
// accepted for in-process callers.
func decodeArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil || req.Params.Arguments == nil {
		return map[string]any{}, nil
	}
	return unmarshalArguments([]byte(req.Params.Arguments))
}

func unmarshalArguments(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// callToolResult encodes a dispatch response as tool content. Successful
// payloads are serialized as JSON text; faults set the error flag with the
// fault detail as content.
func callToolResult(resp dispatch.Response) *mcp.CallToolResult {
	if resp.Err != nil {
		return faultResult(*resp.Err)
	}
	data, err := json.Marshal(resp.Payload)
	if err != nil {
		return faultResult(dispatch.Fault{
			Kind:    dispatch.FaultUnknown,
			Message: fmt.Sprintf("encode payload: %v", err),
		})
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

func faultResult(fault dispatch.Fault) *mcp.CallToolResult {
	detail, err := json.Marshal(fault)
	if err != nil {
		detail = []byte(fmt.Sprintf("%s: %s", fault.Kind, fault.Message))
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(detail)}},
	}
}

// resourceHandler adapts a registered resource to the protocol's read shape.
func resourceHandler(res registry.Resource) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := res.URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		payload, err := res.Handler(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", uri, err)
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", uri, err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: uri, MIMEType: "application/json", Text: string(data)},
			},
		}, nil
	}
}

// Surface exposes the introspection view over the server's catalog.
func (s *Server) Surface() introspect.Surface {
	if s == nil {
		return introspect.Surface{}
	}
	return s.surface
}

// Dispatcher exposes the invocation path for in-process callers.
func (s *Server) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// serveWithTransport starts the protocol runtime on the provided transport
// and blocks until it stops. Context cancellation is a clean shutdown.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
