package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// connectTestClient serves a catalog-backed server over in-memory transports
// and returns a connected client session.
func connectTestClient(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientCtx, clientCancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(clientCancel)

	session, err := client.Connect(clientCtx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
		cancel()
		select {
		case err := <-serveErr:
			if err != nil {
				t.Errorf("serve returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("serve did not stop after cancel")
		}
	})
	return session
}

func TestServerExposesFullToolCatalog(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(result.Tools) != 20 {
		t.Fatalf("expected 20 tools, got %d", len(result.Tools))
	}

	names := make(map[string]bool, len(result.Tools))
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"list_patients", "get_patient", "create_patient", "update_patient", "delete_patient",
		"list_appointments", "get_appointment",
		"list_invoices", "delete_invoice",
		"list_practitioners", "update_practitioner",
	} {
		if !names[want] {
			t.Errorf("expected tool %q in catalog", want)
		}
	}
}

func TestCallToolReturnsPayloadJSON(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_patient",
		Arguments: map[string]any{"patient_id": 42},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error content: %v", result.Content)
	}

	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["id"] != float64(42) {
		t.Fatalf("expected id 42 in payload, got %v", payload)
	}
}

func TestCallToolMissingArgumentIsFault(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_patient",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing argument")
	}
	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "invalid_argument") {
		t.Fatalf("expected invalid_argument fault, got %q", text)
	}
	if !strings.Contains(text, "patient_id") {
		t.Fatalf("expected fault to name the missing parameter, got %q", text)
	}
}

func TestCallToolSequentialOrdering(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Every submitted call yields exactly one result, in order.
	for i := int64(1); i <= 5; i++ {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "get_appointment",
			Arguments: map[string]any{"appointment_id": i},
		})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		text := result.Content[0].(*mcp.TextContent).Text
		var payload map[string]any
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			t.Fatalf("decode payload %d: %v", i, err)
		}
		if payload["id"] != float64(i) {
			t.Fatalf("call %d: expected matching id, got %v", i, payload["id"])
		}
	}
}

func TestReadResourceByTemplate(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "patient://42"})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(result.Contents))
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["id"] != float64(42) {
		t.Fatalf("expected patient 42, got %v", payload)
	}
}

func TestSurfaceReflectsCatalog(t *testing.T) {
	server := newTestServer(t)
	summary := server.Surface().Summary()
	if summary.Count != 20 {
		t.Fatalf("expected 20 operations, got %d", summary.Count)
	}
	if summary.Names[0] != "list_patients" {
		t.Fatalf("expected list_patients first, got %q", summary.Names[0])
	}

	var nilServer *Server
	if got := nilServer.Surface().Summary().Count; got != 0 {
		t.Fatalf("expected empty summary for nil server, got %d", got)
	}
}
