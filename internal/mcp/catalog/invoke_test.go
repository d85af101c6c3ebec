package catalog

import (
	"context"
	"reflect"
	"testing"

	"github.com/clinovate/cliniko-mcp/internal/cliniko"
	"github.com/clinovate/cliniko-mcp/internal/mcp/dispatch"
	"github.com/clinovate/cliniko-mcp/internal/mcp/registry"
)

// newStubDispatcher wires the full catalog over stub gateways behind a sealed
// registry, exercising the invocation path end to end.
func newStubDispatcher(t *testing.T) (*dispatch.Dispatcher, map[string]*stubAPI) {
	t.Helper()
	reg := registry.New()
	entities, apis := stubEntities()
	if err := Register(reg, entities); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Seal()
	return dispatch.New(reg), apis
}

func TestInvokeListWithoutFilterUsesEmptyFilter(t *testing.T) {
	d, apis := newStubDispatcher(t)
	apis["patient"].listQuery = "sentinel"

	resp := d.Invoke(context.Background(), "list_patients", nil)
	if !resp.OK {
		t.Fatalf("expected success, got %+v", resp.Err)
	}
	if apis["patient"].listQuery != "" {
		t.Fatalf("expected empty filter passed to gateway, got %q", apis["patient"].listQuery)
	}
}

func TestInvokeMissingIDNeverReachesGateway(t *testing.T) {
	d, apis := newStubDispatcher(t)

	for _, name := range []string{"get_patient", "update_patient", "delete_patient"} {
		args := map[string]any{"patient": map[string]any{}}
		resp := d.Invoke(context.Background(), name, args)
		if resp.Err == nil || resp.Err.Kind != dispatch.FaultInvalidArgument {
			t.Fatalf("%s: expected invalid_argument, got %+v", name, resp.Err)
		}
	}
	if len(apis["patient"].calls) != 0 {
		t.Fatalf("expected no gateway calls, got %v", apis["patient"].calls)
	}
}

func TestInvokeGetIsIdempotent(t *testing.T) {
	d, apis := newStubDispatcher(t)
	apis["patient"].getRecord = cliniko.Record{"id": int64(42), "first_name": "Ada"}

	args := map[string]any{"patient_id": float64(42)}
	first := d.Invoke(context.Background(), "get_patient", args)
	second := d.Invoke(context.Background(), "get_patient", args)

	if !first.OK || !second.OK {
		t.Fatalf("expected both invocations to succeed: %+v, %+v", first.Err, second.Err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical envelopes, got %+v vs %+v", first, second)
	}
}

func TestInvokeCreatePatientEchoScenario(t *testing.T) {
	d, _ := newStubDispatcher(t)

	resp := d.Invoke(context.Background(), "create_patient", map[string]any{
		"patient": map[string]any{"name": "Jane Doe"},
	})
	if !resp.OK || resp.Err != nil {
		t.Fatalf("expected success, got %+v", resp.Err)
	}
	record, ok := resp.Payload.(cliniko.Record)
	if !ok {
		t.Fatalf("expected record payload, got %T", resp.Payload)
	}
	if record["id"] != int64(7) || record["name"] != "Jane Doe" {
		t.Fatalf("expected echoed record with assigned id, got %v", record)
	}
}
