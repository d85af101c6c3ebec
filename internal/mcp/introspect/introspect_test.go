package introspect

import (
	"context"
	"testing"

	"github.com/clinovate/cliniko-mcp/internal/mcp/registry"
)

func TestSummaryZeroValue(t *testing.T) {
	var s Surface
	summary := s.Summary()
	if summary.Count != 0 {
		t.Fatalf("expected zero count, got %d", summary.Count)
	}
	if summary.Names == nil {
		t.Fatal("expected non-nil names for empty catalog")
	}
}

func TestSummaryEmptyRegistry(t *testing.T) {
	s := NewSurface(registry.New())
	summary := s.Summary()
	if summary.Count != 0 || len(summary.Names) != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func TestSummaryReflectsCatalogOrder(t *testing.T) {
	reg := registry.New()
	names := []string{"list_patients", "get_patient", "create_patient"}
	for _, name := range names {
		err := reg.Register(registry.Operation{
			Name: name,
			Handler: func(context.Context, map[string]any) (any, error) {
				return nil, nil
			},
		})
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	reg.Seal()

	summary := NewSurface(reg).Summary()
	if summary.Count != len(names) {
		t.Fatalf("expected count %d, got %d", len(names), summary.Count)
	}
	for i, name := range summary.Names {
		if name != names[i] {
			t.Fatalf("position %d: expected %q, got %q", i, names[i], name)
		}
	}
}
