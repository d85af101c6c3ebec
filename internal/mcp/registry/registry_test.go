package registry

import (
	"context"
	"errors"
	"testing"
)

func noopHandler(context.Context, map[string]any) (any, error) {
	return nil, nil
}

func noopRead(context.Context, string) (any, error) {
	return nil, nil
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	reg := New()
	op := Operation{Name: "list_patients", Kind: KindList, Entity: "patient", Handler: noopHandler}
	if err := reg.Register(op); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := reg.Register(op)
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if got := len(reg.Operations()); got != 1 {
		t.Fatalf("expected catalog unchanged with 1 operation, got %d", got)
	}
}

func TestRegisterRejectsMissingHandler(t *testing.T) {
	reg := New()
	if err := reg.Register(Operation{Name: "get_patient", Kind: KindGet, Entity: "patient"}); err == nil {
		t.Fatal("expected error for missing handler")
	}
	if got := len(reg.Operations()); got != 0 {
		t.Fatalf("expected empty catalog after failed registration, got %d", got)
	}
}

func TestRegisterAfterSealFails(t *testing.T) {
	reg := New()
	reg.Seal()
	err := reg.Register(Operation{Name: "list_patients", Kind: KindList, Handler: noopHandler})
	if !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
	err = reg.RegisterResource(Resource{URI: "patient://{id}", Template: true, Handler: noopRead})
	if !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed for resource, got %v", err)
	}
}

func TestResolveUnknownOperation(t *testing.T) {
	reg := New()
	reg.Seal()
	_, err := reg.Resolve("frobnicate_patient")
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestResolveIsStableAcrossCalls(t *testing.T) {
	reg := New()
	op := Operation{Name: "get_patient", Kind: KindGet, Entity: "patient", Handler: noopHandler}
	if err := reg.Register(op); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Seal()

	first, err := reg.Resolve("get_patient")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := reg.Resolve("get_patient")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first.Name != second.Name || first.Kind != second.Kind || first.Entity != second.Entity {
		t.Fatalf("resolve returned different operations: %+v vs %+v", first, second)
	}
}

func TestOperationsPreserveInsertionOrder(t *testing.T) {
	reg := New()
	names := []string{"list_patients", "get_patient", "create_patient", "update_patient", "delete_patient"}
	for _, name := range names {
		if err := reg.Register(Operation{Name: name, Handler: noopHandler}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	reg.Seal()

	ops := reg.Operations()
	if len(ops) != len(names) {
		t.Fatalf("expected %d operations, got %d", len(names), len(ops))
	}
	for i, op := range ops {
		if op.Name != names[i] {
			t.Fatalf("position %d: expected %q, got %q", i, names[i], op.Name)
		}
	}
}

func TestRegisterResourceRejectsDuplicateURI(t *testing.T) {
	reg := New()
	res := Resource{URI: "patient://{id}", Template: true, Handler: noopRead}
	if err := reg.RegisterResource(res); err != nil {
		t.Fatalf("register resource: %v", err)
	}
	err := reg.RegisterResource(res)
	if !errors.Is(err, ErrDuplicateTemplate) {
		t.Fatalf("expected ErrDuplicateTemplate, got %v", err)
	}
	if got := len(reg.Resources()); got != 1 {
		t.Fatalf("expected 1 resource, got %d", got)
	}
}
