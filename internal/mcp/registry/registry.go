// Package registry holds the catalog of invocable operations and readable
// resources. The catalog is built once during startup and sealed before any
// transport begins accepting requests; after sealing it is read-only, so
// concurrent transports can resolve operations without locking.
package registry

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned when an operation name is registered twice.
	ErrDuplicateName = errors.New("operation name already registered")
	// ErrDuplicateTemplate is returned when a resource URI is registered twice.
	ErrDuplicateTemplate = errors.New("resource template already registered")
	// ErrUnknownOperation is returned when resolving a name that was never registered.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrSealed is returned for registration attempts after Seal.
	ErrSealed = errors.New("registry is sealed")
)

// Kind is the CRUD action an operation performs.
type Kind string

const (
	KindList   Kind = "list"
	KindGet    Kind = "get"
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// ParamType is the wire type a parameter is coerced to before handler invocation.
type ParamType int

const (
	// TypeString accepts JSON strings.
	TypeString ParamType = iota
	// TypeInt accepts JSON numbers and numeric strings, coerced to int64.
	TypeInt
	// TypeObject accepts JSON objects as loosely-typed field bags.
	TypeObject
)

// Param declares one named operation parameter.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Default     any
	Description string
}

// Handler executes one operation against the upstream gateway. The argument
// map has already been validated and coerced per the operation's params.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Operation is a named, schema-typed unit of invocable behavior. Immutable
// once registered.
type Operation struct {
	Name        string
	Kind        Kind
	Entity      string
	Description string
	Params      []Param
	Handler     Handler
}

// ReadHandler resolves a resource URI into a payload.
type ReadHandler func(ctx context.Context, uri string) (any, error)

// Resource is a read-only, URI-addressable view. Template resources carry a
// single {id} placeholder; non-template resources are fixed URIs.
type Resource struct {
	URI         string
	Template    bool
	Description string
	Handler     ReadHandler
}

// Registry is the operation and resource catalog. Not safe for concurrent
// registration; registration happens on the startup goroutine before Seal,
// and reads after Seal need no synchronization.
type Registry struct {
	ops       map[string]Operation
	order     []string
	resources []Resource
	uris      map[string]struct{}
	sealed    bool
}

// New creates an empty, unsealed registry.
func New() *Registry {
	return &Registry{
		ops:  make(map[string]Operation),
		uris: make(map[string]struct{}),
	}
}

// Register adds an operation. It fails on duplicate names, on operations
// without a handler, and on a sealed registry; a failed registration leaves
// the catalog unchanged.
func (r *Registry) Register(op Operation) error {
	if r.sealed {
		return fmt.Errorf("register %q: %w", op.Name, ErrSealed)
	}
	if op.Name == "" {
		return fmt.Errorf("register operation: name is required")
	}
	if op.Handler == nil {
		return fmt.Errorf("register %q: handler is required", op.Name)
	}
	if _, exists := r.ops[op.Name]; exists {
		return fmt.Errorf("register %q: %w", op.Name, ErrDuplicateName)
	}
	r.ops[op.Name] = op
	r.order = append(r.order, op.Name)
	return nil
}

// RegisterResource adds a readable resource. It fails on URI collisions and
// on a sealed registry.
func (r *Registry) RegisterResource(res Resource) error {
	if r.sealed {
		return fmt.Errorf("register resource %q: %w", res.URI, ErrSealed)
	}
	if res.URI == "" {
		return fmt.Errorf("register resource: uri is required")
	}
	if res.Handler == nil {
		return fmt.Errorf("register resource %q: handler is required", res.URI)
	}
	if _, exists := r.uris[res.URI]; exists {
		return fmt.Errorf("register resource %q: %w", res.URI, ErrDuplicateTemplate)
	}
	r.uris[res.URI] = struct{}{}
	r.resources = append(r.resources, res)
	return nil
}

// Resolve returns the operation registered under name.
func (r *Registry) Resolve(name string) (Operation, error) {
	op, ok := r.ops[name]
	if !ok {
		return Operation{}, fmt.Errorf("resolve %q: %w", name, ErrUnknownOperation)
	}
	return op, nil
}

// Operations returns an insertion-ordered snapshot of the catalog.
func (r *Registry) Operations() []Operation {
	out := make([]Operation, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.ops[name])
	}
	return out
}

// Resources returns an insertion-ordered snapshot of readable resources.
func (r *Registry) Resources() []Resource {
	out := make([]Resource, len(r.resources))
	copy(out, r.resources)
	return out
}

// Seal freezes the registry. Registration after Seal fails; Seal is
// idempotent.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether the registry has been frozen.
func (r *Registry) Sealed() bool {
	return r.sealed
}
