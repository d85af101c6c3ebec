// Package catalog builds the operation and resource catalog for the
// practice-management entities. Each entity kind gets the same five CRUD
// operations, generated from one table and bound to the upstream gateway
// through a uniform interface.
package catalog

import (
	"context"
	"fmt"

	"github.com/clinovate/cliniko-mcp/internal/cliniko"
	"github.com/clinovate/cliniko-mcp/internal/mcp/registry"
)

// EntityAPI is the gateway surface the catalog binds operations to. The
// production implementation is *cliniko.EntityClient; tests substitute stubs.
type EntityAPI interface {
	List(ctx context.Context, query string) ([]cliniko.Record, error)
	Get(ctx context.Context, id int64) (cliniko.Record, error)
	Create(ctx context.Context, fields cliniko.Record) (cliniko.Record, error)
	Update(ctx context.Context, id int64, fields cliniko.Record) (cliniko.Record, error)
	Delete(ctx context.Context, id int64) (cliniko.Record, error)
}

// Entity describes one entity kind exposed through the catalog.
type Entity struct {
	// Kind is the singular name used in operation and parameter names.
	Kind string
	// Plural is the collection name used for list operations and payload keys.
	Plural string
	// Resources reports whether the entity also gets URI-addressable resources.
	Resources bool
	// API is the gateway binding for this entity.
	API EntityAPI
}

// Entities returns the standard entity table bound to a gateway client.
func Entities(client *cliniko.Client) []Entity {
	return []Entity{
		{Kind: "patient", Plural: "patients", Resources: true, API: client.Patients()},
		{Kind: "appointment", Plural: "appointments", Resources: true, API: client.Appointments()},
		{Kind: "invoice", Plural: "invoices", API: client.Invoices()},
		{Kind: "practitioner", Plural: "practitioners", API: client.Practitioners()},
	}
}

// Register adds the five CRUD operations for every entity to the registry.
func Register(reg *registry.Registry, entities []Entity) error {
	for _, entity := range entities {
		for _, op := range entityOperations(entity) {
			if err := reg.Register(op); err != nil {
				return fmt.Errorf("register %s operations: %w", entity.Kind, err)
			}
		}
	}
	return nil
}

// entityOperations generates the CRUD operation set for one entity. Operation
// names follow <action>_<entity>; list uses the plural form.
func entityOperations(entity Entity) []registry.Operation {
	kind := entity.Kind
	plural := entity.Plural
	api := entity.API
	idParam := registry.Param{
		Name:        kind + "_id",
		Type:        registry.TypeInt,
		Required:    true,
		Description: kind + " identifier",
	}
	fieldsParam := registry.Param{
		Name:        kind,
		Type:        registry.TypeObject,
		Required:    true,
		Description: kind + " fields",
	}

	return []registry.Operation{
		{
			Name:        "list_" + plural,
			Kind:        registry.KindList,
			Entity:      kind,
			Description: fmt.Sprintf("List/search all %s", plural),
			Params: []registry.Param{
				{Name: "q", Type: registry.TypeString, Default: "", Description: "free-text filter; empty matches all"},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				query, _ := args["q"].(string)
				records, err := api.List(ctx, query)
				if err != nil {
					return nil, err
				}
				if records == nil {
					records = []cliniko.Record{}
				}
				return map[string]any{plural: records}, nil
			},
		},
		{
			Name:        "get_" + kind,
			Kind:        registry.KindGet,
			Entity:      kind,
			Description: fmt.Sprintf("Get %s by ID", kind),
			Params:      []registry.Param{idParam},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return api.Get(ctx, args[idParam.Name].(int64))
			},
		},
		{
			Name:        "create_" + kind,
			Kind:        registry.KindCreate,
			Entity:      kind,
			Description: fmt.Sprintf("Create new %s", kind),
			Params:      []registry.Param{fieldsParam},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return api.Create(ctx, cliniko.Record(args[kind].(map[string]any)))
			},
		},
		{
			Name:        "update_" + kind,
			Kind:        registry.KindUpdate,
			Entity:      kind,
			Description: fmt.Sprintf("Update %s details", kind),
			Params:      []registry.Param{idParam, fieldsParam},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return api.Update(ctx, args[idParam.Name].(int64), cliniko.Record(args[kind].(map[string]any)))
			},
		},
		{
			Name:        "delete_" + kind,
			Kind:        registry.KindDelete,
			Entity:      kind,
			Description: fmt.Sprintf("Delete (archive) a %s", kind),
			Params:      []registry.Param{idParam},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				return api.Delete(ctx, args[idParam.Name].(int64))
			},
		},
	}
}
