package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/clinovate/cliniko-mcp/internal/cliniko"
	"github.com/clinovate/cliniko-mcp/internal/mcp/registry"
)

// RegisterResources adds the URI-addressable read views for entities that
// expose them: a <kind>://{id} template bound to the get operation and a
// <plural>://list URI bound to an unfiltered list.
func RegisterResources(reg *registry.Registry, entities []Entity) error {
	for _, entity := range entities {
		if !entity.Resources {
			continue
		}
		kind := entity.Kind
		plural := entity.Plural
		api := entity.API

		template := registry.Resource{
			URI:         kind + "://{id}",
			Template:    true,
			Description: fmt.Sprintf("Get %s by ID", kind),
			Handler: func(ctx context.Context, uri string) (any, error) {
				id, err := parseResourceID(uri, kind)
				if err != nil {
					return nil, err
				}
				return api.Get(ctx, id)
			},
		}
		if err := reg.RegisterResource(template); err != nil {
			return fmt.Errorf("register %s resource: %w", kind, err)
		}

		list := registry.Resource{
			URI:         plural + "://list",
			Description: fmt.Sprintf("List all %s", plural),
			Handler: func(ctx context.Context, _ string) (any, error) {
				records, err := api.List(ctx, "")
				if err != nil {
					return nil, err
				}
				if records == nil {
					records = []cliniko.Record{}
				}
				return map[string]any{plural: records}, nil
			},
		}
		if err := reg.RegisterResource(list); err != nil {
			return fmt.Errorf("register %s list resource: %w", plural, err)
		}
	}
	return nil
}

// parseResourceID extracts the numeric id from a <kind>://{id} URI. Extra
// path segments, queries, and fragments are rejected; those belong to other
// resources.
func parseResourceID(uri, kind string) (int64, error) {
	prefix := kind + "://"
	if !strings.HasPrefix(uri, prefix) {
		return 0, fmt.Errorf("URI must start with %q", prefix)
	}
	raw := strings.TrimSpace(strings.TrimPrefix(uri, prefix))
	if raw == "" {
		return 0, fmt.Errorf("%s ID is required in URI", kind)
	}
	if strings.ContainsAny(raw, "/?#") {
		return 0, fmt.Errorf("URI must not contain path segments, query parameters, or fragments after the %s ID", kind)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID %q", kind, raw)
	}
	return id, nil
}
