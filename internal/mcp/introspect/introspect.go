// Package introspect provides read-only reporting of the registered
// operation catalog for diagnostic endpoints. This path must stay available
// even during partial startup failure, so it never returns an error.
package introspect

import "github.com/clinovate/cliniko-mcp/internal/mcp/registry"

// Summary is a snapshot of the live operation catalog.
type Summary struct {
	Count int      `json:"tools_count"`
	Names []string `json:"tools"`
}

// Surface reports on a registry. The zero value reports an empty catalog.
type Surface struct {
	reg *registry.Registry
}

// NewSurface creates a surface over a registry. A nil registry is valid and
// yields empty summaries.
func NewSurface(reg *registry.Registry) Surface {
	return Surface{reg: reg}
}

// Summary returns the current operation count and insertion-ordered names.
// Names is never nil so JSON encodings stay stable for empty catalogs.
func (s Surface) Summary() Summary {
	names := []string{}
	if s.reg != nil {
		for _, op := range s.reg.Operations() {
			names = append(names, op.Name)
		}
	}
	return Summary{Count: len(names), Names: names}
}
