// Package component models the optional and required units of an
// installation: the immutable catalog, the mutable selection set, and the
// installer configuration derived from both.
package component

import (
	"context"
	"fmt"
	"sort"

	"github.com/pulsar-engine/installer/internal/progress"
)

// Component is one catalog entry. Entries are immutable; user choice lives
// in a Selection.
type Component struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`
	SizeBytes   uint64 `yaml:"size_bytes" json:"size_bytes"`
	Required    bool   `yaml:"required" json:"required"`
}

// Installer places one component's files at the install path. Implemented by
// external collaborators; the pipeline never knows component-specific layout.
type Installer interface {
	ID() string
	Name() string
	Description() string
	SizeBytes() uint64
	IsRequired() bool
	Install(ctx context.Context, installPath string, sink progress.Sink) error
	Uninstall(installPath string) error
	Verify(installPath string) bool
}

// Catalog is an ordered set of components with unique ids.
type Catalog struct {
	components []Component
	byID       map[string]Component
}

// NewCatalog builds a catalog, rejecting duplicate ids.
func NewCatalog(components []Component) (*Catalog, error) {
	byID := make(map[string]Component, len(components))
	for _, c := range components {
		if c.ID == "" {
			return nil, fmt.Errorf("component with empty id")
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate component id %q", c.ID)
		}
		byID[c.ID] = c
	}
	return &Catalog{components: append([]Component(nil), components...), byID: byID}, nil
}

// Components returns the catalog entries in declaration order.
func (c *Catalog) Components() []Component {
	return append([]Component(nil), c.components...)
}

// Get looks a component up by id.
func (c *Catalog) Get(id string) (Component, bool) {
	comp, ok := c.byID[id]
	return comp, ok
}

// Selection is the mutable set of selected component ids. Every required
// component of the catalog is always a member; Deselect on a required id is
// a no-op.
type Selection struct {
	catalog  *Catalog
	selected map[string]bool
}

// NewSelection starts with exactly the catalog's required components.
func NewSelection(catalog *Catalog) *Selection {
	s := &Selection{catalog: catalog, selected: make(map[string]bool)}
	for _, c := range catalog.components {
		if c.Required {
			s.selected[c.ID] = true
		}
	}
	return s
}

// Select adds a catalog component to the selection. Unknown ids are ignored.
func (s *Selection) Select(id string) {
	if _, ok := s.catalog.byID[id]; ok {
		s.selected[id] = true
	}
}

// Deselect removes a component unless it is required.
func (s *Selection) Deselect(id string) {
	if comp, ok := s.catalog.byID[id]; ok && comp.Required {
		return
	}
	delete(s.selected, id)
}

// IsSelected reports membership.
func (s *Selection) IsSelected(id string) bool {
	return s.selected[id]
}

// IDs returns the selected ids in stable order.
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalSize sums SizeBytes over the ids present in both the selection and
// the catalog. Recomputed on every call rather than maintained incrementally
// so it cannot drift if the selection mutates out of band.
func (s *Selection) TotalSize() uint64 {
	var total uint64
	for id := range s.selected {
		if comp, ok := s.catalog.byID[id]; ok {
			total += comp.SizeBytes
		}
	}
	return total
}
