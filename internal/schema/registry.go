// Package schema holds the immutable field registry that dashboard
// configurations are resolved against.
package schema

import (
	"reflect"

	"dashquery/internal/domain"
)

type entry struct {
	schema domain.DataSourceSchema
	fields map[string]domain.FieldDef
}

// Registry maps data source ids to their schemas. It is built once at
// startup and never mutated afterwards, so it is safe for concurrent use
// without locking.
type Registry struct {
	order   []string
	entries map[string]*entry
}

// Builder collects schemas before the registry is frozen.
type Builder struct {
	reg *Registry
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{reg: &Registry{entries: map[string]*entry{}}}
}

// Register validates s and adds it. Re-registering an identical schema is a
// no-op; a different schema under an existing id fails.
func (b *Builder) Register(s domain.DataSourceSchema) error {
	if b.reg == nil {
		return domain.ErrConflict("registry already built")
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if existing, exists := b.reg.entries[s.ID]; exists {
		if reflect.DeepEqual(existing.schema, s) {
			return nil
		}
		return domain.ErrConflict("data source %q is already registered", s.ID)
	}

	fields := make(map[string]domain.FieldDef, len(s.Fields))
	copied := s
	copied.Fields = append([]domain.FieldDef(nil), s.Fields...)
	for _, f := range copied.Fields {
		fields[f.ID] = f
	}
	b.reg.entries[s.ID] = &entry{schema: copied, fields: fields}
	b.reg.order = append(b.reg.order, s.ID)
	return nil
}

// Build freezes the registry. The builder cannot be used afterwards.
func (b *Builder) Build() *Registry {
	reg := b.reg
	b.reg = nil
	if reg == nil {
		return &Registry{entries: map[string]*entry{}}
	}
	return reg
}

// NewRegistry registers all schemas and freezes the result.
func NewRegistry(schemas ...domain.DataSourceSchema) (*Registry, error) {
	b := NewBuilder()
	for _, s := range schemas {
		if err := b.Register(s); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Resolve returns the schema of a data source.
func (r *Registry) Resolve(dataSourceID string) (domain.DataSourceSchema, error) {
	e, ok := r.entries[dataSourceID]
	if !ok {
		return domain.DataSourceSchema{}, &domain.SchemaNotFoundError{DataSourceID: dataSourceID}
	}
	out := e.schema
	out.Fields = append([]domain.FieldDef(nil), e.schema.Fields...)
	return out, nil
}

// Field returns one field of a data source.
func (r *Registry) Field(dataSourceID, fieldID string) (domain.FieldDef, error) {
	e, ok := r.entries[dataSourceID]
	if !ok {
		return domain.FieldDef{}, &domain.SchemaNotFoundError{DataSourceID: dataSourceID}
	}
	f, ok := e.fields[fieldID]
	if !ok {
		return domain.FieldDef{}, &domain.FieldNotFoundError{DataSourceID: dataSourceID, FieldID: fieldID}
	}
	return f, nil
}

// List returns all schemas in registration order.
func (r *Registry) List() []domain.DataSourceSchema {
	out := make([]domain.DataSourceSchema, 0, len(r.order))
	for _, id := range r.order {
		s := r.entries[id].schema
		s.Fields = append([]domain.FieldDef(nil), s.Fields...)
		out = append(out, s)
	}
	return out
}

// Len returns the number of registered data sources.
func (r *Registry) Len() int { return len(r.order) }
