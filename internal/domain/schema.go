package domain

import "strings"

// FieldDef describes one field of a data source.
type FieldDef struct {
	ID               string    `json:"id" yaml:"id"`
	DisplayName      string    `json:"display_name" yaml:"display_name"`
	ValueType        ValueType `json:"value_type" yaml:"value_type"`
	CanGroup         bool      `json:"can_group" yaml:"can_group"`
	CanAggregate     bool      `json:"can_aggregate" yaml:"can_aggregate"`
	DBColumn         string    `json:"db_column" yaml:"db_column"`
	RefDisplayColumn string    `json:"ref_display_column,omitempty" yaml:"ref_display_column,omitempty"`
	SourceTable      string    `json:"source_table,omitempty" yaml:"source_table,omitempty"`
	JoinOnColumn     string    `json:"join_on_column,omitempty" yaml:"join_on_column,omitempty"`
}

// Validate checks the field invariants.
func (f FieldDef) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return ErrValidation("field id is required")
	}
	if strings.TrimSpace(f.DBColumn) == "" {
		return ErrValidation("field %q: db_column is required", f.ID)
	}
	if f.ValueType.IsZero() {
		return ErrValidation("field %q: value_type is required", f.ID)
	}
	if f.CanAggregate && !f.ValueType.IsNumeric() {
		return ErrValidation("field %q: only integer and numeric fields can be aggregated, got %s", f.ID, f.ValueType)
	}
	if (f.SourceTable == "") != (f.JoinOnColumn == "") {
		return ErrValidation("field %q: source_table and join_on_column must be set together", f.ID)
	}
	if f.SourceTable != "" && f.RefDisplayColumn == "" {
		return ErrValidation("field %q: joined fields require ref_display_column", f.ID)
	}
	return nil
}

// Title returns the display name, falling back to the id.
func (f FieldDef) Title() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.ID
}

// Join returns the LEFT JOIN this field needs, if any.
func (f FieldDef) Join() (JoinClause, bool) {
	if f.SourceTable == "" {
		return JoinClause{}, false
	}
	return NewJoin(f.SourceTable, f.JoinOnColumn, f.DBColumn), true
}

// KeyExpr is the field's own column on the base table.
func (f FieldDef) KeyExpr() string {
	return QualifiedColumn(BaseAlias, f.DBColumn)
}

// DisplayExpr is the expression shown for the field: the dictionary display
// column for joined fields, the base column otherwise.
func (f FieldDef) DisplayExpr() string {
	if j, ok := f.Join(); ok {
		return QualifiedColumn(j.Alias, f.RefDisplayColumn)
	}
	return f.KeyExpr()
}

// DataSourceSchema is the field catalog of one data source.
type DataSourceSchema struct {
	ID          string     `json:"id" yaml:"id"`
	DisplayName string     `json:"display_name" yaml:"display_name"`
	Table       string     `json:"table,omitempty" yaml:"table,omitempty"`
	Fields      []FieldDef `json:"fields" yaml:"fields"`
}

// TableName is the physical table; it defaults to the schema id.
func (s DataSourceSchema) TableName() string {
	if s.Table != "" {
		return s.Table
	}
	return s.ID
}

// Validate checks the schema and all of its fields.
func (s DataSourceSchema) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrValidation("data source id is required")
	}
	if len(s.Fields) == 0 {
		return ErrValidation("data source %q has no fields", s.ID)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if err := f.Validate(); err != nil {
			return ErrValidation("data source %q: %v", s.ID, err)
		}
		if seen[f.ID] {
			return ErrValidation("data source %q: duplicate field id %q", s.ID, f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

// Field looks up a field by id.
func (s DataSourceSchema) Field(id string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDef{}, false
}
