// Package domain defines the value model, field schemas, filter conditions,
// dashboard configuration and pivot response types shared by the engine.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate registration).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// === Configuration errors ===

// SchemaNotFoundError indicates an unknown data source id.
type SchemaNotFoundError struct {
	DataSourceID string
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("data source %q not found", e.DataSourceID)
}

// FieldNotFoundError indicates a field id that is not part of the data source.
type FieldNotFoundError struct {
	DataSourceID string
	FieldID      string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found in data source %q", e.FieldID, e.DataSourceID)
}

// InvalidConfigError collects every problem found while validating a
// dashboard configuration against its schema.
type InvalidConfigError struct {
	DataSourceID string
	FieldIDs     []string
	Problems     []string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid dashboard config for %q: %s", e.DataSourceID, strings.Join(e.Problems, "; "))
}

// Add records a validation problem; each offending field id is listed once.
// An empty fieldID records a problem of the configuration as a whole.
func (e *InvalidConfigError) Add(fieldID, format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
	if fieldID == "" {
		return
	}
	for _, id := range e.FieldIDs {
		if id == fieldID {
			return
		}
	}
	e.FieldIDs = append(e.FieldIDs, fieldID)
}

// Empty reports whether no problem has been recorded.
func (e *InvalidConfigError) Empty() bool { return len(e.Problems) == 0 }

// UnsupportedAggregateError indicates an aggregate over a non-numeric field.
type UnsupportedAggregateError struct {
	FieldID   string
	Function  AggregateFunction
	ValueType ValueType
}

func (e *UnsupportedAggregateError) Error() string {
	return fmt.Sprintf("aggregate %s is not supported for field %q of type %s", e.Function, e.FieldID, e.ValueType)
}

// IsConfigurationError reports whether err was caused by a malformed
// dashboard configuration rather than by the data source.
func IsConfigurationError(err error) bool {
	var schemaNotFound *SchemaNotFoundError
	var fieldNotFound *FieldNotFoundError
	var invalid *InvalidConfigError
	var unsupported *UnsupportedAggregateError
	return errors.As(err, &schemaNotFound) ||
		errors.As(err, &fieldNotFound) ||
		errors.As(err, &invalid) ||
		errors.As(err, &unsupported)
}

// === Condition errors ===

// Reasons a single filter condition cannot be compiled. Match with errors.Is.
var (
	ErrEmptyInList            = errors.New("in-list condition has no values")
	ErrUnresolvableDatePreset = errors.New("date preset cannot be resolved")
	ErrInvalidValue           = errors.New("condition value does not match field type")
	ErrIncompatibleCondition  = errors.New("condition is not applicable to field type")
)

// ConditionError reports a malformed condition by its id so a UI can
// highlight it.
type ConditionError struct {
	ConditionID string
	FieldID     string
	Err         error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %s on field %q: %v", e.ConditionID, e.FieldID, e.Err)
}

func (e *ConditionError) Unwrap() error { return e.Err }

// === Data errors ===

// DataError wraps a driver failure. The message is deliberately generic; the
// cause is available through Unwrap for logging only.
type DataError struct {
	Op  string
	Err error
}

func (e *DataError) Error() string { return "data source query failed" }

func (e *DataError) Unwrap() error { return e.Err }
