package core

import (
	"errors"
	"fmt"
)

// Request-level errors. These abort the whole import before any row is touched.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrParse             = errors.New("parse error")
	ErrUnknownEndpoint   = errors.New("unknown import endpoint")
)

// RowErrorKind classifies a row-level failure.
type RowErrorKind int

const (
	SchemaError RowErrorKind = iota
	RequiredFieldMissing
	TypeCoercionError
	ReferenceValidationError
	PersistenceError
	Cancelled
)

func (k RowErrorKind) String() string {
	switch k {
	case SchemaError:
		return "schema"
	case RequiredFieldMissing:
		return "required_field_missing"
	case TypeCoercionError:
		return "type_coercion"
	case ReferenceValidationError:
		return "reference_validation"
	case PersistenceError:
		return "persistence"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RowError is a failure scoped to one input row.
type RowError struct {
	Row    int    // 1-based source row number (header is row 1)
	Field  string // Raw column or canonical field, empty for whole-row errors
	Kind   RowErrorKind
	Detail string
}

// Message renders the error the way it is reported to callers.
func (e RowError) Message() string {
	return fmt.Sprintf("Row %d → %s", e.Row, e.Detail)
}

func (e RowError) Error() string {
	return e.Message()
}

// CoercionError is returned by Coerce when a value cannot be converted.
type CoercionError struct {
	Kind   RowErrorKind // TypeCoercionError or ReferenceValidationError
	Detail string
}

func (e *CoercionError) Error() string {
	return e.Detail
}

func unknownColumn(row int, name string) RowError {
	return RowError{
		Row:    row,
		Field:  name,
		Kind:   SchemaError,
		Detail: fmt.Sprintf("Unknown column: '%s'", name),
	}
}

func missingRequired(row int, name string) RowError {
	return RowError{
		Row:    row,
		Field:  name,
		Kind:   RequiredFieldMissing,
		Detail: fmt.Sprintf("Missing required field '%s'", name),
	}
}

func persistenceFailed(row int, err error) RowError {
	return RowError{
		Row:    row,
		Kind:   PersistenceError,
		Detail: fmt.Sprintf("Failed to save record: %v", err),
	}
}

func importStopped(row int, cause error) RowError {
	return RowError{
		Row:    row,
		Kind:   Cancelled,
		Detail: fmt.Sprintf("Import stopped before this row: %v", cause),
	}
}
