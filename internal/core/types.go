// Package core provides the business logic for bulk catalog imports.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FieldKind is the declared type of a canonical field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBoolean
	KindDate
	KindEnum
	KindArraySplit
	KindObjectRef
	KindNestedObject
)

// String returns the lowercase kind name used in endpoint listings.
func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindEnum:
		return "enum"
	case KindArraySplit:
		return "arraySplit"
	case KindObjectRef:
		return "objectRef"
	case KindNestedObject:
		return "nestedObject"
	default:
		return "unknown"
	}
}

// InvalidPolicy decides what happens to a value that fails coercion.
// The zero value records a row error.
type InvalidPolicy int

const (
	DropWithError InvalidPolicy = iota
	DropSilently
)

func (p InvalidPolicy) String() string {
	if p == DropSilently {
		return "drop-silently"
	}
	return "drop-with-error"
}

// DateFormat selects how KindDate values are parsed.
type DateFormat int

const (
	// DateFreeForm accepts any of the layouts in freeFormDateLayouts.
	DateFreeForm DateFormat = iota
	// DateDayMonthYear accepts DD-MM-YYYY (and ISO YYYY-MM-DD) with
	// round-trip validation of the calendar date.
	DateDayMonthYear
)

// FieldSpec declares one canonical field of an import endpoint.
type FieldSpec struct {
	Name       string        // Canonical field name
	Kind       FieldKind     // Expected data type
	Required   bool          // Row is skipped when the field is absent or empty
	OnInvalid  InvalidPolicy // What to do when coercion fails
	EnumValues []int         // Allowed codes for KindEnum
	DateFormat DateFormat    // Parser for KindDate
	Members    []string      // Sub-field names for KindNestedObject
}

// MemberField returns the flat dotted name of a nested member ("advertisement.title").
func (f FieldSpec) MemberField(member string) string {
	return f.Name + "." + member
}

// HeaderMap maps a raw header (exact, case-sensitive) to a canonical field name.
// Headers missing from the map pass through as their own canonical name.
type HeaderMap map[string]string

// Resolve returns the canonical name for a raw header.
func (m HeaderMap) Resolve(raw string) string {
	h := strings.TrimSpace(raw)
	if canonical, ok := m[h]; ok {
		return canonical
	}
	return h
}

// Endpoint is the immutable configuration of one import endpoint.
type Endpoint struct {
	Key        string   // URL key: "reports"
	Label      string   // Display name: "Reports"
	Version    string   // Bumped whenever Headers or Fields change
	Collection string   // Target document collection
	NaturalKey []string // Canonical field(s) used to locate existing documents
	Headers    HeaderMap
	Fields     []FieldSpec
}

// AllowedFields returns the closed set of canonical names a row may carry.
// Nested objects contribute their dotted member names, not their own name.
func (e Endpoint) AllowedFields() map[string]bool {
	allowed := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		if f.Kind == KindNestedObject {
			for _, m := range f.Members {
				allowed[f.MemberField(m)] = true
			}
			continue
		}
		allowed[f.Name] = true
	}
	return allowed
}

// Field returns the spec with the given canonical name.
func (e Endpoint) Field(name string) (FieldSpec, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks the endpoint is internally consistent.
func (e Endpoint) Validate() error {
	if e.Key == "" {
		return fmt.Errorf("endpoint key is empty")
	}
	if e.Collection == "" {
		return fmt.Errorf("endpoint %s: collection is empty", e.Key)
	}
	if len(e.NaturalKey) == 0 {
		return fmt.Errorf("endpoint %s: natural key is empty", e.Key)
	}
	for _, k := range e.NaturalKey {
		spec, ok := e.Field(k)
		if !ok {
			return fmt.Errorf("endpoint %s: natural key %q is not a declared field", e.Key, k)
		}
		if !spec.Required {
			return fmt.Errorf("endpoint %s: natural key %q must be required", e.Key, k)
		}
	}
	allowed := e.AllowedFields()
	for raw, canonical := range e.Headers {
		if !allowed[canonical] {
			return fmt.Errorf("endpoint %s: header %q maps to undeclared field %q", e.Key, raw, canonical)
		}
	}
	for _, f := range e.Fields {
		if f.Kind == KindEnum && len(f.EnumValues) == 0 {
			return fmt.Errorf("endpoint %s: enum field %q has no values", e.Key, f.Name)
		}
		if f.Kind == KindNestedObject && len(f.Members) == 0 {
			return fmt.Errorf("endpoint %s: nested field %q has no members", e.Key, f.Name)
		}
	}
	return nil
}

// Column is one decoded cell together with the header it sat under.
type Column struct {
	Header string
	Value  string
}

// RawRow is one decoded data row. Column order follows the source file.
type RawRow struct {
	Line    int // header is 1, non-blank data rows count up from 2
	Columns []Column
}

// Get returns the value of the last column with the given raw header.
func (r RawRow) Get(header string) (string, bool) {
	for i := len(r.Columns) - 1; i >= 0; i-- {
		if r.Columns[i].Header == header {
			return r.Columns[i].Value, true
		}
	}
	return "", false
}

// Record is a canonical record keyed by canonical field name.
type Record map[string]any

// ImportResult is the final outcome of one import call.
type ImportResult struct {
	RunID          string   `json:"-"`
	Message        string   `json:"message"`
	ProcessedCount int      `json:"processedCount"`
	TotalRows      int      `json:"totalRows"`
	Errors         []string `json:"errors"`
	Success        bool     `json:"success"`
}

// UpsertResult reports what the store did with one record.
type UpsertResult struct {
	Inserted bool
}

// Store persists canonical records by natural key.
//
// Upsert locates the document in collection whose fields equal key. When one
// exists, only the fields in doc are overwritten; other stored fields are left
// as they are. Otherwise a new document containing doc is inserted.
type Store interface {
	Upsert(ctx context.Context, collection string, key Record, doc Record) (UpsertResult, error)
	Ping(ctx context.Context) error
}

// ImportRun is the history entry recorded for each completed import.
type ImportRun struct {
	ID             string    `json:"id"`
	Endpoint       string    `json:"endpoint"`
	FileName       string    `json:"fileName"`
	TotalRows      int       `json:"totalRows"`
	ProcessedCount int       `json:"processedCount"`
	ErrorCount     int       `json:"errorCount"`
	DurationMs     int64     `json:"durationMs"`
	StartedAt      time.Time `json:"startedAt"`
}

// RunRecorder is implemented by stores that keep import history.
type RunRecorder interface {
	RecordRun(ctx context.Context, run ImportRun) error
	ListRuns(ctx context.Context, endpoint string, limit int) ([]ImportRun, error)
}
