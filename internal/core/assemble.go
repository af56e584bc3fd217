package core

import (
	"errors"
	"strings"
)

// OutcomeKind tags a RowOutcome.
type OutcomeKind int

const (
	// OutcomeComplete: every present value coerced cleanly.
	OutcomeComplete OutcomeKind = iota
	// OutcomePartial: the record is usable but some fields were dropped.
	OutcomePartial
	// OutcomeSkipped: the row must not be persisted.
	OutcomeSkipped
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeComplete:
		return "complete"
	case OutcomePartial:
		return "partial"
	default:
		return "skipped"
	}
}

// RowOutcome is the result of turning one raw row into a canonical record.
type RowOutcome struct {
	Kind    OutcomeKind
	Row     int
	Record  Record     // nil when skipped
	Dropped []string   // canonical fields removed during coercion
	Reason  string     // why the row was skipped
	Errors  []RowError // every error recorded for the row, in field order
}

// Persistable reports whether the record should reach the store.
func (o RowOutcome) Persistable() bool {
	return o.Kind != OutcomeSkipped
}

// BuildRow runs normalisation, coercion and assembly for one raw row.
// Callers building many rows of one endpoint should use a RowBuilder.
func BuildRow(row RawRow, ep Endpoint) RowOutcome {
	return NewRowBuilder(ep).Build(row)
}

// RowBuilder builds rows for one endpoint. The allowed field set is
// resolved once, when the builder is created.
type RowBuilder struct {
	ep      Endpoint
	allowed map[string]bool
}

// NewRowBuilder prepares a builder for ep.
func NewRowBuilder(ep Endpoint) *RowBuilder {
	return &RowBuilder{ep: ep, allowed: ep.AllowedFields()}
}

// Build is BuildRow for the builder's endpoint.
func (b *RowBuilder) Build(row RawRow) RowOutcome {
	ep := b.ep
	fields, errs := normalize(row, ep, b.allowed)
	record, dropped, coerceErrs, fatal := coerceRow(row.Line, fields, ep.Fields)
	errs = append(errs, coerceErrs...)
	if fatal != nil {
		return RowOutcome{
			Kind:    OutcomeSkipped,
			Row:     row.Line,
			Dropped: dropped,
			Reason:  fatal.Detail,
			Errors:  errs,
		}
	}
	return Assemble(row.Line, record, dropped, errs, ep.Fields)
}

// coerceRow converts the normalised fields in declared field order.
//
// It returns the typed record, the names of dropped fields and the errors
// recorded for them. fatal is set when a required reference is invalid; the
// row is skipped without further checks.
func coerceRow(line int, fields map[string]string, specs []FieldSpec) (Record, []string, []RowError, *RowError) {
	record := make(Record, len(specs))
	var (
		dropped []string
		errs    []RowError
	)

	for _, spec := range specs {
		if spec.Kind == KindNestedObject {
			nested := make(map[string]any, len(spec.Members))
			for _, m := range spec.Members {
				nested[m] = strings.TrimSpace(fields[spec.MemberField(m)])
			}
			record[spec.Name] = nested
			continue
		}

		raw, present := fields[spec.Name]
		if !present {
			if spec.Kind == KindArraySplit {
				record[spec.Name] = []string{}
			}
			continue
		}

		value, ok, err := Coerce(raw, spec)
		if err != nil {
			dropped = append(dropped, spec.Name)
			rowErr := RowError{Row: line, Field: spec.Name, Kind: TypeCoercionError, Detail: err.Error()}
			var ce *CoercionError
			if errors.As(err, &ce) {
				rowErr.Kind = ce.Kind
			}
			if rowErr.Kind == ReferenceValidationError && spec.Required {
				errs = append(errs, rowErr)
				return nil, dropped, errs, &rowErr
			}
			if spec.OnInvalid == DropWithError {
				errs = append(errs, rowErr)
			}
			continue
		}
		if ok {
			record[spec.Name] = value
		}
	}
	return record, dropped, errs, nil
}

// Assemble enforces required fields on a coerced record.
//
// Required fields are checked in declared order so messages are stable for
// identical input. Any missing one skips the row.
func Assemble(line int, record Record, dropped []string, errs []RowError, specs []FieldSpec) RowOutcome {
	var missing []string
	for _, spec := range specs {
		if !spec.Required {
			continue
		}
		if isBlank(record[spec.Name]) {
			missing = append(missing, spec.Name)
			errs = append(errs, missingRequired(line, spec.Name))
		}
	}

	if len(missing) > 0 {
		return RowOutcome{
			Kind:    OutcomeSkipped,
			Row:     line,
			Dropped: dropped,
			Reason:  "missing required fields: " + strings.Join(missing, ", "),
			Errors:  errs,
		}
	}

	kind := OutcomeComplete
	if len(dropped) > 0 {
		kind = OutcomePartial
	}
	return RowOutcome{
		Kind:    kind,
		Row:     line,
		Record:  record,
		Dropped: dropped,
		Errors:  errs,
	}
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	default:
		return false
	}
}
