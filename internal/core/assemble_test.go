package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildRow(t *testing.T) {
	emptyPromo := map[string]any{"title": "", "url": ""}

	tests := []struct {
		name        string
		policy      InvalidPolicy
		row         RawRow
		wantKind    OutcomeKind
		wantRecord  Record
		wantDropped []string
		wantErrs    []string
	}{
		{
			name:     "complete",
			row:      rawRow(2, "item_id", "A1", "name", "Widget", "price", "9.5"),
			wantKind: OutcomeComplete,
			wantRecord: Record{
				"item_id": "A1", "name": "Widget", "price": 9.5,
				"tags": []string{}, "promo": emptyPromo,
			},
		},
		{
			name:     "invalid number with error",
			policy:   DropWithError,
			row:      rawRow(3, "item_id", "A1", "name", "Widget", "price", "abc"),
			wantKind: OutcomePartial,
			wantRecord: Record{
				"item_id": "A1", "name": "Widget",
				"tags": []string{}, "promo": emptyPromo,
			},
			wantDropped: []string{"price"},
			wantErrs:    []string{"Row 3 → Field 'price' must be a number, got 'abc'"},
		},
		{
			name:     "invalid number dropped silently",
			policy:   DropSilently,
			row:      rawRow(3, "item_id", "A1", "name", "Widget", "price", "abc"),
			wantKind: OutcomePartial,
			wantRecord: Record{
				"item_id": "A1", "name": "Widget",
				"tags": []string{}, "promo": emptyPromo,
			},
			wantDropped: []string{"price"},
		},
		{
			name:     "missing required fields in declared order",
			row:      rawRow(5, "price", "1"),
			wantKind: OutcomeSkipped,
			wantErrs: []string{
				"Row 5 → Missing required field 'item_id'",
				"Row 5 → Missing required field 'name'",
			},
		},
		{
			name:     "whitespace required value is missing",
			row:      rawRow(2, "item_id", "A1", "name", "   "),
			wantKind: OutcomeSkipped,
			wantErrs: []string{"Row 2 → Missing required field 'name'"},
		},
		{
			name:     "invalid optional reference dropped",
			row:      rawRow(2, "item_id", "A1", "name", "Widget", "owner", "nope"),
			wantKind: OutcomePartial,
			wantRecord: Record{
				"item_id": "A1", "name": "Widget",
				"tags": []string{}, "promo": emptyPromo,
			},
			wantDropped: []string{"owner"},
			wantErrs:    []string{"Row 2 → Field 'owner' must be a valid ObjectId, got 'nope'"},
		},
		{
			name:     "unknown column keeps row",
			row:      rawRow(2, "item_id", "A1", "name", "Widget", "colour", "red"),
			wantKind: OutcomeComplete,
			wantRecord: Record{
				"item_id": "A1", "name": "Widget",
				"tags": []string{}, "promo": emptyPromo,
			},
			wantErrs: []string{"Row 2 → Unknown column: 'colour'"},
		},
		{
			name:     "nested and typed values",
			row:      rawRow(2, "Item ID", "A1", "Name", "Widget", "Ad Title", " Sale ", "tags", "a,b", "featured", "1", "status", "1"),
			wantKind: OutcomeComplete,
			wantRecord: Record{
				"item_id": "A1", "name": "Widget", "status": 1, "featured": true,
				"tags": []string{"a", "b"}, "promo": map[string]any{"title": "Sale", "url": ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildRow(tt.row, testEndpoint(tt.policy))

			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Row != tt.row.Line {
				t.Errorf("Row = %d, want %d", got.Row, tt.row.Line)
			}
			if diff := cmp.Diff(tt.wantRecord, got.Record); diff != "" {
				t.Errorf("Record mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantDropped, got.Dropped); diff != "" {
				t.Errorf("Dropped mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantErrs, messages(got.Errors)); diff != "" {
				t.Errorf("Errors mismatch (-want +got):\n%s", diff)
			}
			if got.Persistable() == (tt.wantKind == OutcomeSkipped) {
				t.Errorf("Persistable() = %v for kind %v", got.Persistable(), got.Kind)
			}
		})
	}
}

func TestBuildRow_InvalidRequiredReferenceSkips(t *testing.T) {
	for _, policy := range []InvalidPolicy{DropWithError, DropSilently} {
		t.Run(policy.String(), func(t *testing.T) {
			ep := testEndpoint(DropWithError)
			for i := range ep.Fields {
				if ep.Fields[i].Name == "category" {
					ep.Fields[i].Required = true
					ep.Fields[i].OnInvalid = policy
				}
			}

			// name is also missing, but the invalid reference ends the row first.
			got := BuildRow(rawRow(7, "item_id", "A1", "category", "12345"), ep)

			if got.Kind != OutcomeSkipped {
				t.Fatalf("Kind = %v, want %v", got.Kind, OutcomeSkipped)
			}
			want := []string{"Row 7 → Field 'category' must be a valid ObjectId, got '12345'"}
			if diff := cmp.Diff(want, messages(got.Errors)); diff != "" {
				t.Errorf("Errors mismatch (-want +got):\n%s", diff)
			}
			if got.Errors[0].Kind != ReferenceValidationError {
				t.Errorf("error kind = %v, want %v", got.Errors[0].Kind, ReferenceValidationError)
			}
			if got.Record != nil {
				t.Errorf("Record = %v, want nil", got.Record)
			}
		})
	}
}

func TestBuildRow_DoesNotMutateInput(t *testing.T) {
	row := rawRow(2, "item_id", " A1 ", "name", "Widget")
	BuildRow(row, testEndpoint(DropWithError))
	if diff := cmp.Diff(rawRow(2, "item_id", " A1 ", "name", "Widget"), row); diff != "" {
		t.Errorf("row mutated (-want +got):\n%s", diff)
	}
}

func TestRowBuilder_MatchesBuildRow(t *testing.T) {
	ep := testEndpoint(DropWithError)
	builder := NewRowBuilder(ep)

	rows := []RawRow{
		rawRow(2, "Item ID", "A1", "Name", "Widget", "Price", "9.5", "Ad Title", "Sale"),
		rawRow(3, "item_id", "A2", "name", "Gadget", "colour", "red"),
		rawRow(4, "item_id", "A3", "price", "abc"),
		rawRow(5, "item_id", "A4", "name", "Thing", "Listed (D-M)", "31-02-2024"),
	}
	for _, row := range rows {
		if diff := cmp.Diff(BuildRow(row, ep), builder.Build(row)); diff != "" {
			t.Errorf("row %d: Build() mismatch (-BuildRow +Build):\n%s", row.Line, diff)
		}
	}
}

func TestRowBuilder_ResolvesAllowedFieldsOnce(t *testing.T) {
	ep := testEndpoint(DropWithError)
	builder := NewRowBuilder(ep)

	if diff := cmp.Diff(ep.AllowedFields(), builder.allowed); diff != "" {
		t.Fatalf("allowed mismatch (-want +got):\n%s", diff)
	}

	// Rows are checked against the builder's set, not a fresh one.
	builder.allowed["colour"] = true
	out := builder.Build(rawRow(2, "item_id", "A1", "name", "Widget", "colour", "red"))
	if len(out.Errors) != 0 {
		t.Errorf("Build() errors = %v, want none once colour is allowed", messages(out.Errors))
	}
}

func BenchmarkRowBuilder(b *testing.B) {
	ep := testEndpoint(DropWithError)
	row := rawRow(2, "Item ID", "A1", "Name", "Widget", "Price", "9.5", "Ad Title", "Sale", "tags", "a,b")

	b.Run("BuildRow", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			BuildRow(row, ep)
		}
	})
	b.Run("RowBuilder", func(b *testing.B) {
		builder := NewRowBuilder(ep)
		for i := 0; i < b.N; i++ {
			builder.Build(row)
		}
	})
}
