package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	ep := testEndpoint(DropWithError)

	tests := []struct {
		name       string
		row        RawRow
		wantFields map[string]string
		wantErrs   []string
	}{
		{
			name:       "canonical headers pass through",
			row:        rawRow(2, "item_id", "A1", "name", "Widget"),
			wantFields: map[string]string{"item_id": "A1", "name": "Widget"},
		},
		{
			name:       "legacy headers are mapped",
			row:        rawRow(2, "Item ID", "A1", " Name ", "Widget", "Ad Title", "Sale"),
			wantFields: map[string]string{"item_id": "A1", "name": "Widget", "promo.title": "Sale"},
		},
		{
			name:       "unknown column reported once per occurrence",
			row:        rawRow(4, "item_id", "A1", "colour", "red", "colour", "blue"),
			wantFields: map[string]string{"item_id": "A1"},
			wantErrs:   []string{"Row 4 → Unknown column: 'colour'", "Row 4 → Unknown column: 'colour'"},
		},
		{
			name:       "blank headers ignored",
			row:        rawRow(2, "item_id", "A1", "", "stray", "  ", "x"),
			wantFields: map[string]string{"item_id": "A1"},
		},
		{
			name:       "last duplicate wins",
			row:        rawRow(2, "Price", "10", "Price (USD)", "12"),
			wantFields: map[string]string{"price": "12"},
		},
		{
			name:       "header map is case sensitive",
			row:        rawRow(2, "ITEM ID", "A1"),
			wantFields: map[string]string{},
			wantErrs:   []string{"Row 2 → Unknown column: 'ITEM ID'"},
		},
		{
			name:       "nested parent name is not a column",
			row:        rawRow(2, "promo", "x"),
			wantFields: map[string]string{},
			wantErrs:   []string{"Row 2 → Unknown column: 'promo'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, errs := Normalize(tt.row, ep)
			if diff := cmp.Diff(tt.wantFields, fields); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantErrs, messages(errs)); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			for _, e := range errs {
				if e.Kind != SchemaError {
					t.Errorf("error kind = %v, want %v", e.Kind, SchemaError)
				}
			}
		})
	}
}

func messages(errs []RowError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message()
	}
	return out
}
