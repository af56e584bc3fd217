package core

import "strings"

// Normalize maps the raw columns of row onto the endpoint's canonical names.
//
// Each header is trimmed and looked up verbatim in the endpoint's HeaderMap;
// unmapped headers pass through as their own canonical name. A canonical name
// outside AllowedFields is reported as an unknown column and its value is
// discarded. Columns whose header is blank are ignored.
//
// When several raw headers resolve to the same canonical name the last column
// in file order wins. Legacy import files rely on this (for example both
// "Price" and "Price (USD)" present, the later one being authoritative).
func Normalize(row RawRow, ep Endpoint) (map[string]string, []RowError) {
	return normalize(row, ep, ep.AllowedFields())
}

func normalize(row RawRow, ep Endpoint, allowed map[string]bool) (map[string]string, []RowError) {
	fields := make(map[string]string, len(row.Columns))
	var errs []RowError

	for _, col := range row.Columns {
		if strings.TrimSpace(col.Header) == "" {
			continue
		}
		name := ep.Headers.Resolve(col.Header)
		if !allowed[name] {
			errs = append(errs, unknownColumn(row.Line, name))
			continue
		}
		fields[name] = col.Value
	}
	return fields, errs
}
