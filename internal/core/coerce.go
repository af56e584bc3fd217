package core

// coerce.go converts raw cell strings into typed canonical values.
//
// Each FieldKind has one converter. Converters never panic and never touch
// other fields; a failure is returned as a *CoercionError and the caller
// decides, from the FieldSpec's InvalidPolicy, whether it is reported.
//
// Empty values are "absent" for every kind except boolean (empty is false),
// arraySplit (empty is an empty list) and nestedObject (empty members
// default to ""). Required-ness is enforced later by Assemble.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// freeFormDateLayouts are tried in order for DateFreeForm fields.
// Month-first slash dates follow the US convention used by the admin UI.
var freeFormDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// Coerce converts value according to spec.
//
// It returns the typed value and true on success, false when the value is
// absent, or a *CoercionError when the value is present but invalid.
// KindNestedObject is assembled from several columns and is not handled here.
func Coerce(value string, spec FieldSpec) (any, bool, error) {
	v := strings.TrimSpace(value)

	switch spec.Kind {
	case KindBoolean:
		return ToBool(v), true, nil
	case KindArraySplit:
		return SplitList(v), true, nil
	case KindNestedObject:
		return nil, false, fmt.Errorf("nested field %q must be assembled from its members", spec.Name)
	}

	if v == "" {
		return nil, false, nil
	}

	switch spec.Kind {
	case KindString:
		return v, true, nil

	case KindNumber:
		n, ok := ToNumber(v)
		if !ok {
			return nil, false, &CoercionError{
				Kind:   TypeCoercionError,
				Detail: fmt.Sprintf("Field '%s' must be a number, got '%s'", spec.Name, value),
			}
		}
		return n, true, nil

	case KindEnum:
		code, ok := ToEnum(v, spec.EnumValues)
		if !ok {
			return nil, false, &CoercionError{
				Kind: TypeCoercionError,
				Detail: fmt.Sprintf("Field '%s' must be one of [%s], got '%s'",
					spec.Name, joinInts(spec.EnumValues), value),
			}
		}
		return code, true, nil

	case KindDate:
		var (
			t  time.Time
			ok bool
		)
		if spec.DateFormat == DateDayMonthYear {
			t, ok = ParseDayMonthYear(v)
		} else {
			t, ok = ParseFreeFormDate(v)
		}
		if !ok {
			return nil, false, &CoercionError{
				Kind:   TypeCoercionError,
				Detail: fmt.Sprintf("Field '%s' has an invalid date '%s'", spec.Name, value),
			}
		}
		return t, true, nil

	case KindObjectRef:
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, false, &CoercionError{
				Kind:   ReferenceValidationError,
				Detail: fmt.Sprintf("Field '%s' must be a valid ObjectId, got '%s'", spec.Name, value),
			}
		}
		return id, true, nil

	default:
		return nil, false, fmt.Errorf("field %q has unsupported kind %d", spec.Name, spec.Kind)
	}
}

// ToNumber parses a decimal number. NaN and infinities are rejected.
func ToNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ToEnum parses s as a number and checks it is one of allowed.
func ToEnum(s string, allowed []int) (int, bool) {
	n, ok := ToNumber(s)
	if !ok || n != math.Trunc(n) {
		return 0, false
	}
	for _, a := range allowed {
		if float64(a) == n {
			return a, true
		}
	}
	return 0, false
}

// ToBool reports whether s is "true" or "1", case-insensitively.
func ToBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	default:
		return false
	}
}

// SplitList splits a comma-separated cell, trimming entries and dropping empties.
// The result is never nil.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseFreeFormDate accepts the layouts in freeFormDateLayouts.
// time.Parse rejects impossible calendar dates such as 2024-02-30.
func ParseFreeFormDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range freeFormDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseDayMonthYear parses DD-MM-YYYY. A four-digit first part is read as
// YYYY-MM-DD instead. The date is rebuilt from its parts and must round-trip,
// so 31-02-2024 or 2024-13-40 are rejected rather than normalised.
func ParseDayMonthYear(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	yearPart, monthPart, dayPart := parts[2], parts[1], parts[0]
	if len(parts[0]) == 4 {
		yearPart, dayPart = parts[0], parts[2]
	}
	if len(yearPart) != 4 || len(monthPart) == 0 || len(monthPart) > 2 ||
		len(dayPart) == 0 || len(dayPart) > 2 {
		return time.Time{}, false
	}
	// strconv.Atoi would also take a sign
	if !allDigits(yearPart) || !allDigits(monthPart) || !allDigits(dayPart) {
		return time.Time{}, false
	}

	year, err1 := strconv.Atoi(yearPart)
	month, err2 := strconv.Atoi(monthPart)
	day, err3 := strconv.Atoi(dayPart)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
