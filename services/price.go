package services

import (
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var (
	// nonNumericRegexp strips everything but the characters of a signed decimal.
	nonNumericRegexp = regexp.MustCompile(`[^0-9.\-]+`)
	// firstNumberRegexp finds the first signed decimal in free text.
	firstNumberRegexp = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

var emptyPriceTokens = map[string]struct{}{
	"n/a":  {},
	"na":   {},
	"none": {},
	"null": {},
	"":     {},
}

// NormalizePrice converts the price representations providers return into a
// float. Numbers pass through, strings are cleaned of currency symbols and
// ranges keep only their lower bound:
//
//	"$120.50"    -> 120.5
//	"CA$ 145.00" -> 145
//	"99-120"     -> 99
//	"from $99"   -> 99
//	"N/A", nil   -> absent
func NormalizePrice(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case string:
		return parsePriceString(v)
	case *string:
		if v == nil {
			return 0, false
		}
		return parsePriceString(*v)
	default:
		return normalizeValue(reflect.ValueOf(raw))
	}
}

// normalizeValue covers the remaining sized numbers, named numeric and
// string types, and pointers to anything NormalizePrice accepts.
func normalizeValue(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return 0, false
		}
		return NormalizePrice(v.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.String:
		return parsePriceString(v.String())
	default:
		return 0, false
	}
}

func parsePriceString(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if _, empty := emptyPriceTokens[strings.ToLower(s)]; empty {
		return 0, false
	}

	cleaned := nonNumericRegexp.ReplaceAllString(s, "")
	// "99-120" is a range; keep the lower bound.
	cleaned, _, _ = strings.Cut(cleaned, "-")
	if f, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64); err == nil {
		return f, true
	}

	match := firstNumberRegexp.FindString(s)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// CanonicalPrice normalizes raw and enforces the stored-price invariant:
// a finite, non-negative value or nil.
func CanonicalPrice(raw any) *float64 {
	f, ok := NormalizePrice(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	return &f
}
