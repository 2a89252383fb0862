package ecommerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// rawRecord is one loosely typed JSON object decoded with UseNumber
type rawRecord map[string]any

// lookup resolves a dotted path such as "buyer.nick"
func (r rawRecord) lookup(path string) (any, bool) {
	var current any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		obj, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

// str returns the first non-empty string or number found under keys
func (r rawRecord) str(keys ...string) string {
	for _, key := range keys {
		v, ok := r.lookup(key)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s
			}
		case json.Number:
			return val.String()
		case bool:
			return strconv.FormatBool(val)
		}
	}
	return ""
}

// dec returns the first value under keys that parses as a decimal
func (r rawRecord) dec(keys ...string) (decimal.Decimal, bool) {
	for _, key := range keys {
		v, ok := r.lookup(key)
		if !ok {
			continue
		}
		var s string
		switch val := v.(type) {
		case json.Number:
			s = val.String()
		case string:
			s = strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		default:
			continue
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// integer returns the first value under keys that is an integral number
func (r rawRecord) integer(keys ...string) (int, bool) {
	for _, key := range keys {
		v, ok := r.lookup(key)
		if !ok {
			continue
		}
		var s string
		switch val := v.(type) {
		case json.Number:
			s = val.String()
		case string:
			s = strings.TrimSpace(val)
		default:
			continue
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
			return int(f), true
		}
	}
	return 0, false
}

// object returns the first nested object under keys
func (r rawRecord) object(keys ...string) rawRecord {
	for _, key := range keys {
		v, ok := r.lookup(key)
		if !ok {
			continue
		}
		if obj, ok := asObject(v); ok {
			return rawRecord(obj)
		}
	}
	return nil
}

// array returns the first nested array under keys
func (r rawRecord) array(keys ...string) ([]any, bool) {
	for _, key := range keys {
		v, ok := r.lookup(key)
		if !ok {
			continue
		}
		if arr, ok := v.([]any); ok {
			return arr, true
		}
	}
	return nil, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// timestamp returns the first value under keys that parses as a time.
// Numbers are unix seconds, or milliseconds when large enough.
func (r rawRecord) timestamp(keys ...string) (time.Time, bool) {
	for _, key := range keys {
		v, ok := r.lookup(key)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case json.Number:
			if n, err := val.Int64(); err == nil && n > 0 {
				if n > 1_000_000_000_000 {
					return time.UnixMilli(n).UTC(), true
				}
				return time.Unix(n, 0).UTC(), true
			}
		case string:
			s := strings.TrimSpace(val)
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC(), true
				}
			}
		}
	}
	return time.Time{}, false
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case rawRecord:
		return obj, true
	}
	return nil, false
}
