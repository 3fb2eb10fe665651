package receipt

import (
	"strconv"
	"strings"
	"time"
)

// Conversion helpers for raw driver values. Drivers disagree on scan
// types (int64 vs float64 vs []byte vs string), so every accessor accepts
// the common shapes and returns nil when the value cannot be interpreted.

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asInt64(v any) *int64 {
	switch t := v.(type) {
	case nil:
		return nil
	case int64:
		return &t
	case int:
		n := int64(t)
		return &n
	case float64:
		n := int64(t)
		return &n
	case string, []byte:
		n, err := strconv.ParseInt(asString(v), 10, 64)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

func asInt64Value(v any) int64 {
	if p := asInt64(v); p != nil {
		return *p
	}
	return 0
}

func asInt(v any) *int {
	p := asInt64(v)
	if p == nil {
		return nil
	}
	n := int(*p)
	return &n
}

func asFloat(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return &t
	case float32:
		f := float64(t)
		return &f
	case int64:
		f := float64(t)
		return &f
	case string, []byte:
		f, err := strconv.ParseFloat(asString(v), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// timeLayouts covers the formats the backing stores hand back when a
// timestamp column scans as text instead of time.Time.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006",
}

func asTime(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return &t
	case string, []byte:
		s := asString(v)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return &ts
			}
		}
		return nil
	default:
		return nil
	}
}
