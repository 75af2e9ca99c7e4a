package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Raw is one decoded payload object as delivered by the service
type Raw map[string]interface{}

// Clone returns a shallow copy. Nested lists and objects are shared, so
// callers replace them rather than mutate in place.
func (r Raw) Clone() Raw {
	out := make(Raw, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AsRaw converts a decoded JSON value into a Raw object
func AsRaw(v interface{}) (Raw, bool) {
	switch m := v.(type) {
	case Raw:
		return m, true
	case map[string]interface{}:
		return Raw(m), true
	default:
		return nil, false
	}
}

// String returns the field as text; numbers are formatted without exponent.
func (r Raw) String(key string) string {
	return stringify(r[key])
}

// Int returns the field as an integer and whether it was present and numeric
func (r Raw) Int(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// Truthy follows the service's loose flags: 0, "", "0", false, null and
// empty collections are false.
func (r Raw) Truthy(key string) bool {
	return truthy(r[key])
}

// Object returns a nested object field
func (r Raw) Object(key string) (Raw, bool) {
	return AsRaw(r[key])
}

// List returns the object entries of a list field, skipping anything that
// is not an object.
func (r Raw) List(key string) []Raw {
	items, _ := r[key].([]interface{})
	out := make([]Raw, 0, len(items))
	for _, item := range items {
		if obj, ok := AsRaw(item); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Strings returns the string entries of a list field
func (r Raw) Strings(key string) []string {
	var out []string
	switch items := r[key].(type) {
	case []string:
		out = append(out, items...)
	case []interface{}:
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// Time reads a unix-seconds field
func (r Raw) Time(key string) (time.Time, bool) {
	n, ok := r.Int(key)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(n, 0).UTC(), true
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(math.Trunc(f)), true
		}
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0"
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	case Raw:
		return len(t) > 0
	}
	if n, ok := toInt(v); ok {
		return n != 0
	}
	return true
}
