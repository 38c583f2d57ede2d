// Package sanitize scrubs sensitive search content from values before they
// reach logs.
//
// Raw page content (snippets, HTML bodies) and full result URLs must never be
// logged; the warehouse keeps full fidelity, logs keep identifiers and counts.
// Field names are matched case- and separator-insensitively, so snake_case
// metadata keys and camelCase payload keys hit the same rules.
package sanitize

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"
)

const (
	redactedPlaceholder = "[redacted]"
	cyclePlaceholder    = "[cycle]"
)

var redactKeys = map[string]bool{
	"snippet":     true,
	"raw":         true,
	"rawhtml":     true,
	"rawhtmlpath": true,
	"html":        true,
	"body":        true,
}

var urlKeys = map[string]bool{
	"url":           true,
	"normalizedurl": true,
	"link":          true,
	"uri":           true,
}

// Value returns a copy of v safe for logging. Maps, slices, and structs are
// walked recursively; matching field names are redacted or URL-stripped,
// errors are reduced to type name and message, and everything else passes
// through unchanged. Cyclic values are cut off with a "[cycle]" marker.
func Value(v any) any {
	return walk(v, "", map[uintptr]bool{})
}

// Field sanitizes v as if it were stored under the given field name, applying
// the name-based redaction and URL rules before recursing.
func Field(name string, v any) any {
	return walk(v, name, map[uintptr]bool{})
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(key, "_", ""), "-", ""))
}

// StripURL removes the query string and fragment from a URL, keeping scheme,
// host, and path. Values that do not parse as absolute URLs are returned
// unchanged.
func StripURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func walk(v any, key string, visited map[uintptr]bool) any {
	if v == nil {
		return nil
	}

	if err, ok := v.(error); ok {
		return map[string]any{
			"name":    fmt.Sprintf("%T", err),
			"message": err.Error(),
		}
	}

	norm := normalizeKey(key)
	if redactKeys[norm] {
		return redactedPlaceholder
	}
	if urlKeys[norm] {
		if s, ok := v.(string); ok {
			return StripURL(s)
		}
	}

	switch v.(type) {
	case time.Time, *time.Time, []byte, time.Duration:
		return v
	}
	if _, ok := v.(fmt.Stringer); ok {
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if visited[rv.Pointer()] {
			return cyclePlaceholder
		}
		visited[rv.Pointer()] = true
		defer delete(visited, rv.Pointer())
		return walk(rv.Elem().Interface(), key, visited)

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		if visited[rv.Pointer()] {
			return cyclePlaceholder
		}
		visited[rv.Pointer()] = true
		defer delete(visited, rv.Pointer())

		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			out[k] = walk(iter.Value().Interface(), k, visited)
		}
		return out

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if visited[rv.Pointer()] {
			return cyclePlaceholder
		}
		visited[rv.Pointer()] = true
		defer delete(visited, rv.Pointer())
		return walkSeq(rv, visited)

	case reflect.Array:
		return walkSeq(rv, visited)

	case reflect.Struct:
		return walkStruct(rv, visited)

	default:
		return v
	}
}

func walkSeq(rv reflect.Value, visited map[uintptr]bool) []any {
	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = walk(rv.Index(i).Interface(), "", visited)
	}
	return out
}

func walkStruct(rv reflect.Value, visited map[uintptr]bool) map[string]any {
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := range rt.NumField() {
		f := rt.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		out[name] = walk(rv.Field(i).Interface(), name, visited)
	}
	return out
}
