// Package document defines the schema-less payload type carried by tasks and
// approval requests. Values are scalars (string, bool, numbers), nested
// documents or slices of those.
package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Document is an opaque key/value payload.
type Document map[string]interface{}

// Lookup resolves a dot separated path ("a.b.c"). Slice elements can be
// addressed with a numeric segment ("items.0.title").
func (d Document) Lookup(path string) (interface{}, bool) {
	if d == nil || path == "" {
		return nil, false
	}
	var current interface{} = map[string]interface{}(d)
	for _, segment := range strings.Split(path, ".") {
		switch actual := current.(type) {
		case map[string]interface{}:
			value, ok := actual[segment]
			if !ok {
				return nil, false
			}
			current = value
		case Document:
			value, ok := actual[segment]
			if !ok {
				return nil, false
			}
			current = value
		case []interface{}:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(actual) {
				return nil, false
			}
			current = actual[index]
		default:
			return nil, false
		}
	}
	return current, true
}

// String returns value at path formatted as string.
func (d Document) String(path string) (string, bool) {
	value, ok := d.Lookup(path)
	if !ok || value == nil {
		return "", false
	}
	switch actual := value.(type) {
	case string:
		return actual, true
	case fmt.Stringer:
		return actual.String(), true
	default:
		return fmt.Sprintf("%v", actual), true
	}
}

// Float returns numeric value at path. Numeric strings are parsed.
func (d Document) Float(path string) (float64, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return 0, false
	}
	return AsFloat(value)
}

// AsFloat converts a numeric scalar to float64.
func AsFloat(value interface{}) (float64, bool) {
	switch actual := value.(type) {
	case float64:
		return actual, true
	case float32:
		return float64(actual), true
	case int:
		return float64(actual), true
	case int64:
		return float64(actual), true
	case int32:
		return float64(actual), true
	case uint:
		return float64(actual), true
	case uint64:
		return float64(actual), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
		return f, err == nil
	}
	return 0, false
}

// Text returns every string value of the document joined by newlines, in
// key order, so keyword scans are deterministic.
func (d Document) Text() string {
	var builder strings.Builder
	appendText(&builder, map[string]interface{}(d))
	return builder.String()
}

func appendText(builder *strings.Builder, value interface{}) {
	switch actual := value.(type) {
	case string:
		if builder.Len() > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(actual)
	case Document:
		appendText(builder, map[string]interface{}(actual))
	case map[string]interface{}:
		keys := make([]string, 0, len(actual))
		for k := range actual {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			appendText(builder, actual[k])
		}
	case []interface{}:
		for _, item := range actual {
			appendText(builder, item)
		}
	case []string:
		for _, item := range actual {
			appendText(builder, item)
		}
	}
}

// Clone returns a deep copy of nested maps and slices.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	ret := make(map[string]interface{}, len(src))
	for k, v := range src {
		ret[k] = cloneValue(v)
	}
	return ret
}

func cloneValue(value interface{}) interface{} {
	switch actual := value.(type) {
	case Document:
		return Document(cloneMap(actual))
	case map[string]interface{}:
		return cloneMap(actual)
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i, item := range actual {
			ret[i] = cloneValue(item)
		}
		return ret
	case []string:
		return append([]string(nil), actual...)
	default:
		return value
	}
}

// Merge copies top level keys of src into a clone of d.
func (d Document) Merge(src Document) Document {
	ret := d.Clone()
	if ret == nil {
		ret = Document{}
	}
	for k, v := range src {
		ret[k] = cloneValue(v)
	}
	return ret
}
