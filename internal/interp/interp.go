// Package interp resolves {{path}} placeholders in template field values
// against request data. Paths navigate nested maps with dots and slices
// with [idx], e.g. {{user.name}} or {{items[2].label}}.
package interp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Resolve replaces every {{path}} placeholder in text with the value found
// in data. Unresolvable paths become the empty string.
func Resolve(text string, data map[string]any) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return ""
		}
		path := strings.TrimSpace(groups[1])
		if path == "" {
			return ""
		}
		val, ok := resolvePath(data, path)
		if !ok {
			return ""
		}
		return Stringify(val)
	})
}

// Stringify renders a resolved value for placement in a text field. Maps and
// slices become compact JSON, everything else its plain string form.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

func resolvePath(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[name]
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			s, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(s) {
				return nil, false
			}
			current = s[idx]
		}
	}
	return current, true
}

func parseSegment(segment string) (name string, indexes []string) {
	i := strings.IndexByte(segment, '[')
	if i == -1 {
		return segment, nil
	}
	name = segment[:i]
	rest := segment[i:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			break
		}
		indexes = append(indexes, rest[1:end])
		rest = rest[end+1:]
	}
	return name, indexes
}
