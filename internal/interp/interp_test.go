package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	data := map[string]any{
		"name": "Ada",
		"user": map[string]any{
			"email": "ada@example.com",
			"address": map[string]any{
				"city": "London",
			},
		},
		"items": []any{
			map[string]any{"label": "first"},
			map[string]any{"label": "second"},
		},
		"total": 41.5,
		"tags":  []any{"a", "b"},
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "no placeholders here", "no placeholders here"},
		{"simple", "Hello {{name}}!", "Hello Ada!"},
		{"nested", "{{user.email}}", "ada@example.com"},
		{"deep nested", "City: {{user.address.city}}", "City: London"},
		{"index", "{{items[1].label}}", "second"},
		{"number", "Total: {{total}}", "Total: 41.5"},
		{"composite value", "{{user.address}}", `{"city":"London"}`},
		{"slice value", "{{tags}}", `["a","b"]`},
		{"missing path", "Hi {{nope}}.", "Hi ."},
		{"missing nested", "{{user.phone}}", ""},
		{"index out of range", "{{items[9].label}}", ""},
		{"whitespace in braces", "{{ name }}", "Ada"},
		{"empty expression", "x{{}}y", "x{{}}y"},
		{"multiple", "{{name}} <{{user.email}}>", "Ada <ada@example.com>"},
		{"non-map traversal", "{{name.first}}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.in, data))
		})
	}
}

func TestResolveNilData(t *testing.T) {
	assert.Equal(t, "", Resolve("{{anything}}", nil))
	assert.Equal(t, "static", Resolve("static", nil))
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "as-is", "as-is"},
		{"int", 42, "42"},
		{"float", 1.25, "1.25"},
		{"bool", true, "true"},
		{"map", map[string]any{"k": "v"}, `{"k":"v"}`},
		{"slice", []any{1, "two"}, `[1,"two"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}
