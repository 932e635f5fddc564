package jsonx

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDecodeFencedWithTrailingComma(t *testing.T) {
	got := Decode("```json\n{\"a\": 1,}\n```")
	want := map[string]any{"a": float64(1)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decode() = %#v, want %#v", got, want)
	}
}

func TestDecodeProseReturnsSentinel(t *testing.T) {
	raw := "The answer is maybe."
	got := Decode(raw)
	want := map[string]any{"error": "Invalid JSON", "raw_output": raw}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decode() = %#v, want sentinel %#v", got, want)
	}
	if !IsSentinel(got) {
		t.Fatal("IsSentinel() = false for sentinel value")
	}
}

func TestDecodeIdempotentOnValidJSON(t *testing.T) {
	values := []any{
		map[string]any{"a": float64(1), "b": []any{"x", "y"}},
		[]any{float64(1), float64(2), float64(3)},
		"plain string",
		float64(42),
		true,
		nil,
		map[string]any{"nested": map[string]any{"deep": []any{nil, false}}},
	}
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		got := Decode(string(b))
		if !reflect.DeepEqual(got, v) {
			t.Errorf("Decode(%s) = %#v, want %#v", b, got, v)
		}
	}
}

func TestDecodeRecoveryStages(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{
			name: "object embedded in prose",
			raw:  "Here is the result:\n{\"ok\": true}\nHope that helps!",
			want: map[string]any{"ok": true},
		},
		{
			name: "fence with language tag",
			raw:  "```json\n{\"k\": \"v\"}\n```",
			want: map[string]any{"k": "v"},
		},
		{
			name: "fence without language tag",
			raw:  "```\n[1, 2]\n```",
			want: []any{float64(1), float64(2)},
		},
		{
			name: "trailing comma in array",
			raw:  `{"list": [1, 2,]}`,
			want: map[string]any{"list": []any{float64(1), float64(2)}},
		},
		{
			name: "python literal none",
			raw:  `{"value": None}`,
			want: map[string]any{"value": nil},
		},
		{
			name: "upper null token",
			raw:  `{"value": NULL}`,
			want: map[string]any{"value": nil},
		},
		{
			name: "missing value before comma",
			raw:  `{"a": , "b": 2}`,
			want: map[string]any{"a": nil, "b": float64(2)},
		},
		{
			name: "prose around object with trailing comma",
			raw:  "Sure! {\"a\": 1,} That is all.",
			want: map[string]any{"a": float64(1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Decode(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

// Decode must never panic and must always return either a value or the
// sentinel, whatever garbage comes in.
func TestDecodeNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"{",
		"}",
		"{{{}}}",
		"```",
		"``````",
		"```json",
		"None",
		"{None}",
		"{\"a\": }",
		"\x00\x01\x02",
		"{\"a\": \"unterminated",
		"]]]][[[[",
		"prose with a stray { brace",
		"{} {} {}",
	}
	for _, raw := range inputs {
		got := Decode(raw)
		if got == nil {
			continue // inputs like "None" legitimately decode to JSON null
		}
		if _, err := json.Marshal(got); err != nil {
			t.Errorf("Decode(%q) produced unmarshalable value: %v", raw, err)
		}
	}
}

func TestDecodeObject(t *testing.T) {
	if m, ok := DecodeObject(`{"a": 1}`); !ok || m["a"] != float64(1) {
		t.Fatalf("DecodeObject valid object: got %v ok=%v", m, ok)
	}
	if m, ok := DecodeObject(`[1, 2]`); ok {
		t.Fatalf("DecodeObject array should not be ok, got %v", m)
	}
	m, ok := DecodeObject("no json here")
	if ok {
		t.Fatal("DecodeObject prose should not be ok")
	}
	if m["raw_output"] != "no json here" {
		t.Fatalf("sentinel raw_output = %v", m["raw_output"])
	}
}
