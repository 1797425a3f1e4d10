package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateResponse(t *testing.T) {
	schema := &Schema{
		Name: "test-validate",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"explanation": map[string]any{"type": "string", "minLength": 1},
				"level":       map[string]any{"type": "string", "enum": []any{"A0", "A1"}},
				"words":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []any{"explanation"},
		},
	}

	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"minimal", `{"explanation":"ok"}`, true},
		{"all fields", `{"explanation":"ok","level":"A1","words":["cat","cats"]}`, true},
		{"missing required", `{"level":"A0"}`, false},
		{"empty string", `{"explanation":""}`, false},
		{"bad enum", `{"explanation":"ok","level":"B2"}`, false},
		{"bad item type", `{"explanation":"ok","words":[1,2]}`, false},
		{"malformed", `{not json}`, false},
		{"empty", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(schema, json.RawMessage(tt.raw))
			if tt.valid {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var invalid *ErrInvalidResponse
			if !errors.As(err, &invalid) {
				t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`anything`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
