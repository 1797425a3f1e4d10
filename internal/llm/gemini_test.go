package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanation": map[string]any{"type": "string", "description": "why"},
			"hint":        map[string]any{"type": []any{"string", "null"}},
			"level":       map[string]any{"type": "string", "enum": []any{"A0", "A1"}},
			"words":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"score":       map[string]any{"type": "number"},
		},
		"required": []any{"explanation"},
	})

	if s.Type != genai.TypeObject {
		t.Fatalf("type = %s", s.Type)
	}
	if got := s.Properties["explanation"]; got.Type != genai.TypeString || got.Description != "why" {
		t.Errorf("explanation = %+v", got)
	}
	hint := s.Properties["hint"]
	if hint.Type != genai.TypeString || hint.Nullable == nil || !*hint.Nullable {
		t.Errorf("hint = %+v", hint)
	}
	if len(s.Properties["level"].Enum) != 2 {
		t.Errorf("enum = %v", s.Properties["level"].Enum)
	}
	if s.Properties["words"].Items.Type != genai.TypeString {
		t.Errorf("items = %+v", s.Properties["words"].Items)
	}
	if s.Properties["score"].Type != genai.TypeNumber {
		t.Errorf("score = %+v", s.Properties["score"])
	}
	if len(s.Required) != 1 || s.Required[0] != "explanation" {
		t.Errorf("required = %v", s.Required)
	}
}
