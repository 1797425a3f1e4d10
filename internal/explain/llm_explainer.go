package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/abhisek/lingo/internal/llm"
)

// LLMConfig holds generation settings for the LLM explainer.
type LLMConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultLLMConfig returns sensible defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		MaxTokens:   256,
		Temperature: 0.3,
	}
}

// LLMExplainer asks a local LLM provider directly instead of the backend.
type LLMExplainer struct {
	provider llm.Provider
	cfg      LLMConfig
}

// NewLLMExplainer creates an explainer backed by provider.
func NewLLMExplainer(provider llm.Provider, cfg LLMConfig) *LLMExplainer {
	return &LLMExplainer{provider: provider, cfg: cfg}
}

type explanationOutput struct {
	Explanation string `json:"explanation"`
}

// Explain implements Explainer.
func (e *LLMExplainer) Explain(ctx context.Context, in Input) (string, error) {
	ctx = llm.WithPurpose(ctx, "explain-error")

	userMsg, err := buildExplainMessage(in)
	if err != nil {
		return "", fmt.Errorf("build explain prompt: %w", err)
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: explainSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      ExplanationSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM explanation failed: %w", err)
	}

	var out explanationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("failed to parse explanation response: %w", err)
	}
	return out.Explanation, nil
}

const explainSystemPrompt = `Ты — репетитор по английскому. Объясни КРАТКО ошибку (1-2 предложения) на русском языке. Не здоровайся.`

var explainUserTemplate = template.Must(template.New("explain").Parse(`Русский: "{{.Prompt}}"
Правильно: "{{.Correct}}"
Ответ ученика: "{{.Answer}}"`))

func buildExplainMessage(in Input) (string, error) {
	var buf bytes.Buffer
	if err := explainUserTemplate.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExplanationSchema is the structured output of the LLM explainer.
var ExplanationSchema = &llm.Schema{
	Name:        "error-explanation",
	Description: "A short Russian explanation of a learner's translation mistake",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanation": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "One or two sentences in Russian explaining the mistake",
			},
		},
		"required":             []any{"explanation"},
		"additionalProperties": false,
	},
}
