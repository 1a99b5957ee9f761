// Package oracle is the boundary to the structured-completion service
// used by popup dismissal and navigation discovery. The extraction core
// never calls it directly.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is one structured completion: a prompt, an optional screenshot
// and a description of the JSON shape the caller expects back.
type Request struct {
	Prompt string
	Image  []byte
	Schema string
}

// Oracle turns a Request into structured JSON conforming to the request's
// schema.
type Oracle interface {
	Complete(ctx context.Context, req Request) (json.RawMessage, error)
}

// New creates an oracle for the named provider.
func New(provider, model string) (Oracle, error) {
	switch provider {
	case "claude", "anthropic":
		return NewClaudeOracle(model)
	case "openai", "gpt":
		return NewOpenAIOracle(model)
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: claude, openai)", provider)
	}
}

// extractJSON pulls the first JSON object or array out of a model
// response that may be wrapped in prose or a code fence.
func extractJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var close byte = '}'
	if text[start] == '[' {
		close = ']'
	}
	end := strings.LastIndexByte(text, close)
	if end < start {
		return nil, fmt.Errorf("unterminated JSON in response")
	}

	raw := json.RawMessage(text[start : end+1])
	if !json.Valid(raw) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return raw, nil
}
