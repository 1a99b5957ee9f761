package oracle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeOracle implements Oracle using Anthropic's API.
type ClaudeOracle struct {
	client *anthropic.Client
	model  string
}

func NewClaudeOracle(model string) (*ClaudeOracle, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &ClaudeOracle{
		client: &client,
		model:  model,
	}, nil
}

func (o *ClaudeOracle) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	prompt := req.Prompt
	if req.Schema != "" {
		prompt += "\n\nRespond with JSON matching this shape, and nothing else:\n" + req.Schema
	}

	var blocks []anthropic.ContentBlockParamUnion
	if len(req.Image) > 0 {
		encoded := base64.StdEncoding.EncodeToString(req.Image)
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", encoded))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	resp, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("empty response from anthropic")
	}

	return extractJSON(responseText)
}
