package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const dismissPrompt = `A storefront page is covered by an overlay (cookie banner, newsletter
signup or region picker). Below are the texts of the clickable elements
inside it, numbered from 0. Pick the one that dismisses the overlay
without accepting marketing or subscribing to anything. If none of them
dismisses it, answer -1.`

// ClassifyDismissButton asks the oracle which of the given button texts
// closes an overlay. Returns -1 when no button qualifies.
func ClassifyDismissButton(ctx context.Context, o Oracle, buttons []string) (int, error) {
	var sb strings.Builder
	sb.WriteString(dismissPrompt)
	sb.WriteString("\n\n")
	for i, b := range buttons {
		fmt.Fprintf(&sb, "%d: %s\n", i, b)
	}

	raw, err := o.Complete(ctx, Request{
		Prompt: sb.String(),
		Schema: `{"index": <number>}`,
	})
	if err != nil {
		return -1, err
	}

	var out struct {
		Index int `json:"index"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return -1, fmt.Errorf("failed to parse dismiss classification: %w", err)
	}

	if out.Index < -1 || out.Index >= len(buttons) {
		return -1, fmt.Errorf("dismiss classification out of range: %d", out.Index)
	}
	return out.Index, nil
}
