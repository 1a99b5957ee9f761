package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"bare object", `{"index": 2}`, `{"index": 2}`},
		{"fenced json block", "```json\n{\"index\": 2}\n```", `{"index": 2}`},
		{"plain fence", "```\n{\"index\": 2}\n```", `{"index": 2}`},
		{"prose around object", `Sure, the answer is {"index": 2} as requested.`, `{"index": 2}`},
		{"array", `[1, 2, 3]`, `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := extractJSON(tt.text)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(raw))
		})
	}
}

func TestExtractJSONErrors(t *testing.T) {
	for _, text := range []string{"", "no json here", "{broken"} {
		_, err := extractJSON(text)
		assert.Error(t, err, text)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("cohere", "")
	assert.Error(t, err)
}
