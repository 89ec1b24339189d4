package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLikePattern(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain keyword", input: "chatgpt prompts", expected: "chatgpt prompts"},
		{name: "percent", input: "100% productivity", expected: `100\% productivity`},
		{name: "underscore", input: "notion_templates", expected: `notion\_templates`},
		{name: "backslash", input: `c:\prompts`, expected: `c:\\prompts`},
		{name: "all metacharacters", input: `\%_`, expected: `\\\%\_`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeLikePattern(tt.input))
		})
	}
}
