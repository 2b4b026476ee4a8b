package utils

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmPrompt(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got, err := ConfirmPrompt(&out, bufio.NewReader(strings.NewReader(tt.input)), "Reset?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "Reset?")
	}
}

func TestConfirmPromptWithContext_Answered(t *testing.T) {
	var out bytes.Buffer
	yes, err := ConfirmPromptWithContext(context.Background(), &out, bufio.NewReader(strings.NewReader("y\n")), "Go?")
	require.NoError(t, err)
	assert.True(t, yes)
}

func TestHighlightSource(t *testing.T) {
	var plain bytes.Buffer
	require.NoError(t, HighlightSource(&plain, "x = 1", ""))
	assert.Equal(t, "x = 1", plain.String())

	var colored bytes.Buffer
	require.NoError(t, HighlightSource(&colored, "def f():\n    pass", "dracula"))
	assert.Contains(t, colored.String(), "\x1b[")
	assert.Contains(t, colored.String(), "def")
}

func TestHighlightLinesWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := HighlightLinesWithContext(ctx, &out, "a\nb", "dracula")
	assert.ErrorIs(t, err, context.Canceled)
}
