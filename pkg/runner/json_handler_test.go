package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Input(t *testing.T) {
	h := NewJSONHandler(strings.NewReader("\"Ana Souza\"\nvoltar\n  42  \n"), io.Discard)
	ctx := context.Background()

	for _, want := range []string{"Ana Souza", "voltar", "42"} {
		got, err := h.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_Output(t *testing.T) {
	var out bytes.Buffer
	h := NewJSONHandler(strings.NewReader(""), &out)
	ctx := context.Background()

	require.NoError(t, h.Output(ctx, coverView()))
	require.NoError(t, h.SystemOutput(ctx, "bye"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &view))
	assert.Equal(t, float64(10), view["total"])
	assert.Equal(t, true, view["can_advance"])

	assert.JSONEq(t, `{"system":"bye"}`, lines[1])
}
