package diag

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatsCause(t *testing.T) {
	t.Parallel()

	err := New(CodeInvalidColorValue, "#12345", "primary")
	assert.Equal(t, CodeInvalidColorValue, err.Code)
	assert.Contains(t, err.Cause, "#12345")
	assert.Contains(t, err.Cause, "primary")
	assert.Equal(t, "Resource Pack Error", err.Category)
}

func TestNew_UnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	err := New(42)
	assert.Equal(t, 42, err.Code)
	assert.Contains(t, err.Cause, "unknown diagnostic code")
}

func TestError_PositionAndUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("boom")
	err := New(CodeJSONFormat).At("a/b.json").Wrap(inner)
	assert.Contains(t, err.Error(), "at a/b.json")
	assert.ErrorIs(t, err, inner)
}

func TestRender_ContainsSolutions(t *testing.T) {
	t.Parallel()

	out := New(CodeQuantityNoOther, "count").At("string.json").Render()
	assert.Contains(t, out, "11211114")
	assert.Contains(t, out, "Try the following:")
	assert.Contains(t, out, "'other' quantity")
	assert.Contains(t, out, "string.json")
}

func TestFprint_PlainError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Fprint(&buf, errors.New("plain"))
	require.Contains(t, buf.String(), "plain")
}
