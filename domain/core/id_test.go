package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDIsParseable(t *testing.T) {
	id := NewRunID()

	parsed, err := ParseRunID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseRunIDRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-uuid"} {
		_, err := ParseRunID(in)
		assert.Error(t, err, "input %q", in)
		assert.True(t, IsValidationError(err))
	}
}

func TestHashShort(t *testing.T) {
	h := NewHash([]byte("chart = plot(data)"))
	assert.Len(t, h.String(), 64)
	assert.Equal(t, h.String()[:12], h.Short())
	assert.Equal(t, "abc", Hash("abc").Short())
}

func TestErrorTaxonomy(t *testing.T) {
	assert.True(t, IsConfigurationError(NewUnsupportedLibraryError("bokeh")))
	assert.True(t, IsValidationError(NewGoalCountError(5, 3)))
	assert.True(t, IsExecutionError(NewImportNotAllowedError("os")))
	assert.True(t, IsExecutionError(NewResultNotBoundError("chart")))
	assert.True(t, IsResourceError(ErrNoRaster))
	assert.False(t, IsExecutionError(ErrNoRaster))
	assert.Contains(t, NewResultNotBoundError("chart").Error(), "name 'chart' is not defined")
}
