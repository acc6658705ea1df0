package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderAbovePicksNearestAtOrAbove(t *testing.T) {
	headers := []HeaderBlock{
		{Offset: 0, Dates: []string{"a"}},
		{Offset: 500, Dates: []string{"b"}},
		{Offset: 1000, Dates: []string{"c"}},
	}

	h, ok := HeaderAbove(750, headers)
	require.True(t, ok)
	assert.Equal(t, 500, h.Offset)
}

func TestHeaderAboveExactMatch(t *testing.T) {
	headers := []HeaderBlock{{Offset: 0}, {Offset: 500}}

	h, ok := HeaderAbove(500, headers)
	require.True(t, ok)
	assert.Equal(t, 500, h.Offset)
}

func TestHeaderAboveRowAboveAllHeaders(t *testing.T) {
	headers := []HeaderBlock{{Offset: 100}, {Offset: 500}}

	_, ok := HeaderAbove(50, headers)
	assert.False(t, ok)
}

func TestHeaderAboveUnorderedInput(t *testing.T) {
	// Header order in the DOM is not guaranteed.
	headers := []HeaderBlock{{Offset: 1000}, {Offset: 0}, {Offset: 500}}

	h, ok := HeaderAbove(1200, headers)
	require.True(t, ok)
	assert.Equal(t, 1000, h.Offset)
}

func TestHeaderAboveNoHeaders(t *testing.T) {
	_, ok := HeaderAbove(750, nil)
	assert.False(t, ok)
}
