package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollStepAlwaysPositive(t *testing.T) {
	tests := []struct {
		name         string
		clientHeight int
		want         int
	}{
		{"normal viewport", 800, 400},
		{"small viewport", 100, 50},
		{"one pixel", 1, fallbackScrollStep},
		{"zero-size element", 0, fallbackScrollStep},
		{"negative", -10, fallbackScrollStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scrollStep(tt.clientHeight)
			assert.Equal(t, tt.want, got)
			assert.Positive(t, got, "a non-positive step would loop forever")
		})
	}
}

func TestScrollWalkTerminates(t *testing.T) {
	// A zero-height viewport with real scrollable content must still reach
	// the end in a bounded number of steps.
	const scrollHeight = 10000

	steps := 0
	for pos := 0; pos < scrollHeight; pos += scrollStep(0) {
		steps++
		if steps > scrollHeight {
			t.Fatal("scroll walk did not terminate")
		}
	}
	assert.Equal(t, scrollHeight/fallbackScrollStep, steps)
}
