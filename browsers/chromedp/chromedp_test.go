package chromedp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rlch/formrun"
)

func TestOutsidePoint(t *testing.T) {
	t.Parallel()

	box := rect{X: 100, Y: 100, Width: 200, Height: 100}

	tests := []struct {
		pos  formrun.Position
		x, y float64
	}{
		{formrun.TopLeft, 90, 90},
		{formrun.Top, 200, 90},
		{formrun.TopRight, 310, 90},
		{formrun.Left, 90, 150},
		{formrun.Right, 310, 150},
		{formrun.BottomLeft, 90, 210},
		{formrun.Bottom, 200, 210},
		{formrun.BottomRight, 310, 210},
		{"", 310, 90},
	}

	for _, tt := range tests {
		x, y := outsidePoint(box, tt.pos, 1280, 800)
		assert.InDelta(t, tt.x, x, 0, tt.pos)
		assert.InDelta(t, tt.y, y, 0, tt.pos)
	}
}

func TestOutsidePoint_Clamped(t *testing.T) {
	t.Parallel()

	// A modal filling the viewport leaves no room outside it.
	x, y := outsidePoint(rect{X: 0, Y: 0, Width: 1280, Height: 800}, formrun.TopRight, 1280, 800)
	assert.InDelta(t, 1279, x, 0)
	assert.InDelta(t, 1, y, 0)
}

func TestScript(t *testing.T) {
	t.Parallel()

	js, err := script("f(%s, %s)", `[for="gender-radio-1"]`, "NCR")
	assert.NoError(t, err)
	assert.Equal(t, `f("[for=\"gender-radio-1\"]", "NCR")`, js)
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	assert.Contains(t, formrun.RegisteredBrowsers(), formrun.BrowserChromedp)
}
