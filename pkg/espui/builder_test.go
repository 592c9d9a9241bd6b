package espui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSliderBuilder_Build(t *testing.T) {
	surface := NewMemorySurface()
	surface.AddContainer("sl1", Bounds{Width: 200}, 30)
	surface.AddContainer("sl2", Bounds{Width: 200}, 130)
	surface.AddBareContainer("sl9", Bounds{Width: 200})
	surface.AddContainer("header", Bounds{Width: 200}, 50)
	surface.AddContainer("sl1", Bounds{Width: 200}, 70)

	sliders := NewSliderBuilder(zap.S()).Build(surface)

	// the non-slider container and the duplicate id are skipped
	assert.Len(t, sliders, 3)

	byKey := map[string]*Slider{}
	for _, slider := range sliders {
		byKey[slider.ChannelKey()] = slider
	}

	assert.Equal(t, 30, byKey["1"].Value())

	// out-of-range initial values are clamped
	assert.Equal(t, 100, byKey["2"].Value())

	// a container without a paired input seeds at 0
	assert.Equal(t, 0, byKey["9"].Value())
}

func TestSliderBuilder_SeedsVisuals(t *testing.T) {
	surface := NewMemorySurface()
	container := surface.AddContainer("sl4", Bounds{Width: 200}, 42)

	sliders := NewSliderBuilder(zap.S()).Build(surface)
	assert.Len(t, sliders, 1)

	assert.Equal(t, 42, container.FillPercent())
	assert.Equal(t, 42, container.HandlePercent())
	assert.Equal(t, "42", container.LabelText())

	// initialization is not a drag, transitions stay on
	assert.True(t, container.HandleAnimated())
	assert.False(t, container.Active())
}
