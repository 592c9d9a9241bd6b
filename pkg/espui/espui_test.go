package espui

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func buildTestPanel(t *testing.T, surface Surface, sender Sender) *Panel {
	t.Helper()

	p := &Panel{
		logger:    zap.S(),
		sliders:   newSliderMap(),
		valueSync: NewValueSync(zap.S(), sender),
	}

	for _, slider := range NewSliderBuilder(zap.S()).Build(surface) {
		slider.controller = NewDragController(zap.S(), slider, p.valueSync)
		p.sliders.set(slider.ChannelKey(), slider)
	}

	return p
}

func TestPanel_handleDeviceMessage(t *testing.T) {
	surface := NewMemorySurface()
	container := surface.AddContainer("sl3", Bounds{Width: 200}, 0)

	sender := &recordingSender{sent: []string{}}
	p := buildTestPanel(t, surface, sender)

	p.handleDeviceMessage("slvalue:40:3")

	slider, ok := p.sliders.get("3")
	assert.True(t, ok)
	assert.Equal(t, 40, slider.Value())
	assert.Equal(t, "40", container.LabelText())

	// device pushes keep transitions on and never echo back out
	assert.True(t, container.HandleAnimated())
	assert.Equal(t, []string{}, sender.sent)

	// unknown channels and malformed frames are ignored
	p.handleDeviceMessage("slvalue:55:99")
	p.handleDeviceMessage("slvalue:55")
	p.handleDeviceMessage("slvalue:notanumber:3")
	assert.Equal(t, 40, slider.Value())
}

func TestPanel_HandlePointerEvent_DocumentRouting(t *testing.T) {
	surface := NewMemorySurface()
	surface.AddContainer("sl1", Bounds{Width: 200, OffsetLeft: 0}, 0)
	surface.AddContainer("sl2", Bounds{Width: 200, OffsetLeft: 300}, 0)

	sender := &recordingSender{sent: []string{}}
	p := buildTestPanel(t, surface, sender)

	// a gesture on slider 1...
	p.HandlePointerEvent("1", down(TargetTrack, 100))

	// ...keeps tracking document-level moves, wherever they land
	p.HandlePointerEvent("", move(150))

	first, _ := p.sliders.get("1")
	second, _ := p.sliders.get("2")
	assert.Equal(t, 75, first.Value())
	assert.Equal(t, 0, second.Value())

	// release ends the gesture; later moves reach no one
	p.HandlePointerEvent("", up())
	p.HandlePointerEvent("", move(20))
	assert.Equal(t, 75, first.Value())

	assert.Equal(t, []string{"slvalue:50:1", "slvalue:75:1"}, sender.sent)
}

func TestPanel_DeviceAndPointerUpdatesStayConsistent(t *testing.T) {
	surface := NewMemorySurface()
	container := surface.AddContainer("sl3", Bounds{Width: 200}, 0)

	p := buildTestPanel(t, surface, &recordingSender{sent: []string{}})

	// device pushes of 40 race against track clicks landing on 75
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := 0; i < 500; i++ {
			p.handleDeviceMessage("slvalue:40:3")
		}
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < 500; i++ {
			p.HandlePointerEvent("3", down(TargetTrack, 150))
			p.HandlePointerEvent("", up())
		}
	}()

	wg.Wait()

	// whichever update landed last, every representation agrees with it
	slider, ok := p.sliders.get("3")
	assert.True(t, ok)

	value := slider.Value()
	assert.Contains(t, []int{40, 75}, value)
	assert.Equal(t, value, container.FillPercent())
	assert.Equal(t, value, container.HandlePercent())
	assert.Equal(t, strconv.Itoa(value), container.LabelText())
}

func TestPanel_ConcurrentGesturesAreIsolated(t *testing.T) {
	surface := NewMemorySurface()
	surface.AddContainer("sl1", Bounds{Width: 100, OffsetLeft: 0}, 0)
	surface.AddContainer("sl2", Bounds{Width: 100, OffsetLeft: 200}, 0)

	sender := &recordingSender{sent: []string{}}
	p := buildTestPanel(t, surface, sender)

	// two touch gestures, one per slider
	p.HandlePointerEvent("1", down(TargetHandle, 0))
	p.HandlePointerEvent("2", down(TargetHandle, 200))

	// each slider resolves document moves against its own bounds
	p.HandlePointerEvent("", move(50))

	first, _ := p.sliders.get("1")
	second, _ := p.sliders.get("2")
	assert.Equal(t, 50, first.Value())
	assert.Equal(t, 0, second.Value())
}
