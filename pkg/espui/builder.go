package espui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

// sliderIDPrefix is the fixed prefix slider container identifiers carry;
// the remainder of the id is the slider's device channel key
const sliderIDPrefix = "sl"

// Slider is a single percentage slider bound to a device channel. Its
// value is the single source of truth once initialized; displayed holds
// the last value rendered into the label, kept as a typed integer so the
// dedup gate compares numbers rather than strings.
type Slider struct {
	channelKey string
	value      int
	displayed  int

	container  Container
	controller *DragController

	// lock serializes the two mutation paths into the slider: the
	// host-facing pointer API and the device-message goroutine
	lock sync.Mutex
}

// ChannelKey returns the slider's device channel key
func (s *Slider) ChannelKey() string {
	return s.channelKey
}

// Value returns the slider's current value
func (s *Slider) Value() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.value
}

// SliderBuilder materializes the visual sub-tree of each slider
// container on a surface and seeds it from its paired input
type SliderBuilder struct {
	logger *zap.SugaredLogger
}

// NewSliderBuilder creates a SliderBuilder instance
func NewSliderBuilder(logger *zap.SugaredLogger) *SliderBuilder {
	logger = logger.Named("builder")

	sb := &SliderBuilder{logger: logger}

	logger.Debug("Created slider builder instance")

	return sb
}

// Build scans the surface for slider containers and returns the seeded
// sliders. Containers without the slider id prefix are skipped, as are
// duplicate ids. A container with no paired input seeds at 0.
func (sb *SliderBuilder) Build(surface Surface) []*Slider {
	sliders := []*Slider{}
	seenIDs := []string{}

	for _, container := range surface.Containers() {
		id := container.ID()

		if !strings.HasPrefix(id, sliderIDPrefix) {
			sb.logger.Debugw("Skipping non-slider container", "id", id)
			continue
		}

		if funk.ContainsString(seenIDs, id) {
			sb.logger.Warnw("Skipping duplicate slider container", "id", id)
			continue
		}
		seenIDs = append(seenIDs, id)

		value, ok := container.InputValue()
		if !ok {
			sb.logger.Debugw("Slider container has no paired input, seeding at 0", "id", id)
			value = 0
		}
		value = clampPercent(value)

		// seed all visual representations from the input's value
		container.SetFill(value)
		container.SetHandle(value, true)
		container.SetLabel(strconv.Itoa(value))

		sliders = append(sliders, &Slider{
			channelKey: strings.TrimPrefix(id, sliderIDPrefix),
			value:      value,
			displayed:  value,
			container:  container,
		})
	}

	sb.logger.Debugw("Built sliders from surface", "count", len(sliders))

	return sliders
}
