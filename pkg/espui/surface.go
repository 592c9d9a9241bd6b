package espui

import (
	"strconv"
	"sync"
)

// Bounds describes the horizontal geometry of a slider's track. It is
// read fresh at gesture start, so responsive surfaces stay correct
// after a resize.
type Bounds struct {
	Width      float64
	OffsetLeft float64
}

// Container is a single slider placeholder on a rendering surface. It
// exposes the paired value input and the visual sub-tree (fill, handle,
// label) without tying the panel to any concrete surface technology.
type Container interface {

	// ID returns the container's stable identifier, of the form
	// <prefix><channelKey> (e.g. "sl3")
	ID() string

	// InputValue returns the paired input's current value. The second
	// return value is false when no input is paired with the container.
	InputValue() (int, bool)

	// InputDisabled reports whether the paired input is disabled
	InputDisabled() bool

	// SetInputValue stores a value into the paired input
	SetInputValue(value int)

	// SetInputDisabled toggles the paired input's disabled state
	SetInputDisabled(disabled bool)

	// Bounds returns the track's current geometry
	Bounds() Bounds

	// SetFill sets the fill bar's width as a percentage
	SetFill(percent int)

	// SetHandle sets the handle's left offset as a percentage. When
	// animate is false, transition effects are suppressed so drag
	// feedback is immediate.
	SetHandle(percent int, animate bool)

	// SetLabel sets the text shown inside the handle's label
	SetLabel(text string)

	// SetActive toggles the handle's active visual marker
	SetActive(active bool)
}

// Surface is the rendering surface a panel draws its sliders on
type Surface interface {
	Containers() []Container
}

// MemorySurface is an in-memory Surface implementation. It backs the
// host binary and lets the widget logic be exercised without any real
// rendering surface.
type MemorySurface struct {
	containers []Container
}

// NewMemorySurface creates an empty MemorySurface
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{containers: []Container{}}
}

// AddContainer adds a slider container with a paired input holding the
// given initial value, and returns it for further inspection
func (ms *MemorySurface) AddContainer(id string, bounds Bounds, initialValue int) *MemoryContainer {
	container := &MemoryContainer{
		id:         id,
		bounds:     bounds,
		inputValue: initialValue,
		hasInput:   true,
	}

	ms.containers = append(ms.containers, container)
	return container
}

// AddBareContainer adds a slider container without a paired input
func (ms *MemorySurface) AddBareContainer(id string, bounds Bounds) *MemoryContainer {
	container := &MemoryContainer{
		id:     id,
		bounds: bounds,
	}

	ms.containers = append(ms.containers, container)
	return container
}

// Containers returns all containers added to the surface
func (ms *MemorySurface) Containers() []Container {
	return ms.containers
}

// MemoryContainer is the MemorySurface's container implementation. It
// records every visual mutation so consistency between the fill, the
// handle and the label stays checkable.
type MemoryContainer struct {
	id     string
	bounds Bounds

	lock sync.Mutex

	inputValue    int
	hasInput      bool
	inputDisabled bool

	fillPercent    int
	handlePercent  int
	handleAnimated bool
	labelText      string
	active         bool
}

// ID returns the container's identifier
func (mc *MemoryContainer) ID() string {
	return mc.id
}

// InputValue returns the paired input's value, if an input is paired
func (mc *MemoryContainer) InputValue() (int, bool) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	if !mc.hasInput {
		return 0, false
	}

	return mc.inputValue, true
}

// InputDisabled reports whether the paired input is disabled
func (mc *MemoryContainer) InputDisabled() bool {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.inputDisabled
}

// SetInputValue stores a value into the paired input
func (mc *MemoryContainer) SetInputValue(value int) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	mc.inputValue = value
	mc.hasInput = true
}

// SetInputDisabled toggles the paired input's disabled state
func (mc *MemoryContainer) SetInputDisabled(disabled bool) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	mc.inputDisabled = disabled
}

// Bounds returns the track geometry the container was created with
func (mc *MemoryContainer) Bounds() Bounds {
	return mc.bounds
}

// SetBounds updates the track geometry, simulating a surface resize
func (mc *MemoryContainer) SetBounds(bounds Bounds) {
	mc.bounds = bounds
}

// SetFill records the fill bar's width percentage
func (mc *MemoryContainer) SetFill(percent int) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	mc.fillPercent = percent
}

// SetHandle records the handle's left offset percentage
func (mc *MemoryContainer) SetHandle(percent int, animate bool) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	mc.handlePercent = percent
	mc.handleAnimated = animate
}

// SetLabel records the handle label's text
func (mc *MemoryContainer) SetLabel(text string) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	mc.labelText = text
}

// SetActive records the handle's active marker state
func (mc *MemoryContainer) SetActive(active bool) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	mc.active = active
}

// FillPercent returns the last recorded fill width percentage
func (mc *MemoryContainer) FillPercent() int {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.fillPercent
}

// HandlePercent returns the last recorded handle offset percentage
func (mc *MemoryContainer) HandlePercent() int {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.handlePercent
}

// HandleAnimated reports whether the last handle move kept transitions on
func (mc *MemoryContainer) HandleAnimated() bool {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.handleAnimated
}

// LabelText returns the last recorded label text
func (mc *MemoryContainer) LabelText() string {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.labelText
}

// Active reports whether the handle currently carries the active marker
func (mc *MemoryContainer) Active() bool {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return mc.active
}

// String is a human-readable representation for logging
func (mc *MemoryContainer) String() string {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	return "<container " + mc.id + " at " + strconv.Itoa(mc.fillPercent) + "%>"
}
