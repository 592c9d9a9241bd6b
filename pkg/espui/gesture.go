package espui

import (
	"math"

	"go.uber.org/zap"
)

// PointerKind classifies a raw pointer event
type PointerKind int

// Pointer event kinds
const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// PointerSource distinguishes mouse from touch input
type PointerSource int

// Pointer event sources
const (
	SourceMouse PointerSource = iota
	SourceTouch
)

// PointerTarget names the part of the slider a pointer-down hit.
// Move and up events are document-level and carry TargetNone.
type PointerTarget int

// Pointer event targets
const (
	TargetNone PointerTarget = iota
	TargetHandle
	TargetTrack
)

const rightMouseButton = 2

// PointerEvent is a single raw pointer or touch event fed to the panel
type PointerEvent struct {
	Kind   PointerKind
	Source PointerSource
	Target PointerTarget
	Button int
	PageX  float64
}

// gesture is the explicit per-gesture listener handle: it exists only
// between pointer-down and pointer-up and carries the track bounds
// captured at gesture start
type gesture struct {
	bounds     Bounds
	fromHandle bool
}

// DragController owns one slider's gesture state machine: Idle while no
// gesture is in progress, Dragging between pointer-down and pointer-up
type DragController struct {
	logger *zap.SugaredLogger

	slider *Slider
	sync   *ValueSync

	gesture *gesture
}

// NewDragController creates a DragController for the given slider
func NewDragController(logger *zap.SugaredLogger, slider *Slider, sync *ValueSync) *DragController {
	logger = logger.Named("gesture")

	return &DragController{
		logger: logger,
		slider: slider,
		sync:   sync,
	}
}

// Dragging reports whether a gesture is currently in progress
func (dc *DragController) Dragging() bool {
	dc.slider.lock.Lock()
	defer dc.slider.lock.Unlock()

	return dc.gesture != nil
}

// HandlePointerDown processes a pointer-down that hit this slider's
// handle or track. Right-button presses and disabled sliders never
// start a gesture. A track hit applies the click position once,
// synchronously; a handle hit only marks the handle active.
func (dc *DragController) HandlePointerDown(event PointerEvent) {
	if event.Button == rightMouseButton {
		return
	}

	dc.slider.lock.Lock()
	defer dc.slider.lock.Unlock()

	if dc.slider.container.InputDisabled() {
		return
	}

	// a second pointer-down while dragging keeps the existing gesture
	if dc.gesture != nil {
		return
	}

	// capture the track geometry fresh, once per gesture
	bounds := dc.slider.container.Bounds()
	dc.gesture = &gesture{
		bounds:     bounds,
		fromHandle: event.Target == TargetHandle,
	}

	if event.Target == TargetHandle {
		dc.slider.container.SetActive(true)
	} else {
		dc.applyOffset(event.PageX - bounds.OffsetLeft)
	}
}

// HandleDocumentMove processes a document-level move event. It is a
// no-op unless a gesture is in progress; offsets outside the track's
// span leave the value untouched, clamping drag motion at the ends.
func (dc *DragController) HandleDocumentMove(event PointerEvent) {
	dc.slider.lock.Lock()
	defer dc.slider.lock.Unlock()

	if dc.gesture == nil {
		return
	}

	dc.applyOffset(event.PageX - dc.gesture.bounds.OffsetLeft)
}

// HandleDocumentUp ends the gesture, detaching the per-gesture handle
// and clearing the active marker. The slider keeps whatever value was
// last applied.
func (dc *DragController) HandleDocumentUp(event PointerEvent) {
	dc.slider.lock.Lock()
	defer dc.slider.lock.Unlock()

	if dc.gesture == nil {
		return
	}

	dc.gesture = nil
	dc.slider.container.SetActive(false)
}

func (dc *DragController) applyOffset(offset float64) {
	width := dc.gesture.bounds.Width
	if width <= 0 {
		dc.logger.Debugw("Track has no width, ignoring offset", "channelKey", dc.slider.channelKey)
		return
	}

	if offset < 0 || offset > width {
		return
	}

	value := int(math.Round(offset / width * 100))
	dc.sync.Apply(dc.slider, value, true, false)
}
