package espui

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// Sender is the minimal outbound capability ValueSync needs from the
// device link. The full Transport satisfies it.
type Sender interface {
	Send(message string) error
}

// ValueSync applies newly computed slider values consistently across
// every representation and decides when to notify the device
type ValueSync struct {
	logger *zap.SugaredLogger
	sender Sender
}

// NewValueSync creates a ValueSync instance that notifies the device
// through the given sender. A nil sender disables outbound messages.
func NewValueSync(logger *zap.SugaredLogger, sender Sender) *ValueSync {
	logger = logger.Named("sync")

	vs := &ValueSync{
		logger: logger,
		sender: sender,
	}

	logger.Debug("Created value sync instance")

	return vs
}

// Apply pushes a value into the slider's fill, handle and input
// unconditionally, then updates the label and notifies the device only
// when the value differs from the one currently displayed. The outbound
// message is sent only for user-initiated changes, so programmatic
// updates never echo back to the device.
//
// Callers that can race (the drag controller and the device-message
// path) must hold the slider's lock.
func (vs *ValueSync) Apply(slider *Slider, value int, userInitiated bool, animate bool) {
	value = clampPercent(value)

	slider.container.SetFill(value)
	slider.container.SetHandle(value, animate)
	slider.container.SetInputValue(value)
	slider.value = value

	// the displayed-value gate keeps pointer jitter within the same
	// rounded percentage from flooding the device
	if value == slider.displayed {
		return
	}

	slider.displayed = value
	slider.container.SetLabel(strconv.Itoa(value))

	if !userInitiated || vs.sender == nil {
		return
	}

	if err := vs.sender.Send(fmt.Sprintf("slvalue:%d:%s", value, slider.channelKey)); err != nil {
		vs.logger.Debugw("Failed to send slider value to device",
			"channelKey", slider.channelKey,
			"value", value,
			"error", err)
	}
}

// clampPercent constrains a value to the valid [0, 100] range
func clampPercent(value int) int {
	if value < 0 {
		return 0
	}

	if value > 100 {
		return 100
	}

	return value
}
