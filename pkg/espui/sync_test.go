package espui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func buildTestSlider(t *testing.T, initialValue int) (*Slider, *MemoryContainer) {
	t.Helper()

	surface := NewMemorySurface()
	container := surface.AddContainer("sl7", Bounds{Width: 200}, initialValue)

	sliders := NewSliderBuilder(zap.S()).Build(surface)
	assert.Len(t, sliders, 1)

	return sliders[0], container
}

func TestValueSync_Apply(t *testing.T) {
	type apply struct {
		value         int
		userInitiated bool
	}

	type testCase struct {
		initialValue  int
		applies       []apply
		expectedValue int
		expectedLabel string
		expectedSent  []string
	}

	testCases := map[string]testCase{
		"repeat-value-notifies-once": {
			applies:       []apply{{25, true}, {25, true}},
			expectedValue: 25,
			expectedLabel: "25",
			expectedSent:  []string{"slvalue:25:7"},
		},
		"distinct-values-notify-each": {
			applies:       []apply{{25, true}, {26, true}},
			expectedValue: 26,
			expectedLabel: "26",
			expectedSent:  []string{"slvalue:25:7", "slvalue:26:7"},
		},
		"programmatic-change-never-notifies": {
			applies:       []apply{{40, false}},
			expectedValue: 40,
			expectedLabel: "40",
			expectedSent:  []string{},
		},
		"clamped-above-range": {
			applies:       []apply{{150, true}},
			expectedValue: 100,
			expectedLabel: "100",
			expectedSent:  []string{"slvalue:100:7"},
		},
		"clamped-below-range-matches-initial": {
			applies:       []apply{{-5, true}},
			expectedValue: 0,
			expectedLabel: "0",
			expectedSent:  []string{},
		},
		"return-to-initial-value-notifies": {
			initialValue:  30,
			applies:       []apply{{60, true}, {30, true}},
			expectedValue: 30,
			expectedLabel: "30",
			expectedSent:  []string{"slvalue:60:7", "slvalue:30:7"},
		},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			slider, container := buildTestSlider(t, testCase.initialValue)

			sender := &recordingSender{sent: []string{}}
			valueSync := NewValueSync(zap.S(), sender)

			for _, a := range testCase.applies {
				valueSync.Apply(slider, a.value, a.userInitiated, false)
			}

			assert.Equal(t, testCase.expectedValue, slider.Value())
			assert.Equal(t, testCase.expectedSent, sender.sent)

			// all representations must agree
			assert.Equal(t, testCase.expectedLabel, container.LabelText())
			assert.Equal(t, testCase.expectedValue, container.FillPercent())
			assert.Equal(t, testCase.expectedValue, container.HandlePercent())

			inputValue, ok := container.InputValue()
			assert.True(t, ok)
			assert.Equal(t, testCase.expectedValue, inputValue)
		})
	}
}

func TestValueSync_TransitionSuppression(t *testing.T) {
	slider, container := buildTestSlider(t, 0)
	valueSync := NewValueSync(zap.S(), &recordingSender{})

	// drag applies suppress transitions for immediate feedback
	valueSync.Apply(slider, 40, true, false)
	assert.False(t, container.HandleAnimated())

	// programmatic applies keep them on
	valueSync.Apply(slider, 60, false, true)
	assert.True(t, container.HandleAnimated())
}

func TestValueSync_NilSender(t *testing.T) {
	slider, container := buildTestSlider(t, 0)
	valueSync := NewValueSync(zap.S(), nil)

	// must update visuals and swallow the missing transport
	valueSync.Apply(slider, 55, true, false)

	assert.Equal(t, 55, slider.Value())
	assert.Equal(t, "55", container.LabelText())
}
