package espui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSerialIO_handleLine(t *testing.T) {
	type testCase struct {
		givenLine       string
		expectedMessage string
	}

	testCases := map[string]testCase{
		"crlf-terminated": {
			givenLine:       "slvalue:42:3\r\n",
			expectedMessage: "slvalue:42:3",
		},
		"lf-terminated": {
			givenLine:       "slvalue:100:0\n",
			expectedMessage: "slvalue:100:0",
		},
		"garbage-line": {
			givenLine:       "4558|925|41\r\n",
			expectedMessage: "",
		},
		"partial-frame": {
			givenLine:       "slvalue:\r\n",
			expectedMessage: "",
		},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			sio := SerialIO{
				logger: zap.S(),
				panel:  &Panel{},
				deviceMessageConsumers: []chan string{
					make(chan string, 1),
				},
			}

			sio.handleLine(zap.S(), testCase.givenLine)

			if testCase.expectedMessage != "" {
				assert.Equal(t, testCase.expectedMessage, <-sio.deviceMessageConsumers[0])
			} else {
				assert.Len(t, sio.deviceMessageConsumers[0], 0)
			}
		})
	}
}
