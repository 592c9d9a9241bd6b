package espui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWebsockIO_handleMessage(t *testing.T) {
	type testCase struct {
		givenMessage   string
		expectDelivery bool
	}

	testCases := map[string]testCase{
		"valid-state-update": {
			givenMessage:   "slvalue:42:3",
			expectDelivery: true,
		},
		"valid-zero-value": {
			givenMessage:   "slvalue:0:10",
			expectDelivery: true,
		},
		"missing-channel-key": {
			givenMessage:   "slvalue:42",
			expectDelivery: false,
		},
		"wrong-verb": {
			givenMessage:   "volume:42:3",
			expectDelivery: false,
		},
		"negative-value": {
			givenMessage:   "slvalue:-4:3",
			expectDelivery: false,
		},
		"non-numeric-channel": {
			givenMessage:   "slvalue:42:x",
			expectDelivery: false,
		},
		"gibberish-frame": {
			givenMessage:   "UwU",
			expectDelivery: false,
		},
		"empty-frame": {
			givenMessage:   "",
			expectDelivery: false,
		},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			wio := WebsockIO{
				logger: zap.S(),
				panel:  &Panel{},
				deviceMessageConsumers: []chan string{
					make(chan string, 1),
				},
			}

			wio.handleMessage(zap.S(), testCase.givenMessage)

			if testCase.expectDelivery {
				assert.Equal(t, testCase.givenMessage, <-wio.deviceMessageConsumers[0])
			} else {
				assert.Len(t, wio.deviceMessageConsumers[0], 0)
			}
		})
	}
}

func TestWebsockIO_Send(t *testing.T) {
	wio := &WebsockIO{logger: zap.S()}

	// no connection yet
	assert.Error(t, wio.Send("slvalue:10:1"))

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	assert.NoError(t, err)

	wio.conn = conn
	assert.NoError(t, wio.Send("slvalue:10:1"))

	// a dead connection must surface an error, deadline errors included
	assert.NoError(t, conn.Close())
	assert.Error(t, wio.Send("slvalue:10:1"))
}
