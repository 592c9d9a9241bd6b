package espui

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebsockIO provides a panel-aware abstraction layer to managing a
// persistent websocket connection to an ESPUI device
type WebsockIO struct {
	panel       *Panel
	logger      *zap.SugaredLogger
	namedLogger *zap.SugaredLogger

	stopChannel chan bool
	running     bool
	deviceURL   string

	connLock sync.Mutex
	conn     *websocket.Conn

	deviceMessageConsumers []chan string
}

const (
	websockHandshakeTimeout = 10 * time.Second
	websockWriteTimeout     = 10 * time.Second
)

// expectedDeviceMessagePattern matches the state update frames the
// device pushes; anything else on the wire is ignored
var expectedDeviceMessagePattern = regexp.MustCompile(`^slvalue:\d{1,3}:\d+$`)

// NewWebsockIO creates a WebsockIO instance that uses the provided panel
// instance's connection info to establish communications with the device
func NewWebsockIO(panel *Panel, logger *zap.SugaredLogger) (*WebsockIO, error) {
	logger = logger.Named("websock")

	wio := &WebsockIO{
		panel:                  panel,
		logger:                 logger,
		stopChannel:            make(chan bool),
		deviceMessageConsumers: []chan string{},
	}

	logger.Debug("Created websocket i/o instance")

	// respond to config changes
	wio.setupOnConfigReload()

	return wio, nil
}

// Start validates the configured device URL and launches the connection
// loop. Dial failures don't fail Start - the loop keeps redialing until
// stopped.
func (wio *WebsockIO) Start() error {

	// don't allow multiple concurrent connection loops
	if wio.running {
		wio.logger.Warn("Already running, can't start another connection loop without stopping first")
		return errors.New("websock: connection loop already active")
	}

	wio.deviceURL = wio.panel.config.ConnectionInfo.DeviceURL

	parsed, err := url.Parse(wio.deviceURL)
	if err != nil {
		wio.logger.Warnw("Failed to parse device URL", "deviceUrl", wio.deviceURL, "error", err)
		return fmt.Errorf("parse device url: %w", err)
	}

	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		wio.logger.Warnw("Device URL scheme must be ws or wss", "deviceUrl", wio.deviceURL)
		return fmt.Errorf("device url scheme must be ws or wss, got %q", parsed.Scheme)
	}

	wio.namedLogger = wio.logger.Named(parsed.Host)
	wio.running = true

	go wio.connectLoop()

	return nil
}

// Stop signals us to shut down our websocket connection, if one is active
func (wio *WebsockIO) Stop() {
	if wio.running {
		wio.logger.Debug("Shutting down websocket connection")
		wio.stopChannel <- true
	} else {
		wio.logger.Debug("Not currently connected, nothing to stop")
	}
}

// Send writes a single text frame to the device
func (wio *WebsockIO) Send(message string) error {
	wio.connLock.Lock()
	defer wio.connLock.Unlock()

	if wio.conn == nil {
		return errors.New("websock: not connected")
	}

	// gorilla conns don't tolerate concurrent writers, so writes stay
	// serialized under the lock
	if err := wio.conn.SetWriteDeadline(time.Now().Add(websockWriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	if err := wio.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return fmt.Errorf("write text frame: %w", err)
	}

	return nil
}

// SubscribeToDeviceMessages returns an unbuffered channel that receives
// every valid state update frame pushed by the device
func (wio *WebsockIO) SubscribeToDeviceMessages() chan string {
	ch := make(chan string)
	wio.deviceMessageConsumers = append(wio.deviceMessageConsumers, ch)

	return ch
}

func (wio *WebsockIO) connectLoop() {
	for {
		if wio.connect() {
			messageChannel := wio.readMessage()
			stopped := false

		read:
			for {
				select {
				case <-wio.stopChannel:
					stopped = true
					break read
				case message, ok := <-messageChannel:
					if !ok {

						// the read loop died with the connection
						break read
					}

					wio.handleMessage(wio.namedLogger, message)
				}
			}

			wio.close(wio.namedLogger)

			if stopped {
				wio.running = false
				return
			}
		}

		// redial after a pause, unless stopped meanwhile
		select {
		case <-wio.stopChannel:
			wio.running = false
			return
		case <-time.After(wio.panel.config.ConnectionInfo.ReconnectInterval):
		}
	}
}

func (wio *WebsockIO) connect() bool {
	wio.namedLogger.Debugw("Attempting websocket connection", "deviceUrl", wio.deviceURL)

	dialer := &websocket.Dialer{HandshakeTimeout: websockHandshakeTimeout}

	conn, _, err := dialer.Dial(wio.deviceURL, nil)
	if err != nil {
		wio.namedLogger.Warnw("Failed to open websocket connection", "error", err)
		return false
	}

	wio.connLock.Lock()
	wio.conn = conn
	wio.connLock.Unlock()

	wio.namedLogger.Infow("Connected", "deviceUrl", wio.deviceURL)

	return true
}

func (wio *WebsockIO) close(logger *zap.SugaredLogger) {
	wio.connLock.Lock()
	defer wio.connLock.Unlock()

	if wio.conn == nil {
		return
	}

	if err := wio.conn.Close(); err != nil {
		logger.Warnw("Failed to close websocket connection", "error", err)
	} else {
		logger.Debug("Websocket connection closed")
	}

	wio.conn = nil
}

func (wio *WebsockIO) readMessage() chan string {
	ch := make(chan string)
	conn := wio.conn

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {

				// happens once per connection teardown, the loop will redial
				close(ch)
				return
			}

			ch <- string(data)
		}
	}()

	return ch
}

func (wio *WebsockIO) handleMessage(logger *zap.SugaredLogger, message string) {

	// the device can push arbitrary frames - only deliver the ones that
	// look like slider state updates
	if !expectedDeviceMessagePattern.MatchString(message) {
		if wio.panel.Verbose() {
			logger.Debugw("Got unexpected websocket frame, ignoring", "message", message)
		}

		return
	}

	for _, consumer := range wio.deviceMessageConsumers {
		consumer <- message
	}
}

func (wio *WebsockIO) setupOnConfigReload() {
	configReloadedChannel := wio.panel.config.SubscribeToChanges()

	const stopDelay = 50 * time.Millisecond

	go func() {
		for range configReloadedChannel {

			// if connection params have changed, attempt to stop and start the connection
			if wio.running && wio.panel.config.ConnectionInfo.DeviceURL != wio.deviceURL {
				wio.logger.Info("Detected change in connection parameters, attempting to renew connection")
				wio.Stop()

				// let the connection close
				<-time.After(stopDelay)

				if err := wio.Start(); err != nil {
					wio.logger.Warnw("Failed to renew connection after parameter change", "error", err)
				} else {
					wio.logger.Debug("Renewed connection successfully")
				}
			}
		}
	}()
}
