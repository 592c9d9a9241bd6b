package espui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"
)

// SerialIO provides a panel-aware abstraction layer to managing serial
// I/O with a device wired over a COM port
type SerialIO struct {
	panel       *Panel
	logger      *zap.SugaredLogger
	namedLogger *zap.SugaredLogger

	stopChannel chan bool
	connected   bool
	connOptions serial.OpenOptions

	writeLock sync.Mutex
	conn      io.ReadWriteCloser

	deviceMessageConsumers []chan string
}

// NewSerialIO creates a SerialIO instance that uses the provided panel
// instance's connection info to establish communications with the device
func NewSerialIO(panel *Panel, logger *zap.SugaredLogger) (*SerialIO, error) {
	logger = logger.Named("serial")

	sio := &SerialIO{
		panel:                  panel,
		logger:                 logger,
		stopChannel:            make(chan bool),
		deviceMessageConsumers: []chan string{},
	}

	logger.Debug("Created serial i/o instance")

	return sio, nil
}

// Start attempts to connect to the device over the configured COM port
// and begins reading its line stream
func (sio *SerialIO) Start() error {

	// don't allow multiple concurrent connections
	if sio.connected {
		sio.logger.Warn("Already connected, can't start another without closing first")
		return errors.New("serial: connection already active")
	}

	sio.connOptions = serial.OpenOptions{
		PortName:        sio.panel.config.ConnectionInfo.COMPort,
		BaudRate:        uint(sio.panel.config.ConnectionInfo.BaudRate),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}

	sio.namedLogger = sio.logger.Named(strings.ToLower(sio.connOptions.PortName))

	sio.namedLogger.Debugw("Attempting serial connection",
		"comPort", sio.connOptions.PortName,
		"baudRate", sio.connOptions.BaudRate)

	var err error
	sio.conn, err = serial.Open(sio.connOptions)
	if err != nil {
		sio.namedLogger.Warnw("Failed to open serial connection", "error", err)
		return fmt.Errorf("open serial connection: %w", err)
	}

	sio.namedLogger.Infow("Connected", "conn", sio.conn)
	sio.connected = true

	// read lines or await a stop
	go func() {
		lineChannel := sio.readLine(sio.namedLogger)

		for {
			select {
			case <-sio.stopChannel:
				sio.close(sio.namedLogger)
				return
			case line, ok := <-lineChannel:
				if !ok {
					sio.close(sio.namedLogger)
					return
				}

				sio.handleLine(sio.namedLogger, line)
			}
		}
	}()

	return nil
}

// Stop signals us to shut down our serial connection, if one is active
func (sio *SerialIO) Stop() {
	if sio.connected {
		sio.logger.Debug("Shutting down serial connection")
		sio.stopChannel <- true
	} else {
		sio.logger.Debug("Not currently connected, nothing to stop")
	}
}

// Send writes a single line to the device
func (sio *SerialIO) Send(message string) error {
	sio.writeLock.Lock()
	defer sio.writeLock.Unlock()

	if sio.conn == nil {
		return errors.New("serial: not connected")
	}

	if _, err := sio.conn.Write([]byte(message + "\n")); err != nil {
		return fmt.Errorf("write line: %w", err)
	}

	return nil
}

// SubscribeToDeviceMessages returns an unbuffered channel that receives
// every valid state update line sent by the device
func (sio *SerialIO) SubscribeToDeviceMessages() chan string {
	ch := make(chan string)
	sio.deviceMessageConsumers = append(sio.deviceMessageConsumers, ch)

	return ch
}

func (sio *SerialIO) close(logger *zap.SugaredLogger) {
	sio.writeLock.Lock()
	defer sio.writeLock.Unlock()

	if sio.conn == nil {
		return
	}

	if err := sio.conn.Close(); err != nil {
		logger.Warnw("Failed to close serial connection", "error", err)
	} else {
		logger.Debug("Serial connection closed")
	}

	sio.conn = nil
	sio.connected = false
}

func (sio *SerialIO) readLine(logger *zap.SugaredLogger) chan string {
	ch := make(chan string)
	reader := bufio.NewReader(sio.conn)

	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {

				// happens once when the connection drops, the select loop will clean up
				close(ch)
				return
			}

			if sio.panel.Verbose() {
				logger.Debugw("Read new line", "line", line)
			}

			ch <- line
		}
	}()

	return ch
}

func (sio *SerialIO) handleLine(logger *zap.SugaredLogger, line string) {

	// lines are guaranteed to end with LF and will usually end with CRLF.
	// they may also carry garbage instead of device-formatted values, so
	// anything unexpected is just ignored
	line = strings.TrimRight(line, "\r\n")

	if !expectedDeviceMessagePattern.MatchString(line) {
		if sio.panel.Verbose() {
			logger.Debugw("Got unexpected serial line, ignoring", "line", line)
		}

		return
	}

	for _, consumer := range sio.deviceMessageConsumers {
		consumer <- line
	}
}
