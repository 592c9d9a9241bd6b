// Package espui provides a machine-side slider panel client that pairs
// with an ESPUI-powered device: a set of draggable percentage sliders
// whose value changes are pushed to the device over a persistent
// connection.
package espui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/croghostrider/ESPUI/pkg/espui/util"
)

const (

	// when this is set to anything, the panel won't use a tray icon
	envNoTray = "ESPUI_NO_TRAY_ICON"

	// track geometry used for surfaces the panel creates on its own
	defaultTrackWidth = 200
)

// Panel is the main entity managing access to all sub-components
type Panel struct {
	logger   *zap.SugaredLogger
	notifier Notifier
	config   *CanonicalConfig

	surface   Surface
	sliders   *sliderMap
	valueSync *ValueSync
	transport Transport

	stopChannel chan bool
	version     string
	verbose     bool
}

// NewPanel creates a Panel instance
func NewPanel(logger *zap.SugaredLogger, verbose bool) (*Panel, error) {
	logger = logger.Named("panel")

	notifier, err := NewToastNotifier(logger)
	if err != nil {
		logger.Errorw("Failed to create ToastNotifier", "error", err)
		return nil, fmt.Errorf("create new ToastNotifier: %w", err)
	}

	config, err := NewConfig(logger, notifier)
	if err != nil {
		logger.Errorw("Failed to create Config", "error", err)
		return nil, fmt.Errorf("create new Config: %w", err)
	}

	p := &Panel{
		logger:      logger,
		notifier:    notifier,
		config:      config,
		stopChannel: make(chan bool),
		verbose:     verbose,
	}

	logger.Debug("Created panel instance")

	return p, nil
}

// SetSurface lets an embedding host provide its own rendering surface.
// It must be called before Initialize; when no surface is set, an
// in-memory surface is created from the configured channels.
func (p *Panel) SetSurface(surface Surface) {
	p.surface = surface
}

// SetVersion causes the panel to add a version string to its tray menu if called before Initialize
func (p *Panel) SetVersion(version string) {
	p.version = version
}

// Verbose returns a boolean indicating whether the panel is running in verbose mode
func (p *Panel) Verbose() bool {
	return p.verbose
}

// Initialize sets up components and starts to run in the background
func (p *Panel) Initialize() error {
	defer p.recoverFromPanic()

	p.logger.Debug("Initializing")

	// load the config for the first time
	if err := p.config.Load(); err != nil {
		p.logger.Errorw("Failed to load config during initialization", "error", err)
		return fmt.Errorf("load config during init: %w", err)
	}

	if p.surface == nil {
		p.surface = p.defaultSurface()
	}

	// wire the interaction pipeline: transport, value sync, sliders
	transport, err := p.createTransport()
	if err != nil {
		p.logger.Errorw("Failed to create transport", "error", err)
		return fmt.Errorf("create transport: %w", err)
	}

	p.transport = transport
	p.valueSync = NewValueSync(p.logger, transport)
	p.buildSliders()

	p.setupOnDeviceMessage()
	p.setupOnConfigReload()

	// decide whether to run with/without tray
	if _, noTraySet := os.LookupEnv(envNoTray); noTraySet {

		p.logger.Debugw("Running without tray icon", "reason", "envvar set")

		// run in main thread while waiting on ctrl+C
		p.setupInterruptHandler()
		p.run()

	} else {
		p.setupInterruptHandler()
		p.initializeTray(p.run)
	}

	return nil
}

// HandlePointerEvent feeds a raw pointer event into the panel. Down
// events carry the channel key of the slider whose handle or track was
// hit; move and up events are document-level and reach whichever
// sliders hold a gesture in progress, so a drag keeps tracking the
// pointer anywhere on the surface.
func (p *Panel) HandlePointerEvent(channelKey string, event PointerEvent) {
	switch event.Kind {
	case PointerDown:
		if slider, ok := p.sliders.get(channelKey); ok {
			slider.controller.HandlePointerDown(event)
		}
	case PointerMove:
		p.sliders.iterate(func(_ string, slider *Slider) {
			slider.controller.HandleDocumentMove(event)
		})
	case PointerUp:
		p.sliders.iterate(func(_ string, slider *Slider) {
			slider.controller.HandleDocumentUp(event)
		})
	}
}

func (p *Panel) createTransport() (Transport, error) {
	switch p.config.ConnectionInfo.Transport {
	case transportSerial:
		return NewSerialIO(p, p.logger)
	default:
		return NewWebsockIO(p, p.logger)
	}
}

func (p *Panel) defaultSurface() Surface {
	surface := NewMemorySurface()

	for idx, channelKey := range p.config.Channels {
		surface.AddContainer(sliderIDPrefix+channelKey, Bounds{
			Width:      defaultTrackWidth,
			OffsetLeft: float64(idx) * defaultTrackWidth,
		}, 0)
	}

	return surface
}

func (p *Panel) buildSliders() {
	builder := NewSliderBuilder(p.logger)
	sliders := newSliderMap()

	for _, slider := range builder.Build(p.surface) {
		slider.controller = NewDragController(p.logger, slider, p.valueSync)
		slider.container.SetInputDisabled(funk.ContainsString(p.config.DisabledChannels, slider.channelKey))
		sliders.set(slider.channelKey, slider)
	}

	p.sliders = sliders
	p.logger.Infow("Built slider panel", "sliders", p.sliders)
}

func (p *Panel) setupOnDeviceMessage() {
	deviceMessageChannel := p.transport.SubscribeToDeviceMessages()

	go func() {
		for message := range deviceMessageChannel {
			p.handleDeviceMessage(message)
		}
	}()
}

// handleDeviceMessage applies a state update pushed by the device. The
// change is not user-initiated, so it never echoes back out.
func (p *Panel) handleDeviceMessage(message string) {
	parts := strings.Split(message, ":")
	if len(parts) != 3 || parts[0] != "slvalue" {
		return
	}

	value, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}

	slider, ok := p.sliders.get(parts[2])
	if !ok {
		if p.verbose {
			p.logger.Debugw("Got value for unknown channel, ignoring", "message", message)
		}

		return
	}

	// this runs on the device-message goroutine, concurrently with the
	// host-facing pointer API; the slider lock keeps the two apart
	slider.lock.Lock()
	defer slider.lock.Unlock()

	p.valueSync.Apply(slider, value, false, true)
}

func (p *Panel) setupOnConfigReload() {
	configReloadedChannel := p.config.SubscribeToChanges()

	go func() {
		for range configReloadedChannel {
			p.logger.Debug("Detected config reload, re-applying disabled channels")

			p.sliders.iterate(func(channelKey string, slider *Slider) {
				slider.container.SetInputDisabled(funk.ContainsString(p.config.DisabledChannels, channelKey))
			})
		}
	}()
}

func (p *Panel) setupInterruptHandler() {
	interruptChannel := util.SetupCloseHandler()

	go func() {
		signal := <-interruptChannel
		p.logger.Debugw("Interrupted", "signal", signal)
		p.signalStop()
	}()
}

func (p *Panel) run() {
	p.logger.Info("Run loop starting")

	// watch the config file for changes
	go p.config.WatchConfigFileChanges()

	// connect to the device for the first time
	go func() {
		if err := p.transport.Start(); err != nil {
			p.logger.Warnw("Failed to start first-time device connection", "error", err)

			p.notifier.Notify("Can't connect to the device!",
				"Check your configuration and make sure the device is reachable.")

			p.signalStop()
		}
	}()

	// wait until stopped (gracefully)
	<-p.stopChannel
	p.logger.Debug("Stop channel signaled, terminating")

	if err := p.stop(); err != nil {
		p.logger.Warnw("Failed to stop panel", "error", err)
		os.Exit(1)
	} else {
		// exit with 0
		os.Exit(0)
	}
}

func (p *Panel) signalStop() {
	p.logger.Debug("Signalling stop channel")
	p.stopChannel <- true
}

func (p *Panel) stop() error {
	p.logger.Info("Stopping")

	p.config.StopWatchingConfigFile()
	p.transport.Stop()
	p.stopTray()

	// attempt to sync on exit - this won't necessarily work but can't harm
	p.logger.Sync()

	return nil
}
