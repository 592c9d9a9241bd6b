package espui

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/croghostrider/ESPUI/pkg/espui/util"
)

// CanonicalConfig provides application-wide access to configuration fields,
// as well as loading/file watching logic for the panel's configuration file
type CanonicalConfig struct {
	ConnectionInfo struct {
		DeviceURL         string
		Transport         string
		COMPort           string
		BaudRate          int
		ReconnectInterval time.Duration
	}

	Channels         []string
	DisabledChannels []string

	logger             *zap.SugaredLogger
	notifier           Notifier
	stopWatcherChannel chan bool

	reloadConsumers []chan bool

	userConfig *viper.Viper
}

const (
	userConfigFilepath = "config.yaml"

	userConfigName = "config"
	userConfigPath = "."

	configType = "yaml"

	configKeyDeviceURL         = "device_url"
	configKeyTransport         = "transport"
	configKeyCOMPort           = "com_port"
	configKeyBaudRate          = "baud_rate"
	configKeyReconnectInterval = "reconnect_interval"
	configKeyChannels          = "channels"
	configKeyDisabledChannels  = "disabled_channels"

	transportWebsocket = "websocket"
	transportSerial    = "serial"

	defaultDeviceURL         = "ws://espui.local/ws"
	defaultTransport         = transportWebsocket
	defaultCOMPort           = "COM4"
	defaultBaudRate          = 115200
	defaultReconnectInterval = 5
)

var defaultChannels = []string{"0"}

// NewConfig creates a config instance for the panel object and sets up
// its viper instance
func NewConfig(logger *zap.SugaredLogger, notifier Notifier) (*CanonicalConfig, error) {
	logger = logger.Named("config")

	cc := &CanonicalConfig{
		logger:             logger,
		notifier:           notifier,
		reloadConsumers:    []chan bool{},
		stopWatcherChannel: make(chan bool),
	}

	userConfig := viper.New()
	userConfig.SetConfigName(userConfigName)
	userConfig.SetConfigType(configType)
	userConfig.AddConfigPath(userConfigPath)

	userConfig.SetDefault(configKeyDeviceURL, defaultDeviceURL)
	userConfig.SetDefault(configKeyTransport, defaultTransport)
	userConfig.SetDefault(configKeyCOMPort, defaultCOMPort)
	userConfig.SetDefault(configKeyBaudRate, defaultBaudRate)
	userConfig.SetDefault(configKeyReconnectInterval, defaultReconnectInterval)
	userConfig.SetDefault(configKeyChannels, defaultChannels)
	userConfig.SetDefault(configKeyDisabledChannels, []string{})

	cc.userConfig = userConfig

	logger.Debug("Created config instance")

	return cc, nil
}

// Load reads the config file from disk and tries to parse it
func (cc *CanonicalConfig) Load() error {
	cc.logger.Debugw("Loading config", "path", userConfigFilepath)

	// make sure it exists
	if !util.FileExists(userConfigFilepath) {
		cc.logger.Warnw("Config file not found", "path", userConfigFilepath)
		cc.notifier.Notify("Can't find configuration!",
			fmt.Sprintf("%s must be in the same directory as the panel. Please re-launch", userConfigFilepath))

		return fmt.Errorf("config file doesn't exist: %s", userConfigFilepath)
	}

	if err := cc.userConfig.ReadInConfig(); err != nil {
		cc.logger.Warnw("Viper failed to read user config", "error", err)

		// if the error is yaml-format-related, show a sensible error. otherwise, show 'em to the logs
		if strings.Contains(err.Error(), "yaml:") {
			cc.notifier.Notify("Invalid configuration!",
				fmt.Sprintf("Please make sure %s is in a valid YAML format.", userConfigFilepath))
		} else {
			cc.notifier.Notify("Error loading configuration!", "Please check the panel's logs for more details.")
		}

		return fmt.Errorf("read user config: %w", err)
	}

	// canonize the configuration with viper's helpers
	if err := cc.populateFromViper(); err != nil {
		cc.logger.Warnw("Failed to populate config fields", "error", err)
		return fmt.Errorf("populate config fields: %w", err)
	}

	cc.logger.Info("Loaded config successfully")
	cc.logger.Infow("Config values",
		"connectionInfo", cc.ConnectionInfo,
		"channels", cc.Channels,
		"disabledChannels", cc.DisabledChannels)

	return nil
}

// SubscribeToChanges allows external components to receive updates when the config is reloaded
func (cc *CanonicalConfig) SubscribeToChanges() chan bool {
	c := make(chan bool)
	cc.reloadConsumers = append(cc.reloadConsumers, c)

	return c
}

// WatchConfigFileChanges starts watching for configuration file changes
// and attempts reloading the config when they happen
func (cc *CanonicalConfig) WatchConfigFileChanges() {
	cc.logger.Debugw("Starting to watch user config file for changes", "path", userConfigFilepath)

	const (
		minTimeBetweenReloadAttempts = time.Millisecond * 500
		delayBetweenEventAndReload   = time.Millisecond * 50
	)

	lastAttemptedReload := time.Now()

	// establish watch using viper as opposed to doing it ourselves, though our internal cooldown is still required
	cc.userConfig.WatchConfig()
	cc.userConfig.OnConfigChange(func(event fsnotify.Event) {

		// when we get a write event...
		if event.Op&fsnotify.Write == fsnotify.Write {

			now := time.Now()

			// ... check if it's not a duplicate (many editors will write to a file twice)
			if lastAttemptedReload.Add(minTimeBetweenReloadAttempts).Before(now) {

				// and attempt reload if appropriate
				cc.logger.Debugw("Config file modified, attempting reload", "event", event)

				// wait a bit to let the editor actually flush the new file contents to disk
				<-time.After(delayBetweenEventAndReload)

				if err := cc.Load(); err != nil {
					cc.logger.Warnw("Failed to reload config file", "error", err)
				} else {
					cc.logger.Info("Reloaded config successfully")
					cc.notifier.Notify("Configuration reloaded!", "Your changes have been applied.")

					cc.onConfigReloaded()
				}

				// don't forget to update the time
				lastAttemptedReload = now
			}
		}
	})

	// wait till they stop us
	<-cc.stopWatcherChannel
	cc.logger.Debug("Stopping user config file watcher")
	cc.userConfig.OnConfigChange(nil)
}

// StopWatchingConfigFile signals our filesystem watcher to stop
func (cc *CanonicalConfig) StopWatchingConfigFile() {
	cc.stopWatcherChannel <- true
}

func (cc *CanonicalConfig) populateFromViper() error {
	cc.ConnectionInfo.DeviceURL = cc.userConfig.GetString(configKeyDeviceURL)

	cc.ConnectionInfo.Transport = cc.userConfig.GetString(configKeyTransport)
	if !funk.ContainsString([]string{transportWebsocket, transportSerial}, cc.ConnectionInfo.Transport) {
		cc.logger.Warnw("Invalid transport specified, using default value",
			"key", configKeyTransport,
			"invalidValue", cc.ConnectionInfo.Transport,
			"defaultValue", defaultTransport)

		cc.ConnectionInfo.Transport = defaultTransport
	}

	cc.ConnectionInfo.COMPort = cc.userConfig.GetString(configKeyCOMPort)

	cc.ConnectionInfo.BaudRate = cc.userConfig.GetInt(configKeyBaudRate)
	if cc.ConnectionInfo.BaudRate <= 0 {
		cc.logger.Warnw("Invalid baud rate specified, using default value",
			"key", configKeyBaudRate,
			"invalidValue", cc.ConnectionInfo.BaudRate,
			"defaultValue", defaultBaudRate)

		cc.ConnectionInfo.BaudRate = defaultBaudRate
	}

	reconnectSeconds := cc.userConfig.GetInt(configKeyReconnectInterval)
	if reconnectSeconds <= 0 {
		cc.logger.Warnw("Invalid reconnect interval specified, using default value",
			"key", configKeyReconnectInterval,
			"invalidValue", reconnectSeconds,
			"defaultValue", defaultReconnectInterval)

		reconnectSeconds = defaultReconnectInterval
	}
	cc.ConnectionInfo.ReconnectInterval = time.Duration(reconnectSeconds) * time.Second

	// ignore empty channel keys that creep in through trailing list items
	cc.Channels = funk.FilterString(cc.userConfig.GetStringSlice(configKeyChannels), func(s string) bool {
		return s != ""
	})
	if len(cc.Channels) == 0 {
		cc.Channels = defaultChannels
	}

	cc.DisabledChannels = funk.FilterString(cc.userConfig.GetStringSlice(configKeyDisabledChannels), func(s string) bool {
		return s != ""
	})

	cc.logger.Debug("Populated config fields from viper")

	return nil
}

func (cc *CanonicalConfig) onConfigReloaded() {
	cc.logger.Debug("Notifying consumers about configuration reload")

	for _, consumer := range cc.reloadConsumers {
		consumer <- true
	}
}
