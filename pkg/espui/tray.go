package espui

import (
	"github.com/getlantern/systray"

	"github.com/croghostrider/ESPUI/pkg/espui/icon"
	"github.com/croghostrider/ESPUI/pkg/espui/util"
)

func (p *Panel) initializeTray(onDone func()) {
	logger := p.logger.Named("tray")

	onReady := func() {
		logger.Debug("Tray instance ready")

		systray.SetTemplateIcon(icon.Data, icon.Data)
		systray.SetTitle("ESPUI panel")
		systray.SetTooltip("ESPUI panel")

		editConfig := systray.AddMenuItem("Edit configuration", "Open config file with a text editor")

		if p.version != "" {
			systray.AddSeparator()
			versionInfo := systray.AddMenuItem(p.version, "")
			versionInfo.Disable()
		}

		systray.AddSeparator()
		quit := systray.AddMenuItem("Quit", "Stop the panel and quit")

		// wait on things to happen
		go func() {
			for {
				select {

				// quit
				case <-quit.ClickedCh:
					logger.Info("Quit menu item clicked, stopping")

					p.signalStop()

				// edit config
				case <-editConfig.ClickedCh:
					logger.Info("Edit config menu item clicked, opening config for editing")

					editor := "notepad.exe"
					if util.Linux() {
						editor = "gedit"
					}

					if err := util.OpenExternal(logger, editor, userConfigFilepath); err != nil {
						logger.Warnw("Failed to open config file for editing", "error", err)
					}
				}
			}
		}()

		// actually start the main runtime
		onDone()
	}

	onExit := func() {
		logger.Debug("Tray exited")
	}

	// start the tray icon
	logger.Debug("Running in tray")
	systray.Run(onReady, onExit)
}

func (p *Panel) stopTray() {
	p.logger.Debug("Quitting tray")
	systray.Quit()
}
