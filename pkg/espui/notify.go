package espui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/croghostrider/ESPUI/pkg/espui/icon"
	"github.com/croghostrider/ESPUI/pkg/espui/util"
)

// Notifier provides generic notification sending
type Notifier interface {
	Notify(title string, message string) error
}

// ToastNotifier provides toast notifications on the user's desktop
type ToastNotifier struct {
	logger *zap.SugaredLogger
}

// NewToastNotifier creates a new ToastNotifier
func NewToastNotifier(logger *zap.SugaredLogger) (*ToastNotifier, error) {
	logger = logger.Named("notifier")
	logger.Debug("Created toast notifier instance")

	return &ToastNotifier{logger: logger}, nil
}

// Notify sends a desktop notification with the panel's icon
func (tn *ToastNotifier) Notify(title string, message string) error {
	tn.logger.Infow("Sending toast notification", "title", title, "message", message)

	// we need to unpack the icon somewhere to remain portable. we already have it as bytes so it should be fine
	appIconPath := filepath.Join(os.TempDir(), "espui.png")

	if !util.FileExists(appIconPath) {
		f, err := os.Create(appIconPath)
		if err != nil {
			return fmt.Errorf("create toast notification icon: %w", err)
		}

		if _, err = f.Write(icon.Data); err != nil {
			return fmt.Errorf("write toast notification icon: %w", err)
		}

		if err = f.Close(); err != nil {
			return fmt.Errorf("close toast notification icon: %w", err)
		}
	}

	// send the actual notification
	if err := beeep.Notify(title, message, appIconPath); err != nil {
		return fmt.Errorf("send toast notification: %w", err)
	}

	return nil
}
