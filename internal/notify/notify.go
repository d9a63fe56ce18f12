package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Desktop announces milestones as desktop notifications. When disabled, or
// when the notification daemon refuses, the message is only logged.
type Desktop struct {
	enabled bool
	log     *slog.Logger
}

func NewDesktop(enabled bool, log *slog.Logger) *Desktop {
	return &Desktop{enabled: enabled, log: log}
}

func (d *Desktop) Announce(title, message string) {
	d.log.Info("announce", "title", title, "message", message)
	if !d.enabled {
		return
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		d.log.Warn("desktop notification failed", "err", err)
	}
}
