package bus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// controlHandler implements the org.freedesktop.NotificationControl
// extension: no-argument methods returning a textual summary of the affected
// notification(s).
type controlHandler struct {
	srv *Server
}

// History re-displays the most recently closed notification.
func (h *controlHandler) History() (string, *dbus.Error) {
	text, err := h.srv.engine.ShowLast()
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return text, nil
}

// Close dismisses the currently shown notification.
func (h *controlHandler) Close() (string, *dbus.Error) {
	text, err := h.srv.engine.CloseShown()
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return text, nil
}

// CloseAll dismisses every active notification.
func (h *controlHandler) CloseAll() (string, *dbus.Error) {
	count, err := h.srv.engine.CloseAll()
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	switch count {
	case 0:
		return "no active notifications", nil
	case 1:
		return "closed 1 notification", nil
	default:
		return fmt.Sprintf("closed %d notifications", count), nil
	}
}
