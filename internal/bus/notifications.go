package bus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/llehouerou/nudge/internal/notification"
)

// notificationsHandler implements org.freedesktop.Notifications.
type notificationsHandler struct {
	srv *Server
}

// Notify admits a new notification, or replaces the one identified by
// replacesID when it is nonzero, and returns the resulting id.
func (h *notificationsHandler) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	if expireTimeout < -1 {
		expireTimeout = -1
	}
	n := &notification.Notification{
		ID:               replacesID,
		AppName:          appName,
		Summary:          summary,
		Body:             body,
		Icon:             appIcon,
		Actions:          append([]string(nil), actions...),
		Hints:            plainHints(hints),
		RequestedTimeout: expireTimeout,
		Urgency:          urgencyHint(hints),
		Timestamp:        time.Now(),
	}
	id, err := h.srv.engine.Admit(n)
	if err != nil {
		return 0, dbus.MakeFailedError(err)
	}
	return id, nil
}

// CloseNotification closes id with reason dismissed-by-request. Closing an
// unknown or already closed id succeeds as a no-op.
func (h *notificationsHandler) CloseNotification(id uint32) *dbus.Error {
	if err := h.srv.engine.Close(id); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (h *notificationsHandler) GetCapabilities() ([]string, *dbus.Error) {
	return []string{"body", "body-markup"}, nil
}

func (h *notificationsHandler) GetServerInformation() (string, string, string, string, *dbus.Error) {
	return serverName, serverVendor, serverVersion, specVersion, nil
}

// GetServerInfo is the legacy alias predating the 1.2 spec; it omits the
// spec version field.
func (h *notificationsHandler) GetServerInfo() (string, string, string, *dbus.Error) {
	return serverName, serverVendor, serverVersion, nil
}

// urgencyHint decodes the "urgency" hint. The spec says byte, but clients
// send various integer widths; anything unrecognized means normal.
func urgencyHint(hints map[string]dbus.Variant) notification.Urgency {
	v, ok := hints["urgency"]
	if !ok {
		return notification.UrgencyNormal
	}
	switch val := v.Value().(type) {
	case byte:
		return notification.ParseUrgency(val)
	case uint16:
		return notification.ParseUrgency(byte(val))
	case uint32:
		return notification.ParseUrgency(byte(val))
	case int16:
		return notification.ParseUrgency(byte(val))
	case int32:
		return notification.ParseUrgency(byte(val))
	case uint64:
		return notification.ParseUrgency(byte(val))
	case int64:
		return notification.ParseUrgency(byte(val))
	}
	return notification.UrgencyNormal
}

// plainHints unwraps variant values so the rest of the engine does not
// depend on D-Bus types.
func plainHints(hints map[string]dbus.Variant) map[string]any {
	if len(hints) == 0 {
		return nil
	}
	out := make(map[string]any, len(hints))
	for k, v := range hints {
		out[k] = v.Value()
	}
	return out
}
