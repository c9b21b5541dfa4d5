// Package bus exposes the daemon on the session bus. It implements the
// org.freedesktop.Notifications interface plus a control interface for
// history replay and closing, translating every call into an event loop
// request and blocking until the loop replies.
package bus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/llehouerou/nudge/internal/notification"
)

const (
	// WellKnownName is the service name claimed on the session bus.
	WellKnownName = "org.freedesktop.Notifications"

	objectPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	ifaceName  = "org.freedesktop.Notifications"

	controlPath  = dbus.ObjectPath("/org/freedesktop/NotificationControl")
	controlIface = "org.freedesktop.NotificationControl"

	introspectIface = "org.freedesktop.DBus.Introspectable"

	serverName    = "nudge"
	serverVendor  = "llehouerou"
	serverVersion = "0.1.0"
	specVersion   = "1.2"
)

// Engine is the slice of the event loop driven by the bus handlers. Calls
// block until the loop has applied the operation.
type Engine interface {
	// Admit admits or replaces a notification and returns its id.
	Admit(n *notification.Notification) (uint32, error)
	// Close closes id with reason dismissed-by-request; unknown ids are a
	// no-op.
	Close(id uint32) error
	// CloseAll closes every active notification and returns how many.
	CloseAll() (int, error)
	// CloseShown closes the currently shown notification and describes it.
	CloseShown() (string, error)
	// ShowLast replays the latest history entry and describes it.
	ShowLast() (string, error)
}

// Server is the daemon's presence on the session bus.
type Server struct {
	conn   *dbus.Conn
	engine Engine
	log    zerolog.Logger
}

// Connect attaches to the session bus, exports both interfaces and claims
// the well-known service name. It fails when another notification daemon
// already owns the name.
func Connect(engine Engine, log zerolog.Logger) (*Server, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	s := &Server{conn: conn, engine: engine, log: log}
	if err := s.export(); err != nil {
		conn.Close()
		return nil, err
	}
	reply, err := conn.RequestName(WellKnownName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("request name %s: %w", WellKnownName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("another notification daemon owns %s", WellKnownName)
	}
	log.Info().Str("name", WellKnownName).Msg("registered on session bus")
	return s, nil
}

func (s *Server) export() error {
	exports := []struct {
		v     any
		path  dbus.ObjectPath
		iface string
	}{
		{&notificationsHandler{s}, objectPath, ifaceName},
		{notificationsIntrospectable(), objectPath, introspectIface},
		{&controlHandler{s}, controlPath, controlIface},
		{controlIntrospectable(), controlPath, introspectIface},
	}
	for _, e := range exports {
		if err := s.conn.Export(e.v, e.path, e.iface); err != nil {
			return fmt.Errorf("export %s on %s: %w", e.iface, e.path, err)
		}
	}
	return nil
}

// EmitClosed publishes the NotificationClosed signal.
func (s *Server) EmitClosed(id uint32, reason notification.CloseReason) {
	err := s.conn.Emit(objectPath, ifaceName+".NotificationClosed", id, uint32(reason))
	if err != nil {
		s.log.Error().Err(err).Uint32("id", id).Msg("emitting NotificationClosed failed")
	}
}

// Close releases the service name and drops the bus connection.
func (s *Server) Close() error {
	if _, err := s.conn.ReleaseName(WellKnownName); err != nil {
		s.log.Warn().Err(err).Msg("releasing bus name failed")
	}
	return s.conn.Close()
}
