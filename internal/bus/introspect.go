package bus

import (
	"github.com/godbus/dbus/v5/introspect"
)

func notificationsIntrospectable() introspect.Introspectable {
	node := &introspect.Node{
		Name: string(objectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: ifaceName,
				Methods: []introspect.Method{
					{
						Name: "Notify",
						Args: []introspect.Arg{
							{Name: "app_name", Type: "s", Direction: "in"},
							{Name: "replaces_id", Type: "u", Direction: "in"},
							{Name: "app_icon", Type: "s", Direction: "in"},
							{Name: "summary", Type: "s", Direction: "in"},
							{Name: "body", Type: "s", Direction: "in"},
							{Name: "actions", Type: "as", Direction: "in"},
							{Name: "hints", Type: "a{sv}", Direction: "in"},
							{Name: "expire_timeout", Type: "i", Direction: "in"},
							{Name: "id", Type: "u", Direction: "out"},
						},
					},
					{
						Name: "CloseNotification",
						Args: []introspect.Arg{
							{Name: "id", Type: "u", Direction: "in"},
						},
					},
					{
						Name: "GetCapabilities",
						Args: []introspect.Arg{
							{Name: "capabilities", Type: "as", Direction: "out"},
						},
					},
					{
						Name: "GetServerInformation",
						Args: []introspect.Arg{
							{Name: "name", Type: "s", Direction: "out"},
							{Name: "vendor", Type: "s", Direction: "out"},
							{Name: "version", Type: "s", Direction: "out"},
							{Name: "spec_version", Type: "s", Direction: "out"},
						},
					},
					{
						Name: "GetServerInfo",
						Args: []introspect.Arg{
							{Name: "name", Type: "s", Direction: "out"},
							{Name: "vendor", Type: "s", Direction: "out"},
							{Name: "version", Type: "s", Direction: "out"},
						},
					},
				},
				Signals: []introspect.Signal{
					{
						Name: "NotificationClosed",
						Args: []introspect.Arg{
							{Name: "id", Type: "u"},
							{Name: "reason", Type: "u"},
						},
					},
					{
						Name: "ActionInvoked",
						Args: []introspect.Arg{
							{Name: "id", Type: "u"},
							{Name: "action_key", Type: "s"},
						},
					},
				},
			},
		},
	}
	return introspect.NewIntrospectable(node)
}

func controlIntrospectable() introspect.Introspectable {
	node := &introspect.Node{
		Name: string(controlPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: controlIface,
				Methods: []introspect.Method{
					{Name: "History", Args: []introspect.Arg{{Name: "entry", Type: "s", Direction: "out"}}},
					{Name: "Close", Args: []introspect.Arg{{Name: "closed", Type: "s", Direction: "out"}}},
					{Name: "CloseAll", Args: []introspect.Arg{{Name: "closed", Type: "s", Direction: "out"}}},
				},
			},
		},
	}
	return introspect.NewIntrospectable(node)
}
