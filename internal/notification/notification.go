// Package notification defines the core data model shared by the store, the
// bus handlers and the render surface.
package notification

import (
	"maps"
	"time"
)

// Urgency represents notification priority levels per the freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// ParseUrgency maps the raw "urgency" hint byte to an Urgency. Unknown values
// fall back to normal.
func ParseUrgency(b byte) Urgency {
	switch Urgency(b) {
	case UrgencyLow, UrgencyNormal, UrgencyCritical:
		return Urgency(b)
	}
	return UrgencyNormal
}

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// CloseReason is the reason code carried by the NotificationClosed signal.
type CloseReason uint32

const (
	ReasonExpired            CloseReason = 1
	ReasonDismissedByUser    CloseReason = 2
	ReasonDismissedByRequest CloseReason = 3
	ReasonReplaced           CloseReason = 4
)

func (r CloseReason) String() string {
	switch r {
	case ReasonExpired:
		return "expired"
	case ReasonDismissedByUser:
		return "dismissed-by-user"
	case ReasonDismissedByRequest:
		return "dismissed-by-request"
	case ReasonReplaced:
		return "replaced"
	}
	return "unknown"
}

// Notification is a single notification tracked by the store. Instances are
// owned by the event loop once admitted; no other goroutine mutates them.
type Notification struct {
	ID      uint32
	AppName string
	Summary string
	Body    string
	Icon    string
	Actions []string
	Hints   map[string]any

	// RequestedTimeout is the expire_timeout protocol field in milliseconds:
	// -1 means use the policy default, 0 means never expire.
	RequestedTimeout int32

	Urgency   Urgency
	Timestamp time.Time
	Read      bool
}

// Context builds the template context used for display text and custom
// commands. urgencyText is the policy text override; when empty the urgency
// level name is used.
func (n *Notification) Context(urgencyText string, unread int) map[string]any {
	if urgencyText == "" {
		urgencyText = n.Urgency.String()
	}
	return map[string]any{
		"app_name":     n.AppName,
		"summary":      n.Summary,
		"body":         n.Body,
		"urgency":      urgencyText,
		"unread_count": unread,
		"timestamp":    n.Timestamp.Unix(),
	}
}

// Clone returns a copy that is safe to hand outside the event loop.
func (n *Notification) Clone() *Notification {
	c := *n
	c.Actions = append([]string(nil), n.Actions...)
	c.Hints = maps.Clone(n.Hints)
	return &c
}
