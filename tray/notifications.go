package tray

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/wireless"
)

const (
	notificationsDest = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
)

// DesktopNotifier sends notifications through the freedesktop
// notification service on the session bus.
type DesktopNotifier struct {
	conn *dbus.Conn
	// lastID lets a new notification replace the previous one.
	lastID uint32
}

var _ common.Notifier = (*DesktopNotifier)(nil)

// NewDesktopNotifier uses conn, which must be a session bus connection.
func NewDesktopNotifier(conn *dbus.Conn) *DesktopNotifier {
	return &DesktopNotifier{conn: conn}
}

// Notify sends a notification with the default icon.
func (n *DesktopNotifier) Notify(title, message string) error {
	return n.NotifyWithIcon(title, message, "network-wireless")
}

// NotifyWithIcon sends a notification with a named icon.
func (n *DesktopNotifier) NotifyWithIcon(title, message, icon string) error {
	obj := n.conn.Object(notificationsDest, notificationsPath)
	call := obj.Call(notificationsDest+".Notify", 0,
		common.AppName,
		n.lastID,
		icon,
		title,
		message,
		[]string{},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(1))},
		int32(5000),
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err == nil {
		n.lastID = id
	}
	return nil
}

// Transition describes a change worth telling the user about.
type Transition struct {
	Title   string
	Message string
	Icon    string
}

// TransitionFor compares two notifications and describes what changed.
// ok is false for signal-only changes.
func TransitionFor(prev, cur wireless.NotificationEvent) (t Transition, ok bool) {
	switch {
	case prev.IsEnabled && !cur.IsEnabled:
		return Transition{"Wireless Disabled", "The wireless radio was turned off", "network-wireless-disabled"}, true
	case !prev.IsEnabled && cur.IsEnabled && !cur.IsConnected:
		return Transition{"Wireless Enabled", "The wireless radio was turned on", "network-wireless"}, true
	case !prev.IsConnected && cur.IsConnected:
		return Transition{"Wireless Connected", fmt.Sprintf("Signal %s dBm", cur.SignalStrength), "network-wireless-connected"}, true
	case prev.IsConnected && !cur.IsConnected:
		return Transition{"Wireless Disconnected", "The network connection was lost", "network-wireless-offline"}, true
	}
	return Transition{}, false
}
