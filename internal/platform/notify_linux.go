//go:build linux

package platform

import (
	"github.com/godbus/dbus/v5"
)

const (
	notifyDest = "org.freedesktop.Notifications"
	notifyPath = "/org/freedesktop/Notifications"

	urgencyNormal   byte = 1
	urgencyCritical byte = 2
)

// Notify sends a notification over the session bus.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	urgency := urgencyNormal
	timeout := int32(-1)
	if opts.Critical {
		urgency = urgencyCritical
		timeout = 0
	} else if opts.Timeout > 0 {
		timeout = int32(opts.Timeout.Milliseconds())
	}
	hints := map[string]dbus.Variant{"urgency": dbus.MakeVariant(urgency)}

	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	return obj.Call(notifyDest+".Notify", 0,
		opts.appName(), uint32(0), opts.IconPath, title, body, []string{}, hints, timeout).Err
}
