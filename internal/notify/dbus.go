//go:build linux

package notify

import (
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"

	appName = "Singalong"
	appID   = "singalong"
)

// dbusNotifier talks to the freedesktop notification service.
type dbusNotifier struct {
	obj    dbus.BusObject
	markup bool // the server renders body markup, so bodies are escaped
}

// New connects to the session bus. Without one, notices are discarded.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return Discard, nil //nolint:nilerr // notices are optional
	}
	n := &dbusNotifier{obj: conn.Object(dbusNotifyDest, dbusNotifyPath)}

	var caps []string
	if err := n.obj.Call(dbusNotifyInterface+".GetCapabilities", 0).Store(&caps); err == nil {
		n.markup = slices.Contains(caps, "body-markup")
	}
	return n, nil
}

// Notify implements Notifier.
func (n *dbusNotifier) Notify(nt Notice) (uint32, error) {
	// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout) -> id
	call := n.obj.Call(dbusNotifyInterface+".Notify", 0,
		appName,
		nt.ReplacesID,
		nt.Icon,
		nt.Title,
		n.body(nt.Body),
		[]string{},
		hints(nt.Kind),
		nt.Kind.style().timeout,
	)
	if call.Err != nil {
		return 0, call.Err
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Close implements Notifier.
func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id).Err
}

func hints(k Kind) map[string]dbus.Variant {
	st := k.style()
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(st.urgency)),
		"category":      dbus.MakeVariant(st.category),
		"desktop-entry": dbus.MakeVariant(appID),
	}
	if st.transient {
		h["transient"] = dbus.MakeVariant(true)
	}
	return h
}

var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func (n *dbusNotifier) body(s string) string {
	if n.markup {
		return markupEscaper.Replace(s)
	}
	return s
}
