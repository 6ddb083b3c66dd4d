package service

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/wireless"
)

// Proxy is a wireless.Controller backed by a running Service.
type Proxy struct {
	conn *dbus.Conn
	obj  dbus.BusObject
	log  common.Logger
}

var _ wireless.Controller = (*Proxy)(nil)

// NewProxy creates a proxy on conn. It does not check that the daemon runs;
// calls fail with ErrTransport until it does.
func NewProxy(conn *dbus.Conn, log common.Logger) *Proxy {
	if log == nil {
		log = common.NopLogger{}
	}
	return &Proxy{
		conn: conn,
		obj:  conn.Object(common.ServiceName, common.ServicePath),
		log:  log,
	}
}

func (p *Proxy) call(ctx context.Context, method string, args ...interface{}) *dbus.Call {
	return p.obj.CallWithContext(ctx, common.ServiceInterface+"."+method, 0, args...)
}

// Ping reports whether a daemon currently owns the service name.
func (p *Proxy) Ping(ctx context.Context) bool {
	var owned bool
	err := p.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, common.ServiceName).Store(&owned)
	return err == nil && owned
}

func (p *Proxy) Status(ctx context.Context) (bool, error) {
	var enabled bool
	if err := p.call(ctx, "Status").Store(&enabled); err != nil {
		return false, fromCallError(err)
	}
	return enabled, nil
}

func (p *Proxy) Info(ctx context.Context) (wireless.WirelessInfo, error) {
	var info wireless.WirelessInfo
	if err := p.call(ctx, "Info").Store(&info); err != nil {
		return wireless.WirelessInfo{}, fromCallError(err)
	}
	return info, nil
}

func (p *Proxy) Scan(ctx context.Context) (wireless.ScanResult, error) {
	var list WirelessScanList
	if err := p.call(ctx, "Scan").Store(&list); err != nil {
		return nil, fromCallError(err)
	}
	return wireless.ScanResult(list.WirelessNetwork), nil
}

func (p *Proxy) Connect(ctx context.Context, ssid, password string) error {
	return fromCallError(p.call(ctx, "Connect", ssid, password).Err)
}

// Disconnect validates networkID locally before calling the daemon.
func (p *Proxy) Disconnect(ctx context.Context, networkID string) error {
	if _, err := wireless.ParseNetworkID(networkID); err != nil {
		return &wireless.Error{Op: "disconnect", Kind: common.ErrInvalidNetworkID, Err: err}
	}
	return fromCallError(p.call(ctx, "Disconnect", networkID).Err)
}

// SelectNetwork validates networkID locally before calling the daemon.
func (p *Proxy) SelectNetwork(ctx context.Context, networkID string) error {
	if _, err := wireless.ParseNetworkID(networkID); err != nil {
		return &wireless.Error{Op: "select_network", Kind: common.ErrInvalidNetworkID, Err: err}
	}
	return fromCallError(p.call(ctx, "SelectNetwork", networkID).Err)
}

func (p *Proxy) KnownNetworks(ctx context.Context) ([]wireless.KnownNetwork, error) {
	var list KnownNetworkList
	if err := p.call(ctx, "KnownNetworks").Store(&list); err != nil {
		return nil, fromCallError(err)
	}
	return list.KnownNetwork, nil
}

func (p *Proxy) Enable(ctx context.Context) (bool, error) {
	var ok bool
	if err := p.call(ctx, "Enable").Store(&ok); err != nil {
		return false, fromCallError(err)
	}
	return ok, nil
}

func (p *Proxy) Disable(ctx context.Context) (bool, error) {
	var ok bool
	if err := p.call(ctx, "Disable").Store(&ok); err != nil {
		return false, fromCallError(err)
	}
	return ok, nil
}

// LastNotification asks the daemon for the most recently emitted event.
func (p *Proxy) LastNotification(ctx context.Context) (wireless.NotificationEvent, bool, error) {
	var event wireless.NotificationEvent
	var ok bool
	if err := p.call(ctx, "LastNotification").Store(&event, &ok); err != nil {
		return wireless.NotificationEvent{}, false, fromCallError(err)
	}
	return event, ok, nil
}

// Subscribe delivers Notification signals until ctx is done, then closes
// the returned channel.
func (p *Proxy) Subscribe(ctx context.Context) (<-chan wireless.NotificationEvent, error) {
	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(common.ServicePath),
		dbus.WithMatchInterface(common.ServiceInterface),
		dbus.WithMatchMember("Notification"),
	}
	if err := p.conn.AddMatchSignalContext(ctx, match...); err != nil {
		return nil, fmt.Errorf("%w: could not subscribe: %v", common.ErrTransport, err)
	}

	signals := make(chan *dbus.Signal, 16)
	p.conn.Signal(signals)

	events := make(chan wireless.NotificationEvent, 4)
	go func() {
		defer close(events)
		defer func() {
			p.conn.RemoveSignal(signals)
			_ = p.conn.RemoveMatchSignal(match...)
		}()

		name := common.ServiceInterface + ".Notification"
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig.Name != name || sig.Path != common.ServicePath {
					continue
				}

				var event wireless.NotificationEvent
				if err := dbus.Store(sig.Body, &event); err != nil {
					p.log.Warn("Malformed notification: %v", err)
					continue
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
