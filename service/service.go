package service

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/wireless"
)

// WirelessScanList is the wire form of a scan result.
type WirelessScanList struct {
	WirelessNetwork []wireless.WirelessInfo
}

// KnownNetworkList is the wire form of the saved networks.
type KnownNetworkList struct {
	KnownNetwork []wireless.KnownNetwork
}

// Config holds the per-call limits applied by the exported handlers.
type Config struct {
	// CallTimeout bounds quick calls (status, info, enable, ...).
	CallTimeout time.Duration
	// LongCallTimeout bounds scan, connect and select.
	LongCallTimeout time.Duration
}

// DefaultConfig returns the daemon defaults.
func DefaultConfig() Config {
	return Config{
		CallTimeout:     common.CallTimeout,
		LongCallTimeout: common.ConnectionTimeout + common.CallTimeout,
	}
}

// Service exports a wireless.Controller on the bus.
type Service struct {
	conn     *dbus.Conn
	ctrl     wireless.Controller
	config   Config
	log      common.Logger
	notifier *Notifier
	ctx      context.Context
}

// New creates a Service. Nothing is exported until Export is called.
func New(conn *dbus.Conn, ctrl wireless.Controller, config Config, log common.Logger) *Service {
	def := DefaultConfig()
	if config.CallTimeout <= 0 {
		config.CallTimeout = def.CallTimeout
	}
	if config.LongCallTimeout <= 0 {
		config.LongCallTimeout = def.LongCallTimeout
	}
	if log == nil {
		log = common.NopLogger{}
	}

	return &Service{
		conn:   conn,
		ctrl:   ctrl,
		config: config,
		log:    log,
		ctx:    context.Background(),
	}
}

// AttachNotifier lets callers ask the daemon for the last emitted event.
func (s *Service) AttachNotifier(n *Notifier) {
	s.notifier = n
}

// Export publishes the handlers and claims the well-known name. Calls in
// flight are cancelled when ctx is done.
func (s *Service) Export(ctx context.Context) error {
	s.ctx = ctx
	h := &handler{s: s}

	if err := s.conn.Export(h, common.ServicePath, common.ServiceInterface); err != nil {
		return fmt.Errorf("failed to export %s: %w", common.ServiceInterface, err)
	}

	node := &introspect.Node{
		Name: common.ServicePath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    common.ServiceInterface,
				Methods: introspect.Methods(h),
				Signals: []introspect.Signal{{
					Name: "Notification",
					Args: []introspect.Arg{{Name: "event", Type: "(sbb)"}},
				}},
			},
		},
	}
	if err := s.conn.Export(introspect.NewIntrospectable(node), common.ServicePath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := s.conn.RequestName(common.ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", common.ServiceName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s is already taken", common.ServiceName)
	}

	s.log.Info("Exported %s at %s", common.ServiceName, common.ServicePath)
	return nil
}

// Emit broadcasts the Notification signal.
func (s *Service) Emit(event wireless.NotificationEvent) error {
	return s.conn.Emit(common.ServicePath, common.ServiceInterface+".Notification", event)
}

// Close releases the well-known name and unexports the handlers.
func (s *Service) Close() error {
	_ = s.conn.Export(nil, common.ServicePath, common.ServiceInterface)
	_ = s.conn.Export(nil, common.ServicePath, "org.freedesktop.DBus.Introspectable")
	if _, err := s.conn.ReleaseName(common.ServiceName); err != nil {
		return fmt.Errorf("failed to release %s: %w", common.ServiceName, err)
	}
	return nil
}

// handler carries the exported method set; every exported method here is
// visible on the bus.
type handler struct {
	s *Service
}

func (h *handler) call(long bool) (context.Context, context.CancelFunc) {
	timeout := h.s.config.CallTimeout
	if long {
		timeout = h.s.config.LongCallTimeout
	}
	return context.WithTimeout(h.s.ctx, timeout)
}

func (h *handler) fail(op string, err error) *dbus.Error {
	h.s.log.Debug("%s failed: %v", op, err)
	return toFault(err)
}

func (h *handler) Status() (bool, *dbus.Error) {
	ctx, cancel := h.call(false)
	defer cancel()

	enabled, err := h.s.ctrl.Status(ctx)
	if err != nil {
		return false, h.fail("Status", err)
	}
	return enabled, nil
}

func (h *handler) Connect(ssid, password string) *dbus.Error {
	ctx, cancel := h.call(true)
	defer cancel()

	if err := h.s.ctrl.Connect(ctx, ssid, password); err != nil {
		return h.fail("Connect", err)
	}
	return nil
}

func (h *handler) Disconnect(networkID string) *dbus.Error {
	ctx, cancel := h.call(false)
	defer cancel()

	if err := h.s.ctrl.Disconnect(ctx, networkID); err != nil {
		return h.fail("Disconnect", err)
	}
	return nil
}

func (h *handler) SelectNetwork(networkID string) *dbus.Error {
	ctx, cancel := h.call(true)
	defer cancel()

	if err := h.s.ctrl.SelectNetwork(ctx, networkID); err != nil {
		return h.fail("SelectNetwork", err)
	}
	return nil
}

func (h *handler) Info() (wireless.WirelessInfo, *dbus.Error) {
	ctx, cancel := h.call(false)
	defer cancel()

	info, err := h.s.ctrl.Info(ctx)
	if err != nil {
		return wireless.WirelessInfo{}, h.fail("Info", err)
	}
	return info, nil
}

func (h *handler) Scan() (WirelessScanList, *dbus.Error) {
	ctx, cancel := h.call(true)
	defer cancel()

	result, err := h.s.ctrl.Scan(ctx)
	if err != nil {
		return WirelessScanList{}, h.fail("Scan", err)
	}
	return WirelessScanList{WirelessNetwork: nonNil(result)}, nil
}

func (h *handler) KnownNetworks() (KnownNetworkList, *dbus.Error) {
	ctx, cancel := h.call(false)
	defer cancel()

	known, err := h.s.ctrl.KnownNetworks(ctx)
	if err != nil {
		return KnownNetworkList{}, h.fail("KnownNetworks", err)
	}
	if known == nil {
		known = []wireless.KnownNetwork{}
	}
	return KnownNetworkList{KnownNetwork: known}, nil
}

func (h *handler) Enable() (bool, *dbus.Error) {
	ctx, cancel := h.call(false)
	defer cancel()

	ok, err := h.s.ctrl.Enable(ctx)
	if err != nil {
		return false, h.fail("Enable", err)
	}
	return ok, nil
}

func (h *handler) Disable() (bool, *dbus.Error) {
	ctx, cancel := h.call(false)
	defer cancel()

	ok, err := h.s.ctrl.Disable(ctx)
	if err != nil {
		return false, h.fail("Disable", err)
	}
	return ok, nil
}

// LastNotification returns the most recent emitted event and whether one exists.
func (h *handler) LastNotification() (wireless.NotificationEvent, bool, *dbus.Error) {
	if h.s.notifier == nil {
		return wireless.NotificationEvent{}, false, nil
	}
	event, ok := h.s.notifier.Current()
	return event, ok, nil
}

func nonNil(result wireless.ScanResult) []wireless.WirelessInfo {
	if result == nil {
		return []wireless.WirelessInfo{}
	}
	return result
}
