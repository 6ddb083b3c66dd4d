package bus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/yllada/wifi-manager/common"
)

// Dial opens a bus connection. address is "system", "session" or a raw bus address.
func Dial(address string) (*dbus.Conn, error) {
	switch address {
	case "", "system":
		return dbus.ConnectSystemBus()
	case "session":
		return dbus.ConnectSessionBus()
	default:
		return dbus.Connect(address)
	}
}

// NetworkManager is a typed proxy over org.freedesktop.NetworkManager for a
// single wireless device. It is safe for concurrent use.
type NetworkManager struct {
	conn  *dbus.Conn
	iface string
	log   common.Logger

	mu     sync.Mutex
	device dbus.ObjectPath
}

// Config holds the parameters for NewNetworkManager.
type Config struct {
	// Interface pins the device by name; empty picks the first Wi-Fi device.
	Interface string
	Logger    common.Logger
}

// NewNetworkManager wraps an open bus connection.
func NewNetworkManager(conn *dbus.Conn, config Config) *NetworkManager {
	nm := &NetworkManager{
		conn:  conn,
		iface: config.Interface,
		log:   config.Logger,
	}
	if nm.log == nil {
		nm.log = common.NopLogger{}
	}
	return nm
}

// Close closes the underlying bus connection.
func (n *NetworkManager) Close() error {
	return n.conn.Close()
}

func (n *NetworkManager) nm() dbus.BusObject {
	return n.conn.Object(NMDest, NMPath)
}

func (n *NetworkManager) object(path dbus.ObjectPath) dbus.BusObject {
	return n.conn.Object(NMDest, path)
}

func getProperty(ctx context.Context, obj dbus.BusObject, iface, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := obj.CallWithContext(ctx, PropsIF+".Get", 0, iface, name).Store(&v)
	return v, err
}

func getAll(ctx context.Context, obj dbus.BusObject, iface string) (map[string]dbus.Variant, error) {
	var m map[string]dbus.Variant
	err := obj.CallWithContext(ctx, PropsIF+".GetAll", 0, iface).Store(&m)
	return m, err
}

// wirelessDevice resolves and caches the wireless device object path.
func (n *NetworkManager) wirelessDevice(ctx context.Context) (dbus.ObjectPath, error) {
	n.mu.Lock()
	cached := n.device
	n.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	var devs []dbus.ObjectPath
	if err := n.nm().CallWithContext(ctx, NMDest+".GetDevices", 0).Store(&devs); err != nil {
		return "", fmt.Errorf("could not list devices: %w", err)
	}

	for _, d := range devs {
		props, err := getAll(ctx, n.object(d), DevIF)
		if err != nil {
			continue
		}
		if t, _ := props["DeviceType"].Value().(uint32); t != deviceTypeWifi {
			continue
		}
		if n.iface != "" {
			if name, _ := props["Interface"].Value().(string); name != n.iface {
				continue
			}
		}

		n.mu.Lock()
		n.device = d
		n.mu.Unlock()
		n.log.Debug("Using wireless device %s", d)
		return d, nil
	}

	return "", common.ErrNoWirelessDevice
}

func (n *NetworkManager) forgetDevice() {
	n.mu.Lock()
	n.device = ""
	n.mu.Unlock()
}

// WatchDevices drops the cached device whenever NetworkManager reports a
// device being added or removed. It returns once the match rules are installed
// and keeps watching until ctx is done.
func (n *NetworkManager) WatchDevices(ctx context.Context) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(NMPath),
		dbus.WithMatchInterface(NMDest),
	}
	for _, member := range []string{"DeviceAdded", "DeviceRemoved"} {
		if err := n.conn.AddMatchSignalContext(ctx, append(opts, dbus.WithMatchMember(member))...); err != nil {
			return fmt.Errorf("could not add %s match: %w", member, err)
		}
	}

	signals := make(chan *dbus.Signal, 8)
	n.conn.Signal(signals)

	go func() {
		defer n.conn.RemoveSignal(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig.Path != NMPath {
					continue
				}
				if sig.Name == NMDest+".DeviceAdded" || sig.Name == NMDest+".DeviceRemoved" {
					n.log.Info("Device set changed (%s), re-resolving wireless device", sig.Name)
					n.forgetDevice()
				}
			}
		}
	}()

	return nil
}

// WirelessEnabled reports the WirelessEnabled property.
func (n *NetworkManager) WirelessEnabled(ctx context.Context) (bool, error) {
	v, err := getProperty(ctx, n.nm(), NMDest, "WirelessEnabled")
	if err != nil {
		return false, fmt.Errorf("could not read WirelessEnabled: %w", err)
	}
	enabled, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected WirelessEnabled type %s", v.Signature())
	}
	return enabled, nil
}

// SetWirelessEnabled writes the WirelessEnabled property.
func (n *NetworkManager) SetWirelessEnabled(ctx context.Context, enabled bool) error {
	call := n.nm().CallWithContext(ctx, PropsIF+".Set", 0, NMDest, "WirelessEnabled", dbus.MakeVariant(enabled))
	if call.Err != nil {
		return fmt.Errorf("could not set WirelessEnabled: %w", call.Err)
	}
	return nil
}

// ActiveAccessPoint returns the access point the device is associated with,
// or nil when there is none.
func (n *NetworkManager) ActiveAccessPoint(ctx context.Context) (*AccessPoint, error) {
	dev, err := n.wirelessDevice(ctx)
	if err != nil {
		return nil, err
	}

	v, err := getProperty(ctx, n.object(dev), WifiIF, "ActiveAccessPoint")
	if err != nil {
		n.forgetDevice()
		return nil, fmt.Errorf("could not read ActiveAccessPoint: %w", err)
	}

	path, _ := v.Value().(dbus.ObjectPath)
	if path == "" || path == "/" {
		return nil, nil
	}

	ap, err := n.accessPoint(ctx, path)
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

// RequestScan asks the device to scan.
func (n *NetworkManager) RequestScan(ctx context.Context) error {
	dev, err := n.wirelessDevice(ctx)
	if err != nil {
		return err
	}

	call := n.object(dev).CallWithContext(ctx, WifiIF+".RequestScan", 0, map[string]dbus.Variant{})
	if call.Err != nil {
		return fmt.Errorf("could not request scan: %w", call.Err)
	}
	return nil
}

// AccessPoints lists every visible BSS, strongest first.
func (n *NetworkManager) AccessPoints(ctx context.Context) ([]AccessPoint, error) {
	dev, err := n.wirelessDevice(ctx)
	if err != nil {
		return nil, err
	}

	var paths []dbus.ObjectPath
	if err := n.object(dev).CallWithContext(ctx, WifiIF+".GetAllAccessPoints", 0).Store(&paths); err != nil {
		n.forgetDevice()
		return nil, fmt.Errorf("could not get access points: %w", err)
	}

	aps := make([]AccessPoint, 0, len(paths))
	for _, p := range paths {
		ap, err := n.accessPoint(ctx, p)
		if err != nil {
			// APs disappear between listing and reading; skip them.
			n.log.Debug("Skipping access point %s: %v", p, err)
			continue
		}
		if ap.SSID == "" {
			continue
		}
		aps = append(aps, ap)
	}

	sort.SliceStable(aps, func(i, j int) bool {
		if aps[i].Strength != aps[j].Strength {
			return aps[i].Strength > aps[j].Strength
		}
		return aps[i].BSSID < aps[j].BSSID
	})
	return aps, nil
}

func (n *NetworkManager) accessPoint(ctx context.Context, path dbus.ObjectPath) (AccessPoint, error) {
	props, err := getAll(ctx, n.object(path), AccessPointIF)
	if err != nil {
		return AccessPoint{}, fmt.Errorf("could not read access point %s: %w", path, err)
	}

	ap := AccessPoint{Path: string(path)}
	if b, ok := props["Ssid"].Value().([]byte); ok {
		ap.SSID = strings.TrimRight(string(b), "\x00")
	}
	ap.BSSID, _ = props["HwAddress"].Value().(string)
	ap.Frequency, _ = props["Frequency"].Value().(uint32)
	ap.Strength, _ = props["Strength"].Value().(uint8)
	ap.Flags, _ = props["Flags"].Value().(uint32)
	ap.WpaFlags, _ = props["WpaFlags"].Value().(uint32)
	ap.RsnFlags, _ = props["RsnFlags"].Value().(uint32)
	return ap, nil
}

// SavedConnections lists the wireless profiles in NetworkManager's settings store.
func (n *NetworkManager) SavedConnections(ctx context.Context) ([]SavedConnection, error) {
	var paths []dbus.ObjectPath
	if err := n.object(SettingsPath).CallWithContext(ctx, SettingsIF+".ListConnections", 0).Store(&paths); err != nil {
		return nil, fmt.Errorf("could not list connections: %w", err)
	}

	active, err := n.activeProfiles(ctx)
	if err != nil {
		return nil, err
	}

	var saved []SavedConnection
	for _, p := range paths {
		id, ok := ParseSettingsID(p)
		if !ok {
			continue
		}

		var settings map[string]map[string]dbus.Variant
		if err := n.object(p).CallWithContext(ctx, ConnectionIF+".GetSettings", 0).Store(&settings); err != nil {
			n.log.Debug("Skipping connection %s: %v", p, err)
			continue
		}

		wifi, ok := settings["802-11-wireless"]
		if !ok {
			continue
		}

		sc := SavedConnection{ID: id, Path: string(p), AutoConnect: true, Active: active[p]}
		if b, ok := wifi["ssid"].Value().([]byte); ok {
			sc.SSID = strings.TrimRight(string(b), "\x00")
		}
		if c, ok := settings["connection"]; ok {
			if av, ok := c["autoconnect"]; ok {
				sc.AutoConnect, _ = av.Value().(bool)
			}
		}
		if sec, ok := settings["802-11-wireless-security"]; ok {
			sc.KeyMgmt, _ = sec["key-mgmt"].Value().(string)
		}
		saved = append(saved, sc)
	}

	sort.SliceStable(saved, func(i, j int) bool { return saved[i].ID < saved[j].ID })
	return saved, nil
}

// activeProfiles maps settings paths to whether they back an active connection.
func (n *NetworkManager) activeProfiles(ctx context.Context) (map[dbus.ObjectPath]bool, error) {
	v, err := getProperty(ctx, n.nm(), NMDest, "ActiveConnections")
	if err != nil {
		return nil, fmt.Errorf("could not read ActiveConnections: %w", err)
	}

	paths, _ := v.Value().([]dbus.ObjectPath)
	active := make(map[dbus.ObjectPath]bool, len(paths))
	for _, ac := range paths {
		cv, err := getProperty(ctx, n.object(ac), ActiveIF, "Connection")
		if err != nil {
			continue
		}
		if p, ok := cv.Value().(dbus.ObjectPath); ok {
			active[p] = true
		}
	}
	return active, nil
}

// AddAndActivate creates a profile for ssid and activates it on the wireless
// device. It returns the active connection path.
func (n *NetworkManager) AddAndActivate(ctx context.Context, ssid, password string) (string, error) {
	dev, err := n.wirelessDevice(ctx)
	if err != nil {
		return "", err
	}

	target := AccessPoint{SSID: ssid}
	specific := dbus.ObjectPath("/")
	if aps, err := n.AccessPoints(ctx); err == nil {
		for _, ap := range aps {
			if ap.SSID == ssid {
				target = ap
				specific = dbus.ObjectPath(ap.Path)
				break
			}
		}
	}

	settings, err := connectionSettings(target, password)
	if err != nil {
		return "", err
	}

	var settingsPath, activePath dbus.ObjectPath
	call := n.nm().CallWithContext(ctx, NMDest+".AddAndActivateConnection", 0, settings, dev, specific)
	if call.Err != nil {
		return "", fmt.Errorf("failed to add connection: %w", call.Err)
	}
	if err := call.Store(&settingsPath, &activePath); err != nil {
		return "", fmt.Errorf("could not read new connection path: %w", err)
	}

	n.log.Debug("Added %s, activating as %s", settingsPath, activePath)
	return string(activePath), nil
}

// connectionSettings builds the settings dictionary for a new profile.
func connectionSettings(ap AccessPoint, password string) (map[string]map[string]dbus.Variant, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate uuid: %w", err)
	}

	settings := map[string]map[string]dbus.Variant{
		"connection": {
			"id":          dbus.MakeVariant(ap.SSID),
			"uuid":        dbus.MakeVariant(newUUID.String()),
			"type":        dbus.MakeVariant("802-11-wireless"),
			"autoconnect": dbus.MakeVariant(true),
		},
		"802-11-wireless": {
			"ssid": dbus.MakeVariant([]byte(ap.SSID)),
			"mode": dbus.MakeVariant("infrastructure"),
		},
		"ipv4": {"method": dbus.MakeVariant("auto")},
		"ipv6": {"method": dbus.MakeVariant("auto")},
	}

	keyMgmt := KeyMgmtFor(ap)
	if keyMgmt == "" && ap.Path == "" && password != "" {
		// Not visible; assume the common case for a passphrase.
		keyMgmt = "wpa-psk"
	}

	security := map[string]dbus.Variant{}
	switch keyMgmt {
	case "":
	case "wpa-psk", "sae":
		security["key-mgmt"] = dbus.MakeVariant(keyMgmt)
		security["psk"] = dbus.MakeVariant(password)
	case "none":
		security["key-mgmt"] = dbus.MakeVariant("none")
		security["wep-key0"] = dbus.MakeVariant(password)
	case "owe":
		security["key-mgmt"] = dbus.MakeVariant("owe")
	default:
		return nil, fmt.Errorf("key management %q needs enterprise credentials", keyMgmt)
	}

	if len(security) > 0 {
		settings["802-11-wireless"]["security"] = dbus.MakeVariant("802-11-wireless-security")
		settings["802-11-wireless-security"] = security
	}
	return settings, nil
}

// ActivateConnection activates saved profile id on the wireless device.
func (n *NetworkManager) ActivateConnection(ctx context.Context, id uint64) (string, error) {
	dev, err := n.wirelessDevice(ctx)
	if err != nil {
		return "", err
	}

	var active dbus.ObjectPath
	call := n.nm().CallWithContext(ctx, NMDest+".ActivateConnection", 0, SettingsObjectPath(id), dev, dbus.ObjectPath("/"))
	if call.Err != nil {
		return "", fmt.Errorf("failed to activate connection %d: %w", id, call.Err)
	}
	if err := call.Store(&active); err != nil {
		return "", fmt.Errorf("could not read active connection path: %w", err)
	}
	return string(active), nil
}

// DeleteConnection removes saved profile id.
func (n *NetworkManager) DeleteConnection(ctx context.Context, id uint64) error {
	call := n.object(SettingsObjectPath(id)).CallWithContext(ctx, ConnectionIF+".Delete", 0)
	if call.Err != nil {
		return fmt.Errorf("failed to delete connection %d: %w", id, call.Err)
	}
	return nil
}

// ActivationState reads the state of an active connection. A vanished object
// means NetworkManager already tore the attempt down.
func (n *NetworkManager) ActivationState(ctx context.Context, activePath string) (uint32, error) {
	v, err := getProperty(ctx, n.object(dbus.ObjectPath(activePath)), ActiveIF, "State")
	if err != nil {
		if IsUnknownObject(err) {
			return ActiveStateDeactivated, nil
		}
		return ActiveStateUnknown, fmt.Errorf("could not read activation state: %w", err)
	}
	state, _ := v.Value().(uint32)
	return state, nil
}

// IsUnknownObject reports whether err is NetworkManager saying the object
// path does not exist (any more).
func IsUnknownObject(err error) bool {
	name := ErrorName(err)
	return strings.HasSuffix(name, ".UnknownObject") || strings.HasSuffix(name, ".UnknownMethod")
}

// ErrorName returns the D-Bus error name carried by err, or "" when err is
// not a remote error reply.
func ErrorName(err error) string {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return dbusErrPtr.Name
	}
	return ""
}
