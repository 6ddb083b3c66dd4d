package wireless

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/wifi-manager/bus"
	"github.com/yllada/wifi-manager/common"
)

// fakeTransport records calls and returns canned values.
type fakeTransport struct {
	mu    sync.Mutex
	calls []string

	enabled    bool
	enabledErr error
	setErr     error

	active    *bus.AccessPoint
	activeErr error

	scanErr error
	aps     []bus.AccessPoint
	apsErr  error

	saved    []bus.SavedConnection
	savedErr error

	addErr      error
	activateErr error
	deleteErr   error
	states      []uint32
	stateErr    error
}

func (f *fakeTransport) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeTransport) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if name == "" || c == name {
			n++
		}
	}
	return n
}

func (f *fakeTransport) WirelessEnabled(context.Context) (bool, error) {
	f.record("WirelessEnabled")
	return f.enabled, f.enabledErr
}

func (f *fakeTransport) SetWirelessEnabled(_ context.Context, enabled bool) error {
	f.record("SetWirelessEnabled")
	if f.setErr != nil {
		return f.setErr
	}
	f.enabled = enabled
	return nil
}

func (f *fakeTransport) ActiveAccessPoint(context.Context) (*bus.AccessPoint, error) {
	f.record("ActiveAccessPoint")
	return f.active, f.activeErr
}

func (f *fakeTransport) RequestScan(context.Context) error {
	f.record("RequestScan")
	return f.scanErr
}

func (f *fakeTransport) AccessPoints(context.Context) ([]bus.AccessPoint, error) {
	f.record("AccessPoints")
	return f.aps, f.apsErr
}

func (f *fakeTransport) SavedConnections(context.Context) ([]bus.SavedConnection, error) {
	f.record("SavedConnections")
	return f.saved, f.savedErr
}

func (f *fakeTransport) AddAndActivate(context.Context, string, string) (string, error) {
	f.record("AddAndActivate")
	return "/active/1", f.addErr
}

func (f *fakeTransport) ActivateConnection(context.Context, uint64) (string, error) {
	f.record("ActivateConnection")
	return "/active/2", f.activateErr
}

func (f *fakeTransport) DeleteConnection(context.Context, uint64) error {
	f.record("DeleteConnection")
	return f.deleteErr
}

func (f *fakeTransport) ActivationState(context.Context, string) (uint32, error) {
	f.record("ActivationState")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return bus.ActiveStateUnknown, f.stateErr
	}
	if len(f.states) == 0 {
		return bus.ActiveStateActivating, nil
	}
	s := f.states[0]
	if len(f.states) > 1 {
		f.states = f.states[1:]
	}
	return s, nil
}

func newTestClient(ft *fakeTransport) *Client {
	return NewClient(ft, ClientConfig{
		ScanSettle:     0,
		ConnectTimeout: 200 * time.Millisecond,
		ActivationPoll: time.Millisecond,
	})
}

func TestEnable_Idempotent(t *testing.T) {
	ft := &fakeTransport{enabled: true}
	c := newTestClient(ft)

	ok, err := c.Enable(context.Background())
	if err != nil || !ok {
		t.Fatalf("Enable() = %v, %v, want true, nil", ok, err)
	}
	if n := ft.count("SetWirelessEnabled"); n != 0 {
		t.Errorf("SetWirelessEnabled called %d times, want 0", n)
	}

	status, err := c.Status(context.Background())
	if err != nil || !status {
		t.Errorf("Status() = %v, %v, want true, nil", status, err)
	}
}

func TestEnableDisable_Writes(t *testing.T) {
	ft := &fakeTransport{enabled: false}
	c := newTestClient(ft)

	if ok, err := c.Enable(context.Background()); err != nil || !ok {
		t.Fatalf("Enable() = %v, %v", ok, err)
	}
	if !ft.enabled {
		t.Error("radio should be enabled")
	}
	if ok, err := c.Disable(context.Background()); err != nil || !ok {
		t.Fatalf("Disable() = %v, %v", ok, err)
	}
	if ft.enabled {
		t.Error("radio should be disabled")
	}
	if n := ft.count("SetWirelessEnabled"); n != 2 {
		t.Errorf("SetWirelessEnabled called %d times, want 2", n)
	}
}

func TestEnable_TransportFailure(t *testing.T) {
	ft := &fakeTransport{setErr: errors.New("permission denied")}
	c := newTestClient(ft)

	_, err := c.Enable(context.Background())
	if !errors.Is(err, common.ErrTransport) {
		t.Errorf("Enable() error = %v, want ErrTransport", err)
	}
}

func TestStatus(t *testing.T) {
	c := newTestClient(&fakeTransport{enabled: false})
	enabled, err := c.Status(context.Background())
	if err != nil || enabled {
		t.Errorf("Status() = %v, %v, want false, nil", enabled, err)
	}

	busDown := errors.New("connection refused")
	c = newTestClient(&fakeTransport{enabledErr: busDown})
	_, err = c.Status(context.Background())
	if !errors.Is(err, common.ErrTransport) {
		t.Errorf("Status() error = %v, want ErrTransport", err)
	}
	if !errors.Is(err, busDown) {
		t.Errorf("Status() error should keep the cause, got %v", err)
	}
}

func TestInfo(t *testing.T) {
	ft := &fakeTransport{active: &bus.AccessPoint{
		SSID:      "Home",
		BSSID:     "aa:bb:cc:dd:ee:ff",
		Frequency: 5180,
		Strength:  90,
		RsnFlags:  0x100 | 0x8,
	}}
	c := newTestClient(ft)

	info, err := c.Info(context.Background())
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	want := WirelessInfo{
		Mac:       "aa:bb:cc:dd:ee:ff",
		Frequency: "5180",
		Signal:    "-55",
		Flags:     "[WPA2-PSK-CCMP][ESS]",
		Name:      "Home",
	}
	if info != want {
		t.Errorf("Info() = %+v, want %+v", info, want)
	}
}

func TestInfo_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		ft   *fakeTransport
		want error
	}{
		{"not associated", &fakeTransport{}, common.ErrNotConnected},
		{"no device", &fakeTransport{activeErr: common.ErrNoWirelessDevice}, common.ErrNotConnected},
		{"bus down", &fakeTransport{activeErr: errors.New("no reply")}, common.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(tt.ft).Info(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("Info() error = %v, want %v", err, tt.want)
			}
			if tt.want == common.ErrNotConnected && errors.Is(err, common.ErrTransport) {
				t.Error("not connected must not look like a transport failure")
			}
		})
	}
}

func TestScan(t *testing.T) {
	ft := &fakeTransport{aps: []bus.AccessPoint{
		{SSID: "A", BSSID: "01", Strength: 80},
		{SSID: "A", BSSID: "02", Strength: 60},
		{SSID: "B", BSSID: "03", Strength: 40},
	}}
	c := newTestClient(ft)

	result, err := c.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Scan() returned %d entries, want 3 (duplicates kept)", len(result))
	}
	if result[0].Mac != "01" || result[2].Name != "B" {
		t.Errorf("Scan() order changed: %+v", result)
	}
	if ft.count("RequestScan") != 1 {
		t.Error("Scan should request a fresh scan")
	}
}

func TestScan_RequestRejectedStillLists(t *testing.T) {
	ft := &fakeTransport{
		scanErr: errors.New("scanning not allowed while already scanning"),
		aps:     []bus.AccessPoint{{SSID: "A"}},
	}

	result, err := newTestClient(ft).Scan(context.Background())
	if err != nil || len(result) != 1 {
		t.Errorf("Scan() = %v, %v, want one entry", result, err)
	}
}

func TestScan_ListFailure(t *testing.T) {
	ft := &fakeTransport{apsErr: errors.New("timeout")}

	_, err := newTestClient(ft).Scan(context.Background())
	if !errors.Is(err, common.ErrTransport) {
		t.Errorf("Scan() error = %v, want ErrTransport", err)
	}
}

func TestConnect(t *testing.T) {
	ft := &fakeTransport{states: []uint32{bus.ActiveStateActivating, bus.ActiveStateActivated}}

	if err := newTestClient(ft).Connect(context.Background(), "Home", "secret"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if ft.count("ActivationState") != 2 {
		t.Errorf("ActivationState called %d times, want 2", ft.count("ActivationState"))
	}
}

func TestConnect_Failures(t *testing.T) {
	tests := []struct {
		name string
		ssid string
		ft   *fakeTransport
	}{
		{"empty ssid", "", &fakeTransport{}},
		{"rejected", "Home", &fakeTransport{addErr: errors.New("802-11-wireless-security.psk: property is invalid")}},
		{"deactivated", "Home", &fakeTransport{states: []uint32{bus.ActiveStateActivating, bus.ActiveStateDeactivated}}},
		{"timeout", "Home", &fakeTransport{states: []uint32{bus.ActiveStateActivating}}},
		{"state read fails", "Home", &fakeTransport{stateErr: errors.New("no reply")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestClient(tt.ft).Connect(context.Background(), tt.ssid, "pw")
			if !errors.Is(err, common.ErrConnectionFailed) {
				t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
			}
			if err != nil && err.Error() == "" {
				t.Error("error should carry a reason")
			}
		})
	}
}

func TestDisconnect_InvalidIDFailsFast(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	for _, id := range []string{"not-a-number", "-1", "", "1.5"} {
		if err := c.Disconnect(context.Background(), id); !errors.Is(err, common.ErrInvalidNetworkID) {
			t.Errorf("Disconnect(%q) error = %v, want ErrInvalidNetworkID", id, err)
		}
		if err := c.SelectNetwork(context.Background(), id); !errors.Is(err, common.ErrInvalidNetworkID) {
			t.Errorf("SelectNetwork(%q) error = %v, want ErrInvalidNetworkID", id, err)
		}
	}

	if n := ft.count(""); n != 0 {
		t.Errorf("transport called %d times, want 0", n)
	}
}

func TestDisconnect(t *testing.T) {
	ft := &fakeTransport{}
	if err := newTestClient(ft).Disconnect(context.Background(), "3"); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if ft.count("DeleteConnection") != 1 {
		t.Error("Disconnect should delete the profile")
	}

	ft = &fakeTransport{deleteErr: dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownObject"}}
	err := newTestClient(ft).Disconnect(context.Background(), "99")
	if !errors.Is(err, common.ErrInvalidNetworkID) {
		t.Errorf("Disconnect(unknown) error = %v, want ErrInvalidNetworkID", err)
	}
}

func TestSelectNetwork(t *testing.T) {
	ft := &fakeTransport{states: []uint32{bus.ActiveStateActivated}}
	if err := newTestClient(ft).SelectNetwork(context.Background(), "4"); err != nil {
		t.Fatalf("SelectNetwork() error = %v", err)
	}

	ft = &fakeTransport{activateErr: errors.New("device unavailable")}
	err := newTestClient(ft).SelectNetwork(context.Background(), "4")
	if !errors.Is(err, common.ErrConnectionFailed) {
		t.Errorf("SelectNetwork() error = %v, want ErrConnectionFailed", err)
	}
}

func TestKnownNetworks(t *testing.T) {
	ft := &fakeTransport{saved: []bus.SavedConnection{
		{ID: 1, SSID: "Home", KeyMgmt: "wpa-psk", AutoConnect: true, Active: true},
		{ID: 5, SSID: "Cafe", AutoConnect: false},
	}}

	known, err := newTestClient(ft).KnownNetworks(context.Background())
	if err != nil {
		t.Fatalf("KnownNetworks() error = %v", err)
	}

	want := []KnownNetwork{
		{NetworkID: "1", SSID: "Home", Flags: "[WPA2-PSK][CURRENT]"},
		{NetworkID: "5", SSID: "Cafe", Flags: "[DISABLED]"},
	}
	if len(known) != len(want) {
		t.Fatalf("KnownNetworks() = %+v", known)
	}
	for i := range want {
		if known[i] != want[i] {
			t.Errorf("known[%d] = %+v, want %+v", i, known[i], want[i])
		}
	}
	if !known[0].IsCurrent() || known[1].IsCurrent() {
		t.Error("IsCurrent mismatch")
	}
}

func TestParseNetworkID(t *testing.T) {
	if id, err := ParseNetworkID(" 12 "); err != nil || id != 12 {
		t.Errorf("ParseNetworkID(\" 12 \") = %d, %v", id, err)
	}
	if _, err := ParseNetworkID("x"); !errors.Is(err, common.ErrInvalidNetworkID) {
		t.Errorf("ParseNetworkID(x) error = %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	def := DefaultClientConfig()

	c := NewClient(nil, ClientConfig{})
	if c.config.ScanSettle != 0 {
		t.Errorf("ScanSettle = %v, want 0 to disable the settle wait", c.config.ScanSettle)
	}
	if c.config.ConnectTimeout != def.ConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want %v", c.config.ConnectTimeout, def.ConnectTimeout)
	}
	if c.config.ActivationPoll != def.ActivationPoll {
		t.Errorf("ActivationPoll = %v, want %v", c.config.ActivationPoll, def.ActivationPoll)
	}

	c = NewClient(nil, ClientConfig{ScanSettle: -1})
	if c.config.ScanSettle != def.ScanSettle {
		t.Errorf("ScanSettle = %v, want default %v", c.config.ScanSettle, def.ScanSettle)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		dbm  string
		want SignalLevel
	}{
		{"-90", SignalLow},
		{"-80", SignalLow},
		{"-70", SignalWeak},
		{"-60", SignalWeak},
		{"-55", SignalGood},
		{"-41", SignalGood},
		{"-40", SignalGood},
		{"-39", SignalStrong},
		{"-30", SignalStrong},
		{"", SignalUnknown},
		{"n/a", SignalUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.dbm); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.dbm, got, tt.want)
		}
	}
}

func TestErrorKindOf(t *testing.T) {
	err := newError("scan", common.ErrTransport, errors.New("boom"))
	if KindOf(err) != common.ErrTransport {
		t.Errorf("KindOf() = %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != nil {
		t.Error("KindOf(plain) should be nil")
	}
}
