package wireless

import (
	"context"

	"github.com/yllada/wifi-manager/bus"
)

// Controller is the set of wireless operations. It is satisfied by Client,
// which talks to the network service directly, and by the bus proxy to a
// running daemon.
type Controller interface {
	Status(ctx context.Context) (bool, error)
	Info(ctx context.Context) (WirelessInfo, error)
	Scan(ctx context.Context) (ScanResult, error)
	Connect(ctx context.Context, ssid, password string) error
	Disconnect(ctx context.Context, networkID string) error
	SelectNetwork(ctx context.Context, networkID string) error
	KnownNetworks(ctx context.Context) ([]KnownNetwork, error)
	Enable(ctx context.Context) (bool, error)
	Disable(ctx context.Context) (bool, error)
}

// Transport is the bus surface the Client is built on.
// *bus.NetworkManager implements it.
type Transport interface {
	WirelessEnabled(ctx context.Context) (bool, error)
	SetWirelessEnabled(ctx context.Context, enabled bool) error
	ActiveAccessPoint(ctx context.Context) (*bus.AccessPoint, error)
	RequestScan(ctx context.Context) error
	AccessPoints(ctx context.Context) ([]bus.AccessPoint, error)
	SavedConnections(ctx context.Context) ([]bus.SavedConnection, error)
	AddAndActivate(ctx context.Context, ssid, password string) (string, error)
	ActivateConnection(ctx context.Context, id uint64) (string, error)
	DeleteConnection(ctx context.Context, id uint64) error
	ActivationState(ctx context.Context, activePath string) (uint32, error)
}

var (
	_ Controller = (*Client)(nil)
	_ Transport  = (*bus.NetworkManager)(nil)
)
