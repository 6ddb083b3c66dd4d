package wireless

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yllada/wifi-manager/bus"
	"github.com/yllada/wifi-manager/common"
)

// ClientConfig holds tuning for Client.
type ClientConfig struct {
	// ScanSettle is how long Scan waits between requesting a scan and reading results.
	ScanSettle time.Duration
	// ConnectTimeout bounds Connect and SelectNetwork including activation.
	ConnectTimeout time.Duration
	// ActivationPoll is how often a pending activation is re-checked.
	ActivationPoll time.Duration
	Logger         common.Logger
}

// DefaultClientConfig returns the defaults used by the daemon.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ScanSettle:     common.ScanSettle,
		ConnectTimeout: common.ConnectionTimeout,
		ActivationPoll: common.ActivationPollInterval,
	}
}

// Client performs wireless operations against a Transport. It holds no
// wireless state of its own.
type Client struct {
	transport Transport
	config    ClientConfig
	log       common.Logger
}

// NewClient creates a Client. Zero timeouts fall back to the defaults. A
// zero ScanSettle disables the settle wait; a negative one uses the default.
func NewClient(transport Transport, config ClientConfig) *Client {
	def := DefaultClientConfig()
	if config.ScanSettle < 0 {
		config.ScanSettle = def.ScanSettle
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = def.ConnectTimeout
	}
	if config.ActivationPoll <= 0 {
		config.ActivationPoll = def.ActivationPoll
	}
	log := config.Logger
	if log == nil {
		log = common.NopLogger{}
	}

	return &Client{
		transport: transport,
		config:    config,
		log:       log,
	}
}

// ParseNetworkID validates a network id: a non-negative decimal integer.
func ParseNetworkID(networkID string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(networkID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", networkID, common.ErrInvalidNetworkID)
	}
	return id, nil
}

// Status reports whether the radio is enabled. A disabled radio is not an error.
func (c *Client) Status(ctx context.Context) (bool, error) {
	enabled, err := c.transport.WirelessEnabled(ctx)
	if err != nil {
		return false, newError("status", common.ErrTransport, err)
	}
	return enabled, nil
}

// Info describes the associated network. It fails with ErrNotConnected when
// there is no association.
func (c *Client) Info(ctx context.Context) (WirelessInfo, error) {
	ap, err := c.transport.ActiveAccessPoint(ctx)
	if errors.Is(err, common.ErrNoWirelessDevice) {
		return WirelessInfo{}, newError("info", common.ErrNotConnected, err)
	}
	if err != nil {
		return WirelessInfo{}, newError("info", common.ErrTransport, err)
	}
	if ap == nil {
		return WirelessInfo{}, newError("info", common.ErrNotConnected, nil)
	}
	return infoFromAccessPoint(*ap), nil
}

func infoFromAccessPoint(ap bus.AccessPoint) WirelessInfo {
	return WirelessInfo{
		Mac:       ap.BSSID,
		Frequency: strconv.FormatUint(uint64(ap.Frequency), 10),
		Signal:    strconv.Itoa(bus.StrengthToDBm(ap.Strength)),
		Flags:     bus.FlagsFor(ap),
		Name:      ap.SSID,
	}
}

// Scan requests a fresh scan and returns the visible networks. It blocks for
// at least the configured settle time.
func (c *Client) Scan(ctx context.Context) (ScanResult, error) {
	if err := c.transport.RequestScan(ctx); err != nil {
		// NetworkManager refuses while a scan is already running; the
		// listing below still reflects the most recent results.
		c.log.Debug("Scan request rejected: %v", err)
	} else if c.config.ScanSettle > 0 {
		timer := time.NewTimer(c.config.ScanSettle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, newError("scan", common.ErrTransport, ctx.Err())
		case <-timer.C:
		}
	}

	aps, err := c.transport.AccessPoints(ctx)
	if err != nil {
		return nil, newError("scan", common.ErrTransport, err)
	}

	result := make(ScanResult, 0, len(aps))
	for _, ap := range aps {
		result = append(result, infoFromAccessPoint(ap))
	}
	return result, nil
}

// Connect creates a profile for ssid and waits until it is activated.
// Any rejection is returned as ErrConnectionFailed with the reason attached.
func (c *Client) Connect(ctx context.Context, ssid, password string) error {
	if ssid == "" {
		return newError("connect", common.ErrConnectionFailed, errors.New("empty ssid"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	active, err := c.transport.AddAndActivate(ctx, ssid, password)
	if err != nil {
		return newError("connect", common.ErrConnectionFailed, err)
	}

	c.log.Info("Activating %s", ssid)
	if err := c.waitActivated(ctx, active); err != nil {
		return newError("connect", common.ErrConnectionFailed, err)
	}
	c.log.Info("Connected to %s", ssid)
	return nil
}

// waitActivated polls an active connection until it settles.
func (c *Client) waitActivated(ctx context.Context, activePath string) error {
	ticker := time.NewTicker(c.config.ActivationPoll)
	defer ticker.Stop()

	for {
		state, err := c.transport.ActivationState(ctx, activePath)
		if err != nil {
			return err
		}
		switch state {
		case bus.ActiveStateActivated:
			return nil
		case bus.ActiveStateDeactivated:
			return errors.New("activation failed")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", common.ErrTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Disconnect forgets the saved profile networkID, tearing down the
// association if it is active.
func (c *Client) Disconnect(ctx context.Context, networkID string) error {
	id, err := ParseNetworkID(networkID)
	if err != nil {
		return newError("disconnect", common.ErrInvalidNetworkID, err)
	}

	if err := c.transport.DeleteConnection(ctx, id); err != nil {
		if bus.IsUnknownObject(err) {
			return newError("disconnect", common.ErrInvalidNetworkID, err)
		}
		return newError("disconnect", common.ErrTransport, err)
	}
	return nil
}

// SelectNetwork activates saved profile networkID and waits for the result.
func (c *Client) SelectNetwork(ctx context.Context, networkID string) error {
	id, err := ParseNetworkID(networkID)
	if err != nil {
		return newError("select_network", common.ErrInvalidNetworkID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	active, err := c.transport.ActivateConnection(ctx, id)
	if err != nil {
		if bus.IsUnknownObject(err) {
			return newError("select_network", common.ErrInvalidNetworkID, err)
		}
		return newError("select_network", common.ErrConnectionFailed, err)
	}

	if err := c.waitActivated(ctx, active); err != nil {
		return newError("select_network", common.ErrConnectionFailed, err)
	}
	return nil
}

// KnownNetworks lists saved wireless profiles.
func (c *Client) KnownNetworks(ctx context.Context) ([]KnownNetwork, error) {
	saved, err := c.transport.SavedConnections(ctx)
	if err != nil {
		return nil, newError("known_networks", common.ErrTransport, err)
	}

	known := make([]KnownNetwork, 0, len(saved))
	for _, sc := range saved {
		known = append(known, KnownNetwork{
			NetworkID: strconv.FormatUint(sc.ID, 10),
			SSID:      sc.SSID,
			Flags:     knownFlags(sc),
		})
	}
	return known, nil
}

func knownFlags(sc bus.SavedConnection) string {
	var b strings.Builder
	switch sc.KeyMgmt {
	case "wpa-psk":
		b.WriteString("[WPA2-PSK]")
	case "sae":
		b.WriteString("[WPA3-SAE]")
	case "wpa-eap":
		b.WriteString("[WPA2-EAP]")
	case "owe":
		b.WriteString("[OWE]")
	case "none":
		b.WriteString("[WEP]")
	}
	if sc.Active {
		b.WriteString(FlagCurrent)
	}
	if !sc.AutoConnect {
		b.WriteString(FlagDisabled)
	}
	return b.String()
}

// Enable turns the radio on. It succeeds without writing when already on.
func (c *Client) Enable(ctx context.Context) (bool, error) {
	return c.setEnabled(ctx, "enable", true)
}

// Disable turns the radio off. It succeeds without writing when already off.
func (c *Client) Disable(ctx context.Context) (bool, error) {
	return c.setEnabled(ctx, "disable", false)
}

func (c *Client) setEnabled(ctx context.Context, op string, enabled bool) (bool, error) {
	current, err := c.transport.WirelessEnabled(ctx)
	if err != nil {
		return false, newError(op, common.ErrTransport, err)
	}
	if current == enabled {
		return true, nil
	}

	if err := c.transport.SetWirelessEnabled(ctx, enabled); err != nil {
		return false, newError(op, common.ErrTransport, err)
	}
	c.log.Info("Wireless enabled set to %t", enabled)
	return true, nil
}
