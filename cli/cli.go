// Package cli provides the command-line interface for Wireless Manager.
// Every command talks to the daemon when one is running and falls back to
// NetworkManager directly otherwise.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/history"
	"github.com/yllada/wifi-manager/wireless"
)

// Secrets stores network passphrases.
type Secrets interface {
	Get(ssid string) (string, error)
	Set(ssid, passphrase string) error
	Delete(ssid string) error
}

// CLI runs one-shot wireless operations and prints their results.
type CLI struct {
	ctrl    wireless.Controller
	secrets Secrets
	out     io.Writer
}

// New creates a CLI over ctrl. secrets may be nil.
func New(ctrl wireless.Controller, secrets Secrets, out io.Writer) *CLI {
	return &CLI{
		ctrl:    ctrl,
		secrets: secrets,
		out:     out,
	}
}

// Status prints whether the radio is enabled and, if so, the association.
func (c *CLI) Status(ctx context.Context) error {
	enabled, err := c.ctrl.Status(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		fmt.Fprintln(c.out, "Wireless: disabled")
		return nil
	}
	fmt.Fprintln(c.out, "Wireless: enabled")

	info, err := c.ctrl.Info(ctx)
	if errors.Is(err, common.ErrNotConnected) {
		fmt.Fprintln(c.out, "Not connected.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Connected to %s (%s dBm, %s)\n", info.Name, info.Signal, wireless.Classify(info.Signal))
	return nil
}

// Info prints the associated network in detail.
func (c *CLI) Info(ctx context.Context) error {
	info, err := c.ctrl.Info(ctx)
	if err != nil {
		return err
	}
	printInfo(c.out, info)
	return nil
}

// Scan prints the networks in range.
func (c *CLI) Scan(ctx context.Context) error {
	result, err := c.ctrl.Scan(ctx)
	if err != nil {
		return err
	}
	if len(result) == 0 {
		fmt.Fprintln(c.out, "No networks found.")
		return nil
	}
	printScan(c.out, result)
	return nil
}

// Known prints the saved networks.
func (c *CLI) Known(ctx context.Context) error {
	known, err := c.ctrl.KnownNetworks(ctx)
	if err != nil {
		return err
	}
	if len(known) == 0 {
		fmt.Fprintln(c.out, "No saved networks.")
		return nil
	}
	printKnown(c.out, known)
	return nil
}

// Connect joins ssid. An empty password is looked up in the keyring; if save
// is set, a password that worked is stored.
func (c *CLI) Connect(ctx context.Context, ssid, password string, save bool) error {
	ssid = strings.TrimSpace(ssid)
	if ssid == "" {
		return fmt.Errorf("%w: ssid is required", common.ErrConnectionFailed)
	}

	if password == "" && c.secrets != nil {
		if stored, err := c.secrets.Get(ssid); err == nil {
			password = stored
		}
	}

	fmt.Fprintf(c.out, "Connecting to %s...\n", ssid)
	if err := c.ctrl.Connect(ctx, ssid, password); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintf(c.out, "✓ Connected to %s\n", ssid)

	if save && password != "" && c.secrets != nil {
		if err := c.secrets.Set(ssid, password); err != nil {
			fmt.Fprintf(c.out, "  Warning: passphrase not saved: %v\n", err)
		}
	}
	return nil
}

// Disconnect removes the profile with the given network id.
func (c *CLI) Disconnect(ctx context.Context, networkID string) error {
	if err := c.ctrl.Disconnect(ctx, networkID); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	fmt.Fprintf(c.out, "✓ Removed network %s\n", networkID)
	return nil
}

// Select activates a saved network given by network id or SSID.
func (c *CLI) Select(ctx context.Context, idOrSSID string) error {
	networkID, name, err := c.resolve(ctx, idOrSSID)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Connecting to %s...\n", name)
	if err := c.ctrl.SelectNetwork(ctx, networkID); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintf(c.out, "✓ Connected to %s\n", name)
	return nil
}

// Forget removes a saved network given by network id or SSID, together with
// its stored passphrase.
func (c *CLI) Forget(ctx context.Context, idOrSSID string) error {
	networkID, name, err := c.resolve(ctx, idOrSSID)
	if err != nil {
		return err
	}

	if err := c.ctrl.Disconnect(ctx, networkID); err != nil {
		return fmt.Errorf("failed to forget %s: %w", name, err)
	}
	if c.secrets != nil {
		if err := c.secrets.Delete(name); err != nil {
			fmt.Fprintf(c.out, "  Warning: %v\n", err)
		}
	}
	fmt.Fprintf(c.out, "✓ Forgot %s\n", name)
	return nil
}

// resolve maps a network id or SSID to a fresh network id. Network ids are
// only valid until the saved set changes, so numeric input is checked too.
func (c *CLI) resolve(ctx context.Context, idOrSSID string) (networkID, name string, err error) {
	known, err := c.ctrl.KnownNetworks(ctx)
	if err != nil {
		return "", "", err
	}

	arg := strings.TrimSpace(idOrSSID)
	if _, perr := wireless.ParseNetworkID(arg); perr == nil {
		for _, k := range known {
			if k.NetworkID == arg {
				return k.NetworkID, k.SSID, nil
			}
		}
	}
	for _, k := range known {
		if k.SSID == arg {
			return k.NetworkID, k.SSID, nil
		}
	}
	return "", "", fmt.Errorf("%w: no saved network %q", common.ErrInvalidNetworkID, idOrSSID)
}

// Enable turns the radio on.
func (c *CLI) Enable(ctx context.Context) error {
	if _, err := c.ctrl.Enable(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "✓ Wireless enabled")
	return nil
}

// Disable turns the radio off.
func (c *CLI) Disable(ctx context.Context) error {
	if _, err := c.ctrl.Disable(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "✓ Wireless disabled")
	return nil
}

// Watch prints events until ctx is done or events is closed.
func (c *CLI) Watch(ctx context.Context, events <-chan wireless.NotificationEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			fmt.Fprintf(c.out, "%s  %s\n", time.Now().Format(time.TimeOnly), formatEvent(event))
		}
	}
}

// History prints recorded events, newest first.
func (c *CLI) History(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "No recorded events.")
		return
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEVENT")
	fmt.Fprintln(w, "----\t-----")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.At.Local().Format(time.DateTime), formatEvent(e.Event()))
	}
	w.Flush()
}

func printInfo(out io.Writer, info wireless.WirelessInfo) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SSID:\t%s\n", info.Name)
	fmt.Fprintf(w, "BSSID:\t%s\n", info.Mac)
	fmt.Fprintf(w, "Frequency:\t%s MHz\n", info.Frequency)
	fmt.Fprintf(w, "Signal:\t%s dBm (%s)\n", info.Signal, wireless.Classify(info.Signal))
	fmt.Fprintf(w, "Flags:\t%s\n", info.Flags)
	w.Flush()
}

func printScan(out io.Writer, result wireless.ScanResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SSID\tBSSID\tFREQ\tSIGNAL\tFLAGS")
	fmt.Fprintln(w, "----\t-----\t----\t------\t-----")
	for _, n := range result {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.Name, n.Mac, n.Frequency, n.Signal, n.Flags)
	}
	w.Flush()
}

func printKnown(out io.Writer, known []wireless.KnownNetwork) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSSID\tFLAGS")
	fmt.Fprintln(w, "--\t----\t-----")
	for _, k := range known {
		fmt.Fprintf(w, "%s\t%s\t%s\n", k.NetworkID, k.SSID, k.Flags)
	}
	w.Flush()
}

// formatEvent renders an event on one line.
func formatEvent(event wireless.NotificationEvent) string {
	switch {
	case !event.IsEnabled:
		return "wireless disabled"
	case !event.IsConnected:
		return "enabled, not connected"
	default:
		return fmt.Sprintf("connected, signal %s dBm (%s)", event.SignalStrength, wireless.Classify(event.SignalStrength))
	}
}
