package wireless

import (
	"strconv"
	"strings"
)

// WirelessInfo describes one network as seen over the air. For the
// associated network it is recomputed on every query.
type WirelessInfo struct {
	Mac       string
	Frequency string
	// Signal is an integer dBm value in decimal.
	Signal string
	// Flags is a capability string, e.g. "[WPA2-PSK-CCMP][ESS]".
	Flags string
	Name  string
}

// ScanResult lists the networks visible in one scan. Entries may repeat an
// SSID (one per BSSID); order is stable within a result.
type ScanResult []WirelessInfo

// KnownNetwork is a saved network profile. NetworkID is only valid until the
// network service's configuration changes; re-fetch before every use.
type KnownNetwork struct {
	NetworkID string
	SSID      string
	Flags     string
}

// Flags markers on KnownNetwork.
const (
	FlagCurrent  = "[CURRENT]"
	FlagDisabled = "[DISABLED]"
)

// IsCurrent reports whether the profile backs the active connection.
func (k KnownNetwork) IsCurrent() bool {
	return strings.Contains(k.Flags, FlagCurrent)
}

// ConnectionState is the reconciled view of the radio.
// ConnectedNetwork is non-nil only when IsEnabled is true.
type ConnectionState struct {
	IsEnabled        bool
	ConnectedNetwork *WirelessInfo
	SignalStrength   string
}

// NotificationEvent is a change snapshot emitted by the notifier.
type NotificationEvent struct {
	SignalStrength string
	IsConnected    bool
	IsEnabled      bool
}

// SignalLevel buckets a dBm reading.
type SignalLevel int

const (
	SignalUnknown SignalLevel = iota
	SignalLow
	SignalWeak
	SignalGood
	SignalStrong
)

func (s SignalLevel) String() string {
	switch s {
	case SignalLow:
		return "low"
	case SignalWeak:
		return "weak"
	case SignalGood:
		return "good"
	case SignalStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// Classify buckets a dBm string.
func Classify(dbm string) SignalLevel {
	v, err := strconv.Atoi(strings.TrimSpace(dbm))
	if err != nil {
		return SignalUnknown
	}
	switch {
	case v <= -80:
		return SignalLow
	case v <= -60:
		return SignalWeak
	case v <= -40:
		return SignalGood
	default:
		return SignalStrong
	}
}
