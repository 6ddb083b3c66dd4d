package bus

import (
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

// NetworkManager bus names.
const (
	NMDest        = "org.freedesktop.NetworkManager"
	NMPath        = "/org/freedesktop/NetworkManager"
	SettingsPath  = NMPath + "/Settings"
	PropsIF       = "org.freedesktop.DBus.Properties"
	DevIF         = NMDest + ".Device"
	WifiIF        = DevIF + ".Wireless"
	AccessPointIF = NMDest + ".AccessPoint"
	SettingsIF    = NMDest + ".Settings"
	ConnectionIF  = SettingsIF + ".Connection"
	ActiveIF      = NMDest + ".Connection.Active"
)

const deviceTypeWifi uint32 = 2

// Active connection states (NMActiveConnectionState).
const (
	ActiveStateUnknown      uint32 = 0
	ActiveStateActivating   uint32 = 1
	ActiveStateActivated    uint32 = 2
	ActiveStateDeactivating uint32 = 3
	ActiveStateDeactivated  uint32 = 4
)

// Access point flag bits (NM80211ApFlags / NM80211ApSecurityFlags).
const (
	apFlagPrivacy uint32 = 0x1

	secPairTKIP    uint32 = 0x4
	secPairCCMP    uint32 = 0x8
	secKeyMgmtPSK  uint32 = 0x100
	secKeyMgmt8021 uint32 = 0x200
	secKeyMgmtSAE  uint32 = 0x400
	secKeyMgmtOWE  uint32 = 0x800
)

// AccessPoint is one BSS as reported by NetworkManager.
type AccessPoint struct {
	Path      string
	SSID      string
	BSSID     string
	Frequency uint32
	// Strength is a percentage, 0-100.
	Strength uint8
	Flags    uint32
	WpaFlags uint32
	RsnFlags uint32
}

// SavedConnection is a wireless connection profile held by NetworkManager's settings store.
type SavedConnection struct {
	ID          uint64
	Path        string
	SSID        string
	KeyMgmt     string
	AutoConnect bool
	Active      bool
}

// SettingsObjectPath returns the settings object path for a numeric connection id.
func SettingsObjectPath(id uint64) dbus.ObjectPath {
	return dbus.ObjectPath(SettingsPath + "/" + strconv.FormatUint(id, 10))
}

// ParseSettingsID extracts the numeric id from a settings object path.
func ParseSettingsID(path dbus.ObjectPath) (uint64, bool) {
	rest, ok := strings.CutPrefix(string(path), SettingsPath+"/")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// StrengthToDBm converts NetworkManager's percentage to an approximate RSSI.
func StrengthToDBm(strength uint8) int {
	if strength > 100 {
		strength = 100
	}
	return int(strength)/2 - 100
}

// FlagsFor renders access point capabilities the way wpa_supplicant does,
// e.g. "[WPA2-PSK-CCMP][ESS]".
func FlagsFor(ap AccessPoint) string {
	var b strings.Builder
	b.WriteString(securityFlag("WPA", ap.WpaFlags))
	b.WriteString(securityFlag("WPA2", ap.RsnFlags))
	if ap.WpaFlags == 0 && ap.RsnFlags == 0 && ap.Flags&apFlagPrivacy != 0 {
		b.WriteString("[WEP]")
	}
	b.WriteString("[ESS]")
	return b.String()
}

func securityFlag(proto string, flags uint32) string {
	var mgmt []string
	if flags&secKeyMgmtPSK != 0 {
		mgmt = append(mgmt, "PSK")
	}
	if flags&secKeyMgmt8021 != 0 {
		mgmt = append(mgmt, "EAP")
	}
	if flags&secKeyMgmtSAE != 0 {
		mgmt = append(mgmt, "SAE")
	}
	if flags&secKeyMgmtOWE != 0 {
		mgmt = append(mgmt, "OWE")
	}
	if len(mgmt) == 0 {
		return ""
	}

	var ciphers []string
	if flags&secPairCCMP != 0 {
		ciphers = append(ciphers, "CCMP")
	}
	if flags&secPairTKIP != 0 {
		ciphers = append(ciphers, "TKIP")
	}

	s := "[" + proto + "-" + strings.Join(mgmt, "+")
	if len(ciphers) > 0 {
		s += "-" + strings.Join(ciphers, "+")
	}
	return s + "]"
}

// KeyMgmtFor picks the 802-11-wireless-security key-mgmt for an access point.
// An empty result means the network is open.
func KeyMgmtFor(ap AccessPoint) string {
	all := ap.WpaFlags | ap.RsnFlags
	switch {
	case all&secKeyMgmtSAE != 0 && all&secKeyMgmtPSK == 0:
		return "sae"
	case all&secKeyMgmtPSK != 0:
		return "wpa-psk"
	case all&secKeyMgmt8021 != 0:
		return "wpa-eap"
	case all&secKeyMgmtOWE != 0:
		return "owe"
	case ap.Flags&apFlagPrivacy != 0:
		return "none"
	default:
		return ""
	}
}
