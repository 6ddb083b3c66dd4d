package bus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestSettingsPathRoundTrip(t *testing.T) {
	path := SettingsObjectPath(7)
	if path != "/org/freedesktop/NetworkManager/Settings/7" {
		t.Fatalf("SettingsObjectPath(7) = %s", path)
	}

	id, ok := ParseSettingsID(path)
	if !ok || id != 7 {
		t.Errorf("ParseSettingsID(%s) = %d, %v", path, id, ok)
	}
}

func TestParseSettingsID_Rejects(t *testing.T) {
	tests := []dbus.ObjectPath{
		"/org/freedesktop/NetworkManager/Settings",
		"/org/freedesktop/NetworkManager/Settings/abc",
		"/org/freedesktop/NetworkManager/Devices/3",
		"/org/freedesktop/NetworkManager/Settings/-1",
	}

	for _, path := range tests {
		if _, ok := ParseSettingsID(path); ok {
			t.Errorf("ParseSettingsID(%s) should fail", path)
		}
	}
}

func TestStrengthToDBm(t *testing.T) {
	tests := []struct {
		strength uint8
		want     int
	}{
		{0, -100},
		{50, -75},
		{90, -55},
		{100, -50},
		{255, -50},
	}

	for _, tt := range tests {
		if got := StrengthToDBm(tt.strength); got != tt.want {
			t.Errorf("StrengthToDBm(%d) = %d, want %d", tt.strength, got, tt.want)
		}
	}
}

func TestFlagsFor(t *testing.T) {
	tests := []struct {
		name string
		ap   AccessPoint
		want string
	}{
		{"open", AccessPoint{}, "[ESS]"},
		{"wep", AccessPoint{Flags: apFlagPrivacy}, "[WEP][ESS]"},
		{
			"wpa2 psk",
			AccessPoint{Flags: apFlagPrivacy, RsnFlags: secKeyMgmtPSK | secPairCCMP},
			"[WPA2-PSK-CCMP][ESS]",
		},
		{
			"mixed",
			AccessPoint{
				Flags:    apFlagPrivacy,
				WpaFlags: secKeyMgmtPSK | secPairTKIP,
				RsnFlags: secKeyMgmtPSK | secPairCCMP | secPairTKIP,
			},
			"[WPA-PSK-TKIP][WPA2-PSK-CCMP+TKIP][ESS]",
		},
		{
			"wpa3 transition",
			AccessPoint{Flags: apFlagPrivacy, RsnFlags: secKeyMgmtPSK | secKeyMgmtSAE | secPairCCMP},
			"[WPA2-PSK+SAE-CCMP][ESS]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlagsFor(tt.ap); got != tt.want {
				t.Errorf("FlagsFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyMgmtFor(t *testing.T) {
	tests := []struct {
		name string
		ap   AccessPoint
		want string
	}{
		{"open", AccessPoint{}, ""},
		{"wep", AccessPoint{Flags: apFlagPrivacy}, "none"},
		{"psk", AccessPoint{RsnFlags: secKeyMgmtPSK}, "wpa-psk"},
		{"sae only", AccessPoint{RsnFlags: secKeyMgmtSAE}, "sae"},
		{"transition prefers psk", AccessPoint{RsnFlags: secKeyMgmtSAE | secKeyMgmtPSK}, "wpa-psk"},
		{"enterprise", AccessPoint{RsnFlags: secKeyMgmt8021}, "wpa-eap"},
		{"owe", AccessPoint{RsnFlags: secKeyMgmtOWE}, "owe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeyMgmtFor(tt.ap); got != tt.want {
				t.Errorf("KeyMgmtFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectionSettings(t *testing.T) {
	ap := AccessPoint{Path: "/ap/1", SSID: "Home", RsnFlags: secKeyMgmtPSK | secPairCCMP}

	settings, err := connectionSettings(ap, "hunter22")
	if err != nil {
		t.Fatalf("connectionSettings() error = %v", err)
	}

	if got := settings["connection"]["id"].Value(); got != "Home" {
		t.Errorf("connection.id = %v, want Home", got)
	}
	if u, _ := settings["connection"]["uuid"].Value().(string); len(u) != 36 {
		t.Errorf("connection.uuid = %q, want a uuid", u)
	}
	sec, ok := settings["802-11-wireless-security"]
	if !ok {
		t.Fatal("missing 802-11-wireless-security")
	}
	if got := sec["key-mgmt"].Value(); got != "wpa-psk" {
		t.Errorf("key-mgmt = %v, want wpa-psk", got)
	}
	if got := sec["psk"].Value(); got != "hunter22" {
		t.Errorf("psk = %v", got)
	}
}

func TestConnectionSettings_OpenNetwork(t *testing.T) {
	settings, err := connectionSettings(AccessPoint{Path: "/ap/2", SSID: "Cafe"}, "")
	if err != nil {
		t.Fatalf("connectionSettings() error = %v", err)
	}
	if _, ok := settings["802-11-wireless-security"]; ok {
		t.Error("open network should have no security section")
	}
}

func TestConnectionSettings_EnterpriseRejected(t *testing.T) {
	ap := AccessPoint{Path: "/ap/3", SSID: "Corp", RsnFlags: secKeyMgmt8021}
	if _, err := connectionSettings(ap, "x"); err == nil {
		t.Error("enterprise network should be rejected")
	}
}

func TestIsUnknownObject(t *testing.T) {
	gone := dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownObject"}
	if !IsUnknownObject(gone) {
		t.Error("UnknownObject reply should be recognised")
	}
	if !IsUnknownObject(fmt.Errorf("read state: %w", &gone)) {
		t.Error("wrapped pointer reply should be recognised")
	}
	if IsUnknownObject(dbus.Error{Name: "org.freedesktop.NetworkManager.PermissionDenied"}) {
		t.Error("PermissionDenied is not an unknown object")
	}
	if IsUnknownObject(errors.New("plain")) {
		t.Error("plain errors carry no name")
	}
}
