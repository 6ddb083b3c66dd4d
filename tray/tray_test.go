package tray

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/yllada/wifi-manager/wireless"
)

func TestGenerateIcons(t *testing.T) {
	configs := []IconConfig{
		IconConfigFor(false, false, wireless.SignalUnknown),
		IconConfigFor(true, false, wireless.SignalUnknown),
		IconConfigFor(true, true, wireless.SignalLow),
		IconConfigFor(true, true, wireless.SignalStrong),
	}

	seen := make(map[string]bool)
	for _, cfg := range configs {
		data := NewIconGenerator(cfg).Generate()
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("icon is not a PNG: %v", err)
		}
		if img.Bounds().Dx() != cfg.Size {
			t.Errorf("icon width = %d, want %d", img.Bounds().Dx(), cfg.Size)
		}
		seen[string(data)] = true
	}

	if len(seen) != len(configs) {
		t.Errorf("got %d distinct icons, want %d", len(seen), len(configs))
	}
}

func TestIconConfigFor_Bars(t *testing.T) {
	tests := []struct {
		level wireless.SignalLevel
		bars  int
	}{
		{wireless.SignalLow, 1},
		{wireless.SignalWeak, 2},
		{wireless.SignalGood, 3},
		{wireless.SignalStrong, 4},
	}

	for _, tt := range tests {
		if got := IconConfigFor(true, true, tt.level).Bars; got != tt.bars {
			t.Errorf("bars for %v = %d, want %d", tt.level, got, tt.bars)
		}
	}
	if !IconConfigFor(false, true, wireless.SignalStrong).Crossed {
		t.Error("disabled radio should be crossed out")
	}
}

func TestIconCache(t *testing.T) {
	cache := make(iconCache)
	cfg := IconConfigFor(true, true, wireless.SignalGood)

	a := cache.get(cfg)
	b := cache.get(cfg)
	if &a[0] != &b[0] {
		t.Error("cache should return the same icon bytes")
	}
}

func TestDescribe(t *testing.T) {
	off := Describe(wireless.ConnectionState{})
	if !strings.Contains(off.Status, "Off") || !off.Icon.Crossed {
		t.Errorf("disabled view = %+v", off)
	}

	idle := Describe(wireless.ConnectionState{IsEnabled: true})
	if !strings.Contains(idle.Status, "Not Connected") || idle.Signal != "" {
		t.Errorf("idle view = %+v", idle)
	}

	on := Describe(wireless.ConnectionState{
		IsEnabled:        true,
		ConnectedNetwork: &wireless.WirelessInfo{Name: "Home", Signal: "-55"},
		SignalStrength:   "-55",
	})
	if !strings.Contains(on.Status, "Home") || !strings.Contains(on.Signal, "good") {
		t.Errorf("connected view = %+v", on)
	}
}

func TestTransitionFor(t *testing.T) {
	connected := wireless.NotificationEvent{IsEnabled: true, IsConnected: true, SignalStrength: "-50"}
	idle := wireless.NotificationEvent{IsEnabled: true}
	off := wireless.NotificationEvent{}

	tests := []struct {
		name      string
		prev, cur wireless.NotificationEvent
		title     string
	}{
		{"connect", idle, connected, "Wireless Connected"},
		{"drop", connected, idle, "Wireless Disconnected"},
		{"radio off", connected, off, "Wireless Disabled"},
		{"radio on", off, idle, "Wireless Enabled"},
		{"signal only", connected, wireless.NotificationEvent{IsEnabled: true, IsConnected: true, SignalStrength: "-70"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := TransitionFor(tt.prev, tt.cur)
			if ok != (tt.title != "") || tr.Title != tt.title {
				t.Errorf("TransitionFor() = %+v, %v, want %q", tr, ok, tt.title)
			}
		})
	}
}
