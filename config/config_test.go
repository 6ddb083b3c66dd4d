package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yllada/wifi-manager/common"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PollInterval != 15*time.Second {
		t.Errorf("PollInterval = %v, want 15s", cfg.PollInterval)
	}
	if cfg.Bus != BusSystem {
		t.Errorf("Bus = %q, want %q", cfg.Bus, BusSystem)
	}
	if cfg.Workers != common.DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, common.DefaultWorkers)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PollInterval != common.PollInterval {
		t.Errorf("PollInterval = %v, want default", cfg.PollInterval)
	}
}

func TestLoad_ParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `interface: wlan0
bus: session
poll_interval: 5s
workers: -3
log_level: chatty
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Interface != "wlan0" {
		t.Errorf("Interface = %q, want wlan0", cfg.Interface)
	}
	if cfg.Bus != BusSession {
		t.Errorf("Bus = %q, want session", cfg.Bus)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.Workers != common.DefaultWorkers {
		t.Errorf("Workers = %d, want default after validation", cfg.Workers)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want fallback info", cfg.LogLevel)
	}
	// Fields not present keep their defaults.
	if cfg.CallTimeout != common.CallTimeout {
		t.Errorf("CallTimeout = %v, want default", cfg.CallTimeout)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("theme: dark\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, common.ErrConfigLoad) {
		t.Fatalf("Load() error = %v, want ErrConfigLoad", err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Interface = "wlp2s0"
	cfg.ScanSettle = 2 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Interface != "wlp2s0" || loaded.ScanSettle != 2*time.Second {
		t.Errorf("loaded = %+v, want interface wlp2s0 and 2s settle", loaded)
	}
}
