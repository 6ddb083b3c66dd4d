package keyring

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/yllada/wifi-manager/common"
)

func TestSystemKeyring(t *testing.T) {
	keyring.MockInit()

	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.UsesFile() {
		t.Fatal("mock keyring should be used")
	}

	if err := s.Set("Home", "hunter22"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get("Home")
	if err != nil || got != "hunter22" {
		t.Errorf("Get() = %q, %v", got, err)
	}

	if err := s.Delete("Home"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get("Home"); !errors.Is(err, common.ErrCredentialsNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrCredentialsNotFound", err)
	}
	if err := s.Delete("Home"); err != nil {
		t.Errorf("Delete() of a missing entry error = %v", err)
	}
}

func TestFileFallback_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Config{Dir: dir, FileOnly: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !s.UsesFile() {
		t.Fatal("file backend should be active")
	}
	if err := s.Set("Cafe", "espresso"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, common.CredentialsFileName))
	if err != nil {
		t.Fatalf("credentials file missing: %v", err)
	}
	if strings.Contains(string(raw), "espresso") {
		t.Error("passphrase stored in clear text")
	}

	reopened, err := New(Config{Dir: dir, FileOnly: true})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if got, err := reopened.Get("Cafe"); err != nil || got != "espresso" {
		t.Errorf("Get() after reopen = %q, %v", got, err)
	}
	if !reopened.Exists("Cafe") || reopened.Exists("Office") {
		t.Error("Exists mismatch")
	}
}

func TestFileFallback_TamperedFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{Dir: dir, FileOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("Cafe", "espresso"); err != nil {
		t.Fatal(err)
	}

	// Re-derive under a different machine identity.
	other := &Store{machineID: "another-machine"}
	if err := other.openFile(filepath.Join(dir, common.CredentialsFileName)); !errors.Is(err, common.ErrDecryption) {
		t.Errorf("openFile() error = %v, want ErrDecryption", err)
	}
}

func TestValidation(t *testing.T) {
	s, err := New(Config{Dir: t.TempDir(), FileOnly: true})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Set("", "x"); err == nil {
		t.Error("empty ssid should be rejected")
	}
	if err := s.Set("Home", ""); err == nil {
		t.Error("empty passphrase should be rejected")
	}
	if _, err := s.Get(""); err == nil {
		t.Error("empty ssid should be rejected")
	}
}
