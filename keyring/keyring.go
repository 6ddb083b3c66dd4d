// Package keyring provides secure storage for network passphrases.
// It uses the system keyring when available, falling back to
// encrypted local file storage when not.
package keyring

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/yllada/wifi-manager/common"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = "wifi-manager"

	saltSize = 16
)

// Config holds the parameters for New.
type Config struct {
	// Dir holds the fallback credentials file. Empty means the config directory.
	Dir string
	// FileOnly skips the system keyring.
	FileOnly bool
	Logger   common.Logger
}

// Store keeps one passphrase per SSID.
type Store struct {
	mu        sync.RWMutex
	useFile   bool
	path      string
	key       []byte
	salt      []byte
	secrets   map[string]string
	log       common.Logger
	machineID string
}

// New opens the store, probing the system keyring unless FileOnly is set.
func New(config Config) (*Store, error) {
	log := config.Logger
	if log == nil {
		log = common.NopLogger{}
	}

	s := &Store{log: log, machineID: machineID()}

	if !config.FileOnly {
		// Try system keyring first
		testKey := serviceName + "-probe"
		if err := keyring.Set(serviceName, testKey, "probe"); err == nil {
			_ = keyring.Delete(serviceName, testKey)
			return s, nil
		}
		log.Info("System keyring unavailable, using encrypted file")
	}

	dir := config.Dir
	if dir == "" {
		d, err := common.GetConfigDir()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
		}
		dir = d
	}
	if err := s.openFile(filepath.Join(dir, common.CredentialsFileName)); err != nil {
		return nil, err
	}
	return s, nil
}

// UsesFile reports whether the encrypted file backend is active.
func (s *Store) UsesFile() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.useFile
}

func machineID() string {
	for _, p := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(p); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return "default-machine-id"
}

// fileFormat is the on-disk layout of the fallback store.
type fileFormat struct {
	Salt string `json:"salt"`
	Data string `json:"data"`
}

func (s *Store) openFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	s.useFile = true
	s.path = path
	s.secrets = make(map[string]string)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.salt = make([]byte, saltSize)
		if _, err := rand.Read(s.salt); err != nil {
			return fmt.Errorf("%w: %v", common.ErrEncryption, err)
		}
		s.key = s.deriveKey(s.salt)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	var f fileFormat
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	s.salt, err = base64.StdEncoding.DecodeString(f.Salt)
	if err != nil || len(s.salt) != saltSize {
		return fmt.Errorf("%w: bad salt", common.ErrDecryption)
	}
	s.key = s.deriveKey(s.salt)

	plaintext, err := s.decrypt(f.Data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, &s.secrets); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return nil
}

// deriveKey binds the file to this machine and user.
func (s *Store) deriveKey(salt []byte) []byte {
	hostname, _ := os.Hostname()
	material := fmt.Sprintf("%s-%s-%s-%d", serviceName, hostname, s.machineID, os.Getuid())
	return argon2.IDKey([]byte(material), salt, 1, 64*1024, 4, chacha20poly1305.KeySize)
}

func (s *Store) encrypt(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Store) decrypt(data string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrDecryption)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}

// save writes the file store. Callers hold s.mu.
func (s *Store) save() error {
	plaintext, err := json.Marshal(s.secrets)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	data, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(fileFormat{
		Salt: base64.StdEncoding.EncodeToString(s.salt),
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return nil
}

// Set saves the passphrase for ssid.
func (s *Store) Set(ssid, passphrase string) error {
	if ssid == "" {
		return errors.New("ssid cannot be empty")
	}
	if passphrase == "" {
		return errors.New("passphrase cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.useFile {
		s.secrets[ssid] = passphrase
		return s.save()
	}

	if err := keyring.Set(serviceName, ssid, passphrase); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return nil
}

// Get returns the passphrase for ssid, or ErrCredentialsNotFound.
func (s *Store) Get(ssid string) (string, error) {
	if ssid == "" {
		return "", errors.New("ssid cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.useFile {
		passphrase, ok := s.secrets[ssid]
		if !ok {
			return "", common.ErrCredentialsNotFound
		}
		return passphrase, nil
	}

	passphrase, err := keyring.Get(serviceName, ssid)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", common.ErrCredentialsNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return passphrase, nil
}

// Delete removes the passphrase for ssid. Deleting a missing entry is not an error.
func (s *Store) Delete(ssid string) error {
	if ssid == "" {
		return errors.New("ssid cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.useFile {
		if _, ok := s.secrets[ssid]; !ok {
			return nil
		}
		delete(s.secrets, ssid)
		return s.save()
	}

	if err := keyring.Delete(serviceName, ssid); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return nil
}

// Exists reports whether a passphrase is stored for ssid.
func (s *Store) Exists(ssid string) bool {
	_, err := s.Get(ssid)
	return err == nil
}
