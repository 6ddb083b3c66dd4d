// Package common provides shared constants, types, and utilities
// used across the Wireless Manager application.
package common

import "errors"

// Sentinel errors for wireless operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Control errors.
	ErrTransport        = errors.New("network service unreachable")
	ErrNotConnected     = errors.New("no active association")
	ErrConnectionFailed = errors.New("connection failed")
	ErrInvalidNetworkID = errors.New("invalid network id")
	ErrRemoteFault      = errors.New("remote fault")
	ErrTimeout          = errors.New("operation timed out")

	// Device errors.
	ErrNoWirelessDevice = errors.New("no wireless device found")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")
	ErrEncryption          = errors.New("encryption error")
	ErrDecryption          = errors.New("decryption error")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
