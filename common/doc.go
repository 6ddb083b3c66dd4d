// Package common provides shared constants, types, utilities, and interfaces
// used throughout the Wireless Manager application.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: bus names, timeouts, poll intervals and file names
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Interfaces: Abstractions for logging and desktop notifications
//   - Logger: Leveled logging with a rotated file destination
//   - Utils: Config and data directory helpers
//
// # Usage
//
//	// Use constants
//	interval := common.PollInterval
//
//	// Use logger
//	common.LogInfo("Connecting to %s", ssid)
//
//	// Check errors
//	if errors.Is(err, common.ErrNotConnected) {
//	    // Show "Not connected" instead of an error
//	}
package common
