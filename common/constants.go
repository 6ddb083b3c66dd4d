// Package common provides shared constants, types, and utilities
// used across the Wireless Manager application.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "com.wifimanager.app"
	// AppName is the display name of the application.
	AppName = "Wireless Manager"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "wifi-manager"
)

// File names used by the application.
const (
	ConfigFileName      = "config.yaml"
	CredentialsFileName = ".credentials"
	HistoryFileName     = "history.db"
	LogFileName         = "wifi-manager.log"
)

// Bus names for the exported wireless service.
const (
	// ServiceName is the well-known bus name requested by the daemon.
	ServiceName = "com.wifimanager.Wireless"
	// ServicePath is the object path the wireless interface is exported on.
	ServicePath = "/com/wifimanager/Wireless"
	// ServiceInterface is the interface name of the exported methods and signal.
	ServiceInterface = "com.wifimanager.Wireless"
)

// Default timeouts and intervals.
const (
	// ConnectionTimeout is the maximum time to wait for an association.
	ConnectionTimeout = 30 * time.Second
	// PollInterval is how often the notifier re-queries wireless state.
	PollInterval = 15 * time.Second
	// CallTimeout bounds a single bus round trip.
	CallTimeout = 10 * time.Second
	// ScanSettle is how long to let the radio collect beacons after a scan request.
	ScanSettle = 3 * time.Second
	// ActivationPollInterval is how often a pending activation is re-checked.
	ActivationPollInterval = 500 * time.Millisecond
)

// DefaultWorkers is the size of the reactive model's worker pool.
const DefaultWorkers = 4
