// Package main provides the entry point for Wireless Manager.
// Wireless Manager controls a Linux machine's Wi-Fi through NetworkManager
// and shares that control with other processes over the bus.
//
// Features:
//   - A daemon exporting the wireless interface and change notifications
//   - One-shot commands for scripting and automation
//   - A terminal dashboard and a system tray indicator
//   - Passphrase storage in the system keyring
//
// Usage:
//
//	wifi-manager [command] [flags]
//
// Environment:
//
//	The application requires NetworkManager to be running.
package main

import (
	"os"

	"github.com/yllada/wifi-manager/cli"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	os.Exit(cli.Execute(cli.BuildInfo{
		Version: appVersion,
		Time:    buildTime,
		Commit:  commitSHA,
	}))
}
