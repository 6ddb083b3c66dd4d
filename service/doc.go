// Package service exports the wireless operations on the bus so that other
// processes can share one daemon, and runs the notification loop that
// announces state changes to them.
//
// Service is the daemon side: it owns the well-known name, answers method
// calls by delegating to a wireless.Controller, and reports failures as
// typed D-Bus errors. Notifier polls the controller on a fixed interval and
// emits the Notification signal only when the observed state changes.
// Proxy is the caller side: a wireless.Controller backed by method calls to
// a running Service.
package service
