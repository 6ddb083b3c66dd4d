package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/wireless"
)

// EmitFunc publishes one notification. Service.Emit is the production one.
type EmitFunc func(wireless.NotificationEvent) error

// NotifierConfig holds configuration for the notification loop.
type NotifierConfig struct {
	// PollInterval is how often wireless state is re-queried.
	PollInterval time.Duration
	// CallTimeout bounds each status and info query.
	CallTimeout time.Duration
}

// DefaultNotifierConfig returns the daemon defaults.
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		PollInterval: common.PollInterval,
		CallTimeout:  common.CallTimeout,
	}
}

// Notifier polls a controller and emits a NotificationEvent whenever the
// observed (enabled, connected, signal) triple differs from the last one
// emitted. Query failures are absorbed; the loop only ends with its context.
type Notifier struct {
	mu        sync.RWMutex
	config    NotifierConfig
	ctrl      wireless.Controller
	emit      EmitFunc
	log       common.Logger
	prev      wireless.NotificationEvent
	hasPrev   bool
	observers []func(wireless.NotificationEvent)
}

// NewNotifier creates a notifier that publishes through emit.
func NewNotifier(ctrl wireless.Controller, emit EmitFunc, config NotifierConfig, log common.Logger) *Notifier {
	def := DefaultNotifierConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = def.CallTimeout
	}
	if log == nil {
		log = common.NopLogger{}
	}

	return &Notifier{
		config: config,
		ctrl:   ctrl,
		emit:   emit,
		log:    log,
	}
}

// AddObserver registers fn to receive every emitted event, after it has
// been published.
func (n *Notifier) AddObserver(fn func(wireless.NotificationEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, fn)
}

// Current returns the last emitted event. ok is false before the first emit.
func (n *Notifier) Current() (event wireless.NotificationEvent, ok bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.prev, n.hasPrev
}

// Run polls immediately and then every PollInterval until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	n.log.Info("Notifier started (interval: %v)", n.config.PollInterval)

	ticker := time.NewTicker(n.config.PollInterval)
	defer ticker.Stop()

	for {
		n.poll(ctx)

		select {
		case <-ctx.Done():
			n.log.Info("Notifier stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll runs one cycle. It reports whether an event was emitted.
func (n *Notifier) poll(ctx context.Context) bool {
	event := n.observe(ctx)

	n.mu.RLock()
	unchanged := n.hasPrev && n.prev == event
	n.mu.RUnlock()
	if unchanged {
		return false
	}

	if err := n.emit(event); err != nil {
		n.log.Warn("Failed to emit notification: %v", err)
		return false
	}

	n.mu.Lock()
	n.prev = event
	n.hasPrev = true
	observers := append([]func(wireless.NotificationEvent){}, n.observers...)
	n.mu.Unlock()

	n.log.Debug("Notification: enabled=%t connected=%t signal=%q",
		event.IsEnabled, event.IsConnected, event.SignalStrength)

	for _, fn := range observers {
		fn(event)
	}
	return true
}

// observe queries the controller and builds the current event.
func (n *Notifier) observe(ctx context.Context) wireless.NotificationEvent {
	callCtx, cancel := context.WithTimeout(ctx, n.config.CallTimeout)
	defer cancel()

	enabled, err := n.ctrl.Status(callCtx)
	if err != nil {
		n.log.Warn("Status query failed: %v", err)
		return wireless.NotificationEvent{}
	}
	if !enabled {
		return wireless.NotificationEvent{}
	}

	event := wireless.NotificationEvent{IsEnabled: true}
	info, err := n.ctrl.Info(callCtx)
	if err != nil {
		if !errors.Is(err, common.ErrNotConnected) {
			n.log.Warn("Info query failed: %v", err)
		}
		return event
	}

	event.IsConnected = true
	event.SignalStrength = info.Signal
	return event
}
