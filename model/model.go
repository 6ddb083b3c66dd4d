package model

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/wireless"
)

const queueSize = 64

// Config holds configuration for a Model.
type Config struct {
	// Workers bounds the number of concurrent remote calls.
	Workers int
	// CallTimeout bounds each quick task.
	CallTimeout time.Duration
	// LongCallTimeout bounds scan, connect and select tasks. Zero means
	// twice CallTimeout.
	LongCallTimeout time.Duration
	Logger          common.Logger
}

// task runs on the worker pool and describes its outcome as a message.
type task struct {
	op  string
	run func(ctx context.Context) message
}

// message is a task outcome handled by the apply loop.
type message struct {
	op    string
	apply func()
	// next is queued after apply, before the task is counted as finished.
	next func()
}

// Model caches wireless state for one process.
type Model struct {
	ctrl   wireless.Controller
	config Config
	log    common.Logger

	enabled   Cell[bool]
	connected Cell[*wireless.WirelessInfo]
	scan      Cell[wireless.ScanResult]
	known     Cell[[]wireless.KnownNetwork]

	tasks   chan task
	results chan message
	changed chan struct{}
	pending sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// New creates a Model. Call Run to start processing.
func New(ctrl wireless.Controller, config Config) *Model {
	if config.Workers <= 0 {
		config.Workers = common.DefaultWorkers
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = common.CallTimeout
	}
	if config.LongCallTimeout <= 0 {
		config.LongCallTimeout = 2 * config.CallTimeout
	}
	log := config.Logger
	if log == nil {
		log = common.NopLogger{}
	}

	return &Model{
		ctrl:    ctrl,
		config:  config,
		log:     log,
		tasks:   make(chan task, queueSize),
		results: make(chan message, queueSize),
		changed: make(chan struct{}, 1),
	}
}

// Run dispatches queued tasks onto the worker pool and applies their
// results until ctx is done. In-flight tasks are cancelled with ctx.
func (m *Model) Run(ctx context.Context) error {
	workers := pool.New().WithMaxGoroutines(m.config.Workers)

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-m.tasks:
				workers.Go(func() { m.execute(ctx, t) })
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.stopped = true
			m.mu.Unlock()

			<-dispatchDone
			workers.Wait()
			m.drain()
			return ctx.Err()
		case msg := <-m.results:
			m.handle(msg)
		}
	}
}

func (m *Model) execute(ctx context.Context, t task) {
	msg := t.run(ctx)
	msg.op = t.op

	select {
	case m.results <- msg:
	case <-ctx.Done():
		m.pending.Done()
	}
}

func (m *Model) handle(msg message) {
	if msg.apply != nil {
		msg.apply()
		m.notify()
	}
	if msg.next != nil {
		msg.next()
	}
	m.pending.Done()
}

// drain settles the bookkeeping for work that will never run.
func (m *Model) drain() {
	for {
		select {
		case <-m.tasks:
			m.pending.Done()
		case <-m.results:
			m.pending.Done()
		default:
			return
		}
	}
}

func (m *Model) notify() {
	select {
	case m.changed <- struct{}{}:
	default:
	}
}

// submit queues a task without blocking. When the queue is full the task
// is dropped; the next refresh covers it. Tasks issued after Run has
// returned are dropped as well.
func (m *Model) submit(op string, run func(ctx context.Context) message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		m.log.Debug("Model stopped, dropping %s", op)
		return
	}

	m.pending.Add(1)
	select {
	case m.tasks <- task{op: op, run: run}:
	default:
		m.log.Warn("Task queue full, dropping %s", op)
		m.pending.Done()
	}
}

func (m *Model) callContext(ctx context.Context, long bool) (context.Context, context.CancelFunc) {
	timeout := m.config.CallTimeout
	if long {
		timeout = m.config.LongCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Changed fires after one or more cells were written. Signals coalesce.
func (m *Model) Changed() <-chan struct{} {
	return m.changed
}

// Wait blocks until every task issued so far, and the follow-ups they
// queue, has been applied or dropped.
func (m *Model) Wait() {
	m.pending.Wait()
}

// Hash summarises the cell revisions; it moves whenever any cell is written.
func (m *Model) Hash() uint64 {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:], m.enabled.Revision())
	binary.LittleEndian.PutUint64(buf[8:], m.connected.Revision())
	binary.LittleEndian.PutUint64(buf[16:], m.scan.Revision())
	binary.LittleEndian.PutUint64(buf[24:], m.known.Revision())
	return xxhash.Sum64(buf[:])
}

// Enabled returns the cached radio state.
func (m *Model) Enabled() bool {
	return m.enabled.Get()
}

// Connected returns a copy of the cached connected network, or nil.
func (m *Model) Connected() *wireless.WirelessInfo {
	info := m.connected.Get()
	if info == nil {
		return nil
	}
	c := *info
	return &c
}

// ScanResult returns a copy of the cached scan.
func (m *Model) ScanResult() wireless.ScanResult {
	return append(wireless.ScanResult(nil), m.scan.Get()...)
}

// KnownNetworks returns a copy of the cached saved networks.
func (m *Model) KnownNetworks() []wireless.KnownNetwork {
	return append([]wireless.KnownNetwork(nil), m.known.Get()...)
}

// Snapshot returns the reconciled connection state.
func (m *Model) Snapshot() wireless.ConnectionState {
	state := wireless.ConnectionState{
		IsEnabled:        m.Enabled(),
		ConnectedNetwork: m.Connected(),
	}
	if state.ConnectedNetwork != nil {
		state.SignalStrength = state.ConnectedNetwork.Signal
	}
	return state
}

// Update refreshes the radio state, the connected network and the saved
// networks. Each field keeps its previous value if its query fails.
func (m *Model) Update() {
	m.submit("update", m.update)
}

func (m *Model) update(ctx context.Context) message {
	ctx, cancel := m.callContext(ctx, false)
	defer cancel()

	enabled, err := m.ctrl.Status(ctx)
	if err != nil {
		m.log.Warn("Update: status failed: %v", err)
		return message{}
	}

	var (
		info          wireless.WirelessInfo
		infoErr       error
		knownNetworks []wireless.KnownNetwork
	)
	if enabled {
		info, infoErr = m.ctrl.Info(ctx)
		if infoErr != nil && !errors.Is(infoErr, common.ErrNotConnected) {
			m.log.Warn("Update: info failed: %v", infoErr)
		}
	}
	knownNetworks, knownErr := m.ctrl.KnownNetworks(ctx)
	if knownErr != nil {
		m.log.Warn("Update: known networks failed: %v", knownErr)
	}

	return message{apply: func() {
		m.enabled.Set(enabled)
		switch {
		case !enabled, errors.Is(infoErr, common.ErrNotConnected):
			m.connected.Set(nil)
		case infoErr == nil:
			m.connected.Set(&info)
		}
		if knownErr == nil {
			m.known.Set(knownNetworks)
		}
	}}
}

// Scan refreshes the scan result.
func (m *Model) Scan() {
	m.submit("scan", func(ctx context.Context) message {
		ctx, cancel := m.callContext(ctx, true)
		defer cancel()

		result, err := m.ctrl.Scan(ctx)
		if err != nil {
			m.log.Warn("Scan failed: %v", err)
			return message{}
		}
		return message{apply: func() { m.scan.Set(result) }}
	})
}

// ToggleWireless flips the radio based on the cached state, then refreshes.
func (m *Model) ToggleWireless() {
	enable := !m.enabled.Get()
	m.submit("toggle", func(ctx context.Context) message {
		ctx, cancel := m.callContext(ctx, false)
		defer cancel()

		var err error
		if enable {
			_, err = m.ctrl.Enable(ctx)
		} else {
			_, err = m.ctrl.Disable(ctx)
		}
		if err != nil {
			m.log.Warn("Toggle wireless failed: %v", err)
		}
		return message{next: m.Update}
	})
}

// Connect associates with ssid, then refreshes.
func (m *Model) Connect(ssid, password string) {
	m.submit("connect", func(ctx context.Context) message {
		ctx, cancel := m.callContext(ctx, true)
		defer cancel()

		if err := m.ctrl.Connect(ctx, ssid, password); err != nil {
			m.log.Warn("Connect to %s failed: %v", ssid, err)
		}
		return message{next: m.Update}
	})
}

// SelectNetwork activates the saved network named ssid. It does nothing
// when ssid is not in the cached saved networks.
func (m *Model) SelectNetwork(ssid string) {
	id, ok := m.resolve(ssid)
	if !ok {
		return
	}
	m.submit("select_network", func(ctx context.Context) message {
		ctx, cancel := m.callContext(ctx, true)
		defer cancel()

		if err := m.ctrl.SelectNetwork(ctx, id); err != nil {
			m.log.Warn("Select %s failed: %v", ssid, err)
		}
		return message{next: m.Update}
	})
}

// ForgetSavedNetwork removes the saved network named ssid. It does nothing
// when ssid is not in the cached saved networks.
func (m *Model) ForgetSavedNetwork(ssid string) {
	id, ok := m.resolve(ssid)
	if !ok {
		return
	}
	m.submit("forget", func(ctx context.Context) message {
		ctx, cancel := m.callContext(ctx, false)
		defer cancel()

		if err := m.ctrl.Disconnect(ctx, id); err != nil {
			m.log.Warn("Forget %s failed: %v", ssid, err)
		}
		return message{next: m.Update}
	})
}

// resolve maps ssid to its network id using the cached saved networks.
func (m *Model) resolve(ssid string) (string, bool) {
	for _, k := range m.known.Get() {
		if k.SSID == ssid {
			return k.NetworkID, true
		}
	}
	return "", false
}
