// Package tray provides the system tray indicator for Wireless Manager.
// It renders the reactive model's state as an icon and a small menu, and
// turns daemon notifications into desktop notifications.
package tray

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/systray"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/model"
	"github.com/yllada/wifi-manager/wireless"
)

// maxNetworkItems is the number of saved-network slots in the menu.
// systray items cannot be removed, so a fixed pool is shown and hidden.
const maxNetworkItems = 8

// Indicator manages the system tray icon and menu.
type Indicator struct {
	model    *model.Model
	notifier common.Notifier
	events   <-chan wireless.NotificationEvent
	log      common.Logger

	mu          sync.Mutex
	icons       iconCache
	statusItem  *systray.MenuItem
	signalItem  *systray.MenuItem
	toggleItem  *systray.MenuItem
	networkSlot []*systray.MenuItem
	slotSSID    []string
	lastEvent   *wireless.NotificationEvent
}

// Config holds the collaborators of an Indicator.
type Config struct {
	Model *model.Model
	// Notifier is optional; nil disables desktop notifications.
	Notifier common.Notifier
	// Events is optional; each event triggers a model refresh.
	Events <-chan wireless.NotificationEvent
	Logger common.Logger
}

// New creates a tray indicator.
func New(config Config) *Indicator {
	log := config.Logger
	if log == nil {
		log = common.NopLogger{}
	}
	return &Indicator{
		model:    config.Model,
		notifier: config.Notifier,
		events:   config.Events,
		log:      log,
		icons:    make(iconCache),
		slotSSID: make([]string, maxNetworkItems),
	}
}

// Run shows the indicator and blocks until ctx is done or Quit is chosen.
// It must be called from the main goroutine.
func (t *Indicator) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	systray.Run(func() { t.onReady(ctx, cancel) }, t.onExit)
}

func (t *Indicator) onReady(ctx context.Context, cancel context.CancelFunc) {
	systray.SetTitle(common.AppName)

	t.statusItem = systray.AddMenuItem("○  Not Connected", "Current wireless status")
	t.statusItem.Disable()
	t.signalItem = systray.AddMenuItem("", "Signal strength")
	t.signalItem.Disable()
	t.signalItem.Hide()

	systray.AddSeparator()

	t.toggleItem = systray.AddMenuItem("Turn Wireless Off", "Enable or disable the radio")
	scanItem := systray.AddMenuItem("Scan", "Look for networks")

	systray.AddSeparator()

	header := systray.AddMenuItem("── Saved Networks ──", "")
	header.Disable()
	for i := 0; i < maxNetworkItems; i++ {
		item := systray.AddMenuItem("", "Connect to this network")
		item.Hide()
		t.networkSlot = append(t.networkSlot, item)
		go t.watchSlot(ctx, i, item)
	}

	systray.AddSeparator()
	quitItem := systray.AddMenuItem("Quit", "Close the indicator")

	go func() {
		for {
			select {
			case <-ctx.Done():
				systray.Quit()
				return
			case <-t.toggleItem.ClickedCh:
				t.model.ToggleWireless()
			case <-scanItem.ClickedCh:
				t.model.Scan()
			case <-quitItem.ClickedCh:
				cancel()
			case <-t.model.Changed():
				t.refresh()
			case event, ok := <-t.events:
				if !ok {
					t.events = nil
					continue
				}
				t.handleEvent(event)
			}
		}
	}()

	t.refresh()
	t.model.Update()
}

func (t *Indicator) watchSlot(ctx context.Context, i int, item *systray.MenuItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-item.ClickedCh:
			t.mu.Lock()
			ssid := t.slotSSID[i]
			t.mu.Unlock()
			if ssid != "" {
				t.model.SelectNetwork(ssid)
			}
		}
	}
}

func (t *Indicator) onExit() {
	common.LogInfo("Tray indicator cleanup completed")
}

// handleEvent refreshes the model and, on a real transition, notifies.
func (t *Indicator) handleEvent(event wireless.NotificationEvent) {
	t.model.Update()

	t.mu.Lock()
	prev := t.lastEvent
	t.lastEvent = &event
	t.mu.Unlock()

	if prev == nil || t.notifier == nil {
		return
	}
	if tr, ok := TransitionFor(*prev, event); ok {
		if err := t.notifier.NotifyWithIcon(tr.Title, tr.Message, tr.Icon); err != nil {
			t.log.Warn("%v", err)
		}
	}
}

// refresh re-renders the icon and menu from the model.
func (t *Indicator) refresh() {
	state := t.model.Snapshot()
	saved, _ := t.model.Partition()
	view := Describe(state)

	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetIcon(t.icons.get(view.Icon))
	systray.SetTooltip(view.Tooltip)
	t.statusItem.SetTitle(view.Status)
	if view.Signal != "" {
		t.signalItem.SetTitle(view.Signal)
		t.signalItem.Show()
	} else {
		t.signalItem.Hide()
	}
	if state.IsEnabled {
		t.toggleItem.SetTitle("Turn Wireless Off")
	} else {
		t.toggleItem.SetTitle("Turn Wireless On")
	}

	for i, item := range t.networkSlot {
		if i < len(saved) {
			t.slotSSID[i] = saved[i].SSID
			item.SetTitle(saved[i].SSID)
			item.Show()
		} else {
			t.slotSSID[i] = ""
			item.Hide()
		}
	}
}

// View is the rendered tray state.
type View struct {
	Icon    IconConfig
	Tooltip string
	Status  string
	Signal  string
}

// Describe renders a connection state.
func Describe(state wireless.ConnectionState) View {
	switch {
	case !state.IsEnabled:
		return View{
			Icon:    IconConfigFor(false, false, wireless.SignalUnknown),
			Tooltip: common.AppName + " - Wireless off",
			Status:  "○  Wireless Off",
		}
	case state.ConnectedNetwork == nil:
		return View{
			Icon:    IconConfigFor(true, false, wireless.SignalUnknown),
			Tooltip: common.AppName + " - Not connected",
			Status:  "○  Not Connected",
		}
	}

	level := wireless.Classify(state.SignalStrength)
	name := state.ConnectedNetwork.Name
	return View{
		Icon:    IconConfigFor(true, true, level),
		Tooltip: fmt.Sprintf("%s - Connected to %s", common.AppName, name),
		Status:  fmt.Sprintf("●  Connected: %s", name),
		Signal:  fmt.Sprintf("    Signal: %s dBm (%s)", state.SignalStrength, level),
	}
}
