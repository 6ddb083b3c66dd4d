package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yllada/wifi-manager/common"
	"github.com/yllada/wifi-manager/wireless"
)

// Store is the model surface the dashboard drives. *model.Model implements it.
type Store interface {
	Snapshot() wireless.ConnectionState
	Partition() (saved []wireless.KnownNetwork, unsaved []wireless.WirelessInfo)
	Changed() <-chan struct{}
	Update()
	Scan()
	ToggleWireless()
	Connect(ssid, password string)
	SelectNetwork(ssid string)
	ForgetSavedNetwork(ssid string)
}

// Secrets looks up stored passphrases. It may be nil.
type Secrets interface {
	Get(ssid string) (string, error)
}

const (
	passwordMaxLength = 63
	refreshInterval   = common.PollInterval
)

type section int

const (
	sectionSaved section = iota
	sectionAvailable
)

type mode int

const (
	modeBrowse mode = iota
	modePassword
)

type changedMsg struct{}

type tickMsg time.Time

// App is the bubbletea model.
type App struct {
	store   Store
	secrets Secrets
	keys    keyMap
	help    help.Model
	input   textinput.Model

	mode    mode
	section section
	cursor  int
	target  string
	status  string
	width   int
}

// New creates the dashboard.
func New(store Store, secrets Secrets) App {
	input := textinput.New()
	input.Placeholder = "passphrase"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = passwordMaxLength

	return App{
		store:   store,
		secrets: secrets,
		keys:    defaultKeys,
		help:    help.New(),
		input:   input,
	}
}

// Run starts the dashboard and blocks until it exits or ctx is done.
func Run(ctx context.Context, store Store, secrets Secrets) error {
	p := tea.NewProgram(New(store, secrets), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func waitForChange(store Store) tea.Cmd {
	return func() tea.Msg {
		<-store.Changed()
		return changedMsg{}
	}
}

func refreshTicker() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Init() tea.Cmd {
	a.store.Update()
	a.store.Scan()
	return tea.Batch(waitForChange(a.store), refreshTicker())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.help.Width = msg.Width
		return a, nil

	case changedMsg:
		a.clampCursor()
		return a, waitForChange(a.store)

	case tickMsg:
		a.store.Update()
		return a, refreshTicker()

	case tea.KeyMsg:
		if a.mode == modePassword {
			return a.updatePassword(msg)
		}
		return a.updateBrowse(msg)
	}
	return a, nil
}

func (a App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < a.sectionLen()-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Switch):
		if a.section == sectionSaved {
			a.section = sectionAvailable
		} else {
			a.section = sectionSaved
		}
		a.cursor = 0
	case key.Matches(msg, a.keys.Refresh):
		a.store.Update()
		a.status = "Refreshing..."
	case key.Matches(msg, a.keys.Scan):
		a.store.Scan()
		a.status = "Scanning..."
	case key.Matches(msg, a.keys.Toggle):
		a.store.ToggleWireless()
		a.status = "Toggling radio..."
	case key.Matches(msg, a.keys.Forget):
		if k, ok := a.selectedSaved(); ok {
			a.store.ForgetSavedNetwork(k.SSID)
			a.status = fmt.Sprintf("Forgetting %s...", k.SSID)
		}
	case key.Matches(msg, a.keys.Connect):
		if w, ok := a.selectedAvailable(); ok {
			return a.promptPassword(w.Name)
		}
	case key.Matches(msg, a.keys.Select):
		return a.activate()
	}
	return a, nil
}

// activate handles enter on the selected row.
func (a App) activate() (tea.Model, tea.Cmd) {
	if k, ok := a.selectedSaved(); ok {
		a.store.SelectNetwork(k.SSID)
		a.status = fmt.Sprintf("Connecting to %s...", k.SSID)
		return a, nil
	}

	w, ok := a.selectedAvailable()
	if !ok {
		return a, nil
	}
	if isOpen(w.Flags) {
		a.store.Connect(w.Name, "")
		a.status = fmt.Sprintf("Connecting to %s...", w.Name)
		return a, nil
	}
	if a.secrets != nil {
		if pass, err := a.secrets.Get(w.Name); err == nil {
			a.store.Connect(w.Name, pass)
			a.status = fmt.Sprintf("Connecting to %s...", w.Name)
			return a, nil
		}
	}
	return a.promptPassword(w.Name)
}

func (a App) promptPassword(ssid string) (tea.Model, tea.Cmd) {
	a.mode = modePassword
	a.target = ssid
	a.input.Reset()
	return a, a.input.Focus()
}

func (a App) updatePassword(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return a, tea.Quit
	case key.Matches(msg, a.keys.Back):
		a.mode = modeBrowse
		a.input.Blur()
		a.status = ""
		return a, nil
	case msg.Type == tea.KeyEnter:
		a.store.Connect(a.target, a.input.Value())
		a.status = fmt.Sprintf("Connecting to %s...", a.target)
		a.mode = modeBrowse
		a.input.Blur()
		a.input.Reset()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// isOpen reports whether flags describe a network without security.
func isOpen(flags string) bool {
	return !strings.Contains(flags, "WPA") && !strings.Contains(flags, "WEP")
}

func (a App) sectionLen() int {
	saved, unsaved := a.store.Partition()
	if a.section == sectionSaved {
		return len(saved)
	}
	return len(unsaved)
}

func (a *App) clampCursor() {
	if n := a.sectionLen(); a.cursor >= n {
		a.cursor = max(n-1, 0)
	}
}

func (a App) selectedSaved() (wireless.KnownNetwork, bool) {
	if a.section != sectionSaved {
		return wireless.KnownNetwork{}, false
	}
	saved, _ := a.store.Partition()
	if a.cursor < 0 || a.cursor >= len(saved) {
		return wireless.KnownNetwork{}, false
	}
	return saved[a.cursor], true
}

func (a App) selectedAvailable() (wireless.WirelessInfo, bool) {
	if a.section != sectionAvailable {
		return wireless.WirelessInfo{}, false
	}
	_, unsaved := a.store.Partition()
	if a.cursor < 0 || a.cursor >= len(unsaved) {
		return wireless.WirelessInfo{}, false
	}
	return unsaved[a.cursor], true
}

func (a App) View() string {
	var b strings.Builder
	state := a.store.Snapshot()
	saved, unsaved := a.store.Partition()

	b.WriteString(titleStyle.Render(common.AppName))
	b.WriteString("\n")
	b.WriteString(renderState(state))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Saved Networks"))
	b.WriteString("\n")
	if len(saved) == 0 {
		b.WriteString(itemStyle.Render(faintStyle.Render("none")))
		b.WriteString("\n")
	}
	for i, k := range saved {
		line := k.SSID
		if strings.Contains(k.Flags, wireless.FlagDisabled) {
			line += faintStyle.Render("  (manual)")
		}
		b.WriteString(a.renderRow(sectionSaved, i, line))
	}

	b.WriteString(sectionStyle.Render("Available Networks"))
	b.WriteString("\n")
	if len(unsaved) == 0 {
		b.WriteString(itemStyle.Render(faintStyle.Render("none, press s to scan")))
		b.WriteString("\n")
	}
	for i, w := range unsaved {
		level := wireless.Classify(w.Signal)
		line := fmt.Sprintf("%-32s %s  %s", w.Name,
			signalStyle(level).Render(fmt.Sprintf("%4s dBm", w.Signal)),
			faintStyle.Render(w.Flags))
		b.WriteString(a.renderRow(sectionAvailable, i, line))
	}

	if a.mode == modePassword {
		prompt := fmt.Sprintf("Passphrase for %s\n%s", a.target, a.input.View())
		b.WriteString(promptBoxStyle.Render(prompt))
		b.WriteString("\n")
	}

	if a.status != "" {
		b.WriteString(statusStyle.Render(a.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys))

	return appStyle.Render(b.String())
}

func (a App) renderRow(s section, i int, line string) string {
	if a.section == s && a.cursor == i {
		return selectedItemStyle.Render("▸ "+line) + "\n"
	}
	return itemStyle.Render(line) + "\n"
}

func renderState(state wireless.ConnectionState) string {
	if !state.IsEnabled {
		return disabledStyle.Render("● Wireless off")
	}
	if state.ConnectedNetwork == nil {
		return enabledStyle.Render("● Wireless on") + faintStyle.Render("  not connected")
	}

	info := state.ConnectedNetwork
	level := wireless.Classify(state.SignalStrength)
	return enabledStyle.Render("● Connected to "+info.Name) + "  " +
		signalStyle(level).Render(fmt.Sprintf("%s dBm (%s)", state.SignalStrength, level)) + "  " +
		faintStyle.Render(fmt.Sprintf("%s MHz  %s", info.Frequency, info.Mac))
}
