package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/theriverman/megaboom/internal/config"
	"github.com/theriverman/megaboom/internal/scan"
)

type state int

const (
	stateScanning state = iota
	stateList
	stateWorking
)

type scanDoneMsg struct {
	records []scan.DeviceRecord
	err     error
}

type powerDoneMsg struct {
	id  string
	on  bool
	err error
}

type rememberDoneMsg struct {
	label string
	err   error
}

// Model is the bubbletea model for the scan picker.
type Model struct {
	deps    Deps
	state   state
	spinner spinner.Model
	keys    KeyMap
	help    help.Model
	styles  Styles

	records   []scan.DeviceRecord
	cursor    int
	statusMsg string
	errorMsg  string
}

// NewModel creates the picker model.
func NewModel(deps Deps) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		deps:    deps,
		state:   stateScanning,
		spinner: sp,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		styles:  DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.scanCmd())
}

func (m Model) scanCmd() tea.Cmd {
	return func() tea.Msg {
		records, err := m.deps.Scanner.Scan(m.deps.Timeout, "")
		return scanDoneMsg{records: records, err: err}
	}
}

func (m Model) powerCmd(rec scan.DeviceRecord, on bool) tea.Cmd {
	return func() tea.Msg {
		mac, err := m.deps.LocalMAC()
		if err != nil {
			return powerDoneMsg{id: rec.ID, on: on, err: err}
		}
		err = m.deps.Actuator.SetPower(rec.ID, on, mac, m.deps.Timeout)
		return powerDoneMsg{id: rec.ID, on: on, err: err}
	}
}

func (m Model) rememberCmd(rec scan.DeviceRecord) tea.Cmd {
	return func() tea.Msg {
		label := rec.Name
		if !rec.Named() {
			label = rec.ID
		}
		cfg, err := config.Load(m.deps.ConfigPath)
		if err != nil {
			return rememberDoneMsg{label: label, err: err}
		}
		cfg.Remember(label, rec.ID, "", true)
		if err := config.Save(m.deps.ConfigPath, cfg); err != nil {
			return rememberDoneMsg{label: label, err: err}
		}
		return rememberDoneMsg{label: label}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state == stateScanning || m.state == stateWorking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case scanDoneMsg:
		m.state = stateList
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.errorMsg = ""
		m.records = msg.records
		if m.cursor >= len(m.records) {
			m.cursor = 0
		}
		m.statusMsg = fmt.Sprintf("%d advertisers found", len(m.records))
		return m, nil

	case powerDoneMsg:
		m.state = stateList
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.errorMsg = ""
		action := "off"
		if msg.on {
			action = "on"
		}
		m.statusMsg = fmt.Sprintf("Sent power %s to %s", action, msg.id)
		return m, nil

	case rememberDoneMsg:
		m.state = stateList
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.errorMsg = ""
		m.statusMsg = fmt.Sprintf("Saved %q as default device", msg.label)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.state != stateList {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Rescan):
		m.state = stateScanning
		m.statusMsg = ""
		m.errorMsg = ""
		return m, tea.Batch(m.spinner.Tick, m.scanCmd())
	case key.Matches(msg, m.keys.Remember):
		if rec, ok := m.selected(); ok {
			m.state = stateWorking
			m.statusMsg = "Saving..."
			return m, tea.Batch(m.spinner.Tick, m.rememberCmd(rec))
		}
	case key.Matches(msg, m.keys.PowerOn):
		if rec, ok := m.selected(); ok {
			m.state = stateWorking
			m.statusMsg = "Sending power on..."
			return m, tea.Batch(m.spinner.Tick, m.powerCmd(rec, true))
		}
	case key.Matches(msg, m.keys.PowerOff):
		if rec, ok := m.selected(); ok {
			m.state = stateWorking
			m.statusMsg = "Sending power off..."
			return m, tea.Batch(m.spinner.Tick, m.powerCmd(rec, false))
		}
	}
	return m, nil
}

func (m Model) selected() (scan.DeviceRecord, bool) {
	if m.cursor < 0 || m.cursor >= len(m.records) {
		return scan.DeviceRecord{}, false
	}
	return m.records[m.cursor], true
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.styles.Title.Render("megaboom — BLE speakers") + "\n"

	switch m.state {
	case stateScanning:
		s += fmt.Sprintf("%s Scanning for advertisers (%s)...\n", m.spinner.View(), m.deps.Timeout)
	case stateWorking:
		s += fmt.Sprintf("%s %s\n", m.spinner.View(), m.statusMsg)
	case stateList:
		if len(m.records) == 0 {
			s += "No advertisers found. Press r to rescan.\n"
		}
		for i, r := range m.records {
			line := fmt.Sprintf("%s  rssi=%d", r.Name, r.RSSI)
			if i == m.cursor {
				s += m.styles.ItemSelected.Render("> "+line) + "\n"
			} else {
				s += m.styles.Item.Render("  "+line) + "\n"
			}
			if i == m.cursor {
				detail := "id=" + r.ID
				if len(r.ManufacturerIDs) > 0 {
					detail += fmt.Sprintf("  mfg_ids=%v", r.ManufacturerIDs)
				}
				s += m.styles.ItemDetail.Render(detail) + "\n"
			}
		}
		if m.errorMsg != "" {
			s += m.styles.Error.Render(m.errorMsg) + "\n"
		} else if m.statusMsg != "" {
			s += m.styles.Status.Render(m.statusMsg) + "\n"
		}
	}

	s += m.styles.Help.Render(m.help.View(m.keys))
	return m.styles.App.Render(s)
}
