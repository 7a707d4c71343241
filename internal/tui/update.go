package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"shopfloor_go/internal/engine"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 20 {
			m.input.Width = m.width - 14
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case callDoneMsg:
		return m.onCallDone(msg)
	}
	return m, nil
}

func (m Model) onCallDone(msg callDoneMsg) (tea.Model, tea.Cmd) {
	out := m.machine.Resolve(msg.Result)
	m.pushLog(msg.Operation + " " + out.String())
	if out != engine.OutcomeStale {
		m.status = messageText(m.machine)
	}
	return m.settle()
}

// settle refreshes input hints after the machine moved and starts any call
// it queued.
func (m Model) settle() (tea.Model, tea.Cmd) {
	cmd := m.pump()
	m.input.Placeholder = m.machine.Display().Placeholder
	m.clampCursor()
	return m, cmd
}

func (m Model) submitScan() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	m.input.Reset()
	err := m.machine.Scan(text)
	m.pushLog("scan " + text)
	m.status = resultText(m.machine, err)
	return m.settle()
}

func (m Model) runAction(name string, p engine.Payload) (tea.Model, tea.Cmd) {
	err := m.machine.Action(name, p)
	m.pushLog("action " + name)
	m.status = resultText(m.machine, err)
	return m.settle()
}

func (m Model) selectAtCursor() (tea.Model, tea.Cmd) {
	id, ok := m.cursorID()
	if !ok {
		m.status = "Nothing to select"
		return m, nil
	}
	return m.runAction("select", engine.Payload{"id": id})
}

func resultText(machine *engine.Machine, err error) string {
	switch {
	case err == nil:
		if machine.Busy() {
			return "Waiting for the server..."
		}
		return messageText(machine)
	case errors.Is(err, engine.ErrBusy):
		return "Still waiting for the server"
	default:
		if msg := machine.Message(); msg != nil {
			return msg.Body
		}
		return err.Error()
	}
}

func messageText(machine *engine.Machine) string {
	if msg := machine.Message(); msg != nil {
		return msg.Body
	}
	return ""
}
