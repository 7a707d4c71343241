package tui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"shopfloor_go/internal/engine"
)

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case "ctrl+l":
		m.activeScreen = screenLogs
		return m, nil
	case "ctrl+g":
		m.activeScreen = screenHelp
		return m, nil
	case "esc":
		if m.activeScreen != screenScan {
			m.activeScreen = screenScan
			return m, nil
		}
	}

	switch m.activeScreen {
	case screenLogs:
		return m.updateLogKeys(msg)
	case screenHelp:
		return m.updateHelpKeys(msg)
	default:
		return m.updateScanKeys(msg)
	}
}

func (m Model) updateScanKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "enter":
		return m.submitScan()
	case "ctrl+b":
		return m.runAction("back", nil)
	case "ctrl+s":
		return m.selectAtCursor()
	case "ctrl+r":
		usage := m.machine.Scenario().Name
		if err := m.activate(usage); err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m.settle()
	case "tab", "down":
		m.moveCursor(1)
		return m, nil
	case "shift+tab", "up":
		m.moveCursor(-1)
		return m, nil
	}

	if idx, ok := functionKey(key); ok {
		names := m.machine.ActionNames()
		if idx >= len(names) {
			return m, nil
		}
		p := engine.Payload{}
		if id, ok := m.cursorID(); ok {
			p["id"] = id
		}
		return m.runAction(names[idx], p)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// functionKey maps f1..f12 onto a zero based index.
func functionKey(key string) (int, bool) {
	if !strings.HasPrefix(key, "f") {
		return 0, false
	}
	n, err := strconv.Atoi(key[1:])
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return n - 1, true
}
