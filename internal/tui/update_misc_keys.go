package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateLogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	maxVisible := m.logViewSize()
	maxScroll := len(m.logs) - maxVisible
	if maxScroll < 0 {
		maxScroll = 0
	}

	switch msg.String() {
	case "up", "k":
		if m.logScroll < maxScroll {
			m.logScroll++
		}
	case "down", "j":
		if m.logScroll > 0 {
			m.logScroll--
		}
	case "c":
		m.logs = nil
		m.logScroll = 0
		m.status = "Logs cleared"
	}
	return m, nil
}

func (m Model) updateHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		m.activeScreen = screenScan
	}
	return m, nil
}

// cursorItems lists the ids the cursor walks over: records when the state
// shows records, lines otherwise.
func (m Model) cursorItems() []int {
	v := m.machine.View()
	ids := make([]int, 0, len(v.Records))
	for _, r := range v.Records {
		ids = append(ids, r.ID)
	}
	if len(ids) > 0 {
		return ids
	}
	for _, g := range v.Groups {
		for _, l := range g.Lines {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func (m Model) cursorID() (int, bool) {
	ids := m.cursorItems()
	if m.cursor < 0 || m.cursor >= len(ids) {
		return 0, false
	}
	return ids[m.cursor], true
}

func (m *Model) moveCursor(delta int) {
	total := len(m.cursorItems())
	if total == 0 {
		m.cursor = 0
		return
	}
	m.cursor = (m.cursor + delta + total) % total
}

func (m *Model) clampCursor() {
	total := len(m.cursorItems())
	if m.cursor >= total {
		m.cursor = 0
	}
}
