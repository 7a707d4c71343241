package tui

import (
	"fmt"
	"strings"
)

func (m Model) tabsLine() string {
	tabs := []struct {
		name   string
		screen screen
	}{
		{name: "Scan", screen: screenScan},
		{name: "Logs", screen: screenLogs},
		{name: "Help", screen: screenHelp},
	}

	parts := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		if tab.screen == m.activeScreen {
			parts = append(parts, "▣ "+strings.ToUpper(tab.name))
		} else {
			parts = append(parts, "□ "+strings.ToUpper(tab.name))
		}
	}

	return strings.Join(parts, "   ")
}

func (m Model) metaLine() string {
	server := "IDLE"
	if m.machine.Busy() {
		server = "WAITING"
	}
	v := m.machine.View()
	return fmt.Sprintf("Scenario %s | State %s | Server %s", v.Scenario, v.State, server)
}

func (m Model) footerLine() string {
	switch m.activeScreen {
	case screenLogs:
		return "[Up/Down] Scroll  [c] Clear  [Esc] Back"
	case screenHelp:
		return "[Esc] Back  [Ctrl+C] Exit"
	default:
		return "[Enter] Scan  [Tab] Cursor  [Ctrl+S] Select  [F1..] Actions  [Ctrl+B] Back  [Ctrl+G] Help"
	}
}

func (m Model) statusLine() string {
	tag := "[INFO ]"
	if msg := m.machine.Message(); msg != nil && msg.Body == m.status {
		tag = messageTag(string(msg.Type))
	}
	if m.status == "" {
		return tag + " Ready"
	}
	return tag + " " + m.status
}
