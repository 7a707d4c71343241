package tui

import (
	"fmt"
	"strings"
)

func (m Model) scanPageLines() []string {
	v := m.machine.View()
	lines := []string{v.Title}
	for _, f := range v.Fields {
		lines = append(lines, f.Label+": "+f.Value)
	}
	lines = append(lines, "Scan: "+m.input.View(), "")

	cursorID, hasCursor := m.cursorID()
	if len(v.Records) > 0 {
		for _, r := range v.Records {
			prefix := "  "
			if hasCursor && r.ID == cursorID {
				prefix = "▶ "
			}
			line := prefix + r.Title
			if r.Subtitle != "" {
				line += " (" + r.Subtitle + ")"
			}
			if r.Selected {
				line += " [x]"
			}
			lines = append(lines, line)
		}
	} else {
		for _, g := range v.Groups {
			title := "■ " + g.Title
			if g.Subtitle != "" {
				title += " - " + g.Subtitle
			}
			lines = append(lines, title)
			for _, l := range g.Lines {
				prefix := "  "
				switch {
				case hasCursor && l.ID == cursorID:
					prefix = "▶ "
				case l.Done:
					prefix = "✓ "
				}
				line := fmt.Sprintf("%s%s  %s/%s", prefix, l.Product, l.QtyDone, l.Quantity)
				if l.Destination != "" {
					line += " → " + l.Destination
				}
				if l.Selected {
					line += " *"
				}
				lines = append(lines, line)
			}
		}
	}
	if v.Empty {
		lines = append(lines, v.EmptyText)
	}

	if len(v.Actions) > 0 {
		parts := make([]string, 0, len(v.Actions))
		for i, name := range v.Actions {
			if i >= 12 {
				break
			}
			parts = append(parts, fmt.Sprintf("F%d %s", i+1, name))
		}
		lines = append(lines, "", "Actions: "+strings.Join(parts, "  "))
	}
	return lines
}

func (m Model) logsPageLines() []string {
	lines := []string{"Logs"}
	visible := m.visibleLogs(m.logViewSize())
	if len(visible) == 0 {
		return append(lines, "No events yet")
	}
	return append(lines, visible...)
}

func (m Model) helpPageLines() []string {
	return []string{
		"Help",
		"Scan or type a barcode, location or quantity and press Enter.",
		"Tab / Shift+Tab move the cursor over records or lines.",
		"Ctrl+S selects the record under the cursor.",
		"F1..F12 run the actions listed under the screen, in order.",
		"Ctrl+B goes back, Ctrl+R restarts the scenario.",
		"Ctrl+L shows the event log, Esc returns to scanning.",
	}
}
