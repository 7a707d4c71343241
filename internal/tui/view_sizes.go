package tui

// logViewSize is the number of log rows that fit in the page panel under
// the header and key panels.
func (m Model) logViewSize() int {
	height := m.height
	if height <= 0 {
		height = 24
	}
	rows := height - panelLineCount("", 4) - panelLineCount("", 1) - panelLineCount("logs", 0)
	return max(rows, 3)
}

// visibleLogs returns up to limit entries ending logScroll entries before
// the newest one.
func (m Model) visibleLogs(limit int) []string {
	end := min(max(len(m.logs)-m.logScroll, 0), len(m.logs))
	start := max(end-max(limit, 0), 0)
	return m.logs[start:end]
}
