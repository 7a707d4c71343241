package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	frameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	brandStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("24")).Bold(true)
	tabsStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	waitingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("221")).Italic(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("117")).Bold(true)
	pickedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Faint(true)
	groupStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("153")).Underline(true)
	keysStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	messageStyles = map[string]lipgloss.Style{
		"[OK]":    lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true),
		"[WARN]":  lipgloss.NewStyle().Foreground(lipgloss.Color("221")).Bold(true),
		"[ERR]":   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		"[INFO ]": lipgloss.NewStyle().Foreground(lipgloss.Color("231")),
	}
)

// paintLayout colors the plain panel text line by line. Panels are built
// uncolored so widths stay rune counts.
func paintLayout(layout string) string {
	if layout == "" {
		return layout
	}
	lines := strings.Split(layout, "\n")
	for i, line := range lines {
		lines[i] = lineStyle(line).Render(line)
	}
	return strings.Join(lines, "\n")
}

func lineStyle(line string) lipgloss.Style {
	if strings.HasPrefix(line, "┌") || strings.HasPrefix(line, "├") || strings.HasPrefix(line, "└") {
		return frameStyle
	}
	body := strings.TrimPrefix(line, "│ ")
	switch {
	case strings.HasPrefix(body, "Shopfloor Scanner"):
		return brandStyle
	case strings.HasPrefix(body, "▣ ") || strings.HasPrefix(body, "□ "):
		return tabsStyle
	case strings.HasPrefix(body, "Scenario "):
		if strings.Contains(body, "Server WAITING") {
			return waitingStyle
		}
		return idleStyle
	case strings.HasPrefix(body, "▶ "):
		return cursorStyle
	case strings.HasPrefix(body, "✓ "):
		return pickedStyle
	case strings.HasPrefix(body, "■ "):
		return groupStyle
	case strings.HasPrefix(body, "Keys:"):
		return keysStyle
	}
	for tag, st := range messageStyles {
		if strings.HasPrefix(body, tag) {
			return st
		}
	}
	if content := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), "│")); strings.HasPrefix(content, "[") && strings.HasSuffix(content, "]") {
		return titleStyle
	}
	return textStyle
}
