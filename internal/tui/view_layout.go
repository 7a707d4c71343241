package tui

import (
	"fmt"
	"strings"
)

func (m Model) View() string {
	contentWidth := m.panelContentWidth()

	headerPanel := renderPanel(
		"",
		[]string{
			"Shopfloor Scanner",
			m.tabsLine(),
			m.metaLine(),
			m.statusLine(),
		},
		contentWidth,
	)

	page := m.pageLines()
	pageTitle := "Page"
	pageBody := []string{}
	if len(page) > 0 {
		pageTitle = page[0]
		pageBody = page[1:]
	}
	pageBody = m.clampPageBody(pageBody)
	pagePanel := renderPanel(pageTitle, pageBody, contentWidth)

	footerPanel := renderPanel(
		"",
		[]string{"Keys: " + m.footerLine()},
		contentWidth,
	)

	layout := strings.Join([]string{
		headerPanel,
		pagePanel,
		footerPanel,
	}, "\n")
	return paintLayout(layout)
}

func (m Model) clampPageBody(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}

	height := m.height
	if height <= 0 {
		height = 24
	}

	headerLines := panelLineCount("", 4)
	footerLines := panelLineCount("", 1)
	availableForPagePanel := height - headerLines - footerLines
	if availableForPagePanel < 7 {
		availableForPagePanel = 7
	}

	bodyLimit := availableForPagePanel - panelLineCount("page-title", 0)
	if bodyLimit < 1 {
		bodyLimit = 1
	}
	if len(lines) <= bodyLimit {
		return lines
	}
	if bodyLimit == 1 {
		return []string{fmt.Sprintf("... %d more line(s)", len(lines))}
	}

	clipped := make([]string, 0, bodyLimit)
	clipped = append(clipped, lines[:bodyLimit-1]...)
	clipped = append(clipped, fmt.Sprintf("... %d more line(s)", len(lines)-bodyLimit+1))
	return clipped
}

func panelLineCount(title string, bodyLines int) int {
	if strings.TrimSpace(title) == "" {
		return bodyLines + 2
	}
	return bodyLines + 4
}

func (m Model) pageLines() []string {
	switch m.activeScreen {
	case screenScan:
		return m.scanPageLines()
	case screenLogs:
		return m.logsPageLines()
	case screenHelp:
		return m.helpPageLines()
	default:
		return []string{"Unknown page"}
	}
}

func renderPanel(title string, lines []string, contentWidth int) string {
	if contentWidth < 24 {
		contentWidth = 24
	}

	var b strings.Builder
	horizontal := strings.Repeat("─", contentWidth+2)
	top := "┌" + horizontal + "┐"
	mid := "├" + horizontal + "┤"
	bottom := "└" + horizontal + "┘"

	b.WriteString(top)
	if strings.TrimSpace(title) != "" {
		b.WriteString("\n")
		titleText := "[" + strings.ToUpper(strings.TrimSpace(title)) + "]"
		b.WriteString("│ ")
		b.WriteString(padRight(trimText(titleText, contentWidth), contentWidth))
		b.WriteString(" │\n")
		b.WriteString(mid)
	}

	if len(lines) == 0 {
		b.WriteString("\n")
		b.WriteString("│ ")
		b.WriteString(strings.Repeat(" ", contentWidth))
		b.WriteString(" │\n")
		b.WriteString(bottom)
		return b.String()
	}

	b.WriteString("\n")
	for i, line := range lines {
		clipped := trimText(line, contentWidth)
		b.WriteString("│ ")
		b.WriteString(padRight(clipped, contentWidth))
		b.WriteString(" │")
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(bottom)
	return b.String()
}

func (m Model) panelContentWidth() int {
	if m.width <= 0 {
		return 78
	}
	width := m.width - 4
	if width < 36 {
		width = 36
	}
	if width > 120 {
		width = 120
	}
	return width
}
