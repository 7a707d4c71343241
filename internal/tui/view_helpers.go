package tui

import (
	"strings"
)

func messageTag(kind string) string {
	switch kind {
	case "error":
		return "[ERR]"
	case "warning":
		return "[WARN]"
	case "success":
		return "[OK]"
	default:
		return "[INFO ]"
	}
}

func runeLen(s string) int {
	return len([]rune(s))
}

func padRight(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func trimText(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
