package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"shopfloor_go/internal/engine"
)

type screen int

const (
	screenScan screen = iota
	screenLogs
	screenHelp
)

// Builder creates a machine for a scenario name.
type Builder func(usage string) (*engine.Machine, error)

type Options struct {
	Scenario  string
	Build     Builder
	Transport engine.Transport
	Timeout   time.Duration
	Logger    *slog.Logger
}

type callDoneMsg struct {
	Operation string
	Result    engine.Result
}

// Model is the app state. It owns the machine: every mutation happens in
// Update, and backend calls come back as callDoneMsg.
type Model struct {
	opts    Options
	machine *engine.Machine
	cancel  context.CancelFunc
	initCmd tea.Cmd

	activeScreen screen
	input        textinput.Model
	cursor       int
	logScroll    int

	status string
	logs   []string

	width  int
	height int
}

const maxLogs = 200
