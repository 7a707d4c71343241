package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func NewModel(opts Options) (Model, error) {
	if opts.Build == nil || opts.Transport == nil {
		return Model{}, fmt.Errorf("tui needs a machine builder and a transport")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 12 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	in := textinput.New()
	in.Prompt = "› "
	in.CharLimit = 256
	in.Width = 48
	in.Focus()

	m := Model{opts: opts, input: in}
	if err := m.activate(opts.Scenario); err != nil {
		return Model{}, err
	}
	m.initCmd = m.pump()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initCmd)
}

func (m *Model) activate(usage string) error {
	machine, err := m.opts.Build(usage)
	if err != nil {
		return err
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.machine = machine
	m.machine.Start()
	m.cursor = 0
	m.input.Placeholder = m.machine.Display().Placeholder
	m.status = "Started " + usage
	m.pushLog("scenario " + usage + " started")
	return nil
}

// pump cancels a call the machine abandoned and launches the queued one.
func (m *Model) pump() tea.Cmd {
	if m.cancel != nil && !m.machine.Busy() {
		m.cancel()
		m.cancel = nil
	}
	call, ok := m.machine.TakeCall()
	if !ok {
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.Timeout)
	m.cancel = cancel
	m.pushLog("call " + call.Operation)

	transport := m.opts.Transport
	return func() tea.Msg {
		defer cancel()
		return callDoneMsg{Operation: call.Operation, Result: call.Do(ctx, transport)}
	}
}

func (m *Model) pushLog(line string) {
	m.logs = append(m.logs, time.Now().Format("15:04:05")+" "+line)
	if len(m.logs) > maxLogs {
		m.logs = append([]string(nil), m.logs[len(m.logs)-maxLogs:]...)
	}
	m.opts.Logger.Debug("tui event", "event", line)
}
