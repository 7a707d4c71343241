package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/scenario"
)

func build(usage string) (*engine.Machine, error) {
	sc, err := scenario.Lookup(usage)
	if err != nil {
		return nil, err
	}
	return engine.New(sc)
}

func batchTransport(t *testing.T, ops *[]string) engine.Transport {
	t.Helper()
	loc := domain.Location{ID: 1, Name: "Shelf A", Barcode: "LOC-A"}
	lines := []domain.OperationLine{{ID: 7, Product: domain.Product{ID: 70, Name: "Widget", Barcode: "BC-7"}, LocationSrc: loc}}
	raw, err := json.Marshal(lines)
	require.NoError(t, err)
	return engine.TransportFunc(func(_ context.Context, _ string, op string, _ engine.Params) (domain.Envelope, error) {
		*ops = append(*ops, op)
		return domain.Envelope{
			NextState: "scan_products",
			Data: map[string]json.RawMessage{
				"id":         json.RawMessage(`5`),
				"name":       json.RawMessage(`"BATCH/5"`),
				"move_lines": raw,
			},
		}, nil
	})
}

func newModel(t *testing.T, transport engine.Transport) Model {
	t.Helper()
	m, err := NewModel(Options{Scenario: "cluster_batch_picking", Build: build, Transport: transport})
	require.NoError(t, err)
	return m
}

// drive feeds msg to the model and runs any backend call it starts.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for cmd != nil {
		done, ok := cmd().(callDoneMsg)
		if !ok {
			break
		}
		next, cmd = m.Update(done)
		m = next.(Model)
	}
	return m
}

var functionKeys = []tea.KeyType{
	tea.KeyF1, tea.KeyF2, tea.KeyF3, tea.KeyF4, tea.KeyF5, tea.KeyF6,
	tea.KeyF7, tea.KeyF8, tea.KeyF9, tea.KeyF10, tea.KeyF11, tea.KeyF12,
}

func fkey(idx int) tea.KeyMsg {
	return tea.KeyMsg{Type: functionKeys[idx]}
}

func TestNewModelRequiresTransport(t *testing.T) {
	_, err := NewModel(Options{Scenario: "checkout", Build: build})
	assert.Error(t, err)
}

func TestNewModelUnknownScenario(t *testing.T) {
	var ops []string
	_, err := NewModel(Options{Scenario: "nope", Build: build, Transport: batchTransport(t, &ops)})
	assert.Error(t, err)
}

func TestFunctionKeyRunsAction(t *testing.T) {
	var ops []string
	m := newModel(t, batchTransport(t, &ops))
	assert.Nil(t, m.initCmd)

	idx := slices.Index(m.machine.ActionNames(), "get_work")
	require.GreaterOrEqual(t, idx, 0)

	m = drive(t, m, fkey(idx))
	assert.Equal(t, []string{"find_batch"}, ops)
	assert.Equal(t, "scan_products", m.machine.StateKey())
	assert.False(t, m.machine.Busy())
	assert.Equal(t, "Scan a source location", m.input.Placeholder)

	view := m.View()
	assert.Contains(t, view, "Widget")
	assert.Contains(t, view, "State scan_products")
}

func TestEnterSubmitsScan(t *testing.T) {
	var ops []string
	m := newModel(t, batchTransport(t, &ops))
	idx := slices.Index(m.machine.ActionNames(), "get_work")
	m = drive(t, m, fkey(idx))

	m.input.SetValue("LOC-A")
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Scan a product", m.input.Placeholder)
	assert.Empty(t, ops[1:], "a location scan stays local")
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.logs[len(m.logs)-1], "scan LOC-A")
}

func TestScreensAndLogs(t *testing.T) {
	var ops []string
	m := newModel(t, batchTransport(t, &ops))

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, screenLogs, m.activeScreen)
	assert.Contains(t, m.View(), "cluster_batch_picking started")

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Empty(t, m.logs)
	assert.Contains(t, m.View(), "No events yet")

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenScan, m.activeScreen)

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	assert.Equal(t, screenHelp, m.activeScreen)
}

func TestLogsAreCapped(t *testing.T) {
	var ops []string
	m := newModel(t, batchTransport(t, &ops))
	for i := 0; i < maxLogs+25; i++ {
		m.pushLog(fmt.Sprintf("event %d", i))
	}
	assert.Len(t, m.logs, maxLogs)
	assert.Contains(t, m.logs[len(m.logs)-1], fmt.Sprintf("event %d", maxLogs+24))
}

func TestRenderPanelClipsLongLines(t *testing.T) {
	out := renderPanel("title", []string{"abcdefghijklmnopqrstuvwxyz0123456789"}, 24)
	assert.Contains(t, out, "[TITLE]")
	assert.Contains(t, out, "abcdefghijklmnopqrstu...")
}

func TestTrimText(t *testing.T) {
	assert.Equal(t, "abc", trimText("abc", 5))
	assert.Equal(t, "ab...", trimText("abcdef", 5))
	assert.Equal(t, "ab", trimText("abcdef", 2))
	assert.Equal(t, "ab  ", padRight("ab", 4))
}

func TestLogWindowFollowsScroll(t *testing.T) {
	m := Model{height: 24}
	assert.Equal(t, 11, m.logViewSize())
	assert.Equal(t, 3, Model{height: 5}.logViewSize())
	assert.Empty(t, m.visibleLogs(5))

	for i := range 8 {
		m.logs = append(m.logs, fmt.Sprintf("e%d", i))
	}
	assert.Equal(t, []string{"e5", "e6", "e7"}, m.visibleLogs(3))
	m.logScroll = 2
	assert.Equal(t, []string{"e3", "e4", "e5"}, m.visibleLogs(3))
	m.logScroll = 20
	assert.Empty(t, m.visibleLogs(3))
	assert.Empty(t, m.visibleLogs(0))
}

func TestLineStylePicksMarkers(t *testing.T) {
	assert.Equal(t, cursorStyle.GetBackground(), lineStyle("│ ▶ Widget  1/3 │").GetBackground())
	assert.Equal(t, brandStyle.GetBackground(), lineStyle("│ Shopfloor Scanner │").GetBackground())
	assert.Equal(t, messageStyles["[ERR]"].GetForeground(), lineStyle("│ [ERR] Wrong location │").GetForeground())
	assert.Equal(t, titleStyle.GetForeground(), lineStyle("│ [LOGS]        │").GetForeground())
	assert.Equal(t, frameStyle.GetForeground(), lineStyle("└────┘").GetForeground())
}
