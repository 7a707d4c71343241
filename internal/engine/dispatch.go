package engine

import (
	"fmt"
	"slices"
)

// Scan is the single entry point for scanner or keyboard input.
func (m *Machine) Scan(raw string) error {
	if !m.started {
		return ErrNotStarted
	}
	if m.inflight != nil {
		return ErrBusy
	}
	m.notice = nil
	st := m.state()
	if st.OnScan == nil {
		return nil
	}
	return st.OnScan(m, raw)
}

// Action runs a named UI action of the active state. "back" falls back to
// the state's Back target when no explicit handler exists.
func (m *Machine) Action(name string, p Payload) error {
	if !m.started {
		return ErrNotStarted
	}
	st := m.state()
	act, ok := st.Actions[name]
	if !ok && name == "back" && st.Back != "" {
		act, ok = GoTo(st.Back), true
	}
	if !ok {
		return fmt.Errorf("%s in %s: %w", name, m.current, ErrUnknownAction)
	}
	if m.inflight != nil && !act.Navigate {
		return ErrBusy
	}
	m.notice = nil
	if p == nil {
		p = Payload{}
	}
	return act.Run(m, p)
}

// ActionNames lists the actions available in the active state.
func (m *Machine) ActionNames() []string {
	st := m.state()
	if st == nil {
		return nil
	}
	names := make([]string, 0, len(st.Actions)+1)
	for name := range st.Actions {
		names = append(names, name)
	}
	if _, ok := st.Actions["back"]; !ok && st.Back != "" {
		names = append(names, "back")
	}
	slices.Sort(names)
	return names
}
