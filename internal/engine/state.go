package engine

import (
	"fmt"
	"sort"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/scan"
)

type DisplayInfo struct {
	Title       string `json:"title"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Action is a named UI handler. Navigate actions stay available while a
// call is in flight.
type Action struct {
	Run      func(m *Machine, p Payload) error
	Navigate bool
}

func Do(fn func(m *Machine, p Payload) error) Action {
	return Action{Run: fn}
}

func Nav(fn func(m *Machine, p Payload) error) Action {
	return Action{Run: fn, Navigate: true}
}

// GoTo is a client side transition that never touches the backend.
func GoTo(state string) Action {
	return Nav(func(m *Machine, _ Payload) error {
		return m.StateTo(state)
	})
}

// State is one node of a scenario table.
type State struct {
	Title       string
	Placeholder string
	// Display overrides Title and Placeholder when they depend on the selection.
	Display func(m *Machine) DisplayInfo

	Enter   func(m *Machine)
	OnScan  func(m *Machine, raw string) error
	Actions map[string]Action
	// Owns is cleared from the selection whenever the machine leaves the state.
	Owns Scope
	// Back is the target of the implicit "back" action.
	Back string

	// Lines is the set of operation lines shown and matched in this state.
	Lines func(m *Machine) []domain.OperationLine
	// Locations overrides the source locations of Lines for classification.
	Locations func(m *Machine) []domain.Location
	// Context adjusts the classifier snapshot before each scan.
	Context func(m *Machine, ctx *scan.Context)
	Render  func(m *Machine, v *View)
}

// Scenario is the declarative table driving a Machine.
type Scenario struct {
	Name    string
	Title   string
	Initial string
	Policy  scan.QuantityPolicy
	States  map[string]*State
	// Heading computes a screen title prefix, e.g. the batch being picked.
	Heading func(m *Machine) string
}

func (s *Scenario) Validate() error {
	if s == nil {
		return fmt.Errorf("nil scenario")
	}
	if _, ok := s.States[s.Initial]; !ok {
		return fmt.Errorf("scenario %s: initial state %q: %w", s.Name, s.Initial, ErrUnknownState)
	}
	for key, st := range s.States {
		if st == nil {
			return fmt.Errorf("scenario %s: state %q is nil", s.Name, key)
		}
		if st.Back != "" {
			if _, ok := s.States[st.Back]; !ok {
				return fmt.Errorf("scenario %s: state %q back %q: %w", s.Name, key, st.Back, ErrUnknownState)
			}
		}
	}
	return nil
}

func (s *Scenario) StateKeys() []string {
	keys := make([]string, 0, len(s.States))
	for k := range s.States {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
