// Package engine runs scenario tables: it owns the active state, the
// operator selection, per-state data and the single in-flight backend call.
package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/shopspring/decimal"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/scan"
	"shopfloor_go/internal/slots"
)

// RecordState is the UI state of one record shown by a state, such as an
// edited quantity or a checked line.
type RecordState struct {
	Qty      decimal.Decimal
	Selected bool
}

type Option func(*Machine)

func WithClassifier(c scan.Classifier) Option {
	return func(m *Machine) { m.classifier = c }
}

func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observer = o
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

func WithQuantityCeiling(n int) Option {
	return func(m *Machine) { m.ceiling = n }
}

func WithPickedLimit(n int) Option {
	return func(m *Machine) { m.sel.limit = n }
}

// Machine is not safe for concurrent use. One goroutine owns it and feeds
// it scans, actions and call results.
type Machine struct {
	scenario   *Scenario
	current    string
	started    bool
	data       map[string]Bag
	shared     Bag
	sel        Selection
	notice     *domain.Message
	records    *slots.Store[RecordState]
	classifier scan.Classifier
	ceiling    int
	observer   Observer
	log        *slog.Logger

	seq      uint64
	inflight *pending
}

func New(sc *Scenario, opts ...Option) (*Machine, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	m := &Machine{
		scenario: sc,
		data:     make(map[string]Bag),
		shared:   make(Bag),
		records:  slots.New[RecordState](),
		observer: nopObserver{},
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.classifier == nil {
		policy := sc.Policy
		if m.ceiling > 0 {
			policy.Ceiling = m.ceiling
		}
		m.classifier = scan.New(policy)
	}
	m.log = m.log.With("scenario", sc.Name)
	return m, nil
}

// Start enters the initial state. Calling it again restarts the activation.
func (m *Machine) Start() {
	m.inflight = nil
	m.data = make(map[string]Bag)
	m.shared = make(Bag)
	m.sel.Clear(ScopeAll)
	m.notice = nil
	for _, key := range m.scenario.StateKeys() {
		m.records.DiscardScope(key)
	}
	m.current = m.scenario.Initial
	m.started = true
	m.enter(m.current)
}

func (m *Machine) Scenario() *Scenario { return m.scenario }

func (m *Machine) StateKey() string { return m.current }

func (m *Machine) Started() bool { return m.started }

func (m *Machine) state() *State { return m.scenario.States[m.current] }

// Selection is the live cursor; handlers mutate it directly.
func (m *Machine) Selection() *Selection { return &m.sel }

func (m *Machine) Message() *domain.Message { return m.notice }

func (m *Machine) Notify(msg *domain.Message) { m.notice = msg }

// Fail surfaces an operator error and returns it as a *ScanError.
func (m *Machine) Fail(kind ErrorKind, body string) error {
	m.notice = domain.ErrorMessage(body)
	return &ScanError{Kind: kind, Message: body}
}

// Data is the bag of the active state.
func (m *Machine) Data() Bag { return m.DataOf(m.current) }

func (m *Machine) DataOf(state string) Bag {
	b, ok := m.data[state]
	if !ok {
		b = make(Bag)
		m.data[state] = b
	}
	return b
}

// CopyData seeds the bag of to with the content of from.
func (m *Machine) CopyData(from, to string) {
	m.DataOf(to).Merge(m.DataOf(from))
}

// Shared holds scenario wide values, such as the batch being worked on.
// It survives transitions and is dropped by Start and ResetData.
func (m *Machine) Shared() Bag { return m.shared }

func (m *Machine) ResetData() {
	m.data = make(map[string]Bag)
	m.shared = make(Bag)
}

// Record returns the slot of record id in the active state.
func (m *Machine) Record(id int, init func() RecordState) *RecordState {
	return m.records.Slot(slots.Key{Scope: m.current, ID: id}, init)
}

func (m *Machine) RecordOf(state string, id int) (RecordState, bool) {
	return m.records.Get(slots.Key{Scope: state, ID: id})
}

func (m *Machine) ForgetRecord(id int) {
	m.records.Discard(slots.Key{Scope: m.current, ID: id})
}

// SelectedRecords lists the ids checked in the active state.
func (m *Machine) SelectedRecords() []int {
	var ids []int
	m.records.Each(m.current, func(id int, r RecordState) {
		if r.Selected {
			ids = append(ids, id)
		}
	})
	slices.Sort(ids)
	return ids
}

// Lines are the operation lines of the active state.
func (m *Machine) Lines() []domain.OperationLine {
	st := m.state()
	if st == nil || st.Lines == nil {
		return nil
	}
	return st.Lines(m)
}

// Line looks up a line of the active state by id.
func (m *Machine) Line(id int) (domain.OperationLine, bool) {
	for _, l := range m.Lines() {
		if l.ID == id {
			return l, true
		}
	}
	return domain.OperationLine{}, false
}

func (m *Machine) ScanContext() scan.Context {
	ctx := scan.Context{
		LastScanned: m.sel.LastScanned,
		Picked:      append([]int(nil), m.sel.Picked...),
	}
	st := m.state()
	if st == nil {
		return ctx
	}
	if st.Lines != nil {
		ctx.Lines = st.Lines(m)
	}
	if st.Locations != nil {
		ctx.Locations = st.Locations(m)
	} else {
		ctx.Locations = SourceLocations(ctx.Lines)
	}
	if st.Context != nil {
		st.Context(m, &ctx)
	}
	return ctx
}

// Classify reads raw against the screen currently displayed.
func (m *Machine) Classify(raw string) scan.Token {
	tok := m.classifier.Classify(raw, m.ScanContext())
	m.observer.Scanned(m.scenario.Name, m.current, tok.Kind)
	return tok
}

func (m *Machine) Display() DisplayInfo {
	st := m.state()
	if st == nil {
		return DisplayInfo{}
	}
	info := DisplayInfo{Title: st.Title, Placeholder: st.Placeholder}
	if st.Display != nil {
		d := st.Display(m)
		if d.Title != "" {
			info.Title = d.Title
		}
		if d.Placeholder != "" {
			info.Placeholder = d.Placeholder
		}
	}
	return info
}

// StateTo is a client side transition. It cancels the logical wait on any
// call issued from the state being left.
func (m *Machine) StateTo(key string) error {
	if _, ok := m.scenario.States[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrUnknownState)
	}
	m.transition(key)
	return nil
}

func (m *Machine) transition(to string) {
	from := m.current
	if from == to {
		return
	}
	if m.inflight != nil {
		m.log.Info("call abandoned by navigation",
			"operation", m.inflight.call.Operation, "seq", m.inflight.call.Ticket.Seq, "from", from, "to", to)
		m.inflight = nil
	}
	if st := m.scenario.States[from]; st != nil {
		m.sel.Clear(st.Owns)
	}
	m.records.DiscardScope(from)
	m.current = to
	m.observer.Transitioned(m.scenario.Name, from, to)
	m.log.Debug("state transition", "from", from, "to", to)
	m.enter(to)
}

func (m *Machine) enter(key string) {
	if st := m.scenario.States[key]; st != nil && st.Enter != nil {
		st.Enter(m)
	}
}

// SourceLocations lists distinct source locations in line order.
func SourceLocations(lines []domain.OperationLine) []domain.Location {
	seen := make(map[int]struct{}, len(lines))
	var out []domain.Location
	for _, l := range lines {
		if _, ok := seen[l.LocationSrc.ID]; ok {
			continue
		}
		seen[l.LocationSrc.ID] = struct{}{}
		out = append(out, l.LocationSrc)
	}
	return out
}
