// Package session serializes every event of one operator onto a single
// goroutine that owns the scenario machine. Backend calls run off-loop and
// come back as results.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/scenario"
)

var (
	ErrClosed    = errors.New("session closed")
	ErrRestarted = errors.New("scenario restarted")
)

// Notifier is told about every view change. It runs on the session
// goroutine and must not block.
type Notifier interface {
	Notify(v engine.View)
}

type Stats struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	State     string    `json:"state"`
	Busy      bool      `json:"busy"`
	StartedAt time.Time `json:"started_at"`

	Activations     uint64    `json:"activations"`
	Scans           uint64    `json:"scans"`
	Actions         uint64    `json:"actions"`
	OperatorErrors  uint64    `json:"operator_errors"`
	Calls           uint64    `json:"calls"`
	Applied         uint64    `json:"applied"`
	Rejected        uint64    `json:"rejected"`
	TransportErrors uint64    `json:"transport_errors"`
	Stale           uint64    `json:"stale"`
	Invalid         uint64    `json:"invalid"`
	LastError       string    `json:"last_error,omitempty"`
	LastEventAt     time.Time `json:"last_event_at"`
}

type Options struct {
	ID          string
	Transport   engine.Transport
	Observer    engine.Observer
	Logger      *slog.Logger
	Scenario    string
	Timeout     time.Duration
	QtyCeiling  int
	PickedLimit int
}

type kind uint8

const (
	reqStart kind = iota
	reqScan
	reqAction
	reqView
)

type request struct {
	kind    kind
	text    string
	payload engine.Payload
	reply   chan reply
}

type reply struct {
	view engine.View
	err  error
}

type waiter struct {
	reply chan reply
	err   error
}

type running struct {
	ticket engine.Ticket
	cancel context.CancelFunc
}

type Session struct {
	opts     Options
	log      *slog.Logger
	requests chan request
	results  chan engine.Result
	done     chan struct{}

	// loop-owned
	machine *engine.Machine
	call    *running
	waiters []waiter

	mu       sync.Mutex
	stats    Stats
	notifier Notifier
}

func New(opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 12 * time.Second
	}
	if opts.Scenario == "" {
		opts.Scenario = "cluster_batch_picking"
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Session{
		opts:     opts,
		log:      log.With("session", opts.ID),
		requests: make(chan request),
		results:  make(chan engine.Result, 1),
		done:     make(chan struct{}),
		stats:    Stats{ID: opts.ID},
	}
}

func (s *Session) ID() string { return s.opts.ID }

func (s *Session) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// Run owns the machine until ctx ends.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			if s.call != nil {
				s.call.cancel()
			}
			s.flush(ErrClosed)
			return
		case req := <-s.requests:
			s.handle(ctx, req)
		case res := <-s.results:
			s.resolve(ctx, res)
		}
	}
}

// Start activates usage, or the configured scenario when usage is empty.
// Like Scan and Action it returns once no backend call is pending.
func (s *Session) Start(ctx context.Context, usage string) (engine.View, error) {
	return s.send(ctx, request{kind: reqStart, text: usage})
}

func (s *Session) Scan(ctx context.Context, text string) (engine.View, error) {
	return s.send(ctx, request{kind: reqScan, text: text})
}

func (s *Session) Action(ctx context.Context, name string, p engine.Payload) (engine.View, error) {
	return s.send(ctx, request{kind: reqAction, text: name, payload: p})
}

func (s *Session) View(ctx context.Context) (engine.View, error) {
	return s.send(ctx, request{kind: reqView})
}

func (s *Session) Status() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Session) StatusText() string {
	st := s.Status()
	return fmt.Sprintf(
		"Session %s: %s/%s busy=%v\nEvents: scans=%d actions=%d operator_errors=%d\nCalls: %d | applied=%d rejected=%d transport=%d stale=%d invalid=%d\nLast error: %s",
		st.ID, orDash(st.Scenario), orDash(st.State), st.Busy,
		st.Scans, st.Actions, st.OperatorErrors,
		st.Calls, st.Applied, st.Rejected, st.TransportErrors, st.Stale, st.Invalid,
		orDash(st.LastError),
	)
}

func (s *Session) send(ctx context.Context, req request) (engine.View, error) {
	req.reply = make(chan reply, 1)
	select {
	case s.requests <- req:
	case <-s.done:
		return engine.View{}, ErrClosed
	case <-ctx.Done():
		return engine.View{}, ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.view, r.err
	case <-ctx.Done():
		return engine.View{}, ctx.Err()
	}
}

func (s *Session) handle(ctx context.Context, req request) {
	var err error
	switch req.kind {
	case reqStart:
		err = s.start(strings.TrimSpace(req.text))
	case reqScan:
		s.count(func(st *Stats) { st.Scans++ })
		err = s.withMachine(func(m *engine.Machine) error { return m.Scan(req.text) })
	case reqAction:
		s.count(func(st *Stats) { st.Actions++ })
		err = s.withMachine(func(m *engine.Machine) error { return m.Action(req.text, req.payload) })
	case reqView:
		req.reply <- reply{view: s.view()}
		return
	}
	if err != nil && !errors.Is(err, engine.ErrBusy) {
		s.count(func(st *Stats) {
			st.OperatorErrors++
			st.LastError = err.Error()
		})
	}

	s.pump(ctx)
	if s.machine != nil && s.machine.Busy() && err == nil {
		s.waiters = append(s.waiters, waiter{reply: req.reply})
	} else {
		req.reply <- reply{view: s.view(), err: err}
		s.settle(nil)
	}
	s.publish()
}

func (s *Session) start(usage string) error {
	if usage == "" {
		usage = s.opts.Scenario
	}
	sc, err := scenario.Lookup(usage)
	if err != nil {
		return err
	}
	opts := []engine.Option{
		engine.WithObserver(s.opts.Observer),
		engine.WithLogger(s.log),
	}
	if s.opts.QtyCeiling > 0 {
		opts = append(opts, engine.WithQuantityCeiling(s.opts.QtyCeiling))
	}
	if s.opts.PickedLimit > 0 {
		opts = append(opts, engine.WithPickedLimit(s.opts.PickedLimit))
	}
	m, err := engine.New(sc, opts...)
	if err != nil {
		return err
	}
	if s.call != nil {
		s.call.cancel()
		s.call = nil
	}
	s.flush(ErrRestarted)
	s.machine = m
	m.Start()
	s.count(func(st *Stats) {
		st.Activations++
		st.StartedAt = time.Now()
	})
	s.log.Info("scenario activated", "scenario", usage)
	return nil
}

func (s *Session) withMachine(fn func(m *engine.Machine) error) error {
	if s.machine == nil {
		return engine.ErrNotStarted
	}
	return fn(s.machine)
}

// pump cancels a call the machine abandoned and launches the queued one.
func (s *Session) pump(ctx context.Context) {
	m := s.machine
	if m == nil {
		return
	}
	if s.call != nil && !m.Busy() {
		s.call.cancel()
		s.call = nil
	}
	call, ok := m.TakeCall()
	if !ok {
		return
	}
	if s.call != nil {
		s.call.cancel()
	}
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	s.call = &running{ticket: call.Ticket, cancel: cancel}
	s.count(func(st *Stats) { st.Calls++ })

	transport := s.opts.Transport
	go func() {
		defer cancel()
		res := call.Do(callCtx, transport)
		select {
		case s.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) resolve(ctx context.Context, res engine.Result) {
	if s.call != nil && s.call.ticket == res.Ticket {
		s.call = nil
	}
	if s.machine == nil {
		return
	}
	out := s.machine.Resolve(res)
	s.count(func(st *Stats) {
		switch out {
		case engine.OutcomeApplied:
			st.Applied++
		case engine.OutcomeRejected:
			st.Rejected++
		case engine.OutcomeTransport:
			st.TransportErrors++
		case engine.OutcomeStale:
			st.Stale++
		case engine.OutcomeInvalid:
			st.Invalid++
		}
	})
	if out == engine.OutcomeStale {
		s.settle(nil)
		return
	}
	opErr := outcomeError(out, s.machine.Message(), res.Err)
	if opErr != nil {
		s.count(func(st *Stats) { st.LastError = opErr.Error() })
	}

	s.pump(ctx)
	s.settle(opErr)
	s.publish()
}

// settle answers the waiters once no call is pending any more.
func (s *Session) settle(err error) {
	if s.machine != nil && s.machine.Busy() {
		return
	}
	s.flush(err)
}

func outcomeError(out engine.Outcome, msg *domain.Message, err error) error {
	body := ""
	if msg != nil {
		body = msg.Body
	}
	switch out {
	case engine.OutcomeRejected, engine.OutcomeInvalid:
		return &engine.ScanError{Kind: engine.ErrRejected, Message: body}
	case engine.OutcomeTransport:
		if err != nil {
			body = err.Error()
		}
		return &engine.ScanError{Kind: engine.ErrTransport, Message: body}
	default:
		return nil
	}
}

func (s *Session) flush(err error) {
	v := s.view()
	for _, w := range s.waiters {
		w.reply <- reply{view: v, err: err}
	}
	s.waiters = nil
}

func (s *Session) view() engine.View {
	if s.machine == nil {
		return engine.View{Scenario: s.opts.Scenario}
	}
	return s.machine.View()
}

func (s *Session) publish() {
	v := s.view()
	s.mu.Lock()
	s.stats.Scenario = v.Scenario
	s.stats.State = v.State
	s.stats.Busy = v.Busy
	s.stats.LastEventAt = time.Now()
	n := s.notifier
	s.mu.Unlock()
	if n != nil {
		n.Notify(v)
	}
}

func (s *Session) count(fn func(st *Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
