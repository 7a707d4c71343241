package engine

import (
	"context"

	"shopfloor_go/internal/domain"
)

// Ticket identifies one issued call and the state that issued it.
type Ticket struct {
	Seq   uint64 `json:"seq"`
	State string `json:"state"`
}

type Call struct {
	Ticket    Ticket
	Scenario  string
	Operation string
	Params    Params
}

type Result struct {
	Ticket   Ticket
	Envelope domain.Envelope
	Err      error
}

// Transport performs one backend operation of a scenario.
type Transport interface {
	Call(ctx context.Context, scenario, operation string, params Params) (domain.Envelope, error)
}

type TransportFunc func(ctx context.Context, scenario, operation string, params Params) (domain.Envelope, error)

func (f TransportFunc) Call(ctx context.Context, scenario, operation string, params Params) (domain.Envelope, error) {
	return f(ctx, scenario, operation, params)
}

type callKey struct{}

// CallFromContext exposes the call being executed to transport decorators.
func CallFromContext(ctx context.Context) (Call, bool) {
	c, ok := ctx.Value(callKey{}).(Call)
	return c, ok
}

// Do runs the call. It is safe to run off the goroutine owning the machine.
func (c Call) Do(ctx context.Context, t Transport) Result {
	ctx = context.WithValue(ctx, callKey{}, c)
	env, err := t.Call(ctx, c.Scenario, c.Operation, c.Params)
	return Result{Ticket: c.Ticket, Envelope: env, Err: err}
}

// Then runs after a non-rejected envelope, before any transition.
type Then func(m *Machine, env domain.Envelope)

type Outcome uint8

const (
	OutcomeApplied Outcome = iota
	OutcomeRejected
	OutcomeTransport
	OutcomeStale
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransport:
		return "transport_error"
	case OutcomeStale:
		return "stale"
	default:
		return "invalid"
	}
}

type pending struct {
	call  Call
	then  []Then
	taken bool
}
