package engine

import (
	"shopfloor_go/internal/domain"
)

const transportFailure = "Network error, please check your connection and scan again."

func (m *Machine) Busy() bool { return m.inflight != nil }

// Call queues operation for the owner to execute. It returns ErrBusy while
// another call is in flight; calls are never interleaved.
func (m *Machine) Call(operation string, params Params, then ...Then) error {
	if m.inflight != nil {
		return ErrBusy
	}
	if params == nil {
		params = Params{}
	}
	m.seq++
	m.inflight = &pending{
		call: Call{
			Ticket:    Ticket{Seq: m.seq, State: m.current},
			Scenario:  m.scenario.Name,
			Operation: operation,
			Params:    params,
		},
		then: then,
	}
	m.log.Debug("call queued", "operation", operation, "seq", m.seq, "state", m.current)
	return nil
}

// TakeCall hands out the queued call once. The owner runs it with Call.Do
// and feeds the outcome back through Resolve.
func (m *Machine) TakeCall() (Call, bool) {
	if m.inflight == nil || m.inflight.taken {
		return Call{}, false
	}
	m.inflight.taken = true
	return m.inflight.call, true
}

// Resolve applies a call result. Results whose ticket is no longer in
// flight, or whose originating state is no longer active, are dropped.
func (m *Machine) Resolve(res Result) Outcome {
	p := m.inflight
	if p == nil || p.call.Ticket != res.Ticket || res.Ticket.State != m.current {
		m.observer.Discarded(m.scenario.Name, "stale")
		m.log.Info("stale response discarded", "seq", res.Ticket.Seq, "origin", res.Ticket.State, "state", m.current)
		return OutcomeStale
	}
	m.inflight = nil

	if res.Err != nil {
		m.log.Warn("backend call failed", "operation", p.call.Operation, "error", res.Err)
		m.notice = domain.ErrorMessage(transportFailure)
		return OutcomeTransport
	}

	env := res.Envelope.Unwrap()
	target := env.NextState
	if target == "" {
		target = m.current
	}
	if _, ok := m.scenario.States[target]; !ok {
		m.log.Warn("backend returned unknown state", "operation", p.call.Operation, "next_state", target)
		m.notice = domain.ErrorMessage("Unexpected screen " + target + " returned by the server.")
		return OutcomeInvalid
	}

	if env.Rejected() {
		// Refreshed data for the same screen is still welcome.
		if target == m.current {
			m.DataOf(target).Merge(env.Data)
		}
		m.notice = env.Message
		m.log.Info("backend rejected call", "operation", p.call.Operation, "message", env.Message.Body)
		return OutcomeRejected
	}

	m.DataOf(target).Merge(env.Data)
	m.notice = env.Message
	for _, fn := range p.then {
		fn(m, env)
	}
	if target != m.current {
		m.transition(target)
	} else {
		m.retainRecords()
	}
	return OutcomeApplied
}

// retainRecords drops slots of records the active state no longer shows.
func (m *Machine) retainRecords() {
	st := m.state()
	if st == nil || st.Lines == nil {
		return
	}
	lines := st.Lines(m)
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	m.records.Retain(m.current, ids)
}
