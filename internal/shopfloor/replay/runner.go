package replay

import (
	"context"
	"fmt"
	"log/slog"

	"shopfloor_go/internal/engine"
)

// Builder creates a started-ready machine for a scenario name.
type Builder func(usage string) (*engine.Machine, error)

type Runner struct {
	Build     Builder
	Transport engine.Transport
	Logger    *slog.Logger
}

type StepResult struct {
	Step     Step
	State    string
	Outcomes []string
	Message  string
	Error    string
	Failed   bool
}

type Report struct {
	Results []StepResult
	Failed  int
}

func (r Report) Passed() bool { return r.Failed == 0 }

// Run plays steps against a fresh activation of usage. Every backend call a
// step queues is executed and resolved before the next step, so the script
// sees the same ordering an operator would.
func (r *Runner) Run(ctx context.Context, usage string, steps []Step) (Report, error) {
	log := r.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var report Report
	var m *engine.Machine
	activate := func(name string) error {
		next, err := r.Build(name)
		if err != nil {
			return err
		}
		m = next
		m.Start()
		return nil
	}
	if usage != "" {
		if err := activate(usage); err != nil {
			return report, err
		}
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := StepResult{Step: step}
		var err error
		switch step.Kind {
		case StepStart:
			name := step.Arg
			if name == "" {
				name = usage
			}
			err = activate(name)
		case StepScan:
			err = withMachine(m, func() error { return m.Scan(step.Arg) })
		case StepAction:
			err = withMachine(m, func() error { return m.Action(step.Arg, step.Payload) })
		case StepExpect:
			if m == nil || m.StateKey() != step.Arg {
				res.Failed = true
				res.Error = fmt.Sprintf("expected state %s, got %s", step.Arg, stateOf(m))
			}
		}
		if err != nil {
			res.Error = err.Error()
		}
		if m != nil {
			res.Outcomes = drain(ctx, m, r.Transport)
			res.State = m.StateKey()
			if msg := m.Message(); msg != nil {
				res.Message = string(msg.Type) + ": " + msg.Body
			}
		}
		if res.Failed {
			report.Failed++
		}
		log.Debug("replay step", "line", step.Line, "kind", step.Kind.String(), "arg", step.Arg, "state", res.State, "error", res.Error)
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func drain(ctx context.Context, m *engine.Machine, t engine.Transport) []string {
	var out []string
	for {
		call, ok := m.TakeCall()
		if !ok {
			return out
		}
		o := m.Resolve(call.Do(ctx, t))
		out = append(out, call.Operation+"="+o.String())
	}
}

func withMachine(m *engine.Machine, fn func() error) error {
	if m == nil {
		return engine.ErrNotStarted
	}
	return fn()
}

func stateOf(m *engine.Machine) string {
	if m == nil {
		return "-"
	}
	return m.StateKey()
}
