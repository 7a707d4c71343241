// Package replay drives a scenario machine from a recorded operator script:
//
//	# comment
//	start checkout
//	scan PICK/0042
//	action select {"id": 12}
//	expect select_line
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"shopfloor_go/internal/engine"
)

type StepKind uint8

const (
	StepScan StepKind = iota + 1
	StepAction
	StepExpect
	StepStart
)

func (k StepKind) String() string {
	switch k {
	case StepScan:
		return "scan"
	case StepAction:
		return "action"
	case StepExpect:
		return "expect"
	case StepStart:
		return "start"
	default:
		return "unknown"
	}
}

type Step struct {
	Line    int
	Kind    StepKind
	Arg     string
	Payload engine.Payload
}

type LineError struct {
	Line int
	Err  string
}

type LoadStats struct {
	FileName     string
	TotalLines   int
	ValidLines   int
	InvalidLines int
	Errors       []LineError
}

// Parse reads a script. Invalid lines are skipped and reported in stats.
func Parse(content []byte) ([]Step, LoadStats) {
	stats := LoadStats{}
	if len(content) == 0 {
		return nil, stats
	}

	out := make([]Step, 0, 64)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if lineNo == 0 {
			raw = strings.TrimPrefix(raw, "\uFEFF")
		}
		lineNo++
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		stats.TotalLines++
		step, err := parseLine(raw)
		if err != nil {
			stats.InvalidLines++
			stats.Errors = append(stats.Errors, LineError{Line: lineNo, Err: err.Error()})
			continue
		}
		step.Line = lineNo
		stats.ValidLines++
		out = append(out, step)
	}
	return out, stats
}

func parseLine(raw string) (Step, error) {
	cmd, rest, _ := strings.Cut(raw, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(cmd) {
	case "scan":
		// An empty scan is legal: it exercises the empty input path.
		return Step{Kind: StepScan, Arg: rest}, nil
	case "expect":
		if rest == "" {
			return Step{}, fmt.Errorf("expect needs a state")
		}
		return Step{Kind: StepExpect, Arg: rest}, nil
	case "start":
		return Step{Kind: StepStart, Arg: rest}, nil
	case "action":
		name, body, _ := strings.Cut(rest, " ")
		if name == "" {
			return Step{}, fmt.Errorf("action needs a name")
		}
		step := Step{Kind: StepAction, Arg: name}
		if body = strings.TrimSpace(body); body != "" {
			dec := json.NewDecoder(strings.NewReader(body))
			dec.UseNumber()
			if err := dec.Decode(&step.Payload); err != nil {
				return Step{}, fmt.Errorf("action %s payload: %w", name, err)
			}
		}
		return step, nil
	default:
		return Step{}, fmt.Errorf("unknown command %q", cmd)
	}
}
