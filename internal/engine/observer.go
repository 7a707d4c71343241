package engine

import "shopfloor_go/internal/scan"

// Observer receives machine events, typically for metrics.
type Observer interface {
	Scanned(scenario, state string, kind scan.Kind)
	Transitioned(scenario, from, to string)
	Discarded(scenario, reason string)
}

type nopObserver struct{}

func (nopObserver) Scanned(string, string, scan.Kind)  {}
func (nopObserver) Transitioned(string, string, string) {}
func (nopObserver) Discarded(string, string)            {}
