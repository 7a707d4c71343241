package engine

import (
	"errors"
	"fmt"
)

var (
	ErrBusy          = errors.New("a backend call is already in flight")
	ErrNotStarted    = errors.New("scenario not started")
	ErrUnknownState  = errors.New("unknown state")
	ErrUnknownAction = errors.New("unknown action")
)

type ErrorKind uint8

const (
	// ErrClassification is a scan nothing on screen matched.
	ErrClassification ErrorKind = iota + 1
	// ErrContext is a valid token scanned at the wrong moment.
	ErrContext
	// ErrRejected is a business rule refusal reported by the backend.
	ErrRejected
	// ErrTransport is a failed round trip.
	ErrTransport
)

func (k ErrorKind) String() string {
	switch k {
	case ErrClassification:
		return "classification"
	case ErrContext:
		return "context"
	case ErrRejected:
		return "rejected"
	case ErrTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// ScanError is an operator-facing, recoverable error. The machine stays in
// the same state with its selection intact.
type ScanError struct {
	Kind    ErrorKind
	Message string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func IsKind(err error, kind ErrorKind) bool {
	var se *ScanError
	return errors.As(err, &se) && se.Kind == kind
}
