package sdk

import (
	"log/slog"
	"time"

	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/shopfloor/session"
)

type (
	// View is the screen a scenario currently shows.
	View = engine.View
	// Payload carries action arguments such as {"id": 7}.
	Payload = engine.Payload
	// Params is the body sent with a backend operation.
	Params = engine.Params
	// Transport performs backend operations for the client.
	Transport = engine.Transport
	// TransportFunc adapts a function to Transport.
	TransportFunc = engine.TransportFunc
	// Stats is a snapshot of session counters.
	Stats = session.Stats
)

// Options controls how a Client runs its scenario session.
type Options struct {
	SessionID   string
	Scenario    string
	Timeout     time.Duration
	QtyCeiling  int
	PickedLimit int
	Buffer      int
	Logger      *slog.Logger
}

// DefaultOptions returns a config suited to a handheld scanner.
func DefaultOptions() Options {
	return Options{
		Timeout: 12 * time.Second,
		Buffer:  256,
	}
}

func normalizeOptions(opts Options) Options {
	if opts.Timeout <= 0 {
		opts.Timeout = 12 * time.Second
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts
}

// ViewEvent is emitted every time the session publishes a new view.
type ViewEvent struct {
	When time.Time
	View View
}

// MessageEvent is emitted when the backend or the scenario shows a new
// operator message.
type MessageEvent struct {
	When     time.Time
	Scenario string
	State    string
	Type     string
	Body     string
}

// BackendOptions describes the HTTP backend a client talks to.
type BackendOptions struct {
	BaseURL   string
	APIKey    string
	MenuID    int
	ProfileID int
	Timeout   time.Duration
	Logger    *slog.Logger
}
