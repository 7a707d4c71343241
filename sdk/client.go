package sdk

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/scenario"
	"shopfloor_go/internal/shopfloor/backend"
	"shopfloor_go/internal/shopfloor/session"
)

// Client is a high-level facade over one scan session for Go applications.
type Client struct {
	sess   *session.Session
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	closed  bool
	lastMsg domain.Message

	views    chan ViewEvent
	messages chan MessageEvent
	errs     chan error
}

// NewClient starts a session loop that sends backend calls through t.
// Call Start to activate a scenario and Close when done.
func NewClient(t Transport, opts Options) (*Client, error) {
	if t == nil {
		return nil, fmt.Errorf("sdk: transport is required")
	}
	opts = normalizeOptions(opts)
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	c := &Client{
		done:     make(chan struct{}),
		views:    make(chan ViewEvent, opts.Buffer),
		messages: make(chan MessageEvent, opts.Buffer),
		errs:     make(chan error, 64),
	}
	c.sess = session.New(session.Options{
		ID:          opts.SessionID,
		Transport:   t,
		Logger:      opts.Logger,
		Scenario:    opts.Scenario,
		Timeout:     opts.Timeout,
		QtyCeiling:  opts.QtyCeiling,
		PickedLimit: opts.PickedLimit,
	})
	c.sess.SetNotifier(c)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go func() {
		defer close(c.done)
		c.sess.Run(ctx)
	}()
	return c, nil
}

// NewHTTPClient builds a client whose calls go to a JSON backend.
func NewHTTPClient(b BackendOptions, opts Options) (*Client, error) {
	if b.BaseURL == "" {
		return nil, fmt.Errorf("sdk: backend url is required")
	}
	t := backend.New(backend.Options{
		BaseURL:   b.BaseURL,
		APIKey:    b.APIKey,
		MenuID:    b.MenuID,
		ProfileID: b.ProfileID,
		Timeout:   b.Timeout,
		Logger:    b.Logger,
	})
	return NewClient(t, opts)
}

// Scenarios lists the scenario names Start accepts.
func Scenarios() []string {
	return scenario.Names()
}

func (c *Client) SessionID() string {
	return c.sess.ID()
}

func (c *Client) Views() <-chan ViewEvent {
	return c.views
}

func (c *Client) Messages() <-chan MessageEvent {
	return c.messages
}

func (c *Client) Errors() <-chan error {
	return c.errs
}

// Start activates a scenario. An empty name reuses the configured one.
func (c *Client) Start(ctx context.Context, usage string) (View, error) {
	v, err := c.sess.Start(ctx, usage)
	c.emitErr(err)
	return v, err
}

// Scan feeds one scanned or typed text. It returns once the backend call
// the scan triggered, if any, has been applied.
func (c *Client) Scan(ctx context.Context, text string) (View, error) {
	v, err := c.sess.Scan(ctx, text)
	c.emitErr(err)
	return v, err
}

// Action runs a named UI action such as "select" or "back".
func (c *Client) Action(ctx context.Context, name string, p Payload) (View, error) {
	v, err := c.sess.Action(ctx, name, p)
	c.emitErr(err)
	return v, err
}

func (c *Client) View(ctx context.Context) (View, error) {
	return c.sess.View(ctx)
}

func (c *Client) Status() Stats {
	return c.sess.Status()
}

// Close stops the session loop. Pending calls fail with session.ErrClosed.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	<-c.done
}
