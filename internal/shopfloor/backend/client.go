// Package backend is the HTTP transport to the shopfloor REST services.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
)

const maxBody = 4 << 20

// ErrUnavailable is wrapped by errors returned while the breaker is open.
var ErrUnavailable = errors.New("backend unavailable")

// HTTPError is a non-2xx reply.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend HTTP %d: %s", e.Status, e.Body)
}

type Options struct {
	BaseURL   string
	APIKey    string
	MenuID    int
	ProfileID int
	Timeout   time.Duration

	// BreakerFailures consecutive failures open the breaker for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	OnBreakerChange func(name string, to gobreaker.State)

	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	baseURL   string
	apiKey    string
	menuID    int
	profileID int
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
	log       *slog.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 12 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiKey:    strings.TrimSpace(opts.APIKey),
		menuID:    opts.MenuID,
		profileID: opts.ProfileID,
		http:      hc,
		log:       log,
	}
	failures := opts.BreakerFailures
	onChange := opts.OnBreakerChange
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if onChange != nil {
				onChange(name, to)
			}
		},
	})
	return c
}

// Call posts params to {base}/{scenario}/{operation} and decodes the
// envelope. Client errors (4xx) and calls the caller cancelled do not count
// against the breaker.
func (c *Client) Call(ctx context.Context, scenario, operation string, params engine.Params) (domain.Envelope, error) {
	var clientErr error
	out, err := c.breaker.Execute(func() (any, error) {
		env, err := c.post(ctx, scenario, operation, params)
		if err != nil && spared(ctx, err) {
			clientErr = err
			return nil, nil
		}
		return env, err
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.Envelope{}, fmt.Errorf("%s/%s: %w: %v", scenario, operation, ErrUnavailable, err)
	case err != nil:
		return domain.Envelope{}, err
	case clientErr != nil:
		return domain.Envelope{}, clientErr
	}
	return out.(domain.Envelope), nil
}

func spared(ctx context.Context, err error) bool {
	var he *HTTPError
	if errors.As(err, &he) && he.Status < 500 {
		return true
	}
	return errors.Is(ctx.Err(), context.Canceled)
}

func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) post(ctx context.Context, scenario, operation string, params engine.Params) (domain.Envelope, error) {
	if params == nil {
		params = engine.Params{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("encode %s params: %w", operation, err)
	}

	endpoint := c.baseURL + "/" + scenario + "/" + operation
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Envelope{}, err
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.apiKey != "" {
		req.Header.Set("API-KEY", c.apiKey)
	}
	if c.menuID > 0 {
		req.Header.Set("SERVICE-CTX-MENU-ID", strconv.Itoa(c.menuID))
	}
	if c.profileID > 0 {
		req.Header.Set("SERVICE-CTX-PROFILE-ID", strconv.Itoa(c.profileID))
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("%s/%s: %w", scenario, operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("%s/%s read body: %w", scenario, operation, err)
	}
	c.log.Debug("backend call",
		"endpoint", scenario+"/"+operation,
		"status", resp.StatusCode,
		"request_id", reqID,
		"took", time.Since(started),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Envelope{}, &HTTPError{Status: resp.StatusCode, Body: compactBody(respBody)}
	}

	var env domain.Envelope
	if len(bytes.TrimSpace(respBody)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(respBody, &env); err != nil {
		return domain.Envelope{}, fmt.Errorf("%s/%s decode: %w", scenario, operation, err)
	}
	return env.Unwrap(), nil
}

func compactBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 320 {
		cut := 320
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
