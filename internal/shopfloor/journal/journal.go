// Package journal keeps a sqlite log of every backend call, so a field
// session can be reconstructed after the fact.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS call_journal (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	scenario     TEXT NOT NULL,
	state        TEXT NOT NULL DEFAULT '',
	operation    TEXT NOT NULL,
	params       TEXT NOT NULL DEFAULT '{}',
	outcome      TEXT NOT NULL,
	next_state   TEXT NOT NULL DEFAULT '',
	message_type TEXT NOT NULL DEFAULT '',
	message_body TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_call_journal_session ON call_journal (session_id, created_at);
`

type Entry struct {
	ID          string    `db:"id" json:"id"`
	SessionID   string    `db:"session_id" json:"session_id"`
	Scenario    string    `db:"scenario" json:"scenario"`
	State       string    `db:"state" json:"state"`
	Operation   string    `db:"operation" json:"operation"`
	Params      string    `db:"params" json:"params"`
	Outcome     string    `db:"outcome" json:"outcome"`
	NextState   string    `db:"next_state" json:"next_state,omitempty"`
	MessageType string    `db:"message_type" json:"message_type,omitempty"`
	MessageBody string    `db:"message_body" json:"message_body,omitempty"`
	Error       string    `db:"error" json:"error,omitempty"`
	DurationMS  int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Store struct {
	db  *sqlx.DB
	log *slog.Logger
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens (or creates) the sqlite database at path.
func Open(path string, opts ...Option) (*Store, error) {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Params == "" {
		e.Params = "{}"
	}
	const q = `
		INSERT INTO call_journal
			(id, session_id, scenario, state, operation, params, outcome, next_state,
			 message_type, message_body, error, duration_ms, created_at)
		VALUES
			(:id, :session_id, :scenario, :state, :operation, :params, :outcome, :next_state,
			 :message_type, :message_body, :error, :duration_ms, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, q, e); err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, session_id, scenario, state, operation, params, outcome, next_state,
		       message_type, message_body, error, duration_ms, created_at
		FROM call_journal
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`
	var out []Entry
	if err := s.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	return out, nil
}

// Session returns the entries of one session in call order.
func (s *Store) Session(ctx context.Context, sessionID string) ([]Entry, error) {
	const q = `
		SELECT id, session_id, scenario, state, operation, params, outcome, next_state,
		       message_type, message_body, error, duration_ms, created_at
		FROM call_journal
		WHERE session_id = ?
		ORDER BY created_at, rowid`
	var out []Entry
	if err := s.db.SelectContext(ctx, &out, q, sessionID); err != nil {
		return nil, fmt.Errorf("query journal session: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Wrap records every call passing through next. A failing journal never
// fails the call.
func Wrap(next engine.Transport, store *Store, sessionID string) engine.Transport {
	return engine.TransportFunc(func(ctx context.Context, scenario, operation string, params engine.Params) (domain.Envelope, error) {
		start := time.Now()
		env, err := next.Call(ctx, scenario, operation, params)

		e := Entry{
			SessionID:  sessionID,
			Scenario:   scenario,
			Operation:  operation,
			NextState:  env.NextState,
			DurationMS: time.Since(start).Milliseconds(),
			CreatedAt:  start.UTC(),
		}
		if call, ok := engine.CallFromContext(ctx); ok {
			e.State = call.Ticket.State
		}
		if raw, mErr := json.Marshal(params); mErr == nil && params != nil {
			e.Params = string(raw)
		}
		switch {
		case err != nil:
			e.Outcome = "transport_error"
			e.Error = err.Error()
		case env.Rejected():
			e.Outcome = "rejected"
		default:
			e.Outcome = "ok"
		}
		if env.Message != nil {
			e.MessageType = string(env.Message.Type)
			e.MessageBody = env.Message.Body
		}
		// The call context may already be cancelled by navigation.
		if rErr := store.Record(context.WithoutCancel(ctx), e); rErr != nil {
			store.log.Warn("journal write failed", "operation", operation, "error", rErr)
		}
		return env, err
	})
}
