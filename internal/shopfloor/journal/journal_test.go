package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, op := range []string{"start", "scan_document", "scan_line"} {
		require.NoError(t, s.Record(ctx, Entry{
			SessionID: "s-1",
			Scenario:  "checkout",
			Operation: op,
			Outcome:   "ok",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "scan_line", got[0].Operation)
	assert.Equal(t, "scan_document", got[1].Operation)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, "{}", got[0].Params)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Second)))
}

func TestWrapRecordsCalls(t *testing.T) {
	s := openStore(t)
	replies := []struct {
		env domain.Envelope
		err error
	}{
		{env: domain.Envelope{NextState: "select_line", Message: &domain.Message{Type: domain.MessageSuccess, Body: "found"}}},
		{env: domain.Envelope{Message: domain.ErrorMessage("Package not found")}},
		{err: errors.New("connection refused")},
	}
	i := 0
	inner := engine.TransportFunc(func(context.Context, string, string, engine.Params) (domain.Envelope, error) {
		r := replies[i]
		i++
		return r.env, r.err
	})
	tr := Wrap(inner, s, "session-7")

	call := engine.Call{
		Ticket:    engine.Ticket{Seq: 1, State: "select_document"},
		Scenario:  "checkout",
		Operation: "scan_document",
		Params:    engine.Params{"barcode": "PICK-1"},
	}
	for range replies {
		_ = call.Do(context.Background(), tr)
	}

	got, err := s.Session(context.Background(), "session-7")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "ok", got[0].Outcome)
	assert.Equal(t, "select_document", got[0].State)
	assert.Equal(t, "select_line", got[0].NextState)
	assert.JSONEq(t, `{"barcode":"PICK-1"}`, got[0].Params)
	assert.Equal(t, "success", got[0].MessageType)

	assert.Equal(t, "rejected", got[1].Outcome)
	assert.Equal(t, "Package not found", got[1].MessageBody)

	assert.Equal(t, "transport_error", got[2].Outcome)
	assert.Equal(t, "connection refused", got[2].Error)
}

func TestWrapSurvivesClosedStore(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())

	tr := Wrap(engine.TransportFunc(func(context.Context, string, string, engine.Params) (domain.Envelope, error) {
		return domain.Envelope{NextState: "start"}, nil
	}), s, "s")
	env, err := tr.Call(context.Background(), "inventory", "start", nil)
	require.NoError(t, err)
	assert.Equal(t, "start", env.NextState)
}
