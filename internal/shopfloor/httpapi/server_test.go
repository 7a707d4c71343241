package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/shopfloor/journal"
	"shopfloor_go/internal/shopfloor/session"
)

type fakeSession struct {
	state   string
	scanned []string
	action  string
	payload engine.Payload
	usage   string
	err     error
}

func (f *fakeSession) view() engine.View {
	return engine.View{Scenario: "checkout", State: f.state}
}

func (f *fakeSession) Start(_ context.Context, usage string) (engine.View, error) {
	f.usage = usage
	f.state = "select_document"
	return f.view(), f.err
}

func (f *fakeSession) Scan(_ context.Context, text string) (engine.View, error) {
	f.scanned = append(f.scanned, text)
	return f.view(), f.err
}

func (f *fakeSession) Action(_ context.Context, name string, p engine.Payload) (engine.View, error) {
	f.action, f.payload = name, p
	return f.view(), f.err
}

func (f *fakeSession) View(context.Context) (engine.View, error) { return f.view(), f.err }

func (f *fakeSession) Status() session.Stats {
	return session.Stats{ID: "s-1", Scenario: "checkout", State: f.state}
}

type fakeJournal struct{ limit int }

func (f *fakeJournal) Recent(_ context.Context, limit int) ([]journal.Entry, error) {
	f.limit = limit
	return []journal.Entry{{ID: "e-1", Operation: "scan_document", Outcome: "ok"}}, nil
}

func newServer(sess Session, j Journal) *Server {
	gin.SetMode(gin.TestMode)
	return New(Options{Session: sess, Journal: j, Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})})
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, out := do(t, newServer(&fakeSession{}, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestScanForwardsText(t *testing.T) {
	sess := &fakeSession{state: "select_line"}
	rec, out := do(t, newServer(sess, nil), http.MethodPost, "/scan", `{"text":"PICK-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"PICK-1"}, sess.scanned)
	assert.Equal(t, true, out["ok"])
	view := out["view"].(map[string]any)
	assert.Equal(t, "select_line", view["state"])
}

func TestScanRequiresText(t *testing.T) {
	rec, out := do(t, newServer(&fakeSession{}, nil), http.MethodPost, "/scan", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, out["ok"])
}

func TestOperatorErrorIsOK(t *testing.T) {
	sess := &fakeSession{state: "select_line", err: &engine.ScanError{Kind: engine.ErrClassification, Message: "Unknown barcode"}}
	rec, out := do(t, newServer(sess, nil), http.MethodPost, "/scan", `{"text":"??"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["ok"])
	assert.Contains(t, out["error"], "Unknown barcode")
	assert.NotNil(t, out["view"])
}

func TestClosedSessionIsUnavailable(t *testing.T) {
	rec, _ := do(t, newServer(&fakeSession{err: session.ErrClosed}, nil), http.MethodGet, "/view", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestActionPayload(t *testing.T) {
	sess := &fakeSession{}
	rec, _ := do(t, newServer(sess, nil), http.MethodPost, "/action", `{"name":"select","payload":{"id":12}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "select", sess.action)
	assert.Equal(t, 12, sess.payload.Int("id"))
}

func TestScenarioStarts(t *testing.T) {
	sess := &fakeSession{}
	rec, out := do(t, newServer(sess, nil), http.MethodPost, "/scenario", `{"usage":"checkout"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "checkout", sess.usage)
	assert.Equal(t, "select_document", out["view"].(map[string]any)["state"])
}

func TestStats(t *testing.T) {
	_, out := do(t, newServer(&fakeSession{state: "summary"}, nil), http.MethodGet, "/stats", "")
	assert.Equal(t, "s-1", out["id"])
	assert.Equal(t, "summary", out["state"])
}

func TestJournal(t *testing.T) {
	rec, _ := do(t, newServer(&fakeSession{}, nil), http.MethodGet, "/journal", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	j := &fakeJournal{}
	rec, out := do(t, newServer(&fakeSession{}, j), http.MethodGet, "/journal?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, j.limit)
	assert.Len(t, out["entries"], 1)
}

func TestMetricsRoute(t *testing.T) {
	rec, _ := do(t, newServer(&fakeSession{}, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}
