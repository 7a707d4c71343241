package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"tui", "serve", "replay", "classify", "scenarios"} {
		assert.Contains(t, names, want)
	}
}

func TestClassifyArgs(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"classify", "--location", "LOC-A", "--product", "BC-7", "--last", "BC-7", "LOC-A", "BC-7", "3", "???"})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "kind=location location=LOC-A")
	assert.Contains(t, lines[1], "kind=product line=1")
	assert.Contains(t, lines[2], "kind=quantity qty=3")
	assert.Contains(t, lines[3], "kind=unrecognized reason=no_match")
}

func TestClassifyStdin(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("\n5\n"))
	root.SetArgs([]string{"classify"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"5" -> "5" kind=unrecognized reason=quantity_without_product`)
}

func TestScenariosCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"scenarios"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "cluster_batch_picking\n")
}

func TestNewAppRejectsUnknownScenario(t *testing.T) {
	t.Setenv("SHOPFLOOR_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SHOPFLOOR_BACKEND_URL", "http://127.0.0.1:9")
	_, err := newApp(t.Context(), &rootFlags{scenario: "nope"}, false)
	assert.Error(t, err)
}

func TestNewAppOpensJournal(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SHOPFLOOR_ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("SHOPFLOOR_BACKEND_URL", "http://127.0.0.1:9")
	t.Setenv("SHOPFLOOR_JOURNAL_PATH", filepath.Join(dir, "journal.db"))
	t.Setenv("SHOPFLOOR_LOG_LEVEL", "error")

	a, err := newApp(t.Context(), &rootFlags{scenario: "checkout"}, false)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "checkout", a.cfg.Scenario)
	require.NotNil(t, a.journal)
	m, err := a.build("checkout")
	require.NoError(t, err)
	m.Start()
	assert.Equal(t, "checkout", m.Scenario().Name)

	_, err = os.Stat(filepath.Join(dir, "journal.db"))
	assert.NoError(t, err)
}
