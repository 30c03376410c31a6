package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/etherpets/internal/agents"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRosterPrintsBuiltIn(t *testing.T) {
	out, err := execute(t, "roster", "--log-level", "error")
	require.NoError(t, err)

	seeds, err := agents.ParseRoster([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, agents.DefaultRoster(), seeds)
}

func TestRosterFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[pet]]
id = "p1"
name = "Pickle"
base_speed = 2.0
disposition = "Sadness"
`), 0o644))
	t.Setenv("PETSIM_ROSTER", path)

	out, err := execute(t, "roster", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Pickle")
	assert.NotContains(t, out, "Chester")
}

func TestRosterRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[pet]]\nid = \"p1\"\n"), 0o644))

	_, err := execute(t, "roster", "--roster", path, "--log-level", "error")
	require.Error(t, err)
	assert.ErrorIs(t, err, agents.ErrInvalidRoster)
}

func TestMapRendersGeneratedFarm(t *testing.T) {
	out, err := execute(t, "map", "--seed", "7", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "seed 7")
	assert.Contains(t, out, "spawn points")

	// The first line is a full row of the default 48-column farm.
	first, _, _ := strings.Cut(out, "\n")
	assert.Equal(t, 48, len([]rune(first)))
}
