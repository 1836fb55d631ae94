package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/reconcile/internal/config"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir))

	for _, d := range []string{"exports/idex", "exports/exchange", "logs"} {
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(d)))
		require.NoError(t, err, d)
		assert.True(t, info.IsDir())
	}

	cfg, err := config.Load(filepath.Join(dir, "reconcile.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	data, err := os.ReadFile(filepath.Join(dir, "sessions.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sessions: []\n", string(data))
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"init", dir})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(dir, "reconcile.yaml"))
	require.NoError(t, err)
}
