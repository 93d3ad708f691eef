package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := Load(writeConfig(t, "Addr: :9090\n"))
		require.NoError(t, err)
		require.Equal(t, ":9090", c.Addr)
		require.Equal(t, "info", c.Log.Level)
		require.True(t, c.Log.Pretty)
		require.False(t, c.Search.Parallel)
		require.Empty(t, c.Mongo.URL)
		require.Equal(t, "tictactoe", c.Mongo.Database)
		require.Equal(t, "games", c.Mongo.Collection)
		require.Empty(t, c.PprofAddr)
	})

	t.Run("overrides", func(t *testing.T) {
		c, err := Load(writeConfig(t, `
Addr: 127.0.0.1:8000
Log:
  Level: debug
  Pretty: false
Search:
  Parallel: true
Mongo:
  URL: mongodb://localhost:27017
  Collection: finished
PprofAddr: localhost:6060
`))
		require.NoError(t, err)
		require.Equal(t, "debug", c.Log.Level)
		require.False(t, c.Log.Pretty)
		require.True(t, c.Search.Parallel)
		require.Equal(t, "mongodb://localhost:27017", c.Mongo.URL)
		require.Equal(t, "tictactoe", c.Mongo.Database)
		require.Equal(t, "finished", c.Mongo.Collection)
		require.Equal(t, "localhost:6060", c.PprofAddr)
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "Log:\n  Level: loud\n"))
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
