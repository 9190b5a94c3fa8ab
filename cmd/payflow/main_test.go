package main

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRunsServeByDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	for _, args := range [][]string{
		{"--config", missing},
		{"serve", "--config", missing},
	} {
		root := newRootCommand()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(args)

		err := root.Execute()
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "read config", args)
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "migrate", "seed", "retry-failed", "failed-payslips"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
