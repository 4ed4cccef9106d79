package main

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		for _, c := range rootCmd.Commands() {
			c.Flags().VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
	})
	return rootCmd.Execute()
}

func TestRecomputeFlags(t *testing.T) {
	t.Run("needs a target", func(t *testing.T) {
		require.Error(t, execute(t, "recompute"))
	})

	t.Run("invoice and all are exclusive", func(t *testing.T) {
		require.Error(t, execute(t, "recompute", "--invoice", "3", "--all"))
	})

	t.Run("rejects non-positive ids before connecting", func(t *testing.T) {
		err := execute(t, "recompute", "--invoice", "-2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "positive id")
	})
}

func TestSuggestFlags(t *testing.T) {
	require.Error(t, execute(t, "suggest"))

	err := execute(t, "suggest", "--payment", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive id")

	err = execute(t, "suggest", "--payment", "7", "--limit", "20")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}
