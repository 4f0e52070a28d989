package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeRoot runs the root command with the given args, restoring its
// argument and output state afterwards so tests stay order-independent.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootHelp(t *testing.T) {
	help, err := executeRoot(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, help, "intersect")
	assert.Contains(t, help, "lookup")
	assert.Contains(t, help, "footprint")
	assert.Contains(t, help, "serve")
}

func TestFootprint_RequiresExactlyOneID(t *testing.T) {
	_, err := executeRoot(t, "footprint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}
