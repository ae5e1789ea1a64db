package cliapp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRootCommandRegistersAllSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"extract-mask", "extract-text", "merge", "roundtrip", "translate"} {
		require.True(t, names[want], "missing subcommand %q", want)
	}
}
