package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	root := RootCommand()
	require.Equal(t, "omcm", root.Name)

	seen := map[string]bool{}
	for _, c := range root.Commands {
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Usage, "command %s has no usage", c.Name)
		assert.False(t, seen[c.Name], "duplicate command %s", c.Name)
		seen[c.Name] = true
	}
	require.True(t, seen["hook"])
	require.True(t, seen[root.DefaultCommand])
}
