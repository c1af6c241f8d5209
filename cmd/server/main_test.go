package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{
		{"serve"},
		{"user", "create"},
		{"backup", "export"},
		{"backup", "import"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	create, _, err := root.Find([]string{"user", "create"})
	require.NoError(t, err)
	role := create.Flags().Lookup("role")
	require.NotNil(t, role)
	assert.Equal(t, "admin", role.DefValue)
}
