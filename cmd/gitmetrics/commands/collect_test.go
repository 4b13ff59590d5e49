package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitmetrics/cmd/gitmetrics/commands"
)

func TestCollectCommand_FlagsRegistered(t *testing.T) {
	t.Parallel()

	cmd := commands.NewCollectCommand()

	flags := []string{
		"config",
		"ssh-key-file",
		"offline",
		"disable-cache",
		"force-latest-commit",
		"ignore-mismatched-url",
		"worktree-pool-size",
		"parallelism",
	}

	for _, flagName := range flags {
		t.Run(flagName, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(flagName)
			require.NotNil(t, flag, "flag --%s should be registered", flagName)
		})
	}
}

func TestCollectCommand_OfflineFlag(t *testing.T) {
	t.Parallel()

	cmd := commands.NewCollectCommand()

	require.NoError(t, cmd.Flags().Set("offline", "true"))

	val, err := cmd.Flags().GetBool("offline")
	require.NoError(t, err)
	assert.True(t, val)
}

func TestCollectCommand_WorktreePoolSizeFlag(t *testing.T) {
	t.Parallel()

	cmd := commands.NewCollectCommand()

	require.NoError(t, cmd.Flags().Set("worktree-pool-size", "8"))

	val, err := cmd.Flags().GetInt("worktree-pool-size")
	require.NoError(t, err)
	assert.Equal(t, 8, val)
}

func TestRootCommand_HasCollectAndVersionSubcommands(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand()

	collect, _, err := root.Find([]string{"collect"})
	require.NoError(t, err)
	assert.Equal(t, "collect", collect.Name())

	version, _, err := root.Find([]string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "version", version.Name())
}
