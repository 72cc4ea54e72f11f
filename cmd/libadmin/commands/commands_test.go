package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/libadmin/cmd/libadmin/commands"
)

func TestNewResourceCommands(t *testing.T) {
	t.Parallel()

	cmds := commands.NewResourceCommands()

	names := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		names = append(names, cmd.Name())

		for _, sub := range []string{"list", "get", "create", "update", "delete"} {
			assert.NotNil(t, findSubcommand(cmd, sub), "%s should have %s", cmd.Name(), sub)
		}
	}

	assert.Equal(t, []string{"books", "authors", "students", "categories", "publishers", "loans"}, names)
}

func TestResourceListFlags(t *testing.T) {
	t.Parallel()

	for _, cmd := range commands.NewResourceCommands() {
		list := findSubcommand(cmd, "list")
		require.NotNil(t, list)

		for _, flag := range []string{"page", "size", "keyword", "sort-by", "sort-dir", "filter", "all"} {
			assert.NotNil(t, list.Flags().Lookup(flag), "%s list should have --%s", cmd.Name(), flag)
		}

		loanFlags := []string{"status", "student-id", "book-id"}
		for _, flag := range loanFlags {
			if cmd.Name() == "loans" {
				assert.NotNil(t, list.Flags().Lookup(flag))
			} else {
				assert.Nil(t, list.Flags().Lookup(flag))
			}
		}
	}
}

func TestResourceMutationCommands(t *testing.T) {
	t.Parallel()

	books := commands.NewResourceCommands()[0]

	create := findSubcommand(books, "create")
	require.NotNil(t, create)
	assert.Equal(t, "create", create.Use)
	assert.NotNil(t, create.Flags().Lookup("data"))
	assert.NotNil(t, create.Flags().Lookup("file"))

	update := findSubcommand(books, "update")
	require.NotNil(t, update)
	assert.Equal(t, "update ID", update.Use)
	assert.NotNil(t, update.Args)

	deleteCmd := findSubcommand(books, "delete")
	require.NotNil(t, deleteCmd)
	assert.Equal(t, "delete ID", deleteCmd.Use)

	forceFlag := deleteCmd.Flags().Lookup("force")
	require.NotNil(t, forceFlag)
	assert.Equal(t, "f", forceFlag.Shorthand)
	assert.Equal(t, "false", forceFlag.DefValue)
}

func TestNewTokenCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewTokenCommand()
	assert.Equal(t, "token", cmd.Use)
	assert.NotNil(t, findSubcommand(cmd, "status"))
	assert.NotNil(t, findSubcommand(cmd, "refresh"))
}

func TestNewConfigCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewConfigCommand()
	assert.Equal(t, "config", cmd.Use)
	assert.Len(t, cmd.Commands(), 3)
	assert.NotNil(t, findSubcommand(cmd, "show"))
	assert.NotNil(t, findSubcommand(cmd, "set"))
	assert.NotNil(t, findSubcommand(cmd, "unset"))
}

func TestNewLoginCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewLoginCommand()
	assert.Equal(t, "login", cmd.Use)

	username := cmd.Flags().Lookup("username")
	require.NotNil(t, username)
	assert.Equal(t, "u", username.Shorthand)
	assert.NotNil(t, cmd.Flags().Lookup("password"))
}

func TestNewLookupCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewLookupCommand()
	assert.Equal(t, "lookup COLLECTION TEXT...", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("size"))
	assert.Equal(t, "50ms", cmd.Flags().Lookup("interval").DefValue)
	require.Error(t, cmd.Args(cmd, []string{"books"}))
}

func TestNewReportsCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewReportsCommand()
	assert.Equal(t, "reports", cmd.Use)
	assert.Equal(t, "7", cmd.Flags().Lookup("days").DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("start"))
	assert.NotNil(t, cmd.Flags().Lookup("end"))
}
