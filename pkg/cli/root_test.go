package cli

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout runs fn and returns what it printed to stdout
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String(), runErr
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "bizauthz", root.Name)
	assert.NotNil(t, root.Flags)

	expectedCommands := []string{"migrate", "seed", "grants", "check", "serve-metrics"}
	for _, name := range expectedCommands {
		assert.Contains(t, root.Subcommands, name, "Expected subcommand %s to be registered", name)
		assert.NotNil(t, root.Subcommands[name].Run)
	}
	assert.Equal(t, len(expectedCommands), len(root.Subcommands))
}

func TestCommandUsage(t *testing.T) {
	root := NewRootCommand()

	output, err := captureStdout(t, root.usage)

	assert.NoError(t, err)
	assert.Contains(t, output, "Usage: bizauthz <command> [args]")
	assert.Contains(t, output, "Commands:")
	assert.Contains(t, output, "serve-metrics")

	// commands are listed alphabetically
	assert.Less(t, bytes.Index([]byte(output), []byte("check")), bytes.Index([]byte(output), []byte("grants")))
}

func TestCommandExecute_HelpFlag(t *testing.T) {
	root := NewRootCommand()

	for _, flag := range []string{"-h", "--help", "--HELP", "help"} {
		t.Run(flag, func(t *testing.T) {
			output, err := captureStdout(t, func() error {
				return root.ExecuteArgs([]string{flag})
			})
			assert.NoError(t, err)
			assert.Contains(t, output, "Usage: bizauthz")
		})
	}
}

func TestCommandExecute_NoArgs(t *testing.T) {
	root := NewRootCommand()

	oldArgs := os.Args
	os.Args = []string{"bizauthz"}
	defer func() { os.Args = oldArgs }()

	output, err := captureStdout(t, root.Execute)
	assert.NoError(t, err)
	assert.Contains(t, output, "Usage: bizauthz")
}

func TestCommandExecute_Unknown(t *testing.T) {
	root := NewRootCommand()

	err := root.ExecuteArgs([]string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: frobnicate")
}

func TestSetupLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, setupLogger("debug").GetLevel())
	assert.Equal(t, logrus.WarnLevel, setupLogger("warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, setupLogger("bogus").GetLevel())
}
