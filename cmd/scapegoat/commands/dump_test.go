package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDumpCommand_TextListing(t *testing.T) {
	t.Parallel()

	command := NewDumpCommand()

	var out bytes.Buffer

	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"2", "1", "3"})

	err := command.Execute()
	require.NoError(t, err)
	require.Contains(t, out.String(), "Node       #1")
	require.Contains(t, out.String(), "Key:       2")
	require.Contains(t, out.String(), "Left Child:")
}

func TestDumpCommand_Dot(t *testing.T) {
	t.Parallel()

	command := NewDumpCommand()

	var out bytes.Buffer

	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--dot", "2", "1", "3"})

	err := command.Execute()
	require.NoError(t, err)
	require.Contains(t, out.String(), "strict digraph scapegoat {")
	require.Contains(t, out.String(), `"1" [label="2"];`)
}

func TestDumpCommand_OutFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tree.txt")
	command := NewDumpCommand()

	var out bytes.Buffer

	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--ascending", "7", "--out", path})

	err := command.Execute()
	require.NoError(t, err)
	require.Contains(t, out.String(), "dump written to")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "Node")
}

func TestDumpCommand_FileInput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys.txt")
	require.NoError(t, os.WriteFile(path, []byte("5 2 9\n7\n"), 0o600))

	command := NewDumpCommand()

	var out bytes.Buffer

	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--file", path})

	err := command.Execute()
	require.NoError(t, err)
	require.Contains(t, out.String(), "Node")
	require.Contains(t, out.String(), "Key:       5")
}

func TestDumpCommand_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	command := NewDumpCommand()
	command.SetOut(io.Discard)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--file", path})

	err := command.Execute()
	require.ErrorIs(t, err, ErrNoDumpInput)
}

func TestDumpCommand_RandomKeys(t *testing.T) {
	t.Parallel()

	command := NewDumpCommand()

	var out bytes.Buffer

	command.SetOut(&out)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"--random", "5", "--seed", "42"})

	err := command.Execute()
	require.NoError(t, err)
	require.Contains(t, out.String(), "Node")
}

func TestDumpCommand_NoInput(t *testing.T) {
	t.Parallel()

	command := NewDumpCommand()
	command.SetOut(io.Discard)
	command.SetErr(io.Discard)
	command.SetArgs([]string{})

	err := command.Execute()
	require.ErrorIs(t, err, ErrNoDumpInput)
}

func TestDumpCommand_BadKey(t *testing.T) {
	t.Parallel()

	command := NewDumpCommand()
	command.SetOut(io.Discard)
	command.SetErr(io.Discard)
	command.SetArgs([]string{"12x"})

	err := command.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse key")
}
