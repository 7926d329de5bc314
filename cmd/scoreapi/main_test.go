package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/scoreapi/adapters/hasher"
	"github.com/artpar/scoreapi/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoreapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "scoreapi dev")
	assert.Contains(t, out, "commit:")
}

func TestTokenCommand(t *testing.T) {
	path := writeConfig(t, "auth:\n  salt: pepper\n  admin_login: root\n  admin_salt: \"7\"\n")
	secrets := auth.Secrets{Salt: "pepper", AdminLogin: "root", AdminSalt: "7"}

	t.Run("regular caller", func(t *testing.T) {
		out, err := execute(t, "token", "-c", path, "--account", "horns", "--login", "hoofs", "--at", "")
		require.NoError(t, err)

		want := auth.ExpectedToken(auth.Credentials{Account: "horns", Login: "hoofs"}, secrets, time.Now(), hasher.SHA512{}.Sum)
		assert.Equal(t, want, strings.TrimSpace(out))
	})

	t.Run("admin at fixed hour", func(t *testing.T) {
		out, err := execute(t, "token", "-c", path, "--account", "", "--login", "root", "--at", "2024-01-15T12:30:00Z")
		require.NoError(t, err)

		at := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)
		want := auth.ExpectedToken(auth.Credentials{Login: "root"}, secrets, at, hasher.SHA512{}.Sum)
		assert.Equal(t, want, strings.TrimSpace(out))
	})

	t.Run("bad time", func(t *testing.T) {
		_, err := execute(t, "token", "-c", path, "--login", "root", "--at", "noon")
		assert.Error(t, err)
	})
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "kv.db")
		path := writeConfig(t, "store:\n  backend: sqlite\n  sqlite:\n    dsn: \""+dbPath+"\"\n")

		out, err := execute(t, "validate", "-c", path, "--check-store")
		require.NoError(t, err)
		assert.Contains(t, out, "Store: sqlite")
		assert.Contains(t, out, "Store reachable")
		assert.Contains(t, out, "Configuration is valid.")
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 70000\n")

		out, err := execute(t, "validate", "-c", path, "--check-store=false")
		assert.Error(t, err)
		assert.Contains(t, out, "Error:")
	})
}

func TestInterestsCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kv.db")
	path := writeConfig(t, "store:\n  backend: sqlite\n  sqlite:\n    dsn: \""+dbPath+"\"\n")

	out, err := execute(t, "interests", "set", "-c", path, "42", "books", "hi-tech")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored 2 interests for client 42")

	out, err = execute(t, "interests", "get", "-c", path, "42")
	require.NoError(t, err)
	assert.JSONEq(t, `["books","hi-tech"]`, out)

	out, err = execute(t, "interests", "get", "-c", path, "7")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	_, err = execute(t, "interests", "get", "-c", path, "abc")
	assert.Error(t, err)
}
