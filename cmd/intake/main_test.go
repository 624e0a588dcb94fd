package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-intake/internal/store"
	"github.com/goliatone/go-intake/pkg/consultation"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	return t.TempDir()
}

func TestConfigShow_FlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("INTAKE_ADDR", ":7000")

	out := execute(t, "config", "show", "--addr", ":9999", "--admin-token", "secret")

	assert.Contains(t, out, ":9999")
	assert.NotContains(t, out, ":7000")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "secret")
}

func TestAdminWork_StartAndTotal(t *testing.T) {
	dir := isolate(t)

	out := execute(t, "admin", "work", "start", "acme", "--note", "kickoff", "--data-dir", dir, "--log-level", "error")
	assert.Contains(t, out, "started acme")

	out = execute(t, "admin", "work", "list", "acme", "--data-dir", dir, "--log-level", "error")
	assert.Contains(t, out, "kickoff")
	assert.Contains(t, out, "running")

	out = execute(t, "admin", "work", "stop", "acme", "--data-dir", dir, "--log-level", "error")
	assert.Contains(t, out, "stopped acme")
}

func TestAdminSubscribers_AddAndList(t *testing.T) {
	dir := isolate(t)

	execute(t, "admin", "subscribers", "add", "Ada@Example.com", "--data-dir", dir, "--log-level", "error")
	out := execute(t, "admin", "subscribers", "list", "--data-dir", dir, "--log-level", "error")
	assert.Contains(t, out, "ada@example.com")
}

func TestFormatChange(t *testing.T) {
	rec := consultation.Record{
		ID:                 "c-1",
		Name:               "Ada Lovelace",
		Email:              "ada@example.com",
		BusinessType:       "saas",
		ServicesInterested: []string{"seo", "branding"},
		Status:             consultation.StatusNew,
	}
	line := formatChange(store.Change[consultation.Record]{Key: "c-1", Op: store.OpPut, Value: rec})
	for _, want := range []string{"new", "c-1", "Ada Lovelace", "<ada@example.com>", "seo, branding"} {
		assert.True(t, strings.Contains(line, want), "missing %q in %q", want, line)
	}

	line = formatChange(store.Change[consultation.Record]{Key: "c-1", Op: store.OpDelete})
	assert.Contains(t, line, "deleted")
	assert.Contains(t, line, "c-1")
}
