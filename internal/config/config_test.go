package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolated(t *testing.T) []LoadOption {
	t.Helper()
	dir := t.TempDir()
	return []LoadOption{
		WithProjectPath(filepath.Join(dir, "intake.yml")),
		WithGlobalPath(filepath.Join(dir, "global", "intake.yml")),
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(isolated(t)...)
	require.NoError(t, err)

	want := Defaults()
	assert.Equal(t, &want, cfg)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.yml")
	project := filepath.Join(dir, "project.yml")

	require.NoError(t, os.WriteFile(global, []byte("addr: \":7000\"\ntheme: global\nlog_level: debug\n"), 0o644))
	require.NoError(t, os.WriteFile(project, []byte("addr: \":7100\"\nsession_ttl: 5m\n"), 0o644))
	t.Setenv("INTAKE_LOG_LEVEL", "error")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("addr", "", "")
	flags.String("theme", "", "")
	require.NoError(t, flags.Parse([]string{"--theme", "flag"}))

	cfg, err := Load(WithGlobalPath(global), WithProjectPath(project), WithFlags(flags))
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.Addr, "project overrides global")
	assert.Equal(t, "flag", cfg.Theme, "flag overrides files")
	assert.Equal(t, "error", cfg.LogLevel, "env overrides files")
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
}

func TestWriteProject_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intake.yml")
	cfg := Defaults()
	cfg.AdminToken = "s3cret"

	require.NoError(t, WriteProject(path, &cfg))

	loaded, err := Load(WithProjectPath(path), WithGlobalPath(""))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", loaded.AdminToken)
}

func TestGlobalPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/intake/intake.yml", GlobalPath())
}
