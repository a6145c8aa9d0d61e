package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate unsets the variables Load reads and returns a scratch directory.
// Values a dotenv file sets are restored by t.Setenv's cleanup.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{EnvConfig, EnvAddr, EnvAPIBase, EnvDBPath, EnvAPITimeout, EnvOrganizationID, EnvLogLevel} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return t.TempDir()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load([]string{"--env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	yamlPath := writeFile(t, dir, "board.yaml", `
addr: ":9000"
api_base: "http://yaml.example:8000"
db_path: "/tmp/yaml.db"
api_timeout: 5s
organization_id: 3
`)
	envPath := writeFile(t, dir, "board.env", "ASSIGNBOARD_DB_PATH=/tmp/dotenv.db\nASSIGNBOARD_ORG_ID=4\n")
	t.Setenv(EnvOrganizationID, "5")

	cfg, err := Load([]string{"--config", yamlPath, "--env-file", envPath, "--addr", ":9100"})
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Addr, "flag beats everything")
	assert.Equal(t, "http://yaml.example:8000", cfg.APIBase, "yaml beats defaults")
	assert.Equal(t, "/tmp/dotenv.db", cfg.DBPath, "dotenv beats yaml")
	assert.Equal(t, int64(5), cfg.OrganizationID, "environment beats dotenv")
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvConfig, writeFile(t, dir, "board.yaml", "log_level: debug\n"))

	cfg, err := Load([]string{"--env-file", ""})
	require.NoError(t, err)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadErrors(t *testing.T) {
	var tts = []struct {
		Name string
		Env  map[string]string
		Args []string
	}{
		{Name: "bad timeout", Env: map[string]string{EnvAPITimeout: "soon"}},
		{Name: "bad org", Env: map[string]string{EnvOrganizationID: "acme"}},
		{Name: "zero org", Args: []string{"--org-id", "0"}},
		{Name: "bad base", Env: map[string]string{EnvAPIBase: "localhost:8000"}},
		{Name: "bad level", Args: []string{"--log-level", "loud"}},
		{Name: "missing file", Args: []string{"--config", "/nonexistent/board.yaml"}},
		{Name: "unknown flag", Args: []string{"--verbose"}},
	}

	for _, tt := range tts {
		t.Run(tt.Name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.Env {
				t.Setenv(k, v)
			}
			_, err := Load(append([]string{"--env-file", ""}, tt.Args...))
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "board.yaml", "addr: [unterminated\n")
	_, err := Load([]string{"--config", path, "--env-file", ""})
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadHelp(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}
