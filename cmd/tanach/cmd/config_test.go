package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/configs"
	"github.com/noamulm-dev/Tanach100/internal/config"
)

func TestConfigPathCmd(t *testing.T) {
	dir := isolate(t)

	stdout, _, err := execute(t, "config", "path")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".config", "tanach", "config.yaml"), strings.TrimSpace(stdout))
}

func TestConfigInitCmd_CreatesTemplate(t *testing.T) {
	// Given: no user config
	isolate(t)

	// When: running config init
	stdout, _, err := execute(t, "config", "init")

	// Then: the template is written
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created user configuration")
	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, configs.UserConfigTemplate, string(data))
}

func TestConfigInitCmd_ExistingWithoutForce(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "config", "init")
	require.NoError(t, err)

	stdout, _, err := execute(t, "config", "init")

	require.NoError(t, err)
	assert.Contains(t, stdout, "already exists")
	backups, err := config.ListBackups(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestConfigInitCmd_ForceUpgrades(t *testing.T) {
	// Given: an old config missing newer options
	isolate(t)
	path := config.GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("search:\n  default_scope: torah\n"), 0o644))

	// When: upgrading
	stdout, _, err := execute(t, "config", "init", "--force")

	// Then: a backup exists and the user's setting survived
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration upgraded")
	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	cfg, err := config.LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "torah", cfg.Search.DefaultScope)
	assert.Equal(t, config.CurrentVersion, cfg.Version)
}

func TestConfigShowCmd(t *testing.T) {
	// Given: a project config in the working directory
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tanach.yaml"), []byte("navigator:\n  default_window: 120\n"), 0o644))

	// When: showing as JSON
	stdout, _, err := execute(t, "config", "show", "--json")

	// Then: the project value is merged over defaults
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, 120, cfg.Navigator.DefaultWindow)
	assert.Equal(t, 10000, cfg.Navigator.MaxWindow)

	yamlOut, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, yamlOut, "default_window: 120")
}

func TestConfigShowCmd_InvalidConfig(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tanach.yaml"), []byte("search:\n  default_scope: apocrypha\n"), 0o644))

	_, _, err := execute(t, "config", "show")

	assert.Error(t, err)
}
