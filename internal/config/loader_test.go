package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Helper function to create a temporary config file
func createTempConfigFile(t *testing.T, dir string, content DeployerConfig) string {
	t.Helper()
	tempFilePath := filepath.Join(dir, configFileName)
	data, err := yaml.Marshal(&content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tempFilePath, data, 0644))
	return tempFilePath
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	loaded, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loaded)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfg := GetDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.Metrics.Address = "127.0.0.1:9464"
	cfg.Orchestrator.FanOut = FanOutSingleWriter
	cfg.Packages = []string{"ocl"}
	cfg.ComponentTypes = []ComponentTypeConfig{{
		Name:  "Sensor",
		Ports: []PortConfig{{Name: "out", Direction: PortDirectionOutput}},
	}}
	createTempConfigFile(t, dir, cfg)

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, "text", loaded.LogFormat, "defaults survive partial files")
	assert.Equal(t, FanOutSingleWriter, loaded.Orchestrator.FanOut)
	require.Len(t, loaded.ComponentTypes, 1)
	assert.Equal(t, "out", loaded.ComponentTypes[0].Ports[0].Name)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	createTempConfigFile(t, dir, GetDefaultConfig())

	t.Setenv("DEPLOYER_LOG_LEVEL", "warn")
	t.Setenv("DEPLOYER_LOG_FORMAT", "json")
	t.Setenv("DEPLOYER_METRICS_ADDR", ":9999")
	t.Setenv("DEPLOYER_FANOUT", FanOutSingleWriter)
	t.Setenv("DEPLOYER_SCOPE_CONNECTIONS", "true")

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", loaded.LogLevel)
	assert.Equal(t, "json", loaded.LogFormat)
	assert.Equal(t, ":9999", loaded.Metrics.Address)
	assert.Equal(t, FanOutSingleWriter, loaded.Orchestrator.FanOut)
	assert.True(t, loaded.Orchestrator.ScopeConnectionsToGroup)
}

func TestLoadConfig_BadScopeOverride(t *testing.T) {
	t.Setenv("DEPLOYER_SCOPE_CONNECTIONS", "maybe")
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "DEPLOYER_SCOPE_CONNECTIONS")
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("logLevel: [unclosed"), 0644))
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.LogLevel = "loud"
	cfg.LogFormat = "xml"
	cfg.Metrics.Address = "nope"
	cfg.Orchestrator.FanOut = "some"
	cfg.ComponentTypes = []ComponentTypeConfig{
		{Name: "A", Ports: []PortConfig{{Name: "p", Direction: "sideways"}, {Name: "p", Direction: "input"}}},
		{Name: "A"},
		{Name: "bad name"},
	}

	err := Validate(cfg)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{
		"logLevel",
		"logFormat",
		"metrics.address",
		"orchestrator.fanOut",
		"componentTypes[0].ports[0].direction",
		"componentTypes[0].ports[1].name",
		"componentTypes[1].name",
		"componentTypes[2].name",
	}, fields)
}

func TestGetDefaultConfigPath(t *testing.T) {
	original := osUserHomeDir
	defer func() { osUserHomeDir = original }()
	osUserHomeDir = func() (string, error) { return "/home/test", nil }

	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/test/.config/deployer", path)
}
