package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string   `yaml:"name" toml:"name"`
	Port    int      `yaml:"port" toml:"port"`
	Latency Duration `yaml:"latency" toml:"latency"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return os.ErrInvalid
	}
	return nil
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAMLExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "travel")
	path := writeFile(t, "c.yaml", "name: ${SAMPLE_NAME}\nport: 8080\nlatency: 250ms\n")

	var s sample
	require.NoError(t, Load(path, &s))
	assert.Equal(t, "travel", s.Name)
	assert.Equal(t, 8080, s.Port)
	assert.Equal(t, 250*time.Millisecond, s.Latency.Std())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "c.toml", "name = \"travel\"\nport = 9090\nlatency = \"1s\"\n")

	var s sample
	require.NoError(t, Load(path, &s))
	assert.Equal(t, 9090, s.Port)
	assert.Equal(t, time.Second, s.Latency.Std())
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeFile(t, "c.yaml", "name: x\n")

	var s sample
	err := Load(path, &s)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeFile(t, "c.yaml", "port: 1\nlatency: soon\n")

	var s sample
	assert.Error(t, Load(path, &s))
}

func TestLoadWithDefaults(t *testing.T) {
	def := writeFile(t, "default.yaml", "port: 7000\n")

	var s sample
	require.NoError(t, LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &s))
	assert.Equal(t, 7000, s.Port)

	assert.Error(t, LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", &s))
}
