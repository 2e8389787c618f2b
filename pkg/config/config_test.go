package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `yaml:"name" toml:"name"`
	Port int    `yaml:"port" toml:"port"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "dou")
	var s sample
	require.NoError(t, Load(writeFile(t, "c.yaml", "name: ${SAMPLE_NAME}\nport: 7\n"), &s))
	assert.Equal(t, sample{Name: "dou", Port: 7}, s)
}

func TestLoadTOML(t *testing.T) {
	var s sample
	require.NoError(t, Load(writeFile(t, "c.TOML", "name = \"dou\"\nport = 7\n"), &s))
	assert.Equal(t, sample{Name: "dou", Port: 7}, s)
}

func TestLoadValidationFails(t *testing.T) {
	var s sample
	err := Load(writeFile(t, "c.yaml", "port: 7\n"), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadParseError(t *testing.T) {
	var s sample
	err := Load(writeFile(t, "c.toml", "name = \n"), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadWithDefaults(t *testing.T) {
	def := writeFile(t, "default.yaml", "name: fallback\n")
	var s sample
	require.NoError(t, LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &s))
	assert.Equal(t, "fallback", s.Name)

	err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", &s)
	assert.Error(t, err, "no default to fall back to")
}
