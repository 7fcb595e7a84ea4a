package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Color)
	assert.Nil(t, cfg.IndentWidth)
}

func TestLoadDecodesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("color = true\nindent_width = 4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Color)
	assert.True(t, *cfg.Color)
	require.NotNil(t, cfg.IndentWidth)
	assert.Equal(t, 4, *cfg.IndentWidth)
}
