package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.Logging.Debug)
	assert.Empty(t, cfg.Export.PDFCompilerPath)
	assert.Equal(t, 30, cfg.Export.PDFCompilerTimeoutSeconds)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dnsc.yaml")
	content := []byte("export:\n  pdf_compiler_path: /usr/bin/pdflatex\nlogging:\n  debug: true\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/pdflatex", cfg.Export.PDFCompilerPath)
	assert.True(t, cfg.Logging.Debug)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
