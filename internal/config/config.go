// Package config holds the DNSC's operational configuration: knobs that
// govern how exports touch the filesystem and whether optional external
// tooling is invoked. None of these values ever participate in a
// fingerprint, signature, or canonical payload — they are read once at
// startup by the owning application, never threaded into the encoder,
// applier, or proof builder.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all DNSC operational configuration.
type Config struct {
	// Export controls Proof Pack / DOCX export behavior.
	Export ExportConfig `yaml:"export"`

	// Logging controls telemetry verbosity.
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig governs the scratch-directory and PDF-compiler policy used
// by the Result/Proof Artifact Builder (component I). It never affects the
// bytes of proof.json, proof.tex, or the manifest/signature pair.
type ExportConfig struct {
	// ScratchDir is the directory exports use for transient files before
	// they are bundled into the deterministic archive. Created and removed
	// per export; never left holding state between runs.
	ScratchDir string `yaml:"scratch_dir"`

	// PDFCompilerPath is the path to an external LaTeX compiler binary.
	// Empty disables PDF generation; absence of the binary at this path is
	// a recoverable condition, never a fatal one (spec.md §5).
	PDFCompilerPath string `yaml:"pdf_compiler_path"`

	// PDFCompilerTimeoutSeconds bounds the external compiler invocation.
	PDFCompilerTimeoutSeconds int `yaml:"pdf_compiler_timeout_seconds"`
}

// LoggingConfig controls telemetry verbosity only.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			ScratchDir:                os.TempDir(),
			PDFCompilerPath:           "",
			PDFCompilerTimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Debug: false,
		},
	}
}

// Load reads a YAML configuration file, defaulting any field the file does
// not set. A field the file sets explicitly, even to a zero value, replaces
// the default.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
