package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Loader finds and reads the configuration file.
type Loader struct {
	Version      string // "dev" enables the working directory lookup
	OverridePath string

	// homeDir and workDir are replaced in tests.
	homeDir func() (string, error)
	workDir func() (string, error)
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
		homeDir:      os.UserHomeDir,
		workDir:      os.Getwd,
	}
}

// Load reads the first configuration file found, or returns defaults when
// there is none. Environment overrides are applied on top.
func (l *Loader) Load() (*Config, error) {
	cfg := New()
	if path := l.Path(); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg, err = Parse(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// Path returns the configuration file in use, or "" when none exists.
func (l *Loader) Path() string {
	for _, p := range l.candidates() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where Save writes when no override is set.
func (l *Loader) DefaultPath() string {
	if l.OverridePath != "" {
		return l.OverridePath
	}
	home, err := l.homeDir()
	if err != nil {
		return ".passportframerc"
	}
	return filepath.Join(home, ".config", "passportframe", "config.rc")
}

func (l *Loader) candidates() []string {
	var out []string
	if l.OverridePath != "" {
		out = append(out, l.OverridePath)
	}
	if l.Version == "dev" {
		if wd, err := l.workDir(); err == nil {
			out = append(out, filepath.Join(wd, ".passportframerc"))
		}
	}
	if home, err := l.homeDir(); err == nil {
		out = append(out, filepath.Join(home, ".config", "passportframe", "config.rc"))
	}
	return out
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(cfg.String()), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
