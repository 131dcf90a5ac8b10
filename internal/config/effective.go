package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig layers raw over the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.StateDir != nil {
		dir, err := expandHome(*raw.StateDir)
		if err != nil {
			return nil, &ValidationError{Path: "state_dir", Err: err}
		}
		cfg.StateDir = dir
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.BrowserCommand != nil {
		cfg.BrowserCommand = *raw.BrowserCommand
	}
	if raw.DefaultWidth != nil {
		cfg.DefaultWidth = *raw.DefaultWidth
	}
	if raw.DefaultHeight != nil {
		cfg.DefaultHeight = *raw.DefaultHeight
	}
	if raw.RecenterHotkey != nil {
		cfg.RecenterHotkey = strings.TrimSpace(*raw.RecenterHotkey)
	}

	for name, rw := range raw.Windows {
		rule := WindowRule{
			Width:  cfg.DefaultWidth,
			Height: cfg.DefaultHeight,
		}
		if rw.Class != nil {
			rule.Class = strings.TrimSpace(*rw.Class)
		}
		if rw.Width != nil {
			rule.Width = *rw.Width
		}
		if rw.Height != nil {
			rule.Height = *rw.Height
		}
		cfg.Windows[name] = rule
	}

	return cfg, nil
}

func expandHome(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
