package config

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/1broseidon/winkeep/internal/platform"
)

// WindowRule describes a window whose geometry winkeep keeps.
type WindowRule struct {
	// Class is matched against the WM_CLASS class name.
	Class  string `yaml:"class"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// DefaultSize returns the size used when nothing usable was persisted.
func (r WindowRule) DefaultSize() platform.Size {
	return platform.Size{Width: r.Width, Height: r.Height}
}

// Config is the effective configuration.
type Config struct {
	LogLevel       string                `yaml:"log_level"`
	StateDir       string                `yaml:"state_dir,omitempty"`
	Display        string                `yaml:"display,omitempty"`
	XAuthority     string                `yaml:"xauthority,omitempty"`
	BrowserCommand string                `yaml:"browser_command"`
	DefaultWidth   int                   `yaml:"default_width"`
	DefaultHeight  int                   `yaml:"default_height"`
	RecenterHotkey string                `yaml:"recenter_hotkey,omitempty"`
	Windows        map[string]WindowRule `yaml:"windows"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:       "info",
		BrowserCommand: "xdg-open",
		DefaultWidth:   1000,
		DefaultHeight:  600,
		Windows:        map[string]WindowRule{},
	}
}

// DefaultSize is the fallback size for windows without their own rule.
func (c *Config) DefaultSize() platform.Size {
	return platform.Size{Width: c.DefaultWidth, Height: c.DefaultHeight}
}

// WindowNames returns configured window names in sorted order.
func (c *Config) WindowNames() []string {
	names := make([]string, 0, len(c.Windows))
	for name := range c.Windows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RuleFor returns the rule for name. Unknown names get the global default size.
func (c *Config) RuleFor(name string) (WindowRule, bool) {
	if rule, ok := c.Windows[name]; ok {
		return rule, true
	}
	return WindowRule{Width: c.DefaultWidth, Height: c.DefaultHeight}, false
}

// MatchClass returns the name of the first rule, in name order, whose class
// matches wmClass case-insensitively.
func (c *Config) MatchClass(wmClass string) (string, bool) {
	wmClass = strings.TrimSpace(wmClass)
	if wmClass == "" {
		return "", false
	}
	for _, name := range c.WindowNames() {
		if strings.EqualFold(c.Windows[name].Class, wmClass) {
			return name, true
		}
	}
	return "", false
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if strings.TrimSpace(c.BrowserCommand) == "" {
		return &ValidationError{Path: "browser_command", Err: fmt.Errorf("browser_command must not be empty")}
	}
	if c.DefaultWidth <= 0 {
		return &ValidationError{Path: "default_width", Err: fmt.Errorf("default_width must be > 0")}
	}
	if c.DefaultHeight <= 0 {
		return &ValidationError{Path: "default_height", Err: fmt.Errorf("default_height must be > 0")}
	}
	if c.Windows == nil {
		return &ValidationError{Path: "windows", Err: fmt.Errorf("windows must not be null")}
	}

	classes := make(map[string]string)
	for _, name := range c.WindowNames() {
		rule := c.Windows[name]
		if err := validateWindowName(name); err != nil {
			return &ValidationError{Path: "windows." + name, Err: err}
		}
		if strings.TrimSpace(rule.Class) == "" {
			return &ValidationError{Path: "windows." + name + ".class", Err: fmt.Errorf("class is required")}
		}
		if rule.Width <= 0 {
			return &ValidationError{Path: "windows." + name + ".width", Err: fmt.Errorf("width must be > 0")}
		}
		if rule.Height <= 0 {
			return &ValidationError{Path: "windows." + name + ".height", Err: fmt.Errorf("height must be > 0")}
		}
		key := strings.ToLower(rule.Class)
		if other, ok := classes[key]; ok {
			return &ValidationError{Path: "windows." + name + ".class", Err: fmt.Errorf("class %q is already used by window %q", rule.Class, other)}
		}
		classes[key] = name
	}
	return nil
}

func validateWindowName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("window name is required")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid window name %q", name)
	}
	return nil
}
