package config

// RawWindowRule is a window rule as written in YAML. Missing sizes inherit
// default_width/default_height.
type RawWindowRule struct {
	Class  *string `yaml:"class"`
	Width  *int    `yaml:"width"`
	Height *int    `yaml:"height"`
}

// RawConfig mirrors Config with optional fields so that unset keys keep their
// defaults.
type RawConfig struct {
	LogLevel       *string                  `yaml:"log_level"`
	StateDir       *string                  `yaml:"state_dir"`
	Display        *string                  `yaml:"display"`
	XAuthority     *string                  `yaml:"xauthority"`
	BrowserCommand *string                  `yaml:"browser_command"`
	DefaultWidth   *int                     `yaml:"default_width"`
	DefaultHeight  *int                     `yaml:"default_height"`
	RecenterHotkey *string                  `yaml:"recenter_hotkey"`
	Windows        map[string]RawWindowRule `yaml:"windows"`
}
