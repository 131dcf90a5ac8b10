package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	log_level
//	state_dir
//	display
//	xauthority
//	browser_command
//	default_width
//	default_height
//	recenter_hotkey
//	windows
//	windows.<name>
//	windows.<name>.class
//	windows.<name>.width
//	windows.<name>.height
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if parts[0] != "windows" && len(parts) != 1 {
		return nil, fmt.Errorf("unknown config path %q", path)
	}
	switch parts[0] {
	case "log_level":
		return cfg.LogLevel, nil
	case "state_dir":
		return cfg.StateDir, nil
	case "display":
		return cfg.Display, nil
	case "xauthority":
		return cfg.XAuthority, nil
	case "browser_command":
		return cfg.BrowserCommand, nil
	case "default_width":
		return cfg.DefaultWidth, nil
	case "default_height":
		return cfg.DefaultHeight, nil
	case "recenter_hotkey":
		return cfg.RecenterHotkey, nil
	case "windows":
		return lookupWindow(cfg, path, parts[1:])
	}
	return nil, fmt.Errorf("unknown config path %q", path)
}

func lookupWindow(cfg *Config, path string, parts []string) (any, error) {
	if len(parts) == 0 {
		return cfg.Windows, nil
	}
	rule, ok := cfg.Windows[parts[0]]
	if !ok {
		return nil, fmt.Errorf("window %q is not configured", parts[0])
	}
	if len(parts) == 1 {
		return rule, nil
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("unknown config path %q", path)
	}
	switch parts[1] {
	case "class":
		return rule.Class, nil
	case "width":
		return rule.Width, nil
	case "height":
		return rule.Height, nil
	}
	return nil, fmt.Errorf("unknown config path %q", path)
}
