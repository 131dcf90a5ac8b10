package mcp

import (
	"github.com/1broseidon/winkeep/internal/placement"
	"github.com/1broseidon/winkeep/internal/platform"
)

// ListDisplaysInput is the input for the list_displays tool.
type ListDisplaysInput struct{}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []platform.Display `json:"displays"`
}

// ListWindowStatesInput is the input for the list_window_states tool.
type ListWindowStatesInput struct{}

// WindowStateInfo describes one persisted window geometry.
type WindowStateInfo struct {
	Name       string        `json:"name"`
	Key        string        `json:"key"`
	Rect       platform.Rect `json:"rect"`
	Configured bool          `json:"configured"`
}

// ListWindowStatesOutput is the output for the list_window_states tool.
type ListWindowStatesOutput struct {
	StateDir string            `json:"state_dir,omitempty"`
	States   []WindowStateInfo `json:"states"`
}

// GetWindowStateInput is the input for the get_window_state tool.
type GetWindowStateInput struct {
	Name string `json:"name" jsonschema:"required,Window name as configured under windows (e.g. main)"`
}

// GetWindowStateOutput is the output for the get_window_state tool.
type GetWindowStateOutput struct {
	Name  string         `json:"name"`
	Key   string         `json:"key"`
	Found bool           `json:"found"`
	Rect  *platform.Rect `json:"rect,omitempty"`
}

// ResolvePlacementInput is the input for the resolve_placement tool.
type ResolvePlacementInput struct {
	Name      string         `json:"name,omitempty" jsonschema:"Window name whose stored geometry is the candidate. Ignored when candidate is set."`
	Candidate *platform.Rect `json:"candidate,omitempty" jsonschema:"Explicit candidate rectangle to check instead of the stored one"`
	Width     int            `json:"width,omitempty" jsonschema:"Default width used when the candidate is rejected (default: the window rule or default_width)"`
	Height    int            `json:"height,omitempty" jsonschema:"Default height used when the candidate is rejected (default: the window rule or default_height)"`
}

// ResolvePlacementOutput is the output for the resolve_placement tool.
type ResolvePlacementOutput struct {
	Candidate *platform.Rect      `json:"candidate,omitempty"`
	Placement placement.Placement `json:"placement"`
	Displays  []platform.Rect     `json:"displays"`
}

// CheckNavigationInput is the input for the check_navigation tool.
type CheckNavigationInput struct {
	CurrentURL string `json:"current_url" jsonschema:"required,URL currently shown in the window"`
	TargetURL  string `json:"target_url" jsonschema:"required,URL the window is about to navigate to"`
}

// CheckNavigationOutput is the output for the check_navigation tool.
type CheckNavigationOutput struct {
	InApp    bool `json:"in_app"`
	External bool `json:"external"`
}
