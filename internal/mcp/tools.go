package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winkeep/internal/bridge"
	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/winstate"
)

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	if s.displays == nil {
		return nil, ListDisplaysOutput{}, fmt.Errorf("display enumeration is not available")
	}
	displays, err := s.displays.Displays()
	if err != nil {
		return nil, ListDisplaysOutput{}, fmt.Errorf("failed to get displays: %w", err)
	}
	if displays == nil {
		displays = []platform.Display{}
	}
	s.logger.Debug("mcp list_displays", "count", len(displays))
	return nil, ListDisplaysOutput{Displays: displays}, nil
}

func (s *Server) handleListWindowStates(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowStatesInput) (*mcpsdk.CallToolResult, ListWindowStatesOutput, error) {
	if s.states == nil {
		return nil, ListWindowStatesOutput{}, fmt.Errorf("geometry store is not available")
	}
	keys, err := s.states.Keys()
	if err != nil {
		return nil, ListWindowStatesOutput{}, fmt.Errorf("failed to list window states: %w", err)
	}

	states := make([]WindowStateInfo, 0, len(keys))
	for _, key := range keys {
		name, ok := winstate.NameFromKey(key)
		if !ok {
			continue
		}
		r, ok := s.states.Lookup(key)
		if !ok {
			continue
		}
		_, configured := s.config.Windows[name]
		states = append(states, WindowStateInfo{
			Name:       name,
			Key:        key,
			Rect:       r,
			Configured: configured,
		})
	}
	s.logger.Debug("mcp list_window_states", "count", len(states))
	return nil, ListWindowStatesOutput{StateDir: s.stateDir, States: states}, nil
}

func (s *Server) handleGetWindowState(_ context.Context, _ *mcpsdk.CallToolRequest, args GetWindowStateInput) (*mcpsdk.CallToolResult, GetWindowStateOutput, error) {
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return nil, GetWindowStateOutput{}, fmt.Errorf("name is required")
	}
	key := winstate.Key(name)
	if err := winstate.ValidateKey(key); err != nil {
		return nil, GetWindowStateOutput{}, err
	}

	out := GetWindowStateOutput{Name: name, Key: key}
	if r, ok := s.keeper.Store().Lookup(key); ok {
		out.Found = true
		out.Rect = &r
	}
	return nil, out, nil
}

func (s *Server) handleResolvePlacement(_ context.Context, _ *mcpsdk.CallToolRequest, args ResolvePlacementInput) (*mcpsdk.CallToolResult, ResolvePlacementOutput, error) {
	name := strings.TrimSpace(args.Name)
	if name == "" && args.Candidate == nil {
		return nil, ResolvePlacementOutput{}, fmt.Errorf("name or candidate is required")
	}

	size := s.config.DefaultSize()
	if name != "" {
		rule, _ := s.config.RuleFor(name)
		size = rule.DefaultSize()
	}
	if args.Width > 0 {
		size.Width = args.Width
	}
	if args.Height > 0 {
		size.Height = args.Height
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, ResolvePlacementOutput{}, fmt.Errorf("width and height must be positive")
	}

	candidate := args.Candidate
	if candidate == nil {
		if r, ok := s.keeper.Store().Lookup(winstate.Key(name)); ok {
			candidate = &r
		}
	}

	out := ResolvePlacementOutput{
		Candidate: candidate,
		Placement: s.keeper.Resolve(candidate, size),
		Displays:  []platform.Rect{},
	}
	if s.displays != nil {
		if displays, err := s.displays.Displays(); err == nil {
			out.Displays = append(out.Displays, platform.DisplayBounds(displays)...)
		}
	}
	s.logger.Debug("mcp resolve_placement", "name", name, "source", string(out.Placement.Source))
	return nil, out, nil
}

func (s *Server) handleCheckNavigation(_ context.Context, _ *mcpsdk.CallToolRequest, args CheckNavigationInput) (*mcpsdk.CallToolResult, CheckNavigationOutput, error) {
	if args.CurrentURL == "" || args.TargetURL == "" {
		return nil, CheckNavigationOutput{}, fmt.Errorf("current_url and target_url are required")
	}
	external := bridge.IsExternal(args.CurrentURL, args.TargetURL)
	return nil, CheckNavigationOutput{InApp: !external, External: external}, nil
}
