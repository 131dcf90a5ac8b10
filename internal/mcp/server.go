package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/keeper"
	"github.com/1broseidon/winkeep/internal/platform"
)

const (
	ServerName    = "winkeep"
	ServerVersion = "0.1.0"
)

// StateLister is a geometry store that can enumerate its keys.
type StateLister interface {
	Lookup(key string) (platform.Rect, bool)
	Keys() ([]string, error)
}

// Server is the MCP server exposing winkeep's placement and geometry state.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	keeper    *keeper.Keeper
	states    StateLister
	displays  keeper.DisplaySource
	stateDir  string
	logger    *slog.Logger
}

// Options configures NewServer.
type Options struct {
	Config   *config.Config
	Keeper   *keeper.Keeper
	States   StateLister
	Displays keeper.DisplaySource
	StateDir string
	Logger   *slog.Logger
}

// NewServer creates a new MCP server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := &Server{
		config:   cfg,
		keeper:   opts.Keeper,
		states:   opts.States,
		displays: opts.Displays,
		stateDir: opts.StateDir,
		logger:   logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the connected displays with their bounds and usable area. The primary display is flagged.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_window_states",
		Description: "List every persisted window geometry with its window name and whether a window rule is configured for it.",
	}, s.handleListWindowStates)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window_state",
		Description: "Return the persisted geometry for a window name. found is false when nothing usable is stored.",
	}, s.handleGetWindowState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resolve_placement",
		Description: "Compute where a window would open right now. The candidate is the stored geometry for name, or an explicit candidate rectangle. A candidate is kept only if it fits entirely inside one display; otherwise the default size is centered on the primary display.",
	}, s.handleResolvePlacement)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "check_navigation",
		Description: "Report whether navigating from current_url to target_url stays in the app window or is handed to the external browser. Nothing is opened.",
	}, s.handleCheckNavigation)
}
