package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/daemon"
	"github.com/1broseidon/winkeep/internal/hotkeys"
	"github.com/1broseidon/winkeep/internal/ipc"
	"github.com/1broseidon/winkeep/internal/keeper"
	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/runtimepath"
	"github.com/1broseidon/winkeep/internal/winstate"
	"github.com/1broseidon/winkeep/internal/x11env"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "displays":
		os.Exit(runDisplays(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "show":
		os.Exit(runShow(os.Args[2:]))
	case "resolve":
		os.Exit(runResolve(os.Args[2:]))
	case "navigate":
		os.Exit(runNavigate(os.Args[2:]))
	case "open":
		os.Exit(runOpen(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winkeep <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Keep configured windows' geometry (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  displays            List connected displays")
	fmt.Fprintln(w, "  list                List persisted window geometry")
	fmt.Fprintln(w, "  show <name>         Show persisted geometry for a window")
	fmt.Fprintln(w, "  resolve <name>      Show where a window would open now")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  navigate            Apply the navigation policy to a URL")
	fmt.Fprintln(w, "  open <url>          Open a URL in the external browser")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config path         Print the config file path")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winkeep <command> --help' for command-specific options.")
}

func isHelpArg(args []string) bool {
	return len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help")
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

func stateDir(cfg *config.Config) (string, error) {
	if cfg.StateDir != "" {
		return cfg.StateDir, nil
	}
	return runtimepath.StateDir()
}

func openStore(cfg *config.Config, logger *slog.Logger) (*winstate.FileStore, error) {
	dir, err := stateDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}
	return winstate.NewFileStore(dir, logger), nil
}

// connectX resolves the X environment and opens a backend on it.
func connectX(cfg *config.Config) (*platform.LinuxBackend, error) {
	env, err := x11env.Resolve(os.Environ(), cfg.Display, cfg.XAuthority)
	if err != nil {
		return nil, err
	}
	if err := env.Setenv(); err != nil {
		return nil, fmt.Errorf("failed to export X environment: %w", err)
	}
	return platform.NewLinuxBackendFromDisplay(env.Display)
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep daemon [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Restore and persist the geometry of windows listed under windows: in the config.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config
	logger := newLogger(cfg)
	logger.Info("configuration loaded", "file", res.File, "windows", len(cfg.Windows))
	if len(cfg.Windows) == 0 {
		logger.Warn("no windows configured; nothing will be tracked")
	}

	backend, err := connectX(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	store, err := openStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open geometry store: %v", err)
	}
	logger.Info("geometry store ready", "dir", store.Dir())

	k := keeper.New(store, backend, logger)
	tracker := daemon.NewTracker(cfg, k, backend, logger)

	ipcServer, err := ipc.NewServer(cfg, k, backend, tracker, logger)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	if err := backend.WatchClientList(tracker.Sync); err != nil {
		log.Fatalf("Failed to watch client list: %v", err)
	}

	if cfg.RecenterHotkey != "" {
		registerRecenterHotkey(cfg.RecenterHotkey, backend, tracker, logger)
	}

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{Logger: logger}, tracker)
	// Pick up windows that were already open before the daemon started.
	reconciler.ReconcileNow()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reconciler.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down winkeep daemon", "signal", sig.String())
		cancel()
		tracker.Close()
		backend.Quit()
	}()

	logger.Info("entering event loop")
	backend.EventLoop()
	return 0
}

// registerRecenterHotkey binds keys to recentering the focused tracked
// window. Failures are logged and the daemon keeps running without it.
func registerRecenterHotkey(keys string, backend *platform.LinuxBackend, tracker *daemon.Tracker, logger *slog.Logger) {
	handler, err := hotkeys.NewHandler(backend, logger)
	if err != nil {
		logger.Warn("hotkeys unavailable", "error", err)
		return
	}
	err = handler.RegisterFunc(keys, func() {
		id, err := backend.ActiveWindow()
		if err != nil {
			logger.Warn("recenter: no active window", "error", err)
			return
		}
		tracked, err := tracker.Recenter(id)
		if err != nil {
			logger.Warn("recenter failed", "window_id", id, "error", err)
			return
		}
		if !tracked {
			logger.Debug("recenter: active window is not tracked", "window_id", id)
		}
	})
	if err != nil {
		logger.Warn("failed to register recenter hotkey", "error", err)
	}
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(status)
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("tracked:        %d\n", len(status.Tracked))
	for _, w := range status.Tracked {
		fmt.Printf("  %-16s 0x%08x %s\n", w.Name, w.WindowID, formatRect(w.Rect))
	}
	return 0
}

func runDisplays(args []string) int {
	fs := flag.NewFlagSet("displays", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep displays [--path PATH] [--json]")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	backend, err := connectX(res.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer backend.Disconnect()

	displays, err := backend.Displays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(displays)
	}
	for _, d := range displays {
		marker := " "
		if d.Primary {
			marker = "*"
		}
		fmt.Printf("%s %d %-10s %s usable %s\n", marker, d.ID, d.Name, formatRect(d.Bounds), formatRect(d.Usable))
	}
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep list [--path PATH] [--json]")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := newLogger(res.Config)
	store, err := openStore(res.Config, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	states, err := listStates(store, res.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(states)
	}
	if len(states) == 0 {
		fmt.Printf("no window geometry stored in %s\n", store.Dir())
		return 0
	}
	for _, s := range states {
		configured := ""
		if s.Configured {
			configured = " (configured)"
		}
		fmt.Printf("%-16s %s%s\n", s.Name, formatRect(s.Rect), configured)
	}
	return 0
}

type storedState struct {
	Name       string        `json:"name"`
	Rect       platform.Rect `json:"rect"`
	Configured bool          `json:"configured"`
}

type keyLister interface {
	Keys() ([]string, error)
	Lookup(key string) (platform.Rect, bool)
}

func listStates(store keyLister, cfg *config.Config) ([]storedState, error) {
	keys, err := store.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list window geometry: %w", err)
	}
	out := make([]storedState, 0, len(keys))
	for _, key := range keys {
		name, ok := winstate.NameFromKey(key)
		if !ok {
			continue
		}
		r, ok := store.Lookup(key)
		if !ok {
			continue
		}
		_, configured := cfg.Windows[name]
		out = append(out, storedState{Name: name, Rect: r, Configured: configured})
	}
	return out, nil
}

func runShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep show [--path PATH] [--json] <name>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "show requires exactly one window name")
		fs.Usage()
		return 2
	}
	name := fs.Arg(0)
	if err := winstate.ValidateKey(winstate.Key(name)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	store, err := openStore(res.Config, newLogger(res.Config))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	r, ok := store.Lookup(winstate.Key(name))
	if !ok {
		fmt.Fprintf(os.Stderr, "no geometry stored for %q\n", name)
		return 1
	}
	if *asJSON {
		return printJSON(r)
	}
	fmt.Println(formatRect(r))
	return 0
}

func runResolve(args []string) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
	width := fs.Int("width", 0, "Default width (default: window rule or default_width)")
	height := fs.Int("height", 0, "Default height (default: window rule or default_height)")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep resolve [--path PATH] [--width N] [--height N] [--json] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print where the window would open against the displays connected now.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "resolve requires exactly one window name")
		fs.Usage()
		return 2
	}
	name := fs.Arg(0)

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config
	logger := newLogger(cfg)

	rule, _ := cfg.RuleFor(name)
	size := rule.DefaultSize()
	if *width > 0 {
		size.Width = *width
	}
	if *height > 0 {
		size.Height = *height
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var displays keeper.DisplaySource
	if backend, err := connectX(cfg); err != nil {
		logger.Warn("no display connection, resolving without displays", "error", err)
	} else {
		defer backend.Disconnect()
		displays = backend
	}

	p := keeper.New(store, displays, logger).Restore(name, size)
	if *asJSON {
		return printJSON(p)
	}
	fmt.Printf("source: %s\n", p.Source)
	fmt.Printf("rect:   %s\n", formatRect(p.Rect))
	return 0
}

func formatRect(r platform.Rect) string {
	return fmt.Sprintf("%dx%d%+d%+d", r.Width, r.Height, r.X, r.Y)
}
