package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/1broseidon/winkeep/internal/keeper"
	"github.com/1broseidon/winkeep/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winkeep mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winkeep mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	if isHelpArg(args) {
		fmt.Fprintln(os.Stdout, "Usage: winkeep mcp serve")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Start the MCP server on stdio. Designed to be invoked by MCP clients.")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Example (Claude Code):")
		fmt.Fprintln(os.Stdout, "  claude mcp add winkeep -- winkeep mcp serve")
		return 0
	}

	res, err := loadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := res.Config
	// stdout carries the MCP protocol, so logs stay on stderr.
	logger := newLogger(cfg)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn("mcp serve speaks JSON-RPC on stdin/stdout; start it from an MCP client")
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open geometry store: %v", err)
	}

	var displays keeper.DisplaySource
	if backend, err := connectX(cfg); err != nil {
		logger.Warn("no display connection; display tools will fail", "error", err)
	} else {
		defer backend.Disconnect()
		displays = backend
	}

	server := mcp.NewServer(mcp.Options{
		Config:   cfg,
		Keeper:   keeper.New(store, displays, logger),
		States:   store,
		Displays: displays,
		StateDir: store.Dir(),
		Logger:   logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	logger.Debug("mcp server stopped")
	return 0
}
