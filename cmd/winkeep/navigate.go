package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/winkeep/internal/bridge"
	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/x11env"
)

// newNavigator builds a navigator that launches the configured browser in
// the user's X session. Without a display the browser is still tried with
// the inherited environment.
func newNavigator(cfg *config.Config) *bridge.Navigator {
	logger := newLogger(cfg)
	opener := bridge.CommandOpener{Command: cfg.BrowserCommand}
	if env, err := x11env.Resolve(os.Environ(), cfg.Display, cfg.XAuthority); err == nil {
		opener.Env = env.Apply(os.Environ())
	} else {
		logger.Debug("no X environment for browser", "error", err)
	}
	return bridge.NewNavigator(opener, logger)
}

func runNavigate(args []string) int {
	fs := flag.NewFlagSet("navigate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
	current := fs.String("current", "", "URL currently shown in the window (required)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep navigate --current URL [--path PATH] <target-url>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Prints in-app when the target is the current page. Any other target is")
		fmt.Fprintln(os.Stderr, "opened with browser_command and external is printed.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *current == "" || fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "navigate requires --current and one target URL")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if newNavigator(res.Config).WillNavigate(*current, fs.Arg(0)) {
		fmt.Println("in-app")
	} else {
		fmt.Println("external")
	}
	return 0
}

func runOpen(args []string) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep open [--path PATH] <url>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Handle a new-window request: the URL goes to browser_command and the")
		fmt.Fprintln(os.Stderr, "in-app window is always denied.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "open requires exactly one URL")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	action := newNavigator(res.Config).OpenWindow(fs.Arg(0))
	fmt.Println(action)
	return 0
}
