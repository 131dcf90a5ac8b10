package bridge

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Opener hands a URL to something outside the application.
type Opener interface {
	OpenExternal(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

// OpenExternal calls f(url).
func (f OpenerFunc) OpenExternal(url string) error {
	return f(url)
}

// DefaultBrowserCommand is used when no browser command is configured.
const DefaultBrowserCommand = "xdg-open"

// CommandOpener launches a browser command with the URL appended as the last
// argument. The command is started and not waited for. A nil Env inherits the
// current process environment.
type CommandOpener struct {
	Command string
	Env     []string
}

// OpenExternal implements Opener.
func (o CommandOpener) OpenExternal(url string) error {
	fields := strings.Fields(o.Command)
	if len(fields) == 0 {
		fields = []string{DefaultBrowserCommand}
	}
	cmd := exec.Command(fields[0], append(fields[1:], url)...)
	cmd.Env = o.Env
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", fields[0], err)
	}
	go cmd.Wait()
	return nil
}

// Action is the answer to a new-window request.
type Action string

// ActionDeny refuses to create the window in-app.
const ActionDeny Action = "deny"

// Navigator keeps an embedded view on its own page and sends every other
// destination to the system browser.
type Navigator struct {
	opener Opener
	logger *slog.Logger
}

// NewNavigator returns a Navigator delegating external URLs to opener.
func NewNavigator(opener Opener, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{opener: opener, logger: logger}
}

// IsExternal reports whether navigating from currentURL to targetURL leaves
// the application page.
func IsExternal(currentURL, targetURL string) bool {
	return targetURL != currentURL
}

// WillNavigate decides an in-view navigation. It returns true when the view
// may navigate itself. Otherwise the navigation must be cancelled and the
// URL has already been passed to the opener, exactly once.
func (n *Navigator) WillNavigate(currentURL, targetURL string) bool {
	if !IsExternal(currentURL, targetURL) {
		return true
	}
	n.openExternal(targetURL)
	return false
}

// OpenWindow handles a request to open a new window. New windows are never
// created in-app; the URL goes to the opener.
func (n *Navigator) OpenWindow(url string) Action {
	n.openExternal(url)
	return ActionDeny
}

func (n *Navigator) openExternal(url string) {
	if err := n.opener.OpenExternal(url); err != nil {
		n.logger.Warn("failed to open external url", "url", url, "error", err)
		return
	}
	n.logger.Debug("opened external url", "url", url)
}
