// Package keeper runs the window attach flow: read the saved geometry,
// correct it against the current displays, apply it, and keep it persisted.
package keeper

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/winkeep/internal/bridge"
	"github.com/1broseidon/winkeep/internal/placement"
	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/winstate"
)

// DisplaySource enumerates the connected displays.
type DisplaySource interface {
	Displays() ([]platform.Display, error)
	PrimaryDisplay() (platform.Display, error)
}

// Window is a window the keeper can place and then watch.
type Window interface {
	bridge.WindowHandle
	MoveResize(bounds platform.Rect) error
	Resize(width, height int) error
}

// Keeper restores and tracks window geometry.
type Keeper struct {
	store    winstate.Store
	displays DisplaySource
	logger   *slog.Logger
}

// New returns a Keeper. A nil logger uses slog.Default().
func New(store winstate.Store, displays DisplaySource, logger *slog.Logger) *Keeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Keeper{store: store, displays: displays, logger: logger}
}

// Store returns the geometry store backing the keeper.
func (k *Keeper) Store() winstate.Store {
	return k.store
}

// Restore computes where the window called name should open. Displays are
// queried on every call; an enumeration failure counts as no displays.
func (k *Keeper) Restore(name string, size platform.Size) placement.Placement {
	var candidate *platform.Rect
	if r, ok := k.store.Lookup(winstate.Key(name)); ok {
		candidate = &r
	}
	return k.Resolve(candidate, size)
}

// Resolve runs the placement resolver for candidate against the current
// displays.
func (k *Keeper) Resolve(candidate *platform.Rect, size platform.Size) placement.Placement {
	bounds, primary := k.currentDisplays()
	return placement.Resolve(candidate, bounds, primary, size)
}

// Recenter centers size on the primary display regardless of what is stored.
func (k *Keeper) Recenter(size platform.Size) placement.Placement {
	bounds, primary := k.currentDisplays()
	return placement.Recenter(bounds, primary, size)
}

// Apply moves win to a positioned placement, or only resizes it otherwise.
func (k *Keeper) Apply(win Window, p placement.Placement) error {
	return apply(win, p)
}

func (k *Keeper) currentDisplays() ([]platform.Rect, *platform.Rect) {
	if k.displays == nil {
		return nil, nil
	}
	displays, err := k.displays.Displays()
	if err != nil {
		k.logger.Warn("failed to enumerate displays", "error", err)
		return nil, nil
	}
	// Full monitor rectangles; a window may sit over a panel.
	bounds := platform.DisplayBounds(displays)
	if len(bounds) == 0 {
		return nil, nil
	}

	primary, err := k.displays.PrimaryDisplay()
	if err != nil {
		k.logger.Debug("no primary display, using first display", "error", err)
		return bounds, nil
	}
	return bounds, &primary.Bounds
}

// Open restores the window called name, applies the placement to win and
// attaches a bridge that persists every later geometry change. The caller
// keeps ownership of win.
func (k *Keeper) Open(name string, size platform.Size, win Window) (*bridge.Bridge, placement.Placement, error) {
	p := k.Restore(name, size)
	logger := k.logger.With("window", name)

	if err := apply(win, p); err != nil {
		return nil, p, fmt.Errorf("failed to place window %q: %w", name, err)
	}
	logger.Info("placed window", "source", string(p.Source),
		"x", p.Rect.X, "y", p.Rect.Y, "width", p.Rect.Width, "height", p.Rect.Height)

	initial := p.Rect
	if r, err := bridge.CurrentRect(win); err == nil && r.Valid() {
		initial = r
	}
	b := bridge.New(k.store, name, initial, k.logger)
	if err := b.Attach(win); err != nil {
		return nil, p, fmt.Errorf("failed to watch window %q: %w", name, err)
	}
	return b, p, nil
}

func apply(win Window, p placement.Placement) error {
	if p.Source.Positioned() {
		return win.MoveResize(p.Rect)
	}
	return win.Resize(p.Rect.Width, p.Rect.Height)
}
