// Package bridge connects a live window to the geometry store and applies
// the navigation policy for an embedded web view.
package bridge

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/winstate"
)

// WindowHandle is the part of a window the bridge needs: live geometry and
// event subscription.
type WindowHandle interface {
	Position() (x, y int, err error)
	Size() (width, height int, err error)
	Subscribe(kind platform.EventKind, fn func()) error
}

// WindowState is the geometry the bridge last persisted for one window.
type WindowState struct {
	Key  string
	Rect platform.Rect
}

// Bridge persists one window's geometry on every geometry-changing event.
// It is safe for concurrent use: events arrive on the X11 event loop while
// status queries and shutdown run on other goroutines.
type Bridge struct {
	store  winstate.Store
	logger *slog.Logger

	mu     sync.Mutex
	handle WindowHandle
	state  WindowState
}

// New returns a bridge for the window named name whose current geometry is
// initial. Nothing is subscribed until Attach.
func New(store winstate.Store, name string, initial platform.Rect, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		store:  store,
		logger: logger.With("window", name),
		state:  WindowState{Key: winstate.Key(name), Rect: initial},
	}
}

// Attach subscribes the bridge to every geometry event of handle.
func (b *Bridge) Attach(handle WindowHandle) error {
	b.mu.Lock()
	b.handle = handle
	b.mu.Unlock()
	for _, kind := range platform.GeometryEvents {
		kind := kind
		if err := handle.Subscribe(kind, func() { b.onEvent(kind) }); err != nil {
			return fmt.Errorf("subscribe to %s: %w", kind, err)
		}
	}
	return nil
}

// State returns the last known window state.
func (b *Bridge) State() WindowState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Save reads the live geometry and persists it. When the window can no longer
// be queried the last known state is persisted instead.
func (b *Bridge) Save() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handle != nil {
		if r, err := CurrentRect(b.handle); err != nil {
			b.logger.Debug("using last known geometry", "error", err)
		} else if !r.Valid() {
			b.logger.Debug("ignoring invalid live geometry", "width", r.Width, "height", r.Height)
		} else {
			b.state = updateState(b.state, r)
		}
	}
	if !b.state.Rect.Valid() {
		return
	}
	b.store.Set(b.state.Key, b.state.Rect)
}

func (b *Bridge) onEvent(kind platform.EventKind) {
	b.logger.Debug("window event", "event", string(kind))
	b.Save()
}

// CurrentRect combines a handle's position and size into one rectangle.
func CurrentRect(h WindowHandle) (platform.Rect, error) {
	x, y, err := h.Position()
	if err != nil {
		return platform.Rect{}, err
	}
	w, hgt, err := h.Size()
	if err != nil {
		return platform.Rect{}, err
	}
	return platform.Rect{X: x, Y: y, Width: w, Height: hgt}, nil
}

func updateState(s WindowState, r platform.Rect) WindowState {
	s.Rect = r
	return s
}
