//go:build linux

package platform

import (
	"fmt"
	"sync"

	"github.com/1broseidon/winkeep/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

// LinuxWindow is an X11 top-level window. Handlers run on the X11 event loop;
// Subscribe and Detach may be called from any goroutine.
type LinuxWindow struct {
	conn *x11.Connection
	id   xproto.Window

	mu        sync.Mutex
	last      Rect
	maximized bool
	watching  bool
	handlers  map[EventKind][]func()
}

var _ Window = (*LinuxWindow)(nil)

// ID returns the X11 window ID.
func (w *LinuxWindow) ID() WindowID {
	return WindowID(w.id)
}

// Position returns the window position in root coordinates.
func (w *LinuxWindow) Position() (int, int, error) {
	g, err := w.conn.WindowGeometry(w.id)
	if err != nil {
		return 0, 0, err
	}
	return g.X, g.Y, nil
}

// Size returns the client area size.
func (w *LinuxWindow) Size() (int, int, error) {
	g, err := w.conn.WindowGeometry(w.id)
	if err != nil {
		return 0, 0, err
	}
	return g.Width, g.Height, nil
}

// MoveResize places the window at bounds.
func (w *LinuxWindow) MoveResize(bounds Rect) error {
	return w.conn.MoveResizeWindow(w.id, bounds.X, bounds.Y, bounds.Width, bounds.Height)
}

// Resize changes the window size only.
func (w *LinuxWindow) Resize(width, height int) error {
	return w.conn.ResizeWindow(w.id, width, height)
}

// Subscribe registers fn for kind. The first subscription starts listening
// for X events on the window.
func (w *LinuxWindow) Subscribe(kind EventKind, fn func()) error {
	if fn == nil {
		return fmt.Errorf("nil handler for %s", kind)
	}
	w.mu.Lock()
	w.handlers[kind] = append(w.handlers[kind], fn)
	start := !w.watching
	w.watching = true
	w.mu.Unlock()
	if !start {
		return nil
	}

	// X callbacks are registered outside the lock; the event loop may be
	// inside fire waiting for it.
	err := w.conn.WatchWindow(w.id, x11.WindowEvents{
		Configure: w.onConfigure,
		State:     w.onState,
		Destroy:   w.onDestroy,
	})
	if err != nil {
		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
		return err
	}
	return nil
}

// Detach stops event delivery for this window.
func (w *LinuxWindow) Detach() {
	w.mu.Lock()
	stop := w.watching
	w.watching = false
	w.mu.Unlock()
	if stop {
		w.conn.UnwatchWindow(w.id)
	}
}

func (w *LinuxWindow) onConfigure() {
	g, err := w.conn.WindowGeometry(w.id)
	if err != nil {
		return
	}
	next := rectFromGeometry(g)
	w.mu.Lock()
	kinds := geometryEvents(w.last, next)
	w.last = next
	w.mu.Unlock()
	for _, kind := range kinds {
		w.fire(kind)
	}
}

func (w *LinuxWindow) onState() {
	now := w.conn.IsMaximized(w.id)
	w.mu.Lock()
	kind, ok := stateEvent(w.maximized, now)
	w.maximized = now
	w.mu.Unlock()
	if ok {
		w.fire(kind)
	}
}

func (w *LinuxWindow) onDestroy() {
	w.fire(EventClose)
	w.Detach()
}

// fire runs the handlers for kind without holding the lock, since handlers
// may subscribe or detach.
func (w *LinuxWindow) fire(kind EventKind) {
	w.mu.Lock()
	handlers := append([]func(){}, w.handlers[kind]...)
	w.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}
