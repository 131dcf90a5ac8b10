//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/1broseidon/winkeep/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection. An empty display
// uses $DISPLAY.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops EventLoop.
func (b *LinuxBackend) Quit() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil exposes the underlying xgbutil connection for hotkey registration.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the root window of the default screen.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// WatchClientList calls fn on the event loop whenever managed windows change.
func (b *LinuxBackend) WatchClientList(fn func()) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.WatchClientList(fn)
}

// Displays returns all active displays sorted by ID.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m, conn.UsableArea(m)))
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// PrimaryDisplay returns the RandR primary display.
func (b *LinuxBackend) PrimaryDisplay() (Display, error) {
	conn, err := b.connection()
	if err != nil {
		return Display{}, err
	}

	primary, err := conn.GetPrimaryMonitor()
	if err != nil {
		return Display{}, err
	}

	return displayFromMonitor(*primary, conn.UsableArea(*primary)), nil
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// ClientWindows lists managed normal windows in client-list order.
func (b *LinuxBackend) ClientWindows() ([]WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientList()
	if err != nil {
		return nil, err
	}

	out := make([]WindowID, 0, len(clients))
	for _, id := range clients {
		if !conn.IsNormalWindow(id) {
			continue
		}
		out = append(out, WindowID(id))
	}
	return out, nil
}

// WindowClass returns the WM_CLASS class name of a window.
func (b *LinuxBackend) WindowClass(windowID WindowID) string {
	conn, err := b.connection()
	if err != nil {
		return ""
	}
	return conn.WindowClass(xproto.Window(windowID))
}

// Window returns a handle for an existing top-level window.
func (b *LinuxBackend) Window(windowID WindowID) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	geom, err := conn.WindowGeometry(xproto.Window(windowID))
	if err != nil {
		return nil, err
	}
	return &LinuxWindow{
		conn:      conn,
		id:        xproto.Window(windowID),
		last:      rectFromGeometry(geom),
		maximized: conn.IsMaximized(xproto.Window(windowID)),
		handlers:  make(map[EventKind][]func()),
	}, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func displayFromMonitor(m x11.Monitor, usable x11.Monitor) Display {
	return Display{
		ID:      m.ID,
		Name:    m.Name,
		Primary: m.Primary,
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		},
		Usable: Rect{
			X:      usable.X,
			Y:      usable.Y,
			Width:  usable.Width,
			Height: usable.Height,
		},
	}
}

func rectFromGeometry(g x11.Geometry) Rect {
	return Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}
