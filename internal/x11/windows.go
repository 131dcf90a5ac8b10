package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Geometry is a window rectangle in root window coordinates.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// WindowGeometry returns the client area of a window translated to root
// coordinates, so reparenting window managers report the on-screen position.
func (c *Connection) WindowGeometry(windowID xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("get geometry for window 0x%x: %w", uint32(windowID), err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("translate coordinates for window 0x%x: %w", uint32(windowID), err)
	}

	return Geometry{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// MoveResizeWindow places the client area of a window at x, y with the given
// size. x and y are client coordinates as reported by WindowGeometry.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	c.unmaximizeWindow(windowID)

	// The WM reads the EWMH position as the frame's top-left corner.
	left, _, top, _, _ := c.GetFrameExtents(windowID)
	fx, fy := frameOrigin(x, y, left, top)

	// EWMH requests go through the window manager; fall back to configuring
	// the window directly when the WM does not support them.
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, fx, fy, width, height); err != nil {
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// GetFrameExtents returns the window decoration sizes, or zeros when the
// window manager does not publish them.
func (c *Connection) GetFrameExtents(windowID xproto.Window) (left, right, top, bottom int, err error) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		return 0, 0, 0, 0, nil
	}
	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom), nil
}

// frameOrigin converts a client-area origin to the frame origin for a window
// decorated with the given left and top extents.
func frameOrigin(clientX, clientY, left, top int) (int, int) {
	return clientX - left, clientY - top
}

// ResizeWindow changes the window size and leaves placement to the window manager.
func (c *Connection) ResizeWindow(windowID xproto.Window, width, height int) error {
	if err := ewmh.ResizeWindow(c.XUtil, windowID, width, height); err != nil {
		xwindow.New(c.XUtil, windowID).Resize(width, height)
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	maxH, maxV := c.maximizedState(windowID)
	if maxH {
		ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_HORZ")
	}
	if maxV {
		ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_VERT")
	}
}

// IsMaximized reports whether the window carries both EWMH maximized states.
func (c *Connection) IsMaximized(windowID xproto.Window) bool {
	maxH, maxV := c.maximizedState(windowID)
	return maxH && maxV
}

func (c *Connection) maximizedState(windowID xproto.Window) (horz, vert bool) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false, false
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			horz = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			vert = true
		}
	}
	return horz, vert
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}

	return len(types) == 0
}

// GetActiveWindow returns the EWMH active window.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// ClientList returns the EWMH managed client windows.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// WindowClass returns the WM_CLASS class of a window, or "" when unset.
func (c *Connection) WindowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// WindowEvents are the callbacks fired for one watched window. Nil fields are
// ignored.
type WindowEvents struct {
	Configure func()
	State     func()
	Destroy   func()
}

// WatchWindow selects structure and property events on a window and routes
// them to the given callbacks. Callbacks run on the event loop goroutine.
func (c *Connection) WatchWindow(windowID xproto.Window, events WindowEvents) error {
	win := xwindow.New(c.XUtil, windowID)
	if err := win.Listen(xproto.EventMaskStructureNotify, xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen on window 0x%x: %w", uint32(windowID), err)
	}

	if events.Configure != nil {
		xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, _ xevent.ConfigureNotifyEvent) {
			events.Configure()
		}).Connect(c.XUtil, windowID)
	}
	if events.State != nil {
		xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
			name, err := xprop.AtomName(xu, ev.Atom)
			if err != nil || name != "_NET_WM_STATE" {
				return
			}
			events.State()
		}).Connect(c.XUtil, windowID)
	}
	if events.Destroy != nil {
		xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, _ xevent.DestroyNotifyEvent) {
			events.Destroy()
		}).Connect(c.XUtil, windowID)
	}
	return nil
}

// UnwatchWindow removes every event callback attached to a window.
func (c *Connection) UnwatchWindow(windowID xproto.Window) {
	xevent.Detach(c.XUtil, windowID)
}

// WatchClientList calls fn whenever the EWMH client list on the root window
// changes.
func (c *Connection) WatchClientList(fn func()) error {
	root := xwindow.New(c.XUtil, c.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen on root window: %w", err)
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || name != "_NET_CLIENT_LIST" {
			return
		}
		fn()
	}).Connect(c.XUtil, c.Root)
	return nil
}
