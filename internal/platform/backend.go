package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in virtual-screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether the rectangle has a positive area.
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Size is a width/height pair without a position.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
	Bounds  Rect   `json:"bounds"`
	Usable  Rect   `json:"usable"`
}

// DisplayBounds returns the bounds of every display, in order.
func DisplayBounds(displays []Display) []Rect {
	out := make([]Rect, 0, len(displays))
	for _, d := range displays {
		out = append(out, d.Bounds)
	}
	return out
}

// EventKind names a geometry-changing window lifecycle event.
type EventKind string

const (
	EventMaximize   EventKind = "maximize"
	EventUnmaximize EventKind = "unmaximize"
	EventResize     EventKind = "resize"
	EventMove       EventKind = "move"
	EventClose      EventKind = "close"
)

// GeometryEvents lists every event after which a window's geometry is persisted.
var GeometryEvents = []EventKind{EventMaximize, EventUnmaximize, EventResize, EventMove, EventClose}

// Window is a live top-level window owned by the caller that obtained it.
type Window interface {
	ID() WindowID
	Position() (x, y int, err error)
	Size() (width, height int, err error)
	MoveResize(bounds Rect) error
	Resize(width, height int) error
	Subscribe(kind EventKind, fn func()) error
	Detach()
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Displays() ([]Display, error)
	PrimaryDisplay() (Display, error)
	ActiveWindow() (WindowID, error)
	ClientWindows() ([]WindowID, error)
	WindowClass(windowID WindowID) string
	Window(windowID WindowID) (Window, error)
}
