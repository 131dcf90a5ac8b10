package keeper

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/winkeep/internal/placement"
	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/winstate"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticDisplays struct {
	displays   []platform.Display
	err        error
	primaryErr error
}

func (s staticDisplays) Displays() ([]platform.Display, error) {
	return s.displays, s.err
}

func (s staticDisplays) PrimaryDisplay() (platform.Display, error) {
	if s.primaryErr != nil {
		return platform.Display{}, s.primaryErr
	}
	for _, d := range s.displays {
		if d.Primary {
			return d, nil
		}
	}
	if len(s.displays) == 0 {
		return platform.Display{}, errors.New("no displays")
	}
	return s.displays[0], nil
}

type fakeWindow struct {
	rect       platform.Rect
	moveResize []platform.Rect
	resize     []platform.Size
	handlers   map[platform.EventKind][]func()
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{handlers: make(map[platform.EventKind][]func())}
}

func (w *fakeWindow) Position() (int, int, error) { return w.rect.X, w.rect.Y, nil }
func (w *fakeWindow) Size() (int, int, error)     { return w.rect.Width, w.rect.Height, nil }

func (w *fakeWindow) Subscribe(kind platform.EventKind, fn func()) error {
	w.handlers[kind] = append(w.handlers[kind], fn)
	return nil
}

func (w *fakeWindow) MoveResize(bounds platform.Rect) error {
	w.moveResize = append(w.moveResize, bounds)
	w.rect = bounds
	return nil
}

func (w *fakeWindow) Resize(width, height int) error {
	w.resize = append(w.resize, platform.Size{Width: width, Height: height})
	w.rect.Width = width
	w.rect.Height = height
	return nil
}

func (w *fakeWindow) emit(kind platform.EventKind) {
	for _, fn := range w.handlers[kind] {
		fn()
	}
}

var single = staticDisplays{displays: []platform.Display{
	{ID: 0, Name: "eDP-1", Primary: true, Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
}}

func TestRestore_Scenarios(t *testing.T) {
	size := platform.Size{Width: 800, Height: 600}

	t.Run("visible candidate", func(t *testing.T) {
		store := winstate.NewMemoryStore()
		saved := platform.Rect{X: 100, Y: 100, Width: 800, Height: 600}
		store.Set(winstate.Key("main"), saved)
		p := New(store, single, quietLogger()).Restore("main", size)
		if p.Rect != saved || p.Source != placement.SourceRestored {
			t.Fatalf("Restore() = %+v", p)
		}
	})

	t.Run("offscreen candidate", func(t *testing.T) {
		store := winstate.NewMemoryStore()
		store.Set(winstate.Key("main"), platform.Rect{X: -5000, Y: 0, Width: 800, Height: 600})
		p := New(store, single, quietLogger()).Restore("main", size)
		want := platform.Rect{X: 560, Y: 240, Width: 800, Height: 600}
		if p.Rect != want || p.Source != placement.SourceRecentered {
			t.Fatalf("Restore() = %+v, want %+v", p, want)
		}
	})

	t.Run("nothing persisted", func(t *testing.T) {
		p := New(winstate.NewMemoryStore(), single, quietLogger()).Restore("main", platform.Size{Width: 1000, Height: 600})
		if p.Rect != (platform.Rect{Width: 1000, Height: 600}) || p.Source != placement.SourceDefault {
			t.Fatalf("Restore() = %+v", p)
		}
	})

	t.Run("display enumeration fails", func(t *testing.T) {
		store := winstate.NewMemoryStore()
		store.Set(winstate.Key("main"), platform.Rect{X: 100, Y: 100, Width: 800, Height: 600})
		p := New(store, staticDisplays{err: errors.New("no X")}, quietLogger()).Restore("main", size)
		if p.Source != placement.SourceDefault || p.Rect.Width != 800 || p.Rect.Height != 600 {
			t.Fatalf("Restore() = %+v", p)
		}
	})
}

func TestRestore_PrimaryErrorCentersOnFirstDisplay(t *testing.T) {
	displays := staticDisplays{
		displays: []platform.Display{
			{ID: 0, Bounds: platform.Rect{X: -1920, Y: 0, Width: 1920, Height: 1080}},
			{ID: 1, Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		},
		primaryErr: errors.New("randr unavailable"),
	}
	store := winstate.NewMemoryStore()
	store.Set(winstate.Key("main"), platform.Rect{X: 5000, Y: 0, Width: 800, Height: 600})
	p := New(store, displays, quietLogger()).Restore("main", platform.Size{Width: 800, Height: 600})
	want := platform.Rect{X: -1920 + 560, Y: 240, Width: 800, Height: 600}
	if p.Rect != want {
		t.Fatalf("Restore() = %+v, want %+v", p.Rect, want)
	}
}

func TestOpen_PositionedPlacementMovesWindow(t *testing.T) {
	store := winstate.NewMemoryStore()
	saved := platform.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	store.Set(winstate.Key("main"), saved)
	win := newFakeWindow()

	_, p, err := New(store, single, quietLogger()).Open("main", platform.Size{Width: 1000, Height: 600}, win)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if p.Source != placement.SourceRestored {
		t.Fatalf("unexpected source %q", p.Source)
	}
	if len(win.moveResize) != 1 || win.moveResize[0] != saved {
		t.Fatalf("MoveResize calls = %v", win.moveResize)
	}
	if len(win.resize) != 0 {
		t.Fatalf("unexpected Resize calls %v", win.resize)
	}
}

func TestOpen_FirstRunOnlyResizes(t *testing.T) {
	store := winstate.NewMemoryStore()
	win := newFakeWindow()
	win.rect = platform.Rect{X: 300, Y: 200, Width: 10, Height: 10}

	b, _, err := New(store, single, quietLogger()).Open("main", platform.Size{Width: 1000, Height: 600}, win)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if len(win.moveResize) != 0 {
		t.Fatalf("unexpected MoveResize calls %v", win.moveResize)
	}
	if len(win.resize) != 1 || win.resize[0] != (platform.Size{Width: 1000, Height: 600}) {
		t.Fatalf("Resize calls = %v", win.resize)
	}
	if got := b.State().Rect; got != (platform.Rect{X: 300, Y: 200, Width: 1000, Height: 600}) {
		t.Fatalf("bridge initial state = %+v", got)
	}
	if _, ok := store.Lookup(winstate.Key("main")); ok {
		t.Fatal("nothing should be persisted before the first event")
	}
}

func TestOpen_EventsPersistThroughStore(t *testing.T) {
	store := winstate.NewMemoryStore()
	win := newFakeWindow()
	if _, _, err := New(store, single, quietLogger()).Open("main", platform.Size{Width: 1000, Height: 600}, win); err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	win.rect = platform.Rect{X: 64, Y: 32, Width: 1000, Height: 600}
	win.emit(platform.EventMove)
	win.emit(platform.EventClose)

	if got := store.Get(winstate.Key("main"), platform.Rect{}); got != win.rect {
		t.Fatalf("stored %+v, want %+v", got, win.rect)
	}

	// The next session restores what the last one saved.
	p := New(store, single, quietLogger()).Restore("main", platform.Size{Width: 1000, Height: 600})
	if p.Rect != win.rect || p.Source != placement.SourceRestored {
		t.Fatalf("Restore() = %+v", p)
	}
}

func TestRestore_ChecksFullMonitorBounds(t *testing.T) {
	displays := staticDisplays{displays: []platform.Display{{
		ID:      0,
		Primary: true,
		Bounds:  platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		Usable:  platform.Rect{X: 0, Y: 32, Width: 1920, Height: 1048},
	}}}
	store := winstate.NewMemoryStore()
	// Overlaps the top panel but lies inside the monitor.
	saved := platform.Rect{X: 100, Y: 0, Width: 800, Height: 600}
	store.Set(winstate.Key("main"), saved)
	p := New(store, displays, quietLogger()).Restore("main", platform.Size{Width: 800, Height: 600})
	if p.Rect != saved || p.Source != placement.SourceRestored {
		t.Fatalf("Restore() = %+v, want restored %+v", p, saved)
	}
}
