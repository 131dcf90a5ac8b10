package daemon

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/keeper"
	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/winstate"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWindow struct {
	id       platform.WindowID
	rect     platform.Rect
	handlers map[platform.EventKind][]func()
	detached bool
}

func (w *fakeWindow) ID() platform.WindowID       { return w.id }
func (w *fakeWindow) Position() (int, int, error) { return w.rect.X, w.rect.Y, nil }
func (w *fakeWindow) Size() (int, int, error)     { return w.rect.Width, w.rect.Height, nil }
func (w *fakeWindow) Detach()                     { w.detached = true }

func (w *fakeWindow) MoveResize(bounds platform.Rect) error {
	w.rect = bounds
	return nil
}

func (w *fakeWindow) Resize(width, height int) error {
	w.rect.Width = width
	w.rect.Height = height
	return nil
}

func (w *fakeWindow) Subscribe(kind platform.EventKind, fn func()) error {
	w.handlers[kind] = append(w.handlers[kind], fn)
	return nil
}

func (w *fakeWindow) emit(kind platform.EventKind) {
	for _, fn := range w.handlers[kind] {
		fn()
	}
}

type fakeBackend struct {
	displays []platform.Display
	clients  []platform.WindowID
	classes  map[platform.WindowID]string
	windows  map[platform.WindowID]*fakeWindow
	listErr  error
	opened   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		displays: []platform.Display{
			{ID: 0, Name: "eDP-1", Primary: true, Bounds: platform.Rect{Width: 1920, Height: 1080}},
		},
		classes: make(map[platform.WindowID]string),
		windows: make(map[platform.WindowID]*fakeWindow),
	}
}

func (b *fakeBackend) add(id platform.WindowID, class string) *fakeWindow {
	w := &fakeWindow{id: id, rect: platform.Rect{X: 50, Y: 50, Width: 100, Height: 100}, handlers: make(map[platform.EventKind][]func())}
	b.clients = append(b.clients, id)
	b.classes[id] = class
	b.windows[id] = w
	return w
}

func (b *fakeBackend) remove(id platform.WindowID) {
	out := b.clients[:0]
	for _, c := range b.clients {
		if c != id {
			out = append(out, c)
		}
	}
	b.clients = out
}

func (b *fakeBackend) Displays() ([]platform.Display, error) { return b.displays, nil }

func (b *fakeBackend) PrimaryDisplay() (platform.Display, error) { return b.displays[0], nil }

func (b *fakeBackend) ClientWindows() ([]platform.WindowID, error) {
	return append([]platform.WindowID(nil), b.clients...), b.listErr
}

func (b *fakeBackend) WindowClass(id platform.WindowID) string { return b.classes[id] }

func (b *fakeBackend) Window(id platform.WindowID) (platform.Window, error) {
	w, ok := b.windows[id]
	if !ok {
		return nil, errors.New("no such window")
	}
	b.opened++
	return w, nil
}

func newTracker(t *testing.T, backend *fakeBackend) (*Tracker, *winstate.MemoryStore) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Windows["main"] = config.WindowRule{Class: "MyApp", Width: 800, Height: 600}
	store := winstate.NewMemoryStore()
	k := keeper.New(store, backend, quietLogger())
	return NewTracker(cfg, k, backend, quietLogger()), store
}

func TestSync_TracksMatchingWindows(t *testing.T) {
	backend := newFakeBackend()
	app := backend.add(1, "myapp")
	backend.add(2, "Firefox")

	tracker, _ := newTracker(t, backend)
	tracker.Sync()

	tracked := tracker.Tracked()
	if len(tracked) != 1 || tracked[0].Name != "main" || tracked[0].WindowID != 1 {
		t.Fatalf("Tracked() = %+v", tracked)
	}
	// First run: default size applied, position left to the window manager.
	if app.rect != (platform.Rect{X: 50, Y: 50, Width: 800, Height: 600}) {
		t.Fatalf("window rect = %+v", app.rect)
	}

	// A second sync must not reopen anything.
	tracker.Sync()
	if backend.opened != 1 {
		t.Fatalf("expected one Window() call, got %d", backend.opened)
	}
}

func TestSync_RestoresSavedGeometry(t *testing.T) {
	backend := newFakeBackend()
	app := backend.add(1, "MyApp")
	tracker, store := newTracker(t, backend)
	saved := platform.Rect{X: 200, Y: 100, Width: 640, Height: 480}
	store.Set(winstate.Key("main"), saved)

	tracker.Sync()
	if app.rect != saved {
		t.Fatalf("window rect = %+v, want %+v", app.rect, saved)
	}
}

func TestSync_OneWindowPerRule(t *testing.T) {
	backend := newFakeBackend()
	backend.add(1, "MyApp")
	second := backend.add(2, "MyApp")

	tracker, _ := newTracker(t, backend)
	tracker.Sync()

	if got := tracker.Tracked(); len(got) != 1 || got[0].WindowID != 1 {
		t.Fatalf("Tracked() = %+v", got)
	}
	if second.rect.Width != 100 {
		t.Fatalf("second window should be untouched, got %+v", second.rect)
	}
}

func TestClose_PersistsThenForgets(t *testing.T) {
	backend := newFakeBackend()
	app := backend.add(1, "MyApp")
	tracker, store := newTracker(t, backend)
	tracker.Sync()

	app.rect = platform.Rect{X: 300, Y: 200, Width: 800, Height: 600}
	app.emit(platform.EventClose)

	if got, ok := store.Lookup(winstate.Key("main")); !ok || got != app.rect {
		t.Fatalf("stored %+v, %v; want %+v", got, ok, app.rect)
	}
	if got := tracker.Tracked(); len(got) != 0 {
		t.Fatalf("expected nothing tracked, got %+v", got)
	}

	// A new window for the same rule is picked up again.
	backend.remove(1)
	reopened := backend.add(3, "MyApp")
	tracker.Sync()
	if got := tracker.Tracked(); len(got) != 1 || got[0].WindowID != 3 {
		t.Fatalf("Tracked() = %+v", got)
	}
	if reopened.rect != app.rect {
		t.Fatalf("reopened rect = %+v, want %+v", reopened.rect, app.rect)
	}
}

func TestSync_DropsWithdrawnWindows(t *testing.T) {
	backend := newFakeBackend()
	app := backend.add(1, "MyApp")
	tracker, store := newTracker(t, backend)
	tracker.Sync()

	app.rect = platform.Rect{X: 10, Y: 10, Width: 800, Height: 600}
	backend.remove(1)
	tracker.Sync()

	if !app.detached {
		t.Fatal("expected withdrawn window to be detached")
	}
	if got, ok := store.Lookup(winstate.Key("main")); !ok || got != app.rect {
		t.Fatalf("stored %+v, %v; want %+v", got, ok, app.rect)
	}
	if got := tracker.Tracked(); len(got) != 0 {
		t.Fatalf("expected nothing tracked, got %+v", got)
	}
}

func TestSync_ListErrorKeepsState(t *testing.T) {
	backend := newFakeBackend()
	backend.add(1, "MyApp")
	tracker, _ := newTracker(t, backend)
	tracker.Sync()

	backend.listErr = errors.New("connection lost")
	tracker.Sync()
	if got := tracker.Tracked(); len(got) != 1 {
		t.Fatalf("Tracked() = %+v", got)
	}
}

func TestTrackerClose_SavesAll(t *testing.T) {
	backend := newFakeBackend()
	app := backend.add(1, "MyApp")
	tracker, store := newTracker(t, backend)
	tracker.Sync()

	app.rect = platform.Rect{X: 7, Y: 8, Width: 800, Height: 600}
	tracker.Close()

	if got, _ := store.Lookup(winstate.Key("main")); got != app.rect {
		t.Fatalf("stored %+v, want %+v", got, app.rect)
	}
	if !app.detached {
		t.Fatal("expected window to be detached")
	}
}

func TestReconciler_ReconcileNow(t *testing.T) {
	backend := newFakeBackend()
	backend.add(1, "MyApp")
	tracker, _ := newTracker(t, backend)
	r := NewReconciler(ReconcilerConfig{Logger: quietLogger()}, tracker)
	if r.interval != DefaultReconcileInterval {
		t.Fatalf("interval = %v", r.interval)
	}
	r.ReconcileNow()
	if got := tracker.Tracked(); len(got) != 1 {
		t.Fatalf("Tracked() = %+v", got)
	}
}

func TestRecenter(t *testing.T) {
	backend := newFakeBackend()
	app := backend.add(1, "MyApp")
	tracker, store := newTracker(t, backend)
	store.Set(winstate.Key("main"), platform.Rect{X: 10, Y: 10, Width: 400, Height: 300})
	tracker.Sync()

	ok, err := tracker.Recenter(1)
	if !ok || err != nil {
		t.Fatalf("Recenter() = %v, %v", ok, err)
	}
	want := platform.Rect{X: 760, Y: 390, Width: 400, Height: 300}
	if app.rect != want {
		t.Fatalf("window rect = %+v, want %+v", app.rect, want)
	}
	if got, _ := store.Lookup(winstate.Key("main")); got != want {
		t.Fatalf("stored %+v, want %+v", got, want)
	}

	if ok, err := tracker.Recenter(99); ok || err != nil {
		t.Fatalf("Recenter(untracked) = %v, %v", ok, err)
	}
}

func TestTracked_ConcurrentWithWindowEvents(t *testing.T) {
	backend := newFakeBackend()
	app := backend.add(1, "MyApp")
	tracker, _ := newTracker(t, backend)
	tracker.Sync()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			app.emit(platform.EventMove)
		}
	}()
	for i := 0; i < 200; i++ {
		if got := tracker.Tracked(); len(got) != 1 {
			t.Fatalf("Tracked() = %+v", got)
		}
	}
	wg.Wait()
}
