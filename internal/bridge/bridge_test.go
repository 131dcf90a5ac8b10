package bridge

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/winstate"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWindow struct {
	rect     platform.Rect
	err      error
	handlers map[platform.EventKind][]func()
	failOn   platform.EventKind
}

func newFakeWindow(r platform.Rect) *fakeWindow {
	return &fakeWindow{rect: r, handlers: make(map[platform.EventKind][]func())}
}

func (w *fakeWindow) Position() (int, int, error) {
	if w.err != nil {
		return 0, 0, w.err
	}
	return w.rect.X, w.rect.Y, nil
}

func (w *fakeWindow) Size() (int, int, error) {
	if w.err != nil {
		return 0, 0, w.err
	}
	return w.rect.Width, w.rect.Height, nil
}

func (w *fakeWindow) Subscribe(kind platform.EventKind, fn func()) error {
	if kind == w.failOn {
		return errors.New("unsupported")
	}
	w.handlers[kind] = append(w.handlers[kind], fn)
	return nil
}

func (w *fakeWindow) emit(kind platform.EventKind) {
	for _, fn := range w.handlers[kind] {
		fn()
	}
}

type countingStore struct {
	*winstate.MemoryStore
	sets int
}

func (s *countingStore) Set(key string, r platform.Rect) {
	s.sets++
	s.MemoryStore.Set(key, r)
}

func TestAttach_SubscribesToEveryGeometryEvent(t *testing.T) {
	win := newFakeWindow(platform.Rect{X: 1, Y: 2, Width: 300, Height: 200})
	b := New(winstate.NewMemoryStore(), "main", win.rect, quietLogger())
	if err := b.Attach(win); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	for _, kind := range []platform.EventKind{
		platform.EventMaximize,
		platform.EventUnmaximize,
		platform.EventResize,
		platform.EventMove,
		platform.EventClose,
	} {
		if len(win.handlers[kind]) != 1 {
			t.Fatalf("expected one handler for %s, got %d", kind, len(win.handlers[kind]))
		}
	}
}

func TestAttach_PropagatesSubscribeError(t *testing.T) {
	win := newFakeWindow(platform.Rect{Width: 300, Height: 200})
	win.failOn = platform.EventMaximize
	b := New(winstate.NewMemoryStore(), "main", win.rect, quietLogger())
	if err := b.Attach(win); err == nil {
		t.Fatal("expected subscribe error")
	}
}

func TestEvents_PersistLiveGeometry(t *testing.T) {
	store := &countingStore{MemoryStore: winstate.NewMemoryStore()}
	win := newFakeWindow(platform.Rect{X: 0, Y: 0, Width: 1000, Height: 600})
	b := New(store, "main", win.rect, quietLogger())
	if err := b.Attach(win); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}

	win.rect = platform.Rect{X: 40, Y: 50, Width: 1000, Height: 600}
	win.emit(platform.EventMove)
	if got := store.Get(winstate.Key("main"), platform.Rect{}); got != win.rect {
		t.Fatalf("after move stored %+v, want %+v", got, win.rect)
	}

	win.rect = platform.Rect{X: 40, Y: 50, Width: 1200, Height: 700}
	win.emit(platform.EventResize)
	win.emit(platform.EventMaximize)
	win.emit(platform.EventUnmaximize)
	if got := store.Get(winstate.Key("main"), platform.Rect{}); got != win.rect {
		t.Fatalf("after resize stored %+v, want %+v", got, win.rect)
	}
	if store.sets != 4 {
		t.Fatalf("expected 4 writes, got %d", store.sets)
	}
	if b.State().Rect != win.rect {
		t.Fatalf("State() = %+v, want %+v", b.State().Rect, win.rect)
	}
}

func TestClose_FallsBackToLastKnownGeometry(t *testing.T) {
	store := winstate.NewMemoryStore()
	win := newFakeWindow(platform.Rect{X: 10, Y: 20, Width: 640, Height: 480})
	b := New(store, "main", win.rect, quietLogger())
	if err := b.Attach(win); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	last := win.rect

	win.err = errors.New("window destroyed")
	win.emit(platform.EventClose)

	if got := store.Get(winstate.Key("main"), platform.Rect{}); got != last {
		t.Fatalf("stored %+v, want last known %+v", got, last)
	}
}

func TestSave_IgnoresInvalidLiveGeometry(t *testing.T) {
	store := winstate.NewMemoryStore()
	initial := platform.Rect{X: 10, Y: 20, Width: 640, Height: 480}
	win := newFakeWindow(initial)
	b := New(store, "main", initial, quietLogger())
	if err := b.Attach(win); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}

	win.rect = platform.Rect{X: 10, Y: 20, Width: 0, Height: 0}
	win.emit(platform.EventResize)

	if got := store.Get(winstate.Key("main"), platform.Rect{}); got != initial {
		t.Fatalf("stored %+v, want %+v", got, initial)
	}
}

func TestCurrentRect(t *testing.T) {
	win := newFakeWindow(platform.Rect{X: -5, Y: 7, Width: 9, Height: 11})
	got, err := CurrentRect(win)
	if err != nil {
		t.Fatalf("CurrentRect() error: %v", err)
	}
	if got != win.rect {
		t.Fatalf("CurrentRect() = %+v, want %+v", got, win.rect)
	}
}

func TestState_ConcurrentWithSave(t *testing.T) {
	store := winstate.NewMemoryStore()
	win := newFakeWindow(platform.Rect{X: 10, Y: 20, Width: 640, Height: 480})
	b := New(store, "main", win.rect, quietLogger())
	if err := b.Attach(win); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Save()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		if got := b.State().Rect; got != win.rect {
			t.Fatalf("State() = %+v, want %+v", got, win.rect)
		}
	}
	wg.Wait()
}
