// Package daemon keeps the geometry of configured windows while winkeep runs
// in the background.
package daemon

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/winkeep/internal/bridge"
	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/ipc"
	"github.com/1broseidon/winkeep/internal/keeper"
	"github.com/1broseidon/winkeep/internal/platform"
)

// WindowSource lists and opens client windows.
type WindowSource interface {
	ClientWindows() ([]platform.WindowID, error)
	WindowClass(windowID platform.WindowID) string
	Window(windowID platform.WindowID) (platform.Window, error)
}

type trackedWindow struct {
	name   string
	win    platform.Window
	bridge *bridge.Bridge
}

// Tracker attaches the keeper to client windows whose WM_CLASS matches a
// configured window rule. At most one window is tracked per rule name.
type Tracker struct {
	cfg     *config.Config
	keeper  *keeper.Keeper
	windows WindowSource
	logger  *slog.Logger

	// syncMu serializes Sync between the event loop and the reconciler.
	syncMu  sync.Mutex
	mu      sync.Mutex
	byName  map[string]platform.WindowID
	tracked map[platform.WindowID]*trackedWindow
	// skipped holds windows already seen without a usable rule so the class
	// is not re-read on every client list change.
	skipped map[platform.WindowID]bool
}

var _ ipc.Tracker = (*Tracker)(nil)

// NewTracker creates a tracker. A nil logger uses slog.Default().
func NewTracker(cfg *config.Config, k *keeper.Keeper, windows WindowSource, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		cfg:     cfg,
		keeper:  k,
		windows: windows,
		logger:  logger,
		byName:  make(map[string]platform.WindowID),
		tracked: make(map[platform.WindowID]*trackedWindow),
		skipped: make(map[platform.WindowID]bool),
	}
}

// Sync reconciles the tracked set with the current client list: matching new
// windows are placed and watched, vanished ones are saved and dropped.
func (t *Tracker) Sync() {
	t.syncMu.Lock()
	defer t.syncMu.Unlock()

	ids, err := t.windows.ClientWindows()
	if err != nil {
		t.logger.Warn("failed to list client windows", "error", err)
		return
	}

	present := make(map[platform.WindowID]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}
	t.dropMissing(present)

	for _, id := range ids {
		t.consider(id)
	}
}

func (t *Tracker) consider(id platform.WindowID) {
	t.mu.Lock()
	if t.tracked[id] != nil || t.skipped[id] {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	class := t.windows.WindowClass(id)
	name, ok := t.cfg.MatchClass(class)
	if !ok {
		t.markSkipped(id)
		return
	}

	t.mu.Lock()
	if other, busy := t.byName[name]; busy {
		t.mu.Unlock()
		t.logger.Debug("window rule already tracking a window",
			"window", name, "window_id", id, "tracked_id", other)
		t.markSkipped(id)
		return
	}
	t.mu.Unlock()

	win, err := t.windows.Window(id)
	if err != nil {
		t.logger.Warn("failed to open window", "window", name, "window_id", id, "error", err)
		t.markSkipped(id)
		return
	}

	rule, _ := t.cfg.RuleFor(name)
	b, p, err := t.keeper.Open(name, rule.DefaultSize(), win)
	if err != nil {
		t.logger.Warn("failed to keep window", "window", name, "window_id", id, "error", err)
		win.Detach()
		t.markSkipped(id)
		return
	}

	tw := &trackedWindow{name: name, win: win, bridge: b}
	// Subscribed after the bridge so the close geometry is persisted first.
	if err := win.Subscribe(platform.EventClose, func() { t.forget(id) }); err != nil {
		t.logger.Warn("failed to watch window close", "window", name, "window_id", id, "error", err)
	}

	t.mu.Lock()
	t.tracked[id] = tw
	t.byName[name] = id
	t.mu.Unlock()

	t.logger.Info("tracking window", "window", name, "window_id", id, "class", class,
		"source", string(p.Source))
}

func (t *Tracker) markSkipped(id platform.WindowID) {
	t.mu.Lock()
	t.skipped[id] = true
	t.mu.Unlock()
}

func (t *Tracker) dropMissing(present map[platform.WindowID]bool) {
	t.mu.Lock()
	var gone []*trackedWindow
	var goneIDs []platform.WindowID
	for id, tw := range t.tracked {
		if !present[id] {
			gone = append(gone, tw)
			goneIDs = append(goneIDs, id)
		}
	}
	for id := range t.skipped {
		if !present[id] {
			delete(t.skipped, id)
		}
	}
	t.mu.Unlock()

	for i, tw := range gone {
		// Withdrawn windows leave the client list without a DestroyNotify.
		tw.bridge.Save()
		tw.win.Detach()
		t.forget(goneIDs[i])
	}
}

func (t *Tracker) forget(id platform.WindowID) {
	t.mu.Lock()
	tw := t.tracked[id]
	if tw == nil {
		t.mu.Unlock()
		return
	}
	delete(t.tracked, id)
	if t.byName[tw.name] == id {
		delete(t.byName, tw.name)
	}
	t.mu.Unlock()

	t.logger.Info("window closed", "window", tw.name, "window_id", id)
}

// Recenter moves the tracked window id to the center of the primary display,
// keeping its current size, and persists the result. It reports false when id
// is not tracked.
func (t *Tracker) Recenter(id platform.WindowID) (bool, error) {
	t.mu.Lock()
	tw := t.tracked[id]
	t.mu.Unlock()
	if tw == nil {
		return false, nil
	}

	current := tw.bridge.State().Rect
	p := t.keeper.Recenter(platform.Size{Width: current.Width, Height: current.Height})
	if !p.Source.Positioned() {
		return true, fmt.Errorf("no display to center %q on", tw.name)
	}
	if err := t.keeper.Apply(tw.win, p); err != nil {
		return true, fmt.Errorf("failed to recenter %q: %w", tw.name, err)
	}
	tw.bridge.Save()
	t.logger.Info("recentered window", "window", tw.name, "window_id", id,
		"x", p.Rect.X, "y", p.Rect.Y)
	return true, nil
}

// Tracked returns the tracked windows sorted by name.
func (t *Tracker) Tracked() []ipc.TrackedWindow {
	t.mu.Lock()
	out := make([]ipc.TrackedWindow, 0, len(t.tracked))
	for id, tw := range t.tracked {
		out = append(out, ipc.TrackedWindow{
			Name:     tw.name,
			WindowID: uint32(id),
			Rect:     tw.bridge.State().Rect,
		})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Close saves every tracked window and stops watching it.
func (t *Tracker) Close() {
	t.mu.Lock()
	windows := make([]*trackedWindow, 0, len(t.tracked))
	for _, tw := range t.tracked {
		windows = append(windows, tw)
	}
	t.tracked = make(map[platform.WindowID]*trackedWindow)
	t.byName = make(map[string]platform.WindowID)
	t.mu.Unlock()

	for _, tw := range windows {
		tw.bridge.Save()
		tw.win.Detach()
	}
}
