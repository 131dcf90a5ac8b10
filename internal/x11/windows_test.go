package x11

import "testing"

func TestFrameOrigin(t *testing.T) {
	tests := []struct {
		name         string
		clientX      int
		clientY      int
		left, top    int
		wantX, wantY int
	}{
		{"undecorated", 100, 130, 0, 0, 100, 130},
		{"title bar", 100, 130, 0, 30, 100, 100},
		{"border and title bar", 100, 130, 4, 30, 96, 100},
		{"negative display origin", -1820, 40, 2, 24, -1822, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := frameOrigin(tt.clientX, tt.clientY, tt.left, tt.top)
			if x != tt.wantX || y != tt.wantY {
				t.Fatalf("frameOrigin() = (%d, %d), want (%d, %d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

// A window restored to its saved client origin reports the same origin back
// once the window manager adds its decorations.
func TestFrameOrigin_RoundTrip(t *testing.T) {
	saved := [2]int{100, 130}
	left, top := 4, 30
	fx, fy := frameOrigin(saved[0], saved[1], left, top)
	if got := [2]int{fx + left, fy + top}; got != saved {
		t.Fatalf("client origin after restore = %v, want %v", got, saved)
	}
}
