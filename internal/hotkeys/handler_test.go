package hotkeys

import "testing"

func TestCombineMasks(t *testing.T) {
	masks := []uint16{0x2, 0x10, 0x80}
	tests := []struct {
		subset int
		want   uint16
	}{
		{0, 0},
		{1, 0x2},
		{2, 0x10},
		{3, 0x12},
		{7, 0x92},
	}
	for _, tt := range tests {
		if got := combineMasks(masks, tt.subset); got != tt.want {
			t.Errorf("combineMasks(%d) = %#x, want %#x", tt.subset, got, tt.want)
		}
	}
}

func TestNewHandler_RequiresX11Backend(t *testing.T) {
	if _, err := NewHandler(struct{}{}, nil); err == nil {
		t.Fatal("expected error for non-X11 backend")
	}
}
