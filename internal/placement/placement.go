// Package placement decides where a window should appear given a saved
// rectangle and the displays that are connected right now.
//
// A saved rectangle is kept only when it lies entirely inside a single
// display. Anything else, including a window straddling two monitors, is
// replaced by a default centered on the primary display.
package placement

import "github.com/1broseidon/winkeep/internal/platform"

// Source records which path produced a placement.
type Source string

const (
	// SourceDefault is the raw default size with no position, used when
	// nothing usable was persisted or no display is known.
	SourceDefault Source = "default"
	// SourceRestored is a persisted rectangle that is still visible.
	SourceRestored Source = "restored"
	// SourceRecentered is the default size centered on the primary display,
	// used when a persisted rectangle is no longer visible.
	SourceRecentered Source = "recentered"
)

// Positioned reports whether the placement carries a meaningful position.
// SourceDefault leaves positioning to the window manager.
func (s Source) Positioned() bool {
	return s != SourceDefault
}

// Placement is the outcome of Resolve.
type Placement struct {
	Rect   platform.Rect `json:"rect"`
	Source Source        `json:"source"`
}

// IsWithinBounds reports whether r lies fully inside bounds. Touching an edge
// counts as inside.
func IsWithinBounds(r, bounds platform.Rect) bool {
	return r.X >= bounds.X &&
		r.Y >= bounds.Y &&
		r.X+r.Width <= bounds.X+bounds.Width &&
		r.Y+r.Height <= bounds.Y+bounds.Height
}

// IsVisibleOnAnyDisplay reports whether r fits inside at least one display.
func IsVisibleOnAnyDisplay(r platform.Rect, displays []platform.Rect) bool {
	for _, d := range displays {
		if IsWithinBounds(r, d) {
			return true
		}
	}
	return false
}

// DefaultRect centers size within primary. Offsets are relative to the
// primary display origin, which may be negative in virtual-screen space.
func DefaultRect(primary platform.Rect, size platform.Size) platform.Rect {
	return platform.Rect{
		X:      primary.X + (primary.Width-size.Width)/2,
		Y:      primary.Y + (primary.Height-size.Height)/2,
		Width:  size.Width,
		Height: size.Height,
	}
}

// Resolve picks the rectangle a window should open with.
//
// A nil or invalid candidate yields the raw default size without centering.
// A candidate visible on some display is returned unchanged. Otherwise the
// default size is centered on primary, or on the first display when primary
// is nil. With no displays at all the raw default size is returned.
func Resolve(candidate *platform.Rect, displays []platform.Rect, primary *platform.Rect, size platform.Size) Placement {
	raw := Placement{
		Rect:   platform.Rect{Width: size.Width, Height: size.Height},
		Source: SourceDefault,
	}
	if candidate == nil || !candidate.Valid() {
		return raw
	}
	if IsVisibleOnAnyDisplay(*candidate, displays) {
		return Placement{Rect: *candidate, Source: SourceRestored}
	}
	return Recenter(displays, primary, size)
}

// Recenter centers size on primary, or on the first display when primary is
// nil. With no displays the raw size is returned unpositioned.
func Recenter(displays []platform.Rect, primary *platform.Rect, size platform.Size) Placement {
	if len(displays) == 0 {
		return Placement{
			Rect:   platform.Rect{Width: size.Width, Height: size.Height},
			Source: SourceDefault,
		}
	}

	center := displays[0]
	if primary != nil {
		center = *primary
	}
	return Placement{Rect: DefaultRect(center, size), Source: SourceRecentered}
}
