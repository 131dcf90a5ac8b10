package platform

// geometryEvents classifies a configure notification by comparing the
// previous and current rectangle. A pure restack yields no events.
func geometryEvents(prev, next Rect) []EventKind {
	var kinds []EventKind
	if prev.X != next.X || prev.Y != next.Y {
		kinds = append(kinds, EventMove)
	}
	if prev.Width != next.Width || prev.Height != next.Height {
		kinds = append(kinds, EventResize)
	}
	return kinds
}

// stateEvent returns the event for a maximized-state transition, if any.
func stateEvent(wasMaximized, isMaximized bool) (EventKind, bool) {
	switch {
	case !wasMaximized && isMaximized:
		return EventMaximize, true
	case wasMaximized && !isMaximized:
		return EventUnmaximize, true
	default:
		return "", false
	}
}
