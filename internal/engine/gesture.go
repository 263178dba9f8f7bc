package engine

import "math"

// Swipe is the outcome of a completed touch gesture.
type Swipe int

const (
	// SwipeNone means the gesture did not travel far enough to count.
	SwipeNone Swipe = iota
	SwipeLeft
	SwipeRight
	SwipeUp
	SwipeDown
)

// GestureAxis is the axis a gesture locked onto.
type GestureAxis int

const (
	// AxisUndecided means the pointer has not yet moved past the lock
	// threshold in either direction.
	AxisUndecided GestureAxis = iota
	AxisHorizontal
	AxisVertical
)

const (
	// gestureLockThreshold is how far the pointer must travel before the
	// gesture commits to an axis.
	gestureLockThreshold = 20.0

	// swipeThreshold is the minimum travel along the locked axis for the
	// gesture to resolve into a swipe.
	swipeThreshold = 50.0
)

// GestureTracker resolves raw pointer movement into swipes. The axis locks
// once total travel exceeds the lock threshold and never changes for the
// remainder of the gesture, so a drag that starts horizontal stays
// horizontal even if the finger later drifts vertically.
//
// Not safe for concurrent use; each pointer sequence gets its own tracker
// or resets one between gestures.
type GestureTracker struct {
	active         bool
	startX, startY float64
	lastX, lastY   float64
	axis           GestureAxis
}

// Begin starts tracking a gesture at the given pointer coordinates.
func (g *GestureTracker) Begin(x, y float64) {
	g.active = true
	g.startX, g.startY = x, y
	g.lastX, g.lastY = x, y
	g.axis = AxisUndecided
}

// Move feeds a pointer position update. It returns the locked axis, which
// callers use to decide whether to cancel scroll handling.
func (g *GestureTracker) Move(x, y float64) GestureAxis {
	if !g.active {
		return AxisUndecided
	}
	g.lastX, g.lastY = x, y

	if g.axis == AxisUndecided {
		dx := math.Abs(x - g.startX)
		dy := math.Abs(y - g.startY)
		if dx > gestureLockThreshold || dy > gestureLockThreshold {
			if dx > dy {
				g.axis = AxisHorizontal
			} else {
				g.axis = AxisVertical
			}
		}
	}
	return g.axis
}

// Axis reports the currently locked axis.
func (g *GestureTracker) Axis() GestureAxis {
	return g.axis
}

// End finishes the gesture and resolves it into a swipe. Travel below the
// swipe threshold, or a gesture that never locked an axis, yields SwipeNone.
func (g *GestureTracker) End() Swipe {
	if !g.active {
		return SwipeNone
	}
	g.active = false

	dx := g.lastX - g.startX
	dy := g.lastY - g.startY

	switch g.axis {
	case AxisHorizontal:
		if dx <= -swipeThreshold {
			return SwipeLeft
		}
		if dx >= swipeThreshold {
			return SwipeRight
		}
	case AxisVertical:
		if dy <= -swipeThreshold {
			return SwipeUp
		}
		if dy >= swipeThreshold {
			return SwipeDown
		}
	default:
		// Never locked: only a predominantly vertical flick resolves.
		if math.Abs(dy) > math.Abs(dx) {
			if dy <= -swipeThreshold {
				return SwipeUp
			}
			if dy >= swipeThreshold {
				return SwipeDown
			}
		}
	}
	return SwipeNone
}

// Cancel abandons the gesture without resolving it.
func (g *GestureTracker) Cancel() {
	g.active = false
	g.axis = AxisUndecided
}
