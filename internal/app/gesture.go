package app

import "math"

// Release thresholds for classifying a drag release into a direction. A
// horizontal release triggers once displacement exceeds the viewport-width
// fraction or velocity exceeds the flick threshold, whichever comes first.
const (
	horizontalReleaseRatio = 0.28   // fraction of viewport width
	flickVelocity          = 800.0  // points per second
	moreInfoDisplacement   = -120.0 // upward drag, points
)

// Gesture is a drag release: translation and velocity at the moment the
// finger lifts, plus the viewport width the translation is relative to.
type Gesture struct {
	DX, DY        float64 // translation, points
	VX, VY        float64 // velocity, points/second
	ViewportWidth float64
}

// ClassifyGesture maps a release to a direction. A release below every
// threshold yields ok=false and must not advance any cursor; the caller
// resets its transient visual offset and nothing else happens.
func ClassifyGesture(g Gesture) (Direction, bool) {
	// Dominantly-vertical upward drags ask for more info.
	if g.DY <= moreInfoDisplacement && math.Abs(g.DY) > math.Abs(g.DX) {
		return DirectionMoreInfo, true
	}

	threshold := horizontalReleaseRatio * g.ViewportWidth
	if threshold > 0 && math.Abs(g.DX) >= threshold {
		if g.DX > 0 {
			return DirectionLike, true
		}
		return DirectionPass, true
	}
	if math.Abs(g.VX) >= flickVelocity {
		if g.VX > 0 {
			return DirectionLike, true
		}
		return DirectionPass, true
	}
	return DirectionPass, false
}
