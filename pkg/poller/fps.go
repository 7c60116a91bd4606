package poller

import "time"

const (
	fpsKeep = 0.9
	fpsNew  = 0.1
)

// FPSEstimator smooths the refresh rate with an exponential moving average
// over successive tick timestamps.
type FPSEstimator struct {
	fps  float64
	last time.Time
}

// Observe records a tick at now and returns the updated estimate. The first
// observation only sets the reference time; non-positive intervals are ignored.
func (e *FPSEstimator) Observe(now time.Time) float64 {
	if e.last.IsZero() {
		e.last = now
		return e.fps
	}
	dt := now.Sub(e.last).Seconds()
	e.last = now
	if dt <= 0 {
		return e.fps
	}
	e.fps = fpsKeep*e.fps + fpsNew*(1/dt)
	return e.fps
}

// FPS returns the current estimate.
func (e *FPSEstimator) FPS() float64 {
	return e.fps
}
