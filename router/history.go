package router

import (
	"time"

	"github.com/mastercactapus/router/coord"
)

// HistoryWindow is how long a past position stays in the trail.
const HistoryWindow = 5000 * time.Millisecond

// positionEpsilon is the smallest change that counts as movement.
const positionEpsilon = 1e-9

// TrailPoint is a position the tool has left.
type TrailPoint struct {
	Time  time.Time
	Point coord.Point
}

// Fade goes from 1 for a new point to 0 at the end of HistoryWindow.
func (p TrailPoint) Fade(now time.Time) float64 {
	age := now.Sub(p.Time)
	switch {
	case age <= 0:
		return 1
	case age >= HistoryWindow:
		return 0
	}
	return 1 - float64(age)/float64(HistoryWindow)
}

// HandlePositionChanged records the previous position in the trail if the
// machine has moved.
//
// The stored entry is the position the tool moved away from, stamped
// with the time it was left.
func (c *Controller) HandlePositionChanged() {
	p := c.hw.Position()

	c.histMx.Lock()
	defer c.histMx.Unlock()
	if p.Distance(c.last) <= positionEpsilon {
		return
	}
	c.history = append(c.history, TrailPoint{Time: c.now(), Point: c.last})
	c.last = p
}

// LastPosition is the most recent position reported by the machine.
func (c *Controller) LastPosition() coord.Point {
	c.histMx.Lock()
	defer c.histMx.Unlock()
	return c.last
}

// History drops trail points older than HistoryWindow and returns the rest,
// oldest first.
func (c *Controller) History() []TrailPoint {
	c.histMx.Lock()
	defer c.histMx.Unlock()

	now := c.now()
	keep := c.history[:0]
	for _, p := range c.history {
		if now.Sub(p.Time) > HistoryWindow {
			continue
		}
		keep = append(keep, p)
	}
	// clear the tail so dropped points can be collected
	for i := len(keep); i < len(c.history); i++ {
		c.history[i] = TrailPoint{}
	}
	c.history = keep
	trailPoints.Set(float64(len(keep)))

	res := make([]TrailPoint, len(keep))
	copy(res, keep)
	return res
}
