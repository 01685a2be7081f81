package router

import (
	"log"
	"math"

	"github.com/mastercactapus/router/coord"
)

// travelTolerance is how far apart (in XY) the plan end and a path start
// can be before the tool is lifted to travel between them.
const travelTolerance = 0.0001

// RoutPath queues moves to cut along points at depth, in reverse if
// requested.
//
// If the path does not start where the plan ends, the tool is first
// lifted to MoveHeight, moved over the start, and then plunged by the
// first cutting move. The queued commands are returned.
func (c *Controller) RoutPath(points []coord.Point2, depth float64, reverse bool) []Command {
	if len(points) == 0 {
		return nil
	}
	s := c.Settings()
	if math.Abs(depth) > s.MaxCutDepth {
		log.Printf("WARNING: rout depth %g exceeds max cut depth %g", depth, s.MaxCutDepth)
	}

	path := make([]coord.Point2, len(points))
	copy(path, points)
	if reverse {
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
	}

	c.queue.mx.Lock()
	defer c.queue.mx.Unlock()

	cmds := make([]Command, 0, len(path)+2)
	from := c.final
	if c.final.XY().Distance(path[0]) > travelTolerance {
		lift := c.final.XY().At(s.MoveHeight)
		cmds = append(cmds, Move{Target: lift, FeedRate: s.MoveSpeed})
		from = path[0].At(s.MoveHeight)
		cmds = append(cmds, c.moves(lift, from, s.MoveSpeed)...)
	}
	for _, p := range path {
		target := p.At(depth)
		cmds = append(cmds, c.moves(from, target, s.RoutSpeed)...)
		from = target
	}

	for _, cmd := range cmds {
		c.addCommand(cmd)
	}
	return cmds
}

// Complete queues moves to lift the tool to MoveHeight, if needed,
// and return to the origin. The queued commands are returned.
func (c *Controller) Complete() []Command {
	s := c.Settings()

	c.queue.mx.Lock()
	defer c.queue.mx.Unlock()

	var cmds []Command
	from := c.final
	if c.final.Z < s.MoveHeight {
		from = c.final.XY().At(s.MoveHeight)
		cmds = append(cmds, Move{Target: from, FeedRate: s.MoveSpeed})
	}
	cmds = append(cmds, c.moves(from, coord.Point{Z: s.MoveHeight}, s.MoveSpeed)...)

	for _, cmd := range cmds {
		c.addCommand(cmd)
	}
	return cmds
}

// moves goes from one point to target, split into equal steps when the
// controller has a granularity and the XY distance exceeds it.
func (c *Controller) moves(from, target coord.Point, feedRate float64) []Command {
	n := 1
	if c.granularity > 0 {
		n = int(math.Ceil(from.DistanceXY(target.X, target.Y) / c.granularity))
	}
	if n <= 1 {
		return []Command{Move{Target: target, FeedRate: feedRate}}
	}

	cmds := make([]Command, 0, n)
	for _, p := range from.Split(target, n) {
		cmds = append(cmds, Move{Target: p, FeedRate: feedRate})
	}
	return cmds
}
