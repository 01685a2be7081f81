package router

import (
	"bytes"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/mastercactapus/router/coord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var square = []coord.Point2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}

func TestController_RoutPath(t *testing.T) {
	c, _ := newTestController(t, coord.Point{Z: 30})

	cmds := c.RoutPath(square, -5, false)
	assert.Equal(t, []Command{
		Move{Target: coord.Point{X: 0, Y: 0, Z: -5}, FeedRate: 2},
		Move{Target: coord.Point{X: 10, Y: 0, Z: -5}, FeedRate: 2},
		Move{Target: coord.Point{X: 10, Y: 10, Z: -5}, FeedRate: 2},
	}, cmds)
	assert.Equal(t, cmds, c.Pending())
	assert.Equal(t, coord.Point{X: 10, Y: 10, Z: -5}, c.FinalPosition())
}

func TestController_RoutPath_Reverse(t *testing.T) {
	c, _ := newTestController(t, coord.Point{X: 50, Y: 50, Z: 30})

	cmds := c.RoutPath(square, -5, true)
	assert.Equal(t, []Command{
		Move{Target: coord.Point{X: 50, Y: 50, Z: 30}, FeedRate: 4},
		Move{Target: coord.Point{X: 10, Y: 10, Z: 30}, FeedRate: 4},
		Move{Target: coord.Point{X: 10, Y: 10, Z: -5}, FeedRate: 2},
		Move{Target: coord.Point{X: 10, Y: 0, Z: -5}, FeedRate: 2},
		Move{Target: coord.Point{X: 0, Y: 0, Z: -5}, FeedRate: 2},
	}, cmds)
	assert.Equal(t, 5, c.Len())

	// caller's slice is untouched
	assert.Equal(t, coord.Point2{X: 0, Y: 0}, square[0])
}

func TestController_RoutPath_Chained(t *testing.T) {
	c, _ := newTestController(t, coord.Point{Z: 30})

	c.RoutPath(square, -5, false)
	// continues from (10,10), so no travel
	cmds := c.RoutPath([]coord.Point2{{X: 10, Y: 10}, {X: 0, Y: 10}}, -5, false)
	assert.Len(t, cmds, 2)

	// within tolerance of the plan end
	cmds = c.RoutPath([]coord.Point2{{X: 0.00005, Y: 10}, {X: 0, Y: 0}}, -5, false)
	assert.Len(t, cmds, 2)

	// disjoint
	cmds = c.RoutPath([]coord.Point2{{X: 20, Y: 20}}, -5, false)
	assert.Equal(t, []Command{
		Move{Target: coord.Point{X: 0, Y: 0, Z: 30}, FeedRate: 4},
		Move{Target: coord.Point{X: 20, Y: 20, Z: 30}, FeedRate: 4},
		Move{Target: coord.Point{X: 20, Y: 20, Z: -5}, FeedRate: 2},
	}, cmds)
	assert.Equal(t, 3+2+2+3, c.Len())
}

func TestController_RoutPath_Empty(t *testing.T) {
	c, _ := newTestController(t, coord.Point{X: 3})

	assert.Empty(t, c.RoutPath(nil, -5, true))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, coord.Point{X: 3}, c.FinalPosition())
}

func TestController_RoutPath_UsesCurrentSettings(t *testing.T) {
	c, _ := newTestController(t, coord.Point{X: 1, Y: 1})
	assert.NoError(t, c.SetMoveHeight(5))
	assert.NoError(t, c.SetMoveSpeed(9))
	assert.NoError(t, c.SetRoutSpeed(3))

	// deeper than MaxCutDepth is only advisory
	cmds := c.RoutPath([]coord.Point2{{X: 2, Y: 2}}, -50, false)
	assert.Equal(t, []Command{
		Move{Target: coord.Point{X: 1, Y: 1, Z: 5}, FeedRate: 9},
		Move{Target: coord.Point{X: 2, Y: 2, Z: 5}, FeedRate: 9},
		Move{Target: coord.Point{X: 2, Y: 2, Z: -50}, FeedRate: 3},
	}, cmds)
}

func TestController_Complete(t *testing.T) {
	c, _ := newTestController(t, coord.Point{})

	c.AddCommand(Move{Target: coord.Point{X: 4, Y: 6, Z: -2}})
	cmds := c.Complete()
	assert.Equal(t, []Command{
		Move{Target: coord.Point{X: 4, Y: 6, Z: 30}, FeedRate: 4},
		Move{Target: coord.Point{X: 0, Y: 0, Z: 30}, FeedRate: 4},
	}, cmds)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, coord.Point{Z: 30}, c.FinalPosition())

	c2, _ := newTestController(t, coord.Point{X: 4, Y: 6, Z: 30})
	cmds = c2.Complete()
	assert.Equal(t, []Command{
		Move{Target: coord.Point{X: 0, Y: 0, Z: 30}, FeedRate: 4},
	}, cmds)
	assert.Equal(t, 1, c2.Len())
}

func TestController_RoutPath_Granularity(t *testing.T) {
	hw := newFakeHardware(coord.Point{X: 0, Y: 0, Z: 30})
	c, err := New(Config{Hardware: hw, Settings: testSettings, Granularity: 4})
	require.NoError(t, err)

	cmds := c.RoutPath([]coord.Point2{{X: 10, Y: 0}, {X: 10, Y: 3}}, -1, false)
	assert.Equal(t, []Command{
		Move{Target: coord.Point{X: 0, Y: 0, Z: 30}, FeedRate: 4},
		Move{Target: coord.Point{X: 10.0 / 3, Y: 0, Z: 30}, FeedRate: 4},
		Move{Target: coord.Point{X: 20.0 / 3, Y: 0, Z: 30}, FeedRate: 4},
		Move{Target: coord.Point{X: 10, Y: 0, Z: 30}, FeedRate: 4},
		Move{Target: coord.Point{X: 10, Y: 0, Z: -1}, FeedRate: 2},
		Move{Target: coord.Point{X: 10, Y: 3, Z: -1}, FeedRate: 2},
	}, cmds)

	cmds = c.Complete()
	require.Len(t, cmds, 4, "lift, then home in 3 steps")
	assert.Equal(t, Move{Target: coord.Point{X: 0, Y: 0, Z: 30}, FeedRate: 4}, cmds[3])

	_, err = New(Config{Hardware: hw, Granularity: -1})
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestController_RoutPath_DepthWarning(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	hw := newFakeHardware(coord.Point{})
	c, err := New(Config{Hardware: hw})
	require.NoError(t, err)

	c.RoutPath([]coord.Point2{{X: 0, Y: 0}}, -0.005, false)
	assert.Empty(t, buf.String())

	c.RoutPath([]coord.Point2{{X: 0, Y: 0}}, -0.02, false)
	assert.Contains(t, buf.String(), "WARNING: rout depth")
}
