package router

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/mastercactapus/router/coord"
	"github.com/stretchr/testify/assert"
)

func TestController_SetSpeed(t *testing.T) {
	c, _ := newTestController(t, coord.Point{})

	for _, v := range []float64{0, -1} {
		assert.Equal(t, ErrInvalidSpeed, c.SetMoveSpeed(v))
		assert.Equal(t, ErrInvalidSpeed, c.SetRoutSpeed(v))
	}
	assert.Equal(t, ErrInvalidValue, c.SetRoutSpeed(math.NaN()))
	assert.Equal(t, ErrInvalidValue, c.SetMoveSpeed(math.Inf(1)))
	assert.Equal(t, testSettings, c.Settings())

	assert.NoError(t, c.SetMoveSpeed(12))
	assert.NoError(t, c.SetRoutSpeed(0.5))
	assert.Equal(t, 12.0, c.Settings().MoveSpeed)
	assert.Equal(t, 0.5, c.Settings().RoutSpeed)
}

func TestController_SetUnconstrained(t *testing.T) {
	c, _ := newTestController(t, coord.Point{})

	assert.NoError(t, c.SetMoveHeight(-1))
	assert.NoError(t, c.SetMaxCutDepth(0))
	assert.Equal(t, -1.0, c.Settings().MoveHeight)
	assert.Equal(t, 0.0, c.Settings().MaxCutDepth)

	assert.Equal(t, ErrInvalidValue, c.SetMoveHeight(math.NaN()))
	assert.Equal(t, ErrInvalidValue, c.SetMaxCutDepth(math.Inf(-1)))
	assert.Equal(t, -1.0, c.Settings().MoveHeight)
}

func TestController_ApplySettings(t *testing.T) {
	c, _ := newTestController(t, coord.Point{})

	bad := Settings{MoveHeight: 1, MoveSpeed: 1, RoutSpeed: 0, MaxCutDepth: 1}
	err := c.ApplySettings(bad)
	assert.True(t, errors.Is(err, ErrInvalidSpeed))
	assert.Equal(t, testSettings, c.Settings(), "rejected settings are not partially applied")

	good := Settings{MoveHeight: 1, MoveSpeed: 2, RoutSpeed: 3, MaxCutDepth: 4}
	assert.NoError(t, c.ApplySettings(good))
	assert.Equal(t, good, c.Settings())
}

func TestController_UpdateSettings(t *testing.T) {
	c, _ := newTestController(t, coord.Point{})

	failed := errors.New("bad body")
	err := c.UpdateSettings(func(s *Settings) error {
		s.MoveHeight = 99
		return failed
	})
	assert.Equal(t, failed, err)
	assert.Equal(t, testSettings, c.Settings())

	err = c.UpdateSettings(func(s *Settings) error {
		s.MoveHeight = 99
		s.RoutSpeed = -1
		return nil
	})
	assert.True(t, errors.Is(err, ErrInvalidSpeed))
	assert.Equal(t, testSettings, c.Settings())

	assert.NoError(t, c.UpdateSettings(func(s *Settings) error {
		s.RoutSpeed = 7
		return nil
	}))
	want := testSettings
	want.RoutSpeed = 7
	assert.Equal(t, want, c.Settings())
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.NoError(t, s.Validate())
	assert.Equal(t, 0.010, s.MaxCutDepth, "10 mils, in inches")
}

func TestController_UpdateSettings_Concurrent(t *testing.T) {
	c, _ := newTestController(t, coord.Point{})

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			c.UpdateSettings(func(s *Settings) error {
				s.RoutSpeed = v
				return nil
			})
		}(float64(i))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, c.SetMoveSpeed(5))
	}()
	wg.Wait()

	assert.Equal(t, 5.0, c.Settings().MoveSpeed, "update does not undo a concurrent setter")
}
