package router

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidSpeed is returned when a speed is not greater than zero.
	ErrInvalidSpeed = errors.New("speed must be greater than zero")

	// ErrInvalidValue is returned for NaN or infinite settings.
	ErrInvalidValue = errors.New("value must be a finite number")
)

// Settings control how paths are turned into moves.
type Settings struct {
	// MoveHeight is the Z height used when travelling between cuts.
	MoveHeight float64 `json:"moveHeight"`

	// MoveSpeed is the feed rate for travel moves.
	MoveSpeed float64 `json:"moveSpeed"`

	// RoutSpeed is the feed rate while cutting.
	RoutSpeed float64 `json:"routSpeed"`

	// MaxCutDepth is advisory; deeper routs are logged but not clamped.
	// It is in the same units as depth.
	MaxCutDepth float64 `json:"maxCutDepth"`
}

// DefaultSettings are in inches and inches per minute. The max cut
// depth is 10 mils.
func DefaultSettings() Settings {
	return Settings{
		MoveHeight:  0.03,
		MoveSpeed:   4,
		RoutSpeed:   2,
		MaxCutDepth: 0.010,
	}
}

func finite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidValue
	}
	return nil
}

func speed(v float64) error {
	if err := finite(v); err != nil {
		return err
	}
	if v <= 0 {
		return ErrInvalidSpeed
	}
	return nil
}

// Validate checks all fields.
func (s Settings) Validate() error {
	if err := finite(s.MoveHeight); err != nil {
		return fmt.Errorf("move height: %w", err)
	}
	if err := speed(s.MoveSpeed); err != nil {
		return fmt.Errorf("move speed: %w", err)
	}
	if err := speed(s.RoutSpeed); err != nil {
		return fmt.Errorf("rout speed: %w", err)
	}
	if err := finite(s.MaxCutDepth); err != nil {
		return fmt.Errorf("max cut depth: %w", err)
	}
	return nil
}

// Settings returns a snapshot of the current settings.
func (c *Controller) Settings() Settings {
	c.setMx.RLock()
	defer c.setMx.RUnlock()
	return c.settings
}

// ApplySettings replaces all settings, or none if any value is rejected.
func (c *Controller) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.setMx.Lock()
	c.settings = s
	c.setMx.Unlock()
	return nil
}

// UpdateSettings calls fn with a copy of the current settings and applies
// the result, all under one lock so concurrent setters are not lost.
// Nothing changes if fn fails or the result is rejected.
func (c *Controller) UpdateSettings(fn func(*Settings) error) error {
	c.setMx.Lock()
	defer c.setMx.Unlock()

	s := c.settings
	err := fn(&s)
	if err != nil {
		return err
	}
	err = s.Validate()
	if err != nil {
		return err
	}
	c.settings = s
	return nil
}

func (c *Controller) set(check func(float64) error, v float64, field *float64) error {
	if err := check(v); err != nil {
		return err
	}
	c.setMx.Lock()
	*field = v
	c.setMx.Unlock()
	return nil
}

func (c *Controller) SetMoveHeight(v float64) error {
	return c.set(finite, v, &c.settings.MoveHeight)
}
func (c *Controller) SetMoveSpeed(v float64) error {
	return c.set(speed, v, &c.settings.MoveSpeed)
}
func (c *Controller) SetRoutSpeed(v float64) error {
	return c.set(speed, v, &c.settings.RoutSpeed)
}
func (c *Controller) SetMaxCutDepth(v float64) error {
	return c.set(finite, v, &c.settings.MaxCutDepth)
}
