package config

import (
	"time"

	"github.com/mastercactapus/router/router"
)

const (
	ControllerGrbl = "grbl"
	ControllerSim  = "sim"
)

const (
	DefaultController   = ControllerGrbl
	DefaultPort         = "/dev/ttyUSB0"
	DefaultBaud         = 115200
	DefaultPollInterval = 500 * time.Millisecond
	DefaultAddr         = ":9091"
	DefaultSimSpeedup   = 1.0

	// DefaultMeshGranularity is in inches.
	DefaultMeshGranularity = 0.25
)

// unset reports if a router value should get its default. For a loaded
// file that means the key is absent, so an explicit zero is kept.
func (c *Config) unset(v float64, key string) bool {
	if c.md != nil {
		return !c.md.IsDefined("router", key)
	}
	return v == 0
}

// ApplyDefaults fills values that were not set.
func (c *Config) ApplyDefaults() {
	def := router.DefaultSettings()
	if c.unset(c.Router.MoveHeight, "move_height") {
		c.Router.MoveHeight = def.MoveHeight
	}
	if c.unset(c.Router.MoveSpeed, "move_speed") {
		c.Router.MoveSpeed = def.MoveSpeed
	}
	if c.unset(c.Router.RoutSpeed, "rout_speed") {
		c.Router.RoutSpeed = def.RoutSpeed
	}
	if c.unset(c.Router.MaxCutDepth, "max_cut_depth") {
		c.Router.MaxCutDepth = def.MaxCutDepth
	}

	if c.Machine.Controller == "" {
		c.Machine.Controller = DefaultController
	}
	if c.Machine.Port == "" {
		c.Machine.Port = DefaultPort
	}
	if c.Machine.Baud == 0 {
		c.Machine.Baud = DefaultBaud
	}
	if c.Machine.PollInterval.Duration == 0 {
		c.Machine.PollInterval.Duration = DefaultPollInterval
	}
	if c.Machine.SimSpeedup == 0 {
		c.Machine.SimSpeedup = DefaultSimSpeedup
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Mesh.Granularity == 0 {
		c.Mesh.Granularity = DefaultMeshGranularity
	}
}
