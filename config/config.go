// Package config loads routerd settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mastercactapus/router/router"
)

type Config struct {
	Router  RouterConfig  `toml:"router"`
	Machine MachineConfig `toml:"machine"`
	Server  ServerConfig  `toml:"server"`
	Mesh    MeshConfig    `toml:"mesh"`

	// md records which keys the file set, so an explicit zero is kept.
	md *toml.MetaData
}

type RouterConfig struct {
	MoveHeight  float64 `toml:"move_height"`
	MoveSpeed   float64 `toml:"move_speed"`
	RoutSpeed   float64 `toml:"rout_speed"`
	MaxCutDepth float64 `toml:"max_cut_depth"`
}

type MachineConfig struct {
	// Controller is one of "grbl" or "sim".
	Controller string `toml:"controller"`

	// Port is a serial device path, or a port name on the SPJS server.
	Port string `toml:"port"`
	Baud int    `toml:"baud"`

	// SPJS is the websocket URL of a Serial Port JSON Server. When set,
	// Port is opened through it instead of directly.
	SPJS string `toml:"spjs,omitempty"`

	PollInterval Duration `toml:"poll_interval"`

	// SimSpeedup scales time for the simulated machine.
	SimSpeedup float64 `toml:"sim_speedup,omitempty"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type MeshConfig struct {
	// File is a JSON array of probe results. Empty disables compensation.
	File string  `toml:"file,omitempty"`
	ZRef float64 `toml:"z_ref,omitempty"`

	// Granularity is the longest move, in XY, made without re-reading
	// the surface height.
	Granularity float64 `toml:"granularity,omitempty"`
}

// Duration is a time.Duration written as a string, like "500ms".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Settings converts the router section.
func (c RouterConfig) Settings() router.Settings {
	return router.Settings{
		MoveHeight:  c.MoveHeight,
		MoveSpeed:   c.MoveSpeed,
		RoutSpeed:   c.RoutSpeed,
		MaxCutDepth: c.MaxCutDepth,
	}
}

// Load reads path without applying defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode %s: unknown key %q", path, undecoded[0].String())
	}
	cfg.md = &md
	return &cfg, nil
}

// LoadWithDefaults reads path, fills in defaults and validates the result.
// An empty path yields the defaults.
func LoadWithDefaults(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}
	cfg.ApplyDefaults()
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	err := c.Router.Settings().Validate()
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	switch c.Machine.Controller {
	case ControllerGrbl:
		if c.Machine.Port == "" {
			return errors.New("machine: port is required for grbl")
		}
		if c.Machine.Baud <= 0 {
			return errors.New("machine: baud must be positive")
		}
	case ControllerSim:
	default:
		return fmt.Errorf("machine: unknown controller %q", c.Machine.Controller)
	}
	if c.Machine.PollInterval.Duration <= 0 {
		return errors.New("machine: poll_interval must be positive")
	}
	if c.Server.Addr == "" {
		return errors.New("server: addr is required")
	}
	if c.Mesh.File != "" && !(c.Mesh.Granularity > 0) {
		return errors.New("mesh: granularity must be positive")
	}
	return nil
}
