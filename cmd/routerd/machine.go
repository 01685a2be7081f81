package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mastercactapus/router/config"
	"github.com/mastercactapus/router/machine"
	"github.com/mastercactapus/router/machine/grbl"
	"github.com/mastercactapus/router/machine/sim"
	"github.com/mastercactapus/router/meshlevel"
	"github.com/mastercactapus/router/spjs"
	"github.com/tarm/serial"
)

type closers []io.Closer

func (c closers) Close() error {
	var err error
	for i := len(c) - 1; i >= 0; i-- {
		if e := c[i].Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// openMachine connects to the configured controller, wrapping it with
// surface compensation if a mesh file is configured.
func openMachine(cfg config.MachineConfig, meshCfg config.MeshConfig) (machine.Hardware, io.Closer, error) {
	var hw machine.Hardware
	var c closers

	switch cfg.Controller {
	case config.ControllerSim:
		m := sim.New(sim.Options{
			Speedup:      cfg.SimSpeedup,
			IdleInterval: cfg.PollInterval.Duration,
		})
		hw, c = m, append(c, m)
	case config.ControllerGrbl:
		if cfg.SPJS != "" {
			sp := spjs.NewClient(cfg.SPJS)
			adapter := grbl.NewSPJSAdapter(sp, cfg.Port, cfg.PollInterval.Duration)
			hw, c = adapter, append(c, sp, adapter)
			break
		}
		port, err := serial.OpenPort(&serial.Config{Name: cfg.Port, Baud: cfg.Baud})
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.Port, err)
		}
		adapter := grbl.NewSerialAdapter(port, cfg.PollInterval.Duration)
		hw, c = adapter, append(c, adapter)
	default:
		return nil, nil, fmt.Errorf("unsupported controller %q", cfg.Controller)
	}

	if meshCfg.File == "" {
		return hw, c, nil
	}

	f, err := os.Open(meshCfg.File)
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	defer f.Close()
	mesh, err := meshlevel.ReadMesh(f, meshCfg.ZRef)
	if err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("mesh %s: %w", meshCfg.File, err)
	}

	return meshlevel.Compensate(hw, mesh), c, nil
}
