package meshlevel

import (
	"github.com/mastercactapus/router/coord"
	"github.com/mastercactapus/router/machine"
)

// A ZOffsetter reports the surface height at x,y, if known.
type ZOffsetter interface {
	OffsetZ(x, y float64) (bool, float64)
}

// Hardware follows a probed surface: commanded heights are raised by the
// surface offset, and reported heights lowered by it. Outside the mesh,
// positions pass through unchanged.
type Hardware struct {
	machine.Hardware
	z ZOffsetter
}

var (
	_ machine.Hardware = &Hardware{}
	_ machine.Faulter  = &Hardware{}
)

func Compensate(hw machine.Hardware, z ZOffsetter) *Hardware {
	return &Hardware{Hardware: hw, z: z}
}

func (h *Hardware) Move(target coord.Point, feedRate float64) error {
	if ok, off := h.z.OffsetZ(target.X, target.Y); ok {
		target.Z += off
	}
	return h.Hardware.Move(target, feedRate)
}

func (h *Hardware) Position() coord.Point {
	p := h.Hardware.Position()
	if ok, off := h.z.OffsetZ(p.X, p.Y); ok {
		p.Z -= off
	}
	return p
}

// Fault passes through rejections from the wrapped hardware.
func (h *Hardware) Fault() error {
	if f, ok := h.Hardware.(machine.Faulter); ok {
		return f.Fault()
	}
	return nil
}
