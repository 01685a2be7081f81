package grbl

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mastercactapus/router/coord"
	"github.com/mastercactapus/router/machine"
)

func parseCoords(data string) (p coord.Point, err error) {
	parts := strings.Split(data, ",")
	if len(parts) < 3 {
		return p, errors.New("invalid number of elements")
	}
	vals := [3]*float64{&p.X, &p.Y, &p.Z}
	for i, v := range vals {
		*v, err = strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return p, err
		}
	}
	return p, nil
}

// parseStatus applies a `<Idle|MPos:...|...>` report over the previous state.
//
// Grbl reports either MPos or WPos; the other is derived from the
// last known work coordinate offset.
func parseStatus(stat machine.State, data string) (*machine.State, error) {
	data = strings.TrimSpace(data)
	if !strings.HasPrefix(data, "<") || !strings.HasSuffix(data, ">") {
		return nil, errors.New("invalid status report: " + data)
	}
	data = strings.TrimPrefix(data, "<")
	data = strings.TrimSuffix(data, ">")
	parts := strings.Split(data, "|")
	stat.Status = parts[0]

	var wPos *coord.Point
	var err error
	for _, s := range parts[1:] {
		sParts := strings.SplitN(s, ":", 2)
		if len(sParts) != 2 {
			continue
		}
		switch sParts[0] {
		case "MPos":
			stat.MPos, err = parseCoords(sParts[1])
		case "WPos":
			var p coord.Point
			p, err = parseCoords(sParts[1])
			wPos = &p
		case "WCO":
			stat.WCO, err = parseCoords(sParts[1])
		}
		if err != nil {
			return nil, err
		}
	}
	if wPos != nil {
		stat.MPos = wPos.Add(stat.WCO)
	}
	return &stat, nil
}
