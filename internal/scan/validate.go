// Public domain.

package scan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/soniakeys/obsmaker/internal/config"
)

// ValidationError lists every problem found with a record.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "\n")
}

func (e *ValidationError) add(format string, a ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, a...))
}

// Validator checks records against hardware limits.
type Validator struct {
	Limits *config.Instrument
}

// Check validates r.  Problems are collected, not short circuited: range
// problems first, then, if ranges are good, consistency problems.  The
// error is a *ValidationError.
//
// On success the derived fields of both channels are set.  On failure r
// is not modified.
func (v *Validator) Check(r *Record) error {
	var e ValidationError
	v.ranges(r, &e)
	if len(e.Problems) > 0 {
		return &e
	}
	red, blue := r.Red, r.Blue
	v.consistency(r, "red", &red, &e)
	v.consistency(r, "blue", &blue, &e)
	if red.Frames != blue.Frames {
		e.add("frame count red %d, blue %d: must be equal",
			red.Frames, blue.Frames)
	}
	if len(e.Problems) > 0 {
		return &e
	}
	r.Red, r.Blue = red, blue
	return nil
}

func inRange(x float64, r [2]float64) bool { return x >= r[0] && x <= r[1] }

func (v *Validator) ranges(r *Record, e *ValidationError) {
	l := v.Limits
	for _, c := range []struct {
		name        string
		ch          *Channel
		zbias, bias [2]float64
	}{
		{"red", &r.Red, l.ZeroBiasRed, l.BiasRRed},
		{"blue", &r.Blue, l.ZeroBiasBlue, l.BiasRBlue},
	} {
		ch := c.ch
		if ch.Start < l.GratingMin || ch.Start > l.GratingMax {
			e.add("%s grating start %d not in [%d, %d]",
				c.name, ch.Start, l.GratingMin, l.GratingMax)
		}
		if ch.StepsUp < 0 || ch.StepsDown < 0 || ch.StepsUp+ch.StepsDown < 1 {
			e.add("%s grating steps up %d, down %d invalid",
				c.name, ch.StepsUp, ch.StepsDown)
		}
		if ch.SizeUp < 0 || ch.SizeDown < 0 {
			e.add("%s negative grating step size", c.name)
		}
		if ch.GratCycles < 1 {
			e.add("%s grating cycles %d, must be positive", c.name, ch.GratCycles)
		}
		if ch.ChopCycles < 1 {
			e.add("%s chop cycles %d, must be positive", c.name, ch.ChopCycles)
		}
		if ch.RampLen < 1 || ch.RampLen > l.RampMax {
			e.add("%s ramp length %d not in [1, %d]", c.name, ch.RampLen, l.RampMax)
		}
		if !inRange(ch.ZeroBias, c.zbias) {
			e.add("%s zero bias %g not in %v", c.name, ch.ZeroBias, c.zbias)
		}
		if !inRange(ch.BiasR, c.bias) {
			e.add("%s biasR %g not in %v", c.name, ch.BiasR, c.bias)
		}
		if !slices.Contains(l.Capacitors, ch.Capacitor) {
			e.add("%s capacitor %d not one of %v", c.name, ch.Capacitor, l.Capacitors)
		}
	}
	if r.ChopAmp < 0 || r.ChopAmp > l.ChopAmpMax {
		e.add("chop amplitude %g not in [0, %g]", r.ChopAmp, l.ChopAmpMax)
	}
	if r.ChopPosAng < -360 || r.ChopPosAng > 360 {
		e.add("chop angle %g not in [-360, 360]", r.ChopPosAng)
	}
	if r.ChopPhase < 0 || float64(r.ChopPhase) >= l.ChopPhaseMax {
		e.add("chop phase %d not in [0, %g)", r.ChopPhase, l.ChopPhaseMax)
	}
	if !slices.Contains(l.ChopSchemes, r.ChopScheme) {
		e.add("chop scheme %q not one of %v", r.ChopScheme, l.ChopSchemes)
	}
	if r.ChopLen < 1 {
		e.add("chop length %d, must be positive", r.ChopLen)
	}
}

// consistency checks one channel and fills its derived fields.
func (v *Validator) consistency(r *Record, name string, ch *Channel, e *ValidationError) {
	l := v.Limits
	ramp, chop := ch.RampLen, r.ChopLen
	n := len(e.Problems)
	switch {
	case ramp <= chop:
		if chop%ramp != 0 {
			e.add("%s chop length %d not a multiple of ramp length %d",
				name, chop, ramp)
			break
		}
		ch.SubRamp = ramp
		ch.SubRamps = chop / ramp
	default:
		if ramp%chop != 0 {
			e.add("%s ramp length %d not a multiple of chop length %d",
				name, ramp, chop)
			break
		}
		ch.SubRamp = chop
		ch.SubRamps = 1
	}
	if r.ChopScheme == "4POINT" && len(e.Problems) == n {
		if ramp > chop {
			e.add("%s ramp length %d over chop length %d with 4POINT chop",
				name, ramp, chop)
		} else if ch.SubRamps%2 != 0 {
			e.add("%s odd sub-ramp count %d with 4POINT chop", name, ch.SubRamps)
		}
	}

	hi := ch.Start + ch.StepsUp*ch.SizeUp
	lo := hi - ch.StepsDown*ch.SizeDown
	for _, p := range []int{hi, lo} {
		if p < l.GratingMin || p > l.GratingMax {
			e.add("%s grating excursion to %d not in [%d, %d]",
				name, p, l.GratingMin, l.GratingMax)
			break
		}
	}
	ch.Frames = ch.GratCycles * (ch.StepsUp + ch.StepsDown) *
		ch.ChopCycles * 2 * chop
}
