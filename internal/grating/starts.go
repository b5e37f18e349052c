// Public domain.

package grating

import (
	"errors"
	"fmt"
	"math"
)

// Dist is the grating scan distribution mode.
type Dist int

const (
	DistNone  Dist = iota // one scan covers the whole range
	DistUp                // range shared over nod cycles, scanning up
	DistDown              // range shared over nod cycles, scanning down
	DistSplit             // up range cut into splits
)

var distNames = []string{"None", "Up", "Down", "Split"}

func (d Dist) String() string {
	if d < 0 || int(d) >= len(distNames) {
		return fmt.Sprintf("Dist(%d)", int(d))
	}
	return distNames[d]
}

// ParseDist parses a distribution mode name.
func ParseDist(s string) (Dist, error) {
	for i, n := range distNames {
		if s == n {
			return Dist(i), nil
		}
	}
	return 0, fmt.Errorf("unknown grating distribution %q", s)
}

// Pattern is the grating movement pattern.
type Pattern int

const (
	Start Pattern = iota
	Centre
	Dither
	InwardDither
)

var patternNames = []string{"Start", "Centre", "Dither", "Inward dither"}

func (p Pattern) String() string {
	if p < 0 || int(p) >= len(patternNames) {
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
	return patternNames[p]
}

// ParsePattern parses a movement pattern name.  The spellings used by
// the original form ("Center", "Inward") are accepted.
func ParsePattern(s string) (Pattern, error) {
	switch s {
	case "Center":
		return Centre, nil
	case "Inward":
		return InwardDither, nil
	}
	for i, n := range patternNames {
		if s == n {
			return Pattern(i), nil
		}
	}
	return 0, fmt.Errorf("unknown grating movement pattern %q", s)
}

// Plan holds what is needed to lay out start positions for one channel.
// Sizes are encoder units.
type Plan struct {
	Dist      Dist
	Pattern   Pattern
	Start     float64 // requested position
	StepsUp   int
	StepsDown int
	SizeUp    float64
	SizeDown  float64
	NodCycles int
	Splits    int
}

// Units is the number of start positions the plan produces: one per nod
// cycle for Up and Down, one per split for Split, otherwise one.
func (p *Plan) Units() int {
	switch p.Dist {
	case DistUp, DistDown:
		return p.NodCycles
	case DistSplit:
		return p.Splits
	}
	return 1
}

// ScanSteps returns the up and down step counts of a single scan.
//
// Up and Down share their active direction over nod cycles when there
// are at least two; a direction with a single step is not divided.
// Split shares the up steps over splits.
func ScanSteps(d Dist, up, down, nodCycles, splits int) (scanUp, scanDown int) {
	share := func(steps, n int) int {
		if n < 2 || steps <= 1 {
			return steps
		}
		return (steps + n - 1) / n
	}
	switch d {
	case DistUp:
		return share(up, nodCycles), down
	case DistDown:
		return up, share(down, nodCycles)
	case DistSplit:
		return share(up, splits), down
	}
	return up, down
}

// ScanSteps returns the per scan step counts of the plan.
func (p *Plan) ScanSteps() (up, down int) {
	return ScanSteps(p.Dist, p.StepsUp, p.StepsDown, p.NodCycles, p.Splits)
}

func (p *Plan) check() error {
	switch {
	case p.Dist < DistNone || p.Dist > DistSplit:
		return fmt.Errorf("invalid grating distribution %v", p.Dist)
	case p.Pattern < Start || p.Pattern > InwardDither:
		return fmt.Errorf("invalid grating pattern %v", p.Pattern)
	case p.StepsUp < 0 || p.StepsDown < 0:
		return errors.New("negative grating step count")
	case p.SizeUp < 0 || p.SizeDown < 0:
		return errors.New("negative grating step size")
	case p.Units() < 1:
		return fmt.Errorf("grating distribution %v needs at least one unit",
			p.Dist)
	case p.Dist == DistDown && p.StepsDown < 1:
		return errors.New("grating distribution Down needs down steps")
	case p.Dist != DistDown && p.StepsUp < 1:
		return fmt.Errorf("grating distribution %v needs up steps", p.Dist)
	}
	return nil
}

// Starts computes the grating start position of every unit, in the order
// the units are scanned.
func Starts(p Plan) ([]int, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	units := p.Units()
	if p.Dist == DistSplit {
		return splitStarts(&p, units), nil
	}

	steps, size, sign := p.StepsUp, p.SizeUp, 1.
	if p.Dist == DistDown {
		steps, size, sign = p.StepsDown, p.SizeDown, -1
	}
	// distance between successive unit starts
	d := float64(steps) / float64(units) * size
	first := p.Start
	if centred(p.Pattern, units) {
		first -= sign * size * float64(steps-1) / 2
	}
	base := make([]float64, units)
	for i := range base {
		base[i] = first + sign*float64(i)*d
	}

	var order []int
	switch p.Pattern {
	case Dither:
		order = ditherOrder(units)
	case InwardDither:
		order = ditherOrder(units)
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	default:
		order = make([]int, units)
		for i := range order {
			order[i] = i
		}
	}
	s := make([]int, units)
	for i, x := range order {
		s[i] = int(math.Round(base[x]))
	}
	return s, nil
}

// centred reports whether the range is centred on the requested position.
// A dither pattern with a single unit has nothing to dither around and
// starts at the requested position, as Start does.
func centred(pat Pattern, units int) bool {
	switch pat {
	case Centre:
		return true
	case Dither, InwardDither:
		return units > 1
	}
	return false
}

// splitStarts accumulates forward over the up range.  Dither patterns
// anchor like Centre.
func splitStarts(p *Plan, units int) []int {
	d := float64(p.StepsUp) / float64(units) * p.SizeUp
	pos := p.Start
	if centred(p.Pattern, units) {
		pos -= p.SizeUp * float64(p.StepsUp-1) / 2
	}
	s := make([]int, units)
	for i := range s {
		s[i] = int(math.Round(pos))
		pos += d
	}
	return s
}

// ditherOrder visits n ordered slots from the middle outward.
//
// With an odd count the middle slot goes first, then one further in the
// scan direction and one back, widening each time.  With an even count
// no slot is central: the pair straddling the middle goes first, lower
// slot then upper, then each wider pair the same way.
func ditherOrder(n int) []int {
	order := make([]int, 0, n)
	if n%2 == 1 {
		m := n / 2
		order = append(order, m)
		for k := 1; k <= m; k++ {
			order = append(order, m+k, m-k)
		}
		return order
	}
	for lo, hi := n/2-1, n/2; lo >= 0; lo, hi = lo-1, hi+1 {
		order = append(order, lo, hi)
	}
	return order
}
