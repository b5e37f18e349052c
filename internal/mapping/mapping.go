// Public domain.

// Package mapping generates the ordered sky offsets visited by an
// observation.
//
// Offsets are arcseconds in the map coordinate frame, (λ, β).  Every
// pattern produces the map offsets and a parallel list of nod offsets,
//
//	nod = map/reduction + fixed
//
// used to place off (B) positions relative to the active map point.
package mapping

import (
	"errors"
	"fmt"
	"math"
)

// Pattern is a map pattern family.
type Pattern int

const (
	File Pattern = iota
	Stare
	Cross
	Spiral
	InwardSpiral
)

var patternNames = []string{"File", "Stare", "N-point cross", "Spiral",
	"Inward spiral"}

func (p Pattern) String() string {
	if p < 0 || int(p) >= len(patternNames) {
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
	return patternNames[p]
}

// PatternNames lists pattern names in Pattern order.
func PatternNames() []string {
	return append([]string{}, patternNames...)
}

// ParsePattern parses a pattern name.
func ParsePattern(s string) (Pattern, error) {
	for i, n := range patternNames {
		if s == n {
			return Pattern(i), nil
		}
	}
	return 0, fmt.Errorf("unknown map pattern %q", s)
}

// ErrPointCount is returned for a point count the pattern cannot produce.
var ErrPointCount = errors.New("invalid number of map points")

// Offset is a sky offset, arcsec.
type Offset struct {
	Lambda, Beta float64
}

// PointSet is the ordered result of a pattern.  Map and Nod have the same
// length.  Speed, VelAngle and DetAngle are set only for file maps in
// tracked power mode, one per point.
type PointSet struct {
	Map []Offset
	Nod []Offset

	Speed    []float64 // arcsec/s
	VelAngle []float64 // degrees, scan direction relative to the detector
	DetAngle []float64 // degrees, detector angle adjusted to the scan direction
}

// Len is the number of points.
func (ps *PointSet) Len() int { return len(ps.Map) }

// Tracked reports if the set carries on the fly scan rates.
func (ps *PointSet) Tracked() bool { return ps.Speed != nil }

// Request describes a generated pattern.
type Request struct {
	Pattern   Pattern
	NumPoints int
	StepSize  float64 // arcsec
	Center    Offset  // map center offset from target
	Reduction float64 // off position reduction factor
	Fixed     Offset  // fixed off position offset
}

// Generate builds the point set for a Stare, cross or spiral pattern.
// File maps are read with ReadFile.
func Generate(r Request) (PointSet, error) {
	var (
		pts []Offset
		err error
	)
	switch r.Pattern {
	case Stare:
		pts, err = stare(r.NumPoints)
	case Cross:
		pts, err = cross(r.NumPoints, r.StepSize)
	case Spiral, InwardSpiral:
		pts, err = spiral(r.NumPoints, r.StepSize)
		if err == nil && r.Pattern == InwardSpiral {
			for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
				pts[i], pts[j] = pts[j], pts[i]
			}
		}
	case File:
		return PointSet{}, errors.New("file map patterns are read, not generated")
	default:
		return PointSet{}, fmt.Errorf("invalid map pattern %v", r.Pattern)
	}
	if err != nil {
		return PointSet{}, err
	}
	for i := range pts {
		pts[i].Lambda += r.Center.Lambda
		pts[i].Beta += r.Center.Beta
	}
	return finish(pts, r.Reduction, r.Fixed)
}

// finish fills the nod offsets.
func finish(pts []Offset, reduction float64, fixed Offset) (PointSet, error) {
	if !(reduction > 0) {
		return PointSet{}, fmt.Errorf("invalid off position reduction %g",
			reduction)
	}
	ps := PointSet{Map: pts, Nod: make([]Offset, len(pts))}
	for i, p := range pts {
		ps.Nod[i] = Offset{
			p.Lambda/reduction + fixed.Lambda,
			p.Beta/reduction + fixed.Beta,
		}
	}
	return ps, nil
}

func stare(n int) ([]Offset, error) {
	if n < 1 {
		n = 1
	}
	return make([]Offset, n), nil
}

// cross is a center point followed by rings of four at increasing
// multiples of the step, in the order +λ, +β, -λ, -β.
func cross(n int, step float64) ([]Offset, error) {
	if n < 1 || n%2 == 0 || (n-1)%4 != 0 {
		return nil, fmt.Errorf("N-point cross, %d points: %w", n, ErrPointCount)
	}
	pts := make([]Offset, 1, n)
	for ring := 1; len(pts) < n; ring++ {
		d := float64(ring) * step
		pts = append(pts,
			Offset{d, 0},
			Offset{0, d},
			Offset{-d, 0},
			Offset{0, -d})
	}
	return pts, nil
}

// spiral walks a square spiral out from the center.  Corner c runs c
// steps up then c steps right when c is odd, down then left when even.
func spiral(n int, step float64) ([]Offset, error) {
	side := int(math.Round(math.Sqrt(float64(n))))
	if n < 1 || side*side != n || side%2 == 0 {
		return nil, fmt.Errorf("spiral, %d points: %w", n, ErrPointCount)
	}
	pts := make([]Offset, 1, n)
	var x, y int
	walk := func(dx, dy, k int) {
		for ; k > 0; k-- {
			x += dx
			y += dy
			pts = append(pts, Offset{float64(x) * step, float64(y) * step})
		}
	}
	for c := 1; c < side; c++ {
		if c%2 == 1 {
			walk(0, 1, c)
			walk(1, 0, c)
		} else {
			walk(0, -1, c)
			walk(-1, 0, c)
		}
	}
	// side is odd, so the last corner ended going left; finish the edge
	// with the first leg of the next corner, one step short.
	walk(0, 1, side-1)
	return pts, nil
}
