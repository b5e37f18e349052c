// Public domain.

package mapping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"
)

// ErrTargetMismatch is returned when a map file names a target other than
// the observation's.
var ErrTargetMismatch = errors.New("map file target does not match observation")

// FileRequest describes a map read from a file.
type FileRequest struct {
	Target    string // "HH MM SS.SS +DD MM SS.S", single spaced
	Center    Offset
	Reduction float64
	Fixed     Offset
	DetAngle  unit.Angle // used in tracked power mode
}

// ReadFile reads a map file.
func ReadFile(fn string, req FileRequest) (PointSet, error) {
	f, err := os.Open(fn)
	if err != nil {
		return PointSet{}, err
	}
	defer f.Close()
	ps, err := ParseFile(f, req)
	if err != nil {
		return PointSet{}, fmt.Errorf("%s: %w", fn, err)
	}
	return ps, nil
}

// ParseFile reads a map.
//
// The first line is the target, six fields.  Each following line is an
// offset pair, λ β in arcsec, relative to the map center.  Lines may add a
// speed in arcsec/s and a scan direction for tracked power mode, either a
// compass point (N, NE, E, ...) or degrees east of north.  Either all
// lines carry a speed or none do.
//
// In tracked power mode offsets are rotated by the detector angle, the
// velocity angle is the direction less the detector angle and the
// detector angle for the point is the direction.
func ParseFile(r io.Reader, req FileRequest) (PointSet, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return PointSet{}, err
		}
		return PointSet{}, errors.New("empty map file")
	}
	tf := strings.Fields(sc.Text())
	if len(tf) != 6 {
		return PointSet{}, fmt.Errorf("line 1: want 6 target fields, found %d",
			len(tf))
	}
	if t := strings.Join(tf, " "); t != req.Target {
		return PointSet{}, fmt.Errorf("%q, observation %q: %w",
			t, req.Target, ErrTargetMismatch)
	}
	var (
		pts      []Offset
		speed    []float64
		dir      []float64
		tracked  bool
		detAngle = req.DetAngle.Deg()
	)
	for ln := 2; sc.Scan(); ln++ {
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			continue
		}
		if len(f) != 2 && len(f) != 4 {
			return PointSet{}, fmt.Errorf("line %d: want 2 or 4 fields, found %d",
				ln, len(f))
		}
		if len(pts) == 0 {
			tracked = len(f) == 4
		} else if tracked != (len(f) == 4) {
			return PointSet{}, fmt.Errorf("line %d: mixed static and tracked rows",
				ln)
		}
		var o Offset
		var err error
		if o.Lambda, err = strconv.ParseFloat(f[0], 64); err != nil {
			return PointSet{}, fmt.Errorf("line %d: %w", ln, err)
		}
		if o.Beta, err = strconv.ParseFloat(f[1], 64); err != nil {
			return PointSet{}, fmt.Errorf("line %d: %w", ln, err)
		}
		if tracked {
			v, err := strconv.ParseFloat(f[2], 64)
			if err != nil || v < 0 {
				return PointSet{}, fmt.Errorf("line %d: invalid speed %q", ln, f[2])
			}
			d, err := parseDirection(f[3])
			if err != nil {
				return PointSet{}, fmt.Errorf("line %d: %w", ln, err)
			}
			speed = append(speed, v)
			dir = append(dir, d)
		}
		pts = append(pts, o)
	}
	if err := sc.Err(); err != nil {
		return PointSet{}, err
	}
	if len(pts) == 0 {
		return PointSet{}, fmt.Errorf("no map points: %w", ErrPointCount)
	}
	if tracked {
		s, c := math.Sincos(req.DetAngle.Rad())
		for i, p := range pts {
			pts[i] = Offset{p.Lambda*c - p.Beta*s, p.Lambda*s + p.Beta*c}
		}
	}
	for i := range pts {
		pts[i].Lambda += req.Center.Lambda
		pts[i].Beta += req.Center.Beta
	}
	ps, err := finish(pts, req.Reduction, req.Fixed)
	if err != nil {
		return PointSet{}, err
	}
	if tracked {
		ps.Speed = speed
		ps.VelAngle = make([]float64, len(dir))
		ps.DetAngle = dir
		for i, d := range dir {
			ps.VelAngle[i] = normDeg(d - detAngle)
		}
	}
	return ps, nil
}

var compass = map[string]float64{
	"N": 0, "NE": 45, "E": 90, "SE": 135,
	"S": 180, "SW": 225, "W": 270, "NW": 315,
}

func parseDirection(s string) (float64, error) {
	if d, ok := compass[strings.ToUpper(s)]; ok {
		return normDeg(d), nil
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid scan direction %q", s)
	}
	return normDeg(d), nil
}

// normDeg reduces an angle to (-180, 180].
func normDeg(d float64) float64 {
	d = math.Mod(d, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}
