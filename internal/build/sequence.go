// Public domain.

package build

import (
	"fmt"

	"github.com/soniakeys/obsmaker/internal/grating"
	"github.com/soniakeys/obsmaker/internal/mapping"
	"github.com/soniakeys/obsmaker/internal/obs"
	"github.com/soniakeys/obsmaker/internal/scan"
)

// visit is one step of the nod sequence.
type visit struct {
	beam  scan.Beam
	point int // map point index
	unit  int // grating start index
}

// visits walks map points and nod cycles for the nod pattern.  grat maps
// a nod cycle to a grating unit.
func visits(np obs.NodPattern, n, points int, grat func(cycle int) int) []visit {
	var v []visit
	add := func(b scan.Beam, p, cycle int) {
		v = append(v, visit{beam: b, point: p, unit: grat(cycle)})
	}
	switch {
	case np == obs.A:
		for p := 0; p < points; p++ {
			for k := 0; k < n; k++ {
				add(scan.BeamA, p, k)
			}
		}
	case np == obs.AB:
		for p := 0; p < points; p++ {
			for k := 0; k < n; k++ {
				add(scan.BeamA, p, k)
				add(scan.BeamB, p, k)
			}
		}
	case np == obs.ABBA:
		for p := 0; p < points; p++ {
			for k := 0; k < n; k += 2 {
				add(scan.BeamA, p, k)
				add(scan.BeamB, p, k)
				if k+1 < n {
					add(scan.BeamB, p, k+1)
					add(scan.BeamA, p, k+1)
				}
			}
		}
	default:
		// runs of n points, one off position visit in the middle of each
		half := n / 2
		for r := 0; r < points; r += n {
			run := min(n, points-r)
			for j := 0; j < min(run, half); j++ {
				add(scan.BeamA, r+j, j)
			}
			last := v[len(v)-1]
			add(scan.BeamB, last.point, min(run, half)-1)
			for j := half; j < run; j++ {
				add(scan.BeamA, r+j, j)
			}
		}
	}
	return v
}

// unitOf maps nod cycles to grating units.
func (c *Context) unitOf(split int) func(int) int {
	switch c.Obs.Dist {
	case grating.DistUp, grating.DistDown:
		u := c.Units()
		return func(cycle int) int { return cycle % u }
	case grating.DistSplit:
		return func(int) int { return split }
	}
	return func(int) int { return 0 }
}

// Plan builds and validates every scan record in order.  The first
// invalid record stops the build.
func (c *Context) Plan() ([]*scan.Record, error) {
	if !c.prepared {
		return nil, errNotPrepared
	}
	o := &c.Obs
	splits := 1
	if o.Dist == grating.DistSplit {
		splits = c.Units()
	}
	val := &scan.Validator{Limits: c.Inst}
	var recs []*scan.Record
	for s := 0; s < splits; s++ {
		for _, v := range visits(o.NodPattern, o.NodCycles, c.Points.Len(), c.unitOf(s)) {
			r := c.record(v, len(recs) == 0)
			if err := val.Check(r); err != nil {
				return nil, fmt.Errorf("scan %d, %s beam, point %d: %w",
					len(recs)+1, v.beam, v.point+1, err)
			}
			recs = append(recs, r)
		}
	}
	return recs, nil
}

// offOffset is the commanded offset of an off position visit for map
// point p.
func (c *Context) offOffset(p int) mapping.Offset {
	switch c.Obs.OffPos {
	case obs.Absolute:
		return c.absOffset()
	case obs.RelTarget:
		return mapping.Offset{Lambda: c.Obs.OffLambda, Beta: c.Obs.OffBeta}
	case obs.RelActiveMapPos:
		return c.Points.Nod[p]
	}
	// matched: the chopper throw moves the beam
	return c.Points.Map[p]
}

func (c *Context) record(v visit, first bool) *scan.Record {
	o := &c.Obs
	r := &scan.Record{
		ObsID:        o.ObsID,
		AORID:        o.AORID,
		Object:       o.TargetName,
		ObsType:      o.ObsType,
		SrcType:      o.SrcType,
		InstMode:     o.InstMode,
		Primary:      o.Primary,
		Setpoint:     o.Setpoint,
		BuildID:      c.BuildID,
		Lambda:       o.RA.Deg(),
		Beta:         o.Dec.Deg(),
		DetAngle:     o.DetAngle.Deg(),
		MapCoordSys:  o.MapCoordSys,
		NodPattern:   o.NodPattern.String(),
		Beam:         v.beam,
		Tracking:     true,
		Sign:         1,
		MapOffset:    c.Points.Map[v.point],
		Offset:       c.Points.Map[v.point],
		Dichroic:     o.Dichroic,
		Order:        o.Order,
		Filter:       o.Filter,
		ChopScheme:   o.ChopScheme,
		ChopCoordSys: o.ChopCoordSys,
		ChopAmp:      o.ChopAmp,
		ChopPosAng:   o.ChopPosAng.Deg(),
		ChopPhase:    o.ChopPhase,
		ChopLen:      o.ChopLen,
		Red:          channel(&o.Red, &c.Red, v.unit),
		Blue:         channel(&o.Blue, &c.Blue, v.unit),
	}
	if c.Points.Tracked() {
		r.Tracked = true
		r.Speed = c.Points.Speed[v.point]
		r.VelAngle = c.Points.VelAngle[v.point]
		r.DetAngle = c.Points.DetAngle[v.point]
	}
	switch {
	case first:
		r.Focus = scan.FocusForce
	case v.beam == scan.BeamA && o.RewindAuto:
		r.Focus = scan.FocusAllow
	default:
		r.Focus = scan.FocusBlock
	}
	if v.beam == scan.BeamB {
		r.Offset = c.offOffset(v.point)
		r.Tracking = o.Symmetric || o.TrackingInB
		if o.Symmetric {
			r.Sign = -1
		}
	}
	Logf("%s %s point %d grating %d/%d: offset %.1f %.1f",
		r.ObsID, r.Beam, v.point+1, r.Red.Start, r.Blue.Start,
		r.Offset.Lambda, r.Offset.Beta)
	return r
}

func channel(o *obs.Channel, g *Grating, unit int) scan.Channel {
	return scan.Channel{
		Wave:        g.Wavelength(unit),
		Start:       g.Starts[unit],
		StepsUp:     g.StepsUp,
		StepsDown:   g.StepsDown,
		SizeUp:      g.SizeUp,
		SizeDown:    g.SizeDown,
		GratCycles:  o.GratCycles,
		ChopCycles:  o.ChopCycles,
		RampLen:     o.RampLen,
		ZeroBias:    o.ZeroBias,
		BiasR:       o.BiasR,
		Capacitor:   o.Capacitor,
		FileGroupID: o.FileGroupID,
	}
}
