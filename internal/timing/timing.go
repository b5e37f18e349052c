// Public domain.

// Package timing derives ramp, chop and scan timing and integration time
// estimates for an observation.
package timing

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniakeys/obsmaker/internal/grating"
	"github.com/soniakeys/obsmaker/internal/obs"
)

// settle time lost per grating step, in sample periods
const settleSamples = 0.25

// Channel holds the per array inputs.
type Channel struct {
	RampLen    int // samples
	ChopCycles int // per grating position
	StepsUp    int
	StepsDown  int
	GratCycles int
}

// Inputs to Compute.
type Inputs struct {
	SampleRate   float64 // Hz
	MoveOverhead float64 // seconds per telescope move
	ChopLen      int     // samples per chop position
	ChopAmp      float64 // zero for total power
	Symmetric    bool
	NodPattern   obs.NodPattern
	NodCycles    int
	Dist         grating.Dist
	NumPoints    int

	Red, Blue Channel
}

// ChannelTiming is the timing of one array.
type ChannelTiming struct {
	RampMs       float64
	GratPosTime  int     // samples at one grating position
	CycleTime    int     // samples per grating cycle
	ScanTime     float64 // ms, one scan file
	OnSourceScan float64 // seconds on source per scan
}

// Result of Compute.  Times are seconds.
type Result struct {
	Red, Blue  ChannelTiming
	ChopEff    float64
	Multiplier int
	RawTime    float64
	OnSource   float64
	Moves      int
	TotalTime  float64
}

// Compute derives timing for both arrays and the observation time
// estimates.
func Compute(in Inputs) (Result, error) {
	switch {
	case !(in.SampleRate > 0):
		return Result{}, fmt.Errorf("invalid sample rate %g", in.SampleRate)
	case in.ChopLen < 1:
		return Result{}, fmt.Errorf("invalid chop length %d", in.ChopLen)
	case in.NumPoints < 1:
		return Result{}, fmt.Errorf("invalid number of map points %d",
			in.NumPoints)
	case in.NodCycles < 0:
		return Result{}, fmt.Errorf("invalid nod cycle count %d", in.NodCycles)
	}
	var r Result
	r.ChopEff = 0.5
	if in.ChopAmp == 0 {
		r.ChopEff = 1
	}
	r.Red = in.channel(&in.Red, r.ChopEff)
	r.Blue = in.channel(&in.Blue, r.ChopEff)

	n := in.NodCycles
	bright := in.NodPattern.Bright()
	switch {
	case n == 0:
		r.Multiplier = 1
	case bright:
		r.Multiplier = (in.NumPoints + n - 1) / n
	case in.NodPattern == obs.A:
		r.Multiplier = n
	default:
		r.Multiplier = 2 * n
	}

	scan := math.Max(r.Red.ScanTime, r.Blue.ScanTime) / 1000
	pts := float64(in.NumPoints)
	if bright {
		r.RawTime = (pts + float64(r.Multiplier)) * scan
		r.OnSource = pts * r.Red.OnSourceScan
	} else {
		r.RawTime = pts * scan * float64(r.Multiplier)
		sym := 2.
		if in.Symmetric {
			sym = 1
		}
		r.OnSource = pts * r.Red.OnSourceScan * float64(r.Multiplier) / sym
	}

	switch {
	case in.NodPattern == obs.A:
		r.Moves = in.NumPoints
	case in.NodPattern == obs.AB:
		r.Moves = in.NumPoints * 2 * n
	case in.NodPattern == obs.ABBA:
		r.Moves = in.NumPoints * n
	case n > 0:
		r.Moves = in.NumPoints + 2*((in.NumPoints+n-1)/n)
	default:
		r.Moves = in.NumPoints
	}
	r.TotalTime = r.RawTime + float64(r.Moves)*in.MoveOverhead
	return r, nil
}

func (in *Inputs) channel(c *Channel, eff float64) ChannelTiming {
	var t ChannelTiming
	t.RampMs = float64(c.RampLen) * 1000 / in.SampleRate
	t.GratPosTime = c.ChopCycles * 2 * in.ChopLen
	up, down := c.StepsUp, c.StepsDown
	if in.NodCycles >= 2 && (in.Dist == grating.DistUp || in.Dist == grating.DistDown) {
		up, down = grating.ScanSteps(in.Dist, up, down, in.NodCycles, 1)
	}
	t.CycleTime = (up + down) * t.GratPosTime
	t.ScanTime = float64(c.GratCycles*t.CycleTime) * 1000 / in.SampleRate

	// a direction without steps has no settle time
	settle := float64(max(up-1, 0)+max(down-1, 0)) * settleSamples / in.SampleRate
	onCycle := float64(t.CycleTime)/in.SampleRate*eff - settle
	t.OnSourceScan = float64(c.GratCycles) * onCycle
	return t
}

// MinSweepError is returned by PlanChop when the grating sweep would be
// too short.  Min is the smallest on source time that gives a long
// enough sweep.
type MinSweepError struct {
	Sweep float64 // seconds
	Limit float64 // seconds
	Min   float64 // seconds on source
}

func (e *MinSweepError) Error() string {
	return fmt.Sprintf("grating sweep %.1f s not over %.0f s, "+
		"use on source time of at least %.1f s", e.Sweep, e.Limit, e.Min)
}

// ChopRequest holds inputs for PlanChop, per mapping position.
type ChopRequest struct {
	SampleRate    float64
	ChopLen       int     // samples per chop position
	OnSource      float64 // seconds
	GratPositions int
	NumPoints     int // total mapping positions
	ChopEff       float64
	Bright        bool
	NodCycles     int     // bright object patterns keep the given count
	Interval      float64 // target AB nod interval, seconds
	MinSweep      float64 // seconds
	MoveOverhead  float64 // seconds
}

// ChopPlan is the result of PlanChop.
type ChopPlan struct {
	ChopCycles      int     // total
	CCPerGratPos    int     // chop cycles per grating position
	Sweep           float64 // seconds for one pass over the grating positions
	NodCycles       int
	GratPosPerNod   int
	GratCyclePerNod float64 // seconds
	CompleteMap     float64 // minutes
}

// PlanChop derives chop cycles per grating position, and for other than
// bright object patterns, the number of nod cycles that brings one nod
// interval close to the requested interval.
func PlanChop(req ChopRequest) (ChopPlan, error) {
	switch {
	case !(req.SampleRate > 0):
		return ChopPlan{}, fmt.Errorf("invalid sample rate %g", req.SampleRate)
	case req.ChopLen < 1:
		return ChopPlan{}, fmt.Errorf("invalid chop length %d", req.ChopLen)
	case !(req.OnSource > 0):
		return ChopPlan{}, fmt.Errorf("invalid on source time %g", req.OnSource)
	case req.GratPositions < 1:
		return ChopPlan{}, fmt.Errorf("invalid number of grating positions %d",
			req.GratPositions)
	case req.NumPoints < 1:
		return ChopPlan{}, fmt.Errorf("invalid number of map points %d",
			req.NumPoints)
	case !(req.ChopEff > 0 && req.ChopEff <= 1):
		return ChopPlan{}, fmt.Errorf("invalid chop efficiency %g", req.ChopEff)
	case !(req.Interval > 0):
		return ChopPlan{}, errors.New("nod interval must be positive")
	case req.Bright && req.NodCycles < 1:
		return ChopPlan{}, fmt.Errorf("invalid nod cycle count %d", req.NodCycles)
	}
	cycle := 2 * float64(req.ChopLen) / req.SampleRate // one chop cycle, s
	gp := float64(req.GratPositions)

	var p ChopPlan
	p.ChopCycles = int(math.Ceil(req.OnSource / (cycle * req.ChopEff)))
	p.CCPerGratPos = (p.ChopCycles + req.GratPositions - 1) / req.GratPositions
	p.Sweep = gp * float64(p.CCPerGratPos) * cycle
	if p.Sweep <= req.MinSweep {
		cc := math.Floor(req.MinSweep/(gp*cycle)) + 1
		return ChopPlan{}, &MinSweepError{
			Sweep: p.Sweep,
			Limit: req.MinSweep,
			Min:   cc * gp * cycle * req.ChopEff,
		}
	}

	if req.Bright {
		p.NodCycles = req.NodCycles
	} else {
		// round to the nearest multiple of two, then halve
		x := math.Ceil(2 * p.Sweep / req.Interval)
		p.NodCycles = max(int(math.RoundToEven(x/2)), 1)
	}
	p.GratPosPerNod = (req.GratPositions + p.NodCycles - 1) / p.NodCycles
	p.GratCyclePerNod = float64(p.GratPosPerNod*p.CCPerGratPos) * cycle

	pts := float64(req.NumPoints)
	var sec float64
	if req.Bright {
		offs := float64((req.NumPoints + p.NodCycles - 1) / p.NodCycles)
		sec = (pts+offs)*p.Sweep + (pts+2*offs)*req.MoveOverhead
	} else {
		sec = pts * (2*p.Sweep + 2*float64(p.NodCycles)*req.MoveOverhead)
	}
	p.CompleteMap = sec / 60
	return p, nil
}
