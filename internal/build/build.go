// Public domain.

// Package build compiles an observation into its ordered scan records.
//
// A Context is the state of one build.  It owns a copy of the observation
// and everything derived from it.  The calibration table and instrument
// constants are only read and may be shared by any number of contexts.
package build

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"

	"github.com/soniakeys/obsmaker/internal/calib"
	"github.com/soniakeys/obsmaker/internal/config"
	"github.com/soniakeys/obsmaker/internal/grating"
	"github.com/soniakeys/obsmaker/internal/mapping"
	"github.com/soniakeys/obsmaker/internal/obs"
	"github.com/soniakeys/obsmaker/internal/timing"
)

// Logf receives per scan progress lines.  Replace it with SetLogger.
var Logf = log.Printf

// SetLogger sets Logf.  A nil logger discards output.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		f = func(string, ...any) {}
	}
	Logf = f
}

// Grating is the grating setup derived for one array.
type Grating struct {
	Channel  string // calibration channel code
	Epoch    int    // calibration date used
	Order    int
	Position float64 // requested start position
	Wave     float64 // observed wavelength, um

	StepsUp   int // per scan
	StepsDown int
	SizeUp    int // encoder units
	SizeDown  int

	Starts []int // one per unit, see grating.Plan.Units

	conv *grating.Converter
}

// Wavelength is the mean wavelength at the start position of unit i.
func (g *Grating) Wavelength(i int) float64 {
	return g.conv.MeanWavelength(float64(g.Starts[i]))
}

// Context is one build.
type Context struct {
	Obs     obs.Observation
	Table   *calib.Table
	Inst    *config.Instrument
	Date    int // observation date, YYYYMMDD
	BuildID string

	// set by Prepare
	Points    mapping.PointSet
	Timing    timing.Result
	Red, Blue Grating

	prepared bool
}

// New starts a build.  The observation is copied.
func New(o *obs.Observation, t *calib.Table, in *config.Instrument, date int) *Context {
	return &Context{
		Obs:     *o,
		Table:   t,
		Inst:    in,
		Date:    date,
		BuildID: uuid.NewString(),
	}
}

// Prepare derives map points, timing and grating start positions.
func (c *Context) Prepare() error {
	o := &c.Obs
	if err := o.Check(); err != nil {
		return err
	}
	var err error
	if c.Points, err = Points(o); err != nil {
		return err
	}
	if c.Red, err = c.grating(true); err != nil {
		return fmt.Errorf("red: %w", err)
	}
	if c.Blue, err = c.grating(false); err != nil {
		return fmt.Errorf("blue: %w", err)
	}
	tc := func(ch *obs.Channel) timing.Channel {
		return timing.Channel{
			RampLen:    ch.RampLen,
			ChopCycles: ch.ChopCycles,
			StepsUp:    ch.StepsUp,
			StepsDown:  ch.StepsDown,
			GratCycles: ch.GratCycles,
		}
	}
	c.Timing, err = timing.Compute(timing.Inputs{
		SampleRate:   c.Inst.SampleRate,
		MoveOverhead: c.Inst.MoveOverhead,
		ChopLen:      o.ChopLen,
		ChopAmp:      o.ChopAmp,
		Symmetric:    o.Symmetric,
		NodPattern:   o.NodPattern,
		NodCycles:    o.NodCycles,
		Dist:         o.Dist,
		NumPoints:    c.Points.Len(),
		Red:          tc(&o.Red),
		Blue:         tc(&o.Blue),
	})
	if err != nil {
		return err
	}
	c.prepared = true
	return nil
}

// Points generates or reads the map points of an observation.  For a file
// map o.MapListPath must be usable as is.
func Points(o *obs.Observation) (mapping.PointSet, error) {
	center := mapping.Offset{Lambda: o.MapLambda, Beta: o.MapBeta}
	fixed := mapping.Offset{Lambda: o.OffLambda, Beta: o.OffBeta}
	if o.OffPos == obs.Absolute {
		// absolute positions are resolved per scan
		fixed = mapping.Offset{}
	}
	if o.MapPattern == mapping.File {
		return mapping.ReadFile(o.MapListPath, mapping.FileRequest{
			Target:    o.TargetLambda + " " + o.TargetBeta,
			Center:    center,
			Reduction: o.OffReduc,
			Fixed:     fixed,
			DetAngle:  o.DetAngle,
		})
	}
	return mapping.Generate(mapping.Request{
		Pattern:   o.MapPattern,
		NumPoints: o.NumPoints,
		StepSize:  o.StepSize,
		Center:    center,
		Reduction: o.OffReduc,
		Fixed:     fixed,
	})
}

func (c *Context) grating(red bool) (g Grating, err error) {
	o := &c.Obs
	ch := o.Channel(red)
	g.Order = 1
	if !red {
		g.Order = o.Order
	}
	g.Channel = calib.Channel(red, o.Dichroic, o.Order)
	e, err := c.Table.Lookup(g.Channel, c.Date)
	if err != nil {
		if errors.Is(err, calib.ErrNoEpoch) {
			err = fmt.Errorf("%w, table dates %v", err, c.Table.Dates(g.Channel))
		}
		return g, err
	}
	g.Epoch = e.Date
	if g.conv, err = grating.New(e, g.Order); err != nil {
		return g, err
	}
	g.Wave = ch.Wavelength()
	if g.Position, err = ch.StartPosition(g.conv); err != nil {
		return g, fmt.Errorf("%s line %s: %w", g.Channel, ch.Line, err)
	}
	g.SizeUp = g.conv.PixelsToUnits(ch.SizeUp, g.Position)
	g.SizeDown = g.conv.PixelsToUnits(ch.SizeDown, g.Position)
	p := grating.Plan{
		Dist:      o.Dist,
		Pattern:   ch.Pattern,
		Start:     g.Position,
		StepsUp:   ch.StepsUp,
		StepsDown: ch.StepsDown,
		SizeUp:    float64(g.SizeUp),
		SizeDown:  float64(g.SizeDown),
		NodCycles: o.NodCycles,
		Splits:    o.Splits,
	}
	if g.Starts, err = grating.Starts(p); err != nil {
		return g, err
	}
	g.StepsUp, g.StepsDown = p.ScanSteps()
	return g, nil
}

// Units is the number of grating start positions per channel.
func (c *Context) Units() int { return len(c.Red.Starts) }

var errNotPrepared = errors.New("build not prepared")

// absOffset is the offset from the target to an absolute position given
// in degrees, arcsec.
func (c *Context) absOffset() mapping.Offset {
	o := &c.Obs
	dec := o.Dec.Rad()
	return mapping.Offset{
		Lambda: (o.OffLambda - o.RA.Deg()) * math.Cos(dec) * 3600,
		Beta:   (o.OffBeta - o.Dec.Deg()) * 3600,
	}
}
