// Public domain.

// Package obs holds the typed parameters of one observation.
//
// An Observation is usually built from a scan template with FromTemplate.
// It is plain data; a build owns its own copy.
package obs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/obsmaker/internal/grating"
	"github.com/soniakeys/obsmaker/internal/mapping"
)

// ErrOddBrightNodCycles is returned when a bright object nod pattern is
// given an odd number of nod cycles.
var ErrOddBrightNodCycles = errors.New("bright object nod pattern needs an even number of nod cycles")

// ErrBadObsID is returned for an observation ID that cannot serve as a
// directory name.
var ErrBadObsID = errors.New("observation ID is not a plain file name")

var idReplacer = strings.NewReplacer("/", "_", `\`, "_", ":", "_", "*", "_", " ", "_")

// CleanID replaces characters of an observation ID that do not belong in a
// file name with underscores.
func CleanID(id string) string { return idReplacer.Replace(id) }

// CheckID verifies that id names a single directory entry.
func CheckID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\:* \t") {
		return fmt.Errorf("%w: %q", ErrBadObsID, id)
	}
	return nil
}

// NodPattern is the telescope nod pattern.
type NodPattern int

const (
	ABBA NodPattern = iota
	AB
	A
	ABA
	AABAA
)

var nodNames = []string{"ABBA", "AB", "A", "ABA", "AABAA"}

func (n NodPattern) String() string {
	if n < 0 || int(n) >= len(nodNames) {
		return fmt.Sprintf("NodPattern(%d)", int(n))
	}
	return nodNames[n]
}

// Bright reports if n is a bright object pattern, several on source
// visits per off position visit.
func (n NodPattern) Bright() bool { return n == ABA || n == AABAA }

// OffsetUnit is the unit of a channel's line offset.
type OffsetUnit int

const (
	Kms     OffsetUnit = iota // velocity, km/s
	Microns                   // wavelength
	Units                     // grating encoder units
)

var offsetNames = []string{"kms", "um", "units"}

func (u OffsetUnit) String() string {
	if u < 0 || int(u) >= len(offsetNames) {
		return fmt.Sprintf("OffsetUnit(%d)", int(u))
	}
	return offsetNames[u]
}

// OffPos is how the off (B) position is placed.
type OffPos int

const (
	Matched         OffPos = iota // the chop throw, no explicit offset
	Absolute                      // fixed sky coordinates
	RelTarget                     // offset from the target
	RelActiveMapPos               // offset from the current map point
)

var offPosNames = []string{"Matched", "Absolute", "Relative to target",
	"Relative to active map pos"}

func (p OffPos) String() string {
	if p < 0 || int(p) >= len(offPosNames) {
		return fmt.Sprintf("OffPos(%d)", int(p))
	}
	return offPosNames[p]
}

// Channel holds per detector array parameters.
type Channel struct {
	Line       string
	Rest       float64 // rest wavelength, um
	Offset     float64
	OffsetUnit OffsetUnit
	StartSet   bool // Start given explicitly, overrides the computed start
	Start      int  // encoder units

	Pattern     grating.Pattern
	StepsUp     int
	StepsDown   int
	SizeUp      float64 // pixels
	SizeDown    float64 // pixels
	GratCycles  int
	ChopCycles  int // chop cycles per grating position
	RampLen     int // samples
	ZeroBias    float64
	BiasR       float64
	Capacitor   int
	FileGroupID string
}

// Observation is the full set of operator parameters.
type Observation struct {
	ObsID      string
	AORID      string
	TargetName string
	ObsType    string
	SrcType    string
	InstMode   string
	Primary    string
	Setpoint   string

	RA           unit.RA
	Dec          unit.Angle
	TargetLambda string // sexagesimal as in the map file target line
	TargetBeta   string
	Redshift     float64 // z, sets the default line offset
	DetAngle     unit.Angle

	Symmetric   bool
	TrackingInB bool
	NodPattern  NodPattern
	NodCycles   int
	Dist        grating.Dist
	Splits      int
	RewindAuto  bool

	OffPos    OffPos
	OffLambda float64 // arcsec, or degrees for Absolute
	OffBeta   float64
	OffReduc  float64

	MapCoordSys string
	MapPattern  mapping.Pattern
	NumPoints   int
	StepSize    float64 // arcsec
	MapLambda   float64 // map center offset from target, arcsec
	MapBeta     float64
	MapListPath string

	ChopScheme   string
	ChopCoordSys string
	ChopAmp      float64 // arcsec, half throw
	ChopPosAng   unit.Angle
	ChopPhase    int
	ChopLen      int // samples per chop position

	Dichroic int
	Order    int // blue diffraction order
	Filter   int

	Red, Blue Channel
}

// Check verifies structural constraints that do not depend on hardware
// limits.
func (o *Observation) Check() error {
	switch {
	case o.ObsID == "":
		return errors.New("missing observation ID")
	case CheckID(o.ObsID) != nil:
		return CheckID(o.ObsID)
	case o.NodCycles < 1:
		return fmt.Errorf("invalid nod cycle count %d", o.NodCycles)
	case o.NodPattern.Bright() && o.NodCycles%2 != 0:
		return fmt.Errorf("%v with %d nod cycles: %w",
			o.NodPattern, o.NodCycles, ErrOddBrightNodCycles)
	case o.Dist == grating.DistSplit && o.Splits < 1:
		return fmt.Errorf("invalid split count %d", o.Splits)
	case o.Dichroic != 105 && o.Dichroic != 130:
		return fmt.Errorf("invalid dichroic %d", o.Dichroic)
	case o.Order != 1 && o.Order != 2:
		return fmt.Errorf("invalid blue order %d", o.Order)
	case !(o.OffReduc > 0):
		return fmt.Errorf("invalid off position reduction %g", o.OffReduc)
	case o.ChopLen < 1:
		return fmt.Errorf("invalid chop length %d", o.ChopLen)
	case o.MapPattern == mapping.File && o.MapListPath == "":
		return errors.New("file map pattern without map file")
	}
	for _, c := range []struct {
		name string
		ch   *Channel
	}{{"red", &o.Red}, {"blue", &o.Blue}} {
		if err := c.ch.check(); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}

func (c *Channel) check() error {
	switch {
	case !(c.Rest > 0) && !c.StartSet:
		return fmt.Errorf("invalid wavelength %g", c.Rest)
	case c.StepsUp < 0 || c.StepsDown < 0:
		return errors.New("negative grating step count")
	case c.StepsUp+c.StepsDown < 1:
		return errors.New("no grating positions")
	case c.GratCycles < 1:
		return fmt.Errorf("invalid grating cycle count %d", c.GratCycles)
	case c.ChopCycles < 1:
		return fmt.Errorf("invalid chop cycle count %d", c.ChopCycles)
	case c.RampLen < 1:
		return fmt.Errorf("invalid ramp length %d", c.RampLen)
	}
	return nil
}

// Channel returns the red or blue channel.
func (o *Observation) Channel(red bool) *Channel {
	if red {
		return &o.Red
	}
	return &o.Blue
}
