// Public domain.

// Package scan holds the scan record, the unit of hardware command, with
// its validator and serializer.
package scan

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/soniakeys/obsmaker/internal/mapping"
	"github.com/soniakeys/obsmaker/internal/sct"
)

// Beam is the nod beam of a scan, A on source or B off.
type Beam string

const (
	BeamA Beam = "A"
	BeamB Beam = "B"
)

// Focus is the line of sight rewind, or focus update, flag.
type Focus int

const (
	FocusBlock Focus = iota
	FocusAllow
	FocusForce
)

func (f Focus) String() string {
	switch f {
	case FocusBlock:
		return "block"
	case FocusAllow:
		return "allow"
	case FocusForce:
		return "force"
	}
	return fmt.Sprintf("Focus(%d)", int(f))
}

// Channel holds the per array fields of a record.  Grating sizes are
// encoder units.
type Channel struct {
	Wave        float64 // mean wavelength at Start, um
	Start       int
	StepsUp     int
	StepsDown   int
	SizeUp      int
	SizeDown    int
	GratCycles  int
	ChopCycles  int
	RampLen     int
	ZeroBias    float64
	BiasR       float64
	Capacitor   int
	FileGroupID string

	// derived by Validator.Check
	SubRamp  int // sub-ramp length, samples
	SubRamps int // sub-ramps per chop position
	Frames   int
}

// Record is one scan, an A or B visit.
type Record struct {
	ObsID    string
	AORID    string
	Object   string
	ObsType  string
	SrcType  string
	InstMode string
	Primary  string
	Setpoint string
	BuildID  string

	Lambda      float64 // target RA, degrees
	Beta        float64 // target Dec, degrees
	DetAngle    float64 // degrees
	MapCoordSys string
	NodPattern  string
	Beam        Beam
	Tracking    bool
	Sign        int // chop sign in the B beam
	Focus       Focus

	MapOffset mapping.Offset // active map point, arcsec
	Offset    mapping.Offset // commanded offset, arcsec

	Tracked  bool
	Speed    float64 // arcsec/s
	VelAngle float64 // degrees

	Dichroic int
	Order    int
	Filter   int

	ChopScheme   string
	ChopCoordSys string
	ChopAmp      float64 // arcsec
	ChopPosAng   float64 // degrees
	ChopPhase    int
	ChopLen      int

	Red, Blue Channel
}

// FileName is the record file name for sequence number seq.
func (r *Record) FileName(seq int) string {
	return fmt.Sprintf("%05d_%s_%d_%d_%s.scn", seq, r.ObsID,
		int(math.Round(r.Offset.Lambda)), int(math.Round(r.Offset.Beta)),
		r.Beam)
}

func ftoa(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}

// Template renders the record as keyword values.
func (r *Record) Template() *sct.Template {
	t := sct.New()
	s := func(k, v, c string) { t.SetText(k, v, c) }
	i := func(k string, v int, c string) { t.SetText(k, strconv.Itoa(v), c) }
	f := func(k string, v float64, c string) { t.SetText(k, ftoa(v), c) }
	s("OBSID", r.ObsID, "")
	s("AORID", r.AORID, "")
	s("OBJECT", r.Object, "target name")
	s("OBSTYPE", r.ObsType, "")
	s("SRCTYPE", r.SrcType, "")
	s("INSTMODE", r.InstMode, "")
	s("PRIMARRAY", r.Primary, "primary array")
	s("SETPOINT", r.Setpoint, "")
	s("BUILDID", r.BuildID, "build run")
	s("FILEGP_R", r.Red.FileGroupID, "")
	s("FILEGP_B", r.Blue.FileGroupID, "")
	f("OBSLAM", r.Lambda, "deg")
	f("OBSBET", r.Beta, "deg")
	f("DETANGLE", r.DetAngle, "deg")
	s("MAPCRSYS", r.MapCoordSys, "")
	s("NODPATT", r.NodPattern, "")
	s("NODBEAM", string(r.Beam), "")
	s("TRACKING", onOff(r.Tracking), "")
	i("NODSIGN", r.Sign, "chop sign")
	s("LOSFOCUS", r.Focus.String(), "rewind")
	f("DLAM_MAP", r.MapOffset.Lambda, "arcsec")
	f("DBET_MAP", r.MapOffset.Beta, "arcsec")
	f("DLAM_OFF", r.Offset.Lambda, "arcsec")
	f("DBET_OFF", r.Offset.Beta, "arcsec")
	if r.Tracked {
		f("SCANSPD", r.Speed, "arcsec/s")
		f("VELANGLE", r.VelAngle, "deg")
	}
	i("DICHROIC", r.Dichroic, "")
	i("ORDER", r.Order, "blue order")
	i("FILTER", r.Filter, "blue filter")
	for _, c := range []struct {
		sfx string
		ch  *Channel
	}{{"_B", &r.Blue}, {"_R", &r.Red}} {
		ch := c.ch
		s("G_WAVE"+c.sfx, strconv.FormatFloat(ch.Wave, 'f', 4, 64), "um")
		i("G_STRT"+c.sfx, ch.Start, "")
		i("G_PSUP"+c.sfx, ch.StepsUp, "")
		i("G_SZUP"+c.sfx, ch.SizeUp, "")
		i("G_PSDN"+c.sfx, ch.StepsDown, "")
		i("G_SZDN"+c.sfx, ch.SizeDown, "")
		i("G_CYC"+c.sfx, ch.GratCycles, "")
		i("C_CYC"+c.sfx, ch.ChopCycles, "")
		i("RAMPLN"+c.sfx, ch.RampLen, "samples")
		i("SUBRP"+c.sfx, ch.SubRamp, "samples")
		i("SUBRPN"+c.sfx, ch.SubRamps, "per chop position")
		f("ZBIAS"+c.sfx, ch.ZeroBias, "mV")
		f("BIASR"+c.sfx, ch.BiasR, "mV")
		i("CAP"+c.sfx, ch.Capacitor, "")
		i("FRAMES"+c.sfx, ch.Frames, "")
	}
	s("C_SCHEME", r.ChopScheme, "")
	s("C_CRDSYS", r.ChopCoordSys, "")
	f("C_AMP", r.ChopAmp, "arcsec")
	f("C_POSANG", r.ChopPosAng, "deg")
	i("C_PHASE", r.ChopPhase, "samples")
	i("C_CHOPLN", r.ChopLen, "samples")
	return t
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo writes the record in keyword format.
func (r *Record) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	err := r.Template().Write(cw)
	return cw.n, err
}
