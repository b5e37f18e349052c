// Public domain.

package obs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/obsmaker/internal/grating"
	"github.com/soniakeys/obsmaker/internal/mapping"
	"github.com/soniakeys/obsmaker/internal/sct"
)

// reader looks up template values under a primary key and its aliases.
// After the first error every lookup is a no-op; the error is kept in err.
type reader struct {
	t   *sct.Template
	err error
}

// find returns the first present, non-derived key.  A value of "n/a" or
// "N/A" counts as absent.
func (r *reader) find(keys []string) (string, string, bool) {
	for _, k := range keys {
		v, ok := r.t.Get(k)
		if !ok || v.Kind == sct.Derived || strings.EqualFold(v.Raw, "n/a") {
			continue
		}
		return k, v.Raw, true
	}
	return "", "", false
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %w", key, err)
	}
}

func (r *reader) str(def string, keys ...string) string {
	if r.err != nil {
		return def
	}
	if _, s, ok := r.find(keys); ok {
		return s
	}
	return def
}

func (r *reader) required(keys ...string) string {
	if r.err != nil {
		return ""
	}
	_, s, ok := r.find(keys)
	if !ok || s == "" {
		r.fail(keys[0], errors.New("missing"))
	}
	return s
}

func (r *reader) float(def float64, keys ...string) float64 {
	if r.err != nil {
		return def
	}
	k, s, ok := r.find(keys)
	if !ok || s == "" {
		return def
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(k, err)
		return def
	}
	return x
}

func (r *reader) int(def int, keys ...string) int {
	if r.err != nil {
		return def
	}
	k, s, ok := r.find(keys)
	if !ok || s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail(k, err)
		return def
	}
	return n
}

// leadingInt reads values like "105 um" or "1 (70-130 um)".
func (r *reader) leadingInt(def int, keys ...string) int {
	if r.err != nil {
		return def
	}
	k, s, ok := r.find(keys)
	if !ok {
		return def
	}
	f := strings.Fields(s)
	if len(f) == 0 {
		return def
	}
	n, err := strconv.Atoi(f[0])
	if err != nil {
		r.fail(k, err)
		return def
	}
	return n
}

// choice resolves a value against options, marking it a Choice in the
// template.  Absent values take def.
func (r *reader) choice(def string, options []string, keys ...string) string {
	if r.err != nil {
		return def
	}
	k, _, ok := r.find(keys)
	if !ok {
		return def
	}
	c, err := r.t.Choose(k, options)
	if err != nil {
		r.err = err
		return def
	}
	return c
}

func index(s string, names []string) int {
	for i, n := range names {
		if s == n {
			return i
		}
	}
	return -1
}

// Template keys.  The first key of each list is the one written by the
// AOR translator, the rest are accepted aliases.
var (
	kTargetLambda = []string{"TARGET_LAMBDA"}
	kTargetBeta   = []string{"TARGET_BETA"}
	kObsLam       = []string{"OBSLAM"}
	kObsBet       = []string{"OBSBET"}
	kNodPattern   = []string{"NODPATTERN", "NODPATT"}
	kChopScheme   = []string{"CHOP_SCHEME", "C_SCHEME"}
	kChopAmp      = []string{"CHOP_AMP", "C_AMP"}
	kChopPosAng   = []string{"CHOP_POSANG", "C_POSANG"}
	kChopPhase    = []string{"CHOP_MANUALPHASE", "C_PHASE"}
	kChopLen      = []string{"CHOP_LENGTH", "C_CHOPLN"}
	kDichroic     = []string{"DICHROIC"}
)

// channel keys, long prefix and short suffix
type chKeys struct{ long, short string }

func (c chKeys) k(long, short string) []string {
	ks := []string{c.long + long}
	if short != "" {
		ks = append(ks, short+c.short)
	}
	return ks
}

var (
	redKeys  = chKeys{"RED_", "_R"}
	blueKeys = chKeys{"BLUE_", "_B"}
)

// default chopper phase, samples
const defaultPhase = 356

// FromTemplate builds an Observation from a scan template and checks it.
// Choice values found in the template are tagged sct.Choice.
func FromTemplate(t *sct.Template) (*Observation, error) {
	r := &reader{t: t}
	o := &Observation{
		ObsID:      CleanID(r.required("OBSID")),
		AORID:      r.str("", "AORID"),
		TargetName: r.str("", "TARGET_NAME"),
		ObsType:    r.str("OBJECT", "OBSTYPE"),
		SrcType:    r.str("", "SRCTYPE"),
		InstMode:   r.str("", "INSTMODE"),
		Primary:    r.choice("RED", []string{"RED", "BLUE", "SETPOINT"}, "PRIMARYARRAY"),
		Setpoint:   r.str("", "SETPOINT"),
		Redshift:   r.float(0, "REDSHIFT"),
		DetAngle:   unit.AngleFromDeg(r.float(0, "DETANGLE")),
	}
	r.target(o)

	o.Symmetric = r.choice("Symmetric", []string{"Symmetric", "Asymmetric"},
		"OBSMODE") == "Symmetric"
	o.TrackingInB = r.choice("On", []string{"On", "Off"}, "TRACKING") == "On"
	o.NodPattern = NodPattern(index(r.choice("ABBA", nodNames, kNodPattern...),
		nodNames))
	o.NodCycles = r.int(1, "NODCYCLES")
	dist := r.choice("Up", []string{"Up", "Down", "None", "Split"}, "SCANDIST")
	o.Splits = r.int(1, "SPLITS")
	o.RewindAuto = r.choice("Auto", []string{"Auto", "Manual"}, "REWIND") == "Auto"

	off := r.choice("Matched", append(offPosNames[:len(offPosNames):len(offPosNames)],
		"Relative to active pos"), "OFFPOS")
	if off == "Relative to active pos" {
		off = RelActiveMapPos.String()
	}
	o.OffPos = OffPos(index(off, offPosNames))
	o.OffLambda = r.float(0, "OFFPOS_LAMBDA")
	o.OffBeta = r.float(0, "OFFPOS_BETA")
	o.OffReduc = r.float(1, "OFFPOS_REDUC")

	o.MapCoordSys = r.str("J2000", "MAPCOORD_SYSTEM")
	mp := r.choice("File", mapping.PatternNames(), "PATTERN")
	o.NumPoints = r.int(1, "DITHMAP_NUMPOINTS")
	o.StepSize = r.float(0, "DITHMAP_STEPSIZE")
	o.MapLambda = r.float(0, "DITHMAP_LAMBDA")
	o.MapBeta = r.float(0, "DITHMAP_BETA")
	o.MapListPath = r.str("", "MAPLISTPATH")

	o.ChopScheme = r.str("2POINT", kChopScheme...)
	o.ChopCoordSys = r.str("J2000", "CHOPCOORD_SYSTEM")
	o.ChopAmp = r.float(0, kChopAmp...)
	o.ChopPosAng = unit.AngleFromDeg(r.float(0, kChopPosAng...))
	switch r.choice("", []string{"Default", "Manual"}, "CHOPPHASE") {
	case "Manual":
		o.ChopPhase = r.int(defaultPhase, kChopPhase...)
	case "":
		o.ChopPhase = r.int(defaultPhase, "C_PHASE")
	default:
		o.ChopPhase = defaultPhase
	}
	o.ChopLen = r.int(64, kChopLen...)

	o.Dichroic = r.leadingInt(105, kDichroic...)
	o.Order = r.leadingInt(1, "ORDER")
	o.Filter = r.leadingInt(o.Order, "BLUE_FILTER")

	o.Red = r.channel(redKeys, 60, o.Redshift)
	o.Blue = r.channel(blueKeys, 75, o.Redshift)

	if r.err != nil {
		return nil, r.err
	}
	// names were validated by choice
	o.Dist, _ = grating.ParseDist(dist)
	o.MapPattern, _ = mapping.ParsePattern(mp)
	if err := o.Check(); err != nil {
		return nil, err
	}
	return o, nil
}

// ReadTemplate reads a template file and builds its Observation.  A
// relative map file path is taken relative to the template directory.
func ReadTemplate(fn string) (*sct.Template, *Observation, error) {
	t, err := sct.ReadFile(fn)
	if err != nil {
		return nil, nil, err
	}
	o, err := FromTemplate(t)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", fn, err)
	}
	o.MapListPath = resolve(filepath.Dir(fn), o.MapListPath)
	return t, o, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// target reads the target as sexagesimal, or failing that, decimal
// degrees.
func (r *reader) target(o *Observation) {
	if r.err != nil {
		return
	}
	_, sl, okl := r.find(kTargetLambda)
	_, sb, okb := r.find(kTargetBeta)
	if okl && okb {
		ra, err := ParseRA(sl)
		if err != nil {
			r.fail(kTargetLambda[0], err)
			return
		}
		dec, err := ParseDec(sb)
		if err != nil {
			r.fail(kTargetBeta[0], err)
			return
		}
		o.RA, o.Dec = ra, dec
		o.TargetLambda = strings.Join(strings.Fields(sl), " ")
		o.TargetBeta = strings.Join(strings.Fields(sb), " ")
		return
	}
	lam := r.float(0, kObsLam...)
	bet := r.float(0, kObsBet...)
	o.RA = unit.RAFromDeg(lam)
	o.Dec = unit.AngleFromDeg(bet)
	o.TargetLambda, o.TargetBeta = RADec(lam, bet)
}

var patternOptions = []string{"Start", "Centre", "Center", "Dither",
	"Inward dither", "Inward"}

// channel reads the keys of one array.  Without a line offset, a target
// redshift z gives a default velocity offset of cz.
func (r *reader) channel(ck chKeys, zbias, z float64) Channel {
	c := Channel{
		Line:        r.str("Custom", ck.k("LINE", "")...),
		Rest:        r.float(0, ck.k("MICRON", "G_WAVE")...),
		Offset:      r.float(0, ck.k("OFFSET", "")...),
		StepsUp:     r.int(1, ck.k("POSUP", "G_PSUP")...),
		StepsDown:   r.int(0, ck.k("POSDOWN", "G_PSDN")...),
		SizeUp:      r.float(0, ck.k("SIZEUP", "G_SZUP")...),
		SizeDown:    r.float(0, ck.k("SIZEDOWN", "G_SZDN")...),
		GratCycles:  r.int(1, ck.k("GRTCYC", "G_CYC")...),
		ChopCycles:  r.int(1, ck.k("CHOPCYC", "C_CYC")...),
		RampLen:     r.int(32, ck.k("RAMPLEN", "RAMPLN")...),
		ZeroBias:    r.float(zbias, ck.k("ZBIAS", "ZBIAS")...),
		BiasR:       r.float(0, ck.k("BIASR", "BIASR")...),
		Capacitor:   r.int(1330, ck.k("CAPACITOR", "CAP")...),
		FileGroupID: r.str("", "FILEGP"+ck.short),
	}
	c.OffsetUnit = OffsetUnit(index(
		r.choice("kms", offsetNames, ck.k("OFFSET_TYPE", "")...), offsetNames))
	if _, _, ok := r.find(ck.k("OFFSET", "")); !ok && z != 0 {
		c.Offset = z * SpeedOfLight
		c.OffsetUnit = Kms
	}
	if p := r.choice("Centre", patternOptions, ck.k("LAMBDA", "")...); r.err == nil {
		c.Pattern, _ = grating.ParsePattern(p)
	}
	if k, _, ok := r.find([]string{"G_STRT" + ck.short}); ok {
		c.Start = r.int(0, k)
		c.StartSet = true
	}
	return c
}
