// Public domain.

// Package calib holds the wavelength calibration table.
//
// The table is read once and is read-only afterwards.  It may be shared
// by any number of builds.
package calib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Fn is the default calibration file name.
const Fn = "FIFI_LS_WaveCal_Coeffs.txt"

// Detector geometry.
const (
	Modules = 25 // spatial modules (spaxels)
	Pixels  = 16 // spectral pixels per module
)

// Fixed optical constants, per array.
const (
	ISF       = 1.
	GammaRed  = 0.0167200
	GammaBlue = 0.0089008
)

// Channel codes.
const (
	R105 = "R105"
	R130 = "R130"
	B1   = "B1"
	B2   = "B2"
)

// ErrNoEpoch is returned when the table has no calibration dated before
// the observation.
var ErrNoEpoch = errors.New("no calibration epoch before observation date")

// Entry is one row of the table: a channel at a calibration date.
type Entry struct {
	Date    int // YYYYMMDD
	Channel string

	G0, NP, A    float64          // grating constant, pivot index, lever arm
	PS, QOff, QS float64          // pixel scale, quadratic offset and scale
	ISF, Gamma   float64          // inductosyn scale, angular offset
	ISOff        [Modules]float64 // per-module inductosyn offsets
}

// Red reports if the entry is for the red array.
func (e *Entry) Red() bool {
	return e.Channel == R105 || e.Channel == R130
}

// Table is the full calibration table.
type Table struct {
	byCh map[string][]Entry // sorted by date
}

// Channel selects the channel code from the array, dichroic and order.
// The red array depends on the dichroic, the blue array on the order.
func Channel(red bool, dichroic, order int) string {
	if red {
		if dichroic == 105 {
			return R105
		}
		return R130
	}
	if order == 1 {
		return B1
	}
	return B2
}

// ReadFile reads a calibration table file.
func ReadFile(fn string) (*Table, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return t, nil
}

// Parse reads a calibration table.
//
// Lines are whitespace separated columns
//
//	Date ch g0 NP a PS QOFF QS I1 ... I25
//
// Empty lines and text following # are ignored.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{byCh: map[string][]Entry{}}
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		e, err := parseEntry(f)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ln, err)
		}
		t.byCh[e.Channel] = append(t.byCh[e.Channel], e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(t.byCh) == 0 {
		return nil, errors.New("no calibration data")
	}
	for ch, es := range t.byCh {
		sort.Slice(es, func(i, j int) bool { return es[i].Date < es[j].Date })
		for i := 1; i < len(es); i++ {
			if es[i].Date == es[i-1].Date {
				return nil, fmt.Errorf("duplicate date %d for %s",
					es[i].Date, ch)
			}
		}
	}
	return t, nil
}

func parseEntry(f []string) (e Entry, err error) {
	if len(f) != 8+Modules {
		return e, fmt.Errorf("%d columns, want %d", len(f), 8+Modules)
	}
	if len(f[0]) != 8 {
		return e, fmt.Errorf("invalid date %q, want YYYYMMDD", f[0])
	}
	if e.Date, err = strconv.Atoi(f[0]); err != nil {
		return e, fmt.Errorf("invalid date %q", f[0])
	}
	e.Channel = f[1]
	switch e.Channel {
	case R105, R130:
		e.Gamma = GammaRed
	case B1, B2:
		e.Gamma = GammaBlue
	default:
		return e, fmt.Errorf("unknown channel %q", f[1])
	}
	e.ISF = ISF
	coef := []*float64{&e.G0, &e.NP, &e.A, &e.PS, &e.QOff, &e.QS}
	for i, p := range coef {
		if *p, err = strconv.ParseFloat(f[2+i], 64); err != nil {
			return e, fmt.Errorf("column %d: %w", 3+i, err)
		}
	}
	for m := range e.ISOff {
		if e.ISOff[m], err = strconv.ParseFloat(f[8+m], 64); err != nil {
			return e, fmt.Errorf("module offset I%d: %w", m+1, err)
		}
	}
	return e, nil
}

// Lookup returns the entry for a channel with the latest calibration date
// strictly before obsDate.
func (t *Table) Lookup(ch string, obsDate int) (*Entry, error) {
	es, ok := t.byCh[ch]
	if !ok {
		return nil, fmt.Errorf("channel %s not in calibration table", ch)
	}
	// first entry not before obsDate
	i := sort.Search(len(es), func(i int) bool { return es[i].Date >= obsDate })
	if i == 0 {
		return nil, fmt.Errorf("%s, date %d: %w", ch, obsDate, ErrNoEpoch)
	}
	e := es[i-1]
	return &e, nil
}

// Dates lists the calibration dates present for a channel.
func (t *Table) Dates(ch string) []int {
	es := t.byCh[ch]
	d := make([]int, len(es))
	for i, e := range es {
		d[i] = e.Date
	}
	return d
}
