// Public domain.

// Package grating converts between wavelength and grating encoder
// (inductosyn) position and lays out grating start positions over a
// sequence of scans.
package grating

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/soniakeys/obsmaker/internal/calib"
)

// Inverse sampling grid, inductosyn units.
const (
	GridStep = 10000
	GridMax  = 3000000
)

// ErrOutOfRange is returned by WavelengthToPosition for wavelengths outside
// the sampled curve.  The position returned with it is the boundary value.
var ErrOutOfRange = errors.New("wavelength outside grating range")

// encoder full scale, 2^24
const fullScale = 1 << 24

// Converter converts for one calibration entry and diffraction order.
// It is immutable after New.
type Converter struct {
	e     calib.Entry
	order float64

	g      [calib.Modules]float64 // effective grating constant per module
	lo, hi float64                // mean curve extremes
	inv    interp.PiecewiseLinear // mean wavelength -> position
}

// New builds a converter and samples the mean forward curve used for
// inversion.  The curve must be monotonic over the grid.
func New(e *calib.Entry, order int) (*Converter, error) {
	if order < 1 {
		return nil, fmt.Errorf("invalid diffraction order %d", order)
	}
	c := &Converter{e: *e, order: float64(order)}
	for m := range c.g {
		slitPos := float64(25 - 6*(m/5) + m%5)
		c.g[m] = e.G0 * math.Cos(math.Atan2(slitPos-e.NP, e.A))
	}
	pos := make([]float64, 0, GridMax/GridStep)
	for p := 0; p < GridMax; p += GridStep {
		pos = append(pos, float64(p))
	}
	wave := make([]float64, len(pos))
	for i, p := range pos {
		wave[i] = c.MeanWavelength(p)
	}
	switch {
	case increasing(wave):
	case increasing(reversed(wave)):
		floats.Reverse(wave)
		floats.Reverse(pos)
	default:
		return nil, fmt.Errorf("%s order %d: wavelength curve not monotonic",
			e.Channel, order)
	}
	if err := c.inv.Fit(wave, pos); err != nil {
		return nil, fmt.Errorf("%s order %d: %w", e.Channel, order, err)
	}
	c.lo = floats.Min(wave)
	c.hi = floats.Max(wave)
	return c, nil
}

func increasing(s []float64) bool {
	for i := 1; i < len(s); i++ {
		if !(s[i] > s[i-1]) {
			return false
		}
	}
	return true
}

func reversed(s []float64) []float64 {
	r := append([]float64{}, s...)
	floats.Reverse(r)
	return r
}

// Range returns the wavelength range of the sampled curve, microns.
func (c *Converter) Range() (lo, hi float64) { return c.lo, c.hi }

// pixel computes wavelength and dispersion for one module and pixel.
// pix is 1 based.
func (c *Converter) pixel(pos float64, m int, pix float64) (w, dwdp float64) {
	e := &c.e
	phi := 2 * math.Pi * e.ISF * (pos + e.ISOff[m]) / fullScale
	d := pix - e.QOff
	sign := 0.
	switch {
	case d > 0:
		sign = 1
	case d < 0:
		sign = -1
	}
	delta := (pix-8.5)*e.PS + sign*d*d*e.QS
	k := 1000 * c.g[m] / c.order
	w = k * (math.Sin(phi+e.Gamma+delta) + math.Sin(phi-e.Gamma))
	dwdp = k * (e.PS + 2*sign*e.QS*d) * math.Cos(phi+e.Gamma+delta)
	return
}

// PositionToWavelength computes, for each encoder position, the wavelength
// (microns) and dispersion (microns per pixel) seen by every module and
// pixel.
func (c *Converter) PositionToWavelength(pos []float64) (wave, disp [][calib.Modules][calib.Pixels]float64) {
	wave = make([][calib.Modules][calib.Pixels]float64, len(pos))
	disp = make([][calib.Modules][calib.Pixels]float64, len(pos))
	for i, p := range pos {
		for m := 0; m < calib.Modules; m++ {
			for px := 0; px < calib.Pixels; px++ {
				wave[i][m][px], disp[i][m][px] = c.pixel(p, m, float64(px+1))
			}
		}
	}
	return
}

// mean computes the mean wavelength and mean dispersion over all modules
// and pixels at one position.
func (c *Converter) mean(pos float64) (w, d float64) {
	var ws, ds [calib.Modules * calib.Pixels]float64
	for m := 0; m < calib.Modules; m++ {
		for px := 0; px < calib.Pixels; px++ {
			k := m*calib.Pixels + px
			ws[k], ds[k] = c.pixel(pos, m, float64(px+1))
		}
	}
	return stat.Mean(ws[:], nil), stat.Mean(ds[:], nil)
}

// MeanWavelength is the wavelength at pos averaged over modules and pixels.
func (c *Converter) MeanWavelength(pos float64) float64 {
	w, _ := c.mean(pos)
	return w
}

// WavelengthToPosition inverts the mean curve by linear interpolation.
// Accuracy is bounded by GridStep.
func (c *Converter) WavelengthToPosition(w float64) (float64, error) {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, fmt.Errorf("invalid wavelength %v", w)
	}
	p := c.inv.Predict(w)
	if w < c.lo || w > c.hi {
		return p, fmt.Errorf("%g um not in [%.3f, %.3f]: %w",
			w, c.lo, c.hi, ErrOutOfRange)
	}
	return p, nil
}

// UnitsPerPixel is the encoder distance that moves the spectrum by one
// pixel at pos.
func (c *Converter) UnitsPerPixel(pos float64) float64 {
	const h = 1000.
	w1, _ := c.mean(pos - h)
	w2, _ := c.mean(pos + h)
	_, disp := c.mean(pos)
	return math.Abs(disp / ((w2 - w1) / (2 * h)))
}

// PixelsToUnits converts a step size in pixels to whole encoder units.
func (c *Converter) PixelsToUnits(pix, pos float64) int {
	return int(math.Round(pix * c.UnitsPerPixel(pos)))
}
