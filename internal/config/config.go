// Public domain.

// Package config holds instrument constants and hardware limits.
//
// Built-in defaults describe the spectrometer as delivered.  A TOML file
// may override any subset of them; keys absent from the file keep their
// default values.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/naoina/toml"
)

// Fn is the default config file name.
const Fn = "obsmaker.toml"

// Instrument collects everything the compiler needs to know about the
// hardware that is not part of an observation request.
type Instrument struct {
	SampleRate   float64 `toml:"sample_rate"`   // detector readout, Hz
	MoveOverhead float64 `toml:"move_overhead"` // telescope move, s
	NodInterval  float64 `toml:"nod_interval"`  // target AB interval, s
	MinSweep     float64 `toml:"min_sweep"`     // shortest grating sweep, s

	GratingMin int `toml:"grating_min"` // inductosyn units
	GratingMax int `toml:"grating_max"`
	RampMax    int `toml:"ramp_max"` // samples

	ZeroBiasRed  [2]float64 `toml:"zero_bias_red"` // mV
	ZeroBiasBlue [2]float64 `toml:"zero_bias_blue"`
	BiasRRed     [2]float64 `toml:"bias_r_red"`
	BiasRBlue    [2]float64 `toml:"bias_r_blue"`
	Capacitors   []int      `toml:"capacitors"`

	ChopAmpMax   float64  `toml:"chop_amp_max"`   // arc sec, half throw
	ChopPhaseMax float64  `toml:"chop_phase_max"` // samples
	ChopSchemes  []string `toml:"chop_schemes"`
}

// Default returns the delivered instrument constants.
func Default() *Instrument {
	return &Instrument{
		SampleRate:   250,
		MoveOverhead: 10,
		NodInterval:  30,
		MinSweep:     15,
		GratingMin:   0,
		GratingMax:   3000000,
		RampMax:      4096,
		ZeroBiasRed:  [2]float64{0, 150},
		ZeroBiasBlue: [2]float64{0, 150},
		BiasRRed:     [2]float64{0, 150},
		BiasRBlue:    [2]float64{0, 150},
		Capacitors:   []int{1330, 2600, 10000, 14000},
		ChopAmpMax:   300,
		ChopPhaseMax: 1000,
		ChopSchemes:  []string{"2POINT", "4POINT"},
	}
}

// Load reads a TOML file over the defaults.
func Load(fn string) (*Instrument, error) {
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(b []byte) (*Instrument, error) {
	in := Default()
	if err := toml.Unmarshal(b, in); err != nil {
		return nil, fmt.Errorf("instrument config: %w", err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// Validate checks the constants are usable.
func (in *Instrument) Validate() error {
	switch {
	case in.SampleRate <= 0:
		return errors.New("instrument config: sample_rate must be positive")
	case in.GratingMax <= in.GratingMin:
		return errors.New("instrument config: grating_max must exceed grating_min")
	case in.RampMax < 1:
		return errors.New("instrument config: ramp_max must be positive")
	case len(in.Capacitors) == 0:
		return errors.New("instrument config: no capacitors")
	case len(in.ChopSchemes) == 0:
		return errors.New("instrument config: no chop schemes")
	case in.MoveOverhead < 0 || in.NodInterval <= 0 || in.MinSweep < 0:
		return errors.New("instrument config: negative time constant")
	}
	for _, r := range [][2]float64{in.ZeroBiasRed, in.ZeroBiasBlue,
		in.BiasRRed, in.BiasRBlue} {
		if r[1] < r[0] {
			return fmt.Errorf("instrument config: empty range %v", r)
		}
	}
	return nil
}
