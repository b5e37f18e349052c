// Public domain.

package obs

import (
	"github.com/soniakeys/obsmaker/internal/grating"
)

// SpeedOfLight in km/s.
const SpeedOfLight = 299792.458

// Wavelength is the observed line wavelength, um.  For an offset in
// encoder units it is the rest wavelength.
func (c *Channel) Wavelength() float64 {
	switch c.OffsetUnit {
	case Kms:
		return c.Rest * (1 + c.Offset/SpeedOfLight)
	case Microns:
		return c.Rest + c.Offset
	}
	return c.Rest
}

// StartPosition is the requested grating position for the channel: the
// explicit start when one is given, otherwise the position of the
// observed wavelength plus any offset in encoder units.
//
// An error wrapping grating.ErrOutOfRange comes with the clamped position.
func (c *Channel) StartPosition(conv *grating.Converter) (float64, error) {
	if c.StartSet {
		return float64(c.Start), nil
	}
	p, err := conv.WavelengthToPosition(c.Wavelength())
	if c.OffsetUnit == Units {
		p += c.Offset
	}
	return p, err
}
