// Public domain.

package obs

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"
)

// RADec formats decimal degree coordinates as "HH MM SS.SS" and
// "+DD MM SS.S".
func RADec(ra, dec float64) (string, string) {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	// hundredths of a second of time, rounded before splitting so a
	// carry reaches the minutes and hours
	cs := int64(math.Round(ra / 15 * 3600 * 100))
	cs %= 24 * 3600 * 100
	h := cs / 360000
	m := cs / 6000 % 60
	s := float64(cs%6000) / 100

	sign := "+"
	if dec < 0 {
		sign = "-"
	}
	ds := int64(math.Round(math.Abs(dec) * 3600 * 10))
	d := ds / 36000
	dm := ds / 600 % 60
	dsec := float64(ds%600) / 10
	return fmt.Sprintf("%02d %02d %05.2f", h, m, s),
		fmt.Sprintf("%s%02d %02d %04.1f", sign, d, dm, dsec)
}

func sexaFields(s string) (neg bool, a, b int, c float64, err error) {
	f := strings.Fields(strings.ReplaceAll(s, ":", " "))
	if len(f) != 3 {
		return false, 0, 0, 0, fmt.Errorf("%q: want 3 fields", s)
	}
	if strings.HasPrefix(f[0], "-") {
		neg = true
	}
	if a, err = strconv.Atoi(strings.TrimLeft(f[0], "+-")); err != nil {
		return
	}
	if b, err = strconv.Atoi(f[1]); err != nil {
		return
	}
	if b < 0 || b >= 60 {
		return false, 0, 0, 0, fmt.Errorf("%q: minutes out of range", s)
	}
	if c, err = strconv.ParseFloat(f[2], 64); err != nil {
		return
	}
	if c < 0 || c >= 60 {
		return false, 0, 0, 0, fmt.Errorf("%q: seconds out of range", s)
	}
	return
}

// ParseRA parses right ascension "HH MM SS.SS".  Colons may separate the
// fields.
func ParseRA(s string) (unit.RA, error) {
	neg, h, m, sec, err := sexaFields(s)
	if err != nil {
		return 0, err
	}
	if neg || h >= 24 {
		return 0, fmt.Errorf("%q: hours out of range", s)
	}
	return unit.NewRA(h, m, sec), nil
}

// ParseDec parses declination "+DD MM SS.S".
func ParseDec(s string) (unit.Angle, error) {
	neg, d, m, sec, err := sexaFields(s)
	if err != nil {
		return 0, err
	}
	if d > 90 {
		return 0, fmt.Errorf("%q: degrees out of range", s)
	}
	sign := byte('+')
	if neg {
		sign = '-'
	}
	return unit.NewAngle(sign, d, m, sec), nil
}
