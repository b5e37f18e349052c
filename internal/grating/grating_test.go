// Public domain.

package grating_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/obsmaker/internal/calib"
	"github.com/soniakeys/obsmaker/internal/grating"
)

func converter(t *testing.T, ch string, order int) *grating.Converter {
	t.Helper()
	tab, err := calib.ReadFile("../calib/testdata/wavecal.txt")
	require.NoError(t, err)
	e, err := tab.Lookup(ch, 20200101)
	require.NoError(t, err)
	c, err := grating.New(e, order)
	require.NoError(t, err)
	return c
}

func TestPositionToWavelengthShape(t *testing.T) {
	c := converter(t, calib.R105, 1)
	wave, disp := c.PositionToWavelength([]float64{1000000, 1500000})
	require.Len(t, wave, 2)
	require.Len(t, disp, 2)
	for i := range wave {
		for m := 0; m < calib.Modules; m++ {
			for px := 0; px < calib.Pixels; px++ {
				w := wave[i][m][px]
				assert.False(t, math.IsNaN(w))
				assert.Greater(t, w, 0.)
				assert.Greater(t, disp[i][m][px], 0.)
			}
			// dispersion runs along the pixels
			assert.Greater(t, wave[i][m][calib.Pixels-1], wave[i][m][0])
		}
	}
	// larger position, longer wavelength
	assert.Greater(t, wave[1][12][8], wave[0][12][8])
}

func TestDeterministic(t *testing.T) {
	c := converter(t, calib.B1, 1)
	w1, d1 := c.PositionToWavelength([]float64{1234567})
	w2, d2 := c.PositionToWavelength([]float64{1234567})
	assert.Equal(t, w1, w2)
	assert.Equal(t, d1, d2)
}

func TestMonotonicMeanCurve(t *testing.T) {
	for _, tc := range []struct {
		ch    string
		order int
	}{
		{calib.R105, 1}, {calib.R130, 1}, {calib.B1, 1}, {calib.B2, 2},
	} {
		c := converter(t, tc.ch, tc.order)
		prev := math.Inf(-1)
		for p := 0.; p < grating.GridMax; p += grating.GridStep {
			w := c.MeanWavelength(p)
			require.Greater(t, w, prev, "%s at %v", tc.ch, p)
			prev = w
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		ch    string
		order int
	}{
		{calib.R105, 1}, {calib.B1, 1}, {calib.B2, 2},
	} {
		c := converter(t, tc.ch, tc.order)
		for _, p := range []float64{20000, 500000, 1234567, 1800001, 2950000} {
			got, err := c.WavelengthToPosition(c.MeanWavelength(p))
			require.NoError(t, err)
			assert.InDelta(t, p, got, grating.GridStep, "%s %v", tc.ch, p)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	c := converter(t, calib.R105, 1)
	lo, hi := c.Range()
	require.Less(t, lo, hi)

	p, err := c.WavelengthToPosition(hi + 10)
	assert.True(t, errors.Is(err, grating.ErrOutOfRange))
	assert.Equal(t, float64(grating.GridMax-grating.GridStep), p)

	p, err = c.WavelengthToPosition(lo - 10)
	assert.True(t, errors.Is(err, grating.ErrOutOfRange))
	assert.Equal(t, 0., p)

	_, err = c.WavelengthToPosition(math.NaN())
	assert.Error(t, err)
}

func TestUnitsPerPixel(t *testing.T) {
	c := converter(t, calib.R105, 1)
	u := c.UnitsPerPixel(1500000)
	assert.Greater(t, u, 0.)
	assert.Equal(t, 0, c.PixelsToUnits(0, 1500000))
	assert.Equal(t, int(math.Round(2*u)), c.PixelsToUnits(2, 1500000))
}

func TestNewBadOrder(t *testing.T) {
	tab, err := calib.ReadFile("../calib/testdata/wavecal.txt")
	require.NoError(t, err)
	e, err := tab.Lookup(calib.B1, 20200101)
	require.NoError(t, err)
	_, err = grating.New(e, 0)
	assert.Error(t, err)
}

func TestStarts(t *testing.T) {
	var tcs = []struct {
		name string
		plan grating.Plan
		want []int
	}{
		{"none start", grating.Plan{Dist: grating.DistNone, Pattern: grating.Start,
			Start: 1000, StepsUp: 16, SizeUp: 100}, []int{1000}},
		{"none centre", grating.Plan{Dist: grating.DistNone, Pattern: grating.Centre,
			Start: 1000, StepsUp: 5, SizeUp: 100}, []int{800}},
		{"up start", grating.Plan{Dist: grating.DistUp, Pattern: grating.Start,
			Start: 1000, StepsUp: 8, SizeUp: 100, NodCycles: 4},
			[]int{1000, 1200, 1400, 1600}},
		{"down start", grating.Plan{Dist: grating.DistDown, Pattern: grating.Start,
			Start: 1000, StepsDown: 8, SizeDown: 100, NodCycles: 4},
			[]int{1000, 800, 600, 400}},
		{"up centre", grating.Plan{Dist: grating.DistUp, Pattern: grating.Centre,
			Start: 1000, StepsUp: 9, SizeUp: 100, NodCycles: 3},
			[]int{600, 900, 1200}},
		{"down centre", grating.Plan{Dist: grating.DistDown, Pattern: grating.Centre,
			Start: 1000, StepsDown: 9, SizeDown: 100, NodCycles: 3},
			[]int{1400, 1100, 800}},
		// slots 600 900 1200 visited middle first
		{"up dither odd", grating.Plan{Dist: grating.DistUp, Pattern: grating.Dither,
			Start: 1000, StepsUp: 9, SizeUp: 100, NodCycles: 3},
			[]int{900, 1200, 600}},
		// slots 850 1050, lower middle first
		{"up dither even", grating.Plan{Dist: grating.DistUp, Pattern: grating.Dither,
			Start: 1000, StepsUp: 4, SizeUp: 100, NodCycles: 2},
			[]int{850, 1050}},
		{"up dither five", grating.Plan{Dist: grating.DistUp, Pattern: grating.Dither,
			Start: 0, StepsUp: 5, SizeUp: 100, NodCycles: 5},
			[]int{0, 100, -100, 200, -200}},
		{"up inward dither", grating.Plan{Dist: grating.DistUp, Pattern: grating.InwardDither,
			Start: 0, StepsUp: 5, SizeUp: 100, NodCycles: 5},
			[]int{-200, 200, -100, 100, 0}},
		// pairs straddling the middle, lower first
		{"up dither six", grating.Plan{Dist: grating.DistUp, Pattern: grating.Dither,
			Start: 0, StepsUp: 6, SizeUp: 100, NodCycles: 6},
			[]int{-50, 50, -150, 150, -250, 250}},
		{"up inward dither six", grating.Plan{Dist: grating.DistUp,
			Pattern: grating.InwardDither, Start: 0, StepsUp: 6, SizeUp: 100, NodCycles: 6},
			[]int{250, -250, 150, -150, 50, -50}},
		// a single unit starts at the requested position
		{"dither single unit", grating.Plan{Dist: grating.DistUp,
			Pattern: grating.Dither, Start: 1000, StepsUp: 5, SizeUp: 100, NodCycles: 1},
			[]int{1000}},
		{"inward dither single unit", grating.Plan{Dist: grating.DistUp,
			Pattern: grating.InwardDither, Start: 1000, StepsUp: 5, SizeUp: 100, NodCycles: 1},
			[]int{1000}},
		{"down dither single unit", grating.Plan{Dist: grating.DistDown,
			Pattern: grating.Dither, Start: 1000, StepsDown: 5, SizeDown: 100, NodCycles: 1},
			[]int{1000}},
		{"none dither", grating.Plan{Dist: grating.DistNone, Pattern: grating.Dither,
			Start: 1000, StepsUp: 5, SizeUp: 100}, []int{1000}},
		{"centre single unit", grating.Plan{Dist: grating.DistUp,
			Pattern: grating.Centre, Start: 1000, StepsUp: 5, SizeUp: 100, NodCycles: 1},
			[]int{800}},
		{"split start", grating.Plan{Dist: grating.DistSplit, Pattern: grating.Start,
			Start: 1000, StepsUp: 12, SizeUp: 50, Splits: 3},
			[]int{1000, 1200, 1400}},
		{"split centre", grating.Plan{Dist: grating.DistSplit, Pattern: grating.Centre,
			Start: 1000, StepsUp: 5, SizeUp: 100, Splits: 2},
			[]int{800, 1050}},
	}
	for _, tc := range tcs {
		got, err := grating.Starts(tc.plan)
		require.NoError(t, err, tc.name)
		if d := cmp.Diff(tc.want, got); d != "" {
			t.Errorf("%s (-want +got):\n%s", tc.name, d)
		}
		assert.Len(t, got, tc.plan.Units(), tc.name)
	}
}

func TestStartsRejects(t *testing.T) {
	for _, p := range []grating.Plan{
		{Dist: grating.DistUp, StepsUp: 4, SizeUp: 1, NodCycles: 0},
		{Dist: grating.DistSplit, StepsUp: 4, SizeUp: 1, Splits: 0},
		{Dist: grating.DistDown, StepsUp: 4, SizeUp: 1, NodCycles: 2},
		{Dist: grating.DistNone, StepsUp: 0},
		{Dist: grating.DistNone, StepsUp: 2, SizeUp: -1},
		{Dist: grating.Dist(9), StepsUp: 2},
	} {
		_, err := grating.Starts(p)
		assert.Error(t, err, "%+v", p)
	}
}

func TestScanSteps(t *testing.T) {
	var tcs = []struct {
		d                     grating.Dist
		up, down, nod, splits int
		wantUp, wantDown      int
	}{
		{grating.DistNone, 16, 2, 4, 1, 16, 2},
		{grating.DistUp, 16, 2, 4, 1, 4, 2},
		{grating.DistUp, 15, 0, 4, 1, 4, 0},
		{grating.DistUp, 1, 0, 4, 1, 1, 0},
		{grating.DistUp, 16, 0, 1, 1, 16, 0},
		{grating.DistDown, 3, 16, 4, 1, 3, 4},
		{grating.DistSplit, 16, 0, 4, 2, 8, 0},
	}
	for _, tc := range tcs {
		u, d := grating.ScanSteps(tc.d, tc.up, tc.down, tc.nod, tc.splits)
		assert.Equal(t, tc.wantUp, u, "%+v", tc)
		assert.Equal(t, tc.wantDown, d, "%+v", tc)
	}
}

func TestParseNames(t *testing.T) {
	for _, s := range []string{"None", "Up", "Down", "Split"} {
		d, err := grating.ParseDist(s)
		require.NoError(t, err)
		assert.Equal(t, s, d.String())
	}
	_, err := grating.ParseDist("Sideways")
	assert.Error(t, err)

	p, err := grating.ParsePattern("Center")
	require.NoError(t, err)
	assert.Equal(t, grating.Centre, p)
	p, err = grating.ParsePattern("Inward dither")
	require.NoError(t, err)
	assert.Equal(t, grating.InwardDither, p)
	_, err = grating.ParsePattern("Zigzag")
	assert.Error(t, err)
}

func ExampleScanSteps() {
	// 8 up steps shared over 3 nod cycles; down is not the active direction
	up, down := grating.ScanSteps(grating.DistUp, 8, 2, 3, 1)
	fmt.Println(up, down)
	// Output: 3 2
}
