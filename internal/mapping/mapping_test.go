// Public domain.

package mapping_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/obsmaker/internal/mapping"
)

type o = mapping.Offset

func TestCrossCounts(t *testing.T) {
	for _, tc := range []struct {
		n  int
		ok bool
	}{
		{1, true}, {3, false}, {4, false}, {5, true}, {7, false},
		{8, false}, {9, true}, {13, true}, {0, false},
	} {
		ps, err := mapping.Generate(mapping.Request{
			Pattern: mapping.Cross, NumPoints: tc.n, StepSize: 10, Reduction: 1})
		if tc.ok {
			require.NoError(t, err, tc.n)
			assert.Equal(t, tc.n, ps.Len())
		} else {
			assert.True(t, errors.Is(err, mapping.ErrPointCount), "%d: %v", tc.n, err)
		}
	}
}

func TestCrossOrder(t *testing.T) {
	ps, err := mapping.Generate(mapping.Request{
		Pattern: mapping.Cross, NumPoints: 9, StepSize: 10,
		Center: o{1, 2}, Reduction: 1})
	require.NoError(t, err)
	want := []o{
		{1, 2},
		{11, 2}, {1, 12}, {-9, 2}, {1, -8},
		{21, 2}, {1, 22}, {-19, 2}, {1, -18},
	}
	if d := cmp.Diff(want, ps.Map); d != "" {
		t.Fatalf("(-want +got):\n%s", d)
	}
}

func TestSpiral(t *testing.T) {
	ps, err := mapping.Generate(mapping.Request{
		Pattern: mapping.Spiral, NumPoints: 9, StepSize: 1, Reduction: 1})
	require.NoError(t, err)
	want := []o{
		{0, 0},
		{0, 1}, {1, 1},
		{1, 0}, {1, -1}, {0, -1}, {-1, -1},
		{-1, 0}, {-1, 1},
	}
	if d := cmp.Diff(want, ps.Map); d != "" {
		t.Fatalf("(-want +got):\n%s", d)
	}

	in, err := mapping.Generate(mapping.Request{
		Pattern: mapping.InwardSpiral, NumPoints: 9, StepSize: 1, Reduction: 1})
	require.NoError(t, err)
	for i := range want {
		assert.Equal(t, want[len(want)-1-i], in.Map[i])
	}
}

func TestSpiralCoversSquare(t *testing.T) {
	ps, err := mapping.Generate(mapping.Request{
		Pattern: mapping.Spiral, NumPoints: 25, StepSize: 1, Reduction: 1})
	require.NoError(t, err)
	seen := map[o]bool{}
	for _, p := range ps.Map {
		assert.LessOrEqual(t, p.Lambda, 2.)
		assert.GreaterOrEqual(t, p.Lambda, -2.)
		assert.LessOrEqual(t, p.Beta, 2.)
		assert.GreaterOrEqual(t, p.Beta, -2.)
		seen[p] = true
	}
	assert.Len(t, seen, 25)
}

func TestSpiralCounts(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 10} {
		_, err := mapping.Generate(mapping.Request{
			Pattern: mapping.Spiral, NumPoints: n, StepSize: 1, Reduction: 1})
		assert.True(t, errors.Is(err, mapping.ErrPointCount), "%d", n)
	}
	ps, err := mapping.Generate(mapping.Request{
		Pattern: mapping.Spiral, NumPoints: 1, StepSize: 1, Reduction: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, ps.Len())
}

func TestStareAndNod(t *testing.T) {
	ps, err := mapping.Generate(mapping.Request{
		Pattern: mapping.Stare, NumPoints: 3, Center: o{10, -20},
		Reduction: 2, Fixed: o{100, 0}})
	require.NoError(t, err)
	assert.Equal(t, []o{{10, -20}, {10, -20}, {10, -20}}, ps.Map)
	assert.Equal(t, []o{{105, -10}, {105, -10}, {105, -10}}, ps.Nod)
	assert.False(t, ps.Tracked())

	ps, err = mapping.Generate(mapping.Request{Pattern: mapping.Stare,
		Reduction: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, ps.Len())

	_, err = mapping.Generate(mapping.Request{Pattern: mapping.Stare,
		NumPoints: 1})
	assert.Error(t, err)
	_, err = mapping.Generate(mapping.Request{Pattern: mapping.File,
		Reduction: 1})
	assert.Error(t, err)
}

const target = "9 55 52.43 +69 40 46.9"

func TestParseFile(t *testing.T) {
	src := "9 55 52.43  +69 40 46.9\n  10.0  -5.0\n\n -10.0   5.0\n"
	ps, err := mapping.ParseFile(strings.NewReader(src), mapping.FileRequest{
		Target: target, Center: o{1, 1}, Reduction: 1})
	require.NoError(t, err)
	assert.Equal(t, []o{{11, -4}, {-9, 6}}, ps.Map)
	assert.Equal(t, ps.Map, ps.Nod)
	assert.False(t, ps.Tracked())
}

func TestParseFileTracked(t *testing.T) {
	src := target + "\n10 0 2.5 E\n0 10 2.5 N\n"
	ps, err := mapping.ParseFile(strings.NewReader(src), mapping.FileRequest{
		Target: target, Reduction: 1, DetAngle: unit.AngleFromDeg(90)})
	require.NoError(t, err)
	require.True(t, ps.Tracked())
	approx := cmpopts.EquateApprox(0, 1e-9)
	if d := cmp.Diff([]o{{0, 10}, {-10, 0}}, ps.Map, approx); d != "" {
		t.Errorf("map (-want +got):\n%s", d)
	}
	assert.Equal(t, []float64{2.5, 2.5}, ps.Speed)
	assert.Equal(t, []float64{90, 0}, ps.DetAngle)
	if d := cmp.Diff([]float64{0, -90}, ps.VelAngle, approx); d != "" {
		t.Errorf("velocity angle (-want +got):\n%s", d)
	}
}

func TestParseFileErrors(t *testing.T) {
	req := mapping.FileRequest{Target: target, Reduction: 1}
	for _, tc := range []struct {
		src string
		is  error
	}{
		{"", nil},
		{"9 55 52.43 +69 40\n1 2\n", nil},
		{"9 55 52.44 +69 40 46.9\n1 2\n", mapping.ErrTargetMismatch},
		{target + "\n", mapping.ErrPointCount},
		{target + "\n1 x\n", nil},
		{target + "\n1 2 3\n", nil},
		{target + "\n1 2\n1 2 3 N\n", nil},
		{target + "\n1 2 3 Q\n", nil},
	} {
		_, err := mapping.ParseFile(strings.NewReader(tc.src), req)
		require.Error(t, err, tc.src)
		if tc.is != nil {
			assert.True(t, errors.Is(err, tc.is), "%q: %v", tc.src, err)
		}
	}
}

func TestParsePattern(t *testing.T) {
	for i, n := range mapping.PatternNames() {
		p, err := mapping.ParsePattern(n)
		require.NoError(t, err)
		assert.Equal(t, mapping.Pattern(i), p)
		assert.Equal(t, n, p.String())
	}
	_, err := mapping.ParsePattern("Raster")
	assert.Error(t, err)
}
