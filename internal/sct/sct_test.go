// Public domain.

package sct_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/obsmaker/internal/sct"
)

const modern = `# comment line
OBSID            M82_CII                  # observation id
NODPATTERN       ABBA
TARGET_LAMBDA    9 55 52.43
RED_LAMBDA       Inward dither            # grating pattern
SETPOINT
RAWINTTIME       123.4                    # derived, seconds
`

const legacy = `M82_CII                  #OBSID
ABBA                     #NODPATTERN
9 55 52.43               #TARGET_LAMBDA
Inward dither            #RED_LAMBDA
                         #SETPOINT
`

func TestParseModern(t *testing.T) {
	tp, err := sct.Parse(strings.NewReader(modern))
	require.NoError(t, err)
	assert.False(t, tp.Legacy)
	want := []string{"OBSID", "NODPATTERN", "TARGET_LAMBDA", "RED_LAMBDA",
		"SETPOINT", "RAWINTTIME"}
	if d := cmp.Diff(want, tp.Keys()); d != "" {
		t.Fatalf("keys (-want +got):\n%s", d)
	}
	v, ok := tp.Get("TARGET_LAMBDA")
	require.True(t, ok)
	assert.Equal(t, sct.Value{Kind: sct.Text, Raw: "9 55 52.43"}, v)
	v, _ = tp.Get("RED_LAMBDA")
	assert.Equal(t, "Inward dither", v.Raw)
	assert.Equal(t, "grating pattern", v.Comment)
	v, _ = tp.Get("SETPOINT")
	assert.Equal(t, "", v.Raw)
	v, _ = tp.Get("RAWINTTIME")
	assert.Equal(t, sct.Value{Kind: sct.Derived, Raw: "123.4", Comment: "seconds"}, v)
}

func TestParseLegacy(t *testing.T) {
	tp, err := sct.Parse(strings.NewReader(legacy))
	require.NoError(t, err)
	assert.True(t, tp.Legacy)
	assert.Equal(t, 5, tp.Len())
	v, _ := tp.Get("TARGET_LAMBDA")
	assert.Equal(t, "9 55 52.43", v.Raw)
	v, _ = tp.Get("RED_LAMBDA")
	assert.Equal(t, "Inward dither", v.Raw)
	v, ok := tp.Get("SETPOINT")
	assert.True(t, ok)
	assert.Equal(t, "", v.Raw)
}

func TestParseErrors(t *testing.T) {
	_, err := sct.Parse(strings.NewReader("\n  \n"))
	assert.Error(t, err)
	_, err = sct.Parse(strings.NewReader("A 1\nA 2\n"))
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	tp, err := sct.Parse(strings.NewReader(legacy))
	require.NoError(t, err)
	tp.SetDerived("ONSRCTIME", "60.0", "")
	var b bytes.Buffer
	require.NoError(t, tp.Write(&b))

	back, err := sct.Parse(&b)
	require.NoError(t, err)
	assert.False(t, back.Legacy)
	if d := cmp.Diff(tp.Keys(), back.Keys()); d != "" {
		t.Fatalf("keys (-want +got):\n%s", d)
	}
	for _, k := range tp.Keys() {
		want, _ := tp.Get(k)
		got, _ := back.Get(k)
		assert.Equal(t, want, got, k)
	}
}

func TestWriteLayout(t *testing.T) {
	tp := sct.New()
	tp.SetText("NODCYCLES", "2", "")
	tp.SetText("C_AMP", "60", "arcsec")
	var b bytes.Buffer
	require.NoError(t, tp.Write(&b))
	assert.Equal(t,
		"NODCYCLES        2\n"+
			"C_AMP            60                       # arcsec\n",
		b.String())
}

func TestChoose(t *testing.T) {
	tp := sct.New()
	tp.SetText("OBSMODE", "symmetric", "")
	got, err := tp.Choose("OBSMODE", []string{"Symmetric", "Asymmetric"})
	require.NoError(t, err)
	assert.Equal(t, "Symmetric", got)
	v, _ := tp.Get("OBSMODE")
	assert.Equal(t, sct.Choice, v.Kind)
	assert.Equal(t, "Symmetric", v.Raw)

	_, err = tp.Choose("OBSMODE", []string{"On", "Off"})
	assert.Error(t, err)
	_, err = tp.Choose("MISSING", []string{"On", "Off"})
	assert.Error(t, err)
}
