// Public domain.

package timing_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/obsmaker/internal/grating"
	"github.com/soniakeys/obsmaker/internal/obs"
	"github.com/soniakeys/obsmaker/internal/timing"
)

func inputs() timing.Inputs {
	ch := timing.Channel{RampLen: 32, ChopCycles: 5, StepsUp: 8, GratCycles: 1}
	in := timing.Inputs{
		SampleRate:   250,
		MoveOverhead: 10,
		ChopLen:      64,
		ChopAmp:      60,
		Symmetric:    true,
		NodPattern:   obs.AB,
		NodCycles:    2,
		Dist:         grating.DistUp,
		NumPoints:    2,
		Red:          ch,
		Blue:         ch,
	}
	in.Blue.RampLen = 64
	return in
}

func TestComputeAB(t *testing.T) {
	r, err := timing.Compute(inputs())
	require.NoError(t, err)
	assert.Equal(t, 128., r.Red.RampMs)
	assert.Equal(t, 256., r.Blue.RampMs)
	assert.Equal(t, 640, r.Red.GratPosTime)
	// 8 steps up shared over 2 nod cycles
	assert.Equal(t, 2560, r.Red.CycleTime)
	assert.InDelta(t, 10240, r.Red.ScanTime, 1e-9)
	assert.InDelta(t, 5.117, r.Red.OnSourceScan, 1e-9)
	assert.Equal(t, 0.5, r.ChopEff)
	assert.Equal(t, 4, r.Multiplier)
	assert.InDelta(t, 81.92, r.RawTime, 1e-9)
	assert.InDelta(t, 40.936, r.OnSource, 1e-9)
	assert.Equal(t, 8, r.Moves)
	assert.InDelta(t, 161.92, r.TotalTime, 1e-9)

	in := inputs()
	in.Symmetric = false
	r, err = timing.Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 20.468, r.OnSource, 1e-9)
}

func TestComputeBright(t *testing.T) {
	in := inputs()
	in.NodPattern = obs.ABA
	in.Dist = grating.DistNone
	in.NumPoints = 5
	r, err := timing.Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 5120, r.Red.CycleTime)
	assert.Equal(t, 3, r.Multiplier)
	assert.InDelta(t, 163.84, r.RawTime, 1e-9)
	assert.InDelta(t, 51.165, r.OnSource, 1e-9)
	assert.Equal(t, 11, r.Moves)
	assert.InDelta(t, 273.84, r.TotalTime, 1e-9)
}

func TestComputeMultiplier(t *testing.T) {
	in := inputs()
	in.NodPattern = obs.A
	in.NodCycles = 3
	in.ChopAmp = 0
	r, err := timing.Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 1., r.ChopEff)
	assert.Equal(t, 3, r.Multiplier)
	assert.Equal(t, 2, r.Moves)

	in.NodPattern = obs.ABBA
	in.NodCycles = 0
	r, err = timing.Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Multiplier)
	// no override without two nod cycles
	assert.Equal(t, 8*640, r.Red.CycleTime)
}

func TestComputeDownSingleStep(t *testing.T) {
	in := inputs()
	in.Dist = grating.DistDown
	in.NodCycles = 4
	in.Red.StepsUp, in.Red.StepsDown = 3, 1
	r, err := timing.Compute(in)
	require.NoError(t, err)
	// one step down is not divided
	assert.Equal(t, 4*640, r.Red.CycleTime)

	in.Red.StepsDown = 6
	r, err = timing.Compute(in)
	require.NoError(t, err)
	assert.Equal(t, (3+2)*640, r.Red.CycleTime)
}

func TestSettleEmptyDirection(t *testing.T) {
	in := inputs()
	r, err := timing.Compute(in)
	require.NoError(t, err)
	// 4 steps up settle 3 times, no steps down settle none
	assert.InDelta(t, 2560./250*0.5-3*0.25/250, r.Red.OnSourceScan, 1e-12)

	in.Red.StepsDown = 2
	r, err = timing.Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 3840./250*0.5-(3+1)*0.25/250, r.Red.OnSourceScan, 1e-12)
}

func TestComputeRejects(t *testing.T) {
	for _, f := range []func(*timing.Inputs){
		func(in *timing.Inputs) { in.SampleRate = 0 },
		func(in *timing.Inputs) { in.ChopLen = 0 },
		func(in *timing.Inputs) { in.NumPoints = 0 },
		func(in *timing.Inputs) { in.NodCycles = -1 },
	} {
		in := inputs()
		f(&in)
		_, err := timing.Compute(in)
		assert.Error(t, err)
	}
}

func chopRequest() timing.ChopRequest {
	return timing.ChopRequest{
		SampleRate:    250,
		ChopLen:       64,
		OnSource:      120,
		GratPositions: 16,
		NumPoints:     1,
		ChopEff:       0.5,
		Interval:      30,
		MinSweep:      15,
		MoveOverhead:  10,
	}
}

func TestPlanChop(t *testing.T) {
	p, err := timing.PlanChop(chopRequest())
	require.NoError(t, err)
	assert.Equal(t, 469, p.ChopCycles)
	assert.Equal(t, 30, p.CCPerGratPos)
	assert.InDelta(t, 245.76, p.Sweep, 1e-9)
	// ceil(2*245.76/30) = 17, nearest even 16, halved
	assert.Equal(t, 8, p.NodCycles)
	assert.Equal(t, 2, p.GratPosPerNod)
	assert.InDelta(t, 30.72, p.GratCyclePerNod, 1e-9)
	assert.InDelta(t, 651.52/60, p.CompleteMap, 1e-9)
}

func TestPlanChopBright(t *testing.T) {
	req := chopRequest()
	req.Bright = true
	req.NodCycles = 2
	req.NumPoints = 3
	p, err := timing.PlanChop(req)
	require.NoError(t, err)
	assert.Equal(t, 2, p.NodCycles)
	assert.Equal(t, 8, p.GratPosPerNod)
	// 3 on, 2 off, 7 moves
	assert.InDelta(t, (5*245.76+7*10)/60, p.CompleteMap, 1e-9)

	req.NodCycles = 0
	_, err = timing.PlanChop(req)
	assert.Error(t, err)
}

func TestPlanChopMinSweep(t *testing.T) {
	req := chopRequest()
	req.OnSource = 5
	req.GratPositions = 4
	_, err := timing.PlanChop(req)
	var mse *timing.MinSweepError
	require.True(t, errors.As(err, &mse), "%v", err)
	assert.InDelta(t, 10.24, mse.Sweep, 1e-9)
	assert.InDelta(t, 8.192, mse.Min, 1e-9)

	req.OnSource = mse.Min
	p, err := timing.PlanChop(req)
	require.NoError(t, err)
	assert.Greater(t, p.Sweep, req.MinSweep)
}
