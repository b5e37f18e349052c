// Public domain.

package build

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/soniakeys/obsmaker/internal/calib"
	"github.com/soniakeys/obsmaker/internal/config"
	"github.com/soniakeys/obsmaker/internal/fsutil"
	"github.com/soniakeys/obsmaker/internal/obs"
	"github.com/soniakeys/obsmaker/internal/scan"
	"github.com/soniakeys/obsmaker/internal/sct"
	"github.com/soniakeys/obsmaker/internal/timing"
)

// Write writes records to dir/<ObsID>, one file each, numbered from 1.
// Whatever the directory held before is removed.  If a write fails the
// directory is removed.  Write returns the file names written.
//
// The observation ID must name a directory directly below dir; nothing is
// removed otherwise.
func Write(fs fsutil.FileSystem, dir string, recs []*scan.Record) (names []string, err error) {
	if len(recs) == 0 {
		return nil, nil
	}
	id := recs[0].ObsID
	if err := obs.CheckID(id); err != nil {
		return nil, err
	}
	out := filepath.Join(dir, id)
	if rel, err := filepath.Rel(dir, out); err != nil || rel != id {
		return nil, fmt.Errorf("%w: %q is not below %s", obs.ErrBadObsID, id, dir)
	}
	for _, r := range recs[1:] {
		if r.ObsID != id {
			return nil, fmt.Errorf("mixed observation IDs %q and %q", id, r.ObsID)
		}
	}
	if err := fs.RemoveAll(out); err != nil {
		return nil, err
	}
	if err := fs.MkdirAll(out, 0o755); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			fs.RemoveAll(out)
			names = nil
		}
	}()
	for i, r := range recs {
		fn := filepath.Join(out, r.FileName(i+1))
		if err = writeRecord(fs, fn, r); err != nil {
			return nil, err
		}
		names = append(names, fn)
	}
	return names, nil
}

func writeRecord(fs fsutil.FileSystem, fn string, r *scan.Record) error {
	f, err := fs.Create(fn)
	if err != nil {
		return err
	}
	if _, err = r.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", fn, err)
	}
	return f.Close()
}

// Run prepares, plans and writes a build.  Nothing is written unless every
// record validates.
func Run(o *obs.Observation, t *calib.Table, in *config.Instrument, date int,
	fs fsutil.FileSystem, dir string) (*Context, []string, error) {
	c := New(o, t, in, date)
	if err := c.Prepare(); err != nil {
		return c, nil, err
	}
	recs, err := c.Plan()
	if err != nil {
		return c, nil, err
	}
	names, err := Write(fs, dir, recs)
	return c, names, err
}

// Annotate records derived values in t as sct.Derived entries.  They are
// informational; FromTemplate ignores them.
func (c *Context) Annotate(t *sct.Template) error {
	if !c.prepared {
		return errNotPrepared
	}
	f := func(x float64, prec int) string {
		return strconv.FormatFloat(x, 'f', prec, 64)
	}
	tm := &c.Timing
	t.SetDerived("BUILDID", c.BuildID, "")
	t.SetDerived("NUM_MAPPOINTS", strconv.Itoa(c.Points.Len()), "")
	t.SetDerived("TIME_RAW", f(tm.RawTime, 1), "s")
	t.SetDerived("TIME_ONSOURCE", f(tm.OnSource, 1), "s")
	t.SetDerived("TIME_TOTAL", f(tm.TotalTime, 1), "s")
	t.SetDerived("NOD_MULTIPLIER", strconv.Itoa(tm.Multiplier), "")
	t.SetDerived("TELESCOPE_MOVES", strconv.Itoa(tm.Moves), "")
	for _, a := range []struct {
		prefix string
		g      *Grating
		ct     *timing.ChannelTiming
	}{
		{"RED_", &c.Red, &tm.Red},
		{"BLUE_", &c.Blue, &tm.Blue},
	} {
		g := a.g
		t.SetDerived(a.prefix+"CALCHANNEL", g.Channel, "epoch "+strconv.Itoa(g.Epoch))
		t.SetDerived(a.prefix+"WAVE_OBS", f(g.Wave, 4), "um")
		t.SetDerived(a.prefix+"GRATING_POS", f(g.Position, 0), "units")
		t.SetDerived(a.prefix+"STEPSIZE_UP", strconv.Itoa(g.SizeUp), "units")
		t.SetDerived(a.prefix+"STEPSIZE_DOWN", strconv.Itoa(g.SizeDown), "units")
		t.SetDerived(a.prefix+"RAMP_MS", f(a.ct.RampMs, 1), "ms")
		t.SetDerived(a.prefix+"SCAN_MS", f(a.ct.ScanTime, 0), "ms")
	}
	return nil
}
