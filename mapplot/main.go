// Public domain.

package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/soniakeys/exit"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/soniakeys/obsmaker/internal/build"
	"github.com/soniakeys/obsmaker/internal/mapping"
	"github.com/soniakeys/obsmaker/internal/obs"
)

func main() {
	defer exit.Handler()

	out := flag.String("o", "", "output file")
	flag.Usage = func() {
		os.Stderr.WriteString(`Usage:
  mapplot [-o <png-file>] <template>

For full documentation:
   go doc github.com/soniakeys/obsmaker/mapplot
`)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	fn := flag.Arg(0)
	_, o, err := obs.ReadTemplate(fn)
	if err != nil {
		exit.Log(err)
	}
	ps, err := build.Points(o)
	if err != nil {
		exit.Log(err)
	}
	if *out == "" {
		*out = strings.TrimSuffix(fn, filepath.Ext(fn)) + ".png"
	}
	title := fmt.Sprintf("%s  %v, %d points", o.ObsID, o.MapPattern, ps.Len())
	if err := plotMap(ps, o.OffPos == obs.Matched, title, *out); err != nil {
		exit.Log(err)
	}
	fmt.Println(*out)
}

func xys(offs []mapping.Offset) plotter.XYs {
	pts := make(plotter.XYs, len(offs))
	for i, o := range offs {
		pts[i] = plotter.XY{X: o.Lambda, Y: o.Beta}
	}
	return pts
}

// plotMap saves a PNG of the map path and, unless matched, the off
// positions.
func plotMap(ps mapping.PointSet, matched bool, title, fn string) error {
	if ps.Len() == 0 {
		return errors.New("no map points")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Δλ (arcsec)"
	p.Y.Label.Text = "Δβ (arcsec)"
	p.Add(plotter.NewGrid())

	path, err := plotter.NewLine(xys(ps.Map))
	if err != nil {
		return err
	}
	path.Width = vg.Points(1)
	path.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	on, err := plotter.NewScatter(xys(ps.Map))
	if err != nil {
		return err
	}
	on.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
	p.Add(path, on)
	p.Legend.Add("map", on)

	if !matched {
		off, err := plotter.NewScatter(xys(ps.Nod))
		if err != nil {
			return err
		}
		off.GlyphStyle.Color = color.RGBA{B: 200, A: 255}
		p.Add(off)
		p.Legend.Add("off", off)
	}
	p.Legend.Top = true
	return p.Save(6*vg.Inch, 6*vg.Inch, fn)
}
