// Public domain.

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/soniakeys/exit"

	"github.com/soniakeys/obsmaker/internal/config"
	"github.com/soniakeys/obsmaker/internal/timing"
)

func main() {
	defer exit.Handler()

	fc := flag.String("c", "", "config file")
	chopLen := flag.Int("l", 64, "chop length, samples")
	points := flag.Int("m", 1, "map positions")
	total := flag.Bool("t", false, "total power")
	bright := flag.Int("b", 0, "bright object nod cycles")
	flag.Usage = func() {
		os.Stderr.WriteString(`Usage:
  chopcalc [options] <on source seconds> <grating positions>

Options:
  -c <config-file>
  -l <chop length>     (default 64)
  -m <map positions>   (default 1)
  -t                   total power
  -b <nod cycles>      bright object pattern

For full documentation:
   go doc github.com/soniakeys/obsmaker/chopcalc
`)
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	onSource, err := strconv.ParseFloat(flag.Arg(0), 64)
	if err != nil {
		exit.Log(err)
	}
	gp, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		exit.Log(err)
	}
	inst := config.Default()
	if *fc > "" {
		if inst, err = config.Load(*fc); err != nil {
			exit.Log(err)
		}
	}
	eff := .5
	if *total {
		eff = 1
	}
	p, err := timing.PlanChop(timing.ChopRequest{
		SampleRate:    inst.SampleRate,
		ChopLen:       *chopLen,
		OnSource:      onSource,
		GratPositions: gp,
		NumPoints:     *points,
		ChopEff:       eff,
		Bright:        *bright > 0,
		NodCycles:     *bright,
		Interval:      inst.NodInterval,
		MinSweep:      inst.MinSweep,
		MoveOverhead:  inst.MoveOverhead,
	})
	if err != nil {
		exit.Log(err)
	}
	line := func(k string, v any) { fmt.Printf("%-28s %v\n", k+":", v) }
	line("Chop cycles", p.ChopCycles)
	line("Chop cycles per grating pos", p.CCPerGratPos)
	line("Grating sweep", fmt.Sprintf("%.2f s", p.Sweep))
	line("Nod cycles", p.NodCycles)
	line("Grating positions per nod", p.GratPosPerNod)
	line("Grating cycle per nod", fmt.Sprintf("%.2f s", p.GratCyclePerNod))
	line("Complete map", fmt.Sprintf("%.1f min", p.CompleteMap))
}
