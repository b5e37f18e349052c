// Public domain.

// Package omprog is the body of command obsmaker.
package omprog

import (
	"errors"
	"flag"
	"fmt"
	gobuild "go/build"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/soniakeys/exit"
	"github.com/soniakeys/sexagesimal"

	"github.com/soniakeys/obsmaker/internal/build"
	"github.com/soniakeys/obsmaker/internal/calib"
	"github.com/soniakeys/obsmaker/internal/config"
	"github.com/soniakeys/obsmaker/internal/fsutil"
	"github.com/soniakeys/obsmaker/internal/mapping"
	"github.com/soniakeys/obsmaker/internal/obs"
	"github.com/soniakeys/obsmaker/internal/sct"
)

const parentImport = "github.com/soniakeys/obsmaker"
const versionString = "obsmaker version 1.0 Go source."
const copyrightString = "Public domain."

func Main() {
	defer exit.Handler()

	cl := parseCommandLine()
	if cl.v {
		return
	}
	inst := readConfig(cl)
	table := readCalib(cl)
	t, o := readTemplate(cl.fnTemplate)
	if cl.q {
		build.SetLogger(nil)
	}

	c, names, err := build.Run(o, table, inst, cl.date, fsutil.OS{}, cl.out)
	if err != nil {
		exit.Log(err)
	}
	report(c, len(names))
	if len(names) > 0 {
		fmt.Println("Scan files in", filepath.Dir(names[0]))
	}
	if cl.w {
		if err := c.Annotate(t); err != nil {
			exit.Log(err)
		}
		if err := t.WriteFile(cl.fnTemplate); err != nil {
			exit.Log(err)
		}
		fmt.Println("Derived values written to", cl.fnTemplate)
	}
}

type commandLine struct {
	dc         string // config file
	dk         string // calibration file
	dp         string // default path
	out        string // output directory
	date       int    // observation date, YYYYMMDD
	w          bool   // write back derived values
	q          bool   // no per scan lines
	v          bool   // -v option
	fnTemplate string
}

func parseCommandLine() *commandLine {
	// Module source directory, when it can be found, is the default
	// location of the config and calibration files.
	pp, ppErr := gobuild.Import(parentImport, "", gobuild.FindOnly)
	var cl commandLine
	if ppErr == nil {
		cl.dp = pp.Dir
	}
	dh := flag.Bool("h", false, "")
	dv := flag.Bool("v", false, "")
	dd := flag.String("d", "", "")
	flag.StringVar(&cl.dc, "c", "", "")
	flag.StringVar(&cl.dk, "k", "", "")
	flag.StringVar(&cl.dp, "p", cl.dp, "")
	flag.StringVar(&cl.out, "o", ".", "")
	flag.BoolVar(&cl.w, "w", false, "")
	flag.BoolVar(&cl.q, "q", false, "")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: obsmaker [options] <template>  build scan files for a scan template
       obsmaker -h                    display help and quick reference
       obsmaker -v                    display version and copyright

Options:
       -c <config-file>
       -k <calibration-file>
       -p <path>
       -o <output-directory>
       -d <observation date, YYYYMMDD>
       -w    write derived values back to the template
       -q    quiet, no per scan lines
`)
		if ppErr == nil {
			os.Stderr.WriteString(`
Default:
       -p=` + pp.Dir + "\n")
		}
	}
	flag.Parse()
	switch {
	case *dh:
		printHelp()
		os.Exit(0)
	case *dv:
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		cl.v = true
		return &cl
	case flag.NArg() != 1:
		flag.Usage()
		os.Exit(1)
	}
	cl.fnTemplate = flag.Arg(0)
	cl.date = parseDate(*dd)
	return &cl
}

// parseDate parses a YYYYMMDD date.  Empty means today, UTC.
func parseDate(s string) int {
	if s == "" {
		d, _ := strconv.Atoi(time.Now().UTC().Format("20060102"))
		return d
	}
	if _, err := time.Parse("20060102", s); err != nil {
		exit.Log(fmt.Sprintf("invalid date %q, want YYYYMMDD", s))
	}
	d, _ := strconv.Atoi(s)
	return d
}

func (cl *commandLine) fixupCP(fnSpec, fnDefault string) string {
	if fnSpec > "" {
		return fnSpec
	}
	return filepath.Join(cl.dp, fnDefault)
}

// readConfig loads instrument constants.  A missing default config file
// means built-in defaults.
func readConfig(cl *commandLine) *config.Instrument {
	inst, err := config.Load(cl.fixupCP(cl.dc, config.Fn))
	switch {
	case err == nil:
		return inst
	case cl.dc == "" && errors.Is(err, fs.ErrNotExist):
		return config.Default()
	}
	exit.Log(err)
	return nil
}

func readCalib(cl *commandLine) *calib.Table {
	t, err := calib.ReadFile(cl.fixupCP(cl.dk, calib.Fn))
	if err != nil {
		log.Println(err)
		exit.Log("A wavelength calibration table is required, see -k and -p.")
	}
	return t
}

// readTemplate reads a template and its observation.
func readTemplate(fn string) (*sct.Template, *obs.Observation) {
	t, o, err := obs.ReadTemplate(fn)
	if err != nil {
		exit.Log(err)
	}
	return t, o
}

func report(c *build.Context, files int) {
	o := &c.Obs
	tm := &c.Timing
	fmt.Printf("%s  %s  RA %2v  Dec %2v\n", o.ObsID, o.TargetName,
		sexa.FmtRA(o.RA), sexa.FmtAngle(o.Dec))
	fmt.Printf("%v nod, %d cycles, %v map of %d points\n",
		o.NodPattern, o.NodCycles, o.MapPattern, c.Points.Len())
	for _, g := range []struct {
		name string
		g    *build.Grating
	}{{"Red ", &c.Red}, {"Blue", &c.Blue}} {
		fmt.Printf("%s %s (%d)  %9.4f um  start %v\n", g.name,
			g.g.Channel, g.g.Epoch, g.g.Wave, g.g.Starts)
	}
	fmt.Printf("Raw %.1f s, on source %.1f s, total %.1f s with %d moves\n",
		tm.RawTime, tm.OnSource, tm.TotalTime, tm.Moves)
	fmt.Println(files, "scan files written, build", c.BuildID)
}

func printHelp() {
	fmt.Println(`
Obsmaker compiles a scan template, a description of one spectrometer
observation, into the ordered scan files that command the instrument.

Files:
   ` + config.Fn + `                 instrument constants, optional
   ` + calib.Fn + `   wavelength calibration, required

Nod patterns:
   ABBA AB A ABA AABAA

Map patterns:`)
	for _, p := range mapping.PatternNames() {
		fmt.Println("   " + p)
	}
	fmt.Println(`
For full documentation:
   go doc ` + parentImport)
}
