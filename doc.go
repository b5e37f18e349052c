/*
Command obsmaker compiles spectrometer observation requests into scan files.

Contents

  Program overview
  Command line usage
  Configuring file locations
  File formats
  Algorithm outline


Program overview

Input is a scan template, a file of keyword values describing one
observation of the airborne far infrared imaging spectrometer: target,
spectral lines for the red and blue arrays, grating scan, chopper, nod
and map patterns.  Output is a directory of scan files, one for every on
source (A) and off source (B) telescope visit, in the order they are to be
executed.  Each scan file holds absolute grating encoder positions, ramp
and chop timing, detector settings and sky offsets, all checked against
the hardware limits.

Sample run:

  obsmaker -d 20200315 -o scans M82_CII.sct

  M82_CII  M82  RA  9ʰ55ᵐ52ˢ.43  Dec 69°40′46″.9
  AB nod, 3 cycles, Stare map of 2 points
  Red  R105 (20190301)   158.0161 um  start [1203344 1206621 1209898]
  Blue B1 (20190301)    63.2148 um  start [1158102 1161077 1164052]
  Raw 92.2 s, on source 46.1 s, total 212.2 s with 12 moves
  12 scan files written, build 6a1f...
  Scan files in scans/M82_CII

Nothing is written unless every scan validates.  A validation failure
lists every problem found with the first bad scan.  An existing output
directory for the observation is replaced.


Command line usage

  obsmaker [options] <template>
  obsmaker -h     help and quick reference
  obsmaker -v     version

Options:

  -c <config-file>        instrument constants
  -k <calibration-file>   wavelength calibration table
  -p <path>               default directory of the two files above
  -o <output-directory>   scan files go to <output-directory>/<OBSID>
  -d <YYYYMMDD>           observation date, default today UTC
  -w                      write derived values back to the template
  -q                      no per scan progress lines

With -w, computed values such as grating positions, step sizes in encoder
units and time estimates are added to the template tagged "derived".
Derived values are informational and are ignored when the template is
read again.

Related commands, each with its own documentation:

  chopcalc   chop cycles and nod cycles for a requested on source time
  mapplot    PNG preview of a template's map pattern


Configuring file locations

Two files are read besides the template.  The calibration table,
FIFI_LS_WaveCal_Coeffs.txt, is required.  The instrument configuration,
obsmaker.toml, is optional; built-in values are used when it is absent.

Each is located as follows.  If the -c or -k option names the file, that
file must exist.  Otherwise the file is taken from the path given by -p,
which defaults to the obsmaker source directory when one can be found,
and the current directory otherwise.


File formats

Scan templates and scan files are lines of

  KEY              value                    # comment

with the key in a fixed width column.  Templates in the older layout,
lines of value then #KEY, are also read.  Key names are
accepted in long form (RED_RAMPLEN) or in the short form used in scan
files (RAMPLN_R).  Choice values (NODPATTERN, SCANDIST, PATTERN, ...) are
matched without regard to case.  In OBSID, which names the output
directory, the characters / \ : * and space become _.  An array given no
line offset takes cz km/s from REDSHIFT z.

The configuration file is TOML.  Any subset of keys may be given:

  sample_rate    = 250       # Hz
  move_overhead  = 10        # s per telescope move
  nod_interval   = 30        # s, target AB interval for chopcalc
  min_sweep      = 15        # s
  grating_min    = 0
  grating_max    = 3000000
  ramp_max       = 4096
  zero_bias_red  = [0.0, 150.0]
  zero_bias_blue = [0.0, 150.0]
  bias_r_red     = [0.0, 150.0]
  bias_r_blue    = [0.0, 150.0]
  capacitors     = [1330, 2600, 10000, 14000]
  chop_amp_max   = 300       # arcsec
  chop_phase_max = 1000      # samples
  chop_schemes   = ["2POINT", "4POINT"]

The calibration table has one row per channel (R105, R130, B1, B2) and
calibration date:

  Date ch g0 NP a PS QOFF QS I1 ... I25

Text following # is ignored.  The row used is the latest one dated
strictly before the observation date.

A map file, named by MAPLISTPATH for the File map pattern, starts with the
target as "HH MM SS.SS +DD MM SS.S", which must match the template target.
Each following line is an offset λ β in arc seconds.  Lines may add a scan
speed and a direction, degrees or a compass point, for tracked power
observations.


Algorithm outline

1.  The grating equation gives wavelength as a function of encoder
position for each of 25 spatial modules and 16 spectral pixels.  The mean
over modules and pixels, sampled every 10000 units, is inverted by linear
interpolation to find the encoder position of a wavelength.

2.  Step sizes, given in pixels, are converted to encoder units with the
dispersion at the start position.  With scan distribution Up or Down the
grating range is shared over nod cycles; with Split it is shared over
splits.  Start positions follow the Start, Centre, Dither or Inward dither
pattern.

3.  Map positions come from a map file or from the Stare, N-point cross or
square spiral generator.  Off positions are matched to the chopper, fixed,
or placed relative to the target or to the active map position.

4.  The nod pattern orders the visits.  A, AB and ABBA repeat for each map
position.  The bright object patterns ABA and AABAA visit runs of map
positions with one off position visit in the middle of each run.

5.  Each scan is validated: ranges first, then ramp and chop divisibility,
grating excursion and equal frame counts for the red and blue arrays.

-------------
Public domain.
*/
package main
