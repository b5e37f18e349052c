// Public domain.

/*
Command chopcalc plans chop cycles for a requested on source time.

Given the on source time wanted at each map position and the number of
grating positions, chopcalc finds the chop cycles per grating position and,
unless a bright object nod pattern is selected, the number of nod cycles
that brings one AB nod interval close to the configured target interval.
It also estimates the time to complete the map.

A grating sweep too short for the instrument is an error; the message
gives the smallest on source time that would be accepted.

Usage

  chopcalc [options] <on source seconds> <grating positions>

Options

  -c <config-file>   instrument constants, as for obsmaker
  -l <samples>       chop length, samples per chop position (default 64)
  -m <points>        map positions (default 1)
  -t                 total power, no chopping
  -b <nod cycles>    bright object pattern with the given nod cycles

Output is one line per derived value.
*/
package main
