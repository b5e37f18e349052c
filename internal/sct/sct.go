// Public domain.

// Package sct reads and writes the keyword text format shared by scan
// templates (.sct) and scan records (.scn).
//
// The standard layout is one keyword per line,
//
//	KEY             value                    # comment
//
// with a fixed width key column.  Values may contain spaces.  The layout
// written by the AOR translator of the earlier observation tool,
//
//	value                    #KEY
//
// is also read.  A file is taken to be in that layout when every
// non-blank line ends in # followed by a single keyword.
package sct

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Kind tags how a value came to be in a template.
type Kind int

const (
	Text    Kind = iota // free text as entered
	Choice              // one of a fixed set of options
	Derived             // computed by a build, not an input
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Choice:
		return "choice"
	case Derived:
		return "derived"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a tagged parameter value.
type Value struct {
	Kind    Kind
	Raw     string
	Comment string
}

// KeyWidth is the width of the key column written by Write.
const KeyWidth = 16

// value column width when a comment follows
const valWidth = 24

const derivedTag = "derived"

// Template is an ordered set of keyword values.
type Template struct {
	Legacy bool // read from the value #KEY layout

	keys []string
	vals map[string]Value
}

// New returns an empty template.
func New() *Template {
	return &Template{vals: map[string]Value{}}
}

// Keys returns keys in file order.
func (t *Template) Keys() []string {
	return append([]string{}, t.keys...)
}

// Len is the number of keys.
func (t *Template) Len() int { return len(t.keys) }

// Get returns the value for key.
func (t *Template) Get(key string) (Value, bool) {
	v, ok := t.vals[key]
	return v, ok
}

// Set adds or replaces a value.  A new key is appended.
func (t *Template) Set(key string, v Value) {
	if _, ok := t.vals[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = v
}

// SetText is Set with a Text value.
func (t *Template) SetText(key, raw, comment string) {
	t.Set(key, Value{Kind: Text, Raw: raw, Comment: comment})
}

// SetDerived is Set with a Derived value.
func (t *Template) SetDerived(key, raw, comment string) {
	t.Set(key, Value{Kind: Derived, Raw: raw, Comment: comment})
}

// Choose resolves the value of key against a set of options.  Matching
// ignores case; the stored value becomes the canonical option with kind
// Choice.
func (t *Template) Choose(key string, options []string) (string, error) {
	v, ok := t.vals[key]
	if !ok {
		return "", fmt.Errorf("%s: missing", key)
	}
	for _, o := range options {
		if strings.EqualFold(v.Raw, o) {
			v.Kind = Choice
			v.Raw = o
			t.vals[key] = v
			return o, nil
		}
	}
	return "", fmt.Errorf("%s: %q not one of %s", key, v.Raw,
		strings.Join(options, ", "))
}

// ReadFile reads a template file.
func ReadFile(fn string) (*Template, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return t, nil
}

var legacyKey = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Parse reads a template in either layout.
func Parse(r io.Reader) (*Template, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if l := strings.TrimRight(sc.Text(), " \t\r"); l != "" {
			lines = append(lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("empty template")
	}
	t := New()
	t.Legacy = isLegacy(lines)
	for i, l := range lines {
		var (
			key string
			v   Value
		)
		if t.Legacy {
			h := strings.LastIndexByte(l, '#')
			key = strings.TrimSpace(l[h+1:])
			v.Raw = strings.TrimSpace(l[:h])
		} else {
			body := l
			if h := strings.IndexByte(l, '#'); h >= 0 {
				body = l[:h]
				v.Comment = strings.TrimSpace(l[h+1:])
			}
			f := strings.Fields(body)
			if len(f) == 0 {
				continue // comment line
			}
			key = f[0]
			v.Raw = strings.TrimSpace(body[strings.Index(body, key)+len(key):])
			if c, ok := strings.CutPrefix(v.Comment, derivedTag); ok {
				v.Kind = Derived
				v.Comment = strings.TrimSpace(strings.TrimPrefix(c, ","))
			}
		}
		if _, dup := t.vals[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate key %s", i+1, key)
		}
		t.Set(key, v)
	}
	return t, nil
}

func isLegacy(lines []string) bool {
	for _, l := range lines {
		h := strings.LastIndexByte(l, '#')
		if h < 0 || !legacyKey.MatchString(strings.TrimSpace(l[h+1:])) {
			return false
		}
	}
	return true
}

// Write writes the template in the standard layout.
func (t *Template) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, k := range t.keys {
		v := t.vals[k]
		c := v.Comment
		if v.Kind == Derived {
			if c == "" {
				c = derivedTag
			} else {
				c = derivedTag + ", " + c
			}
		}
		if c == "" {
			fmt.Fprintf(bw, "%-*s %s\n", KeyWidth, k, v.Raw)
		} else {
			fmt.Fprintf(bw, "%-*s %-*s # %s\n", KeyWidth, k, valWidth, v.Raw, c)
		}
	}
	return bw.Flush()
}

// WriteFile writes the template to a file.
func (t *Template) WriteFile(fn string) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
