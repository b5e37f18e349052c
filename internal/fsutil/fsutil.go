// Public domain.

// Package fsutil abstracts the output file system so builds can be run
// against memory.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileSystem is what a build needs to write its output.
type FileSystem interface {
	Create(name string) (io.WriteCloser, error)
	MkdirAll(path string, perm os.FileMode) error
	RemoveAll(path string) error
	Exists(name string) bool
}

// OS is the host file system.
type OS struct{}

func (OS) Create(name string) (io.WriteCloser, error)  { return os.Create(name) }
func (OS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (OS) RemoveAll(path string) error                  { return os.RemoveAll(path) }

func (OS) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// Memory is an in-memory file system.  It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{files: map[string][]byte{}, dirs: map[string]bool{}}
}

// Create creates or truncates a file.  Content is visible after Close.
func (m *Memory) Create(name string) (io.WriteCloser, error) {
	name = filepath.Clean(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = nil
	return &memWriter{m: m, name: name}, nil
}

// MkdirAll records a directory and its parents.
func (m *Memory) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := filepath.Clean(path); p != "." && p != "/"; p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	return nil
}

// RemoveAll removes path and anything below it.
func (m *Memory) RemoveAll(path string) error {
	path = filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	below := func(n string) bool {
		return n == path || strings.HasPrefix(n, path+string(filepath.Separator))
	}
	for n := range m.files {
		if below(n) {
			delete(m.files, n)
		}
	}
	for n := range m.dirs {
		if below(n) {
			delete(m.dirs, n)
		}
	}
	return nil
}

// Exists reports if a file or directory exists.
func (m *Memory) Exists(name string) bool {
	name = filepath.Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[name]
	return ok || m.dirs[name]
}

// ReadFile returns a copy of a file's content.
func (m *Memory) ReadFile(name string) ([]byte, error) {
	name = filepath.Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte{}, b...), nil
}

// Files lists file names directly in dir, sorted.
func (m *Memory) Files(dir string) []string {
	dir = filepath.Clean(dir)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ns []string
	for n := range m.files {
		if filepath.Dir(n) == dir {
			ns = append(ns, filepath.Base(n))
		}
	}
	sort.Strings(ns)
	return ns
}

type memWriter struct {
	m    *Memory
	name string
	buf  []byte
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *memWriter) Close() error {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	w.m.files[w.name] = w.buf
	return nil
}
