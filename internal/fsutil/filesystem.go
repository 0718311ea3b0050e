// Package fsutil provides the filesystem seam used by exporters and report
// writers so they can be exercised against memory in tests.
package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSystem is the subset of filesystem operations output writers need.
// Use OSFileSystem in production and MemoryFileSystem in tests.
type FileSystem interface {
	// Create creates or truncates the named file.
	Create(name string) (io.WriteCloser, error)

	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// MkdirAll creates a directory and all necessary parents.
	MkdirAll(path string, perm os.FileMode) error

	// Exists checks if a file or directory exists.
	Exists(name string) bool
}

// OSFileSystem implements FileSystem using the os package.
type OSFileSystem struct{}

func (OSFileSystem) Create(name string) (io.WriteCloser, error) { return os.Create(name) }
func (OSFileSystem) ReadFile(name string) ([]byte, error)       { return os.ReadFile(name) }

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// ErrNoSpace is what MemoryFileSystem returns once its capacity is used up.
var ErrNoSpace = errors.New("no space left on device")

// MemoryFileSystem is an in-memory FileSystem. Paths can be marked
// read-only and the total capacity bounded to simulate permission and
// full-disk failures.
type MemoryFileSystem struct {
	mu       sync.RWMutex
	files    map[string][]byte
	dirs     map[string]bool
	readOnly []string
	capacity int
	used     int
}

// NewMemoryFileSystem creates an empty, unbounded in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files:    make(map[string][]byte),
		dirs:     make(map[string]bool),
		capacity: -1,
	}
}

// SetReadOnly makes Create fail with fs.ErrPermission for every path under
// prefix.
func (m *MemoryFileSystem) SetReadOnly(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readOnly = append(m.readOnly, filepath.Clean(prefix))
}

// SetCapacity bounds the total bytes all files may hold. Writes past the
// bound fail with ErrNoSpace.
func (m *MemoryFileSystem) SetCapacity(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.capacity = n
}

func (m *MemoryFileSystem) Create(name string) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	for _, p := range m.readOnly {
		if name == p || strings.HasPrefix(name, p+string(filepath.Separator)) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
		}
	}
	m.used -= len(m.files[name])
	m.files[name] = []byte{}
	return &memFileWriter{fs: m, name: name}, nil
}

func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for p := filepath.Clean(path); p != "." && p != "/"; p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	return nil
}

func (m *MemoryFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	_, ok := m.files[name]
	return ok || m.dirs[name]
}

// memFileWriter appends straight into the owning filesystem so a failed
// write leaves the partial file behind, as a real disk would.
type memFileWriter struct {
	fs     *MemoryFileSystem
	name   string
	closed bool
}

func (f *memFileWriter) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	n := len(p)
	if f.fs.capacity >= 0 && f.fs.used+n > f.fs.capacity {
		n = f.fs.capacity - f.fs.used
	}
	f.fs.files[f.name] = append(f.fs.files[f.name], p[:n]...)
	f.fs.used += n
	if n < len(p) {
		return n, &fs.PathError{Op: "write", Path: f.name, Err: ErrNoSpace}
	}
	return n, nil
}

func (f *memFileWriter) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return nil
}
