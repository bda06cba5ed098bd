// Package vfs is the filesystem capability used by file sources and
// sinks. It's backed by afero, so the same code runs on the OS
// filesystem and in memory.
package vfs

import (
	"os"
	"sync"

	"github.com/spf13/afero"
)

// FS is a set of filesystem operations needed by pipeline components.
type FS interface {
	// List returns sorted names of directory entries.
	List(path string) ([]string, error)
	IsFile(path string) bool
	IsDir(path string) bool
	OpenRead(path string) (afero.File, error)
	// OpenWrite creates or truncates the file.
	OpenWrite(path string) (afero.File, error)
	MkdirAll(path string) error
}

type fs struct {
	afero.Fs
}

// New returns FS backed by provided afero filesystem.
func New(afs afero.Fs) FS {
	return fs{Fs: afs}
}

// OS returns FS backed by operating system.
func OS() FS {
	return New(afero.NewOsFs())
}

// Memory returns FS backed by memory.
func Memory() FS {
	return New(afero.NewMemMapFs())
}

// List returns names in the order of afero.ReadDir, which sorts by name.
func (f fs) List(path string) ([]string, error) {
	infos, err := afero.ReadDir(f.Fs, path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

func (f fs) IsFile(path string) bool {
	info, err := f.Fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (f fs) IsDir(path string) bool {
	ok, err := afero.IsDir(f.Fs, path)
	return err == nil && ok
}

func (f fs) OpenRead(path string) (afero.File, error) {
	return f.Fs.Open(path)
}

func (f fs) OpenWrite(path string) (afero.File, error) {
	return f.Fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
}

func (f fs) MkdirAll(path string) error {
	return f.Fs.MkdirAll(path, 0o755)
}

// Tracker counts open file handles of the wrapped filesystem.
type Tracker struct {
	FS

	mu     sync.Mutex
	open   int
	peak   int
	opened int
}

// Track wraps filesystem with handles tracker.
func Track(f FS) *Tracker {
	return &Tracker{FS: f}
}

// OpenRead opens file for reading and tracks the handle.
func (t *Tracker) OpenRead(path string) (afero.File, error) {
	return t.track(t.FS.OpenRead(path))
}

// OpenWrite opens file for writing and tracks the handle.
func (t *Tracker) OpenWrite(path string) (afero.File, error) {
	return t.track(t.FS.OpenWrite(path))
}

// Open returns number of currently open handles.
func (t *Tracker) Open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

// Peak returns the max number of simultaneously open handles.
func (t *Tracker) Peak() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peak
}

// Opened returns total number of opened handles.
func (t *Tracker) Opened() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opened
}

func (t *Tracker) track(f afero.File, err error) (afero.File, error) {
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.open++
	t.opened++
	if t.open > t.peak {
		t.peak = t.open
	}
	t.mu.Unlock()
	return &trackedFile{File: f, tracker: t}, nil
}

type trackedFile struct {
	afero.File
	tracker *Tracker
	once    sync.Once
}

// Close closes the file and decrements open handles counter once.
func (f *trackedFile) Close() error {
	f.once.Do(func() {
		f.tracker.mu.Lock()
		f.tracker.open--
		f.tracker.mu.Unlock()
	})
	return f.File.Close()
}

