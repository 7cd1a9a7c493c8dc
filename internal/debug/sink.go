// Package debug lets pipeline stages expose intermediate images without
// depending on where, or whether, they are stored.
package debug

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Sink receives intermediate images. Implementations must not retain img
// after Observe returns; clone it if needed.
type Sink interface {
	Observe(label string, img gocv.Mat)
}

// Nop discards every image.
type Nop struct{}

func (Nop) Observe(string, gocv.Mat) {}

// Func adapts an ordinary function to a Sink.
type Func func(label string, img gocv.Mat)

func (f Func) Observe(label string, img gocv.Mat) { f(label, img) }

// Dir writes each observed image as a numbered PNG in a directory.
type Dir struct {
	path string

	mu  sync.Mutex
	seq int
}

// NewDir creates the directory if needed and returns a sink writing into it.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory snapshots are written to.
func (d *Dir) Path() string { return d.path }

func (d *Dir) Observe(label string, img gocv.Mat) {
	if img.Empty() {
		return
	}
	d.mu.Lock()
	d.seq++
	name := fmt.Sprintf("%03d-%s.png", d.seq, sanitize(label))
	d.mu.Unlock()

	file := filepath.Join(d.path, name)
	if !gocv.IMWrite(file, img) {
		slog.Warn("debug snapshot not written", "file", file)
	}
}

func sanitize(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, label)
}
