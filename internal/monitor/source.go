package monitor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"potwatch/internal/imageops"

	"gocv.io/x/gocv"
)

// FrameSource yields BGR frames. Next returns io.EOF when the source is
// exhausted.
type FrameSource interface {
	Next(dst *gocv.Mat) error
	Close() error
}

// Camera reads frames from a capture device or stream.
type Camera struct {
	vc *gocv.VideoCapture
}

// OpenCamera opens a device index ("0") or a stream URL.
func OpenCamera(device string) (*Camera, error) {
	var dev interface{} = device
	if idx, err := strconv.Atoi(device); err == nil {
		dev = idx
	}
	vc, err := gocv.OpenVideoCapture(dev)
	if err != nil {
		return nil, fmt.Errorf("open camera %q: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %q: device not available", device)
	}
	return &Camera{vc: vc}, nil
}

func (c *Camera) Next(dst *gocv.Mat) error {
	if ok := c.vc.Read(dst); !ok {
		return io.EOF
	}
	if dst.Empty() {
		return fmt.Errorf("camera returned an empty frame")
	}
	return nil
}

func (c *Camera) Close() error {
	return c.vc.Close()
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".bmp": true, ".gif": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Directory replays the still images in a directory in name order.
type Directory struct {
	files []string
	next  int
	loop  bool
}

// OpenDirectory lists the images in dir. With loop set the sequence restarts
// after the last image instead of ending.
func OpenDirectory(dir string, loop bool) (*Directory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}
	sort.Strings(files)
	return &Directory{files: files, loop: loop}, nil
}

// Files returns the images in replay order.
func (d *Directory) Files() []string { return d.files }

func (d *Directory) Next(dst *gocv.Mat) error {
	if d.next >= len(d.files) {
		if !d.loop {
			return io.EOF
		}
		d.next = 0
	}
	path := d.files[d.next]
	d.next++

	img, err := imageops.Load(path)
	if err != nil {
		return err
	}
	defer img.Close()
	img.CopyTo(dst)
	return nil
}

func (d *Directory) Close() error { return nil }
