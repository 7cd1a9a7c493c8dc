package monitor

import (
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

func writeFrames(t *testing.T, dir string, names ...string) {
	t.Helper()
	for i, name := range names {
		img := imaging.New(16+i, 8, color.NRGBA{R: 200, A: 255})
		if err := imaging.Save(img, filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDirectoryOrderAndEOF(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "b.png", "a.png", "c.jpg")
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub.png"), 0o755)

	src, err := OpenDirectory(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	files := src.Files()
	want := []string{"a.png", "b.png", "c.jpg"}
	if len(files) != len(want) {
		t.Fatalf("files: got %v", files)
	}
	for i := range want {
		if filepath.Base(files[i]) != want[i] {
			t.Errorf("file %d: got %s, want %s", i, files[i], want[i])
		}
	}

	frame := gocv.NewMat()
	defer frame.Close()
	// a.png was written second, so it is 17 pixels wide.
	widths := []int{17, 16, 18}
	for i, w := range widths {
		if err := src.Next(&frame); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if frame.Cols() != w || frame.Rows() != 8 {
			t.Errorf("frame %d: got %dx%d, want %dx8", i, frame.Cols(), frame.Rows(), w)
		}
	}
	if err := src.Next(&frame); !errors.Is(err, io.EOF) {
		t.Errorf("after last frame: got %v, want io.EOF", err)
	}
}

func TestDirectoryLoop(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "only.png")

	src, err := OpenDirectory(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	frame := gocv.NewMat()
	defer frame.Close()
	for i := 0; i < 3; i++ {
		if err := src.Next(&frame); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if got := frame.Size(); got[0] != 8 || got[1] != 16 {
		t.Errorf("size: got %v", got)
	}
}

func TestDirectoryErrors(t *testing.T) {
	if _, err := OpenDirectory(filepath.Join(t.TempDir(), "missing"), false); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := OpenDirectory(t.TempDir(), false); err == nil {
		t.Error("expected error for directory without images")
	}
}
