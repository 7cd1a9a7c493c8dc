package digits

import (
	"image"
	"testing"

	"potwatch/internal/synth"
)

func TestSelectGlyphs(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(300, 0, 340, 80), // 3200
		image.Rect(10, 0, 50, 80),   // 3200
		image.Rect(500, 5, 503, 8),  // 9, noise
		image.Rect(200, 0, 240, 80), // 3200
		image.Rect(100, 0, 140, 80), // 3200
		image.Rect(400, 0, 410, 10), // 100, noise
	}

	glyphs := selectGlyphs(rects, 4)
	if len(glyphs) != 4 {
		t.Fatalf("got %d glyphs, want 4", len(glyphs))
	}
	wantX := []int{10, 100, 200, 300}
	for i, g := range glyphs {
		if g.Bounds.Min.X != wantX[i] {
			t.Errorf("glyph %d: got x=%d, want %d", i, g.Bounds.Min.X, wantX[i])
		}
	}
}

func TestSelectGlyphs_TiesKeepDiscoveryOrder(t *testing.T) {
	// Five equal boxes: the first four discovered survive.
	rects := []image.Rectangle{
		image.Rect(40, 0, 50, 10),
		image.Rect(30, 0, 40, 10),
		image.Rect(20, 0, 30, 10),
		image.Rect(10, 0, 20, 10),
		image.Rect(0, 0, 10, 10),
	}
	glyphs := selectGlyphs(rects, 4)
	if len(glyphs) != 4 {
		t.Fatalf("got %d glyphs, want 4", len(glyphs))
	}
	if glyphs[0].Bounds.Min.X != 10 {
		t.Errorf("leftmost: got x=%d, want 10", glyphs[0].Bounds.Min.X)
	}
}

func TestSelectGlyphs_Fewer(t *testing.T) {
	rects := []image.Rectangle{image.Rect(50, 0, 60, 10), image.Rect(0, 0, 10, 10)}
	glyphs := selectGlyphs(rects, 4)
	if len(glyphs) != 2 || glyphs[0].Bounds.Min.X != 0 {
		t.Errorf("got %v, want both glyphs left to right", glyphs)
	}
}

func TestNormalizeHeights(t *testing.T) {
	glyphs := []Glyph{
		newGlyph(image.Rect(0, 0, 50, 100)),
		newGlyph(image.Rect(60, 45, 110, 100)),  // 55 tall: grown
		newGlyph(image.Rect(120, 30, 170, 100)), // 70 tall: kept
		newGlyph(image.Rect(180, 10, 230, 50)),  // grown, clamped at 0
	}
	out := normalizeHeights(glyphs, 0.6)

	want := []image.Rectangle{
		image.Rect(0, 0, 50, 100),
		image.Rect(60, 0, 110, 100),
		image.Rect(120, 30, 170, 100),
		image.Rect(180, 0, 230, 50),
	}
	for i := range want {
		if out[i].Bounds != want[i] {
			t.Errorf("glyph %d: got %v, want %v", i, out[i].Bounds, want[i])
		}
		if out[i].Height != want[i].Dy() || out[i].Area != want[i].Dx()*want[i].Dy() {
			t.Errorf("glyph %d: stale height/area %d/%d", i, out[i].Height, out[i].Area)
		}
	}
	if glyphs[1].Bounds.Min.Y != 45 {
		t.Error("input slice was modified")
	}
}

func TestSegmentPanel(t *testing.T) {
	panel := synth.Panel("1234", 3)
	defer panel.Close()

	seg, ok := NewSegmenter(DefaultParams(), nil).Segment(panel)
	if !ok {
		t.Fatal("display not found")
	}
	defer seg.Close()

	if len(seg.Glyphs) != 4 {
		t.Fatalf("got %d glyphs, want 4", len(seg.Glyphs))
	}
	if !seg.Display.In(synth.DisplayWindow) {
		t.Errorf("display %v outside window %v", seg.Display, synth.DisplayWindow)
	}
	for i := 1; i < len(seg.Glyphs); i++ {
		if seg.Glyphs[i].Bounds.Min.X <= seg.Glyphs[i-1].Bounds.Min.X {
			t.Errorf("glyphs not ordered left to right: %v", seg.Glyphs)
		}
	}
}

func TestSegmentPanel_DisplayOff(t *testing.T) {
	panel := synth.Panel("", 3)
	defer panel.Close()

	if seg, ok := NewSegmenter(DefaultParams(), nil).Segment(panel); ok {
		seg.Close()
		t.Error("found a display on a panel with nothing lit")
	}
}
