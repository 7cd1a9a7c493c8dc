package digits

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"potwatch/internal/debug"

	"gocv.io/x/gocv"
)

// Decoder reads a single character from a binarized glyph image.
type Decoder struct {
	params Params
	sink   debug.Sink
}

// NewDecoder returns a decoder. A nil sink discards debug images.
func NewDecoder(params Params, sink debug.Sink) *Decoder {
	if sink == nil {
		sink = debug.Nop{}
	}
	return &Decoder{params: params, sink: sink}
}

// Decode returns the character shown by glyph, a single channel image with
// lit pixels non-zero. It reports false for unknown patterns, for glyphs
// that look like they carry a colon, and for glyphs too small to sample.
func (d *Decoder) Decode(glyph gocv.Mat) (rune, bool) {
	w, h := glyph.Cols(), glyph.Rows()
	if w == 0 || h == 0 {
		return 0, false
	}

	// A '1' on this display is a single wide stroke, too narrow for the
	// segment grid.
	aspect := float64(w) / float64(h)
	filled := fillRatio(glyph, image.Rect(0, 0, w, h))
	if math.Abs(aspect-d.params.OneAspectRatio) <= d.params.OneAspectTolerance &&
		filled >= d.params.OneFilledArea {
		slog.Debug("glyph is a one", "aspect", aspect, "fill", filled)
		return '1', true
	}

	if d.hasColon(glyph) {
		slog.Debug("glyph appears to carry a colon")
		return 0, false
	}

	var p Pattern
	for i, r := range SegmentRegions(w, h) {
		if r.Empty() {
			return 0, false
		}
		fill := fillRatio(glyph, r)
		p[i] = fill >= d.params.SegmentFill

		seg := glyph.Region(r)
		d.sink.Observe(fmt.Sprintf("segment-%s-%.0f", Segment(i), fill*100), seg)
		seg.Close()
		slog.Debug("segment", "segment", Segment(i).String(), "fill", fill, "lit", p[i])
	}

	c, ok := Lookup(p)
	if !ok {
		slog.Debug("unknown segment pattern", "pattern", p)
	}
	return c, ok
}

// hasColon samples bands down the right third of glyph and reports whether
// they alternate unlit and lit, the signature of the display's colon.
func (d *Decoder) hasColon(glyph gocv.Mat) bool {
	bands := colonRegions(glyph.Cols(), glyph.Rows(), d.params.ColonBands)
	lit := make([]bool, len(bands))
	for i, r := range bands {
		lit[i] = !r.Empty() && fillRatio(glyph, r) > d.params.SegmentFill
	}
	return isColonPattern(lit)
}

// fillRatio returns the fraction of non-zero pixels of img inside r.
func fillRatio(img gocv.Mat, r image.Rectangle) float64 {
	r = r.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	total := r.Dx() * r.Dy()
	if total == 0 {
		return 0
	}
	roi := img.Region(r)
	defer roi.Close()
	return float64(gocv.CountNonZero(roi)) / float64(total)
}
