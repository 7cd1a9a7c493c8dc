// Package digits reads the characters shown on the red 7-segment LED display
// of a rectified control panel image.
//
// Reading happens in two steps. The Segmenter isolates the display by color,
// binarizes it and finds up to four character glyphs. The Decoder samples
// seven windows of each glyph and looks the lit pattern up in a fixed table.
package digits

import (
	"fmt"
	"image"
	"log/slog"
	"strings"

	"potwatch/internal/debug"

	"gocv.io/x/gocv"
)

// Scan describes how far a read got.
type Scan struct {
	Display image.Rectangle
	Glyphs  []Glyph
	Text    string
}

// Reader combines a Segmenter and a Decoder.
type Reader struct {
	params    Params
	sink      debug.Sink
	segmenter *Segmenter
	decoder   *Decoder
}

// Option configures a Reader.
type Option func(*Reader)

// WithSink sends intermediate images to sink.
func WithSink(sink debug.Sink) Option {
	return func(r *Reader) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// NewReader validates params and builds a reader.
func NewReader(params Params, opts ...Option) (*Reader, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("digit reader: %w", err)
	}
	r := &Reader{params: params, sink: debug.Nop{}}
	for _, opt := range opts {
		opt(r)
	}
	r.segmenter = NewSegmenter(params, r.sink)
	r.decoder = NewDecoder(params, r.sink)
	return r, nil
}

// Params returns the reader's parameters.
func (r *Reader) Params() Params { return r.params }

// ReadDigits returns the text shown on panel. It reports false if the
// display cannot be found or any glyph cannot be decoded.
func (r *Reader) ReadDigits(panel gocv.Mat) (string, bool) {
	scan, ok := r.Scan(panel)
	if !ok {
		return "", false
	}
	return scan.Text, true
}

// Scan reads panel and also returns the display and glyph boxes found, which
// are filled in as far as the read got even when it fails.
func (r *Reader) Scan(panel gocv.Mat) (Scan, bool) {
	var scan Scan
	seg, ok := r.segmenter.Segment(panel)
	if !ok {
		return scan, false
	}
	defer seg.Close()
	scan.Display = seg.Display
	scan.Glyphs = seg.Glyphs

	var sb strings.Builder
	for i, g := range seg.Glyphs {
		c, ok := r.decodeGlyph(seg.Binary, g, i)
		if !ok {
			slog.Debug("glyph not decoded", "glyph", i, "bounds", g.Bounds)
			return scan, false
		}
		sb.WriteRune(c)
	}
	scan.Text = sb.String()
	return scan, true
}

// decodeGlyph decodes one glyph, retrying once with its right edge cropped
// off to drop a neighbouring colon.
func (r *Reader) decodeGlyph(binary gocv.Mat, g Glyph, i int) (rune, bool) {
	roi := binary.Region(g.Bounds)
	r.sink.Observe(fmt.Sprintf("glyph-%d", i), roi)
	c, ok := r.decoder.Decode(roi)
	roi.Close()
	slog.Debug("glyph first pass", "glyph", i, "char", string(c), "ok", ok)
	if ok {
		return c, true
	}

	keep := int(float64(g.Bounds.Dx()) * r.params.ColonRetryCrop)
	if keep < 1 {
		return 0, false
	}
	cropped := g.Bounds
	cropped.Max.X = cropped.Min.X + keep
	roi = binary.Region(cropped)
	defer roi.Close()
	r.sink.Observe(fmt.Sprintf("glyph-%d-cropped", i), roi)
	c, ok = r.decoder.Decode(roi)
	slog.Debug("glyph retry", "glyph", i, "char", string(c), "ok", ok)
	return c, ok
}
