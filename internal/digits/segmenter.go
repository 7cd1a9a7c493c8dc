package digits

import (
	"fmt"
	"image"
	"log/slog"
	"sort"

	"potwatch/internal/debug"
	"potwatch/internal/imageops"

	"gocv.io/x/gocv"
)

// Glyph is the bounding box of one character on the binarized display.
type Glyph struct {
	Bounds image.Rectangle
	Area   int
	Height int
}

func newGlyph(r image.Rectangle) Glyph {
	return Glyph{Bounds: r, Area: r.Dx() * r.Dy(), Height: r.Dy()}
}

// Segmentation is the result of isolating the display and its characters.
type Segmentation struct {
	// Display is the LED area in panel coordinates.
	Display image.Rectangle
	// Binary is the thresholded, dilated display crop. Glyph bounds are
	// relative to it.
	Binary gocv.Mat
	// Glyphs are ordered left to right.
	Glyphs []Glyph
}

// Close releases the binary image.
func (s *Segmentation) Close() error {
	return s.Binary.Close()
}

// Segmenter finds the LED display on a rectified panel and splits it into
// character glyphs.
type Segmenter struct {
	params Params
	sink   debug.Sink
}

// NewSegmenter returns a segmenter. A nil sink discards debug images.
func NewSegmenter(params Params, sink debug.Sink) *Segmenter {
	if sink == nil {
		sink = debug.Nop{}
	}
	return &Segmenter{params: params, sink: sink}
}

// Segment locates the display on panel, a BGR image, and returns its glyphs.
// It reports false when no lit LED pixels or no glyphs are found.
func (s *Segmenter) Segment(panel gocv.Mat) (*Segmentation, bool) {
	if panel.Empty() {
		return nil, false
	}

	display, ok := s.findDisplay(panel)
	if !ok {
		slog.Debug("no lit LED pixels on panel")
		return nil, false
	}

	crop := panel.Region(display)
	defer crop.Close()
	s.sink.Observe("display", crop)

	// The crop is bimodal (lit segments and glow against the dark display)
	// so Otsu picks the split.
	gray := imageops.ToGrayscale(crop)
	defer gray.Close()
	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	dilateKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(s.params.DilateKernelSize, s.params.DilateKernelSize))
	defer dilateKernel.Close()
	gocv.Dilate(binary, &binary, dilateKernel)
	s.sink.Observe("digits", binary)

	rects := boundingRects(binary)
	slog.Debug("digit contours", "count", len(rects))
	if len(rects) == 0 {
		binary.Close()
		return nil, false
	}
	if len(rects) > s.params.MaxGlyphs {
		slog.Debug("pruning digit contours", "count", len(rects), "keep", s.params.MaxGlyphs)
	}

	glyphs := selectGlyphs(rects, s.params.MaxGlyphs)
	glyphs = normalizeHeights(glyphs, s.params.ShortGlyphRatio)

	return &Segmentation{Display: display, Binary: binary, Glyphs: glyphs}, true
}

// findDisplay returns the union of all lit LED regions on panel.
func (s *Segmenter) findDisplay(panel gocv.Mat) (image.Rectangle, bool) {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(panel, &hsv, gocv.ColorBGRToHSV)

	p := s.params
	lower := gocv.NewScalar(float64(p.HueMin), float64(p.SVMin), float64(p.SVMin), 0)
	upper := gocv.NewScalar(float64(p.HueMax), float64(p.SVMax), float64(p.SVMax), 0)
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	// Opening drops indicator dots and speckle that share the LED color.
	openKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(p.OpenKernelSize, p.OpenKernelSize))
	defer openKernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, openKernel)
	s.sink.Observe("led-mask", mask)

	rects := boundingRects(mask)
	slog.Debug("LED contours", "count", len(rects))
	if len(rects) == 0 {
		return image.Rectangle{}, false
	}
	display := rects[0]
	for _, r := range rects[1:] {
		display = display.Union(r)
	}
	return display, true
}

// boundingRects returns the bounding box of every external contour in a
// binary image, in discovery order.
func boundingRects(binary gocv.Mat) []image.Rectangle {
	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	rects := make([]image.Rectangle, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		if r.Empty() {
			continue
		}
		rects = append(rects, r)
	}
	return rects
}

// selectGlyphs keeps the max largest boxes by area, ties in discovery order,
// and returns them sorted left to right.
func selectGlyphs(rects []image.Rectangle, max int) []Glyph {
	glyphs := make([]Glyph, len(rects))
	for i, r := range rects {
		glyphs[i] = newGlyph(r)
	}
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].Area > glyphs[j].Area
	})
	if len(glyphs) > max {
		glyphs = glyphs[:max]
	}
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].Bounds.Min.X < glyphs[j].Bounds.Min.X
	})
	return glyphs
}

// normalizeHeights grows short glyphs upward to the tallest glyph's height,
// keeping their bottom edge, so characters without upper segments ('n')
// sample the same grid as full-height ones.
func normalizeHeights(glyphs []Glyph, ratio float64) []Glyph {
	tallest := 0
	for _, g := range glyphs {
		if g.Height > tallest {
			tallest = g.Height
		}
	}
	if tallest == 0 {
		return glyphs
	}
	out := make([]Glyph, len(glyphs))
	for i, g := range glyphs {
		if float64(g.Height)/float64(tallest) <= ratio {
			slog.Debug("expanding short glyph", "glyph", i, "height", g.Height, "tallest", tallest)
			r := g.Bounds
			r.Min.Y = r.Max.Y - tallest
			if r.Min.Y < 0 {
				r.Min.Y = 0
			}
			g = newGlyph(r)
		}
		out[i] = g
	}
	return out
}

func (g Glyph) String() string {
	return fmt.Sprintf("%v area=%d", g.Bounds, g.Area)
}
