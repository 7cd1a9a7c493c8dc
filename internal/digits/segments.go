package digits

import "image"

// Segment identifies one bar of a 7-segment character.
type Segment int

// Segments in Pattern order.
const (
	UpperLeft Segment = iota
	Top
	UpperRight
	Middle
	LowerLeft
	Bottom
	LowerRight
)

var segmentNames = [...]string{"upper-left", "top", "upper-right", "middle", "lower-left", "bottom", "lower-right"}

func (s Segment) String() string {
	if s < 0 || int(s) >= len(segmentNames) {
		return "unknown"
	}
	return segmentNames[s]
}

// Pattern records which segments are lit, indexed by Segment.
type Pattern [7]bool

// characters maps every pattern the display can show to its character.
var characters = map[Pattern]rune{
	{true, true, true, false, true, true, true}:     '0',
	{false, false, true, false, false, false, true}: '1',
	{false, true, true, true, true, true, false}:    '2',
	{false, true, true, true, false, true, true}:    '3',
	{true, false, true, true, false, false, true}:   '4',
	{true, true, false, true, false, true, true}:    '5',
	{true, true, false, true, true, true, true}:     '6',
	{false, true, true, false, false, false, true}:  '7',
	{true, true, true, true, true, true, true}:      '8',
	{true, true, true, true, false, true, true}:     '9',
	{true, false, false, false, true, true, false}:  'L',
	{true, true, false, true, true, false, false}:   'F',
	{false, false, false, true, true, false, true}:  'n',
}

// Lookup returns the character shown by p.
func Lookup(p Pattern) (rune, bool) {
	c, ok := characters[p]
	return c, ok
}

// PatternFor returns the segment pattern that displays c.
func PatternFor(c rune) (Pattern, bool) {
	for p, r := range characters {
		if r == c {
			return p, true
		}
	}
	return Pattern{}, false
}

// Charset returns every decodable character.
func Charset() []rune {
	return []rune("0123456789LFn")
}

// rect builds a rectangle without canonicalizing, so inverted bounds stay
// empty instead of being swapped.
func rect(x0, y0, x1, y1 int) image.Rectangle {
	return image.Rectangle{Min: image.Point{X: x0, Y: y0}, Max: image.Point{X: x1, Y: y1}}
}

// SegmentRegions returns the sample window of each segment in a w x h glyph.
// Windows are clipped to the glyph; a window that clips to nothing is empty.
func SegmentRegions(w, h int) [7]image.Rectangle {
	ss := w / 3   // segment thickness
	hss := ss / 2 // half thickness
	vq := h / 4   // vertical quarter
	x1 := w - 1
	y1 := h - 1

	regions := [7]image.Rectangle{
		UpperLeft:  rect(0, vq-hss, ss, vq+hss),
		Top:        rect(ss, 0, x1-ss, ss),
		UpperRight: rect(x1-ss, vq-hss, x1, vq+hss),
		Middle:     rect(ss, 2*vq-hss, x1-ss, 2*vq+hss),
		LowerLeft:  rect(0, 3*vq-hss, ss, 3*vq+hss),
		Bottom:     rect(ss, y1-ss, x1-ss, y1),
		LowerRight: rect(x1-ss, 3*vq-hss, x1, 3*vq+hss),
	}
	bounds := image.Rect(0, 0, w, h)
	for i, r := range regions {
		if r.Empty() {
			regions[i] = image.Rectangle{}
			continue
		}
		regions[i] = r.Intersect(bounds)
	}
	return regions
}

// colonRegions splits the rightmost third of a glyph into n horizontal bands.
func colonRegions(w, h, n int) []image.Rectangle {
	ss := w / 3
	x1 := w - 1
	band := h / n
	regions := make([]image.Rectangle, n)
	for i := range regions {
		r := rect(x1-ss, i*band, x1, (i+1)*band)
		if r.Empty() {
			continue
		}
		regions[i] = r
	}
	return regions
}

// isColonPattern reports whether lit alternates off, on, off, ... off.
func isColonPattern(lit []bool) bool {
	if len(lit) < 3 || len(lit)%2 == 0 {
		return false
	}
	for i, on := range lit {
		if on != (i%2 == 1) {
			return false
		}
	}
	return true
}
