// Package synth renders synthetic control panels, LED glyphs and photographs
// of panels for tests and for exercising the command line tools without a
// camera.
package synth

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// Segment bits, ordered upper-left, top, upper-right, middle, lower-left,
// bottom, lower-right from the most significant bit.
var segmentBits = map[rune]uint8{
	'0': 0b1110111,
	'1': 0b0010001,
	'2': 0b0111110,
	'3': 0b0111011,
	'4': 0b1011001,
	'5': 0b1101011,
	'6': 0b1101111,
	'7': 0b0110001,
	'8': 0b1111111,
	'9': 0b1111011,
	'L': 0b1000110,
	'F': 0b1101100,
	'n': 0b0001101,
}

// Segments returns which segments display c.
func Segments(c rune) ([7]bool, bool) {
	bits, ok := segmentBits[c]
	if !ok {
		return [7]bool{}, false
	}
	var lit [7]bool
	for i := range lit {
		lit[i] = bits&(1<<(6-i)) != 0
	}
	return lit, true
}

// LEDColor is the red of a lit display segment. Hue 340° sits at 170 on the
// OpenCV 0-180 scale, inside the LED band.
func LEDColor() color.RGBA {
	r, g, b := colorful.Hsv(340, 1, 1).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// DrawSegments paints the lit segments of a character filling cell. Bars are
// a quarter of the cell width thick.
func DrawSegments(img *gocv.Mat, cell image.Rectangle, lit [7]bool, c color.RGBA) {
	x0, y0, x1, y1 := cell.Min.X, cell.Min.Y, cell.Max.X, cell.Max.Y
	t := cell.Dx() / 4
	if t < 1 {
		t = 1
	}
	ym := y0 + cell.Dy()/2

	bars := [7]image.Rectangle{
		image.Rect(x0, y0, x0+t, ym),         // upper left
		image.Rect(x0, y0, x1, y0+t),         // top
		image.Rect(x1-t, y0, x1, ym),         // upper right
		image.Rect(x0, ym-t/2, x1, ym-t/2+t), // middle
		image.Rect(x0, ym, x0+t, y1),         // lower left
		image.Rect(x0, y1-t, x1, y1),         // bottom
		image.Rect(x1-t, ym, x1, y1),         // lower right
	}
	for i, on := range lit {
		if on {
			gocv.Rectangle(img, bars[i], c, -1)
		}
	}
}

// DrawChar paints c into cell. A '1' is drawn the way the appliance shows
// it, as one wide right-aligned stroke a third of the cell height across.
func DrawChar(img *gocv.Mat, cell image.Rectangle, c rune, col color.RGBA) bool {
	if c == '1' {
		w := cell.Dy() / 3
		r := image.Rect(cell.Max.X-w, cell.Min.Y, cell.Max.X, cell.Max.Y)
		gocv.Rectangle(img, r, col, -1)
		return true
	}
	lit, ok := Segments(c)
	if !ok {
		return false
	}
	DrawSegments(img, cell, lit, col)
	return true
}

// Glyph returns a w x h single channel image with the lit segments white on
// black, the form the decoder receives after binarization.
func Glyph(lit [7]bool, w, h int) gocv.Mat {
	img := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	img.SetTo(gocv.NewScalar(0, 0, 0, 0))
	DrawSegments(&img, image.Rect(0, 0, w, h), lit, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}
