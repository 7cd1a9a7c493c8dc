// Package colorutil converts colours to the HSV scale OpenCV uses for 8-bit
// images: hue 0-180, saturation and value 0-255.
package colorutil

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// HSVBand is an inclusive box in OpenCV HSV space. Saturation and value
// share one range, as the LED threshold does.
type HSVBand struct {
	HMin, HMax   float64
	SVMin, SVMax float64
}

// RGBToHSV converts c to OpenCV-scale HSV.
func RGBToHSV(c color.Color) (h, s, v float64) {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		// Fully transparent.
		return 0, 0, 0
	}
	hd, sf, vf := cf.Hsv()
	return hd / 2, sf * 255, vf * 255
}

// Contains reports whether c falls inside the band.
func (b HSVBand) Contains(c color.Color) bool {
	h, s, v := RGBToHSV(c)
	return h >= b.HMin && h <= b.HMax &&
		s >= b.SVMin && s <= b.SVMax &&
		v >= b.SVMin && v <= b.SVMax
}
