// Package imageops holds small image helpers shared by the locator and the
// digit reader.
package imageops

import (
	"image"

	"gocv.io/x/gocv"
)

// ScaledSize returns the size an image of w x h pixels takes after being
// shrunk to fit inside maxW x maxH with its aspect ratio kept, along with the
// scale factor applied. Images that already fit are never upscaled and report
// a factor of 1.0.
func ScaledSize(w, h, maxW, maxH int) (image.Point, float64) {
	if w <= maxW && h <= maxH {
		return image.Pt(w, h), 1.0
	}
	// The limiting side lands exactly on its bound; only the other side is
	// derived, in integer arithmetic so it cannot drift a pixel short.
	var sw, sh int
	var scale float64
	if maxW*h <= maxH*w {
		sw, sh = maxW, maxW*h/w
		scale = float64(maxW) / float64(w)
	} else {
		sw, sh = maxH*w/h, maxH
		scale = float64(maxH) / float64(h)
	}
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return image.Pt(sw, sh), scale
}

// ConstrainSize resizes src so it fits inside maxW x maxH. The returned Mat is
// always a new Mat owned by the caller, a clone when no resize was needed.
func ConstrainSize(src gocv.Mat, maxW, maxH int) (gocv.Mat, float64) {
	size, scale := ScaledSize(src.Cols(), src.Rows(), maxW, maxH)
	if scale == 1.0 {
		return src.Clone(), 1.0
	}
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, size, 0, 0, gocv.InterpolationLinear)
	return dst, scale
}

// ToGrayscale converts a BGR or BGRA image to a single channel. Single channel
// input is cloned unchanged.
func ToGrayscale(src gocv.Mat) gocv.Mat {
	switch src.Channels() {
	case 1:
		return src.Clone()
	case 4:
		dst := gocv.NewMat()
		gocv.CvtColor(src, &dst, gocv.ColorBGRAToGray)
		return dst
	default:
		dst := gocv.NewMat()
		gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
		return dst
	}
}
