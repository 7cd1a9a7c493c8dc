package imageops

import (
	"image"

	"potwatch/pkg/geometry"

	"gocv.io/x/gocv"
)

// HomographyMat converts h to a 3x3 CV64F Mat for OpenCV calls.
func HomographyMat(h geometry.Homography) gocv.Mat {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for i, v := range h {
		m.SetDoubleAt(i/3, i%3, v)
	}
	return m
}

// Warp applies h to src, producing an image of the given size. h maps src
// coordinates to output coordinates.
func Warp(src gocv.Mat, h geometry.Homography, size image.Point) gocv.Mat {
	m := HomographyMat(h)
	defer m.Close()

	dst := gocv.NewMat()
	gocv.WarpPerspective(src, &dst, m, size)
	return dst
}
