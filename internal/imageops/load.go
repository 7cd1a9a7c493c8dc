package imageops

import (
	"fmt"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	// Extra decoders for panel photos exported from scanners and browsers.
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load reads an image file into a BGR Mat, applying any EXIF orientation so
// phone photos come out upright.
func Load(path string) (gocv.Mat, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("open image %s: %w", path, err)
	}
	mat := FromImage(img)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("image %s is empty", path)
	}
	return mat, nil
}
