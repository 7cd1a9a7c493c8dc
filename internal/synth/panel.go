package synth

import (
	"image"
	"image/color"
	"math/rand"

	"potwatch/internal/imageops"
	"potwatch/pkg/colorutil"
	"potwatch/pkg/geometry"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/noise"
	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// Panel dimensions in pixels.
const (
	PanelWidth  = 640
	PanelHeight = 360
)

// Display layout on the panel.
var (
	DisplayWindow = image.Rect(170, 100, 470, 240)
	CellSize      = image.Pt(48, 96)
	CellGap       = 20
)

var buttonLabels = []string{
	"Soup", "Meat", "Bean", "Poultry", "Rice",
	"Multigrain", "Porridge", "Steam", "Slow Cook", "Saute",
	"Yogurt", "Manual", "Timer", "Keep Warm", "Cancel", "Adjust",
}

// Cell returns the bounds of display character i.
func Cell(i int) image.Rectangle {
	total := 4*CellSize.X + 3*CellGap
	x0 := DisplayWindow.Min.X + (DisplayWindow.Dx()-total)/2
	y0 := DisplayWindow.Min.Y + (DisplayWindow.Dy()-CellSize.Y)/2
	min := image.Pt(x0+i*(CellSize.X+CellGap), y0)
	return image.Rectangle{Min: min, Max: min.Add(CellSize)}
}

// Panel renders a control panel showing text (up to four characters) on its
// display. The button layout is derived from seed, so two panels with the
// same seed differ only in the displayed text.
func Panel(text string, seed int64) gocv.Mat {
	rng := rand.New(rand.NewSource(seed))
	panel := texture(PanelWidth, PanelHeight)

	// Bezel and display window.
	gocv.Rectangle(&panel, image.Rect(4, 4, PanelWidth-4, PanelHeight-4), color.RGBA{R: 30, G: 30, B: 35, A: 255}, 3)
	gocv.Rectangle(&panel, DisplayWindow.Inset(-6), color.RGBA{R: 200, G: 200, B: 205, A: 255}, -1)
	gocv.Rectangle(&panel, DisplayWindow, color.RGBA{R: 12, G: 10, B: 10, A: 255}, -1)

	for i, c := range []rune(text) {
		if i >= 4 {
			break
		}
		DrawChar(&panel, Cell(i), c, LEDColor())
	}

	labels := append([]string(nil), buttonLabels...)
	rng.Shuffle(len(labels), func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})
	for i, slot := range buttonSlots() {
		drawButton(&panel, slot, labels[i%len(labels)], rng)
	}

	// Diagonal trim strokes in the margins above and below the display add
	// corners unique to this layout.
	strips := []image.Rectangle{
		image.Rect(10, 80, PanelWidth-10, 96),
		image.Rect(10, 246, PanelWidth-10, 270),
	}
	for i := 0; i < 8; i++ {
		strip := strips[i%len(strips)]
		p1 := image.Pt(strip.Min.X+rng.Intn(strip.Dx()), strip.Min.Y)
		p2 := image.Pt(p1.X+rng.Intn(60)-30, strip.Max.Y)
		gocv.Line(&panel, p1, p2, randomColor(rng, 0.2, 0.9), 2)
	}
	return panel
}

// buttonSlots returns the button rectangles around the display.
func buttonSlots() []image.Rectangle {
	var slots []image.Rectangle
	for i := 0; i < 5; i++ {
		x := 24 + i*120
		slots = append(slots, image.Rect(x, 24, x+104, 76))
		slots = append(slots, image.Rect(x, 276, x+104, 332))
	}
	for i := 0; i < 2; i++ {
		y := 104 + i*70
		slots = append(slots, image.Rect(24, y, 150, y+52))
		slots = append(slots, image.Rect(490, y, 616, y+52))
	}
	return slots
}

func drawButton(img *gocv.Mat, r image.Rectangle, label string, rng *rand.Rand) {
	fill := randomColor(rng, 0.1, 0.7)
	gocv.Rectangle(img, r, fill, -1)
	gocv.Rectangle(img, r, color.RGBA{R: 20, G: 20, B: 25, A: 255}, 2)

	ink := color.RGBA{R: 245, G: 245, B: 245, A: 255}
	if 0.299*float64(fill.R)+0.587*float64(fill.G)+0.114*float64(fill.B) > 140 {
		ink = color.RGBA{R: 15, G: 15, B: 15, A: 255}
	}
	org := image.Pt(r.Min.X+6+rng.Intn(8), r.Max.Y-12-rng.Intn(10))
	gocv.PutText(img, label, org, gocv.FontHersheySimplex, 0.45, ink, 2)

	// Indicator light: too small to survive the LED mask opening.
	if rng.Intn(2) == 0 {
		gocv.Circle(img, image.Pt(r.Max.X-10, r.Min.Y+10), 1, LEDColor(), -1)
	}
}

// randomColor returns a blue-gray color, never in the LED hue band.
func randomColor(rng *rand.Rand, minV, maxV float64) color.RGBA {
	c := colorful.Hsv(190+rng.Float64()*50, 0.1+rng.Float64()*0.5, minV+rng.Float64()*(maxV-minV))
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// texture returns a mottled gray surface.
func texture(w, h int) gocv.Mat {
	img := noise.Generate(w, h, &noise.Options{Monochrome: true, NoiseFn: noise.Uniform})
	img = blur.Gaussian(img, 3)
	img = adjust.Contrast(img, -0.4)
	return imageops.FromImage(img)
}

// Corners returns the four corners of a w x h image, clockwise from top left.
func Corners(w, h int) [4]geometry.Point2D {
	return [4]geometry.Point2D{
		{X: 0, Y: 0},
		{X: float64(w), Y: 0},
		{X: float64(w), Y: float64(h)},
		{X: 0, Y: float64(h)},
	}
}

// Scene places panel into a frame of the given size so that its corners land
// on quad (clockwise from top left). It returns the frame and the
// panel-to-frame homography.
func Scene(panel gocv.Mat, quad [4]geometry.Point2D, size image.Point) (gocv.Mat, geometry.Homography, bool) {
	h, ok := geometry.HomographyFromQuad(Corners(panel.Cols(), panel.Rows()), quad)
	if !ok {
		return gocv.NewMat(), geometry.Homography{}, false
	}

	warped := imageops.Warp(panel, h, size)
	defer warped.Close()

	solid := gocv.NewMatWithSize(panel.Rows(), panel.Cols(), gocv.MatTypeCV8UC1)
	defer solid.Close()
	solid.SetTo(gocv.NewScalar(255, 0, 0, 0))
	mask := imageops.Warp(solid, h, size)
	defer mask.Close()

	frame := gocv.NewMatWithSize(size.Y, size.X, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(70, 75, 80, 0))
	warped.CopyToWithMask(&frame, mask)
	return frame, h, true
}

// Photograph softens img the way a phone camera would.
func Photograph(img gocv.Mat) gocv.Mat {
	soft := blur.Gaussian(imageops.ToImage(img), 0.8)
	soft = adjust.Brightness(soft, -0.05)
	return imageops.FromImage(soft)
}

// clutterExcluded is a generous box around the LED colour. Clutter never
// uses it, so it cannot pass for a lit display.
var clutterExcluded = colorutil.HSVBand{HMin: 150, HMax: 180, SVMin: 60, SVMax: 255}

// Clutter renders a frame of colored discs that contains no panel.
func Clutter(size image.Point, seed int64) gocv.Mat {
	rng := rand.New(rand.NewSource(seed))
	frame := gocv.NewMatWithSize(size.Y, size.X, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(120, 110, 100, 0))
	for i := 0; i < 40; i++ {
		c := colorful.Hsv(rng.Float64()*360, 0.3+rng.Float64()*0.6, 0.3+rng.Float64()*0.7)
		r, g, b := c.RGB255()
		ink := color.RGBA{R: r, G: g, B: b, A: 255}
		center := image.Pt(rng.Intn(size.X), rng.Intn(size.Y))
		radius := 10 + rng.Intn(40)
		if clutterExcluded.Contains(ink) {
			continue
		}
		gocv.Circle(&frame, center, radius, ink, -1)
	}
	return frame
}
