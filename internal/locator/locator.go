// Package locator finds the appliance control panel in a photograph and
// returns a head-on view of it.
//
// A Locator is built once from a clean, tightly cropped reference image of
// the panel. For each frame it matches local features against the reference,
// fits a homography with RANSAC and warps the frame into the reference's
// pixel grid.
package locator

import (
	"fmt"
	"image"
	"log/slog"

	"potwatch/internal/debug"
	"potwatch/internal/imageops"
	"potwatch/pkg/geometry"

	"gocv.io/x/gocv"
)

// Template is the prepared reference panel.
type Template struct {
	Gray        gocv.Mat
	Keypoints   []gocv.KeyPoint
	Descriptors gocv.Mat
}

// Size returns the template dimensions, which are also the dimensions of
// every rectified panel.
func (t *Template) Size() image.Point {
	return image.Pt(t.Gray.Cols(), t.Gray.Rows())
}

// Matchable reports whether the template has enough features for a
// two-nearest-neighbour match.
func (t *Template) Matchable() bool {
	return len(t.Keypoints) >= 2 && !t.Descriptors.Empty()
}

// Close releases the template's native memory.
func (t *Template) Close() error {
	t.Gray.Close()
	return t.Descriptors.Close()
}

// Detection is a located panel.
type Detection struct {
	// Panel is the rectified color panel, template sized. Owned by the
	// Detection.
	Panel gocv.Mat
	// Homography maps downscaled frame coordinates to template coordinates.
	Homography geometry.Homography
	// Scale is the factor the frame was downscaled by before matching.
	Scale float64

	Keypoints   int
	GoodMatches int
	Inliers     int
}

// Close releases the rectified panel.
func (d *Detection) Close() error {
	return d.Panel.Close()
}

// Outline returns the template corners projected back into original frame
// coordinates, clockwise from top left.
func (d *Detection) Outline() ([4]geometry.Point2D, bool) {
	var out [4]geometry.Point2D
	inv, ok := d.Homography.Inverse()
	if !ok {
		return out, false
	}
	w, h := float64(d.Panel.Cols()), float64(d.Panel.Rows())
	corners := [4]geometry.Point2D{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
	for i, c := range corners {
		p, ok := inv.Apply(c)
		if !ok {
			return out, false
		}
		out[i] = p.Scale(1 / d.Scale)
	}
	return out, true
}

// Locator finds the reference panel in frames. It is safe for concurrent
// use.
type Locator struct {
	params   Params
	backend  FeatureBackend
	sink     debug.Sink
	template *Template
}

// Option configures a Locator.
type Option func(*Locator)

// WithBackend overrides the backend named in Params.
func WithBackend(b FeatureBackend) Option {
	return func(l *Locator) {
		if b != nil {
			l.backend = b
		}
	}
}

// WithSink sends the rectified panel of every detection to sink.
func WithSink(sink debug.Sink) Option {
	return func(l *Locator) {
		if sink != nil {
			l.sink = sink
		}
	}
}

// New prepares panel, a BGR or grayscale reference image, as the template.
// The reference is not retained.
func New(panel gocv.Mat, params Params, opts ...Option) (*Locator, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("panel locator: %w", err)
	}
	if panel.Empty() {
		return nil, fmt.Errorf("panel locator: empty reference image")
	}

	backend, _ := BackendByName(params.FeatureBackend)
	l := &Locator{params: params, backend: backend, sink: debug.Nop{}}
	for _, opt := range opts {
		opt(l)
	}

	scaled, _ := imageops.ConstrainSize(panel, params.MaxDimension, params.MaxDimension)
	gray := imageops.ToGrayscale(scaled)
	scaled.Close()

	ext := l.backend.NewExtractor()
	defer ext.Close()
	kps, desc := ext.DetectAndCompute(gray)
	if len(kps) < 2 || desc.Empty() {
		slog.Warn("reference panel has too few features, every frame will be not found",
			"keypoints", len(kps))
	}

	l.template = &Template{Gray: gray, Keypoints: kps, Descriptors: desc}
	slog.Debug("panel template ready",
		"backend", l.backend.Name(),
		"size", l.template.Size(),
		"keypoints", len(kps))
	return l, nil
}

// Params returns the locator's parameters.
func (l *Locator) Params() Params { return l.params }

// Template returns the prepared reference. Callers must not modify it.
func (l *Locator) Template() *Template { return l.template }

// Close releases the template.
func (l *Locator) Close() error {
	return l.template.Close()
}

// Locate searches frame, a BGR image, for the panel. It reports false when
// the frame has no features, too few good matches, or no consistent
// homography.
func (l *Locator) Locate(frame gocv.Mat) (*Detection, bool) {
	if frame.Empty() || !l.template.Matchable() {
		return nil, false
	}

	scaled, scale := imageops.ConstrainSize(frame, l.params.MaxDimension, l.params.MaxDimension)
	defer scaled.Close()
	gray := imageops.ToGrayscale(scaled)
	defer gray.Close()

	ext := l.backend.NewExtractor()
	defer ext.Close()
	kps, desc := ext.DetectAndCompute(gray)
	defer desc.Close()
	if len(kps) == 0 || desc.Empty() {
		slog.Debug("no features in frame")
		return nil, false
	}

	matcher := l.backend.NewMatcher()
	defer matcher.Close()
	knn := matcher.KnnMatch(desc, l.template.Descriptors, 2)
	good := GoodMatches(knn, l.params.MatchRatio)
	slog.Debug("panel matches", "keypoints", len(kps), "good", len(good))
	if len(good) < l.params.MinGoodMatches {
		return nil, false
	}

	framePts := make([]geometry.Point2D, len(good))
	templatePts := make([]geometry.Point2D, len(good))
	for i, m := range good {
		q := kps[m.QueryIdx]
		t := l.template.Keypoints[m.TrainIdx]
		framePts[i] = geometry.Point2D{X: q.X, Y: q.Y}
		templatePts[i] = geometry.Point2D{X: t.X, Y: t.Y}
	}

	h, inliers, ok := EstimateHomography(framePts, templatePts,
		l.params.RANSACIterations, l.params.RANSACThreshold, l.params.RANSACSeed)
	if !ok {
		slog.Debug("no consistent homography", "good", len(good))
		return nil, false
	}

	if !l.plausible(h) {
		slog.Debug("homography folds the panel outline", "inliers", len(inliers))
		return nil, false
	}

	panel := imageops.Warp(scaled, h, l.template.Size())
	l.sink.Observe("panel", panel)

	return &Detection{
		Panel:       panel,
		Homography:  h,
		Scale:       scale,
		Keypoints:   len(kps),
		GoodMatches: len(good),
		Inliers:     len(inliers),
	}, true
}

// plausible reports whether h maps the template onto a convex quadrilateral
// of non-zero area in the frame.
func (l *Locator) plausible(h geometry.Homography) bool {
	inv, ok := h.Inverse()
	if !ok {
		return false
	}
	size := l.template.Size()
	w, ht := float64(size.X), float64(size.Y)
	quad := make([]geometry.Point2D, 0, 4)
	for _, c := range []geometry.Point2D{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: ht}, {X: 0, Y: ht}} {
		p, ok := inv.Apply(c)
		if !ok {
			return false
		}
		quad = append(quad, p)
	}
	return geometry.IsConvex(quad) && geometry.Area(quad) >= 1
}
