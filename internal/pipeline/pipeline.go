// Package pipeline chains the panel locator and the digit reader.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"potwatch/internal/debug"
	"potwatch/internal/digits"
	"potwatch/internal/locator"
	"potwatch/internal/settings"

	"gocv.io/x/gocv"
)

// Reading is the outcome of one frame.
type Reading struct {
	PanelFound bool
	// Text is the displayed text; meaningful only when Valid.
	Text  string
	Valid bool

	GoodMatches int
	Inliers     int
	Scan        digits.Scan
}

// Pipeline locates the panel in a frame and reads its display.
type Pipeline struct {
	locator *locator.Locator
	reader  *digits.Reader
	lp      locator.Params
	dp      digits.Params
}

type options struct {
	sink    debug.Sink
	backend locator.FeatureBackend
}

// Option configures a Pipeline.
type Option func(*options)

// WithSink sends intermediate images from both stages to sink.
func WithSink(sink debug.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// WithBackend overrides the feature backend named in the locator params.
func WithBackend(b locator.FeatureBackend) Option {
	return func(o *options) { o.backend = b }
}

// New builds a pipeline around template, the reference panel image.
func New(template gocv.Mat, lp locator.Params, dp digits.Params, opts ...Option) (*Pipeline, error) {
	o := options{sink: debug.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}

	reader, err := digits.NewReader(dp, digits.WithSink(o.sink))
	if err != nil {
		return nil, err
	}
	loc, err := locator.New(template, lp, locator.WithSink(o.sink), locator.WithBackend(o.backend))
	if err != nil {
		return nil, err
	}
	return &Pipeline{locator: loc, reader: reader, lp: lp, dp: dp}, nil
}

// FromStore loads both stages' parameters from store and builds a pipeline.
func FromStore(ctx context.Context, template gocv.Mat, store settings.Store, opts ...Option) (*Pipeline, error) {
	lp, err := locator.LoadParams(ctx, store)
	if err != nil {
		return nil, err
	}
	dp, err := digits.LoadParams(ctx, store)
	if err != nil {
		return nil, err
	}
	p, err := New(template, lp, dp, opts...)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return p, nil
}

// LocatorParams returns the parameters the locator was built with.
func (p *Pipeline) LocatorParams() locator.Params { return p.lp }

// DigitParams returns the parameters the reader was built with.
func (p *Pipeline) DigitParams() digits.Params { return p.dp }

// Read processes one BGR frame.
func (p *Pipeline) Read(frame gocv.Mat) Reading {
	det, ok := p.locator.Locate(frame)
	if !ok {
		return Reading{}
	}
	defer det.Close()

	r := Reading{
		PanelFound:  true,
		GoodMatches: det.GoodMatches,
		Inliers:     det.Inliers,
	}
	r.Scan, r.Valid = p.reader.Scan(det.Panel)
	if r.Valid {
		r.Text = r.Scan.Text
	}
	slog.Debug("frame read", "panel", r.PanelFound, "text", r.Text, "valid", r.Valid)
	return r
}

// Close releases the locator's template.
func (p *Pipeline) Close() error {
	return p.locator.Close()
}
