package digits

import (
	"context"
	"fmt"

	"potwatch/internal/settings"
)

// SettingsSection is the settings section the reader parameters live in.
const SettingsSection = "DigitReaderParameters"

// Params holds the thresholds used to isolate and decode the LED digits.
type Params struct {
	// HSV box selecting lit red LED pixels, OpenCV scale (H 0-180).
	HueMin, HueMax int
	// Shared saturation and value bounds.
	SVMin, SVMax int

	OpenKernelSize   int // square kernel removing specks from the LED mask
	DilateKernelSize int // square kernel closing gaps between segments

	MaxGlyphs       int     // display width in characters
	ShortGlyphRatio float64 // glyphs at or below this fraction of the tallest are grown upward

	ColonRetryCrop float64 // fraction of the glyph width kept on retry
	ColonBands     int     // horizontal bands sampled by the colon check

	SegmentFill float64 // lit fraction at which a segment counts as on

	OneAspectRatio     float64 // width/height of a lone '1' stroke
	OneAspectTolerance float64
	OneFilledArea      float64 // minimum lit fraction of a '1' glyph
}

// DefaultParams returns parameters tuned for the red display under typical
// kitchen lighting.
func DefaultParams() Params {
	return Params{
		// Red wraps around hue 0; the display sits at the magenta end.
		HueMin: 160,
		HueMax: 180,
		SVMin:  100,
		SVMax:  255,

		OpenKernelSize:   5,
		DilateKernelSize: 5,

		MaxGlyphs:       4,
		ShortGlyphRatio: 0.6, // catches lower case 'n'

		ColonRetryCrop: 0.8,
		ColonBands:     5,

		SegmentFill: 0.5,

		OneAspectRatio:     0.33,
		OneAspectTolerance: 0.1,
		OneFilledArea:      0.66,
	}
}

// WithHSV returns a copy of params with a custom LED color box.
func (p Params) WithHSV(hMin, hMax, svMin, svMax int) Params {
	p.HueMin = hMin
	p.HueMax = hMax
	p.SVMin = svMin
	p.SVMax = svMax
	return p
}

// WithKernels returns a copy of params with custom morphology kernel sizes.
func (p Params) WithKernels(open, dilate int) Params {
	p.OpenKernelSize = open
	p.DilateKernelSize = dilate
	return p
}

// WithSegmentFill returns a copy of params with a custom segment threshold.
func (p Params) WithSegmentFill(fill float64) Params {
	p.SegmentFill = fill
	return p
}

// Validate reports the first out-of-range field.
func (p Params) Validate() error {
	switch {
	case p.HueMin < 0 || p.HueMax > 180 || p.HueMin > p.HueMax:
		return fmt.Errorf("invalid hue range [%d, %d]", p.HueMin, p.HueMax)
	case p.SVMin < 0 || p.SVMax > 255 || p.SVMin > p.SVMax:
		return fmt.Errorf("invalid saturation/value range [%d, %d]", p.SVMin, p.SVMax)
	case p.OpenKernelSize < 1 || p.DilateKernelSize < 1:
		return fmt.Errorf("kernel sizes must be positive: open=%d, dilate=%d", p.OpenKernelSize, p.DilateKernelSize)
	case p.MaxGlyphs < 1:
		return fmt.Errorf("max glyphs must be positive: %d", p.MaxGlyphs)
	case p.ShortGlyphRatio <= 0 || p.ShortGlyphRatio > 1:
		return fmt.Errorf("short glyph ratio out of range: %v", p.ShortGlyphRatio)
	case p.ColonRetryCrop <= 0 || p.ColonRetryCrop >= 1:
		return fmt.Errorf("colon retry crop out of range: %v", p.ColonRetryCrop)
	case p.ColonBands < 3 || p.ColonBands%2 == 0:
		return fmt.Errorf("colon bands must be odd and at least 3: %d", p.ColonBands)
	case p.SegmentFill <= 0 || p.SegmentFill > 1:
		return fmt.Errorf("segment fill out of range: %v", p.SegmentFill)
	case p.OneAspectRatio <= 0 || p.OneAspectTolerance < 0:
		return fmt.Errorf("invalid '1' aspect %v±%v", p.OneAspectRatio, p.OneAspectTolerance)
	case p.OneFilledArea <= 0 || p.OneFilledArea > 1:
		return fmt.Errorf("'1' filled area out of range: %v", p.OneFilledArea)
	}
	return nil
}

// LoadParams binds the reader parameters from store, registering defaults
// for any that are missing.
func LoadParams(ctx context.Context, store settings.Store) (Params, error) {
	d := DefaultParams()
	sec := settings.NewSection(ctx, store, SettingsSection)
	p := Params{
		HueMin:             sec.Int("led_threshold_h_min", d.HueMin),
		HueMax:             sec.Int("led_threshold_h_max", d.HueMax),
		SVMin:              sec.Int("led_threshold_sv_min", d.SVMin),
		SVMax:              sec.Int("led_threshold_sv_max", d.SVMax),
		OpenKernelSize:     sec.Int("open_kernel_size", d.OpenKernelSize),
		DilateKernelSize:   sec.Int("dilate_kernel_size", d.DilateKernelSize),
		MaxGlyphs:          sec.Int("max_glyphs", d.MaxGlyphs),
		ShortGlyphRatio:    sec.Float("short_glyph_ratio", d.ShortGlyphRatio),
		ColonRetryCrop:     sec.Float("colon_retry_crop_percent", d.ColonRetryCrop),
		ColonBands:         sec.Int("colon_bands", d.ColonBands),
		SegmentFill:        sec.Float("segment_filled_area_percent", d.SegmentFill),
		OneAspectRatio:     sec.Float("one_digit_aspect_ratio", d.OneAspectRatio),
		OneAspectTolerance: sec.Float("one_digit_aspect_tolerance", d.OneAspectTolerance),
		OneFilledArea:      sec.Float("one_digit_filled_area", d.OneFilledArea),
	}
	if err := sec.Err(); err != nil {
		return DefaultParams(), fmt.Errorf("load digit reader params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return DefaultParams(), fmt.Errorf("load digit reader params: %w", err)
	}
	return p, nil
}
