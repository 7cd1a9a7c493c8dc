package locator

import (
	"context"
	"fmt"

	"potwatch/internal/settings"
)

// SettingsSection is the settings section the locator parameters live in.
const SettingsSection = "PanelLocatorParameters"

// Params controls panel localization.
type Params struct {
	// MaxDimension caps both sides of the template and of every frame before
	// feature extraction. Larger images cost a lot of memory in the
	// detectors for little gain in accuracy.
	MaxDimension int

	// MatchRatio is the Lowe ratio: a match is kept only when its distance
	// is below MatchRatio times the second best.
	MatchRatio float64

	// MinGoodMatches is the fewest ratio-test survivors that count as the
	// panel being present.
	MinGoodMatches int

	RANSACIterations int
	RANSACThreshold  float64 // reprojection error in template pixels
	RANSACSeed       int64

	// FeatureBackend names the detector/matcher pair, see BackendByName.
	FeatureBackend string
}

// DefaultParams returns the standard localization parameters.
func DefaultParams() Params {
	return Params{
		MaxDimension:     1000,
		MatchRatio:       0.7,
		MinGoodMatches:   10,
		RANSACIterations: 2000,
		RANSACThreshold:  3.0,
		RANSACSeed:       1,
		FeatureBackend:   BackendORB,
	}
}

// WithMaxDimension returns a copy of params with a different size cap.
func (p Params) WithMaxDimension(d int) Params {
	p.MaxDimension = d
	return p
}

// WithMatching returns a copy of params with custom match acceptance.
func (p Params) WithMatching(ratio float64, minGood int) Params {
	p.MatchRatio = ratio
	p.MinGoodMatches = minGood
	return p
}

// WithBackend returns a copy of params using the named feature backend.
func (p Params) WithBackend(name string) Params {
	p.FeatureBackend = name
	return p
}

// Validate reports the first out-of-range field.
func (p Params) Validate() error {
	switch {
	case p.MaxDimension < 16:
		return fmt.Errorf("max dimension too small: %d", p.MaxDimension)
	case p.MatchRatio <= 0 || p.MatchRatio > 1:
		return fmt.Errorf("match ratio out of range: %v", p.MatchRatio)
	case p.MinGoodMatches < 4:
		return fmt.Errorf("min good matches must be at least 4: %d", p.MinGoodMatches)
	case p.RANSACIterations < 1:
		return fmt.Errorf("ransac iterations must be positive: %d", p.RANSACIterations)
	case p.RANSACThreshold <= 0:
		return fmt.Errorf("ransac threshold must be positive: %v", p.RANSACThreshold)
	}
	if _, err := BackendByName(p.FeatureBackend); err != nil {
		return err
	}
	return nil
}

// LoadParams binds the locator parameters from store, registering defaults
// for any that are missing.
func LoadParams(ctx context.Context, store settings.Store) (Params, error) {
	d := DefaultParams()
	sec := settings.NewSection(ctx, store, SettingsSection)
	p := Params{
		MaxDimension:     sec.Int("max_dimension", d.MaxDimension),
		MatchRatio:       sec.Float("match_ratio", d.MatchRatio),
		MinGoodMatches:   sec.Int("min_good_matches", d.MinGoodMatches),
		RANSACIterations: sec.Int("ransac_iterations", d.RANSACIterations),
		RANSACThreshold:  sec.Float("ransac_threshold", d.RANSACThreshold),
		RANSACSeed:       sec.Int64("ransac_seed", d.RANSACSeed),
		FeatureBackend:   sec.String("feature_backend", d.FeatureBackend),
	}
	if err := sec.Err(); err != nil {
		return DefaultParams(), fmt.Errorf("load locator params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return DefaultParams(), fmt.Errorf("load locator params: %w", err)
	}
	return p, nil
}
