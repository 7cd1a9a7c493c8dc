package digits

import (
	"context"
	"testing"

	"potwatch/internal/settings"
	"potwatch/internal/synth"
)

func TestReadDigits(t *testing.T) {
	r, err := NewReader(DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	for _, text := range []string{"1234", "8F5n", "L0"} {
		t.Run(text, func(t *testing.T) {
			panel := synth.Panel(text, 11)
			defer panel.Close()

			got, ok := r.ReadDigits(panel)
			if !ok {
				t.Fatal("no reading")
			}
			if got != text {
				t.Errorf("got %q, want %q", got, text)
			}
		})
	}
}

func TestScanReportsGlyphs(t *testing.T) {
	r, _ := NewReader(DefaultParams())
	panel := synth.Panel("0000", 5)
	defer panel.Close()

	scan, ok := r.Scan(panel)
	if !ok {
		t.Fatal("no reading")
	}
	if len(scan.Glyphs) != 4 || scan.Text != "0000" {
		t.Errorf("got %d glyphs, text %q", len(scan.Glyphs), scan.Text)
	}
	if scan.Display.Empty() {
		t.Error("display rectangle not reported")
	}
}

func TestNewReaderRejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.ColonBands = 4
	if _, err := NewReader(p); err == nil {
		t.Error("expected error for even colon band count")
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"hue inverted", func(p *Params) { p.HueMin, p.HueMax = 170, 160 }},
		{"hue past 180", func(p *Params) { p.HueMax = 200 }},
		{"sv inverted", func(p *Params) { p.SVMin = 300 }},
		{"zero open kernel", func(p *Params) { p.OpenKernelSize = 0 }},
		{"no glyphs", func(p *Params) { p.MaxGlyphs = 0 }},
		{"crop of one", func(p *Params) { p.ColonRetryCrop = 1 }},
		{"segment fill zero", func(p *Params) { p.SegmentFill = 0 }},
		{"one area above one", func(p *Params) { p.OneFilledArea = 1.5 }},
	}

	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadParams(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemory()
	_ = store.Set(ctx, settings.Key(SettingsSection, "led_threshold_h_min"), []byte("150"))
	_ = store.Set(ctx, settings.Key(SettingsSection, "segment_filled_area_percent"), []byte("0.45"))

	p, err := LoadParams(ctx, store)
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if p.HueMin != 150 {
		t.Errorf("HueMin: got %d, want 150", p.HueMin)
	}
	if p.SegmentFill != 0.45 {
		t.Errorf("SegmentFill: got %v, want 0.45", p.SegmentFill)
	}
	if p.DilateKernelSize != DefaultParams().DilateKernelSize {
		t.Errorf("DilateKernelSize: got %d, want default", p.DilateKernelSize)
	}

	// Missing values were registered as defaults.
	v, err := store.Get(ctx, settings.Key(SettingsSection, "one_digit_filled_area"))
	if err != nil || string(v) != "0.66" {
		t.Errorf("registered default: got %q, %v", v, err)
	}
}

func TestLoadParams_Invalid(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemory()
	_ = store.Set(ctx, settings.Key(SettingsSection, "open_kernel_size"), []byte("five"))
	if _, err := LoadParams(ctx, store); err == nil {
		t.Error("expected parse error")
	}

	store = settings.NewMemory()
	_ = store.Set(ctx, settings.Key(SettingsSection, "colon_bands"), []byte("2"))
	if _, err := LoadParams(ctx, store); err == nil {
		t.Error("expected validation error")
	}
}
