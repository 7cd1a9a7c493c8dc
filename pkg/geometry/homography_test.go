package geometry

import (
	"math"
	"testing"
)

func TestHomographyFromQuad(t *testing.T) {
	src := [4]Point2D{{0, 0}, {100, 0}, {100, 50}, {0, 50}}
	dst := [4]Point2D{{10, 20}, {120, 15}, {125, 80}, {5, 70}}

	h, ok := HomographyFromQuad(src, dst)
	if !ok {
		t.Fatal("HomographyFromQuad reported degenerate input")
	}
	for i := range src {
		got, ok := h.Apply(src[i])
		if !ok {
			t.Fatalf("point %d mapped to infinity", i)
		}
		if got.Distance(dst[i]) > 1e-6 {
			t.Errorf("point %d: got %v, want %v", i, got, dst[i])
		}
	}
}

func TestHomographyFromQuad_Degenerate(t *testing.T) {
	src := [4]Point2D{{0, 0}, {10, 10}, {20, 20}, {30, 30}}
	dst := [4]Point2D{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	if _, ok := HomographyFromQuad(src, dst); ok {
		t.Error("collinear source points should be rejected")
	}
}

func TestHomographyInverse(t *testing.T) {
	h := Homography{1.1, 0.05, 30, -0.02, 0.95, 12, 0.0004, -0.0002, 1}
	inv, ok := h.Inverse()
	if !ok {
		t.Fatal("Inverse failed on an invertible transform")
	}
	id := h.Mul(inv).Normalize()
	want := IdentityHomography()
	for i := range id {
		if math.Abs(id[i]-want[i]) > 1e-9 {
			t.Fatalf("h * inv(h) = %v, want identity", id)
		}
	}

	p := Point2D{X: 42, Y: 17}
	q, _ := h.Apply(p)
	back, _ := inv.Apply(q)
	if back.Distance(p) > 1e-9 {
		t.Errorf("round trip: got %v, want %v", back, p)
	}
}

func TestHomographyMulOrder(t *testing.T) {
	// Scale first, then translate.
	h := TranslationHomography(5, 7).Mul(ScaleHomography(2))
	got, _ := h.Apply(Point2D{X: 1, Y: 1})
	want := Point2D{X: 7, Y: 9}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCross(t *testing.T) {
	if c := Cross(Point2D{0, 0}, Point2D{1, 1}, Point2D{2, 2}); c != 0 {
		t.Errorf("collinear cross: got %v, want 0", c)
	}
	if c := Cross(Point2D{0, 0}, Point2D{1, 0}, Point2D{0, 1}); c <= 0 {
		t.Errorf("counter-clockwise cross: got %v, want > 0", c)
	}
}
