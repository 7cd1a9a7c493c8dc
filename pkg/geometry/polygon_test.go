package geometry

import (
	"math"
	"testing"
)

func TestIsConvex(t *testing.T) {
	tests := []struct {
		name string
		poly []Point2D
		want bool
	}{
		{"square", []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, true},
		{"counter-clockwise", []Point2D{{0, 0}, {0, 10}, {10, 10}, {10, 0}}, true},
		{"perspective quad", []Point2D{{120, 90}, {610, 130}, {580, 470}, {150, 430}}, true},
		{"bow tie", []Point2D{{0, 0}, {10, 10}, {10, 0}, {0, 10}}, false},
		{"dart", []Point2D{{0, 0}, {10, 5}, {0, 10}, {3, 5}}, false},
		{"star", []Point2D{{0, 10}, {6, -8}, {-9, 3}, {9, 3}, {-6, -8}}, false},
		{"line", []Point2D{{0, 0}, {5, 5}, {10, 10}}, false},
		{"too few", []Point2D{{0, 0}, {1, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConvex(tt.poly); got != tt.want {
				t.Errorf("IsConvex: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArea(t *testing.T) {
	sq := []Point2D{{0, 0}, {4, 0}, {4, 3}, {0, 3}}
	if a := Area(sq); math.Abs(a-12) > 1e-12 {
		t.Errorf("got %v, want 12", a)
	}
	rev := []Point2D{{0, 3}, {4, 3}, {4, 0}, {0, 0}}
	if a := Area(rev); math.Abs(a-12) > 1e-12 {
		t.Errorf("reversed: got %v, want 12", a)
	}
	if Area(sq[:2]) != 0 {
		t.Error("degenerate polygon should have zero area")
	}
}
