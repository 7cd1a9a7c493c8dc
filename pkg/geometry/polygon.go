package geometry

import "math"

// IsConvex reports whether the vertices, taken in order, form a convex
// polygon. Collinear runs are allowed; a polygon that folds over itself is
// not convex.
func IsConvex(polygon []Point2D) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	var sign int
	var turn float64
	for i := 0; i < n; i++ {
		a, b, c := polygon[i], polygon[(i+1)%n], polygon[(i+2)%n]
		cross := Cross(a, b, c)
		if cross == 0 {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
		turn += math.Abs(exteriorAngle(a, b, c))
	}
	// A star traced with consistent turns winds more than once.
	return sign != 0 && turn < 2*math.Pi+1e-6
}

// exteriorAngle returns the signed turn at b going from a through b to c.
func exteriorAngle(a, b, c Point2D) float64 {
	d1 := b.Sub(a)
	d2 := c.Sub(b)
	return math.Atan2(d1.X*d2.Y-d1.Y*d2.X, d1.X*d2.X+d1.Y*d2.Y)
}

// Area returns the unsigned area of a simple polygon (shoelace formula).
func Area(polygon []Point2D) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}
