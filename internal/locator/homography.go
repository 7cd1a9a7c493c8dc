package locator

import (
	"math"
	"math/rand"

	"potwatch/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// EstimateHomography fits a homography mapping src onto dst with RANSAC. It
// returns the transform refit on all inliers and the inlier indices. It
// reports false when fewer than four correspondences agree on a
// non-degenerate transform.
func EstimateHomography(src, dst []geometry.Point2D, iterations int, threshold float64, seed int64) (geometry.Homography, []int, bool) {
	n := len(src)
	if n != len(dst) || n < 4 {
		return geometry.Homography{}, nil, false
	}

	rng := rand.New(rand.NewSource(seed))
	var best geometry.Homography
	var bestInliers []int

	for iter := 0; iter < iterations; iter++ {
		// Randomly sample 4 correspondences
		indices := rng.Perm(n)[:4]
		var s, d [4]geometry.Point2D
		for i, idx := range indices {
			s[i] = src[idx]
			d[i] = dst[idx]
		}
		if degenerateQuad(s) || degenerateQuad(d) {
			continue
		}

		h, ok := geometry.HomographyFromQuad(s, d)
		if !ok {
			continue
		}

		inliers := countInliers(h, src, dst, threshold)
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
			best = h
			if len(inliers) == n {
				break
			}
		}
	}

	if len(bestInliers) < 4 {
		return geometry.Homography{}, nil, false
	}

	// Recompute transform using all inliers
	inSrc := make([]geometry.Point2D, len(bestInliers))
	inDst := make([]geometry.Point2D, len(bestInliers))
	for i, idx := range bestInliers {
		inSrc[i] = src[idx]
		inDst[i] = dst[idx]
	}
	refit, ok := fitHomography(inSrc, inDst)
	if !ok {
		return best, bestInliers, true
	}
	refitInliers := countInliers(refit, src, dst, threshold)
	if len(refitInliers) < len(bestInliers) {
		return best, bestInliers, true
	}
	return refit, refitInliers, true
}

// degenerateQuad reports whether any three of the points are (nearly)
// collinear, which leaves the four-point solve ill-conditioned.
func degenerateQuad(p [4]geometry.Point2D) bool {
	const eps = 1.0 // twice the triangle area, in square pixels
	for i := 0; i < 4; i++ {
		a, b, c := p[i], p[(i+1)%4], p[(i+2)%4]
		if math.Abs(geometry.Cross(a, b, c)) < eps {
			return true
		}
	}
	return false
}

func countInliers(h geometry.Homography, src, dst []geometry.Point2D, threshold float64) []int {
	var inliers []int
	for i := range src {
		p, ok := h.Apply(src[i])
		if !ok {
			continue
		}
		if p.Distance(dst[i]) < threshold {
			inliers = append(inliers, i)
		}
	}
	return inliers
}

// fitHomography solves the normalized direct linear transform for four or
// more correspondences using the SVD.
func fitHomography(src, dst []geometry.Point2D) (geometry.Homography, bool) {
	n := len(src)
	if n < 4 {
		return geometry.Homography{}, false
	}

	ts, ok := normalizingTransform(src)
	if !ok {
		return geometry.Homography{}, false
	}
	td, ok := normalizingTransform(dst)
	if !ok {
		return geometry.Homography{}, false
	}

	A := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		s, _ := ts.Apply(src[i])
		d, _ := td.Apply(dst[i])
		x, y, u, v := s.X, s.Y, d.X, d.Y

		A.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		A.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDFull) {
		return geometry.Homography{}, false
	}
	var V mat.Dense
	svd.VTo(&V)

	// Null vector: right singular vector of the smallest singular value.
	var hn geometry.Homography
	for i := 0; i < 9; i++ {
		hn[i] = V.At(i, 8)
	}

	tdInv, ok := td.Inverse()
	if !ok {
		return geometry.Homography{}, false
	}
	h := tdInv.Mul(hn).Mul(ts)
	if math.Abs(h[8]) < 1e-12 {
		return geometry.Homography{}, false
	}
	return h.Normalize(), true
}

// normalizingTransform moves the centroid of pts to the origin and scales
// their mean distance from it to sqrt(2).
func normalizingTransform(pts []geometry.Point2D) (geometry.Homography, bool) {
	c := geometry.Centroid(pts)
	var mean float64
	for _, p := range pts {
		mean += p.Distance(c)
	}
	mean /= float64(len(pts))
	if mean < 1e-12 {
		return geometry.Homography{}, false
	}
	s := math.Sqrt2 / mean
	return geometry.Homography{s, 0, -s * c.X, 0, s, -s * c.Y, 0, 0, 1}, true
}
