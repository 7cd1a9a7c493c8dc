package locator

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Backend names.
const (
	BackendORB  = "orb"
	BackendSIFT = "sift"
)

// Extractor finds keypoints and computes their descriptors.
type Extractor interface {
	DetectAndCompute(img gocv.Mat) ([]gocv.KeyPoint, gocv.Mat)
	Close() error
}

// Matcher finds the k nearest train descriptors for every query descriptor.
type Matcher interface {
	KnnMatch(query, train gocv.Mat, k int) [][]gocv.DMatch
	Close() error
}

// FeatureBackend creates matching Extractor and Matcher instances. The
// native objects behind them are not safe for concurrent use, so callers
// create fresh ones per operation and close them afterwards.
type FeatureBackend interface {
	Name() string
	NewExtractor() Extractor
	NewMatcher() Matcher
}

// BackendByName returns the backend registered under name.
func BackendByName(name string) (FeatureBackend, error) {
	switch name {
	case BackendORB, "":
		return ORB{}, nil
	case BackendSIFT:
		return SIFT{}, nil
	default:
		return nil, fmt.Errorf("unknown feature backend %q", name)
	}
}

// ORB pairs binary ORB descriptors with a brute force Hamming matcher.
type ORB struct{}

func (ORB) Name() string { return BackendORB }

func (ORB) NewExtractor() Extractor {
	return &orbExtractor{orb: gocv.NewORB()}
}

func (ORB) NewMatcher() Matcher {
	return &bfMatcher{bf: gocv.NewBFMatcherWithParams(gocv.NormHamming, false)}
}

// SIFT pairs float SIFT descriptors with a FLANN kd-tree matcher.
type SIFT struct{}

func (SIFT) Name() string { return BackendSIFT }

func (SIFT) NewExtractor() Extractor {
	return &siftExtractor{sift: gocv.NewSIFT()}
}

func (SIFT) NewMatcher() Matcher {
	return &flannMatcher{flann: gocv.NewFlannBasedMatcher()}
}

type orbExtractor struct {
	orb gocv.ORB
}

func (e *orbExtractor) DetectAndCompute(img gocv.Mat) ([]gocv.KeyPoint, gocv.Mat) {
	mask := gocv.NewMat()
	defer mask.Close()
	return e.orb.DetectAndCompute(img, mask)
}

func (e *orbExtractor) Close() error { return e.orb.Close() }

type siftExtractor struct {
	sift gocv.SIFT
}

func (e *siftExtractor) DetectAndCompute(img gocv.Mat) ([]gocv.KeyPoint, gocv.Mat) {
	mask := gocv.NewMat()
	defer mask.Close()
	return e.sift.DetectAndCompute(img, mask)
}

func (e *siftExtractor) Close() error { return e.sift.Close() }

type bfMatcher struct {
	bf gocv.BFMatcher
}

func (m *bfMatcher) KnnMatch(query, train gocv.Mat, k int) [][]gocv.DMatch {
	return m.bf.KnnMatch(query, train, k)
}

func (m *bfMatcher) Close() error { return m.bf.Close() }

type flannMatcher struct {
	flann gocv.FlannBasedMatcher
}

func (m *flannMatcher) KnnMatch(query, train gocv.Mat, k int) [][]gocv.DMatch {
	return m.flann.KnnMatch(query, train, k)
}

func (m *flannMatcher) Close() error { return m.flann.Close() }

// GoodMatches applies the ratio test to k=2 nearest neighbour results and
// returns the best match of every query that passes. Queries with fewer than
// two neighbours cannot be judged and are dropped.
func GoodMatches(knn [][]gocv.DMatch, ratio float64) []gocv.DMatch {
	var good []gocv.DMatch
	for _, m := range knn {
		if len(m) < 2 {
			continue
		}
		if m[0].Distance < ratio*m[1].Distance {
			good = append(good, m[0])
		}
	}
	return good
}
