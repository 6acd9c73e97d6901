package mot

import (
	"math"

	"github.com/pkg/errors"
)

// CostFunc is a pairwise affinity between a candidate detection and a
// reference one (a detection from the previous frame or a predicted track
// state). Argument order is (candidate, reference); callers must keep it
// consistent since neither variant is symmetric in floating point.
type CostFunc func(next, prev Detection) float64

// LinearCost is the product of the euclidean position delta and the euclidean
// size delta between two bounding boxes. Lower is better, identical boxes
// score 0. Unbounded, measured in squared pixels.
func LinearCost(next, prev Detection) float64 {
	a, b := next.Box, prev.Box

	positionCost := euclideanNorm(float64(a.Left-b.Left), float64(a.Top-b.Top))
	shapeCost := euclideanNorm(float64(a.Width()-b.Width()), float64(a.Height()-b.Height()))

	return positionCost * shapeCost
}

// ExpCost is the exponentially damped affinity between two bounding boxes.
// Position deltas are normalized by the candidate's size and squared, shape
// deltas are normalized by the joint size and NOT squared. Identical boxes
// score exactly 1.0 and the value decays towards 0 with distance, so a
// threshold tuned for LinearCost is meaningless here.
func ExpCost(next, prev Detection) float64 {
	return expCost(next, prev, 0.5, 1.5)
}

// ExpCostWeighted returns an ExpCost variant with custom position/shape weights
func ExpCostWeighted(positionWeight, shapeWeight float64) CostFunc {
	return func(next, prev Detection) float64 {
		return expCost(next, prev, positionWeight, shapeWeight)
	}
}

func expCost(next, prev Detection, positionWeight, shapeWeight float64) float64 {
	a, b := next.Box, prev.Box
	aw, ah := float64(a.Width()), float64(a.Height())
	bw, bh := float64(b.Width()), float64(b.Height())

	dx := float64(a.Left-b.Left) / aw
	dy := float64(a.Top-b.Top) / ah
	positionCost := math.Exp(-positionWeight * (dx*dx + dy*dy))

	dw := math.Abs(aw-bw) / (aw + bw)
	dh := math.Abs(ah-bh) / (ah + bh)
	shapeCost := math.Exp(-shapeWeight * (dw + dh))

	return positionCost * shapeCost
}

// BuildCostMatrix computes the pairwise cost matrix between reference
// detections (rows) and candidate detections (columns).
func BuildCostMatrix(prev, next []Detection, affinity CostFunc) [][]float64 {
	costs := make([][]float64, len(prev))
	for i := range prev {
		row := make([]float64, len(next))
		for j := range next {
			row[j] = affinity(next[j], prev[i])
		}
		costs[i] = row
	}
	return costs
}

// CosineDistance computes 1 - cosine similarity between two appearance
// descriptors, L2-normalizing both first. A dimensionality mismatch is a
// configuration error: the detection source and the re-id model disagree.
func CosineDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Errorf("appearance feature dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1.0, nil
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}
