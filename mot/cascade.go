package mot

import "sort"

// infCost marks a gated (non-assignable) entry in a cost matrix. Kept finite
// so the solver stays numerically happy; gating is enforced by comparing
// solved pairs against the stage threshold afterwards.
const infCost = 1e5

// gateEpsilon lifts clamped entries just above the stage threshold
const gateEpsilon = 1e-5

// matchPair associates a track index with a detection index, both relative to
// the caller's slices.
type matchPair struct {
	TrackIdx     int
	DetectionIdx int
}

// distanceMetric computes the stage cost matrix for the given track/detection
// index subsets. Row i corresponds to trackIndices[i], column j to
// detectionIndices[j].
type distanceMetric func(tracks []*Track, detections []Detection, trackIndices, detectionIndices []int) ([][]float64, error)

// minCostMatching solves one matching stage: build the cost matrix, clamp
// entries at or above maxDistance, solve the assignment exactly and reject
// solved pairs that violate the gate. Any cost at or above maxDistance is
// non-assignable regardless of being the matrix minimum.
func minCostMatching(
	metric distanceMetric,
	maxDistance float64,
	tracks []*Track,
	detections []Detection,
	trackIndices, detectionIndices []int,
) (matches []matchPair, unmatchedTracks, unmatchedDetections []int, err error) {
	matches = []matchPair{}
	if len(trackIndices) == 0 || len(detectionIndices) == 0 {
		// Nothing to assign, a valid quiescent state
		return matches, append([]int{}, trackIndices...), append([]int{}, detectionIndices...), nil
	}

	costs, err := metric(tracks, detections, trackIndices, detectionIndices)
	if err != nil {
		return nil, nil, nil, err
	}
	clamped := make([][]float64, len(costs))
	for i, row := range costs {
		clamped[i] = make([]float64, len(row))
		for j, c := range row {
			if c >= maxDistance {
				c = maxDistance + gateEpsilon
			}
			clamped[i][j] = c
		}
	}

	rows, cols := SolveAssignment(clamped)
	rowToCol := make(map[int]int, len(rows))
	colToRow := make(map[int]int, len(cols))
	for k := range rows {
		rowToCol[rows[k]] = cols[k]
		colToRow[cols[k]] = rows[k]
	}

	for i, trackIdx := range trackIndices {
		j, ok := rowToCol[i]
		if !ok || costs[i][j] >= maxDistance {
			unmatchedTracks = append(unmatchedTracks, trackIdx)
			continue
		}
		matches = append(matches, matchPair{TrackIdx: trackIdx, DetectionIdx: detectionIndices[j]})
	}
	for j, detectionIdx := range detectionIndices {
		i, ok := colToRow[j]
		if !ok || costs[i][j] >= maxDistance {
			unmatchedDetections = append(unmatchedDetections, detectionIdx)
		}
	}
	return matches, unmatchedTracks, unmatchedDetections, nil
}

// matchingCascade runs minCostMatching over ascending time_since_update
// buckets so that recently seen tracks get first pick of the detections.
// Unmatched detections flow forward to the next bucket.
func matchingCascade(
	metric distanceMetric,
	maxDistance float64,
	cascadeDepth int,
	tracks []*Track,
	detections []Detection,
	trackIndices []int,
) (matches []matchPair, unmatchedTracks, unmatchedDetections []int, err error) {
	matches = []matchPair{}
	unmatchedDetections = make([]int, len(detections))
	for i := range detections {
		unmatchedDetections[i] = i
	}

	matched := make(map[int]struct{}, len(trackIndices))
	for level := 0; level < cascadeDepth; level++ {
		if len(unmatchedDetections) == 0 {
			break
		}
		bucket := make([]int, 0)
		for _, k := range trackIndices {
			if tracks[k].TimeSinceUpdate() == 1+level {
				bucket = append(bucket, k)
			}
		}
		if len(bucket) == 0 {
			continue
		}
		levelMatches, _, remaining, merr := minCostMatching(
			metric, maxDistance, tracks, detections, bucket, unmatchedDetections)
		if merr != nil {
			return nil, nil, nil, merr
		}
		for _, m := range levelMatches {
			matched[m.TrackIdx] = struct{}{}
		}
		matches = append(matches, levelMatches...)
		unmatchedDetections = remaining
	}

	for _, k := range trackIndices {
		if _, ok := matched[k]; !ok {
			unmatchedTracks = append(unmatchedTracks, k)
		}
	}
	sort.Ints(unmatchedTracks)
	return matches, unmatchedTracks, unmatchedDetections, nil
}

// iouCost is the (1 - IOU) distance between predicted track boxes and
// detection boxes. Tracks unseen for more than one frame carry no usable
// prediction for overlap matching and are gated outright.
func iouCost(tracks []*Track, detections []Detection, trackIndices, detectionIndices []int) ([][]float64, error) {
	costs := make([][]float64, len(trackIndices))
	for i, trackIdx := range trackIndices {
		row := make([]float64, len(detectionIndices))
		if tracks[trackIdx].TimeSinceUpdate() > 1 {
			for j := range row {
				row[j] = infCost
			}
			costs[i] = row
			continue
		}
		predicted := tracks[trackIdx].PredictedBox()
		for j, detectionIdx := range detectionIndices {
			row[j] = 1.0 - iouTLWH(predicted, detections[detectionIdx].Box.ToTLWH())
		}
		costs[i] = row
	}
	return costs, nil
}
