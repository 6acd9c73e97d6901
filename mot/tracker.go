package mot

import (
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Tracker is the full data-association engine: an 8-dim motion filter per
// track, an appearance-gated matching cascade with an IOU fallback stage, and
// Tentative -> Confirmed -> Deleted lifecycle management.
//
// It owns the live track set exclusively. Identities are monotonically
// increasing and never reused.
type Tracker struct {
	maxIOUDistance    float64
	maxAge            int
	nInit             int
	maxCosineDistance float64
	nnBudget          int

	filter *MotionFilter
	tracks []*Track
	nextID int64

	// ids maps track identity -> detection index, rebuilt every frame
	ids      map[int64]int
	bindings []Binding

	instance uuid.UUID
	logger   *slog.Logger
}

// TrackerOption customizes a Tracker
type TrackerOption func(*Tracker)

// WithMaxIOUDistance sets the gate for the IOU fallback stage. Default 0.7.
func WithMaxIOUDistance(d float64) TrackerOption {
	return func(t *Tracker) { t.maxIOUDistance = d }
}

// WithMaxAge sets how many missed frames a confirmed track survives. Default 30.
func WithMaxAge(age int) TrackerOption {
	return func(t *Tracker) { t.maxAge = age }
}

// WithNInit sets how many consecutive hits confirm a tentative track. Default 3.
func WithNInit(n int) TrackerOption {
	return func(t *Tracker) { t.nInit = n }
}

// WithMaxCosineDistance sets the appearance gate of the matching cascade.
// Default 0.2. Independent from the SimpleMapper cost threshold: the two
// scales share no units.
func WithMaxCosineDistance(d float64) TrackerOption {
	return func(t *Tracker) { t.maxCosineDistance = d }
}

// WithNNBudget bounds each track's appearance gallery. Default 100.
func WithNNBudget(budget int) TrackerOption {
	return func(t *Tracker) { t.nnBudget = budget }
}

// WithLogger routes debug output (match/miss/spawn decisions) to the given
// logger. Silent by default.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = logger }
}

// NewTracker creates a tracker with DeepSORT-style defaults
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		maxIOUDistance:    0.7,
		maxAge:            30,
		nInit:             3,
		maxCosineDistance: 0.2,
		nnBudget:          100,
		filter:            NewMotionFilter(),
		nextID:            1,
		ids:               make(map[int64]int),
		instance:          uuid.New(),
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tracks returns the live track set. Read-only view: mutating tracks outside
// Step breaks the engine's invariants.
func (t *Tracker) Tracks() []*Track {
	return t.tracks
}

// Step processes one frame: predict every live track, run the matching
// cascade plus IOU fallback, then update matched tracks, age out missed ones
// and spawn tentative tracks for unseen detections.
func (t *Tracker) Step(detections []Detection) error {
	for _, track := range t.tracks {
		track.Predict(t.filter)
	}

	matches, unmatchedTracks, unmatchedDetections, err := t.match(detections)
	if err != nil {
		return err
	}

	ids := make(map[int64]int, len(matches))
	for _, m := range matches {
		track := t.tracks[m.TrackIdx]
		if err := track.Update(t.filter, detections[m.DetectionIdx]); err != nil {
			return err
		}
		ids[track.ID()] = m.DetectionIdx
	}
	for _, trackIdx := range unmatchedTracks {
		t.tracks[trackIdx].MarkMissed()
		if t.tracks[trackIdx].IsDeleted() {
			t.logger.Debug("track deleted",
				slog.String("instance", t.instance.String()),
				slog.Int64("track", t.tracks[trackIdx].ID()))
		}
	}
	for _, detectionIdx := range unmatchedDetections {
		ids[t.nextID] = detectionIdx
		t.initiateTrack(detections[detectionIdx])
	}

	// Compact the live set
	alive := t.tracks[:0]
	for _, track := range t.tracks {
		if !track.IsDeleted() {
			alive = append(alive, track)
		}
	}
	t.tracks = alive
	t.ids = ids

	t.bindings = t.bindings[:0]
	for _, track := range t.tracks {
		if !track.IsConfirmed() || track.TimeSinceUpdate() != 0 {
			continue
		}
		detectionIdx, ok := t.ids[track.ID()]
		if !ok {
			continue
		}
		t.bindings = append(t.bindings, Binding{
			ID:             track.ID(),
			DetectionIndex: detectionIdx,
			Box:            detections[detectionIdx].Box,
		})
	}
	return nil
}

// Bindings yields identities of confirmed tracks matched in the latest frame,
// paired with the matched detection's bounding box.
func (t *Tracker) Bindings() []Binding {
	return t.bindings
}

func (t *Tracker) match(detections []Detection) (matches []matchPair, unmatchedTracks, unmatchedDetections []int, err error) {
	confirmed := make([]int, 0, len(t.tracks))
	unconfirmed := make([]int, 0)
	for i, track := range t.tracks {
		if track.IsConfirmed() {
			confirmed = append(confirmed, i)
		} else {
			unconfirmed = append(unconfirmed, i)
		}
	}

	// Stage 1: appearance cascade over confirmed tracks, most recently seen
	// buckets first, Mahalanobis-gated.
	matchesA, unmatchedA, unmatchedDets, err := matchingCascade(
		t.gatedAppearanceMetric, t.maxCosineDistance, t.maxAge,
		t.tracks, detections, confirmed)
	if err != nil {
		return nil, nil, nil, err
	}

	// Stage 2: IOU fallback for unconfirmed tracks plus confirmed ones
	// unmatched for exactly one frame.
	iouCandidates := append([]int{}, unconfirmed...)
	remainingA := make([]int, 0, len(unmatchedA))
	for _, k := range unmatchedA {
		if t.tracks[k].TimeSinceUpdate() == 1 {
			iouCandidates = append(iouCandidates, k)
		} else {
			remainingA = append(remainingA, k)
		}
	}
	matchesB, unmatchedB, unmatchedDets, err := minCostMatching(
		iouCost, t.maxIOUDistance, t.tracks, detections, iouCandidates, unmatchedDets)
	if err != nil {
		return nil, nil, nil, err
	}

	matches = append(matchesA, matchesB...)
	sort.Ints(unmatchedB)
	unmatchedTracks = mergeSortedUnique(remainingA, unmatchedB)
	return matches, unmatchedTracks, unmatchedDets, nil
}

// gatedAppearanceMetric computes cosine appearance costs gated by the squared
// Mahalanobis distance against the filter projection. Pairs without usable
// appearance information, and pairs beyond the gate, are forced to an
// effectively infinite cost irrespective of appearance score.
func (t *Tracker) gatedAppearanceMetric(tracks []*Track, detections []Detection, trackIndices, detectionIndices []int) ([][]float64, error) {
	measurements := make([][4]float64, len(detectionIndices))
	for j, detectionIdx := range detectionIndices {
		measurements[j] = detections[detectionIdx].Box.ToXYAH()
	}

	costs := make([][]float64, len(trackIndices))
	for i, trackIdx := range trackIndices {
		track := tracks[trackIdx]
		row := make([]float64, len(detectionIndices))
		for j, detectionIdx := range detectionIndices {
			detection := detections[detectionIdx]
			if !detection.HasFeature() || len(track.gallery) == 0 {
				row[j] = infCost
				continue
			}
			dist, err := track.featureDistance(detection.Feature)
			if err != nil {
				return nil, err
			}
			row[j] = dist
		}

		gating, err := t.filter.GatingDistance(track.mean, track.covariance, measurements)
		if err != nil {
			return nil, errors.Wrapf(err, "can't gate track %d", track.ID())
		}
		for j, g := range gating {
			if g > GatingThreshold {
				row[j] = infCost
			}
		}
		costs[i] = row
	}
	return costs, nil
}

func (t *Tracker) initiateTrack(detection Detection) {
	mean, covariance := t.filter.Initiate(detection.Box.ToXYAH())
	track := newTrack(mean, covariance, t.nextID, t.nInit, t.maxAge, t.nnBudget, detection.Feature)
	t.tracks = append(t.tracks, track)
	t.logger.Debug("track spawned",
		slog.String("instance", t.instance.String()),
		slog.Int64("track", t.nextID),
		slog.String("state", track.State().String()))
	t.nextID++
}

// mergeSortedUnique merges two ascending index slices into one ascending
// slice without duplicates
func mergeSortedUnique(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var v int
		switch {
		case j >= len(b) || (i < len(a) && a[i] <= b[j]):
			v = a[i]
			i++
		default:
			v = b[j]
			j++
		}
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}
