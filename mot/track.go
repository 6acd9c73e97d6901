package mot

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TrackState is the lifecycle state of a track
type TrackState uint8

const (
	// TrackTentative marks a freshly spawned track that has not yet collected
	// enough consecutive hits to be trusted
	TrackTentative TrackState = iota + 1
	// TrackConfirmed marks an established identity
	TrackConfirmed
	// TrackDeleted marks a track scheduled for removal from the live set
	TrackDeleted
)

func (s TrackState) String() string {
	switch s {
	case TrackTentative:
		return "Tentative"
	case TrackConfirmed:
		return "Confirmed"
	case TrackDeleted:
		return "Deleted"
	}
	return "Unknown"
}

// Track is a single identity hypothesis: motion state, age counters, lifecycle
// state and a bounded appearance gallery. Tracks are exclusively owned and
// mutated by the Tracker; identities are monotonically increasing and never
// reused.
type Track struct {
	id         int64
	mean       *mat.VecDense
	covariance *mat.Dense

	hits            int
	age             int
	timeSinceUpdate int
	state           TrackState

	// gallery holds up to nnBudget appearance descriptors, oldest first
	gallery  [][]float64
	nInit    int
	maxAge   int
	nnBudget int
}

func newTrack(mean *mat.VecDense, covariance *mat.Dense, id int64, nInit, maxAge, nnBudget int, feature []float64) *Track {
	t := &Track{
		id:              id,
		mean:            mean,
		covariance:      covariance,
		hits:            1,
		age:             1,
		timeSinceUpdate: 0,
		state:           TrackTentative,
		nInit:           nInit,
		maxAge:          maxAge,
		nnBudget:        nnBudget,
	}
	if nInit <= 1 {
		t.state = TrackConfirmed
	}
	if len(feature) > 0 {
		t.gallery = append(t.gallery, feature)
	}
	return t
}

// ID returns the track's identity
func (t *Track) ID() int64 {
	return t.id
}

// State returns the track's lifecycle state
func (t *Track) State() TrackState {
	return t.state
}

// Hits returns the number of detections associated to this track so far
func (t *Track) Hits() int {
	return t.hits
}

// TimeSinceUpdate returns the number of predict() calls since the last
// associated detection
func (t *Track) TimeSinceUpdate() int {
	return t.timeSinceUpdate
}

// IsTentative reports whether the track is still awaiting confirmation
func (t *Track) IsTentative() bool {
	return t.state == TrackTentative
}

// IsConfirmed reports whether the track is an established identity
func (t *Track) IsConfirmed() bool {
	return t.state == TrackConfirmed
}

// IsDeleted reports whether the track is scheduled for removal
func (t *Track) IsDeleted() bool {
	return t.state == TrackDeleted
}

// PredictedBox returns the (left, top, width, height) box implied by the
// current state estimate
func (t *Track) PredictedBox() [4]float64 {
	cx := t.mean.AtVec(0)
	cy := t.mean.AtVec(1)
	h := t.mean.AtVec(3)
	w := t.mean.AtVec(2) * h
	return [4]float64{cx - w/2.0, cy - h/2.0, w, h}
}

// Predict advances the motion state one frame. time_since_update increments by
// exactly 1 on every call.
func (t *Track) Predict(filter *MotionFilter) {
	t.mean, t.covariance = filter.Predict(t.mean, t.covariance)
	t.age++
	t.timeSinceUpdate++
}

// Update corrects the motion state with an associated detection, appends its
// appearance feature to the gallery and advances the lifecycle.
// time_since_update resets to 0 only here.
func (t *Track) Update(filter *MotionFilter, detection Detection) error {
	mean, covariance, err := filter.Update(t.mean, t.covariance, detection.Box.ToXYAH())
	if err != nil {
		return errors.Wrapf(err, "can't update track %d", t.id)
	}
	t.mean, t.covariance = mean, covariance

	if detection.HasFeature() {
		if err := t.addFeature(detection.Feature); err != nil {
			return err
		}
	}

	t.hits++
	t.timeSinceUpdate = 0
	if t.state == TrackTentative && t.hits >= t.nInit {
		t.state = TrackConfirmed
	}
	return nil
}

// MarkMissed handles a frame without an associated detection: a tentative
// track dies immediately, a confirmed one survives up to maxAge misses.
func (t *Track) MarkMissed() {
	if t.state == TrackTentative {
		t.state = TrackDeleted
	} else if t.timeSinceUpdate > t.maxAge {
		t.state = TrackDeleted
	}
}

// addFeature appends an appearance descriptor to the gallery, evicting the
// oldest entry beyond the budget
func (t *Track) addFeature(feature []float64) error {
	if len(t.gallery) > 0 && len(t.gallery[0]) != len(feature) {
		return errors.Errorf("track %d: appearance feature dimension mismatch: gallery holds %d-dim, got %d-dim",
			t.id, len(t.gallery[0]), len(feature))
	}
	t.gallery = append(t.gallery, feature)
	if t.nnBudget > 0 && len(t.gallery) > t.nnBudget {
		t.gallery = t.gallery[len(t.gallery)-t.nnBudget:]
	}
	return nil
}

// featureDistance returns the minimum cosine distance between the given
// descriptor and any gallery entry
func (t *Track) featureDistance(feature []float64) (float64, error) {
	minDist := math.Inf(1)
	for _, stored := range t.gallery {
		dist, err := CosineDistance(feature, stored)
		if err != nil {
			return 0, errors.Wrapf(err, "track %d", t.id)
		}
		if dist < minDist {
			minDist = dist
		}
	}
	return minDist, nil
}
