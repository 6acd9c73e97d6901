package mot

// Detection is a single-frame observation: bounding box, detector confidence
// in [0;1] and an optional fixed-dimension appearance descriptor.
// Detections are immutable once created and are addressed only by their
// position within the owning frame's ordered sequence.
type Detection struct {
	// Frame is the index of the frame this detection belongs to
	Frame int
	// Box is the observed bounding box
	Box Rect
	// Confidence is the detector score in [0;1]
	Confidence float64
	// Feature is an optional appearance descriptor (e.g. 128-dim re-id embedding).
	// Nil when the detection source provides no appearance information.
	Feature []float64
}

// NewDetection creates a new detection. The feature slice is not copied: the
// detection source must not mutate it afterwards.
func NewDetection(frame int, box Rect, confidence float64, feature []float64) Detection {
	return Detection{
		Frame:      frame,
		Box:        box,
		Confidence: confidence,
		Feature:    feature,
	}
}

// HasFeature reports whether the detection carries an appearance descriptor
func (d Detection) HasFeature() bool {
	return len(d.Feature) > 0
}
