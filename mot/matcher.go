package mot

// Binding associates an identity with a detection of the current frame
type Binding struct {
	// ID is the persistent identity
	ID int64
	// DetectionIndex is the detection's position within the current frame's
	// ordered sequence
	DetectionIndex int
	// Box is the matched detection's bounding box
	Box Rect
}

// Matcher is a matching engine: fed one frame of detections at a time, it
// produces identity bindings for that frame. SimpleMapper and Tracker are the
// two interchangeable implementations; pick one per sequence via NewMatcher.
//
// Matchers are stateful and strictly sequential. Parallel sequences need one
// fully isolated instance each.
type Matcher interface {
	// Step consumes the next frame's ordered detection sequence
	Step(detections []Detection) error
	// Bindings returns the identity bindings computed by the latest Step.
	// Valid until the next Step call.
	Bindings() []Binding
}
