package mot

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SimpleMapper is the stateless-per-frame identity continuation engine: no
// motion model, no lifecycle states. Every frame it matches the new
// detections against the previous frame's via the configured affinity and the
// exact assignment solver; a detection inherits its partner's identity only
// when the matched cost stays strictly under the threshold, otherwise it gets
// a fresh one. Every input detection receives an identity.
type SimpleMapper struct {
	affinity   CostFunc
	costThresh float64

	// idCount is the next identity to hand out, starts at 1 and only grows
	idCount int64
	// ids maps previous-frame detection index -> identity. Entries for
	// indices not touched in a frame persist; indices are frame-local, so the
	// stale entries are dead weight, not a correctness hazard.
	ids map[int]int64

	prev     []Detection
	bindings []Binding

	instance uuid.UUID
	logger   *slog.Logger
}

// SimpleMapperOption customizes a SimpleMapper
type SimpleMapperOption func(*SimpleMapper)

// WithAffinity sets the pairwise cost variant. Default LinearCost. The cost
// threshold is coupled to the chosen variant: the 40000 default only makes
// sense for LinearCost.
func WithAffinity(affinity CostFunc) SimpleMapperOption {
	return func(m *SimpleMapper) { m.affinity = affinity }
}

// WithCostThreshold sets the hard matching gate. Default 40000.
func WithCostThreshold(thresh float64) SimpleMapperOption {
	return func(m *SimpleMapper) { m.costThresh = thresh }
}

// WithMapperLogger routes per-frame cost matrix debug output to the given
// logger. Silent by default.
func WithMapperLogger(logger *slog.Logger) SimpleMapperOption {
	return func(m *SimpleMapper) { m.logger = logger }
}

// NewSimpleMapper creates a mapper with the linear affinity and the default
// threshold of 40000
func NewSimpleMapper(opts ...SimpleMapperOption) *SimpleMapper {
	m := &SimpleMapper{
		affinity:   LinearCost,
		costThresh: 40000,
		idCount:    1,
		ids:        make(map[int]int64),
		instance:   uuid.New(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SimpleMapper) assignID() int64 {
	id := m.idCount
	m.idCount++
	return id
}

// Set computes identities for the next frame's detections given the previous
// frame's. Exposed for callers that manage the previous frame themselves;
// Step is the usual entry point.
func (m *SimpleMapper) Set(next, prev []Detection) error {
	costs := BuildCostMatrix(prev, next, m.affinity)
	rows, cols := SolveAssignment(costs)

	colToRow := make(map[int]int, len(cols))
	for k := range cols {
		colToRow[cols[k]] = rows[k]
	}

	idMap := make(map[int]int64, len(next))
	for j := range next {
		i, paired := colToRow[j]
		if paired && costs[i][j] < m.costThresh {
			if id, ok := m.ids[i]; ok {
				idMap[j] = id
			} else {
				idMap[j] = m.assignID()
			}
		} else {
			idMap[j] = m.assignID()
		}
	}
	for j, id := range idMap {
		m.ids[j] = id
	}

	m.bindings = m.bindings[:0]
	for j := range next {
		m.bindings = append(m.bindings, Binding{
			ID:             idMap[j],
			DetectionIndex: j,
			Box:            next[j].Box,
		})
	}

	if m.logger.Enabled(context.Background(), slog.LevelDebug) {
		m.logger.Debug("cost matrix",
			slog.String("instance", m.instance.String()),
			slog.Int64("id_count", m.idCount),
			slog.String("matrix", fmt.Sprintf("%v", costs)))
	}
	return nil
}

// Step consumes the next frame, using the previously consumed frame as the
// reference set
func (m *SimpleMapper) Step(detections []Detection) error {
	if err := m.Set(detections, m.prev); err != nil {
		return err
	}
	m.prev = detections
	return nil
}

// Get returns the identity computed for the given detection index. An index
// never presented to Set is a precondition violation reported as a lookup
// error.
func (m *SimpleMapper) Get(index int) (int64, error) {
	id, ok := m.ids[index]
	if !ok {
		return 0, errors.Errorf("no identity for detection index %d: set() was not called for its frame", index)
	}
	return id, nil
}

// Bindings returns one identity binding per detection of the latest frame
func (m *SimpleMapper) Bindings() []Binding {
	return m.bindings
}
