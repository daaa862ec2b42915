package dataset

import (
	"github.com/stride-labs/stridecheck/internal/errors"
)

// Tensor is a 3D cycle tensor: cycle × phase point × feature, backed by
// one contiguous slice. Owned by the extraction call that produced it;
// it holds no reference back to the source table.
type Tensor struct {
	Cycles   int
	Points   int
	Features int
	Data     []float64
}

// At returns the value at (cycle, point, feature).
func (t *Tensor) At(cycle, point, feature int) float64 {
	return t.Data[(cycle*t.Points+point)*t.Features+feature]
}

// Extract reshapes the subject-task block of a flat phase-indexed table
// into a cycle tensor. The block's row count must be an exact multiple
// of pointsPerCycle; otherwise extraction fails with ErrShape reporting
// the actual count and remainder, and the unit is skipped rather than
// silently truncated.
//
// Requested features absent from the table are dropped from the output
// tensor and from the returned feature list, not filled with
// placeholders. Callers must use the returned list, never assume
// positional identity with the request.
//
// The selected columns are copied into the tensor in one pass over the
// block, keeping cycles aligned across features by construction.
func Extract(table *PhaseTable, subject, task string, features []string, pointsPerCycle int) (*Tensor, []string, error) {
	if pointsPerCycle <= 0 {
		pointsPerCycle = PointsPerCycle
	}
	b, ok := table.blockFor(subject, task)
	if !ok {
		return nil, nil, errors.NewUnitNotFound(subject, task)
	}
	if b.rows%pointsPerCycle != 0 {
		return nil, nil, errors.NewShape(subject, task, b.rows, pointsPerCycle)
	}

	// Resolve requested features to table columns, dropping absentees.
	kept := make([]string, 0, len(features))
	cols := make([]int, 0, len(features))
	for _, f := range features {
		if i := table.FeatureIndex(f); i >= 0 {
			kept = append(kept, f)
			cols = append(cols, i)
		}
	}

	cycles := b.rows / pointsPerCycle
	out := &Tensor{
		Cycles:   cycles,
		Points:   pointsPerCycle,
		Features: len(kept),
		Data:     make([]float64, b.rows*len(kept)),
	}
	width := len(table.features)
	for r := 0; r < b.rows; r++ {
		src := (b.start + r) * width
		dst := r * len(kept)
		for j, c := range cols {
			out.Data[dst+j] = table.data[src+c]
		}
	}
	return out, kept, nil
}
