// Package dataset provides the phase-indexed input table model, the
// DuckDB-backed reader that loads it from Parquet or CSV, and the cycle
// extractor that reshapes subject-task blocks into 3D tensors.
package dataset

import (
	"github.com/stride-labs/stridecheck/internal/errors"
)

// PointsPerCycle is the canonical number of samples in one
// phase-normalized cycle, spanning 0-100% of the cycle.
const PointsPerCycle = 150

// SubjectTask identifies one validation unit.
type SubjectTask struct {
	Subject string
	Task    string
}

// PhaseTable is a flat phase-indexed table: one row per phase sample,
// grouped into contiguous subject-task blocks, one column per
// biomechanical feature. Feature values are stored row-major in a
// single backing slice so that block extraction is a contiguous
// operation, not a per-row regrouping.
type PhaseTable struct {
	features []string
	index    map[string]int
	blocks   []block
	data     []float64 // row-major: len == rows * len(features)
	rows     int
}

type block struct {
	unit  SubjectTask
	start int // first row
	rows  int
}

// NewPhaseTable creates an empty table with the given feature columns.
func NewPhaseTable(features []string) *PhaseTable {
	idx := make(map[string]int, len(features))
	for i, f := range features {
		idx[f] = i
	}
	return &PhaseTable{
		features: append([]string(nil), features...),
		index:    idx,
	}
}

// Features returns the feature column names in table order.
func (t *PhaseTable) Features() []string {
	return t.features
}

// FeatureIndex returns the column index of the feature, or -1.
func (t *PhaseTable) FeatureIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Rows returns the total number of rows.
func (t *PhaseTable) Rows() int {
	return t.rows
}

// AppendRow adds one phase sample for a subject-task pair. Rows for one
// pair must arrive as a single contiguous run; a pair reappearing after
// another pair violates the input contract and fails with
// ErrNonContiguous. values must have one entry per feature column.
func (t *PhaseTable) AppendRow(subject, task string, values []float64) error {
	if len(values) != len(t.features) {
		return errors.NewRowWidth(subject, task, len(values), len(t.features))
	}
	unit := SubjectTask{Subject: subject, Task: task}
	n := len(t.blocks)
	if n == 0 || t.blocks[n-1].unit != unit {
		for _, b := range t.blocks {
			if b.unit == unit {
				return errors.NewNonContiguous(subject, task)
			}
		}
		t.blocks = append(t.blocks, block{unit: unit, start: t.rows})
		n++
	}
	t.data = append(t.data, values...)
	t.blocks[n-1].rows++
	t.rows++
	return nil
}

// Units returns the subject-task pairs in table order.
func (t *PhaseTable) Units() []SubjectTask {
	units := make([]SubjectTask, len(t.blocks))
	for i, b := range t.blocks {
		units[i] = b.unit
	}
	return units
}

// blockFor returns the contiguous block for a subject-task pair.
func (t *PhaseTable) blockFor(subject, task string) (block, bool) {
	unit := SubjectTask{Subject: subject, Task: task}
	for _, b := range t.blocks {
		if b.unit == unit {
			return b, true
		}
	}
	return block{}, false
}
