// Package errors provides explicit, human-readable error types for stridecheck.
// All errors must include a Reason and Suggestion for actionable feedback.
package errors

import (
	"fmt"
	"strings"
)

// StrideError is the base error type for all stridecheck errors.
// Every error must provide a human-readable reason and suggestion.
type StrideError struct {
	Code       ErrorCode
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

// ErrorCode represents the category of error for exit code mapping.
type ErrorCode int

const (
	CodeValidation ErrorCode = 1
	CodeConfig     ErrorCode = 2
	CodeData       ErrorCode = 3
	CodeInternal   ErrorCode = 4
)

func (e *StrideError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *StrideError) Unwrap() error {
	return e.Cause
}

// ExitCode maps the error to its process exit code. Promoted to every
// error type embedding StrideError.
func (e *StrideError) ExitCode() ErrorCode {
	return e.Code
}

// ErrConfig is returned when a range specification or configuration
// document is malformed or internally inconsistent. Unrecoverable:
// the load aborts and every subsequent validation is invalidated.
type ErrConfig struct {
	StrideError
	Source string
}

// NewConfig creates a new ErrConfig for a malformed specification.
func NewConfig(source, reason string) *ErrConfig {
	return &ErrConfig{
		StrideError: StrideError{
			Code:       CodeConfig,
			Message:    fmt.Sprintf("invalid range specification: %s", source),
			Reason:     reason,
			Suggestion: "fix the specification document and rerun 'stridecheck ranges show' to verify",
		},
		Source: source,
	}
}

// NewConfigCause wraps an underlying parse error as an ErrConfig.
func NewConfigCause(source string, cause error) *ErrConfig {
	return &ErrConfig{
		StrideError: StrideError{
			Code:       CodeConfig,
			Message:    fmt.Sprintf("cannot load range specification: %s", source),
			Reason:     "the document could not be parsed",
			Suggestion: "check the file is valid YAML with a top-level 'tasks' key",
			Cause:      cause,
		},
		Source: source,
	}
}

// NewInvalidInterval creates an ErrConfig for an interval with min > max.
func NewInvalidInterval(task string, phase int, variable string, min, max float64) *ErrConfig {
	return &ErrConfig{
		StrideError: StrideError{
			Code:       CodeConfig,
			Message:    "invalid interval in range specification",
			Reason:     fmt.Sprintf("%s / phase %d / %s: min %.4g > max %.4g", task, phase, variable, min, max),
			Suggestion: "swap or correct the bounds; a one-sided constraint may use null for the open side",
		},
	}
}

// ErrShape is returned when a subject-task block's row count is not an
// exact multiple of the points-per-cycle constant. The unit is skipped
// or flagged, never silently truncated, and the batch continues.
type ErrShape struct {
	StrideError
	Subject        string
	Task           string
	Rows           int
	PointsPerCycle int
	Remainder      int
}

// NewShape creates a new ErrShape reporting the actual row count and remainder.
func NewShape(subject, task string, rows, pointsPerCycle int) *ErrShape {
	rem := rows % pointsPerCycle
	return &ErrShape{
		StrideError: StrideError{
			Code:       CodeData,
			Message:    fmt.Sprintf("non-compliant cycle length for %s/%s", subject, task),
			Reason:     fmt.Sprintf("%d rows is not a multiple of %d points per cycle (%d %% %d = %d)", rows, pointsPerCycle, rows, pointsPerCycle, rem),
			Suggestion: "re-run phase normalization for this subject-task pair before validating",
		},
		Subject:        subject,
		Task:           task,
		Rows:           rows,
		PointsPerCycle: pointsPerCycle,
		Remainder:      rem,
	}
}

// ErrMissingTask is returned when the range specification has no entry
// for the task being validated. Surfaced to the caller, never
// substituted with a default: validating against the wrong spec is a
// configuration bug.
type ErrMissingTask struct {
	StrideError
	Task  string
	Known []string
}

// NewMissingTask creates a new ErrMissingTask.
func NewMissingTask(task string, known []string) *ErrMissingTask {
	return &ErrMissingTask{
		StrideError: StrideError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("no ranges defined for task: %s", task),
			Reason:     fmt.Sprintf("specification covers: %s", strings.Join(known, ", ")),
			Suggestion: "add the task to the range specification or layer an override with 'stridecheck ranges merge'",
		},
		Task:  task,
		Known: known,
	}
}

// ErrUnitNotFound is returned when a subject-task pair has no rows in
// the input table.
type ErrUnitNotFound struct {
	StrideError
	Subject string
	Task    string
}

// NewUnitNotFound creates a new ErrUnitNotFound.
func NewUnitNotFound(subject, task string) *ErrUnitNotFound {
	return &ErrUnitNotFound{
		StrideError: StrideError{
			Code:       CodeData,
			Message:    fmt.Sprintf("no rows for %s/%s", subject, task),
			Reason:     "the input table has no block for this subject-task pair",
			Suggestion: "check the subject and task identifiers against the dataset",
		},
		Subject: subject,
		Task:    task,
	}
}

// ErrDatasetUnavailable is returned when the input dataset cannot be
// opened or queried.
type ErrDatasetUnavailable struct {
	StrideError
	Path string
}

// NewDatasetUnavailable creates a new ErrDatasetUnavailable.
func NewDatasetUnavailable(path string, cause error) *ErrDatasetUnavailable {
	return &ErrDatasetUnavailable{
		StrideError: StrideError{
			Code:       CodeData,
			Message:    fmt.Sprintf("cannot read dataset: %s", path),
			Reason:     "the file could not be opened or queried",
			Suggestion: "check the path and that the file is Parquet or CSV with subject/task/phase columns",
			Cause:      cause,
		},
		Path: path,
	}
}

// ErrNonContiguous is returned when rows for a subject-task pair are
// interleaved with rows of another pair, violating the input contract.
type ErrNonContiguous struct {
	StrideError
	Subject string
	Task    string
}

// NewNonContiguous creates a new ErrNonContiguous.
func NewNonContiguous(subject, task string) *ErrNonContiguous {
	return &ErrNonContiguous{
		StrideError: StrideError{
			Code:       CodeData,
			Message:    fmt.Sprintf("non-contiguous rows for %s/%s", subject, task),
			Reason:     "rows for one subject-task pair must form a single contiguous block",
			Suggestion: "sort the table by subject, task, and cycle before validating",
		},
		Subject: subject,
		Task:    task,
	}
}

// NewRowWidth creates an error for a row whose value count does not
// match the table's feature columns.
func NewRowWidth(subject, task string, got, want int) *StrideError {
	return &StrideError{
		Code:       CodeData,
		Message:    fmt.Sprintf("malformed row for %s/%s", subject, task),
		Reason:     fmt.Sprintf("row has %d values but the table has %d feature columns", got, want),
		Suggestion: "check that every dataset row carries the same columns",
	}
}

// ErrRunNotFound is returned when a persisted validation run does not exist.
type ErrRunNotFound struct {
	StrideError
	RunID string
}

// NewRunNotFound creates a new ErrRunNotFound.
func NewRunNotFound(runID string) *ErrRunNotFound {
	return &ErrRunNotFound{
		StrideError: StrideError{
			Code:       CodeData,
			Message:    fmt.Sprintf("run not found: %s", runID),
			Reason:     "no persisted validation run with this ID",
			Suggestion: "list stored runs with 'stridecheck report list'",
		},
		RunID: runID,
	}
}

// NewMigrationFailed creates an error for a failed schema migration.
func NewMigrationFailed(name string, cause error) *StrideError {
	return &StrideError{
		Code:       CodeInternal,
		Message:    fmt.Sprintf("migration failed: %s", name),
		Reason:     "the schema migration could not be applied",
		Suggestion: "check database connectivity and permissions",
		Cause:      cause,
	}
}
