// Package observability provides structured logging for validation runs.
//
// Every validated subject-task unit emits: run_id, subject, task, step
// count, feature count, violation count, duration, and error (if any).
package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// RunLogEntry contains the required fields for unit logging.
type RunLogEntry struct {
	// RunID identifies the batch run this unit belongs to.
	// Required: every unit must be attributed to a run.
	RunID string

	// Subject and Task identify the validation unit.
	Subject string
	Task    string

	// Steps is the number of cycles validated.
	Steps int

	// Features is the number of evaluated features.
	Features int

	// Violations is the number of violating (step, feature) pairs.
	Violations int

	// Duration is how long the unit took to validate.
	// Must be non-negative.
	Duration time.Duration

	// Outcome is the result status: "processed", "shape_skipped", "failed".
	Outcome string

	// Error contains the error message if the unit failed or was skipped.
	Error string
}

// Validate checks that all required fields are present.
func (e *RunLogEntry) Validate() error {
	if e.RunID == "" {
		return fmt.Errorf("observability: run_id is required")
	}
	if e.Task == "" {
		return fmt.Errorf("observability: task is required")
	}
	if e.Duration < 0 {
		return fmt.Errorf("observability: duration cannot be negative")
	}
	return nil
}

// RunLogger is the interface for validation run logging.
type RunLogger interface {
	// LogUnit logs one subject-task validation event.
	// Returns an error if logging fails or the entry is invalid.
	LogUnit(ctx context.Context, entry RunLogEntry) error

	// AuditSummary returns aggregated audit statistics.
	AuditSummary() *AuditSummary
}

// AuditSummary represents aggregated audit statistics.
type AuditSummary struct {
	ProcessedCount    int           `json:"processed_count"`
	SkippedCount      int           `json:"skipped_count"`
	FailedCount       int           `json:"failed_count"`
	TopFailureReasons []FailureStat `json:"top_failure_reasons"`
	TopValidatedTasks []TaskCount   `json:"top_validated_tasks"`
}

// FailureStat represents failure reason statistics.
type FailureStat struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// TaskCount represents per-task unit counts.
type TaskCount struct {
	Task  string `json:"task"`
	Count int    `json:"count"`
}

// jsonLogOutput is the structured format for JSON logs.
type jsonLogOutput struct {
	Timestamp  string `json:"timestamp"`
	Level      string `json:"level"`
	RunID      string `json:"run_id"`
	Subject    string `json:"subject,omitempty"`
	Task       string `json:"task"`
	Steps      int    `json:"steps"`
	Features   int    `json:"features"`
	Violations int    `json:"violations"`
	DurationMs int64  `json:"duration_ms"`
	Outcome    string `json:"outcome,omitempty"`
	Error      string `json:"error,omitempty"`
}

// JSONLogger implements RunLogger with JSON line output.
type JSONLogger struct {
	writer  io.Writer
	entries []RunLogEntry
	mu      sync.RWMutex
}

// NewJSONLogger creates a new JSON logger writing to the given writer.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		writer:  w,
		entries: make([]RunLogEntry, 0),
	}
}

// LogUnit logs one validation event as JSON.
func (l *JSONLogger) LogUnit(ctx context.Context, entry RunLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	level := "info"
	if entry.Error != "" {
		level = "error"
	}
	output := jsonLogOutput{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Level:      level,
		RunID:      entry.RunID,
		Subject:    entry.Subject,
		Task:       entry.Task,
		Steps:      entry.Steps,
		Features:   entry.Features,
		Violations: entry.Violations,
		DurationMs: entry.Duration.Milliseconds(),
		Outcome:    entry.Outcome,
		Error:      entry.Error,
	}

	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("observability: failed to marshal log: %w", err)
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("observability: failed to write log: %w", err)
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
	return nil
}

// AuditSummary returns aggregated audit statistics.
func (l *JSONLogger) AuditSummary() *AuditSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return summarize(l.entries)
}

func summarize(entries []RunLogEntry) *AuditSummary {
	summary := &AuditSummary{
		TopFailureReasons: []FailureStat{},
		TopValidatedTasks: []TaskCount{},
	}
	failureReasons := make(map[string]int)
	taskCounts := make(map[string]int)

	for _, entry := range entries {
		switch entry.Outcome {
		case "shape_skipped":
			summary.SkippedCount++
		case "failed":
			summary.FailedCount++
		default:
			summary.ProcessedCount++
		}
		if entry.Error != "" {
			failureReasons[entry.Error]++
		}
		taskCounts[entry.Task]++
	}

	for reason, count := range failureReasons {
		summary.TopFailureReasons = append(summary.TopFailureReasons, FailureStat{Reason: reason, Count: count})
	}
	sort.Slice(summary.TopFailureReasons, func(i, j int) bool {
		return summary.TopFailureReasons[i].Count > summary.TopFailureReasons[j].Count
	})
	if len(summary.TopFailureReasons) > 5 {
		summary.TopFailureReasons = summary.TopFailureReasons[:5]
	}

	for task, count := range taskCounts {
		summary.TopValidatedTasks = append(summary.TopValidatedTasks, TaskCount{Task: task, Count: count})
	}
	sort.Slice(summary.TopValidatedTasks, func(i, j int) bool {
		return summary.TopValidatedTasks[i].Count > summary.TopValidatedTasks[j].Count
	})
	if len(summary.TopValidatedTasks) > 5 {
		summary.TopValidatedTasks = summary.TopValidatedTasks[:5]
	}
	return summary
}

// NoopLogger is a logger that discards all logs.
// Useful for testing or when logging is disabled.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// LogUnit does nothing and always succeeds.
func (l *NoopLogger) LogUnit(ctx context.Context, entry RunLogEntry) error {
	return nil
}

// AuditSummary returns an empty summary for the no-op logger.
func (l *NoopLogger) AuditSummary() *AuditSummary {
	return &AuditSummary{
		TopFailureReasons: []FailureStat{},
		TopValidatedTasks: []TaskCount{},
	}
}

// PersistentLogger implements RunLogger with database persistence, so
// the audit trail survives process restarts. Entries land in the
// validation_audit table; an optional writer mirrors them as JSON lines.
type PersistentLogger struct {
	db     *sql.DB
	writer io.Writer
	// insertStmt uses the backend's placeholder style.
	insertStmt string
}

const (
	sqliteAuditInsert = `
		INSERT INTO validation_audit (
			run_id, subject, task, steps, features, violations,
			duration_ms, outcome, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	postgresAuditInsert = `
		INSERT INTO validation_audit (
			run_id, subject, task, steps, features, violations,
			duration_ms, outcome, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
)

func newPersistentLogger(db *sql.DB, stmt string, w io.Writer) (*PersistentLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("observability: database connection is required for persistent logging")
	}
	return &PersistentLogger{db: db, writer: w, insertStmt: stmt}, nil
}

// NewPersistentLogger creates a logger that persists audit entries,
// using SQLite-style placeholders.
func NewPersistentLogger(db *sql.DB) (*PersistentLogger, error) {
	return newPersistentLogger(db, sqliteAuditInsert, nil)
}

// NewPersistentLoggerWithWriter creates a SQLite-backed logger that
// persists entries and mirrors them to a writer.
func NewPersistentLoggerWithWriter(db *sql.DB, w io.Writer) (*PersistentLogger, error) {
	return newPersistentLogger(db, sqliteAuditInsert, w)
}

// NewPostgresPersistentLogger creates a logger that persists audit
// entries using PostgreSQL-style placeholders.
func NewPostgresPersistentLogger(db *sql.DB) (*PersistentLogger, error) {
	return newPersistentLogger(db, postgresAuditInsert, nil)
}

// NewPostgresPersistentLoggerWithWriter creates a PostgreSQL-backed
// logger that persists entries and mirrors them to a writer.
func NewPostgresPersistentLoggerWithWriter(db *sql.DB, w io.Writer) (*PersistentLogger, error) {
	return newPersistentLogger(db, postgresAuditInsert, w)
}

// LogUnit persists one validation event.
func (l *PersistentLogger) LogUnit(ctx context.Context, entry RunLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	_, err := l.db.ExecContext(ctx, l.insertStmt,
		entry.RunID,
		entry.Subject,
		entry.Task,
		entry.Steps,
		entry.Features,
		entry.Violations,
		entry.Duration.Milliseconds(),
		entry.Outcome,
		entry.Error,
	)
	if err != nil {
		return fmt.Errorf("observability: failed to persist audit log: %w", err)
	}

	if l.writer != nil {
		level := "info"
		if entry.Error != "" {
			level = "error"
		}
		output := jsonLogOutput{
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Level:      level,
			RunID:      entry.RunID,
			Subject:    entry.Subject,
			Task:       entry.Task,
			Steps:      entry.Steps,
			Features:   entry.Features,
			Violations: entry.Violations,
			DurationMs: entry.Duration.Milliseconds(),
			Outcome:    entry.Outcome,
			Error:      entry.Error,
		}
		if data, err := json.Marshal(output); err == nil {
			l.writer.Write(data)
			l.writer.Write([]byte("\n"))
		}
	}
	return nil
}

// AuditSummary returns aggregated audit statistics from the database.
func (l *PersistentLogger) AuditSummary() *AuditSummary {
	summary := &AuditSummary{
		TopFailureReasons: []FailureStat{},
		TopValidatedTasks: []TaskCount{},
	}
	ctx := context.Background()

	row := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM validation_audit WHERE outcome = 'processed' OR outcome = ''
	`)
	row.Scan(&summary.ProcessedCount)

	row = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM validation_audit WHERE outcome = 'shape_skipped'
	`)
	row.Scan(&summary.SkippedCount)

	row = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM validation_audit WHERE outcome = 'failed'
	`)
	row.Scan(&summary.FailedCount)

	rows, err := l.db.QueryContext(ctx, `
		SELECT error_message, COUNT(*) as cnt
		FROM validation_audit
		WHERE error_message IS NOT NULL AND error_message != ''
		GROUP BY error_message
		ORDER BY cnt DESC
		LIMIT 5
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var reason string
			var count int
			if rows.Scan(&reason, &count) == nil {
				summary.TopFailureReasons = append(summary.TopFailureReasons, FailureStat{Reason: reason, Count: count})
			}
		}
	}

	rows, err = l.db.QueryContext(ctx, `
		SELECT task, COUNT(*) as cnt
		FROM validation_audit
		GROUP BY task
		ORDER BY cnt DESC
		LIMIT 5
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var task string
			var count int
			if rows.Scan(&task, &count) == nil {
				summary.TopValidatedTasks = append(summary.TopValidatedTasks, TaskCount{Task: task, Count: count})
			}
		}
	}
	return summary
}
