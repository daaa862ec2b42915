package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/stride-labs/stridecheck/internal/errors"
)

// metaColumns are the non-feature columns of the input table contract:
// subject and task identifiers, phase index, and cycle ordering.
var metaColumns = map[string]bool{
	"subject":       true,
	"task":          true,
	"phase":         true,
	"phase_percent": true,
	"phase_ipsi":    true,
	"cycle":         true,
	"step":          true,
}

// Reader loads phase-indexed tables from Parquet or CSV files through
// an in-memory DuckDB instance. The reader is a thin producer: it
// discovers feature columns and preserves block ordering, nothing more.
type Reader struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// NewReader opens an in-memory DuckDB instance for dataset queries.
func NewReader() (*Reader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("dataset reader: failed to open duckdb: %w", err)
	}
	return &Reader{db: db}, nil
}

// Close releases the underlying DuckDB instance.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.db == nil {
		return nil
	}
	r.closed = true
	return r.db.Close()
}

// LoadTable reads the dataset at path into a PhaseTable. Columns named
// in the metadata set (subject, task, phase, cycle) are excluded from
// the feature list; everything else is treated as a feature column and
// scanned as float64, with SQL NULL mapped to NaN.
func (r *Reader) LoadTable(ctx context.Context, path string) (*PhaseTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dataset reader: context error: %w", err)
	}

	r.mu.RLock()
	if r.closed || r.db == nil {
		r.mu.RUnlock()
		return nil, fmt.Errorf("dataset reader: connection is closed")
	}
	db := r.db
	r.mu.RUnlock()

	query := fmt.Sprintf("SELECT * FROM %s", sourceExpr(path))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewDatasetUnavailable(path, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewDatasetUnavailable(path, err)
	}

	subjectCol, taskCol := -1, -1
	featureCols := make([]int, 0, len(columns))
	features := make([]string, 0, len(columns))
	for i, name := range columns {
		lower := strings.ToLower(name)
		switch lower {
		case "subject":
			subjectCol = i
		case "task":
			taskCol = i
		default:
			if !metaColumns[lower] {
				featureCols = append(featureCols, i)
				features = append(features, name)
			}
		}
	}
	if subjectCol < 0 || taskCol < 0 {
		return nil, errors.NewDatasetUnavailable(path,
			fmt.Errorf("missing required column: need both 'subject' and 'task'"))
	}

	table := NewPhaseTable(features)
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	rowValues := make([]float64, len(featureCols))

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("dataset reader: context error during row iteration: %w", err)
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.NewDatasetUnavailable(path, err)
		}
		subject, err := stringValue(values[subjectCol])
		if err != nil {
			return nil, errors.NewDatasetUnavailable(path, fmt.Errorf("column subject: %w", err))
		}
		task, err := stringValue(values[taskCol])
		if err != nil {
			return nil, errors.NewDatasetUnavailable(path, fmt.Errorf("column task: %w", err))
		}
		for j, c := range featureCols {
			v, err := floatValue(values[c])
			if err != nil {
				return nil, errors.NewDatasetUnavailable(path, fmt.Errorf("column %s: %w", columns[c], err))
			}
			rowValues[j] = v
		}
		if err := table.AppendRow(subject, task, rowValues); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatasetUnavailable(path, err)
	}
	return table, nil
}

// sourceExpr maps a dataset path to a DuckDB table expression.
func sourceExpr(path string) string {
	escaped := strings.ReplaceAll(path, "'", "''")
	switch {
	case strings.HasSuffix(path, ".parquet"):
		return fmt.Sprintf("read_parquet('%s')", escaped)
	case strings.HasSuffix(path, ".csv"):
		return fmt.Sprintf("read_csv_auto('%s')", escaped)
	default:
		return fmt.Sprintf("'%s'", escaped)
	}
}

func stringValue(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func floatValue(v interface{}) (float64, error) {
	switch n := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected numeric value, got %T", v)
	}
}
