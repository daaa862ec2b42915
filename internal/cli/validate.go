package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stride-labs/stridecheck/internal/batch"
	"github.com/stride-labs/stridecheck/internal/dataset"
	"github.com/stride-labs/stridecheck/internal/observability"
	"github.com/stride-labs/stridecheck/internal/ranges"
	"github.com/stride-labs/stridecheck/internal/report"
	"github.com/stride-labs/stridecheck/internal/storage"
	"github.com/stride-labs/stridecheck/pkg/models"
)

func (c *CLI) newValidateCmd() *cobra.Command {
	var (
		datasetPath string
		subject     string
		task        string
		noPersist   bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a dataset against the range specification",
		Long: `Validate every subject-task unit of a phase-indexed dataset against
the configured range specification.

Shape problems skip the affected unit; the batch continues and the
scorecard reports processed, shape-skipped, and failed counts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), datasetPath, subject, task, noPersist)
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "dataset path (overrides config)")
	cmd.Flags().StringVar(&subject, "subject", "", "validate a single subject")
	cmd.Flags().StringVar(&task, "task", "", "validate a single task")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "skip run persistence")
	return cmd
}

func (c *CLI) runValidate(ctx context.Context, datasetPath, subject, task string, noPersist bool) error {
	store, err := c.loadRangeStore()
	if err != nil {
		// A bad range specification invalidates the whole batch before
		// any unit runs: report the abort, never partial results.
		if c.jsonOutput {
			_ = c.outputJSON(&models.ValidationReport{
				GeneratedAt: time.Now().UTC(),
				Scorecard:   models.Scorecard{ConfigAbort: true},
			})
		}
		return err
	}

	path := datasetPath
	if path == "" {
		path = c.cfg.Dataset.Path
	}
	if path == "" {
		return fmt.Errorf("no dataset configured: pass --dataset or set dataset.path")
	}

	reader, err := dataset.NewReader()
	if err != nil {
		return err
	}
	defer reader.Close()

	c.debugf("loading dataset %s\n", path)
	table, err := reader.LoadTable(ctx, path)
	if err != nil {
		return err
	}

	units := selectUnits(table, subject, task)

	var mirror io.Writer
	if c.debug {
		mirror = os.Stderr
	}

	var logger observability.RunLogger = observability.NewNoopLogger()
	var repo storage.RunRepository
	var closeRepo func() error
	if !noPersist {
		repo, logger, closeRepo, err = c.openStorage(ctx, mirror)
		if err != nil {
			return err
		}
		if closeRepo != nil {
			defer closeRepo()
		}
	}
	// Without a persistent logger, debug still gets the JSON lines.
	if repo == nil && c.debug {
		logger = observability.NewJSONLogger(os.Stderr)
	}

	runner := batch.New(store,
		batch.WithWorkers(c.cfg.Validate.Workers),
		batch.WithPointsPerCycle(c.cfg.Validate.PointsPerCycle),
		batch.WithLogger(logger),
	)
	result, err := runner.Run(ctx, table, units)
	if err != nil {
		return err
	}

	gen := report.NewGenerator(path, store.Spec().Version)
	rep := gen.Build(result.ReportUnits(), result.Scorecard)
	rep.RunID = result.RunID

	if repo != nil {
		record := &storage.RunRecord{
			ID:            result.RunID,
			Dataset:       path,
			RangesVersion: store.Spec().Version,
			Processed:     result.Scorecard.Processed,
			ShapeSkipped:  result.Scorecard.ShapeSkipped,
			Failed:        result.Scorecard.Failed,
			Violations:    result.Violations(),
			CreatedAt:     time.Now().UTC(),
		}
		if err := repo.Create(ctx, record); err != nil {
			return err
		}
	}

	if c.jsonOutput {
		return c.outputJSON(rep)
	}
	c.printReport(rep)
	return nil
}

// selectUnits narrows the table's units by the optional subject/task
// filters.
func selectUnits(table *dataset.PhaseTable, subject, task string) []dataset.SubjectTask {
	if subject == "" && task == "" {
		return nil // all units
	}
	var units []dataset.SubjectTask
	for _, u := range table.Units() {
		if subject != "" && u.Subject != subject {
			continue
		}
		if task != "" && u.Task != task {
			continue
		}
		units = append(units, u)
	}
	if units == nil {
		units = []dataset.SubjectTask{}
	}
	return units
}

// loadRangeStore loads the configured base spec, layers overrides, and
// attaches the alias table.
func (c *CLI) loadRangeStore() (*ranges.Store, error) {
	spec, err := ranges.LoadLayered(c.cfg.Ranges.Base, c.cfg.Ranges.Overrides...)
	if err != nil {
		return nil, err
	}
	var aliases ranges.AliasTable
	if c.cfg.Ranges.Aliases != "" {
		aliases, err = ranges.LoadAliasFile(c.cfg.Ranges.Aliases)
		if err != nil {
			return nil, err
		}
	}
	return ranges.NewStore(spec, aliases), nil
}

// openStorage builds the configured run repository plus a persistent
// audit logger over the same handle. A non-nil mirror also gets each
// audit entry as a JSON line.
func (c *CLI) openStorage(ctx context.Context, mirror io.Writer) (storage.RunRepository, observability.RunLogger, func() error, error) {
	switch c.cfg.Storage.Driver {
	case "sqlite":
		repo, err := storage.OpenSQLite(ctx, c.cfg.Storage.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		var logger observability.RunLogger
		if mirror != nil {
			logger, err = observability.NewPersistentLoggerWithWriter(repo.DB(), mirror)
		} else {
			logger, err = observability.NewPersistentLogger(repo.DB())
		}
		if err != nil {
			repo.Close()
			return nil, nil, nil, err
		}
		return repo, logger, repo.Close, nil
	case "postgres":
		repo, err := storage.OpenPostgres(ctx, storage.PostgresConfig{
			ConnectionString: c.cfg.Storage.Postgres.ConnectionString(),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		var logger observability.RunLogger
		if mirror != nil {
			logger, err = observability.NewPostgresPersistentLoggerWithWriter(repo.DB(), mirror)
		} else {
			logger, err = observability.NewPostgresPersistentLogger(repo.DB())
		}
		if err != nil {
			repo.Close()
			return nil, nil, nil, err
		}
		return repo, logger, repo.Close, nil
	case "none", "":
		return nil, observability.NewNoopLogger(), nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver: %s", c.cfg.Storage.Driver)
	}
}

func (c *CLI) printReport(rep *models.ValidationReport) {
	c.printf("Run %s\n", rep.RunID)
	c.printf("Dataset: %s\n", rep.Dataset)
	if rep.RangesVersion != "" {
		c.printf("Ranges version: %s\n", rep.RangesVersion)
	}
	c.printf("Scorecard: %d processed, %d shape-skipped, %d failed\n",
		rep.Scorecard.Processed, rep.Scorecard.ShapeSkipped, rep.Scorecard.Failed)
	for _, task := range rep.Tasks {
		c.printf("\n%s: %d subjects, %d steps (%d clean)\n",
			task.Task, task.Subjects, task.Steps, task.StepsClean)
		for _, f := range task.Features {
			marker := "✓"
			if f.StepsViolating > 0 {
				marker = "✗"
			}
			c.printf("  %s %-45s %d/%d steps violating (%.1f%%)\n",
				marker, f.Feature, f.StepsViolating, f.StepsEvaluated, f.ViolationRate*100)
		}
		if len(task.NotEvaluated) > 0 {
			c.printf("  not evaluated: %s\n", strings.Join(task.NotEvaluated, ", "))
		}
	}
	for _, u := range rep.Units {
		if u.Error != "" {
			c.printf("\n! %s/%s: %s\n", u.Subject, u.Task, firstLine(u.Error))
		}
	}
}

// firstLine keeps multi-line error text out of the summary listing.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
