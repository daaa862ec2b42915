package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/stride-labs/stridecheck/internal/storage"
	"github.com/stride-labs/stridecheck/pkg/models"
)

func (c *CLI) newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Read persisted validation run history",
	}
	cmd.AddCommand(c.newReportListCmd())
	cmd.AddCommand(c.newReportShowCmd())
	return cmd
}

func (c *CLI) newReportListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent validation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReportList(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func (c *CLI) runReportList(ctx context.Context, limit int) error {
	repo, _, closeRepo, err := c.openStorage(ctx, nil)
	if err != nil {
		return err
	}
	if closeRepo != nil {
		defer closeRepo()
	}
	if repo == nil {
		c.println("run persistence is disabled (storage.driver: none)")
		return nil
	}

	runs, err := repo.List(ctx, limit)
	if err != nil {
		return err
	}

	if c.jsonOutput {
		infos := make([]models.RunInfo, len(runs))
		for i, r := range runs {
			infos[i] = runInfo(r)
		}
		return c.outputJSON(infos)
	}

	if len(runs) == 0 {
		c.println("no stored runs")
		return nil
	}
	c.printf("%-36s  %-30s  %9s  %7s  %6s  %10s  %s\n",
		"RUN", "DATASET", "PROCESSED", "SKIPPED", "FAILED", "VIOLATIONS", "CREATED")
	for _, r := range runs {
		c.printf("%-36s  %-30s  %9d  %7d  %6d  %10d  %s\n",
			r.ID, r.Dataset, r.Processed, r.ShapeSkipped, r.Failed,
			r.Violations, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (c *CLI) newReportShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one validation run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReportShow(cmd.Context(), args[0])
		},
	}
	return cmd
}

func (c *CLI) runReportShow(ctx context.Context, id string) error {
	repo, _, closeRepo, err := c.openStorage(ctx, nil)
	if err != nil {
		return err
	}
	if closeRepo != nil {
		defer closeRepo()
	}
	if repo == nil {
		c.println("run persistence is disabled (storage.driver: none)")
		return nil
	}

	run, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(runInfo(run))
	}
	c.printf("Run %s\n", run.ID)
	c.printf("Dataset:        %s\n", run.Dataset)
	c.printf("Ranges version: %s\n", run.RangesVersion)
	c.printf("Processed:      %d\n", run.Processed)
	c.printf("Shape-skipped:  %d\n", run.ShapeSkipped)
	c.printf("Failed:         %d\n", run.Failed)
	c.printf("Violations:     %d\n", run.Violations)
	c.printf("Created:        %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runInfo(r *storage.RunRecord) models.RunInfo {
	return models.RunInfo{
		ID:            r.ID,
		Dataset:       r.Dataset,
		RangesVersion: r.RangesVersion,
		Processed:     r.Processed,
		ShapeSkipped:  r.ShapeSkipped,
		Failed:        r.Failed,
		Violations:    r.Violations,
		CreatedAt:     r.CreatedAt,
	}
}
