package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stride-labs/stridecheck/internal/dataset"
)

// DiagnosticCheck is one doctor check outcome.
type DiagnosticCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

func (c *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Long: `Run comprehensive system diagnostics.

Checks:
  - range specification loads and parses
  - alias table loads and parses
  - dataset file is present and readable
  - run storage is reachable`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor(cmd.Context())
		},
	}
}

func (c *CLI) runDoctor(ctx context.Context) error {
	c.println("Stridecheck System Diagnostics")
	c.println("==============================")
	c.println("")

	checks := []DiagnosticCheck{
		c.checkRanges(),
		c.checkDataset(ctx),
		c.checkStorage(ctx),
	}
	allPassed := true
	for _, check := range checks {
		if !check.Passed {
			allPassed = false
		}
		c.printCheck(check)
	}
	c.println("")

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"checks":     checks,
			"all_passed": allPassed,
		})
	}
	if allPassed {
		c.println("✓ All checks passed")
		return nil
	}
	c.println("✗ Some checks failed")
	return fmt.Errorf("diagnostics failed")
}

func (c *CLI) printCheck(check DiagnosticCheck) {
	marker := "✓"
	if !check.Passed {
		marker = "✗"
	}
	c.printf("%s %-20s %s\n", marker, check.Name, check.Message)
}

func (c *CLI) checkRanges() DiagnosticCheck {
	check := DiagnosticCheck{Name: "ranges"}
	store, err := c.loadRangeStore()
	if err != nil {
		check.Message = firstLine(err.Error())
		return check
	}
	check.Passed = true
	check.Message = fmt.Sprintf("%d tasks loaded from %s", len(store.TaskNames()), c.cfg.Ranges.Base)
	return check
}

func (c *CLI) checkDataset(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "dataset"}
	if c.cfg.Dataset.Path == "" {
		check.Passed = true
		check.Message = "not configured (pass --dataset at validate time)"
		return check
	}
	if _, err := os.Stat(c.cfg.Dataset.Path); err != nil {
		check.Message = err.Error()
		return check
	}
	reader, err := dataset.NewReader()
	if err != nil {
		check.Message = firstLine(err.Error())
		return check
	}
	defer reader.Close()
	table, err := reader.LoadTable(ctx, c.cfg.Dataset.Path)
	if err != nil {
		check.Message = firstLine(err.Error())
		return check
	}
	check.Passed = true
	check.Message = fmt.Sprintf("%d rows, %d features, %d subject-task pairs",
		table.Rows(), len(table.Features()), len(table.Units()))
	return check
}

func (c *CLI) checkStorage(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "storage"}
	repo, _, closeRepo, err := c.openStorage(ctx, nil)
	if err != nil {
		check.Message = firstLine(err.Error())
		return check
	}
	if closeRepo != nil {
		defer closeRepo()
	}
	if repo == nil {
		check.Passed = true
		check.Message = "disabled (storage.driver: none)"
		return check
	}
	if err := repo.CheckConnectivity(ctx); err != nil {
		check.Message = firstLine(err.Error())
		return check
	}
	check.Passed = true
	check.Message = fmt.Sprintf("%s reachable", c.cfg.Storage.Driver)
	return check
}
