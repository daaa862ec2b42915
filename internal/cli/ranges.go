package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stride-labs/stridecheck/internal/ranges"
)

func (c *CLI) newRangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ranges",
		Short: "Inspect and manage range specifications",
	}
	cmd.AddCommand(c.newRangesShowCmd())
	cmd.AddCommand(c.newRangesMergeCmd())
	cmd.AddCommand(c.newRangesResolveCmd())
	return cmd
}

func (c *CLI) newRangesShowCmd() *cobra.Command {
	var task string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective (merged) range specification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRangesShow(task)
		},
	}
	cmd.Flags().StringVar(&task, "task", "", "limit output to one task")
	return cmd
}

func (c *CLI) runRangesShow(task string) error {
	store, err := c.loadRangeStore()
	if err != nil {
		return err
	}
	spec := store.Spec()

	if task != "" {
		tr, ok := spec.Tasks[task]
		if !ok {
			return fmt.Errorf("task %q not in specification (covers: %v)", task, spec.TaskNames())
		}
		spec = &ranges.Spec{
			Version: spec.Version,
			Source:  spec.Source,
			Tasks:   map[string]ranges.TaskRanges{task: tr},
		}
	}

	if c.jsonOutput {
		return c.outputJSON(spec)
	}

	c.printf("version: %s  source: %s\n", spec.Version, spec.Source)
	for _, name := range spec.TaskNames() {
		c.printf("\n%s\n", name)
		for _, phase := range spec.PhasePoints(name) {
			c.printf("  phase %d%%\n", phase)
			pr := spec.Tasks[name].Phases[phase]
			variables := make([]string, 0, len(pr))
			for v := range pr {
				variables = append(variables, v)
			}
			sort.Strings(variables)
			for _, v := range variables {
				iv := pr[v]
				c.printf("    %-45s [%s, %s]\n", v, boundString(iv.Min), boundString(iv.Max))
			}
		}
	}
	return nil
}

func boundString(b *float64) string {
	if b == nil {
		return "null"
	}
	return fmt.Sprintf("%.4g", *b)
}

func (c *CLI) newRangesMergeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "merge <base> <override> [override...]",
		Short: "Merge range specifications and write the result",
		Long: `Deep-merge override specifications onto a base: override entries
replace matching task/phase/variable entries, everything else is
preserved.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRangesMerge(args[0], args[1:], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write merged spec to file (default: stdout)")
	return cmd
}

func (c *CLI) runRangesMerge(basePath string, overridePaths []string, output string) error {
	spec, err := ranges.LoadLayered(basePath, overridePaths...)
	if err != nil {
		return err
	}

	doc := specToDocument(spec)
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode merged spec: %w", err)
	}
	if output == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write merged spec: %w", err)
	}
	c.printf("wrote %s\n", output)
	return nil
}

// specToDocument converts a Spec back into the serialized YAML shape
// (string phase keys).
func specToDocument(spec *ranges.Spec) map[string]interface{} {
	tasks := make(map[string]interface{}, len(spec.Tasks))
	for name, tr := range spec.Tasks {
		phases := make(map[string]interface{}, len(tr.Phases))
		for phase, pr := range tr.Phases {
			phases[fmt.Sprintf("%d", phase)] = pr
		}
		tasks[name] = map[string]interface{}{"phases": phases}
	}
	doc := map[string]interface{}{"tasks": tasks}
	if spec.Version != "" {
		doc["version"] = spec.Version
	}
	if spec.Source != "" {
		doc["source"] = spec.Source
	}
	if spec.Method != "" {
		doc["method"] = spec.Method
	}
	if len(spec.FeatureTypes) > 0 {
		doc["feature_types"] = spec.FeatureTypes
	}
	return doc
}

func (c *CLI) newRangesResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <variable>",
		Short: "Resolve a variable name through the alias table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRangesResolve(args[0])
		},
	}
	return cmd
}

func (c *CLI) runRangesResolve(name string) error {
	store, err := c.loadRangeStore()
	if err != nil {
		return err
	}
	canonical := store.ResolveAlias(name)

	covered := false
	for _, task := range store.TaskNames() {
		if store.Covers(task, canonical) {
			covered = true
			break
		}
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"input":     name,
			"canonical": canonical,
			"aliased":   canonical != name,
			"covered":   covered,
		})
	}
	if canonical != name {
		c.printf("%s → %s\n", name, canonical)
	} else {
		c.printf("%s (no alias)\n", name)
	}
	if !covered {
		c.println("not covered by any task in the specification")
	}
	return nil
}
