// Package report aggregates violation results across subject-task
// units into the structured summary consumed by reporting and plotting
// collaborators. A pure consumer of validator output: it never
// recomputes range comparisons.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stride-labs/stridecheck/internal/validator"
	"github.com/stride-labs/stridecheck/pkg/models"
)

// Unit is one subject-task result feeding the report.
type Unit struct {
	Subject string
	Task    string
	Result  *validator.Result // nil when the unit was skipped or failed
	Err     error
	Skipped bool
}

// Generator builds validation reports.
type Generator struct {
	// Dataset and RangesVersion are carried into the report header.
	Dataset       string
	RangesVersion string
}

// NewGenerator creates a report generator.
func NewGenerator(dataset, rangesVersion string) *Generator {
	return &Generator{Dataset: dataset, RangesVersion: rangesVersion}
}

// Build aggregates unit results and a scorecard into a report. Task
// summaries roll up steps and per-feature violation counts across
// subjects; failed and skipped units appear only in the unit list and
// the scorecard.
func (g *Generator) Build(units []Unit, scorecard models.Scorecard) *models.ValidationReport {
	rep := &models.ValidationReport{
		RunID:         uuid.NewString(),
		Dataset:       g.Dataset,
		RangesVersion: g.RangesVersion,
		GeneratedAt:   time.Now().UTC(),
		Scorecard:     scorecard,
	}

	type taskAgg struct {
		subjects     map[string]bool
		steps        int
		stepsClean   int
		evaluated    map[string]int // feature → steps evaluated
		violating    map[string]int // feature → steps violating
		notEvaluated map[string]bool
		phasePoints  []int
	}
	tasks := make(map[string]*taskAgg)

	for _, u := range units {
		out := models.UnitOutcome{Subject: u.Subject, Task: u.Task, Skipped: u.Skipped}
		if u.Err != nil {
			out.Error = u.Err.Error()
		}
		if u.Result != nil {
			out.Steps = u.Result.Steps
			out.Violations = u.Result.ViolationCount()

			agg, ok := tasks[u.Task]
			if !ok {
				agg = &taskAgg{
					subjects:     make(map[string]bool),
					evaluated:    make(map[string]int),
					violating:    make(map[string]int),
					notEvaluated: make(map[string]bool),
					phasePoints:  u.Result.PhasePoints,
				}
				tasks[u.Task] = agg
			}
			agg.subjects[u.Subject] = true
			agg.steps += u.Result.Steps
			for _, f := range u.Result.NotEvaluated {
				agg.notEvaluated[f] = true
			}
			for _, row := range u.Result.StepViolations {
				clean := true
				for j, violated := range row {
					feature := u.Result.Features[j]
					agg.evaluated[feature]++
					if violated {
						agg.violating[feature]++
						clean = false
					}
				}
				if clean {
					agg.stepsClean++
				}
			}
		}
		rep.Units = append(rep.Units, out)
	}

	taskNames := make([]string, 0, len(tasks))
	for name := range tasks {
		taskNames = append(taskNames, name)
	}
	sort.Strings(taskNames)
	for _, name := range taskNames {
		agg := tasks[name]
		summary := models.TaskSummary{
			Task:        name,
			Subjects:    len(agg.subjects),
			Steps:       agg.steps,
			StepsClean:  agg.stepsClean,
			PhasePoints: agg.phasePoints,
		}
		features := make([]string, 0, len(agg.evaluated))
		for f := range agg.evaluated {
			features = append(features, f)
		}
		sort.Strings(features)
		for _, f := range features {
			evaluated := agg.evaluated[f]
			violating := agg.violating[f]
			rate := 0.0
			if evaluated > 0 {
				rate = float64(violating) / float64(evaluated)
			}
			summary.Features = append(summary.Features, models.FeatureStat{
				Feature:        f,
				StepsEvaluated: evaluated,
				StepsViolating: violating,
				ViolationRate:  rate,
			})
		}
		for f := range agg.notEvaluated {
			summary.NotEvaluated = append(summary.NotEvaluated, f)
		}
		sort.Strings(summary.NotEvaluated)
		rep.Tasks = append(rep.Tasks, summary)
	}
	return rep
}
