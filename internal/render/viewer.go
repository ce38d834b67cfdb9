package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourceplane/obconsole/internal/expand"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/planner"
)

const rule = "═══════════════════════════════════════════════════════════\n"

// ScenarioViewer provides human-readable views of a scenario form
type ScenarioViewer struct {
	form  *form.ScenarioForm
	graph *planner.FunctionGraph
}

// NewScenarioViewer creates a viewer over a scenario form
func NewScenarioViewer(f *form.ScenarioForm) *ScenarioViewer {
	return &ScenarioViewer{form: f, graph: planner.NewFunctionGraph(f)}
}

// ViewDAG returns the functions grouped by the stage at which they become
// eligible
func (sv *ScenarioViewer) ViewDAG() string {
	if len(sv.form.Functions) == 0 {
		return "No functions in scenario"
	}

	var sb strings.Builder
	stages, err := sv.graph.Stages()
	if err != nil {
		sb.WriteString(fmt.Sprintf("Cannot order functions: %v\n\n", err))
		stages = []planner.Stage{{Functions: sv.graph.IDs()}}
	}

	for i, stage := range stages {
		isLastStage := i == len(stages)-1
		prefix, connector := "├─ ", "│  "
		if isLastStage {
			prefix, connector = "└─ ", "   "
		}
		sb.WriteString(fmt.Sprintf("%sStage %d\n", prefix, stage.Index))

		for j, id := range stage.Functions {
			fn, _ := sv.graph.Function(id)
			isLastFn := j == len(stage.Functions)-1
			fnPrefix, fnConnector := connector+"├─ ", connector+"│  "
			if isLastFn {
				fnPrefix, fnConnector = connector+"└─ ", connector+"   "
			}

			line := fnPrefix + Heading(fn)
			if fn.Label != "" {
				line += fmt.Sprintf(" [%s]", Describe(fn))
			}
			if fn.Wait != nil && fn.Wait.Time != nil {
				line += fmt.Sprintf(" (after %vs)", fn.Wait.Time)
			}
			sb.WriteString(line + "\n")

			deps := fn.Wait.References()
			for k, dep := range deps {
				depPrefix := fnConnector + "├─ "
				if k == len(deps)-1 {
					depPrefix = fnConnector + "└─ "
				}
				sb.WriteString(fmt.Sprintf("%s(waits on) %s\n", depPrefix, ReferenceLabel(sv.form, dep)))
			}
		}
	}

	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Summary: %d functions, %d stages\n", len(sv.form.Functions), len(stages)))
	return sb.String()
}

// ViewDependencies lists, for each function, what it waits on and what it
// stops
func (sv *ScenarioViewer) ViewDependencies() string {
	if len(sv.form.Functions) == 0 {
		return "No functions in scenario"
	}

	var sb strings.Builder
	sb.WriteString("Function Dependencies\n")
	sb.WriteString(rule + "\n")

	ids := sv.graph.IDs()
	for i, id := range ids {
		fn, _ := sv.graph.Function(id)
		prefix := "├─ "
		if i == len(ids)-1 {
			prefix = "└─ "
		}
		sb.WriteString(prefix + Heading(fn) + "\n")

		lines := dependencyLines(sv.form, fn)
		if len(lines) == 0 {
			sb.WriteString("   (no dependencies)\n")
		}
		for j, line := range lines {
			depPrefix := "  ├─ "
			if j == len(lines)-1 {
				depPrefix = "  └─ "
			}
			sb.WriteString(depPrefix + line + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func dependencyLines(f *form.ScenarioForm, fn *form.FunctionForm) []string {
	lines := []string{}
	if fn.Wait != nil {
		for _, w := range []struct {
			name string
			ids  []int
		}{
			{"running", fn.Wait.RunningIDs},
			{"ended", fn.Wait.EndedIDs},
			{"launched", fn.Wait.LaunchedIDs},
			{"finished", fn.Wait.FinishedIDs},
		} {
			for _, id := range w.ids {
				lines = append(lines, fmt.Sprintf("(waits %s) %s", w.name, ReferenceLabel(f, id)))
			}
		}
	}
	switch {
	case len(fn.JobIDs) > 0:
		for _, id := range fn.JobIDs {
			lines = append(lines, fmt.Sprintf("(stops) %s", ReferenceLabel(f, id)))
		}
	case fn.ScenarioID != 0:
		lines = append(lines, fmt.Sprintf("(stops) %s", ReferenceLabel(f, fn.ScenarioID)))
	}
	return lines
}

// ViewFunction shows the details of one function
func (sv *ScenarioViewer) ViewFunction(id int) string {
	fn, ok := sv.form.Function(id)
	if !ok {
		return fmt.Sprintf("No function with id %d", id)
	}

	var sb strings.Builder
	sb.WriteString(Heading(fn) + "\n")
	sb.WriteString(rule + "\n")
	sb.WriteString(fmt.Sprintf("Kind: %s\n", fn.Kind.Title()))
	if fn.Entity != "" {
		sb.WriteString(fmt.Sprintf("Entity: %s\n", fn.Entity))
	}
	if fn.Job != "" {
		sb.WriteString(fmt.Sprintf("Job: %s\n", fn.Job))
	}
	if fn.Offset != nil {
		sb.WriteString(fmt.Sprintf("Offset: %v\n", fn.Offset))
	}
	if fn.Interval != nil {
		sb.WriteString(fmt.Sprintf("Interval: %v\n", fn.Interval))
	}

	if selections := fn.Subcommands[fn.Job]; len(selections) > 0 {
		sb.WriteString("Subcommands:\n")
		for _, path := range sortedKeys(selections) {
			sb.WriteString(fmt.Sprintf("  %s = %s\n", strings.Join(expand.SplitPath(path), " / "), selections[path]))
		}
	}
	if params := fn.Parameters[fn.Job]; len(params) > 0 {
		sb.WriteString("Arguments:\n")
		paths := make([]string, 0, len(params))
		for path := range params {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			for _, row := range params[path].NonEmpty() {
				sb.WriteString(fmt.Sprintf("  %s = %v\n", strings.Join(expand.SplitPath(path), " / "), row[:form.Filled(row)]))
			}
		}
	}
	if len(fn.RawJobArguments) > 0 {
		sb.WriteString(fmt.Sprintf("Raw arguments: %s\n", fn.RawJobArguments))
	}
	if fn.ScenarioName != "" {
		sb.WriteString(fmt.Sprintf("Scenario: %s\n", fn.ScenarioName))
	}
	if fn.OnFail != nil && fn.OnFail.Policy != "" {
		sb.WriteString(fmt.Sprintf("On fail: %s", fn.OnFail.Policy))
		if fn.OnFail.Retry != nil {
			sb.WriteString(fmt.Sprintf(" (retry:%vx", fn.OnFail.Retry))
			if fn.OnFail.Delay != nil {
				sb.WriteString(fmt.Sprintf(", delay:%vs", fn.OnFail.Delay))
			}
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	if len(fn.Backup) > 0 {
		sb.WriteString(fmt.Sprintf("Content: %s\n", fn.Backup))
	}

	lines := dependencyLines(sv.form, fn)
	if len(lines) > 0 {
		sb.WriteString("Dependencies:\n")
		for _, line := range lines {
			sb.WriteString("  " + line + "\n")
		}
	}
	if dependents := sv.graph.Dependents(id); len(dependents) > 0 {
		sb.WriteString("Dependents:\n")
		for _, d := range dependents {
			sb.WriteString("  " + ReferenceLabel(sv.form, d) + "\n")
		}
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
