package form

import (
	"fmt"

	"github.com/juju/collections/set"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/expand"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/normalize"
)

// Problem is a reason the form cannot be saved as is
type Problem struct {
	FunctionID int    `json:"function_id"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
}

func (p Problem) String() string {
	if p.Field == "" {
		return fmt.Sprintf("function %d: %s", p.FunctionID, p.Message)
	}
	return fmt.Sprintf("function %d: %s: %s", p.FunctionID, p.Field, p.Message)
}

// IsEmpty reports whether a value counts as not entered
func IsEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Filled returns the number of values that survive trailing-empty trimming
func Filled(row []interface{}) int {
	n := len(row)
	for n > 0 && IsEmpty(row[n-1]) {
		n--
	}
	return n
}

// NonEmpty returns the rows that hold at least one value
func (o Occurrences) NonEmpty() Occurrences {
	out := Occurrences{}
	for _, row := range o {
		if Filled(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}

// Validate checks the form against the catalog and, when entities is not
// nil, against the project entities. It never fails; it lists problems.
func Validate(f *ScenarioForm, jobs *catalog.Catalog, entities []string) []Problem {
	v := validator{
		form:     f,
		jobs:     jobs,
		ids:      set.NewInts(),
		kinds:    map[int]model.FunctionKind{},
		problems: []Problem{},
	}
	if entities != nil {
		v.entities = set.NewStrings(entities...)
	}

	for _, fn := range f.Functions {
		if v.ids.Contains(fn.ID) {
			v.add(fn.ID, "id", "duplicated function id")
		}
		v.ids.Add(fn.ID)
		v.kinds[fn.ID] = fn.Kind
	}

	for i := range f.Functions {
		v.function(&f.Functions[i])
	}
	return v.problems
}

type validator struct {
	form     *ScenarioForm
	jobs     *catalog.Catalog
	entities set.Strings
	ids      set.Ints
	kinds    map[int]model.FunctionKind
	problems []Problem
}

func (v *validator) add(id int, field, format string, args ...interface{}) {
	v.problems = append(v.problems, Problem{
		FunctionID: id,
		Field:      field,
		Message:    fmt.Sprintf(format, args...),
	})
}

func (v *validator) function(fn *FunctionForm) {
	for _, ref := range fn.Wait.References() {
		switch {
		case ref == fn.ID:
			v.add(fn.ID, "wait", "function waits on itself")
		case !v.ids.Contains(ref):
			v.add(fn.ID, "wait", "references unknown function %d", ref)
		}
	}

	switch fn.Kind {
	case model.KindUnset:
		v.add(fn.ID, "kind", "%s", model.KindUnset.Title())
	case model.KindStartJobInstance:
		v.startJob(fn)
	case model.KindStopJobInstances:
		if len(fn.JobIDs) == 0 {
			v.add(fn.ID, "openbach_function_ids", "no function selected")
		}
		for _, id := range fn.JobIDs {
			v.target(fn.ID, "openbach_function_ids", id, model.KindStartJobInstance)
		}
	case model.KindStartScenarioInstance:
		if fn.ScenarioName == "" {
			v.add(fn.ID, "scenario_name", "no scenario selected")
		}
	case model.KindStopScenarioInstance:
		v.target(fn.ID, "openbach_function_id", fn.ScenarioID, model.KindStartScenarioInstance)
	}
}

func (v *validator) target(id int, field string, ref int, want model.FunctionKind) {
	kind, ok := v.kinds[ref]
	switch {
	case !ok:
		v.add(id, field, "references unknown function %d", ref)
	case kind != want && kind != model.KindUnknown:
		v.add(id, field, "function %d is not a %s function", ref, want.Title())
	}
}

func (v *validator) startJob(fn *FunctionForm) {
	if fn.Entity == "" {
		v.add(fn.ID, "entity", "no entity selected")
	} else if v.entities != nil && !v.entities.Contains(fn.Entity) {
		v.add(fn.ID, "entity", "entity %q is not part of the project", fn.Entity)
	}

	if fn.Job == "" {
		v.add(fn.ID, "job", "no job selected")
		return
	}
	job, ok := v.jobs.Lookup(fn.Job)
	if !ok {
		v.add(fn.ID, "job", "Selected Job %s not found", fn.Job)
		return
	}

	selected := expand.FromMap(fn.Subcommands[fn.Job])
	for _, level := range expand.Levels(job, selected) {
		for _, arg := range level.Required {
			v.argument(fn, level.Chain, arg, true)
		}
		for _, arg := range level.Optional {
			v.argument(fn, level.Chain, arg, false)
		}
		for _, group := range level.Groups {
			if group.Optional {
				continue
			}
			if selected(expand.SelectionPath(level.Chain, group.GroupName)) == "" {
				v.add(fn.ID, expand.SelectionPath(level.Chain, group.GroupName), "a choice is required")
			}
		}
	}
}

func (v *validator) argument(fn *FunctionForm, chain expand.Chain, arg model.JobArgument, required bool) {
	path := expand.ArgumentPath(chain, arg.Name)
	rows := fn.Parameters.Get(fn.Job, path).NonEmpty()
	arity := normalize.ArgumentCount(&arg)

	if len(rows) == 0 {
		if required {
			v.add(fn.ID, path, "required argument is missing")
		}
		return
	}
	if len(rows) > 1 && !arg.Repeatable {
		v.add(fn.ID, path, "argument is not repeatable but has %d occurrences", len(rows))
	}
	if arity.IsFlag() {
		return
	}
	for _, row := range rows {
		if n := Filled(row); !arity.Allows(n) {
			v.add(fn.ID, path, "expects %s values, got %d", arity, n)
		}
	}
}
