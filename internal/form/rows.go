package form

import (
	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/expand"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/normalize"
)

// NewOccurrence returns a single row with as many empty values as the
// arity requires, and at least one
func NewOccurrence(arity normalize.Arity) []interface{} {
	return make([]interface{}, max(arity.Min, 1))
}

// NewOccurrences returns the initial rows of an argument
func NewOccurrences(arity normalize.Arity) Occurrences {
	return Occurrences{NewOccurrence(arity)}
}

// floor is the fewest values a row may be reduced to
func floor(arity normalize.Arity) int {
	return max(arity.Min, 1)
}

// AddValue appends an empty value to a row. It refuses past the arity maximum.
func AddValue(row []interface{}, arity normalize.Arity) ([]interface{}, bool) {
	if !arity.IsUnbounded() && len(row) >= max(arity.Max, 1) {
		return row, false
	}
	return append(row, nil), true
}

// RemoveValue drops the i-th value of a row. It refuses below the arity
// minimum and never empties the row.
func RemoveValue(row []interface{}, i int, arity normalize.Arity) ([]interface{}, bool) {
	if i < 0 || i >= len(row) || len(row) <= floor(arity) {
		return row, false
	}
	out := make([]interface{}, 0, len(row)-1)
	out = append(out, row[:i]...)
	return append(out, row[i+1:]...), true
}

// AddOccurrence appends a fresh row to a repeatable argument
func AddOccurrence(occ Occurrences, arity normalize.Arity) Occurrences {
	return append(occ, NewOccurrence(arity))
}

// RemoveOccurrence drops the i-th row. The last row of a repeatable
// argument is never removed.
func RemoveOccurrence(occ Occurrences, i int) (Occurrences, bool) {
	if i < 0 || i >= len(occ) || len(occ) <= 1 {
		return occ, false
	}
	out := make(Occurrences, 0, len(occ)-1)
	out = append(out, occ[:i]...)
	return append(out, occ[i+1:]...), true
}

// Argument finds the job argument stored at path under the selected
// subcommands. Arguments of choices that are not selected are not found.
func Argument(job *model.Job, selected map[string]string, path string) (model.JobArgument, bool) {
	for _, level := range expand.Levels(job, expand.FromMap(selected)) {
		for _, arg := range level.Arguments() {
			if expand.ArgumentPath(level.Chain, arg.Name) == path {
				return arg, true
			}
		}
	}
	return model.JobArgument{}, false
}

// FillRows returns the parameters of a start job function where every
// stored argument has at least one row and every row at least one value.
// fn is not modified.
func FillRows(fn *FunctionForm, jobs *catalog.Catalog) Parameters {
	job, ok := jobs.Lookup(fn.Job)
	if fn.Kind != model.KindStartJobInstance || !ok {
		return fn.Parameters
	}

	params := fn.Parameters
	for path, occ := range fn.Parameters[fn.Job] {
		arg, ok := Argument(job, fn.Subcommands[fn.Job], path)
		if !ok {
			continue
		}
		if filled, changed := fill(occ, normalize.ArgumentCount(&arg)); changed {
			params = params.With(fn.Job, path, filled)
		}
	}
	return params
}

func fill(occ Occurrences, arity normalize.Arity) (Occurrences, bool) {
	if len(occ) == 0 {
		return NewOccurrences(arity), true
	}
	changed := false
	out := make(Occurrences, len(occ))
	for i, row := range occ {
		if len(row) == 0 {
			row = NewOccurrence(arity)
			changed = true
		}
		out[i] = row
	}
	return out, changed
}
