package convert

import (
	"encoding/json"
	"strings"

	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/expand"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/normalize"
)

// SaveScenario builds the scenario document from its form. It does not
// fail: functions whose kind is not selected yet are left out, and
// unknown functions are written back from their Backup slot.
func SaveScenario(f *form.ScenarioForm, jobs *catalog.Catalog) *model.Scenario {
	doc := &model.Scenario{
		Name:        f.Name,
		Description: f.Description,
		Arguments:   copyStrings(f.Arguments),
		Constants:   copyValues(f.Constants),
		Functions:   make([]model.OpenbachFunction, 0, len(f.Functions)),
	}
	if doc.Arguments == nil {
		doc.Arguments = map[string]string{}
	}
	if doc.Constants == nil {
		doc.Constants = map[string]interface{}{}
	}

	for i := range f.Functions {
		fn, ok := SaveFunction(&f.Functions[i], jobs)
		if !ok {
			continue
		}
		doc.Functions = append(doc.Functions, fn)
	}
	return doc
}

// SaveFunction builds one openbach function from its form. It reports
// false when the function has nothing to save.
func SaveFunction(fn *form.FunctionForm, jobs *catalog.Catalog) (model.OpenbachFunction, bool) {
	switch fn.Kind {
	case model.KindUnset:
		logger.Warningf("function %d has no kind selected; it is not saved", fn.ID)
		return model.OpenbachFunction{}, false
	case model.KindUnknown:
		if len(fn.Backup) == 0 {
			logger.Warningf("function %d has an unknown kind and no backup; it is not saved", fn.ID)
			return model.OpenbachFunction{}, false
		}
		return model.OpenbachFunction{
			ID:   fn.ID,
			Kind: model.KindUnknown,
			Raw:  append(json.RawMessage(nil), fn.Backup...),
		}, true
	}

	out := model.OpenbachFunction{
		ID:    fn.ID,
		Label: fn.Label,
		Kind:  fn.Kind,
	}
	if fn.OnFail != nil {
		out.OnFail = &model.OnFail{
			Policy: fn.OnFail.Policy,
			Retry:  Coerce(fn.OnFail.Retry),
			Delay:  CoerceDate(fn.OnFail.Delay),
		}
	}
	if fn.Wait != nil {
		out.Wait = &model.Wait{
			Time:        CoerceDate(fn.Wait.Time),
			RunningIDs:  copyInts(fn.Wait.RunningIDs),
			EndedIDs:    copyInts(fn.Wait.EndedIDs),
			LaunchedIDs: copyInts(fn.Wait.LaunchedIDs),
			FinishedIDs: copyInts(fn.Wait.FinishedIDs),
		}
	}

	switch fn.Kind {
	case model.KindStartJobInstance:
		out.StartJobInstance = saveStartJob(fn, jobs)
	case model.KindStopJobInstances:
		ids := copyInts(fn.JobIDs)
		if ids == nil {
			ids = []int{}
		}
		out.StopJobInstances = &model.StopJobInstances{OpenbachFunctionIDs: ids}
	case model.KindStartScenarioInstance:
		args := copyValues(fn.ScenarioArguments)
		if args == nil {
			args = map[string]interface{}{}
		}
		out.StartScenarioInstance = &model.StartScenarioInstance{
			ScenarioName: fn.ScenarioName,
			Arguments:    args,
		}
	case model.KindStopScenarioInstance:
		out.StopScenarioInstance = &model.StopScenarioInstance{OpenbachFunctionID: fn.ScenarioID}
	default:
		logger.Warningf("function %d has unsupported kind %q; it is not saved", fn.ID, fn.Kind)
		return model.OpenbachFunction{}, false
	}
	return out, true
}

func saveStartJob(fn *form.FunctionForm, jobs *catalog.Catalog) *model.StartJobInstance {
	s := &model.StartJobInstance{
		EntityName: fn.Entity,
		Offset:     CoerceDate(fn.Offset),
		Interval:   CoerceDate(fn.Interval),
		Job:        fn.Job,
	}
	if fn.Job == "" {
		return s
	}

	job, ok := jobs.Lookup(fn.Job)
	if !ok || (len(fn.RawJobArguments) > 0 && len(fn.Parameters[fn.Job]) == 0 && len(fn.Subcommands[fn.Job]) == 0) {
		if len(fn.RawJobArguments) > 0 {
			s.Arguments = append(json.RawMessage(nil), fn.RawJobArguments...)
		}
		return s
	}

	args, err := json.Marshal(jobArguments(fn, job))
	if err != nil {
		logger.Warningf("function %d: cannot encode arguments of job %q: %v", fn.ID, fn.Job, err)
		return s
	}
	s.Arguments = args
	return s
}

// jobArguments nests the entered values under the selected subcommands
func jobArguments(fn *form.FunctionForm, job *model.Job) map[string]interface{} {
	root := map[string]interface{}{}
	for _, level := range expand.Levels(job, expand.FromMap(fn.Subcommands[fn.Job])) {
		target := descend(root, level.Chain)
		for _, arg := range level.Arguments() {
			path := expand.ArgumentPath(level.Chain, arg.Name)
			layout, loaded := fn.Layouts.Get(fn.Job, path)
			w := wire{id: fn.ID, path: path, arg: &arg, layout: layout, loaded: loaded}
			if value, ok := w.value(fn.Parameters.Get(fn.Job, path)); ok {
				target[arg.Name] = value
			}
		}
	}
	return root
}

func descend(root map[string]interface{}, chain expand.Chain) map[string]interface{} {
	m := root
	for _, sel := range chain {
		next, ok := m[sel.Selected].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[sel.Selected] = next
		}
		m = next
	}
	return m
}

// wire writes the occurrences of one argument back to their document value
type wire struct {
	id     int
	path   string
	arg    *model.JobArgument
	layout form.Layout
	loaded bool
}

// value is the inverse of occurrences: rows are coerced, trailing empty
// values trimmed, rows left empty dropped, and the result shaped the way it
// was loaded or, for new values, after the arity. Rows outside the arity
// are never written.
func (w wire) value(occ form.Occurrences) (interface{}, bool) {
	arity := normalize.ArgumentCount(w.arg)
	rows := make([][]interface{}, 0, len(occ))
	for _, r := range occ {
		values := make([]interface{}, len(r))
		for i, v := range r {
			values[i] = CoerceArgument(v, w.arg.Type)
		}
		values = values[:form.Filled(values)]
		if len(values) == 0 {
			continue
		}
		if !arity.IsFlag() {
			if n := arity.Clamp(len(values)); n < len(values) {
				logger.Warningf("function %d: %s accepts %s values, dropping %d", w.id, w.path, arity, len(values)-n)
				values = values[:n]
			}
			if len(values) < arity.Min {
				logger.Warningf("function %d: %s needs %s values, dropping an occurrence with %d", w.id, w.path, arity, len(values))
				continue
			}
		}
		rows = append(rows, values)
	}

	if len(rows) == 0 {
		if w.loaded && len(w.layout.Blank) > 0 && arity.Min == 0 {
			return append(json.RawMessage(nil), w.layout.Blank...), true
		}
		return nil, false
	}
	if !w.arg.Repeatable {
		if len(rows) > 1 {
			logger.Warningf("function %d: %s is not repeatable, keeping its first occurrence", w.id, w.path)
		}
		return w.shape(rows[0], arity), true
	}
	if w.loaded && w.layout.Bare && len(rows) == 1 {
		return w.shape(rows[0], arity), true
	}
	items := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		items = append(items, w.shape(r, arity))
	}
	return items, true
}

func (w wire) shape(values []interface{}, arity normalize.Arity) interface{} {
	switch {
	case arity.IsFlag():
		return values[0]
	case w.loaded && w.layout.Scalar && len(values) == 1:
		return values[0]
	case w.loaded:
		return values
	case arity.IsSingle():
		return values[0]
	}
	return values
}

// Persist validates the form and builds its document. Unlike SaveScenario
// it refuses a form with problems, so an invalid scenario never reaches the
// backend.
func Persist(f *form.ScenarioForm, jobs *catalog.Catalog, entities []string) (*model.Scenario, error) {
	if problems := form.Validate(f, jobs, entities); len(problems) > 0 {
		lines := make([]string, 0, len(problems))
		for _, p := range problems {
			lines = append(lines, p.String())
		}
		return nil, errors.NotValidf("scenario %q:\n  %s\n", f.Name, strings.Join(lines, "\n  "))
	}
	return SaveScenario(f, jobs), nil
}
