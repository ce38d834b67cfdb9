package convert

import (
	"encoding/json"
	"sort"

	"github.com/juju/loggo"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/expand"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/normalize"
)

var logger = loggo.GetLogger("obconsole.convert")

// ConvertScenario builds the editable form of a scenario document. It does
// not fail: functions it cannot interpret are kept verbatim in their
// Backup slot, and jobs missing from the catalog keep their raw arguments.
func ConvertScenario(doc *model.Scenario, jobs *catalog.Catalog) *form.ScenarioForm {
	out := &form.ScenarioForm{
		Name:        doc.Name,
		Description: doc.Description,
		Arguments:   copyStrings(doc.Arguments),
		Constants:   copyValues(doc.Constants),
		Functions:   make([]form.FunctionForm, 0, len(doc.Functions)),
	}
	for i := range doc.Functions {
		out.Functions = append(out.Functions, ConvertFunction(&doc.Functions[i], jobs))
	}
	return out
}

// ConvertFunction builds the editable form of one openbach function
func ConvertFunction(fn *model.OpenbachFunction, jobs *catalog.Catalog) form.FunctionForm {
	out := form.NewFunction(fn.ID)
	out.Label = fn.Label
	out.Kind = fn.Kind

	if fn.OnFail != nil {
		out.OnFail = &form.OnFailForm{
			Policy: fn.OnFail.Policy,
			Retry:  fn.OnFail.Retry,
			Delay:  fn.OnFail.Delay,
		}
	}
	if fn.Wait != nil {
		out.Wait = &form.WaitForm{
			Time:        fn.Wait.Time,
			RunningIDs:  copyInts(fn.Wait.RunningIDs),
			EndedIDs:    copyInts(fn.Wait.EndedIDs),
			LaunchedIDs: copyInts(fn.Wait.LaunchedIDs),
			FinishedIDs: copyInts(fn.Wait.FinishedIDs),
		}
	}

	switch {
	case fn.Kind == model.KindStartJobInstance && fn.StartJobInstance != nil:
		startJob(&out, fn.StartJobInstance, jobs)
	case fn.Kind == model.KindStopJobInstances && fn.StopJobInstances != nil:
		out.JobIDs = copyInts(fn.StopJobInstances.OpenbachFunctionIDs)
	case fn.Kind == model.KindStartScenarioInstance && fn.StartScenarioInstance != nil:
		out.ScenarioName = fn.StartScenarioInstance.ScenarioName
		out.ScenarioArguments = copyValues(fn.StartScenarioInstance.Arguments)
	case fn.Kind == model.KindStopScenarioInstance && fn.StopScenarioInstance != nil:
		out.ScenarioID = fn.StopScenarioInstance.OpenbachFunctionID
	default:
		out.Kind = model.KindUnknown
		out.Backup = backup(fn)
	}
	return out
}

func backup(fn *model.OpenbachFunction) json.RawMessage {
	if len(fn.Raw) > 0 {
		return append(json.RawMessage(nil), fn.Raw...)
	}
	// built in memory rather than decoded; keep what can be serialized
	raw, err := json.Marshal(struct {
		ID    int    `json:"id"`
		Label string `json:"label,omitempty"`
	}{fn.ID, fn.Label})
	if err != nil {
		logger.Warningf("cannot back up function %d: %v", fn.ID, err)
		return nil
	}
	return raw
}

func startJob(out *form.FunctionForm, s *model.StartJobInstance, jobs *catalog.Catalog) {
	out.Entity = s.EntityName
	out.Offset = s.Offset
	out.Interval = s.Interval
	out.Job = s.Job

	job, ok := jobs.Lookup(s.Job)
	if !ok {
		logger.Debugf("function %d: job %q is not in the catalog, keeping raw arguments", out.ID, s.Job)
		out.RawJobArguments = append(json.RawMessage(nil), s.Arguments...)
		return
	}

	var data map[string]interface{}
	if len(s.Arguments) > 0 {
		if err := json.Unmarshal(s.Arguments, &data); err != nil {
			logger.Warningf("function %d: arguments of job %q are not an object, keeping them raw", out.ID, s.Job)
			out.RawJobArguments = append(json.RawMessage(nil), s.Arguments...)
			return
		}
	}

	out.Parameters[job.Name()] = map[string]form.Occurrences{}
	if out.Layouts == nil {
		out.Layouts = form.Layouts{}
	}
	out.Subcommands[job.Name()] = map[string]string{}
	e := expander{form: out, job: job.Name()}
	e.level(data, expand.Level{
		Chain:    expand.Chain{},
		Required: job.Arguments.Required,
		Optional: job.Arguments.Optional,
		Groups:   job.Arguments.Subcommands,
	})
}

type expander struct {
	form *form.FunctionForm
	job  string
}

// level records the values present in data for the level's arguments and
// recurses into the subcommand whose name is a key of data
func (e *expander) level(data map[string]interface{}, level expand.Level) {
	consumed := map[string]bool{}

	for _, arg := range level.Arguments() {
		value, ok := data[arg.Name]
		if !ok {
			continue
		}
		consumed[arg.Name] = true
		path := expand.ArgumentPath(level.Chain, arg.Name)
		occ, layout := occurrences(value, normalize.ArgumentCount(&arg), arg.Repeatable)
		e.form.Parameters.Set(e.job, path, occ)
		e.form.Layouts.Set(e.job, path, layout)
	}

	for _, group := range level.Groups {
		for _, choice := range group.Choices {
			raw, ok := data[choice.Name]
			if !ok {
				continue
			}
			consumed[choice.Name] = true
			e.form.Subcommands.Set(e.job, expand.SelectionPath(level.Chain, group.GroupName), choice.Name)

			sub, isMap := raw.(map[string]interface{})
			if !isMap && raw != nil {
				logger.Warningf("function %d: subcommand %q of job %q holds %T, expected an object", e.form.ID, choice.Name, e.job, raw)
			}
			e.level(sub, expand.Level{
				Chain:    level.Chain.With(group.GroupName, choice.Name),
				Required: choice.Required,
				Optional: choice.Optional,
				Groups:   choice.Subcommands,
			})
			break
		}
	}

	leftovers := []string{}
	for key := range data {
		if !consumed[key] {
			leftovers = append(leftovers, key)
		}
	}
	if len(leftovers) > 0 {
		sort.Strings(leftovers)
		logger.Warningf("function %d: job %q does not declare %v; these values will not be saved", e.form.ID, e.job, leftovers)
	}
}

// occurrences splits a wire value into rows and records how it was
// written
func occurrences(value interface{}, arity normalize.Arity, repeatable bool) (form.Occurrences, form.Layout) {
	layout := form.Layout{Scalar: true}
	var occ form.Occurrences

	items, isList := value.([]interface{})
	if !repeatable || !isList {
		layout.Bare = repeatable
		layout.Scalar = scalar(value, arity)
		occ = form.Occurrences{row(value, arity)}
	} else {
		occ = make(form.Occurrences, 0, len(items))
		for _, item := range items {
			occ = append(occ, row(item, arity))
			if !scalar(item, arity) {
				layout.Scalar = false
			}
		}
	}

	if len(occ.NonEmpty()) == 0 {
		blank, err := json.Marshal(value)
		if err != nil {
			logger.Warningf("cannot keep empty value %v: %v", value, err)
		} else {
			layout.Blank = blank
		}
	}
	return occ, layout
}

func scalar(value interface{}, arity normalize.Arity) bool {
	if arity.IsFlag() {
		return true
	}
	_, isList := value.([]interface{})
	return !isList
}

func row(value interface{}, arity normalize.Arity) []interface{} {
	if arity.IsFlag() {
		return []interface{}{value}
	}
	if list, ok := value.([]interface{}); ok {
		return append([]interface{}(nil), list...)
	}
	return []interface{}{value}
}

func copyInts(ids []int) []int {
	if ids == nil {
		return nil
	}
	return append([]int{}, ids...)
}

func copyStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyValues(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
