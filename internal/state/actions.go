package state

import (
	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
)

// Action is a state transition
type Action interface {
	isAction()
}

// Loaded replaces the backend resources
type Loaded struct {
	Agents   []model.Agent
	Jobs     []model.Job
	Projects []model.Project
}

// LoadFailed records a failed reload
type LoadFailed struct {
	Err error
}

// ProjectLoaded replaces one project
type ProjectLoaded struct {
	Project model.Project
}

// EditorOpened installs a form for a scenario, replacing any open one
type EditorOpened struct {
	Project string
	Form    *form.ScenarioForm
}

// FormReplaced replaces the form of an open editor
type FormReplaced struct {
	Project  string
	Scenario string
	Form     *form.ScenarioForm
}

// FunctionAdded appends a new function with the next free id
type FunctionAdded struct {
	Project  string
	Scenario string
	Kind     model.FunctionKind
}

// FunctionReplaced replaces the function with the same id
type FunctionReplaced struct {
	Project  string
	Scenario string
	Function form.FunctionForm
}

// FunctionRemoved drops a function
type FunctionRemoved struct {
	Project  string
	Scenario string
	ID       int
}

// EditorSaved clears the dirty flag of an editor. When Form is set the flag
// is only cleared if the editor still holds that form, so edits made while
// the save was in flight stay dirty.
type EditorSaved struct {
	Project  string
	Scenario string
	Form     *form.ScenarioForm
}

// EditorClosed drops an editor
type EditorClosed struct {
	Project  string
	Scenario string
}

func (Loaded) isAction()           {}
func (LoadFailed) isAction()       {}
func (ProjectLoaded) isAction()    {}
func (EditorOpened) isAction()     {}
func (FormReplaced) isAction()     {}
func (FunctionAdded) isAction()    {}
func (FunctionReplaced) isAction() {}
func (FunctionRemoved) isAction()  {}
func (EditorSaved) isAction()      {}
func (EditorClosed) isAction()     {}

// Reduce applies an action. It never modifies s; maps and forms it touches
// are copied.
func Reduce(s State, action Action) (State, error) {
	switch a := action.(type) {
	case Loaded:
		s.Agents = append([]model.Agent{}, a.Agents...)
		s.Jobs = catalog.New(a.Jobs)
		s.Projects = make(map[string]*model.Project, len(a.Projects))
		for i := range a.Projects {
			p := a.Projects[i]
			s.Projects[p.Name] = &p
		}
		s.LoadError = ""
		return s, nil

	case LoadFailed:
		s.LoadError = a.Err.Error()
		return s, nil

	case ProjectLoaded:
		projects := make(map[string]*model.Project, len(s.Projects)+1)
		for k, v := range s.Projects {
			projects[k] = v
		}
		p := a.Project
		projects[p.Name] = &p
		s.Projects = projects
		return s, nil

	case EditorOpened:
		if a.Form == nil || a.Form.Name == "" {
			return s, errors.NotValidf("form without a scenario name")
		}
		s.Editors = withEditor(s.Editors, EditorKey{a.Project, a.Form.Name}, &Editor{Project: a.Project, Form: a.Form})
		return s, nil

	case FormReplaced:
		if _, err := editor(s, a.Project, a.Scenario); err != nil {
			return s, errors.Trace(err)
		}
		if a.Form == nil {
			return s, errors.NotValidf("empty form")
		}
		if a.Form.Name != a.Scenario {
			return s, errors.NotValidf("renaming scenario %q to %q", a.Scenario, a.Form.Name)
		}
		s.Editors = withEditor(s.Editors, EditorKey{a.Project, a.Scenario}, &Editor{Project: a.Project, Form: a.Form, Dirty: true})
		return s, nil

	case FunctionAdded:
		e, err := editor(s, a.Project, a.Scenario)
		if err != nil {
			return s, errors.Trace(err)
		}
		f := copyForm(e.Form)
		fn := form.NewFunction(f.NextID())
		fn.Kind = a.Kind
		f.Functions = append(f.Functions, fn)
		s.Editors = withEditor(s.Editors, EditorKey{a.Project, a.Scenario}, &Editor{Project: a.Project, Form: f, Dirty: true})
		return s, nil

	case FunctionReplaced:
		e, err := editor(s, a.Project, a.Scenario)
		if err != nil {
			return s, errors.Trace(err)
		}
		f := copyForm(e.Form)
		replaced := false
		for i := range f.Functions {
			if f.Functions[i].ID == a.Function.ID {
				f.Functions[i] = a.Function
				replaced = true
				break
			}
		}
		if !replaced {
			return s, errors.NotFoundf("function %d", a.Function.ID)
		}
		s.Editors = withEditor(s.Editors, EditorKey{a.Project, a.Scenario}, &Editor{Project: a.Project, Form: f, Dirty: true})
		return s, nil

	case FunctionRemoved:
		e, err := editor(s, a.Project, a.Scenario)
		if err != nil {
			return s, errors.Trace(err)
		}
		f := copyForm(e.Form)
		kept := make([]form.FunctionForm, 0, len(f.Functions))
		for _, fn := range f.Functions {
			if fn.ID != a.ID {
				kept = append(kept, fn)
			}
		}
		if len(kept) == len(f.Functions) {
			return s, errors.NotFoundf("function %d", a.ID)
		}
		f.Functions = kept
		s.Editors = withEditor(s.Editors, EditorKey{a.Project, a.Scenario}, &Editor{Project: a.Project, Form: f, Dirty: true})
		return s, nil

	case EditorSaved:
		e, err := editor(s, a.Project, a.Scenario)
		if err != nil {
			return s, errors.Trace(err)
		}
		if a.Form != nil && a.Form != e.Form {
			return s, nil
		}
		s.Editors = withEditor(s.Editors, EditorKey{a.Project, a.Scenario}, &Editor{Project: a.Project, Form: e.Form})
		return s, nil

	case EditorClosed:
		key := EditorKey{a.Project, a.Scenario}
		editors := make(map[EditorKey]*Editor, len(s.Editors))
		for k, v := range s.Editors {
			if k != key {
				editors[k] = v
			}
		}
		s.Editors = editors
		return s, nil
	}
	return s, errors.NotSupportedf("action %T", action)
}

func editor(s State, project, scenario string) (*Editor, error) {
	e, ok := s.Editor(project, scenario)
	if !ok {
		return nil, errors.NotFoundf("editor for scenario %q of project %q", scenario, project)
	}
	return e, nil
}

func withEditor(editors map[EditorKey]*Editor, key EditorKey, e *Editor) map[EditorKey]*Editor {
	out := make(map[EditorKey]*Editor, len(editors)+1)
	for k, v := range editors {
		out[k] = v
	}
	out[key] = e
	return out
}

// copyForm copies the function list of a form so it can be changed without
// affecting earlier states. Functions themselves are replaced, never mutated.
func copyForm(f *form.ScenarioForm) *form.ScenarioForm {
	out := *f
	out.Functions = append([]form.FunctionForm{}, f.Functions...)
	return &out
}
