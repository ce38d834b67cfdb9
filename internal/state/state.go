package state

import (
	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
)

// EditorKey identifies an open scenario editor
type EditorKey struct {
	Project  string
	Scenario string
}

// Editor is a scenario opened as a form
type Editor struct {
	Project string             `json:"project"`
	Form    *form.ScenarioForm `json:"form"`
	// Dirty is set by edits and cleared by a successful save
	Dirty bool `json:"dirty"`
}

// State is everything the console knows. It is never modified in place:
// Reduce returns a new State.
type State struct {
	Agents   []model.Agent
	Jobs     *catalog.Catalog
	Projects map[string]*model.Project
	Editors  map[EditorKey]*Editor
	// LoadError is the last failure of a reload, empty after a successful one
	LoadError string
}

// New returns the empty state
func New() State {
	return State{
		Agents:   []model.Agent{},
		Jobs:     catalog.Empty(),
		Projects: map[string]*model.Project{},
		Editors:  map[EditorKey]*Editor{},
	}
}

// Project returns a loaded project
func (s State) Project(name string) (*model.Project, bool) {
	p, ok := s.Projects[name]
	return p, ok
}

// Editor returns an open editor
func (s State) Editor(project, scenario string) (*Editor, bool) {
	e, ok := s.Editors[EditorKey{Project: project, Scenario: scenario}]
	return e, ok
}

// Entities returns the entity names of a loaded project, nil when the
// project is not loaded
func (s State) Entities(project string) []string {
	p, ok := s.Projects[project]
	if !ok {
		return nil
	}
	return p.EntityNames()
}
