package console

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/convert"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/planner"
	"github.com/sourceplane/obconsole/internal/state"
)

// EditorView is the response describing an open editor
type EditorView struct {
	Project  string             `json:"project"`
	Scenario string             `json:"scenario"`
	Form     *form.ScenarioForm `json:"form"`
	Dirty    bool               `json:"dirty"`
	Problems []form.Problem     `json:"problems"`
}

// Removal lists the functions left pointing at a removed function
type Removal struct {
	Removed    int   `json:"removed"`
	Dependents []int `json:"dependents"`
	Indirect   []int `json:"indirect"`
}

// Report is the outcome of checking an editor
type Report struct {
	Problems []form.Problem `json:"problems"`
	Cycle    string         `json:"cycle,omitempty"`
}

type reloadSummary struct {
	Agents   int `json:"agents"`
	Jobs     int `json:"jobs"`
	Projects int `json:"projects"`
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Snapshot().Agents)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog(s.Store.Snapshot()).Jobs())
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	snapshot := s.Store.Snapshot()
	projects := make([]*model.Project, 0, len(snapshot.Projects))
	for _, p := range snapshot.Projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(a, b int) bool {
		return projects[a].Name < projects[b].Name
	})
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.Store.Reload(r.Context(), s.Client)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reloadSummary{
		Agents:   len(snapshot.Agents),
		Jobs:     snapshot.Jobs.Len(),
		Projects: len(snapshot.Projects),
	})
}

// entities returns the entity names of a project, loading it when the store
// does not know it yet. A project that cannot be loaded skips the entity
// check.
func (s *Server) entities(r *http.Request, project string) []string {
	if names := s.Store.Snapshot().Entities(project); names != nil {
		return names
	}
	p, err := s.Store.RefreshProject(r.Context(), s.Client, project)
	if err != nil {
		logger.Warningf("cannot load project %q, entities are not checked: %v", project, err)
		return nil
	}
	return p.EntityNames()
}

func (s *Server) view(r *http.Request, project, scenario string) (EditorView, error) {
	snapshot := s.Store.Snapshot()
	e, ok := snapshot.Editor(project, scenario)
	if !ok {
		return EditorView{}, errors.NotFoundf("editor for scenario %q of project %q", scenario, project)
	}
	return EditorView{
		Project:  project,
		Scenario: scenario,
		Form:     e.Form,
		Dirty:    e.Dirty,
		Problems: form.Validate(e.Form, s.catalog(snapshot), s.entities(r, project)),
	}, nil
}

func (s *Server) openForm(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	project, scenario := vars["project"], vars["scenario"]

	reload, _ := strconv.ParseBool(r.URL.Query().Get("reload"))
	if _, ok := s.Store.Snapshot().Editor(project, scenario); !ok || reload {
		doc, err := s.Client.GetScenario(r.Context(), project, scenario)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f := convert.ConvertScenario(doc, s.catalog(s.Store.Snapshot()))
		if f.Name == "" {
			f.Name = scenario
		}
		if _, err := s.Store.Dispatch(state.EditorOpened{Project: project, Form: f}); err != nil {
			writeError(w, r, err)
			return
		}
	}

	v, err := s.view(r, project, scenario)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) replaceForm(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	project, scenario := vars["project"], vars["scenario"]

	var f form.ScenarioForm
	if err := readJSON(r, &f); err != nil {
		writeError(w, r, err)
		return
	}
	f.EnsureMaps()
	jobs := s.catalog(s.Store.Snapshot())
	for i := range f.Functions {
		f.Functions[i].Parameters = form.FillRows(&f.Functions[i], jobs)
	}
	if _, err := s.Store.Dispatch(state.FormReplaced{Project: project, Scenario: scenario, Form: &f}); err != nil {
		writeError(w, r, err)
		return
	}

	v, err := s.view(r, project, scenario)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) closeForm(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.Store.Dispatch(state.EditorClosed{Project: vars["project"], Scenario: vars["scenario"]})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addFunction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	project, scenario := vars["project"], vars["scenario"]

	var req struct {
		Kind model.FunctionKind `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, r, errors.BadRequestf("cannot decode request body: %v", err))
		return
	}
	if req.Kind != model.KindUnset && !req.Kind.Known() {
		writeError(w, r, errors.NotValidf("function kind %q", req.Kind))
		return
	}

	snapshot, err := s.Store.Dispatch(state.FunctionAdded{Project: project, Scenario: scenario, Kind: req.Kind})
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, _ := snapshot.Editor(project, scenario)
	writeJSON(w, http.StatusCreated, e.Form.Functions[len(e.Form.Functions)-1])
}

func functionID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, errors.BadRequestf("function id %q", mux.Vars(r)["id"])
	}
	return id, nil
}

func (s *Server) replaceFunction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	project, scenario := vars["project"], vars["scenario"]
	id, err := functionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var fn form.FunctionForm
	if err := readJSON(r, &fn); err != nil {
		writeError(w, r, err)
		return
	}
	if fn.ID == 0 {
		fn.ID = id
	}
	if fn.ID != id {
		writeError(w, r, errors.BadRequestf("function %d sent to the route of function %d", fn.ID, id))
		return
	}
	if fn.Kind == model.KindUnknown {
		writeError(w, r, errors.NotValidf("function %d of unknown kind", id))
		return
	}
	if e, ok := s.Store.Snapshot().Editor(project, scenario); ok {
		if current, ok := e.Form.Function(id); ok && !current.Editable() {
			writeError(w, r, errors.NotValidf("editing function %d of unknown kind", id))
			return
		}
	}
	if fn.Parameters == nil {
		fn.Parameters = form.Parameters{}
	}
	if fn.Subcommands == nil {
		fn.Subcommands = form.Selections{}
	}
	fn.Parameters = form.FillRows(&fn, s.catalog(s.Store.Snapshot()))

	snapshot, err := s.Store.Dispatch(state.FunctionReplaced{Project: project, Scenario: scenario, Function: fn})
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, _ := snapshot.Editor(project, scenario)
	replaced, _ := e.Form.Function(id)
	writeJSON(w, http.StatusOK, replaced)
}

func (s *Server) removeFunction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	project, scenario := vars["project"], vars["scenario"]
	id, err := functionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, ok := s.Store.Snapshot().Editor(project, scenario)
	if !ok {
		writeError(w, r, errors.NotFoundf("editor for scenario %q of project %q", scenario, project))
		return
	}
	direct, indirect := planner.NewFunctionGraph(e.Form).Impact(id)

	if _, err := s.Store.Dispatch(state.FunctionRemoved{Project: project, Scenario: scenario, ID: id}); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Removal{Removed: id, Dependents: direct, Indirect: indirect})
}

func (s *Server) report(r *http.Request, project, scenario string) (*form.ScenarioForm, Report, error) {
	snapshot := s.Store.Snapshot()
	e, ok := snapshot.Editor(project, scenario)
	if !ok {
		return nil, Report{}, errors.NotFoundf("editor for scenario %q of project %q", scenario, project)
	}
	report := Report{
		Problems: form.Validate(e.Form, s.catalog(snapshot), s.entities(r, project)),
	}
	if err := planner.NewFunctionGraph(e.Form).DetectCycles(); err != nil {
		report.Cycle = err.Error()
	}
	return e.Form, report, nil
}

func (s *Server) problems(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	_, report, err := s.report(r, vars["project"], vars["scenario"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// save validates the editor and writes its document to the backend. A
// scenario the backend does not know yet is created.
func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	project, scenario := vars["project"], vars["scenario"]
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	f, report, err := s.report(r, project, scenario)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if (len(report.Problems) > 0 || report.Cycle != "") && !force {
		lines := make([]string, 0, len(report.Problems)+1)
		for _, p := range report.Problems {
			lines = append(lines, p.String())
		}
		if report.Cycle != "" {
			lines = append(lines, report.Cycle)
		}
		writeError(w, r, errors.NotValidf("scenario %q with %d problems", scenario, len(lines)), lines...)
		return
	}

	doc := convert.SaveScenario(f, s.catalog(s.Store.Snapshot()))
	saved, err := s.Client.PutScenario(r.Context(), project, doc)
	if errors.Is(err, errors.NotFound) {
		logger.Infof("scenario %q is not on the backend yet, creating it", scenario)
		saved, err = s.Client.CreateScenario(r.Context(), project, doc)
	}
	if err != nil {
		writeError(w, r, errors.Annotatef(err, "saving scenario %q", scenario))
		return
	}
	if _, err := s.Store.Dispatch(state.EditorSaved{Project: project, Scenario: scenario, Form: f}); err != nil {
		writeError(w, r, err)
		return
	}
	if saved == nil {
		saved = doc
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) convertDocument(w http.ResponseWriter, r *http.Request) {
	var doc model.Scenario
	if err := readJSON(r, &doc); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ConvertScenario(&doc, s.catalog(s.Store.Snapshot())))
}

func (s *Server) convertForm(w http.ResponseWriter, r *http.Request) {
	var f form.ScenarioForm
	if err := readJSON(r, &f); err != nil {
		writeError(w, r, err)
		return
	}
	f.EnsureMaps()
	writeJSON(w, http.StatusOK, convert.SaveScenario(&f, s.catalog(s.Store.Snapshot())))
}
