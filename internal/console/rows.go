package console

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/normalize"
	"github.com/sourceplane/obconsole/internal/state"
)

// Rows is the response of a row edit: the occurrences now stored for the
// argument
type Rows struct {
	Function    int              `json:"function"`
	Path        string           `json:"path"`
	Occurrences form.Occurrences `json:"occurrences"`
}

// rowEdit computes the new occurrences of an argument. It must not modify
// occ or its rows.
type rowEdit func(occ form.Occurrences, arity normalize.Arity, arg *model.JobArgument) (form.Occurrences, error)

func index(r *http.Request, name string) (int, error) {
	i, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, errors.BadRequestf("%s index %q", name, mux.Vars(r)[name])
	}
	return i, nil
}

func (s *Server) editRows(w http.ResponseWriter, r *http.Request, edit rowEdit) {
	vars := mux.Vars(r)
	project, scenario, path := vars["project"], vars["scenario"], vars["path"]
	id, err := functionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snapshot := s.Store.Snapshot()
	e, ok := snapshot.Editor(project, scenario)
	if !ok {
		writeError(w, r, errors.NotFoundf("editor for scenario %q of project %q", scenario, project))
		return
	}
	fn, ok := e.Form.Function(id)
	if !ok {
		writeError(w, r, errors.NotFoundf("function %d", id))
		return
	}
	if fn.Kind != model.KindStartJobInstance {
		writeError(w, r, errors.NotValidf("parameters of function %d of kind %q", id, fn.Kind))
		return
	}
	job, err := s.catalog(snapshot).Get(fn.Job)
	if err != nil {
		writeError(w, r, err)
		return
	}
	arg, ok := form.Argument(job, fn.Subcommands[fn.Job], path)
	if !ok {
		writeError(w, r, errors.NotFoundf("argument %q of job %q", path, fn.Job))
		return
	}

	occ, err := edit(fn.Parameters.Get(fn.Job, path), normalize.ArgumentCount(&arg), &arg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated := *fn
	updated.Parameters = fn.Parameters.With(fn.Job, path, occ)
	if _, err := s.Store.Dispatch(state.FunctionReplaced{Project: project, Scenario: scenario, Function: updated}); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Rows{Function: id, Path: path, Occurrences: occ})
}

func (s *Server) addOccurrence(w http.ResponseWriter, r *http.Request) {
	s.editRows(w, r, func(occ form.Occurrences, arity normalize.Arity, arg *model.JobArgument) (form.Occurrences, error) {
		switch {
		case len(occ) == 0:
			return form.NewOccurrences(arity), nil
		case !arg.Repeatable:
			return nil, errors.NotValidf("another occurrence of argument %q", arg.Name)
		}
		return form.AddOccurrence(append(form.Occurrences{}, occ...), arity), nil
	})
}

func (s *Server) removeOccurrence(w http.ResponseWriter, r *http.Request) {
	i, err := index(r, "row")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.editRows(w, r, func(occ form.Occurrences, arity normalize.Arity, arg *model.JobArgument) (form.Occurrences, error) {
		if i >= len(occ) {
			return nil, errors.NotFoundf("occurrence %d of argument %q", i, arg.Name)
		}
		out, ok := form.RemoveOccurrence(occ, i)
		if !ok {
			return nil, errors.NotValidf("removing the last occurrence of argument %q", arg.Name)
		}
		return out, nil
	})
}

func (s *Server) addValue(w http.ResponseWriter, r *http.Request) {
	i, err := index(r, "row")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.editRows(w, r, func(occ form.Occurrences, arity normalize.Arity, arg *model.JobArgument) (form.Occurrences, error) {
		if len(occ) == 0 {
			occ = form.NewOccurrences(arity)
		}
		if i >= len(occ) {
			return nil, errors.NotFoundf("occurrence %d of argument %q", i, arg.Name)
		}
		row, ok := form.AddValue(append([]interface{}(nil), occ[i]...), arity)
		if !ok {
			return nil, errors.NotValidf("more than %s values for argument %q", arity, arg.Name)
		}
		out := append(form.Occurrences{}, occ...)
		out[i] = row
		return out, nil
	})
}

func (s *Server) removeValue(w http.ResponseWriter, r *http.Request) {
	i, err := index(r, "row")
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := index(r, "value")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.editRows(w, r, func(occ form.Occurrences, arity normalize.Arity, arg *model.JobArgument) (form.Occurrences, error) {
		if i >= len(occ) || v >= len(occ[i]) {
			return nil, errors.NotFoundf("value %d of occurrence %d of argument %q", v, i, arg.Name)
		}
		row, ok := form.RemoveValue(occ[i], v, arity)
		if !ok {
			return nil, errors.NotValidf("fewer than %s values for argument %q", arity, arg.Name)
		}
		out := append(form.Occurrences{}, occ...)
		out[i] = row
		return out, nil
	})
}
