package state_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/rest/mock"
	"github.com/sourceplane/obconsole/internal/state"
)

func opened(c *qt.C) state.State {
	s, err := state.Reduce(state.New(), state.EditorOpened{
		Project: "lab",
		Form: &form.ScenarioForm{Name: "probe", Functions: []form.FunctionForm{
			form.NewFunction(1),
			form.NewFunction(3),
		}},
	})
	c.Assert(err, qt.IsNil)
	return s
}

func TestReduceIsPure(t *testing.T) {
	c := qt.New(t)

	before := opened(c)
	after, err := state.Reduce(before, state.FunctionAdded{Project: "lab", Scenario: "probe", Kind: model.KindStopScenarioInstance})
	c.Assert(err, qt.IsNil)

	e, _ := before.Editor("lab", "probe")
	c.Assert(e.Form.Functions, qt.HasLen, 2)
	c.Assert(e.Dirty, qt.IsFalse)

	e, _ = after.Editor("lab", "probe")
	c.Assert(e.Form.Functions, qt.HasLen, 3)
	c.Assert(e.Form.Functions[2].ID, qt.Equals, 4)
	c.Assert(e.Form.Functions[2].Kind, qt.Equals, model.KindStopScenarioInstance)
	c.Assert(e.Dirty, qt.IsTrue)
}

func TestFunctionEdits(t *testing.T) {
	c := qt.New(t)
	s := opened(c)

	fn := form.NewFunction(3)
	fn.Kind = model.KindStartScenarioInstance
	fn.ScenarioName = "baseline"
	s, err := state.Reduce(s, state.FunctionReplaced{Project: "lab", Scenario: "probe", Function: fn})
	c.Assert(err, qt.IsNil)
	e, _ := s.Editor("lab", "probe")
	c.Assert(e.Form.Functions[1].ScenarioName, qt.Equals, "baseline")

	_, err = state.Reduce(s, state.FunctionReplaced{Project: "lab", Scenario: "probe", Function: form.NewFunction(9)})
	c.Assert(err, qt.Satisfies, errors.IsNotFound)

	s, err = state.Reduce(s, state.FunctionRemoved{Project: "lab", Scenario: "probe", ID: 1})
	c.Assert(err, qt.IsNil)
	e, _ = s.Editor("lab", "probe")
	c.Assert(e.Form.Functions, qt.HasLen, 1)

	_, err = state.Reduce(s, state.FunctionRemoved{Project: "lab", Scenario: "probe", ID: 1})
	c.Assert(err, qt.Satisfies, errors.IsNotFound)

	s, err = state.Reduce(s, state.EditorSaved{Project: "lab", Scenario: "probe"})
	c.Assert(err, qt.IsNil)
	e, _ = s.Editor("lab", "probe")
	c.Assert(e.Dirty, qt.IsFalse)

	s, err = state.Reduce(s, state.EditorClosed{Project: "lab", Scenario: "probe"})
	c.Assert(err, qt.IsNil)
	_, ok := s.Editor("lab", "probe")
	c.Assert(ok, qt.IsFalse)

	_, err = state.Reduce(s, state.FunctionAdded{Project: "lab", Scenario: "probe"})
	c.Assert(err, qt.Satisfies, errors.IsNotFound)
}

func TestSavedFormOnlyClearsItsOwnEdits(t *testing.T) {
	c := qt.New(t)

	s, err := state.Reduce(opened(c), state.FunctionAdded{Project: "lab", Scenario: "probe"})
	c.Assert(err, qt.IsNil)
	e, _ := s.Editor("lab", "probe")
	saving := e.Form

	// an edit lands while saving is in flight
	s, err = state.Reduce(s, state.FunctionRemoved{Project: "lab", Scenario: "probe", ID: 1})
	c.Assert(err, qt.IsNil)

	s, err = state.Reduce(s, state.EditorSaved{Project: "lab", Scenario: "probe", Form: saving})
	c.Assert(err, qt.IsNil)
	e, _ = s.Editor("lab", "probe")
	c.Assert(e.Dirty, qt.IsTrue)

	s, err = state.Reduce(s, state.EditorSaved{Project: "lab", Scenario: "probe", Form: e.Form})
	c.Assert(err, qt.IsNil)
	e, _ = s.Editor("lab", "probe")
	c.Assert(e.Dirty, qt.IsFalse)
}

func TestFormReplacedKeepsName(t *testing.T) {
	c := qt.New(t)

	_, err := state.Reduce(opened(c), state.FormReplaced{Project: "lab", Scenario: "probe", Form: &form.ScenarioForm{Name: "other"}})
	c.Assert(err, qt.Satisfies, errors.IsNotValid)
}

func TestStoreLoad(t *testing.T) {
	c := qt.New(t)

	client := mock.New(t)
	client.Impl.ListAgents = func(ctx context.Context) ([]model.Agent, error) {
		return []model.Agent{{Name: "a1", Address: "10.0.0.1"}}, nil
	}
	client.Impl.ListJobs = func(ctx context.Context) ([]model.Job, error) {
		return []model.Job{{General: model.JobGeneral{Name: "fping"}}}, nil
	}
	client.Impl.ListProjects = func(ctx context.Context) ([]model.Project, error) {
		return []model.Project{{Name: "lab", Entities: []model.Entity{{Name: "client"}, {Name: "server"}}}}, nil
	}

	store := state.NewStore()
	s, err := store.Reload(context.Background(), client)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Agents, qt.HasLen, 1)
	c.Assert(s.Jobs.Names(), qt.DeepEquals, []string{"fping"})
	c.Assert(s.Entities("lab"), qt.DeepEquals, []string{"client", "server"})
	c.Assert(s.Entities("other"), qt.IsNil)
	c.Assert(store.Snapshot().LoadError, qt.Equals, "")
}

func TestStoreLoadFailure(t *testing.T) {
	c := qt.New(t)

	client := mock.New(t)
	client.Impl.ListAgents = func(ctx context.Context) ([]model.Agent, error) {
		return nil, errors.Unauthorizedf("agents")
	}
	client.Impl.ListJobs = func(ctx context.Context) ([]model.Job, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	client.Impl.ListProjects = func(ctx context.Context) ([]model.Project, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	store := state.NewStore()
	_, err := store.Reload(context.Background(), client)
	c.Assert(err, qt.Satisfies, errors.IsUnauthorized)
	c.Assert(store.Snapshot().LoadError, qt.Matches, "loading agents: agents unauthorized")
	c.Assert(store.Snapshot().Jobs.Len(), qt.Equals, 0)
}
