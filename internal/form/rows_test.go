package form_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/normalize"
)

func TestNewOccurrence(t *testing.T) {
	c := qt.New(t)

	c.Assert(form.NewOccurrence(normalize.ParameterCount("2-4")), qt.HasLen, 2)
	c.Assert(form.NewOccurrence(normalize.ParameterCount("*")), qt.HasLen, 1)
	c.Assert(form.NewOccurrence(normalize.ParameterCount("")), qt.HasLen, 1)
	c.Assert(form.NewOccurrences(normalize.ParameterCount("3")), qt.DeepEquals, form.Occurrences{{nil, nil, nil}})
}

func TestAddValueStopsAtMaximum(t *testing.T) {
	c := qt.New(t)
	arity := normalize.ParameterCount("2-4")

	row := form.NewOccurrence(arity)
	var ok bool
	for i := 0; i < 2; i++ {
		row, ok = form.AddValue(row, arity)
		c.Assert(ok, qt.IsTrue)
	}
	c.Assert(row, qt.HasLen, 4)

	row, ok = form.AddValue(row, arity)
	c.Assert(ok, qt.IsFalse)
	c.Assert(row, qt.HasLen, 4)

	unbounded := normalize.ParameterCount("+")
	long := make([]interface{}, 50)
	long, ok = form.AddValue(long, unbounded)
	c.Assert(ok, qt.IsTrue)
	c.Assert(long, qt.HasLen, 51)
}

func TestRemoveValueKeepsMinimum(t *testing.T) {
	c := qt.New(t)
	arity := normalize.ParameterCount("2-4")

	row := []interface{}{1, 2, 3}
	row, ok := form.RemoveValue(row, 0, arity)
	c.Assert(ok, qt.IsTrue)
	c.Assert(row, qt.DeepEquals, []interface{}{2, 3})

	row, ok = form.RemoveValue(row, 1, arity)
	c.Assert(ok, qt.IsFalse)
	c.Assert(row, qt.HasLen, 2)

	star := normalize.ParameterCount("*")
	single := []interface{}{"x"}
	_, ok = form.RemoveValue(single, 0, star)
	c.Assert(ok, qt.IsFalse, qt.Commentf("a row is never emptied"))

	_, ok = form.RemoveValue(row, 5, arity)
	c.Assert(ok, qt.IsFalse)
}

func TestRemoveOccurrenceKeepsLastRow(t *testing.T) {
	c := qt.New(t)
	arity := normalize.ParameterCount("1")

	occ := form.NewOccurrences(arity)
	occ = form.AddOccurrence(occ, arity)
	c.Assert(occ, qt.HasLen, 2)

	occ, ok := form.RemoveOccurrence(occ, 1)
	c.Assert(ok, qt.IsTrue)
	c.Assert(occ, qt.HasLen, 1)

	occ, ok = form.RemoveOccurrence(occ, 0)
	c.Assert(ok, qt.IsFalse)
	c.Assert(occ, qt.HasLen, 1)
}

func TestFilled(t *testing.T) {
	c := qt.New(t)

	c.Assert(form.Filled([]interface{}{1, 0, nil}), qt.Equals, 2)
	c.Assert(form.Filled([]interface{}{"", nil}), qt.Equals, 0)
	c.Assert(form.Filled([]interface{}{nil, "a", ""}), qt.Equals, 2)
	c.Assert(form.Occurrences{{nil}, {"a"}, {}}.NonEmpty(), qt.DeepEquals, form.Occurrences{{"a"}})
}

func modeJob() *model.Job {
	return &model.Job{
		General: model.JobGeneral{Name: "iperf3"},
		Arguments: model.JobArguments{
			Optional: []model.JobArgument{{Name: "num_flows", Count: "1"}},
			Subcommands: []model.JobSubcommandGroup{{
				GroupName: "mode",
				Choices: []model.JobSubcommand{
					{Name: "client", Required: []model.JobArgument{{Name: "servers", Count: "2-3", Repeatable: true}}},
					{Name: "server"},
				},
			}},
		},
	}
}

func TestArgument(t *testing.T) {
	c := qt.New(t)
	job := modeJob()

	arg, ok := form.Argument(job, nil, "num_flows")
	c.Assert(ok, qt.IsTrue)
	c.Assert(arg.Name, qt.Equals, "num_flows")

	_, ok = form.Argument(job, nil, "mode.client.servers")
	c.Assert(ok, qt.IsFalse)

	arg, ok = form.Argument(job, map[string]string{"mode": "client"}, "mode.client.servers")
	c.Assert(ok, qt.IsTrue)
	c.Assert(arg.Repeatable, qt.IsTrue)
}

func TestFillRows(t *testing.T) {
	c := qt.New(t)
	jobs := catalog.New([]model.Job{*modeJob()})

	fn := form.NewFunction(1)
	fn.Kind = model.KindStartJobInstance
	fn.Job = "iperf3"
	fn.Subcommands.Set("iperf3", "mode", "client")
	fn.Parameters.Set("iperf3", "num_flows", form.Occurrences{{}})
	fn.Parameters.Set("iperf3", "mode.client.servers", form.Occurrences{})
	fn.Parameters.Set("iperf3", "mode.server.port", form.Occurrences{})

	params := form.FillRows(&fn, jobs)
	c.Assert(params.Get("iperf3", "num_flows"), qt.DeepEquals, form.Occurrences{{nil}})
	c.Assert(params.Get("iperf3", "mode.client.servers"), qt.DeepEquals, form.Occurrences{{nil, nil}})
	c.Assert(params.Get("iperf3", "mode.server.port"), qt.HasLen, 0)

	// the function itself is left alone
	c.Assert(fn.Parameters.Get("iperf3", "mode.client.servers"), qt.HasLen, 0)

	fn.Kind = model.KindStopJobInstances
	c.Assert(form.FillRows(&fn, jobs).Get("iperf3", "mode.client.servers"), qt.HasLen, 0)
}
