package form_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
)

func pingCatalog() *catalog.Catalog {
	return catalog.New([]model.Job{{
		General: model.JobGeneral{Name: "fping"},
		Arguments: model.JobArguments{
			Required: []model.JobArgument{{Name: "destination_ip", Count: "1", Type: model.TypeIP}},
			Optional: []model.JobArgument{
				{Name: "targets", Count: "2-4", Type: model.TypeIP},
				{Name: "quiet", Count: "0", Type: model.TypeNone},
			},
			Subcommands: []model.JobSubcommandGroup{{
				GroupName: "mode",
				Choices:   []model.JobSubcommand{{Name: "burst"}, {Name: "steady"}},
			}},
		},
	}})
}

func messages(problems []form.Problem) []string {
	out := make([]string, 0, len(problems))
	for _, p := range problems {
		out = append(out, p.String())
	}
	return out
}

func contains(problems []form.Problem, fragment string) bool {
	for _, p := range problems {
		if strings.Contains(p.String(), fragment) {
			return true
		}
	}
	return false
}

func TestValidateStartJob(t *testing.T) {
	c := qt.New(t)
	jobs := pingCatalog()

	valid := form.FunctionForm{
		ID:     1,
		Kind:   model.KindStartJobInstance,
		Entity: "client",
		Job:    "fping",
		Parameters: form.Parameters{"fping": {
			"destination_ip": {{"10.0.0.1"}},
			"quiet":          {{true}},
		}},
		Subcommands: form.Selections{"fping": {"mode": "burst"}},
	}

	c.Run("a complete function has no problem", func(c *qt.C) {
		f := &form.ScenarioForm{Functions: []form.FunctionForm{valid}}
		c.Assert(messages(form.Validate(f, jobs, []string{"client"})), qt.HasLen, 0)
	})

	c.Run("arity bounds are enforced", func(c *qt.C) {
		fn := valid
		fn.Parameters = form.Parameters{"fping": {
			"destination_ip": {{"10.0.0.1"}},
			"targets":        {{"10.0.0.2", nil}},
		}}
		problems := form.Validate(&form.ScenarioForm{Functions: []form.FunctionForm{fn}}, jobs, nil)
		c.Assert(contains(problems, "targets: expects 2-4 values, got 1"), qt.IsTrue, qt.Commentf("%v", messages(problems)))

		fn.Parameters["fping"]["targets"] = form.Occurrences{{"a", "b", "c", "d", "e"}}
		problems = form.Validate(&form.ScenarioForm{Functions: []form.FunctionForm{fn}}, jobs, nil)
		c.Assert(contains(problems, "expects 2-4 values, got 5"), qt.IsTrue)
	})

	c.Run("missing pieces are reported", func(c *qt.C) {
		fn := valid
		fn.Entity = "server"
		fn.Parameters = form.Parameters{}
		fn.Subcommands = form.Selections{}
		problems := form.Validate(&form.ScenarioForm{Functions: []form.FunctionForm{fn}}, jobs, []string{"client"})
		c.Assert(contains(problems, `entity "server" is not part of the project`), qt.IsTrue)
		c.Assert(contains(problems, "destination_ip: required argument is missing"), qt.IsTrue)
		c.Assert(contains(problems, "mode: a choice is required"), qt.IsTrue)
	})

	c.Run("unknown job", func(c *qt.C) {
		fn := valid
		fn.Job = "nuttcp"
		problems := form.Validate(&form.ScenarioForm{Functions: []form.FunctionForm{fn}}, jobs, nil)
		c.Assert(messages(problems), qt.DeepEquals, []string{"function 1: job: Selected Job nuttcp not found"})
	})
}

func TestValidateReferences(t *testing.T) {
	c := qt.New(t)

	f := &form.ScenarioForm{Functions: []form.FunctionForm{
		{ID: 1, Kind: model.KindStartScenarioInstance, ScenarioName: "sub"},
		{ID: 2, Kind: model.KindStopJobInstances, JobIDs: []int{1, 9},
			Wait: &form.WaitForm{LaunchedIDs: []int{1}, FinishedIDs: []int{2}}},
		{ID: 2, Kind: model.KindUnset},
		{ID: 3, Kind: model.KindStopScenarioInstance, ScenarioID: 1},
	}}

	problems := messages(form.Validate(f, catalog.Empty(), nil))
	c.Assert(problems, qt.DeepEquals, []string{
		"function 2: id: duplicated function id",
		"function 2: wait: function waits on itself",
		"function 2: openbach_function_ids: function 1 is not a Start Job Instance function",
		"function 2: openbach_function_ids: references unknown function 9",
		"function 2: kind: Not selected yet",
	})
}
