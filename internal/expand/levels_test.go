package expand_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/sourceplane/obconsole/internal/expand"
	"github.com/sourceplane/obconsole/internal/model"
)

func nestedJob() *model.Job {
	return &model.Job{
		General: model.JobGeneral{Name: "nested"},
		Arguments: model.JobArguments{
			Required: []model.JobArgument{{Name: "target", Count: "1"}},
			Subcommands: []model.JobSubcommandGroup{{
				GroupName: "A",
				Choices: []model.JobSubcommand{
					{
						Name:     "X",
						Optional: []model.JobArgument{{Name: "x_opt", Count: "1"}},
						Subcommands: []model.JobSubcommandGroup{{
							GroupName: "B",
							Choices: []model.JobSubcommand{
								{Name: "Y", Required: []model.JobArgument{{Name: "depth", Count: "1"}}},
								{Name: "Z"},
							},
						}},
					},
					{Name: "W"},
				},
			}},
		},
	}
}

func TestLevels(t *testing.T) {
	c := qt.New(t)
	job := nestedJob()

	c.Run("no selection yields only the root", func(c *qt.C) {
		levels := expand.Levels(job, expand.FromMap(nil))
		c.Assert(levels, qt.HasLen, 1)
		c.Assert(levels[0].Chain, qt.HasLen, 0)
		c.Assert(levels[0].Arguments()[0].Name, qt.Equals, "target")
	})

	c.Run("nested selections are followed", func(c *qt.C) {
		levels := expand.Levels(job, expand.FromMap(map[string]string{
			"A":     "X",
			"A.X.B": "Y",
		}))
		c.Assert(levels, qt.HasLen, 3)
		c.Assert(levels[2].Chain, qt.DeepEquals, expand.Chain{
			{Group: "A", Selected: "X"},
			{Group: "B", Selected: "Y"},
		})
		c.Assert(levels[2].Required[0].Name, qt.Equals, "depth")
	})

	c.Run("unknown choices are ignored", func(c *qt.C) {
		levels := expand.Levels(job, expand.FromMap(map[string]string{"A": "nope"}))
		c.Assert(levels, qt.HasLen, 1)
	})
}
