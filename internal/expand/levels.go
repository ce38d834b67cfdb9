package expand

import "github.com/sourceplane/obconsole/internal/model"

// Level is one argument level of a job: the root, or the body of a selected
// subcommand
type Level struct {
	Chain    Chain
	Required []model.JobArgument
	Optional []model.JobArgument
	Groups   []model.JobSubcommandGroup
}

// Arguments returns required then optional arguments
func (l *Level) Arguments() []model.JobArgument {
	args := make([]model.JobArgument, 0, len(l.Required)+len(l.Optional))
	args = append(args, l.Required...)
	return append(args, l.Optional...)
}

// Selected maps a selection path to the chosen subcommand name, "" if none
type Selected func(path string) string

// FromMap adapts a selection map to Selected
func FromMap(m map[string]string) Selected {
	return func(path string) string {
		return m[path]
	}
}

// Levels walks a job's subcommand tree following the selections and returns
// the active levels, root first, depth first. Selections naming a choice the
// group does not offer are ignored.
func Levels(job *model.Job, selected Selected) []Level {
	root := Level{
		Chain:    Chain{},
		Required: job.Arguments.Required,
		Optional: job.Arguments.Optional,
		Groups:   job.Arguments.Subcommands,
	}
	levels := []Level{}
	walk(root, selected, &levels)
	return levels
}

func walk(level Level, selected Selected, out *[]Level) {
	*out = append(*out, level)
	for i := range level.Groups {
		group := &level.Groups[i]
		name := selected(SelectionPath(level.Chain, group.GroupName))
		if name == "" {
			continue
		}
		choice, ok := group.Choice(name)
		if !ok {
			continue
		}
		walk(Level{
			Chain:    level.Chain.With(group.GroupName, choice.Name),
			Required: choice.Required,
			Optional: choice.Optional,
			Groups:   choice.Subcommands,
		}, selected, out)
	}
}
