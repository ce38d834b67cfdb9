package planner

import "github.com/juju/errors"

// Stage groups the functions that become eligible together: every function
// of a stage depends only on functions of earlier stages
type Stage struct {
	Index     int
	Functions []int
}

// Stages layers the graph by longest dependency chain. Functions of a
// stage are in ascending id order.
func (g *FunctionGraph) Stages() ([]Stage, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, errors.Trace(err)
	}

	depth := make(map[int]int, len(order))
	deepest := -1
	for _, id := range order {
		d := 0
		for _, dep := range g.edges(id) {
			if depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		depth[id] = d
		if d > deepest {
			deepest = d
		}
	}

	stages := make([]Stage, deepest+1)
	for i := range stages {
		stages[i].Index = i
	}
	for _, id := range g.ids {
		stages[depth[id]].Functions = append(stages[depth[id]].Functions, id)
	}
	return stages, nil
}
