package planner

import "github.com/juju/collections/set"

// Dependencies returns the ids a function directly depends on
func (g *FunctionGraph) Dependencies(id int) []int {
	return g.edges(id)
}

// Dependents returns the ids of the functions that directly depend on id
func (g *FunctionGraph) Dependents(id int) []int {
	dependents := make([]int, 0)
	for _, other := range g.ids {
		for _, dep := range g.edges(other) {
			if dep == id {
				dependents = append(dependents, other)
				break
			}
		}
	}
	return dependents
}

// TransitiveDependencies returns every id reachable through Dependencies
func (g *FunctionGraph) TransitiveDependencies(id int) []int {
	return g.traverse(id, g.Dependencies)
}

// TransitiveDependents returns every id that reaches id through its
// dependencies
func (g *FunctionGraph) TransitiveDependents(id int) []int {
	return g.traverse(id, g.Dependents)
}

func (g *FunctionGraph) traverse(id int, next func(int) []int) []int {
	result := set.NewInts()
	visited := set.NewInts()

	var walk func(int)
	walk = func(current int) {
		if visited.Contains(current) {
			return
		}
		visited.Add(current)
		for _, n := range next(current) {
			if n != id {
				result.Add(n)
			}
			walk(n)
		}
	}

	walk(id)
	return result.SortedValues()
}

// Impact splits the functions affected by removing the given ids: the
// functions that reference them directly and those that only depend on them
// through other functions
func (g *FunctionGraph) Impact(removed ...int) (direct, indirect []int) {
	gone := set.NewInts(removed...)
	directSet := set.NewInts()
	indirectSet := set.NewInts()

	for _, id := range removed {
		for _, d := range g.Dependents(id) {
			if !gone.Contains(d) {
				directSet.Add(d)
			}
		}
	}
	for _, id := range removed {
		for _, d := range g.TransitiveDependents(id) {
			if !gone.Contains(d) && !directSet.Contains(d) {
				indirectSet.Add(d)
			}
		}
	}
	return directSet.SortedValues(), indirectSet.SortedValues()
}
