package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/form"
)

// FunctionGraph is the dependency graph of a scenario: a function depends on
// the functions it waits on and on the functions its stop payload targets
type FunctionGraph struct {
	functions map[int]*form.FunctionForm
	ids       []int
}

// NewFunctionGraph builds the graph of a scenario form. Functions sharing
// an id collapse to the last one.
func NewFunctionGraph(f *form.ScenarioForm) *FunctionGraph {
	g := &FunctionGraph{functions: make(map[int]*form.FunctionForm, len(f.Functions))}
	for i := range f.Functions {
		g.functions[f.Functions[i].ID] = &f.Functions[i]
	}
	for id := range g.functions {
		g.ids = append(g.ids, id)
	}
	sort.Ints(g.ids)
	return g
}

// IDs returns the function ids in ascending order
func (g *FunctionGraph) IDs() []int {
	return append([]int(nil), g.ids...)
}

// Function returns the function with the given id
func (g *FunctionGraph) Function(id int) (*form.FunctionForm, bool) {
	fn, ok := g.functions[id]
	return fn, ok
}

// edges returns the known ids a function depends on, sorted and unique
func (g *FunctionGraph) edges(id int) []int {
	fn, ok := g.functions[id]
	if !ok {
		return nil
	}
	deps := set.NewInts()
	for _, ref := range fn.References() {
		if _, ok := g.functions[ref]; ok {
			deps.Add(ref)
		}
	}
	return deps.SortedValues()
}

// Reference is a dangling id found in a function
type Reference struct {
	From int
	To   int
}

func (r Reference) String() string {
	return fmt.Sprintf("%d -> %d", r.From, r.To)
}

// UnknownReferences lists references to ids no function carries
func (g *FunctionGraph) UnknownReferences() []Reference {
	refs := []Reference{}
	for _, id := range g.ids {
		seen := set.NewInts()
		for _, ref := range g.functions[id].References() {
			if _, ok := g.functions[ref]; ok || seen.Contains(ref) {
				continue
			}
			seen.Add(ref)
			refs = append(refs, Reference{From: id, To: ref})
		}
	}
	return refs
}

// DetectCycles reports the first dependency cycle found, walking functions
// in id order
func (g *FunctionGraph) DetectCycles() error {
	visited := make(map[int]bool)
	onStack := make(map[int]bool)
	var stack []int

	var visit func(id int) []int
	visit = func(id int) []int {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)
		for _, dep := range g.edges(id) {
			if onStack[dep] {
				for i, s := range stack {
					if s == dep {
						return append(append([]int(nil), stack[i:]...), dep)
					}
				}
			}
			if !visited[dep] {
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		onStack[id] = false
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, id := range g.ids {
		if visited[id] {
			continue
		}
		if cycle := visit(id); cycle != nil {
			parts := make([]string, 0, len(cycle))
			for _, c := range cycle {
				parts = append(parts, fmt.Sprint(c))
			}
			return errors.NotValidf("dependency cycle %s", strings.Join(parts, " -> "))
		}
	}
	return nil
}

// TopologicalSort orders functions so that every function comes after the
// functions it depends on. Ties are broken by ascending id.
func (g *FunctionGraph) TopologicalSort() ([]int, error) {
	dependents := make(map[int][]int, len(g.ids))
	inDegree := make(map[int]int, len(g.ids))

	for _, id := range g.ids {
		inDegree[id] = 0
	}
	for _, id := range g.ids {
		for _, dep := range g.edges(id) {
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	queue := make([]int, 0)
	for _, id := range g.ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]int, 0, len(g.ids))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		released := false
		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				released = true
			}
		}
		if released {
			sort.Ints(queue)
		}
	}

	if len(sorted) != len(g.ids) {
		if err := g.DetectCycles(); err != nil {
			return nil, err
		}
		return nil, errors.NotValidf("function order (possible cycle)")
	}
	return sorted, nil
}
