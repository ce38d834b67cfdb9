package form

import (
	"encoding/json"
	"sort"

	"github.com/sourceplane/obconsole/internal/model"
)

// Occurrences holds the values of one job argument: one row per
// occurrence, each row the values entered for that occurrence
type Occurrences [][]interface{}

// Parameters maps job name, then argument path, to the entered values.
// Keying by job name keeps values when the operator switches jobs back and forth.
type Parameters map[string]map[string]Occurrences

// Selections maps job name, then selection path, to the chosen subcommand
type Selections map[string]map[string]string

// Get returns the occurrences stored for a job argument path
func (p Parameters) Get(job, path string) Occurrences {
	if p == nil {
		return nil
	}
	return p[job][path]
}

// Set stores occurrences for a job argument path
func (p Parameters) Set(job, path string, occ Occurrences) {
	if p[job] == nil {
		p[job] = make(map[string]Occurrences)
	}
	p[job][path] = occ
}

// With returns a copy of p holding occ at the job argument path. p is not
// modified.
func (p Parameters) With(job, path string, occ Occurrences) Parameters {
	out := make(Parameters, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	values := make(map[string]Occurrences, len(p[job])+1)
	for k, v := range p[job] {
		values[k] = v
	}
	values[path] = occ
	out[job] = values
	return out
}

// Layout records how an argument value was written in the loaded document,
// so it is written back the same way
type Layout struct {
	// Scalar rows held a single value instead of a list
	Scalar bool `json:"scalar,omitempty"`
	// Bare is a repeatable argument given one occurrence without the
	// enclosing list
	Bare bool `json:"bare,omitempty"`
	// Blank is the literal of a value loaded without any entry, like null or []
	Blank json.RawMessage `json:"blank,omitempty"`
}

// Layouts maps job name, then argument path, to the layout it was loaded with
type Layouts map[string]map[string]Layout

// Get returns the layout recorded for a job argument path
func (l Layouts) Get(job, path string) (Layout, bool) {
	if l == nil {
		return Layout{}, false
	}
	layout, ok := l[job][path]
	return layout, ok
}

// Set records the layout of a job argument path
func (l Layouts) Set(job, path string, layout Layout) {
	if l[job] == nil {
		l[job] = make(map[string]Layout)
	}
	l[job][path] = layout
}

// Get returns the choice stored for a job selection path
func (s Selections) Get(job, path string) string {
	if s == nil {
		return ""
	}
	return s[job][path]
}

// Set stores the choice for a job selection path
func (s Selections) Set(job, path, choice string) {
	if s[job] == nil {
		s[job] = make(map[string]string)
	}
	s[job][path] = choice
}

// OnFailForm is the editable failure policy
type OnFailForm struct {
	Policy string      `json:"policy,omitempty"`
	Retry  interface{} `json:"retry,omitempty"`
	Delay  interface{} `json:"delay,omitempty"`
}

// WaitForm is the editable scheduling constraint
type WaitForm struct {
	Time        interface{} `json:"time,omitempty"`
	RunningIDs  []int       `json:"running_ids"`
	EndedIDs    []int       `json:"ended_ids"`
	LaunchedIDs []int       `json:"launched_ids"`
	FinishedIDs []int       `json:"finished_ids"`
}

// References returns every id the wait depends on, sorted, without duplicates
func (w *WaitForm) References() []int {
	if w == nil {
		return nil
	}
	seen := map[int]bool{}
	ids := []int{}
	for _, list := range [][]int{w.RunningIDs, w.EndedIDs, w.LaunchedIDs, w.FinishedIDs} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Ints(ids)
	return ids
}

// FunctionForm is the flattened, editable counterpart of an openbach function
type FunctionForm struct {
	ID     int                `json:"id"`
	Label  string             `json:"label,omitempty"`
	Kind   model.FunctionKind `json:"kind"`
	OnFail *OnFailForm        `json:"on_fail,omitempty"`
	Wait   *WaitForm          `json:"wait,omitempty"`

	// start_job_instance
	Entity          string          `json:"entity,omitempty"`
	Offset          interface{}     `json:"offset,omitempty"`
	Interval        interface{}     `json:"interval,omitempty"`
	Job             string          `json:"job,omitempty"`
	Parameters      Parameters      `json:"parameters,omitempty"`
	Subcommands     Selections      `json:"subcommands,omitempty"`
	Layouts         Layouts         `json:"layouts,omitempty"`
	RawJobArguments json.RawMessage `json:"raw_job_arguments,omitempty"`

	// stop_job_instances
	JobIDs []int `json:"openbach_function_ids,omitempty"`

	// start_scenario_instance
	ScenarioName      string                 `json:"scenario_name,omitempty"`
	ScenarioArguments map[string]interface{} `json:"scenario_arguments,omitempty"`

	// stop_scenario_instance
	ScenarioID int `json:"openbach_function_id,omitempty"`

	// functions of a kind the console cannot edit
	Backup json.RawMessage `json:"backup,omitempty"`
}

// Editable reports whether the function can be changed through the form
func (f *FunctionForm) Editable() bool {
	return f.Kind != model.KindUnknown
}

// References returns the ids this function points at: its waits and the
// targets of stop functions
func (f *FunctionForm) References() []int {
	ids := f.Wait.References()
	switch f.Kind {
	case model.KindStopJobInstances:
		ids = append(ids, f.JobIDs...)
	case model.KindStopScenarioInstance:
		ids = append(ids, f.ScenarioID)
	}
	return ids
}

// ScenarioForm is the editable counterpart of a scenario document
type ScenarioForm struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Arguments   map[string]string      `json:"arguments"`
	Constants   map[string]interface{} `json:"constants"`
	Functions   []FunctionForm         `json:"functions"`
}

// Function returns the function with the given id
func (s *ScenarioForm) Function(id int) (*FunctionForm, bool) {
	for i := range s.Functions {
		if s.Functions[i].ID == id {
			return &s.Functions[i], true
		}
	}
	return nil, false
}

// NextID returns an id not used by any function
func (s *ScenarioForm) NextID() int {
	next := 1
	for _, f := range s.Functions {
		if f.ID >= next {
			next = f.ID + 1
		}
	}
	return next
}

// EnsureMaps allocates the parameter and selection maps a decoded form
// may lack
func (s *ScenarioForm) EnsureMaps() {
	for i := range s.Functions {
		fn := &s.Functions[i]
		if fn.Parameters == nil {
			fn.Parameters = Parameters{}
		}
		if fn.Subcommands == nil {
			fn.Subcommands = Selections{}
		}
	}
}

// NewFunction returns a function whose kind is not selected yet
func NewFunction(id int) FunctionForm {
	return FunctionForm{
		ID:          id,
		Kind:        model.KindUnset,
		Parameters:  Parameters{},
		Subcommands: Selections{},
	}
}
