package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// FunctionKind discriminates the payload of an openbach function
type FunctionKind string

const (
	KindUnset                 FunctionKind = ""
	KindStartJobInstance      FunctionKind = "start_job_instance"
	KindStopJobInstances      FunctionKind = "stop_job_instances"
	KindStartScenarioInstance FunctionKind = "start_scenario_instance"
	KindStopScenarioInstance  FunctionKind = "stop_scenario_instance"
	KindUnknown               FunctionKind = "unknown"
)

// Known reports whether the kind is one of the four editable kinds
func (k FunctionKind) Known() bool {
	switch k {
	case KindStartJobInstance, KindStopJobInstances, KindStartScenarioInstance, KindStopScenarioInstance:
		return true
	}
	return false
}

// Title is the human readable name of the kind. A kind that is unset or
// unknown reads as not selected.
func (k FunctionKind) Title() string {
	switch k {
	case KindStartJobInstance:
		return "Start Job Instance"
	case KindStopJobInstances:
		return "Stop Job Instances"
	case KindStartScenarioInstance:
		return "Start Scenario Instance"
	case KindStopScenarioInstance:
		return "Stop Scenario Instance"
	}
	return "Not selected yet"
}

// metaKeys are the function keys that never determine its kind
var metaKeys = map[string]bool{
	"id":      true,
	"label":   true,
	"wait":    true,
	"on_fail": true,
}

// Scenario is the persisted scenario document
type Scenario struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Arguments   map[string]string      `json:"arguments"`
	Constants   map[string]interface{} `json:"constants"`
	Functions   []OpenbachFunction     `json:"openbach_functions"`
}

// Wait schedules a function relative to other functions of the scenario
type Wait struct {
	Time        interface{}
	RunningIDs  []int
	EndedIDs    []int
	LaunchedIDs []int
	FinishedIDs []int
}

type waitWire struct {
	Time        interface{} `json:"time,omitempty"`
	RunningIDs  *[]int      `json:"running_ids,omitempty"`
	EndedIDs    *[]int      `json:"ended_ids,omitempty"`
	LaunchedIDs *[]int      `json:"launched_ids,omitempty"`
	FinishedIDs *[]int      `json:"finished_ids,omitempty"`
}

func listRef(ids []int) *[]int {
	if ids == nil {
		return nil
	}
	return &ids
}

func listDeref(ids *[]int) []int {
	if ids == nil {
		return nil
	}
	if *ids == nil {
		return []int{}
	}
	return *ids
}

// MarshalJSON keeps empty id lists apart from absent ones
func (w Wait) MarshalJSON() ([]byte, error) {
	return json.Marshal(waitWire{
		Time:        w.Time,
		RunningIDs:  listRef(w.RunningIDs),
		EndedIDs:    listRef(w.EndedIDs),
		LaunchedIDs: listRef(w.LaunchedIDs),
		FinishedIDs: listRef(w.FinishedIDs),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON
func (w *Wait) UnmarshalJSON(data []byte) error {
	var wire waitWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*w = Wait{
		Time:        wire.Time,
		RunningIDs:  listDeref(wire.RunningIDs),
		EndedIDs:    listDeref(wire.EndedIDs),
		LaunchedIDs: listDeref(wire.LaunchedIDs),
		FinishedIDs: listDeref(wire.FinishedIDs),
	}
	return nil
}

// OnFail is the failure policy of a function
type OnFail struct {
	Policy string      `json:"policy,omitempty"`
	Retry  interface{} `json:"retry,omitempty"`
	Delay  interface{} `json:"delay,omitempty"`
}

// StartJobInstance launches a job on an entity's agent. Job names the
// single argument key; Arguments holds its raw value.
type StartJobInstance struct {
	EntityName string
	Offset     interface{}
	Interval   interface{}
	Job        string
	Arguments  json.RawMessage
}

// MarshalJSON flattens the job arguments under the job name
func (s StartJobInstance) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"entity_name": s.EntityName,
	}
	if s.Offset != nil {
		out["offset"] = s.Offset
	}
	if s.Interval != nil {
		out["interval"] = s.Interval
	}
	if s.Job != "" {
		args := s.Arguments
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		out[s.Job] = args
	}
	return json.Marshal(out)
}

// UnmarshalJSON requires exactly one key besides entity_name, offset and interval
func (s *StartJobInstance) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var out StartJobInstance
	jobs := make([]string, 0, 1)
	for key, value := range fields {
		var err error
		switch key {
		case "entity_name":
			err = json.Unmarshal(value, &out.EntityName)
		case "offset":
			err = json.Unmarshal(value, &out.Offset)
		case "interval":
			err = json.Unmarshal(value, &out.Interval)
		default:
			jobs = append(jobs, key)
			out.Job = key
			out.Arguments = value
		}
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if len(jobs) != 1 {
		sort.Strings(jobs)
		return fmt.Errorf("start_job_instance must name exactly one job, got %v", jobs)
	}

	*s = out
	return nil
}

// StopJobInstances stops the jobs started by the referenced functions
type StopJobInstances struct {
	OpenbachFunctionIDs []int `json:"openbach_function_ids"`
}

// StartScenarioInstance launches a sub-scenario
type StartScenarioInstance struct {
	ScenarioName string                 `json:"scenario_name"`
	Arguments    map[string]interface{} `json:"arguments"`
}

// StopScenarioInstance stops the sub-scenario started by the referenced function
type StopScenarioInstance struct {
	OpenbachFunctionID int `json:"openbach_function_id"`
}

// OpenbachFunction is one step of a scenario. Exactly one payload matches
// Kind. Functions of unknown shape keep their input bytes in Raw.
type OpenbachFunction struct {
	ID     int
	Label  string
	OnFail *OnFail
	Wait   *Wait
	Kind   FunctionKind

	StartJobInstance      *StartJobInstance
	StopJobInstances      *StopJobInstances
	StartScenarioInstance *StartScenarioInstance
	StopScenarioInstance  *StopScenarioInstance

	Raw json.RawMessage
}

type functionMeta struct {
	ID     int     `json:"id"`
	Label  string  `json:"label,omitempty"`
	OnFail *OnFail `json:"on_fail,omitempty"`
	Wait   *Wait   `json:"wait,omitempty"`
}

type functionWire struct {
	functionMeta
	StartJobInstance      *StartJobInstance      `json:"start_job_instance,omitempty"`
	StopJobInstances      *StopJobInstances      `json:"stop_job_instances,omitempty"`
	StartScenarioInstance *StartScenarioInstance `json:"start_scenario_instance,omitempty"`
	StopScenarioInstance  *StopScenarioInstance  `json:"stop_scenario_instance,omitempty"`
}

// MarshalJSON writes Raw unchanged for unknown functions
func (f OpenbachFunction) MarshalJSON() ([]byte, error) {
	if f.Kind == KindUnknown {
		if len(f.Raw) == 0 {
			return nil, fmt.Errorf("function %d has an unknown kind and no raw content", f.ID)
		}
		return f.Raw, nil
	}

	wire := functionWire{
		functionMeta: functionMeta{ID: f.ID, Label: f.Label, OnFail: f.OnFail, Wait: f.Wait},
	}
	switch f.Kind {
	case KindStartJobInstance:
		wire.StartJobInstance = f.StartJobInstance
	case KindStopJobInstances:
		wire.StopJobInstances = f.StopJobInstances
	case KindStartScenarioInstance:
		wire.StartScenarioInstance = f.StartScenarioInstance
	case KindStopScenarioInstance:
		wire.StopScenarioInstance = f.StopScenarioInstance
	}
	return json.Marshal(wire)
}

// UnmarshalJSON determines the kind from the single non-meta key. Any shape
// it cannot decode strictly becomes KindUnknown with Raw set.
func (f *OpenbachFunction) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	out := OpenbachFunction{}
	var meta functionMeta
	if err := json.Unmarshal(data, &meta); err == nil {
		out.ID, out.Label, out.OnFail, out.Wait = meta.ID, meta.Label, meta.OnFail, meta.Wait
	} else {
		// still usable as an unknown function; keep whatever id is readable
		var id struct {
			ID int `json:"id"`
		}
		json.Unmarshal(data, &id)
		out.ID = id.ID
		return f.unknown(out, data)
	}

	extra := make([]string, 0, 1)
	for key := range fields {
		if !metaKeys[key] {
			extra = append(extra, key)
		}
	}
	if len(extra) != 1 {
		return f.unknown(out, data)
	}

	payload := fields[extra[0]]
	var err error
	switch FunctionKind(extra[0]) {
	case KindStartJobInstance:
		out.StartJobInstance = new(StartJobInstance)
		err = json.Unmarshal(payload, out.StartJobInstance)
	case KindStopJobInstances:
		out.StopJobInstances = new(StopJobInstances)
		err = strictUnmarshal(payload, out.StopJobInstances)
	case KindStartScenarioInstance:
		out.StartScenarioInstance = new(StartScenarioInstance)
		err = strictUnmarshal(payload, out.StartScenarioInstance)
	case KindStopScenarioInstance:
		out.StopScenarioInstance = new(StopScenarioInstance)
		err = strictUnmarshal(payload, out.StopScenarioInstance)
	default:
		return f.unknown(out, data)
	}
	if err != nil {
		return f.unknown(out, data)
	}

	out.Kind = FunctionKind(extra[0])
	*f = out
	return nil
}

func (f *OpenbachFunction) unknown(out OpenbachFunction, data []byte) error {
	*f = OpenbachFunction{
		ID:     out.ID,
		Label:  out.Label,
		OnFail: out.OnFail,
		Wait:   out.Wait,
		Kind:   KindUnknown,
		Raw:    append(json.RawMessage(nil), data...),
	}
	return nil
}

func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
