package model_test

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/sourceplane/obconsole/internal/model"
)

func decode(c *qt.C, data string) model.OpenbachFunction {
	var fn model.OpenbachFunction
	c.Assert(json.Unmarshal([]byte(data), &fn), qt.IsNil)
	return fn
}

func TestFunctionKind(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		about string
		data  string
		kind  model.FunctionKind
	}{{
		about: "start job instance",
		data:  `{"id": 1, "start_job_instance": {"entity_name": "e", "offset": 0, "fping": {}}}`,
		kind:  model.KindStartJobInstance,
	}, {
		about: "stop job instances",
		data:  `{"id": 2, "label": "l", "stop_job_instances": {"openbach_function_ids": [1]}}`,
		kind:  model.KindStopJobInstances,
	}, {
		about: "start scenario instance",
		data:  `{"id": 3, "start_scenario_instance": {"scenario_name": "s", "arguments": {}}}`,
		kind:  model.KindStartScenarioInstance,
	}, {
		about: "stop scenario instance",
		data:  `{"id": 4, "wait": {"time": 1}, "stop_scenario_instance": {"openbach_function_id": 3}}`,
		kind:  model.KindStopScenarioInstance,
	}, {
		about: "unsupported function",
		data:  `{"id": 5, "push_file": {}}`,
		kind:  model.KindUnknown,
	}, {
		about: "two payloads",
		data:  `{"id": 6, "stop_job_instances": {"openbach_function_ids": []}, "stop_scenario_instance": {"openbach_function_id": 1}}`,
		kind:  model.KindUnknown,
	}, {
		about: "no payload",
		data:  `{"id": 7, "label": "nothing"}`,
		kind:  model.KindUnknown,
	}, {
		about: "extra field in a strict payload",
		data:  `{"id": 8, "stop_job_instances": {"openbach_function_ids": [1], "force": true}}`,
		kind:  model.KindUnknown,
	}, {
		about: "start job naming two jobs",
		data:  `{"id": 9, "start_job_instance": {"entity_name": "e", "fping": {}, "iperf3": {}}}`,
		kind:  model.KindUnknown,
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			fn := decode(c, test.data)
			c.Assert(fn.Kind, qt.Equals, test.kind)
			if test.kind == model.KindUnknown {
				c.Assert(string(fn.Raw), qt.Equals, test.data)
			} else {
				c.Assert(fn.Raw, qt.IsNil)
			}
		})
	}
}

func TestUnknownFunctionKeepsMeta(t *testing.T) {
	c := qt.New(t)

	data := `{"id": 5, "label": "push", "wait": {"launched_ids": [1]}, "push_file": {"a": 1}}`
	fn := decode(c, data)
	c.Assert(fn.ID, qt.Equals, 5)
	c.Assert(fn.Label, qt.Equals, "push")
	c.Assert(fn.Wait.LaunchedIDs, qt.DeepEquals, []int{1})

	out, err := json.Marshal(fn)
	c.Assert(err, qt.IsNil)
	c.Assert(string(out), qt.Equals, data)
}

func TestStartJobInstance(t *testing.T) {
	c := qt.New(t)

	fn := decode(c, `{"id": 1, "start_job_instance": {"entity_name": "e", "interval": 5, "fping": {"count": 3}}}`)
	s := fn.StartJobInstance
	c.Assert(s.EntityName, qt.Equals, "e")
	c.Assert(s.Offset, qt.IsNil)
	c.Assert(s.Interval, qt.Equals, float64(5))
	c.Assert(s.Job, qt.Equals, "fping")
	c.Assert(string(s.Arguments), qt.Equals, `{"count": 3}`)

	out, err := json.Marshal(s)
	c.Assert(err, qt.IsNil)
	c.Assert(string(out), qt.Equals, `{"entity_name":"e","fping":{"count":3},"interval":5}`)
}

func TestWaitKeepsEmptyLists(t *testing.T) {
	c := qt.New(t)

	var w model.Wait
	c.Assert(json.Unmarshal([]byte(`{"time": 0, "ended_ids": []}`), &w), qt.IsNil)
	c.Assert(w.EndedIDs, qt.DeepEquals, []int{})
	c.Assert(w.RunningIDs, qt.IsNil)

	out, err := json.Marshal(w)
	c.Assert(err, qt.IsNil)
	c.Assert(string(out), qt.Equals, `{"time":0,"ended_ids":[]}`)
}

func TestArgCount(t *testing.T) {
	c := qt.New(t)

	var args []model.JobArgument
	err := json.Unmarshal([]byte(`[{"name": "a", "count": 2}, {"name": "b", "count": "1-3"}, {"name": "c", "count": null}, {"name": "d"}]`), &args)
	c.Assert(err, qt.IsNil)
	counts := []model.ArgCount{}
	for _, a := range args {
		counts = append(counts, a.Count)
	}
	c.Assert(counts, qt.DeepEquals, []model.ArgCount{"2", "1-3", "", ""})

	var bad model.JobArgument
	c.Assert(json.Unmarshal([]byte(`{"name": "x", "count": true}`), &bad), qt.ErrorMatches, `argument count must be .*`)
}

func TestScenarioInstanceFinished(t *testing.T) {
	c := qt.New(t)

	c.Assert((&model.ScenarioInstance{Status: model.StatusRunning}).Finished(), qt.IsFalse)
	c.Assert((&model.ScenarioInstance{Status: model.StatusFinishedKO}).Finished(), qt.IsTrue)
}
