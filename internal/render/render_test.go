package render_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"gopkg.in/yaml.v3"

	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/render"
)

func scenario() *form.ScenarioForm {
	server := form.NewFunction(1)
	server.Kind = model.KindStartJobInstance
	server.Label = "server"
	server.Job = "iperf3"
	server.Entity = "server"
	server.Parameters.Set("iperf3", "mode.server.exit", form.Occurrences{{true}})
	server.Subcommands.Set("iperf3", "mode", "server")

	client := form.NewFunction(2)
	client.Kind = model.KindStartJobInstance
	client.Job = "iperf3"
	client.Entity = "client"
	client.Wait = &form.WaitForm{Time: 5, LaunchedIDs: []int{1}, RunningIDs: []int{42}}

	stop := form.NewFunction(3)
	stop.Kind = model.KindStopJobInstances
	stop.JobIDs = []int{1, 2}
	stop.Wait = &form.WaitForm{FinishedIDs: []int{2}}

	return &form.ScenarioForm{Name: "throughput", Functions: []form.FunctionForm{server, client, stop, form.NewFunction(4)}}
}

func TestLabels(t *testing.T) {
	c := qt.New(t)
	f := scenario()

	c.Assert(render.FunctionLabel(&f.Functions[0]), qt.Equals, "server")
	c.Assert(render.FunctionLabel(&f.Functions[1]), qt.Equals, "Start Job Instance: iperf3 on client")
	c.Assert(render.FunctionLabel(&f.Functions[2]), qt.Equals, "Stop Job Instances: 1, 2")
	c.Assert(render.FunctionLabel(&f.Functions[3]), qt.Equals, "Not selected yet")

	unknown := form.FunctionForm{ID: 9, Kind: model.KindUnknown}
	c.Assert(render.FunctionLabel(&unknown), qt.Equals, "Not selected yet")

	c.Assert(render.ReferenceLabel(f, 1), qt.Equals, "1: server")
	c.Assert(render.ReferenceLabel(f, 42), qt.Equals, "42")
}

func TestViewDAG(t *testing.T) {
	c := qt.New(t)

	out := render.NewScenarioViewer(scenario()).ViewDAG()
	c.Assert(out, qt.Equals, `├─ Stage 0
│  ├─ 1: server [Start Job Instance: iperf3 on server]
│  └─ 4: Not selected yet
├─ Stage 1
│  └─ 2: Start Job Instance: iperf3 on client (after 5s)
│     ├─ (waits on) 1: server
│     └─ (waits on) 42
└─ Stage 2
   └─ 3: Stop Job Instances: 1, 2
      └─ (waits on) 2: Start Job Instance: iperf3 on client
═══════════════════════════════════════════════════════════
Summary: 4 functions, 3 stages
`)
}

func TestViewDAGWithCycle(t *testing.T) {
	c := qt.New(t)

	f := scenario()
	f.Functions[0].Wait = &form.WaitForm{EndedIDs: []int{3}}
	out := render.NewScenarioViewer(f).ViewDAG()
	c.Assert(strings.HasPrefix(out, "Cannot order functions: dependency cycle"), qt.IsTrue, qt.Commentf("%s", out))
	c.Assert(out, qt.Contains, "Summary: 4 functions, 1 stages")
}

func TestViewDependencies(t *testing.T) {
	c := qt.New(t)

	out := render.NewScenarioViewer(scenario()).ViewDependencies()
	c.Assert(out, qt.Contains, "  ├─ (waits running) 42\n")
	c.Assert(out, qt.Contains, "  └─ (waits launched) 1: server\n")
	c.Assert(out, qt.Contains, "  └─ (stops) 2: Start Job Instance: iperf3 on client\n")
	c.Assert(out, qt.Contains, "└─ 4: Not selected yet\n   (no dependencies)\n")
}

func TestViewFunction(t *testing.T) {
	c := qt.New(t)

	v := render.NewScenarioViewer(scenario())
	out := v.ViewFunction(1)
	c.Assert(out, qt.Contains, "Kind: Start Job Instance\n")
	c.Assert(out, qt.Contains, "  mode = server\n")
	c.Assert(out, qt.Contains, "  mode / server / exit = [true]\n")
	c.Assert(out, qt.Contains, "Dependents:\n  2: Start Job Instance: iperf3 on client\n  3: Stop Job Instances: 1, 2\n")

	c.Assert(v.ViewFunction(7), qt.Equals, "No function with id 7")
}

func TestWrite(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()

	doc := map[string]interface{}{"name": "s", "constants": map[string]interface{}{"rate": 2}}

	path := filepath.Join(dir, "out", "doc.yaml")
	c.Assert(render.Write(doc, path, ""), qt.IsNil)
	data, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)

	var back map[string]interface{}
	c.Assert(yaml.Unmarshal(data, &back), qt.IsNil)
	c.Assert(back, qt.DeepEquals, map[string]interface{}{"name": "s", "constants": map[string]interface{}{"rate": 2}})

	path = filepath.Join(dir, "doc.json")
	c.Assert(render.Write(doc, path, ""), qt.IsNil)
	data, err = os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "{\n  \"constants\": {\n    \"rate\": 2\n  },\n  \"name\": \"s\"\n}\n")

	_, err = render.ParseFormat("toml")
	c.Assert(err, qt.ErrorMatches, `output format "toml" not valid`)
}
