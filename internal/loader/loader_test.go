package loader_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/loader"
	"github.com/sourceplane/obconsole/internal/model"
)

func TestLoadCatalog(t *testing.T) {
	c := qt.New(t)

	jobs, err := loader.LoadCatalog(filepath.Join("testdata", "jobs.yaml"))
	c.Assert(err, qt.IsNil)
	c.Assert(jobs.Names(), qt.DeepEquals, []string{"fping"})

	job, _ := jobs.Lookup("fping")
	c.Assert(job.Arguments.Optional[0].Count, qt.Equals, model.ArgCount("2-4"))
	c.Assert(job.Arguments.Required[0].Count, qt.Equals, model.ArgCount("1"))
}

func TestDecodeJobs(t *testing.T) {
	c := qt.New(t)

	jobs, err := loader.DecodeJobs([]byte(` [{"general": {"name": "a"}}, {"general": {"name": "b"}}]`))
	c.Assert(err, qt.IsNil)
	c.Assert(jobs, qt.HasLen, 2)

	_, err = loader.DecodeJobs([]byte(`"nope"`))
	c.Assert(err, qt.Satisfies, errors.IsNotValid)
}

func TestLoadScenario(t *testing.T) {
	c := qt.New(t)

	doc, err := loader.LoadScenario(filepath.Join("testdata", "scenario.yaml"))
	c.Assert(err, qt.IsNil)
	c.Assert(doc.Name, qt.Equals, "probe")
	c.Assert(doc.Functions, qt.HasLen, 2)
	c.Assert(doc.Functions[0].Kind, qt.Equals, model.KindStartJobInstance)
	c.Assert(doc.Functions[0].StartJobInstance.Job, qt.Equals, "fping")
	c.Assert(doc.Functions[1].Kind, qt.Equals, model.KindUnknown)
}

func TestReadDocumentKeepsJSON(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(c.TempDir(), "doc.json")
	content := `{"b": 1,   "a": [ ]}`
	c.Assert(os.WriteFile(path, []byte(content), 0644), qt.IsNil)

	data, err := loader.ReadDocument(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, content)

	loader.Stdin = strings.NewReader(content)
	defer func() { loader.Stdin = os.Stdin }()
	data, err = loader.ReadDocument("-")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, content)

	v, err := loader.DecodeGeneric(data)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, map[string]interface{}{"b": json.Number("1"), "a": []interface{}{}})
}

func TestLoadScenarioForm(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(c.TempDir(), "form.json")
	c.Assert(os.WriteFile(path, []byte(`{"name": "s", "functions": [{"id": 1, "kind": ""}]}`), 0644), qt.IsNil)

	f, err := loader.LoadScenarioForm(path)
	c.Assert(err, qt.IsNil)
	c.Assert(f.Functions, qt.HasLen, 1)
	c.Assert(f.Functions[0].Parameters, qt.Not(qt.IsNil))
	c.Assert(f.Functions[0].Kind, qt.Equals, model.KindUnset)

	_, err = loader.LoadScenarioForm(filepath.Join(c.TempDir(), "missing.json"))
	c.Assert(err, qt.ErrorMatches, `cannot read .*missing.json: .*`)
}
