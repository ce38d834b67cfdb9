package loader

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"gopkg.in/yaml.v3"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/model"
)

var logger = loggo.GetLogger("obconsole.loader")

// Stdin is read when a path is "-"
var Stdin io.Reader = os.Stdin

// IsYAML reports whether a path names a YAML file
func IsYAML(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ReadDocument reads a JSON or YAML file and returns it as JSON. JSON
// files are returned byte for byte.
func ReadDocument(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "cannot read %s", path)
	}
	if !IsYAML(path) {
		return data, nil
	}

	logger.Debugf("converting YAML document %s to JSON", path)
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Annotatef(err, "cannot parse YAML in %s", path)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot convert %s to JSON", path)
	}
	return out, nil
}

// ReadGeneric reads a document as generic JSON values, numbers kept as
// json.Number, ready for schema validation
func ReadGeneric(path string) (interface{}, error) {
	data, err := ReadDocument(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return DecodeGeneric(data)
}

// DecodeGeneric decodes JSON into generic values, numbers kept as json.Number
func DecodeGeneric(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Annotate(err, "cannot decode JSON")
	}
	return v, nil
}

// LoadScenario reads a scenario document
func LoadScenario(path string) (*model.Scenario, error) {
	data, err := ReadDocument(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var doc model.Scenario
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NotValidf("scenario %s (%v)", path, err)
	}
	return &doc, nil
}

// LoadScenarioForm reads a form file as written by the console
func LoadScenarioForm(path string) (*form.ScenarioForm, error) {
	data, err := ReadDocument(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var f form.ScenarioForm
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.NotValidf("scenario form %s (%v)", path, err)
	}
	f.EnsureMaps()
	return &f, nil
}

// DecodeJobs accepts either a list of jobs or an object with a jobs list
func DecodeJobs(data []byte) ([]model.Job, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Jobs []model.Job `json:"jobs"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, errors.NotValidf("job catalog (%v)", err)
		}
		return wrapped.Jobs, nil
	}

	var jobs []model.Job
	if err := json.Unmarshal(trimmed, &jobs); err != nil {
		return nil, errors.NotValidf("job catalog (%v)", err)
	}
	return jobs, nil
}

// LoadCatalog reads a job catalog file
func LoadCatalog(path string) (*catalog.Catalog, error) {
	data, err := ReadDocument(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	jobs, err := DecodeJobs(data)
	if err != nil {
		return nil, errors.Annotatef(err, "loading %s", path)
	}
	logger.Debugf("loaded %d jobs from %s", len(jobs), path)
	return catalog.New(jobs), nil
}
