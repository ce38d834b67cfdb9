package schema

import (
	"bytes"
	"embed"
	"encoding/json"

	"github.com/juju/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.schema.yaml
var schemas embed.FS

// Validator checks documents against the embedded JSON schemas
type Validator struct {
	scenarioSchema *jsonschema.Schema
	jobsSchema     *jsonschema.Schema
}

// NewValidator compiles the embedded schemas
func NewValidator() (*Validator, error) {
	v := &Validator{}

	scenarioSchema, err := loadSchema("scenario.schema.yaml")
	if err != nil {
		return nil, errors.Annotate(err, "cannot load scenario schema")
	}
	v.scenarioSchema = scenarioSchema

	jobsSchema, err := loadSchema("job.schema.yaml")
	if err != nil {
		return nil, errors.Annotate(err, "cannot load job schema")
	}
	v.jobsSchema = jobsSchema

	return v, nil
}

// ValidateScenario validates a scenario document given as generic JSON values
func (v *Validator) ValidateScenario(data interface{}) error {
	if err := v.scenarioSchema.Validate(data); err != nil {
		return errors.NewNotValid(err, "scenario does not match its schema")
	}
	return nil
}

// ValidateJobs validates a job catalog, either a list of jobs or an object
// holding one under "jobs"
func (v *Validator) ValidateJobs(data interface{}) error {
	if wrapped, ok := data.(map[string]interface{}); ok {
		jobs, ok := wrapped["jobs"]
		if !ok {
			return errors.NotValidf("job catalog without a jobs list")
		}
		data = jobs
	}
	if err := v.jobsSchema.Validate(data); err != nil {
		return errors.NewNotValid(err, "job catalog does not match its schema")
	}
	return nil
}

// loadSchema compiles an embedded schema written in YAML
func loadSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemas.ReadFile("schemas/" + name)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot read schema %s", name)
	}

	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, errors.Annotatef(err, "cannot parse schema %s", name)
	}

	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot convert schema %s", name)
	}

	url := "obconsole://schemas/" + name
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(jsonData)); err != nil {
		return nil, errors.Annotatef(err, "cannot register schema %s", name)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot compile schema %s", name)
	}
	return schema, nil
}
