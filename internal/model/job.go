package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ArgumentType is the declared value type of a job argument
type ArgumentType string

const (
	TypeIP       ArgumentType = "ip"
	TypeInt      ArgumentType = "int"
	TypeStr      ArgumentType = "str"
	TypeFloat    ArgumentType = "float"
	TypeNone     ArgumentType = "None"
	TypeJob      ArgumentType = "job"
	TypeScenario ArgumentType = "scenario"
)

// ArgCount is an arity specification: "3", "*", "+", "1-4" or empty.
// The backend emits it either as a string or as a bare number.
type ArgCount string

// UnmarshalJSON accepts a JSON string, number or null
func (c *ArgCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ArgCount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("argument count must be a string or a number: %s", string(data))
	}
	if i, err := n.Int64(); err == nil {
		*c = ArgCount(strconv.FormatInt(i, 10))
		return nil
	}
	*c = ArgCount(n.String())
	return nil
}

// JobArgument declares one parameter slot of a job
type JobArgument struct {
	Name        string        `json:"name"`
	Count       ArgCount      `json:"count,omitempty"`
	Description string        `json:"description,omitempty"`
	Type        ArgumentType  `json:"type,omitempty"`
	Password    bool          `json:"password,omitempty"`
	Default     interface{}   `json:"default,omitempty"`
	Choices     []interface{} `json:"choices,omitempty"`
	Repeatable  bool          `json:"repeatable,omitempty"`
}

// JobSubcommandGroup is a decision point offering mutually exclusive choices
type JobSubcommandGroup struct {
	GroupName string          `json:"group_name"`
	Optional  bool            `json:"optional,omitempty"`
	Choices   []JobSubcommand `json:"choices"`
}

// Choice returns the choice with the given name
func (g *JobSubcommandGroup) Choice(name string) (*JobSubcommand, bool) {
	for i := range g.Choices {
		if g.Choices[i].Name == name {
			return &g.Choices[i], true
		}
	}
	return nil, false
}

// JobSubcommand is one choice of a group. It may expose further groups.
type JobSubcommand struct {
	Name        string               `json:"name"`
	Required    []JobArgument        `json:"required,omitempty"`
	Optional    []JobArgument        `json:"optional,omitempty"`
	Subcommands []JobSubcommandGroup `json:"subcommand,omitempty"`
}

// JobGeneral holds the descriptive part of a job definition
type JobGeneral struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	JobVersion    string   `json:"job_version,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Persistent    bool     `json:"persistent,omitempty"`
	NeedPrivilege bool     `json:"need_privileges,omitempty"`
}

// JobArguments is the root argument level of a job
type JobArguments struct {
	Required    []JobArgument        `json:"required,omitempty"`
	Optional    []JobArgument        `json:"optional,omitempty"`
	Subcommands []JobSubcommandGroup `json:"subcommand,omitempty"`
}

// Job is an installable task definition as served by the backend
type Job struct {
	General   JobGeneral   `json:"general"`
	Arguments JobArguments `json:"arguments"`
}

// Name returns the job name
func (j *Job) Name() string {
	return j.General.Name
}
