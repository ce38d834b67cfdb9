package model

// Agent is a remote execution node registered on the controller
type Agent struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	CollectorIP string `json:"collector_ip,omitempty"`
	Reachable   bool   `json:"reachable"`
	Available   bool   `json:"available"`
	Status      string `json:"status,omitempty"`
	Project     string `json:"project,omitempty"`
}

// NetworkRef links an entity to one of the project networks
type NetworkRef struct {
	Name string `json:"name"`
}

// Entity is a named slot of a project topology, optionally bound to an agent
type Entity struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Agent       *Agent       `json:"agent,omitempty"`
	Networks    []NetworkRef `json:"networks,omitempty"`
}

// Network is an addressable segment of a project topology
type Network struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Project groups entities, networks and scenarios
type Project struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Owners      []string   `json:"owners,omitempty"`
	Entities    []Entity   `json:"entity,omitempty"`
	Networks    []Network  `json:"network,omitempty"`
	Scenarios   []Scenario `json:"scenario,omitempty"`
}

// EntityNames returns the names of the project entities
func (p *Project) EntityNames() []string {
	names := make([]string, 0, len(p.Entities))
	for _, e := range p.Entities {
		names = append(names, e.Name)
	}
	return names
}

// Scenario instance statuses reported by the backend
const (
	StatusScheduling = "Scheduling"
	StatusRunning    = "Running"
	StatusFinishedOK = "Finished OK"
	StatusFinishedKO = "Finished KO"
	StatusStopped    = "Stopped"
	StatusError      = "Error"
)

// ScenarioInstance is a running or finished execution of a scenario
type ScenarioInstance struct {
	ID           int                    `json:"scenario_instance_id"`
	ScenarioName string                 `json:"scenario_name"`
	Project      string                 `json:"project_name,omitempty"`
	Owner        string                 `json:"owner,omitempty"`
	Status       string                 `json:"status"`
	StartDate    string                 `json:"start_date,omitempty"`
	StopDate     string                 `json:"stop_date,omitempty"`
	Arguments    map[string]interface{} `json:"arguments,omitempty"`
}

// Finished reports whether the instance reached a terminal status
func (si *ScenarioInstance) Finished() bool {
	switch si.Status {
	case StatusFinishedOK, StatusFinishedKO, StatusStopped, StatusError:
		return true
	}
	return false
}
