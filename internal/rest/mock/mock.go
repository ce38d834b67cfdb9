package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/rest"
)

// ScenarioRef names a scenario of a project
type ScenarioRef struct {
	Project  string
	Scenario string
}

// StartArgs records a StartScenarioInstance call
type StartArgs struct {
	Project   string
	Scenario  string
	Arguments map[string]interface{}
}

// New returns a client whose methods fail the test unless implemented
func New(t *testing.T) *MockClient {
	return &MockClient{t: t}
}

// MockClient is a rest.Client recording its calls
type MockClient struct {
	t  *testing.T
	mu sync.Mutex

	Impl struct {
		ListAgents            func(ctx context.Context) ([]model.Agent, error)
		ListJobs              func(ctx context.Context) ([]model.Job, error)
		GetJob                func(ctx context.Context, name string) (*model.Job, error)
		ListProjects          func(ctx context.Context) ([]model.Project, error)
		GetProject            func(ctx context.Context, name string) (*model.Project, error)
		ListScenarios         func(ctx context.Context, project string) ([]model.Scenario, error)
		GetScenario           func(ctx context.Context, project, scenario string) (*model.Scenario, error)
		CreateScenario        func(ctx context.Context, project string, doc *model.Scenario) (*model.Scenario, error)
		PutScenario           func(ctx context.Context, project string, doc *model.Scenario) (*model.Scenario, error)
		DeleteScenario        func(ctx context.Context, project, scenario string) error
		ListScenarioInstances func(ctx context.Context, project, scenario string) ([]model.ScenarioInstance, error)
		StartScenarioInstance func(ctx context.Context, project, scenario string, arguments map[string]interface{}) (int, error)
		GetScenarioInstance   func(ctx context.Context, id int) (*model.ScenarioInstance, error)
		StopScenarioInstance  func(ctx context.Context, id int) error
	}
	Calls struct {
		ListAgents            int
		ListJobs              int
		GetJob                []string
		ListProjects          int
		GetProject            []string
		ListScenarios         []string
		GetScenario           []ScenarioRef
		CreateScenario        []*model.Scenario
		PutScenario           []*model.Scenario
		DeleteScenario        []ScenarioRef
		ListScenarioInstances []ScenarioRef
		StartScenarioInstance []StartArgs
		GetScenarioInstance   []int
		StopScenarioInstance  []int
	}
}

var _ rest.Client = &MockClient{}

func (m *MockClient) record(name string, missing bool, rec func()) {
	m.t.Helper()
	m.mu.Lock()
	rec()
	m.mu.Unlock()
	if missing {
		m.t.Fatalf("%s is not ready to be called", name)
	}
}

func (m *MockClient) ListAgents(ctx context.Context) ([]model.Agent, error) {
	m.t.Helper()
	m.record("ListAgents", m.Impl.ListAgents == nil, func() { m.Calls.ListAgents++ })
	return m.Impl.ListAgents(ctx)
}

func (m *MockClient) ListJobs(ctx context.Context) ([]model.Job, error) {
	m.t.Helper()
	m.record("ListJobs", m.Impl.ListJobs == nil, func() { m.Calls.ListJobs++ })
	return m.Impl.ListJobs(ctx)
}

func (m *MockClient) GetJob(ctx context.Context, name string) (*model.Job, error) {
	m.t.Helper()
	m.record("GetJob", m.Impl.GetJob == nil, func() { m.Calls.GetJob = append(m.Calls.GetJob, name) })
	return m.Impl.GetJob(ctx, name)
}

func (m *MockClient) ListProjects(ctx context.Context) ([]model.Project, error) {
	m.t.Helper()
	m.record("ListProjects", m.Impl.ListProjects == nil, func() { m.Calls.ListProjects++ })
	return m.Impl.ListProjects(ctx)
}

func (m *MockClient) GetProject(ctx context.Context, name string) (*model.Project, error) {
	m.t.Helper()
	m.record("GetProject", m.Impl.GetProject == nil, func() { m.Calls.GetProject = append(m.Calls.GetProject, name) })
	return m.Impl.GetProject(ctx, name)
}

func (m *MockClient) ListScenarios(ctx context.Context, project string) ([]model.Scenario, error) {
	m.t.Helper()
	m.record("ListScenarios", m.Impl.ListScenarios == nil, func() { m.Calls.ListScenarios = append(m.Calls.ListScenarios, project) })
	return m.Impl.ListScenarios(ctx, project)
}

func (m *MockClient) GetScenario(ctx context.Context, project, scenario string) (*model.Scenario, error) {
	m.t.Helper()
	m.record("GetScenario", m.Impl.GetScenario == nil, func() {
		m.Calls.GetScenario = append(m.Calls.GetScenario, ScenarioRef{project, scenario})
	})
	return m.Impl.GetScenario(ctx, project, scenario)
}

func (m *MockClient) CreateScenario(ctx context.Context, project string, doc *model.Scenario) (*model.Scenario, error) {
	m.t.Helper()
	m.record("CreateScenario", m.Impl.CreateScenario == nil, func() { m.Calls.CreateScenario = append(m.Calls.CreateScenario, doc) })
	return m.Impl.CreateScenario(ctx, project, doc)
}

func (m *MockClient) PutScenario(ctx context.Context, project string, doc *model.Scenario) (*model.Scenario, error) {
	m.t.Helper()
	m.record("PutScenario", m.Impl.PutScenario == nil, func() { m.Calls.PutScenario = append(m.Calls.PutScenario, doc) })
	return m.Impl.PutScenario(ctx, project, doc)
}

func (m *MockClient) DeleteScenario(ctx context.Context, project, scenario string) error {
	m.t.Helper()
	m.record("DeleteScenario", m.Impl.DeleteScenario == nil, func() {
		m.Calls.DeleteScenario = append(m.Calls.DeleteScenario, ScenarioRef{project, scenario})
	})
	return m.Impl.DeleteScenario(ctx, project, scenario)
}

func (m *MockClient) ListScenarioInstances(ctx context.Context, project, scenario string) ([]model.ScenarioInstance, error) {
	m.t.Helper()
	m.record("ListScenarioInstances", m.Impl.ListScenarioInstances == nil, func() {
		m.Calls.ListScenarioInstances = append(m.Calls.ListScenarioInstances, ScenarioRef{project, scenario})
	})
	return m.Impl.ListScenarioInstances(ctx, project, scenario)
}

func (m *MockClient) StartScenarioInstance(ctx context.Context, project, scenario string, arguments map[string]interface{}) (int, error) {
	m.t.Helper()
	m.record("StartScenarioInstance", m.Impl.StartScenarioInstance == nil, func() {
		m.Calls.StartScenarioInstance = append(m.Calls.StartScenarioInstance, StartArgs{project, scenario, arguments})
	})
	return m.Impl.StartScenarioInstance(ctx, project, scenario, arguments)
}

func (m *MockClient) GetScenarioInstance(ctx context.Context, id int) (*model.ScenarioInstance, error) {
	m.t.Helper()
	m.record("GetScenarioInstance", m.Impl.GetScenarioInstance == nil, func() {
		m.Calls.GetScenarioInstance = append(m.Calls.GetScenarioInstance, id)
	})
	return m.Impl.GetScenarioInstance(ctx, id)
}

func (m *MockClient) StopScenarioInstance(ctx context.Context, id int) error {
	m.t.Helper()
	m.record("StopScenarioInstance", m.Impl.StopScenarioInstance == nil, func() {
		m.Calls.StopScenarioInstance = append(m.Calls.StopScenarioInstance, id)
	})
	return m.Impl.StopScenarioInstance(ctx, id)
}
