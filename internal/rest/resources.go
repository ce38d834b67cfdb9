package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/model"
)

func (c *client) ListAgents(ctx context.Context) ([]model.Agent, error) {
	agents := []model.Agent{}
	if err := c.call(ctx, http.MethodGet, c.apipath("agent"), nil, &agents, "agents"); err != nil {
		return nil, errors.Trace(err)
	}
	return agents, nil
}

func (c *client) ListJobs(ctx context.Context) ([]model.Job, error) {
	jobs := []model.Job{}
	if err := c.call(ctx, http.MethodGet, c.apipath("job"), nil, &jobs, "jobs"); err != nil {
		return nil, errors.Trace(err)
	}
	return jobs, nil
}

func (c *client) GetJob(ctx context.Context, name string) (*model.Job, error) {
	var job model.Job
	if err := c.call(ctx, http.MethodGet, c.apipath("job", name), nil, &job, fmt.Sprintf("job %q", name)); err != nil {
		return nil, errors.Trace(err)
	}
	return &job, nil
}

func (c *client) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects := []model.Project{}
	if err := c.call(ctx, http.MethodGet, c.apipath("project"), nil, &projects, "projects"); err != nil {
		return nil, errors.Trace(err)
	}
	return projects, nil
}

func (c *client) GetProject(ctx context.Context, name string) (*model.Project, error) {
	var project model.Project
	if err := c.call(ctx, http.MethodGet, c.apipath("project", name), nil, &project, fmt.Sprintf("project %q", name)); err != nil {
		return nil, errors.Trace(err)
	}
	return &project, nil
}

func (c *client) ListScenarios(ctx context.Context, project string) ([]model.Scenario, error) {
	scenarios := []model.Scenario{}
	what := fmt.Sprintf("scenarios of project %q", project)
	if err := c.call(ctx, http.MethodGet, c.apipath("project", project, "scenario"), nil, &scenarios, what); err != nil {
		return nil, errors.Trace(err)
	}
	return scenarios, nil
}

func (c *client) GetScenario(ctx context.Context, project, scenario string) (*model.Scenario, error) {
	var doc model.Scenario
	what := fmt.Sprintf("scenario %q of project %q", scenario, project)
	if err := c.call(ctx, http.MethodGet, c.apipath("project", project, "scenario", scenario), nil, &doc, what); err != nil {
		return nil, errors.Trace(err)
	}
	return &doc, nil
}

func (c *client) CreateScenario(ctx context.Context, project string, doc *model.Scenario) (*model.Scenario, error) {
	var created model.Scenario
	what := fmt.Sprintf("scenario %q of project %q", doc.Name, project)
	if err := c.call(ctx, http.MethodPost, c.apipath("project", project, "scenario"), doc, &created, what); err != nil {
		return nil, errors.Trace(err)
	}
	return &created, nil
}

func (c *client) PutScenario(ctx context.Context, project string, doc *model.Scenario) (*model.Scenario, error) {
	var updated model.Scenario
	what := fmt.Sprintf("scenario %q of project %q", doc.Name, project)
	if err := c.call(ctx, http.MethodPut, c.apipath("project", project, "scenario", doc.Name), doc, &updated, what); err != nil {
		return nil, errors.Trace(err)
	}
	return &updated, nil
}

func (c *client) DeleteScenario(ctx context.Context, project, scenario string) error {
	what := fmt.Sprintf("scenario %q of project %q", scenario, project)
	return errors.Trace(c.call(ctx, http.MethodDelete, c.apipath("project", project, "scenario", scenario), nil, nil, what))
}

func (c *client) ListScenarioInstances(ctx context.Context, project, scenario string) ([]model.ScenarioInstance, error) {
	instances := []model.ScenarioInstance{}
	what := fmt.Sprintf("instances of scenario %q", scenario)
	url := c.apipath("project", project, "scenario", scenario, "scenario_instance")
	if err := c.call(ctx, http.MethodGet, url, nil, &instances, what); err != nil {
		return nil, errors.Trace(err)
	}
	return instances, nil
}

func (c *client) StartScenarioInstance(ctx context.Context, project, scenario string, arguments map[string]interface{}) (int, error) {
	if arguments == nil {
		arguments = map[string]interface{}{}
	}
	body := map[string]interface{}{"arguments": arguments}
	var started struct {
		ID int `json:"scenario_instance_id"`
	}
	what := fmt.Sprintf("scenario %q of project %q", scenario, project)
	url := c.apipath("project", project, "scenario", scenario, "scenario_instance")
	if err := c.call(ctx, http.MethodPost, url, body, &started, what); err != nil {
		return 0, errors.Trace(err)
	}
	logger.Debugf("started instance %d of scenario %q", started.ID, scenario)
	return started.ID, nil
}

func (c *client) GetScenarioInstance(ctx context.Context, id int) (*model.ScenarioInstance, error) {
	var instance model.ScenarioInstance
	what := fmt.Sprintf("scenario instance %d", id)
	if err := c.call(ctx, http.MethodGet, c.apipath("scenario_instance", strconv.Itoa(id)), nil, &instance, what); err != nil {
		return nil, errors.Trace(err)
	}
	return &instance, nil
}

func (c *client) StopScenarioInstance(ctx context.Context, id int) error {
	what := fmt.Sprintf("scenario instance %d", id)
	return errors.Trace(c.call(ctx, http.MethodPost, c.apipath("scenario_instance", strconv.Itoa(id)), map[string]interface{}{}, nil, what))
}
