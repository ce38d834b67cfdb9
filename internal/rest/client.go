package rest

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/profiles"
)

var logger = loggo.GetLogger("obconsole.rest")

// Client talks to the OpenBACH backend. Every call is aborted when its
// context is cancelled.
type Client interface {
	ListAgents(ctx context.Context) ([]model.Agent, error)

	ListJobs(ctx context.Context) ([]model.Job, error)
	GetJob(ctx context.Context, name string) (*model.Job, error)

	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, name string) (*model.Project, error)

	ListScenarios(ctx context.Context, project string) ([]model.Scenario, error)
	GetScenario(ctx context.Context, project, scenario string) (*model.Scenario, error)
	CreateScenario(ctx context.Context, project string, doc *model.Scenario) (*model.Scenario, error)
	PutScenario(ctx context.Context, project string, doc *model.Scenario) (*model.Scenario, error)
	DeleteScenario(ctx context.Context, project, scenario string) error

	ListScenarioInstances(ctx context.Context, project, scenario string) ([]model.ScenarioInstance, error)
	// StartScenarioInstance returns the id of the started instance
	StartScenarioInstance(ctx context.Context, project, scenario string, arguments map[string]interface{}) (int, error)
	GetScenarioInstance(ctx context.Context, id int) (*model.ScenarioInstance, error)
	StopScenarioInstance(ctx context.Context, id int) error
}

type client struct {
	httpclient *http.Client
	api        string
}

// NewClient creates a client for the backend a profile names
func NewClient(prof *profiles.Profile) (Client, error) {
	if err := prof.Verify(); err != nil {
		return nil, errors.Trace(err)
	}
	httpclient := &http.Client{Timeout: 30 * time.Second}

	pool, err := prof.CertPool()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if pool != nil {
		tran := http.DefaultTransport.(*http.Transport).Clone()
		tran.TLSClientConfig = &tls.Config{RootCAs: pool}
		httpclient.Transport = tran
	}

	return &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
	}, nil
}

// apipath builds the URL of a resource. Segments are path-escaped and the
// backend expects a trailing slash.
func (c *client) apipath(segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, c.api)
	for _, s := range segments {
		parts = append(parts, url.PathEscape(strings.Trim(s, "/")))
	}
	return strings.Join(parts, "/") + "/"
}
