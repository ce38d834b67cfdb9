package rest_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/profiles"
	"github.com/sourceplane/obconsole/internal/rest"
)

type request struct {
	Method string
	Path   string
	Body   string
}

// backend answers every request with the given status and body and records
// what it received
func backend(c *qt.C, status int, body string) (rest.Client, *[]request) {
	received := []request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		received = append(received, request{Method: r.Method, Path: r.URL.EscapedPath(), Body: string(payload)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	c.Cleanup(srv.Close)

	client, err := rest.NewClient(&profiles.Profile{ApiRoot: srv.URL + "/openbach/"})
	c.Assert(err, qt.IsNil)
	return client, &received
}

func TestGetScenario(t *testing.T) {
	c := qt.New(t)

	client, received := backend(c, http.StatusOK, `{
		"name": "probe", "description": "", "arguments": {}, "constants": {},
		"openbach_functions": [{"id": 1, "push_file": {}}]
	}`)

	doc, err := client.GetScenario(context.Background(), "my project", "probe")
	c.Assert(err, qt.IsNil)
	c.Assert(doc.Name, qt.Equals, "probe")
	c.Assert(doc.Functions[0].Kind, qt.Equals, model.KindUnknown)
	c.Assert(string(doc.Functions[0].Raw), qt.Equals, `{"id": 1, "push_file": {}}`)

	c.Assert(*received, qt.DeepEquals, []request{{
		Method: http.MethodGet,
		Path:   "/openbach/project/my%20project/scenario/probe/",
	}})
}

func TestEndpoints(t *testing.T) {
	ctx := context.Background()
	doc := &model.Scenario{Name: "probe", Arguments: map[string]string{}, Constants: map[string]interface{}{}, Functions: []model.OpenbachFunction{}}

	for _, test := range []struct {
		about  string
		call   func(rest.Client) error
		method string
		path   string
		body   string
	}{{
		about:  "list agents",
		call:   func(cl rest.Client) error { _, err := cl.ListAgents(ctx); return err },
		method: http.MethodGet,
		path:   "/openbach/agent/",
	}, {
		about:  "list jobs",
		call:   func(cl rest.Client) error { _, err := cl.ListJobs(ctx); return err },
		method: http.MethodGet,
		path:   "/openbach/job/",
	}, {
		about:  "list projects",
		call:   func(cl rest.Client) error { _, err := cl.ListProjects(ctx); return err },
		method: http.MethodGet,
		path:   "/openbach/project/",
	}, {
		about:  "list scenarios",
		call:   func(cl rest.Client) error { _, err := cl.ListScenarios(ctx, "p"); return err },
		method: http.MethodGet,
		path:   "/openbach/project/p/scenario/",
	}, {
		about:  "list scenario instances",
		call:   func(cl rest.Client) error { _, err := cl.ListScenarioInstances(ctx, "p", "s"); return err },
		method: http.MethodGet,
		path:   "/openbach/project/p/scenario/s/scenario_instance/",
	}, {
		about:  "delete scenario",
		call:   func(cl rest.Client) error { return cl.DeleteScenario(ctx, "p", "s") },
		method: http.MethodDelete,
		path:   "/openbach/project/p/scenario/s/",
	}, {
		about:  "stop scenario instance",
		call:   func(cl rest.Client) error { return cl.StopScenarioInstance(ctx, 12) },
		method: http.MethodPost,
		path:   "/openbach/scenario_instance/12/",
		body:   `{}`,
	}, {
		about:  "put scenario",
		call:   func(cl rest.Client) error { _, err := cl.PutScenario(ctx, "p", doc); return err },
		method: http.MethodPut,
		path:   "/openbach/project/p/scenario/probe/",
		body:   `{"name":"probe","description":"","arguments":{},"constants":{},"openbach_functions":[]}`,
	}} {
		t.Run(test.about, func(t *testing.T) {
			c := qt.New(t)
			body := "[]"
			if test.method != http.MethodGet {
				body = "{}"
			}
			client, received := backend(c, http.StatusOK, body)
			c.Assert(test.call(client), qt.IsNil)
			c.Assert(*received, qt.DeepEquals, []request{{Method: test.method, Path: test.path, Body: test.body}})
		})
	}
}

func TestStartScenarioInstance(t *testing.T) {
	c := qt.New(t)

	client, received := backend(c, http.StatusOK, `{"scenario_instance_id": 42}`)
	id, err := client.StartScenarioInstance(context.Background(), "p", "s", map[string]interface{}{"duration": "10"})
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, 42)

	var body map[string]interface{}
	c.Assert(json.Unmarshal([]byte((*received)[0].Body), &body), qt.IsNil)
	c.Assert(body, qt.DeepEquals, map[string]interface{}{"arguments": map[string]interface{}{"duration": "10"}})
}

func TestErrorStatuses(t *testing.T) {
	for _, test := range []struct {
		status int
		body   string
		check  func(error) bool
		match  string
	}{
		{http.StatusBadRequest, `{"error": "bad arguments"}`, errors.IsBadRequest, `scenario instance 1 \(bad arguments\) bad request`},
		{http.StatusUnauthorized, `{}`, errors.IsUnauthorized, `.*`},
		{http.StatusForbidden, `{"message": "not an owner"}`, errors.IsForbidden, `.*not an owner.*`},
		{http.StatusNotFound, `no such instance`, errors.IsNotFound, `scenario instance 1 \(no such instance\) not found`},
		{http.StatusConflict, `{"error": "exists"}`, errors.IsAlreadyExists, `.*already exists`},
		{http.StatusInternalServerError, `{"error": "boom"}`, rest.IsBackendError, `scenario instance 1: backend error \(status code = 500\): boom`},
	} {
		t.Run(http.StatusText(test.status), func(t *testing.T) {
			c := qt.New(t)
			client, _ := backend(c, test.status, test.body)
			_, err := client.GetScenarioInstance(context.Background(), 1)
			c.Assert(err, qt.Satisfies, test.check)
			c.Assert(err, qt.ErrorMatches, test.match)
		})
	}
}

func TestCancelledContext(t *testing.T) {
	c := qt.New(t)

	client, received := backend(c, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListAgents(ctx)
	c.Assert(errors.Is(err, context.Canceled), qt.IsTrue)
	c.Assert(*received, qt.HasLen, 0)
}

func TestInvalidProfile(t *testing.T) {
	c := qt.New(t)

	_, err := rest.NewClient(&profiles.Profile{ApiRoot: "relative/path"})
	c.Assert(err, qt.Satisfies, errors.IsNotValid)
}
