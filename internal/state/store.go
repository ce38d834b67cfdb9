package state

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"

	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/rest"
)

var logger = loggo.GetLogger("obconsole.state")

// Store serializes actions over a State
type Store struct {
	mu    sync.Mutex
	state State
}

// NewStore returns a store holding the empty state
func NewStore() *Store {
	return &Store{state: New()}
}

// Dispatch reduces an action into the stored state. On error the state is
// left unchanged.
func (s *Store) Dispatch(action Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Reduce(s.state, action)
	if err != nil {
		logger.Debugf("action %T refused: %v", action, err)
		return s.state, errors.Trace(err)
	}
	s.state = next
	return next, nil
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load fetches agents, jobs and projects concurrently. The first failure
// cancels the other requests.
func Load(ctx context.Context, client rest.Client) (Loaded, error) {
	var loaded Loaded
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		agents, err := client.ListAgents(ctx)
		if err != nil {
			return errors.Annotate(err, "loading agents")
		}
		loaded.Agents = agents
		return nil
	})
	g.Go(func() error {
		jobs, err := client.ListJobs(ctx)
		if err != nil {
			return errors.Annotate(err, "loading jobs")
		}
		loaded.Jobs = jobs
		return nil
	})
	g.Go(func() error {
		projects, err := client.ListProjects(ctx)
		if err != nil {
			return errors.Annotate(err, "loading projects")
		}
		loaded.Projects = projects
		return nil
	})

	if err := g.Wait(); err != nil {
		return Loaded{}, err
	}
	logger.Debugf("loaded %d agents, %d jobs, %d projects", len(loaded.Agents), len(loaded.Jobs), len(loaded.Projects))
	return loaded, nil
}

// Reload loads the backend resources into the store and records failures
func (s *Store) Reload(ctx context.Context, client rest.Client) (State, error) {
	loaded, err := Load(ctx, client)
	if err != nil {
		s.Dispatch(LoadFailed{Err: err})
		return s.Snapshot(), errors.Trace(err)
	}
	return s.Dispatch(loaded)
}

// RefreshProject reloads one project into the store
func (s *Store) RefreshProject(ctx context.Context, client rest.Client, name string) (*model.Project, error) {
	p, err := client.GetProject(ctx, name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if _, err := s.Dispatch(ProjectLoaded{Project: *p}); err != nil {
		return nil, errors.Trace(err)
	}
	return p, nil
}
