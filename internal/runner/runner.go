package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/rest"
)

var logger = loggo.GetLogger("obconsole.runner")

// Launcher starts scenario instances and follows them until they finish
type Launcher struct {
	Client rest.Client
	Stdout io.Writer
	DryRun bool
	// PollInterval is the delay between two status requests
	PollInterval time.Duration
	// StopTimeout bounds the stop request sent when the launch is cancelled
	StopTimeout time.Duration
	Clock       clock.Clock
}

func NewLauncher(client rest.Client, stdout io.Writer, dryRun bool) *Launcher {
	return &Launcher{
		Client:       client,
		Stdout:       stdout,
		DryRun:       dryRun,
		PollInterval: 2 * time.Second,
		StopTimeout:  10 * time.Second,
		Clock:        clock.WallClock,
	}
}

// CheckArguments verifies that the arguments match those the scenario
// declares
func CheckArguments(doc *model.Scenario, arguments map[string]interface{}) error {
	declared := set.NewStrings()
	for name := range doc.Arguments {
		declared.Add(name)
	}
	given := set.NewStrings()
	for name := range arguments {
		given.Add(name)
	}

	problems := []string{}
	if missing := declared.Difference(given); !missing.IsEmpty() {
		problems = append(problems, "missing "+strings.Join(missing.SortedValues(), ", "))
	}
	if unknown := given.Difference(declared); !unknown.IsEmpty() {
		problems = append(problems, "unknown "+strings.Join(unknown.SortedValues(), ", "))
	}
	if len(problems) > 0 {
		return errors.NotValidf("arguments of scenario %q (%s)", doc.Name, strings.Join(problems, "; "))
	}
	return nil
}

// Run starts an instance of the scenario and follows it. Cancelling ctx
// stops the instance.
func (l *Launcher) Run(ctx context.Context, project string, doc *model.Scenario, arguments map[string]interface{}) (*model.ScenarioInstance, error) {
	if doc == nil {
		return nil, errors.NotValidf("nil scenario")
	}
	if err := CheckArguments(doc, arguments); err != nil {
		return nil, errors.Trace(err)
	}

	fmt.Fprintf(l.Stdout, "→ Scenario %s (project %s)\n", doc.Name, project)
	if l.DryRun {
		body, err := json.MarshalIndent(map[string]interface{}{"arguments": arguments}, "    ", "  ")
		if err != nil {
			return nil, errors.Trace(err)
		}
		fmt.Fprintf(l.Stdout, "    %s\n", body)
		return nil, nil
	}

	id, err := l.Client.StartScenarioInstance(ctx, project, doc.Name, arguments)
	if err != nil {
		return nil, errors.Annotatef(err, "starting scenario %q", doc.Name)
	}
	fmt.Fprintf(l.Stdout, "  - Instance %d started\n", id)
	return l.Follow(ctx, id)
}

// Follow polls an instance until it reaches a terminal status. An instance
// that does not finish OK is returned along with an error.
func (l *Launcher) Follow(ctx context.Context, id int) (*model.ScenarioInstance, error) {
	interval := l.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	clk := l.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	last := ""
	for {
		instance, err := l.Client.GetScenarioInstance(ctx, id)
		switch {
		case ctx.Err() != nil:
			return nil, l.cancel(ctx, id)
		case err != nil:
			return nil, errors.Annotatef(err, "following scenario instance %d", id)
		}

		if instance.Status != last {
			fmt.Fprintf(l.Stdout, "  - Status %s\n", instance.Status)
			last = instance.Status
		}
		if instance.Finished() {
			if instance.Status != model.StatusFinishedOK {
				return instance, errors.Errorf("scenario instance %d ended with status %s", id, instance.Status)
			}
			fmt.Fprintf(l.Stdout, "✓ Instance %d finished\n", id)
			return instance, nil
		}

		select {
		case <-ctx.Done():
			return nil, l.cancel(ctx, id)
		case <-clk.After(interval):
		}
	}
}

// cancel stops the instance on a fresh context since ctx is already done
func (l *Launcher) cancel(ctx context.Context, id int) error {
	timeout := l.StopTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	stopCtx, done := context.WithTimeout(context.Background(), timeout)
	defer done()

	fmt.Fprintf(l.Stdout, "  - Stopping instance %d\n", id)
	if err := l.Client.StopScenarioInstance(stopCtx, id); err != nil {
		logger.Warningf("cannot stop scenario instance %d: %v", id, err)
		return errors.Annotatef(err, "stopping scenario instance %d after %v", id, ctx.Err())
	}
	return errors.Annotatef(ctx.Err(), "scenario instance %d stopped", id)
}

// SortInstances orders instances by id, most recent first
func SortInstances(instances []model.ScenarioInstance) {
	sort.SliceStable(instances, func(a, b int) bool {
		return instances[a].ID > instances[b].ID
	})
}
