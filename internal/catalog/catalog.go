package catalog

import (
	"sort"

	"github.com/juju/errors"

	"github.com/sourceplane/obconsole/internal/model"
)

// Catalog is a read-only index of job definitions
type Catalog struct {
	jobs  []model.Job
	index map[string]*model.Job
}

// New builds a catalog. Later definitions of a name replace earlier ones.
func New(jobs []model.Job) *Catalog {
	c := &Catalog{
		jobs:  make([]model.Job, 0, len(jobs)),
		index: make(map[string]*model.Job, len(jobs)),
	}
	positions := make(map[string]int, len(jobs))
	for _, job := range jobs {
		if pos, ok := positions[job.Name()]; ok {
			c.jobs[pos] = job
			continue
		}
		positions[job.Name()] = len(c.jobs)
		c.jobs = append(c.jobs, job)
	}
	for i := range c.jobs {
		c.index[c.jobs[i].Name()] = &c.jobs[i]
	}
	return c
}

// Empty returns a catalog without jobs
func Empty() *Catalog {
	return New(nil)
}

// Lookup returns the job with the given name
func (c *Catalog) Lookup(name string) (*model.Job, bool) {
	if c == nil {
		return nil, false
	}
	job, ok := c.index[name]
	return job, ok
}

// Get is Lookup returning a NotFound error
func (c *Catalog) Get(name string) (*model.Job, error) {
	job, ok := c.Lookup(name)
	if !ok {
		return nil, errors.NotFoundf("job %q", name)
	}
	return job, nil
}

// Names returns the job names in sorted order
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.jobs))
	for _, job := range c.jobs {
		names = append(names, job.Name())
	}
	sort.Strings(names)
	return names
}

// Jobs returns a copy of the definitions in insertion order
func (c *Catalog) Jobs() []model.Job {
	if c == nil {
		return nil
	}
	return append([]model.Job(nil), c.jobs...)
}

// Len is the number of jobs
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.jobs)
}
