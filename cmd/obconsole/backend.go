package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/spf13/cobra"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/loader"
	"github.com/sourceplane/obconsole/internal/profiles"
	"github.com/sourceplane/obconsole/internal/rest"
)

var logger = loggo.GetLogger("obconsole.cmd")

func storePath() string {
	if profilesPath != "" {
		return profilesPath
	}
	return profiles.DefaultPath()
}

// newClient connects to the backend named by the global flags
func newClient() (rest.Client, error) {
	prof, err := profiles.Resolve(storePath(), profileName, apiRoot)
	if err != nil {
		return nil, errors.Annotate(err, "no backend configured (use --api-root or 'obconsole profile set')")
	}
	logger.Debugf("using backend %s", prof.ApiRoot)
	return rest.NewClient(prof)
}

// jobCatalog reads --jobs when given, else the backend catalog. A nil client
// with no --jobs gives an empty catalog.
func jobCatalog(ctx context.Context, client rest.Client) (*catalog.Catalog, error) {
	if jobsFile != "" {
		cat, err := loader.LoadCatalog(jobsFile)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to load job catalog %s", jobsFile)
		}
		return cat, nil
	}
	if client == nil {
		logger.Warningf("no job catalog: job arguments are kept as raw values")
		return catalog.Empty(), nil
	}
	jobs, err := client.ListJobs(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load jobs")
	}
	return catalog.New(jobs), nil
}

// loadCatalog reads --jobs when given and only connects to the backend
// otherwise
func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	if jobsFile != "" {
		return jobCatalog(cmd.Context(), nil)
	}
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	return jobCatalog(cmd.Context(), client)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// formatDate renders a backend date relative to now. Dates it cannot parse
// are shown as given.
func formatDate(s string) string {
	if s == "" {
		return "-"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return humanize.Time(t)
		}
	}
	return s
}

// parseArguments reads name=value pairs
func parseArguments(pairs []string) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, errors.NotValidf("argument %q (want name=value)", pair)
		}
		if _, dup := args[name]; dup {
			return nil, errors.NotValidf("argument %q given twice", name)
		}
		args[name] = value
	}
	return args, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
