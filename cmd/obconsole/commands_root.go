package main

import (
	"os"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/spf13/cobra"
)

var (
	profileName  string
	profilesPath string
	apiRoot      string
	jobsFile     string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:           "obconsole",
	Short:         "OpenBACH admin console: scenario documents ⇄ forms",
	Long:          "obconsole inspects an OpenBACH controller and edits its scenarios as flat forms, converting them back to documents the backend accepts",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loggo.ConfigureLoggers("<root>=" + logLevel); err != nil {
			return errors.Annotatef(err, "invalid --log-level %q", logLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "P", os.Getenv("OBCONSOLE_PROFILE"), "Backend profile to use (env OBCONSOLE_PROFILE, default \"default\")")
	rootCmd.PersistentFlags().StringVar(&profilesPath, "profiles", "", "Profile store path (default: <config dir>/obconsole/profiles.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiRoot, "api-root", os.Getenv("OBCONSOLE_API_ROOT"), "Backend API root, overrides the profile (env OBCONSOLE_API_ROOT)")
	rootCmd.PersistentFlags().StringVar(&jobsFile, "jobs", "", "Job catalog file (json/yaml) used instead of the backend catalog")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARNING", "Log level (TRACE/DEBUG/INFO/WARNING/ERROR)")

	registerProfileCommand(rootCmd)
	registerAgentsCommand(rootCmd)
	registerJobsCommand(rootCmd)
	registerProjectsCommand(rootCmd)
	registerScenariosCommand(rootCmd)
	registerScenarioCommand(rootCmd)
	registerRunCommand(rootCmd)
	registerInstancesCommand(rootCmd)
	registerServeCommand(rootCmd)
}
