package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/sourceplane/obconsole/internal/runner"
)

var (
	runArguments []string
	runDryRun    bool
	runDetach    bool
	runPoll      time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run PROJECT SCENARIO",
	Short: "Start a scenario instance and follow it",
	Long:  "Start an instance of a scenario with --arg name=value for each scenario argument, then follow its status until it finishes. Interrupting the command stops the instance.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(cmd, args[0], args[1])
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop INSTANCE",
	Short: "Stop a scenario instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopInstance(cmd, args[0])
	},
}

func registerRunCommand(root *cobra.Command) {
	root.AddCommand(runCmd)
	root.AddCommand(stopCmd)

	runCmd.Flags().StringArrayVarP(&runArguments, "arg", "a", nil, "Scenario argument as name=value (repeatable)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Check the arguments and print the request without starting anything")
	runCmd.Flags().BoolVarP(&runDetach, "detach", "d", false, "Return once the instance is started")
	runCmd.Flags().DurationVar(&runPoll, "poll", 2*time.Second, "Status polling interval")
}

func runScenario(cmd *cobra.Command, project, scenario string) error {
	arguments, err := parseArguments(runArguments)
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}

	fmt.Println("□ Loading scenario...")
	doc, err := client.GetScenario(cmd.Context(), project, scenario)
	if err != nil {
		return errors.Annotatef(err, "failed to fetch scenario %s", scenario)
	}

	launcher := runner.NewLauncher(client, os.Stdout, runDryRun)
	launcher.PollInterval = runPoll

	if runDetach && !runDryRun {
		if err := runner.CheckArguments(doc, arguments); err != nil {
			return err
		}
		id, err := client.StartScenarioInstance(cmd.Context(), project, scenario, arguments)
		if err != nil {
			return errors.Annotatef(err, "failed to start scenario %s", scenario)
		}
		fmt.Printf("✓ Instance %d started\n", id)
		return nil
	}

	instance, err := launcher.Run(cmd.Context(), project, doc, arguments)
	if err != nil {
		return err
	}
	if runDryRun {
		fmt.Println("✓ Dry-run complete")
		return nil
	}
	fmt.Printf("✓ Run complete (%s)\n", formatDate(instance.StopDate))
	return nil
}

func stopInstance(cmd *cobra.Command, arg string) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return errors.NotValidf("scenario instance id %q", arg)
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.StopScenarioInstance(cmd.Context(), id); err != nil {
		return errors.Annotatef(err, "failed to stop scenario instance %d", id)
	}
	fmt.Printf("✓ Stop requested for instance %d\n", id)
	return nil
}
