package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/runner"
)

var instancesCmd = &cobra.Command{
	Use:     "instances PROJECT SCENARIO",
	Aliases: []string{"instance"},
	Short:   "List the instances of a scenario, most recent first",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listInstances(cmd, args[0], args[1])
	},
}

var statusCmd = &cobra.Command{
	Use:   "status INSTANCE",
	Short: "Show a scenario instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showInstance(cmd, args[0])
	},
}

func registerInstancesCommand(root *cobra.Command) {
	root.AddCommand(instancesCmd)
	root.AddCommand(statusCmd)
}

func listInstances(cmd *cobra.Command, project, scenario string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	instances, err := client.ListScenarioInstances(cmd.Context(), project, scenario)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		fmt.Printf("No instances of scenario %s\n", scenario)
		return nil
	}
	runner.SortInstances(instances)

	table := uitable.New()
	table.AddRow("ID", "STATUS", "STARTED", "STOPPED", "OWNER")
	for _, si := range instances {
		table.AddRow(si.ID, si.Status, formatDate(si.StartDate), formatDate(si.StopDate), si.Owner)
	}
	fmt.Println(table)
	return nil
}

func showInstance(cmd *cobra.Command, arg string) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return errors.NotValidf("scenario instance id %q", arg)
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	si, err := client.GetScenarioInstance(cmd.Context(), id)
	if err != nil {
		return err
	}
	printInstance(si)
	return nil
}

func printInstance(si *model.ScenarioInstance) {
	fmt.Printf("[Instance] %d\n", si.ID)
	fmt.Printf("  Scenario: %s\n", si.ScenarioName)
	if si.Project != "" {
		fmt.Printf("  Project:  %s\n", si.Project)
	}
	fmt.Printf("  Status:   %s\n", si.Status)
	fmt.Printf("  Started:  %s\n", formatDate(si.StartDate))
	if si.Finished() {
		fmt.Printf("  Stopped:  %s\n", formatDate(si.StopDate))
	}
	if len(si.Arguments) > 0 {
		args, _ := json.Marshal(si.Arguments)
		fmt.Printf("  Arguments: %s\n", args)
	}
}
