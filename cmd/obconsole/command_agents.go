package main

import (
	"fmt"
	"sort"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:     "agents",
	Aliases: []string{"agent"},
	Short:   "List the agents registered on the controller",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listAgents(cmd)
	},
}

func registerAgentsCommand(root *cobra.Command) {
	root.AddCommand(agentsCmd)
}

func listAgents(cmd *cobra.Command) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	agents, err := client.ListAgents(cmd.Context())
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("No agents found")
		return nil
	}
	sort.Slice(agents, func(a, b int) bool {
		return agents[a].Name < agents[b].Name
	})

	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("NAME", "ADDRESS", "PROJECT", "REACHABLE", "AVAILABLE", "STATUS")
	for _, a := range agents {
		project := a.Project
		if project == "" {
			project = "-"
		}
		table.AddRow(a.Name, a.Address, project, yesNo(a.Reachable), yesNo(a.Available), a.Status)
	}
	fmt.Println(table)
	return nil
}
