package main

import (
	"fmt"
	"sort"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sourceplane/obconsole/internal/model"
)

var projectsCmd = &cobra.Command{
	Use:     "projects [project]",
	Aliases: []string{"project"},
	Short:   "List and inspect projects",
	Long:    "List the projects of the controller. Use 'obconsole projects <name>' for its entities, networks and scenarios.",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listProjects(cmd, args)
	},
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios PROJECT",
	Short: "List the scenarios of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listScenarios(cmd, args[0])
	},
}

func registerProjectsCommand(root *cobra.Command) {
	root.AddCommand(projectsCmd)
}

func registerScenariosCommand(root *cobra.Command) {
	root.AddCommand(scenariosCmd)
}

func listProjects(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		p, err := client.GetProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printProject(p)
		return nil
	}

	projects, err := client.ListProjects(cmd.Context())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}
	sort.Slice(projects, func(a, b int) bool {
		return projects[a].Name < projects[b].Name
	})

	table := uitable.New()
	table.MaxColWidth = 50
	table.AddRow("NAME", "ENTITIES", "SCENARIOS", "DESCRIPTION")
	for _, p := range projects {
		table.AddRow(p.Name, len(p.Entities), len(p.Scenarios), p.Description)
	}
	fmt.Println(table)
	fmt.Println("\nRun 'obconsole projects <name>' for detailed information")
	return nil
}

func printProject(p *model.Project) {
	fmt.Printf("[Project] %s\n", p.Name)
	if p.Description != "" {
		fmt.Printf("  Description: %s\n", p.Description)
	}

	fmt.Printf("  Entities (%d):\n", len(p.Entities))
	if len(p.Entities) > 0 {
		table := uitable.New()
		table.AddRow("    NAME", "AGENT", "ADDRESS", "NETWORKS")
		for _, e := range p.Entities {
			agent, address := "-", "-"
			if e.Agent != nil {
				agent, address = e.Agent.Name, e.Agent.Address
			}
			networks := make([]string, 0, len(e.Networks))
			for _, n := range e.Networks {
				networks = append(networks, n.Name)
			}
			table.AddRow("    "+e.Name, agent, address, fmt.Sprint(networks))
		}
		fmt.Println(table)
	}

	if len(p.Networks) > 0 {
		fmt.Printf("  Networks (%d):\n", len(p.Networks))
		for _, n := range p.Networks {
			fmt.Printf("    %s  %s\n", n.Name, n.Address)
		}
	}

	fmt.Printf("  Scenarios (%d):\n", len(p.Scenarios))
	for _, s := range p.Scenarios {
		fmt.Printf("    %s (%s)\n", s.Name, plural(len(s.Functions), "function"))
	}
}

func listScenarios(cmd *cobra.Command, project string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	scenarios, err := client.ListScenarios(cmd.Context(), project)
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		fmt.Printf("No scenarios in project %s\n", project)
		return nil
	}
	sort.Slice(scenarios, func(a, b int) bool {
		return scenarios[a].Name < scenarios[b].Name
	})

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("NAME", "FUNCTIONS", "ARGUMENTS", "DESCRIPTION")
	for _, s := range scenarios {
		table.AddRow(s.Name, len(s.Functions), len(s.Arguments), s.Description)
	}
	fmt.Println(table)
	return nil
}
