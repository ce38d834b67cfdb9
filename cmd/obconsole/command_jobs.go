package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/normalize"
)

var jobsCmd = &cobra.Command{
	Use:     "jobs [job]",
	Aliases: []string{"job"},
	Short:   "List and inspect jobs",
	Long:    "List the job catalog, from the backend or --jobs. Use 'obconsole jobs <name>' to show the arguments of a job.",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listJobs(cmd, args)
	},
}

func registerJobsCommand(root *cobra.Command) {
	root.AddCommand(jobsCmd)
}

func listJobs(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		job, err := cat.Get(args[0])
		if err != nil {
			return err
		}
		printJob(os.Stdout, job)
		return nil
	}

	if cat.Len() == 0 {
		fmt.Println("No jobs found")
		return nil
	}
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("NAME", "VERSION", "DESCRIPTION")
	for _, job := range cat.Jobs() {
		table.AddRow(job.Name(), job.General.JobVersion, job.General.Description)
	}
	fmt.Println(table)
	fmt.Println("\nRun 'obconsole jobs <name>' for detailed information")
	return nil
}

// printJob writes the argument tree of a job
func printJob(w io.Writer, job *model.Job) {
	fmt.Fprintf(w, "[Job] %s\n", job.Name())
	if job.General.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", job.General.Description)
	}
	if len(job.General.Keywords) > 0 {
		fmt.Fprintf(w, "  Keywords:    %s\n", strings.Join(job.General.Keywords, ", "))
	}
	fmt.Fprintln(w, "  Arguments:")
	printLevel(w, "    ", job.Arguments.Required, job.Arguments.Optional, job.Arguments.Subcommands)
}

func printLevel(w io.Writer, indent string, required, optional []model.JobArgument, groups []model.JobSubcommandGroup) {
	for i := range required {
		printArgument(w, indent, &required[i], true)
	}
	for i := range optional {
		printArgument(w, indent, &optional[i], false)
	}
	for _, g := range groups {
		kind := "one of"
		if g.Optional {
			kind = "optionally one of"
		}
		fmt.Fprintf(w, "%s%s (%s)\n", indent, g.GroupName, kind)
		for i, choice := range g.Choices {
			prefix, next := "├─ ", "│  "
			if i == len(g.Choices)-1 {
				prefix, next = "└─ ", "   "
			}
			fmt.Fprintf(w, "%s%s%s\n", indent, prefix, choice.Name)
			printLevel(w, indent+next, choice.Required, choice.Optional, choice.Subcommands)
		}
	}
}

func printArgument(w io.Writer, indent string, arg *model.JobArgument, required bool) {
	marker := " "
	if required {
		marker = "*"
	}
	line := fmt.Sprintf("%s%s %s [%s] values=%s", indent, marker, arg.Name, arg.Type, normalize.ArgumentCount(arg))
	if arg.Repeatable {
		line += " repeatable"
	}
	if arg.Description != "" {
		line += "  " + arg.Description
	}
	fmt.Fprintln(w, line)
}
