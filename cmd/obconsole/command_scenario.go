package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/convert"
	"github.com/sourceplane/obconsole/internal/form"
	"github.com/sourceplane/obconsole/internal/loader"
	"github.com/sourceplane/obconsole/internal/model"
	"github.com/sourceplane/obconsole/internal/planner"
	"github.com/sourceplane/obconsole/internal/render"
	"github.com/sourceplane/obconsole/internal/rest"
	"github.com/sourceplane/obconsole/internal/schema"
)

var (
	scenarioProject string
	scenarioName    string
	outputFile      string
	outputFormat    string
	viewMode        string
	fromForm        bool
	forceSave       bool
	pushScenario    bool
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Convert, validate and view scenarios",
	Long:  "Scenario documents are read from a file (json/yaml, - for stdin) or, with --project and --scenario, from the backend.",
}

var scenarioFormCmd = &cobra.Command{
	Use:   "form [document]",
	Short: "Convert a scenario document into its editable form",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return scenarioToForm(cmd, args)
	},
}

var scenarioSaveCmd = &cobra.Command{
	Use:   "save FORM",
	Short: "Convert a form back into a scenario document",
	Long:  "Validate a form file and write the scenario document it describes. Problems block the save unless --force is given. With --push the document is written to the backend.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return formToScenario(cmd, args[0])
	},
}

var scenarioValidateCmd = &cobra.Command{
	Use:   "validate [document]",
	Short: "Validate a scenario document against its schema, the job catalog and its own references",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateScenario(cmd, args)
	},
}

var scenarioViewCmd = &cobra.Command{
	Use:   "view [document]",
	Short: "Show the functions of a scenario as a DAG",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewScenario(cmd, args)
	},
}

var scenarioDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a scenario from the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteScenario(cmd)
	},
}

func registerScenarioCommand(root *cobra.Command) {
	root.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(scenarioFormCmd)
	scenarioCmd.AddCommand(scenarioSaveCmd)
	scenarioCmd.AddCommand(scenarioValidateCmd)
	scenarioCmd.AddCommand(scenarioViewCmd)
	scenarioCmd.AddCommand(scenarioDeleteCmd)

	scenarioCmd.PersistentFlags().StringVarP(&scenarioProject, "project", "p", "", "Project of the scenario on the backend")
	scenarioCmd.PersistentFlags().StringVarP(&scenarioName, "scenario", "s", "", "Scenario name on the backend")

	for _, c := range []*cobra.Command{scenarioFormCmd, scenarioSaveCmd} {
		c.Flags().StringVarP(&outputFile, "output", "o", "-", "Output file path (- for stdout)")
		c.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format (json/yaml, default from the output extension)")
	}

	scenarioSaveCmd.Flags().BoolVar(&forceSave, "force", false, "Save even when the form has problems")
	scenarioSaveCmd.Flags().BoolVar(&pushScenario, "push", false, "Write the document to the backend (requires --project)")

	scenarioViewCmd.Flags().StringVarP(&viewMode, "view", "v", "dag", "View (dag/dependencies/function=ID)")
	scenarioViewCmd.Flags().BoolVar(&fromForm, "form", false, "The file is a form rather than a document")
}

// progress goes to stderr when the document itself is written to stdout
func progress() io.Writer {
	if outputFile == "-" || outputFile == "" {
		return os.Stderr
	}
	return os.Stdout
}

// chosenFormat is the --format flag, empty to pick it from the output path
func chosenFormat() (render.Format, error) {
	if outputFormat == "" {
		return "", nil
	}
	return render.ParseFormat(outputFormat)
}

// sourceDocument reads the scenario named by the arguments or the
// --project/--scenario flags. The client is nil for a file.
func sourceDocument(ctx context.Context, args []string) (*model.Scenario, rest.Client, error) {
	if len(args) == 1 {
		doc, err := loader.LoadScenario(args[0])
		if err != nil {
			return nil, nil, errors.Annotate(err, "failed to load scenario")
		}
		return doc, nil, nil
	}
	if scenarioProject == "" || scenarioName == "" {
		return nil, nil, errors.Errorf("give a document file, or --project and --scenario")
	}

	client, err := newClient()
	if err != nil {
		return nil, nil, err
	}
	doc, err := client.GetScenario(ctx, scenarioProject, scenarioName)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "failed to fetch scenario %s", scenarioName)
	}
	return doc, client, nil
}

// catalogFor picks the job catalog for a conversion. Without --jobs and
// without a backend, job arguments are kept raw.
func catalogFor(ctx context.Context, client rest.Client) (*catalog.Catalog, error) {
	if jobsFile == "" && client == nil {
		c, err := newClient()
		if err != nil {
			logger.Debugf("no backend for the job catalog: %v", err)
		} else {
			client = c
		}
	}
	return jobCatalog(ctx, client)
}

func scenarioToForm(cmd *cobra.Command, args []string) error {
	format, err := chosenFormat()
	if err != nil {
		return err
	}
	out := progress()

	fmt.Fprintln(out, "□ Loading scenario...")
	doc, client, err := sourceDocument(cmd.Context(), args)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "□ Loading job catalog...")
	jobs, err := catalogFor(cmd.Context(), client)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "□ Converting to form...")
	f := convert.ConvertScenario(doc, jobs)
	if err := render.Write(f, outputFile, format); err != nil {
		return errors.Annotate(err, "failed to write form")
	}

	fmt.Fprintf(out, "✓ Form generated with %s\n", plural(len(f.Functions), "function"))
	return nil
}

// projectEntities returns the entity names of --project, nil when no
// project is given
func projectEntities(ctx context.Context, client rest.Client) ([]string, error) {
	if scenarioProject == "" {
		return nil, nil
	}
	p, err := client.GetProject(ctx, scenarioProject)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to fetch project %s", scenarioProject)
	}
	return p.EntityNames(), nil
}

func formToScenario(cmd *cobra.Command, path string) error {
	format, err := chosenFormat()
	if err != nil {
		return err
	}
	if pushScenario && scenarioProject == "" {
		return errors.Errorf("--push requires --project")
	}
	ctx := cmd.Context()
	out := progress()

	fmt.Fprintln(out, "□ Loading form...")
	f, err := loader.LoadScenarioForm(path)
	if err != nil {
		return errors.Annotate(err, "failed to load form")
	}

	var client rest.Client
	if scenarioProject != "" {
		if client, err = newClient(); err != nil {
			return err
		}
	}
	jobs, err := catalogFor(ctx, client)
	if err != nil {
		return err
	}

	var doc *model.Scenario
	if forceSave {
		fmt.Fprintln(out, "□ Converting to document (forced)...")
		for _, p := range form.Validate(f, jobs, nil) {
			fmt.Fprintf(out, "  ! %s\n", p)
		}
		doc = convert.SaveScenario(f, jobs)
	} else {
		fmt.Fprintln(out, "□ Validating form...")
		var entities []string
		if client != nil {
			if entities, err = projectEntities(ctx, client); err != nil {
				return err
			}
		}
		if doc, err = convert.Persist(f, jobs, entities); err != nil {
			return err
		}
	}

	if err := render.Write(doc, outputFile, format); err != nil {
		return errors.Annotate(err, "failed to write scenario")
	}
	fmt.Fprintf(out, "✓ Scenario %s generated with %s\n", doc.Name, plural(len(doc.Functions), "function"))

	if pushScenario {
		fmt.Fprintf(out, "□ Writing scenario to project %s...\n", scenarioProject)
		if _, err := client.PutScenario(ctx, scenarioProject, doc); err != nil {
			if !errors.Is(err, errors.NotFound) {
				return errors.Annotatef(err, "failed to save scenario %s", doc.Name)
			}
			if _, err := client.CreateScenario(ctx, scenarioProject, doc); err != nil {
				return errors.Annotatef(err, "failed to create scenario %s", doc.Name)
			}
		}
		fmt.Fprintf(out, "✓ Saved to project %s\n", scenarioProject)
	}
	return nil
}

// genericDocument returns the scenario as generic JSON values for the
// schema, re-reading the file when there is one
func genericDocument(args []string, doc *model.Scenario) (interface{}, error) {
	if len(args) == 1 {
		return loader.ReadGeneric(args[0])
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return loader.DecodeGeneric(data)
}

func validateScenario(cmd *cobra.Command, args []string) error {
	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}

	if jobsFile != "" {
		fmt.Println("□ Validating job catalog...")
		generic, err := loader.ReadGeneric(jobsFile)
		if err != nil {
			return err
		}
		if err := validator.ValidateJobs(generic); err != nil {
			return err
		}
	}

	fmt.Println("□ Loading scenario...")
	doc, client, err := sourceDocument(cmd.Context(), args)
	if err != nil {
		return err
	}

	fmt.Println("□ Validating against the scenario schema...")
	generic, err := genericDocument(args, doc)
	if err != nil {
		return err
	}
	if err := validator.ValidateScenario(generic); err != nil {
		return err
	}

	jobs, err := catalogFor(cmd.Context(), client)
	if err != nil {
		return err
	}
	var entities []string
	if client != nil {
		if entities, err = projectEntities(cmd.Context(), client); err != nil {
			return err
		}
	}

	fmt.Println("□ Checking functions...")
	f := convert.ConvertScenario(doc, jobs)
	lines := []string{}
	for _, p := range form.Validate(f, jobs, entities) {
		lines = append(lines, p.String())
	}
	if err := planner.NewFunctionGraph(f).DetectCycles(); err != nil {
		lines = append(lines, err.Error())
	}
	if len(lines) > 0 {
		for _, line := range lines {
			fmt.Printf("  ! %s\n", line)
		}
		return errors.NotValidf("scenario %q with %s", doc.Name, plural(len(lines), "problem"))
	}

	fmt.Println("✓ All validation passed")
	return nil
}

func viewScenario(cmd *cobra.Command, args []string) error {
	var f *form.ScenarioForm
	if fromForm {
		if len(args) != 1 {
			return errors.Errorf("--form requires a form file")
		}
		var err error
		if f, err = loader.LoadScenarioForm(args[0]); err != nil {
			return err
		}
	} else {
		doc, client, err := sourceDocument(cmd.Context(), args)
		if err != nil {
			return err
		}
		jobs, err := catalogFor(cmd.Context(), client)
		if err != nil {
			return err
		}
		f = convert.ConvertScenario(doc, jobs)
	}

	viewer := render.NewScenarioViewer(f)
	var output string
	switch {
	case viewMode == "dag" || viewMode == "":
		output = viewer.ViewDAG()
	case viewMode == "dependencies":
		output = viewer.ViewDependencies()
	case strings.HasPrefix(viewMode, "function="):
		id, err := strconv.Atoi(strings.TrimPrefix(viewMode, "function="))
		if err != nil {
			return errors.NotValidf("view %q", viewMode)
		}
		output = viewer.ViewFunction(id)
	default:
		return errors.NotValidf("view %q (want dag, dependencies or function=ID)", viewMode)
	}

	fmt.Printf("[Scenario] %s\n\n%s", f.Name, output)
	if !strings.HasSuffix(output, "\n") {
		fmt.Println()
	}
	return nil
}

func deleteScenario(cmd *cobra.Command) error {
	if scenarioProject == "" || scenarioName == "" {
		return errors.Errorf("delete requires --project and --scenario")
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.DeleteScenario(cmd.Context(), scenarioProject, scenarioName); err != nil {
		return errors.Annotatef(err, "failed to delete scenario %s", scenarioName)
	}
	fmt.Printf("✓ Scenario %s deleted from project %s\n", scenarioName, scenarioProject)
	return nil
}
