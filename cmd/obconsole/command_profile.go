package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"sort"

	"github.com/gosuri/uitable"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/sourceplane/obconsole/internal/profiles"
)

var profileCACert string

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles"},
	Short:   "Manage backend profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listProfiles()
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set NAME",
	Short: "Create or replace a profile",
	Long:  "Store the API root given by --api-root, and optionally a CA certificate (PEM file), under NAME.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProfile(args[0])
	},
}

func registerProfileCommand(root *cobra.Command) {
	root.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd)

	profileSetCmd.Flags().StringVar(&profileCACert, "ca", "", "PEM file of the CA that signed the backend certificate")
}

func listProfiles() error {
	store, err := profiles.Load(storePath())
	if errors.Is(err, errors.NotFound) {
		fmt.Println("No profiles configured")
		return nil
	}
	if err != nil {
		return err
	}

	names := make([]string, 0, len(store))
	for name := range store {
		names = append(names, name)
	}
	sort.Strings(names)

	table := uitable.New()
	table.AddRow("NAME", "API ROOT", "CA")
	for _, name := range names {
		p := store[name]
		table.AddRow(name, p.ApiRoot, yesNo(p.Cert.CA != ""))
	}
	fmt.Println(table)
	return nil
}

func setProfile(name string) error {
	path := storePath()
	store, err := profiles.Load(path)
	switch {
	case errors.Is(err, errors.NotFound):
		store = profiles.Store{}
	case err != nil:
		return err
	}

	p := &profiles.Profile{ApiRoot: apiRoot}
	if profileCACert != "" {
		pem, err := os.ReadFile(profileCACert)
		if err != nil {
			return errors.Annotatef(err, "failed to read CA certificate")
		}
		p.Cert.CA = base64.StdEncoding.EncodeToString(pem)
	}
	if err := p.Verify(); err != nil {
		return err
	}

	store[name] = p
	if err := store.Save(path); err != nil {
		return err
	}
	fmt.Printf("✓ Profile %s saved to %s\n", name, path)
	return nil
}
