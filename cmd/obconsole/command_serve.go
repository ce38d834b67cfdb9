package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/console"
	"github.com/sourceplane/obconsole/internal/loader"
	"github.com/sourceplane/obconsole/internal/state"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scenario editor API",
	Long:  "Load agents, jobs and projects from the backend, then serve the HTTP API used by the scenario editor until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd)
	},
}

func registerServeCommand(root *cobra.Command) {
	root.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", ":8080", "Listen address")
}

func serve(cmd *cobra.Command) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	fallback := catalog.Empty()
	if jobsFile != "" {
		if fallback, err = loader.LoadCatalog(jobsFile); err != nil {
			return err
		}
	}

	store := state.NewStore()
	fmt.Println("□ Loading backend resources...")
	if snapshot, err := store.Reload(cmd.Context(), client); err != nil {
		logger.Warningf("initial load failed, retry with POST /api/reload: %v", err)
	} else {
		fmt.Printf("✓ Loaded %s, %s and %s\n",
			plural(len(snapshot.Agents), "agent"), plural(snapshot.Jobs.Len(), "job"), plural(len(snapshot.Projects), "project"))
	}

	fmt.Printf("✓ Serving on %s\n", listenAddr)
	return console.NewServer(store, client, fallback).Serve(cmd.Context(), listenAddr)
}
