package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jward/targetgraph"
)

var (
	flagRoots []string
	flagDepth int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Compute the project view for the root targets",
	Long: `Expands from the root targets up to --depth hops and reports which
targets are materialized as modules and which are consumed as libraries.

Roots and depth default to targets and import_depth from the config file.
A negative depth expands without bound.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringSliceVar(&flagRoots, "root", nil, "root target label (repeatable)")
	syncCmd.Flags().IntVar(&flagDepth, "depth", 0, "expansion depth (default: import_depth from config)")
}

func runSync(cmd *cobra.Command, args []string) error {
	engine, _, err := openEngine(true)
	if err != nil {
		return outputError("sync", err)
	}
	defer engine.Close()

	roots, err := targetgraph.ParseLabels(flagRoots)
	if err != nil {
		return outputError("sync", err)
	}
	depth := engine.Config().ImportDepth
	if cmd.Flags().Changed("depth") {
		depth = flagDepth
	}

	res, err := engine.Sync(context.Background(), targetgraph.SyncRequest{Roots: roots, Depth: depth})
	if err != nil {
		return outputError("sync", err)
	}
	return outputResult(CLIResult{Command: "sync", Results: syncResultToCLI(res)})
}
