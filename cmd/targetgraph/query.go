package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/targetgraph"
)

var (
	flagLimit  int
	flagOffset int
	flagSort   string
	flagOrder  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the stored target graph",
	Long:  "Run dependency queries against the ingested universe. Unknown labels yield empty results.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	queryCmd.PersistentFlags().StringVar(&flagSort, "sort", "", "sort field: label|kind|source|dependency_count|dependent_count")
	queryCmd.PersistentFlags().StringVar(&flagOrder, "order", "asc", "sort order: asc|desc")

	depsCmd.Flags().Bool("compile", false, "only compile-time dependencies")
	closureCmd.Flags().StringSlice("without-roots", nil, "drop these root labels from the closure")
	depthCmd.Flags().Int("depth", -1, "expansion depth; negative is unbounded")
	librariesCmd.Flags().StringSlice("root", nil, "root label (repeatable)")
	targetsCmd.Flags().StringSlice("kind", nil, "filter by rule kind (repeatable)")
	targetsCmd.Flags().String("prefix", "", "filter by label prefix")
	targetsCmd.Flags().String("source", "", "filter by BUILD file")
	searchCmd.Flags().StringSlice("kind", nil, "filter by rule kind (repeatable)")

	queryCmd.AddCommand(depsCmd)
	queryCmd.AddCommand(rdepsCmd)
	queryCmd.AddCommand(closureCmd)
	queryCmd.AddCommand(depthCmd)
	queryCmd.AddCommand(librariesCmd)
	queryCmd.AddCommand(cyclesCmd)
	queryCmd.AddCommand(summaryCmd)
	queryCmd.AddCommand(targetsCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(packagesCmd)
	queryCmd.AddCommand(runsCmd)
}

// --- Helpers ---

// withQuery opens the engine, runs fn and writes its result or error under
// the given command name.
func withQuery(command string, fn func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error)) error {
	engine, _, err := openEngine(true)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	result, err := fn(context.Background(), engine)
	if err != nil {
		return outputError(command, err)
	}
	result.Command = command
	return outputResult(result)
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() targetgraph.Pagination {
	return targetgraph.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

// buildSort creates a Sort from CLI flags.
func buildSort() targetgraph.Sort {
	var field targetgraph.SortField
	switch flagSort {
	case "kind":
		field = targetgraph.SortByKind
	case "source":
		field = targetgraph.SortBySource
	case "dependency_count":
		field = targetgraph.SortByDependencyCount
	case "dependent_count":
		field = targetgraph.SortByDependentCount
	default:
		field = targetgraph.SortByLabel
	}

	order := targetgraph.Asc
	if flagOrder == "desc" {
		order = targetgraph.Desc
	}
	return targetgraph.Sort{Field: field, Order: order}
}

func pagedStoredTargets(page *targetgraph.PagedResult[targetgraph.TargetResult]) CLIResult {
	items := make([]CLIStoredTarget, len(page.Items))
	for i, r := range page.Items {
		items[i] = storedTargetToCLI(r)
	}
	total := page.TotalCount
	return CLIResult{Results: items, TotalCount: &total}
}

// --- Commands ---

var depsCmd = &cobra.Command{
	Use:   "deps <label>",
	Short: "Direct dependencies of a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		compile, _ := cmd.Flags().GetBool("compile")
		return withQuery("deps", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			l, err := targetgraph.ParseLabel(args[0])
			if err != nil {
				return CLIResult{}, err
			}
			var labels []targetgraph.Label
			if compile {
				labels, err = e.Query().CompileDependencies(ctx, l)
			} else {
				labels, err = e.Query().Dependencies(ctx, l)
			}
			if err != nil {
				return CLIResult{}, err
			}
			return CLIResult{Results: labelsToCLI(labels)}, nil
		})
	},
}

var rdepsCmd = &cobra.Command{
	Use:   "rdeps <label>",
	Short: "Targets that depend directly on a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("rdeps", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			l, err := targetgraph.ParseLabel(args[0])
			if err != nil {
				return CLIResult{}, err
			}
			labels, err := e.Query().Dependents(ctx, l)
			if err != nil {
				return CLIResult{}, err
			}
			return CLIResult{Results: labelsToCLI(labels)}, nil
		})
	},
}

var closureCmd = &cobra.Command{
	Use:   "closure <label>",
	Short: "Transitive dependencies of a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootArgs, _ := cmd.Flags().GetStringSlice("without-roots")
		return withQuery("closure", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			l, err := targetgraph.ParseLabel(args[0])
			if err != nil {
				return CLIResult{}, err
			}
			var targets []targetgraph.TargetInfo
			if len(rootArgs) > 0 {
				roots, err := targetgraph.ParseLabels(rootArgs)
				if err != nil {
					return CLIResult{}, err
				}
				targets, err = e.Query().TransitiveDependenciesWithoutRoots(ctx, l, roots)
				if err != nil {
					return CLIResult{}, err
				}
			} else {
				targets, err = e.Query().TransitiveDependencies(ctx, l)
				if err != nil {
					return CLIResult{}, err
				}
			}
			return CLIResult{Results: targetsToCLI(targets)}, nil
		})
	},
}

var depthCmd = &cobra.Command{
	Use:   "depth <seed>...",
	Short: "Depth-bounded expansion from seed targets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, _ := cmd.Flags().GetInt("depth")
		return withQuery("depth", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			seeds, err := targetgraph.ParseLabels(args)
			if err != nil {
				return CLIResult{}, err
			}
			tad, err := e.Query().TargetsAtDepth(ctx, depth, seeds)
			if err != nil {
				return CLIResult{}, err
			}
			return CLIResult{Results: CLITargetsAtDepth{
				Targets:            targetsToCLI(tad.Targets),
				DirectDependencies: targetsToCLI(tad.DirectDependencies),
			}}, nil
		})
	},
}

var librariesCmd = &cobra.Command{
	Use:   "libraries <library>...",
	Short: "Libraries reachable from the given roots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootArgs, _ := cmd.Flags().GetStringSlice("root")
		return withQuery("libraries", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			libs, err := targetgraph.ParseLabels(args)
			if err != nil {
				return CLIResult{}, err
			}
			roots, err := targetgraph.ParseLabels(rootArgs)
			if err != nil {
				return CLIResult{}, err
			}
			if len(roots) == 0 {
				roots = e.Config().RootLabels()
			}
			used, err := e.Query().UsedLibraries(ctx, libs, roots)
			if err != nil {
				return CLIResult{}, err
			}
			return CLIResult{Results: targetsToCLI(used)}, nil
		})
	},
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Dependency cycles in the universe",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("cycles", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			cycles, err := e.Query().Cycles(ctx)
			if err != nil {
				return CLIResult{}, err
			}
			out := make(CLICycles, len(cycles))
			for i, c := range cycles {
				out[i] = labelsToCLI(c)
			}
			return CLIResult{Results: out}, nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Overview of the stored universe",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("summary", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			s, err := e.Query().Summary(ctx)
			if err != nil {
				return CLIResult{}, err
			}
			return CLIResult{Results: summaryToCLI(s)}, nil
		})
	},
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List stored targets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter targetgraph.TargetFilter
		filter.Kinds, _ = cmd.Flags().GetStringSlice("kind")
		if prefix, _ := cmd.Flags().GetString("prefix"); prefix != "" {
			filter.LabelPrefix = &prefix
		}
		if source, _ := cmd.Flags().GetString("source"); source != "" {
			filter.Source = &source
		}
		return withQuery("targets", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			page, err := e.Query().Targets(filter, buildSort(), buildPagination())
			if err != nil {
				return CLIResult{}, err
			}
			return pagedStoredTargets(page), nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search target labels ('*' is the wildcard)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter targetgraph.TargetFilter
		filter.Kinds, _ = cmd.Flags().GetStringSlice("kind")
		return withQuery("search", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			page, err := e.Query().SearchTargets(args[0], filter, buildSort(), buildPagination())
			if err != nil {
				return CLIResult{}, err
			}
			return pagedStoredTargets(page), nil
		})
	},
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "Package-level dependency graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("packages", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			g, err := e.Query().PackageGraph(ctx)
			if err != nil {
				return CLIResult{}, err
			}
			return CLIResult{Results: packageGraphToCLI(g)}, nil
		})
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Recent sync runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("runs", func(ctx context.Context, e *targetgraph.Engine) (CLIResult, error) {
			runs, err := e.SyncRuns(buildPagination().Limit)
			if err != nil {
				return CLIResult{}, fmt.Errorf("sync runs: %w", err)
			}
			out := make([]CLISyncRun, len(runs))
			for i, r := range runs {
				out[i] = *syncRunToCLI(r)
			}
			return CLIResult{Results: out}, nil
		})
	},
}
