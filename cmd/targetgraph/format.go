package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
)

// stdout is where results are written; tests swap it.
var stdout io.Writer = os.Stdout

// outputResult writes a CLIResult in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// formatLabelsText writes one label per line.
func formatLabelsText(w io.Writer, labels []string) {
	for _, l := range labels {
		fmt.Fprintln(w, l)
	}
}

// formatTargetsText formats CLITarget results as aligned columns.
func formatTargetsText(w io.Writer, targets []CLITarget) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tKIND\tDEPS")
	for _, t := range targets {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", t.Label, t.Kind, len(t.Dependencies))
	}
	tw.Flush()
}

// formatStoredTargetsText formats CLIStoredTarget results as aligned columns.
func formatStoredTargetsText(w io.Writer, targets []CLIStoredTarget) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tKIND\tDEPS\tRDEPS\tSOURCE")
	for _, t := range targets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			t.Label, t.Kind, t.DependencyCount, t.DependentCount, t.Source)
	}
	tw.Flush()
}

func formatTargetsAtDepthText(w io.Writer, r CLITargetsAtDepth) {
	fmt.Fprintf(w, "Targets (%d):\n", len(r.Targets))
	for _, t := range r.Targets {
		fmt.Fprintf(w, "  %s\n", t.Label)
	}
	fmt.Fprintf(w, "Direct dependencies (%d):\n", len(r.DirectDependencies))
	for _, t := range r.DirectDependencies {
		fmt.Fprintf(w, "  %s\n", t.Label)
	}
}

func formatIngestText(w io.Writer, r CLIIngestResult) {
	fmt.Fprintf(w, "Added: %d\nChanged: %d\nRemoved: %d\nUnchanged: %d\nAffected: %d\n",
		len(r.Added), len(r.Changed), len(r.Removed), r.Unchanged, len(r.Affected))
}

func formatSyncText(w io.Writer, r CLISyncResult) {
	fmt.Fprintf(w, "Sync %s\n", r.ID)
	fmt.Fprintf(w, "Roots: %s\n", strings.Join(r.Roots, " "))
	fmt.Fprintf(w, "Depth: %d\n", r.Depth)
	fmt.Fprintf(w, "Materialized: %d targets (%d modules)\n", r.TargetCount, len(r.Modules))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Modules:")
	for _, t := range r.Modules {
		fmt.Fprintf(w, "  %s\n", t.Label)
	}
	fmt.Fprintln(w, "Libraries:")
	for _, t := range r.Libraries {
		fmt.Fprintf(w, "  %s\n", t.Label)
	}
}

func formatSyncRunsText(w io.Writer, runs []CLISyncRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tDEPTH\tTARGETS\tLIBRARIES\tROOTS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Depth,
			r.TargetCount, r.LibraryCount, strings.Join(r.Roots, " "))
	}
	tw.Flush()
}

// formatSummaryText formats CLISummary as readable text.
func formatSummaryText(w io.Writer, s CLISummary) {
	fmt.Fprintln(w, "Universe Summary")
	fmt.Fprintln(w, "================")
	fmt.Fprintf(w, "Targets: %d\n", s.TargetCount)
	fmt.Fprintf(w, "Edges: %d (%d declared)\n", s.EdgeCount, s.DependencyCount)
	fmt.Fprintf(w, "Cycles: %d\n", s.CycleCount)
	if s.LastIngest != "" {
		fmt.Fprintf(w, "Last ingest: %s\n", s.LastIngest)
	}
	fmt.Fprintln(w)

	if len(s.Kinds) > 0 {
		fmt.Fprintln(w, "Kinds:")
		for _, k := range s.Kinds {
			fmt.Fprintf(w, "  %s: %d\n", k.Kind, k.Count)
		}
		fmt.Fprintln(w)
	}
	if len(s.Roots) > 0 {
		fmt.Fprintln(w, "Roots:")
		for _, r := range s.Roots {
			fmt.Fprintf(w, "  %s\n", r)
		}
	}
}

func formatPackageGraphText(w io.Writer, g CLIPackageGraph) {
	names := make([]string, 0, len(g.Packages))
	for name := range g.Packages {
		names = append(names, name)
	}
	slices.Sort(names)
	fmt.Fprintf(w, "Packages (%d):\n", len(names))
	for _, name := range names {
		fmt.Fprintf(w, "  %s (%d targets)\n", name, g.Packages[name])
	}
	fmt.Fprintln(w, "Edges:")
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %s -> %s (%d)\n", e.From, e.To, e.Count)
	}
}

func formatCyclesText(w io.Writer, cycles CLICycles) {
	if len(cycles) == 0 {
		fmt.Fprintln(w, "No cycles")
		return
	}
	for _, c := range cycles {
		fmt.Fprintln(w, strings.Join(c, " -> "))
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []string:
		formatLabelsText(w, v)
	case []CLITarget:
		formatTargetsText(w, v)
	case []CLIStoredTarget:
		formatStoredTargetsText(w, v)
	case CLITargetsAtDepth:
		formatTargetsAtDepthText(w, v)
	case CLIIngestResult:
		formatIngestText(w, v)
	case CLISyncResult:
		formatSyncText(w, v)
	case []CLISyncRun:
		formatSyncRunsText(w, v)
	case CLISummary:
		formatSummaryText(w, v)
	case CLIPackageGraph:
		formatPackageGraphText(w, v)
	case CLICycles:
		formatCyclesText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []string:
		return len(r)
	case []CLITarget:
		return len(r)
	case []CLIStoredTarget:
		return len(r)
	case []CLISyncRun:
		return len(r)
	case CLICycles:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	if slices.Contains(validFormats, format) {
		return nil
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
