package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"showrunner/internal/pipeline"
	"showrunner/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <project-id>",
		Short: "Show per-phase pipeline status for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd.Context(), func(runCtx context.Context, rt *runtime) error {
				views, err := rt.orchestrator.PipelineStatus(runCtx, projectID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd, views)
				}
				printStatusTable(cmd, views)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func printStatusTable(cmd *cobra.Command, views []pipeline.EntryView) {
	colorize := shouldColorize(cmd.OutOrStdout())
	rows := make([]table.Row, 0, len(views))
	for _, view := range views {
		detail := view.BlockedReason
		if view.WorkOutstanding {
			detail = "work dispatched"
		}
		rows = append(rows, table.Row{
			string(view.EntityType),
			view.EntityID,
			phaseLabel(view.Phase),
			colorizeStatus(view.Status, colorize),
			formatProgress(view.ProgressCurrent, view.ProgressTarget),
			formatTimestamp(view.LastCheckedAt),
			detail,
		})
	}
	headers := table.Row{"Entity", "ID", "Phase", "Status", "Progress", "Checked", "Detail"}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, 2))
}

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "summary <project-id>",
		Short: "Show the aggregate pipeline position for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd.Context(), func(runCtx context.Context, rt *runtime) error {
				summary, err := rt.orchestrator.PipelineSummary(runCtx, projectID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd, summary)
				}
				printSummary(cmd, summary)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func printSummary(cmd *cobra.Command, summary pipeline.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project %d\n", summary.ProjectID)
	fmt.Fprintf(out, "  Pipeline enabled:      %v\n", summary.Enabled)
	fmt.Fprintf(out, "  Training target:       %d\n", summary.TrainingTarget)
	fmt.Fprintf(out, "  Characters incomplete: %d\n", summary.CharactersIncomplete)
	if summary.CurrentProjectPhase != "" {
		fmt.Fprintf(out, "  Current project phase: %s\n", phaseLabel(summary.CurrentProjectPhase))
	}
	fmt.Fprintf(out, "  Outstanding work:      %d\n", summary.OutstandingWork)

	statuses := make([]store.Status, 0, len(summary.StatusCounts))
	for status := range summary.StatusCounts {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	for _, status := range statuses {
		fmt.Fprintf(out, "  %-10s %d\n", statusLabel(status), summary.StatusCounts[status])
	}
}

func printJSON(cmd *cobra.Command, payload any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
