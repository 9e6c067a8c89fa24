package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check pipeline database health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), func(runCtx context.Context, rt *runtime) error {
				health, err := rt.store.CheckHealth(runCtx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd, health)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n", health.DBPath)
				fmt.Fprintf(out, "  Exists:    %v\n", health.DatabaseExists)
				fmt.Fprintf(out, "  Readable:  %v\n", health.DatabaseReadable)
				fmt.Fprintf(out, "  Schema:    %v\n", health.TableExists)
				fmt.Fprintf(out, "  Integrity: %v\n", health.IntegrityCheck)
				fmt.Fprintf(out, "  Entries:   %d\n", health.TotalEntries)
				if health.Error != "" {
					fmt.Fprintf(out, "  Error:     %s\n", health.Error)
				}
				for status, count := range health.Counts {
					fmt.Fprintf(out, "  %-10s %d\n", statusLabel(status), count)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent operator and pipeline audit records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), func(runCtx context.Context, rt *runtime) error {
				records, err := rt.store.RecentAudit(runCtx, limit)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(records))
				for _, record := range records {
					rows = append(rows, table.Row{
						record.ID,
						record.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						record.Actor,
						record.Action,
						record.Detail,
					})
				}
				headers := table.Row{"ID", "When", "Actor", "Action", "Detail"}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, 1))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records to show")
	return cmd
}
