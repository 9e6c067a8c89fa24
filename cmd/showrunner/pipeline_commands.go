package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"showrunner/internal/pipeline"
	"showrunner/internal/store"
)

func newEnableCommand(ctx *commandContext, enable bool) *cobra.Command {
	use := "disable"
	short := "Pause autonomous pipeline evaluation"
	if enable {
		use = "enable"
		short = "Resume autonomous pipeline evaluation"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), func(runCtx context.Context, rt *runtime) error {
				if err := rt.orchestrator.Enable(runCtx, enable); err != nil {
					return err
				}
				state := "disabled"
				if enable {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pipeline %s. In-flight work is unaffected.\n", state)
				return nil
			})
		},
	}
}

func newInitCommand(ctx *commandContext) *cobra.Command {
	var trainingTarget int

	cmd := &cobra.Command{
		Use:   "init <project-id>",
		Short: "Open first-phase entries for a project and its designed characters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd.Context(), func(runCtx context.Context, rt *runtime) error {
				result, err := rt.orchestrator.InitializeProject(runCtx, projectID, trainingTarget)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project %d initialized: %d character entries, %d project entries created.\n",
					projectID, result.CharacterEntries, result.ProjectEntries)
				if result.CharacterEntries == 0 && result.ProjectEntries == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "All entries already existed; nothing to do.")
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&trainingTarget, "training-target", 0, "Override the persisted training target (approved artifacts per character)")
	return cmd
}

func newTickCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one evaluation pass over all non-terminal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), func(runCtx context.Context, rt *runtime) error {
				if !rt.orchestrator.IsEnabled() {
					fmt.Fprintln(cmd.OutOrStdout(), "Pipeline is disabled; run `showrunner enable` first.")
					return nil
				}
				result, err := rt.orchestrator.Tick(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tick complete: %d evaluated, %d advanced, %d dispatched.\n",
					result.Evaluated, result.Advanced, result.Dispatched)
				rt.orchestrator.Dispatcher().Wait()
				return nil
			})
		},
	}
}

func newOverrideCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override <entity-type> <entity-id> <phase> <skip|reset|complete>",
		Short: "Manually transition a pipeline entry, bypassing its gate",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, ok := store.ParseEntityType(args[0])
			if !ok {
				return fmt.Errorf("unknown entity type %q (want character or project)", args[0])
			}
			entityID, err := parseProjectID(args[1])
			if err != nil {
				return fmt.Errorf("invalid entity id %q", args[1])
			}
			action, ok := pipeline.ParseOverrideAction(args[3])
			if !ok {
				return fmt.Errorf("unknown override action %q (want skip, reset, or complete)", args[3])
			}
			phase := store.Phase(args[2])

			return ctx.withRuntime(cmd.Context(), func(runCtx context.Context, rt *runtime) error {
				if err := rt.orchestrator.Override(runCtx, entityType, entityID, phase, action); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Override %s applied to %s/%d/%s.\n", action, entityType, entityID, phase)
				return nil
			})
		},
	}
	return cmd
}
