package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datanexus/crmstore/internal/pipeline"
)

// MoveResult reports a stage move.
type MoveResult struct {
	Opportunity string `json:"opportunity"`
	Stage       string `json:"stage,omitempty"`
	Moved       bool   `json:"moved"`
}

// TargetsResult lists the stages an opportunity can move to.
type TargetsResult struct {
	Opportunity string           `json:"opportunity"`
	Current     pipeline.Stage   `json:"current"`
	Targets     []pipeline.Stage `json:"targets"`
}

// NewPipelineCommand creates the pipeline command group.
func NewPipelineCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Show and move opportunities through the sales pipeline",
	}
	cmd.AddCommand(newPipelineShowCommand(rootOpts))
	cmd.AddCommand(newPipelineMoveCommand(rootOpts))
	cmd.AddCommand(newPipelineTargetsCommand(rootOpts))
	return cmd
}

func newPipelineShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TenantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the pipeline board",
		Long: `Show every opportunity grouped by stage with per-stage revenue totals.

Opportunities whose stored stage is not recognised are shown under NEW.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipelineShow(opts, cmd)
		},
	}
	addCompanyFlag(cmd, &opts.Company)

	return cmd
}

func runPipelineShow(opts *TenantOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	ws, s, err := opts.openTenant(ctx, opts.Company)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer s.Close()

	board, err := pipeline.ForAccessors(s.CRM, pipeline.WithLogger(ws.logger)).Board(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build pipeline board", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(board)
	}
	return board.WriteText(cmd.OutOrStdout())
}

func newPipelineMoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TenantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "move <opportunity> <stage>",
		Short: "Move an opportunity to another stage",
		Long: `Move an opportunity to another stage.

The stage may be given by its stored name (NUEVO, CALIFICADO, PROPUESTA,
GANADO) or its English name (NEW, QUALIFIED, PROPOSAL, WON), in any case.
The move-menu placeholder "Mover a..." is accepted and changes nothing.

Exit codes:
  0 - Moved, or nothing to do
  1 - Unknown stage
  2 - Command error`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipelineMove(opts, cmd, args[0], args[1])
		},
	}
	addCompanyFlag(cmd, &opts.Company)

	return cmd
}

func runPipelineMove(opts *TenantOptions, cmd *cobra.Command, id, target string) error {
	ctx := context.Background()

	ws, s, err := opts.openTenant(ctx, opts.Company)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer s.Close()

	if err := pipeline.ForAccessors(s.CRM, pipeline.WithLogger(ws.logger)).MoveStage(ctx, id, target); err != nil {
		return classify("move failed", err)
	}

	result := MoveResult{Opportunity: id}
	if !pipeline.IsSentinel(target) {
		result.Moved = true
		result.Stage = pipeline.Normalize(target).String()
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}
	if !result.Moved {
		fmt.Fprintf(cmd.OutOrStdout(), "No stage selected; %s unchanged\n", id)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", id, result.Stage)
	return nil
}

func newPipelineTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TenantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "targets <opportunity>",
		Short:         "List the stages an opportunity can be moved to",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipelineTargets(opts, cmd, args[0])
		},
	}
	addCompanyFlag(cmd, &opts.Company)

	return cmd
}

func runPipelineTargets(opts *TenantOptions, cmd *cobra.Command, id string) error {
	ctx := context.Background()

	ws, s, err := opts.openTenant(ctx, opts.Company)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer s.Close()

	opp, found, err := s.CRM.Opportunities.GetByID(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read opportunity", err)
	}
	if !found {
		return NewExitError(ExitFailure, fmt.Sprintf("opportunity %q not found", id))
	}

	current := pipeline.Normalize(opp.Stage)
	result := TargetsResult{Opportunity: id, Current: current, Targets: pipeline.Targets(current)}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s is in %s; can move to:\n", id, current)
	for _, t := range result.Targets {
		fmt.Fprintf(out, "  %s (%s)\n", t, t.Stored())
	}
	return nil
}
